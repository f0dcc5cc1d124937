package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/subguard/subguard_go_server/internal/api/middleware"
	"github.com/subguard/subguard_go_server/internal/model/dto"
	"github.com/subguard/subguard_go_server/internal/pkg/response"
	"github.com/subguard/subguard_go_server/internal/service"
)

type NotificationHandler struct {
	notificationService *service.NotificationService
}

func NewNotificationHandler(notificationService *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
	}
}

func notificationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrAlertNotFound):
		response.NotFoundError(c, err.Error())
	case errors.Is(err, service.ErrInvalidNotifyType),
		errors.Is(err, service.ErrInvalidChannel):
		response.ParamError(c, err.Error())
	default:
		response.ServerError(c, "")
	}
}

// Send
// POST /api/v1/notifications/send
func (h *NotificationHandler) Send(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.SendNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	resp, err := h.notificationService.Dispatch(c.Request.Context(), userID, &req)
	if err != nil {
		notificationError(c, err)
		return
	}

	response.Success(c, resp)
}

// Enqueue
// POST /api/v1/notifications/enqueue
func (h *NotificationHandler) Enqueue(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.SendNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	if err := h.notificationService.Enqueue(c.Request.Context(), userID, &req); err != nil {
		notificationError(c, err)
		return
	}

	response.SuccessWithMessage(c, "notification queued", nil)
}

// SendTest
// POST /api/v1/notifications/test
func (h *NotificationHandler) SendTest(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.TestNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	result, err := h.notificationService.SendTest(c.Request.Context(), userID, req.Channel)
	if err != nil {
		notificationError(c, err)
		return
	}

	response.Success(c, result)
}
