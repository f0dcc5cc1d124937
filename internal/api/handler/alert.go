package handler

import (
	"context"
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/subguard/subguard_go_server/internal/api/middleware"
	"github.com/subguard/subguard_go_server/internal/model"
	"github.com/subguard/subguard_go_server/internal/model/dto"
	"github.com/subguard/subguard_go_server/internal/pkg/response"
	"github.com/subguard/subguard_go_server/internal/repository"
	"github.com/subguard/subguard_go_server/internal/service"
)

type AlertHandler struct {
	alertService *service.AlertService
}

func NewAlertHandler(alertService *service.AlertService) *AlertHandler {
	return &AlertHandler{
		alertService: alertService,
	}
}

func alertError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrAlertNotFound),
		errors.Is(err, service.ErrSubscriptionNotFound):
		response.NotFoundError(c, err.Error())
	case errors.Is(err, service.ErrAlertConflict),
		errors.Is(err, service.ErrAlertFinalized):
		response.ConflictError(c, err.Error())
	case errors.Is(err, service.ErrDuplicateAlert):
		response.DuplicateError(c, err.Error())
	case errors.Is(err, service.ErrInvalidAlertType),
		errors.Is(err, service.ErrInvalidSeverity),
		errors.Is(err, service.ErrInvalidResolution),
		errors.Is(err, service.ErrInvalidDate):
		response.ParamError(c, err.Error())
	default:
		response.ServerError(c, "")
	}
}

// Create
// POST /api/v1/alerts
func (h *AlertHandler) Create(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.CreateAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	detail, err := h.alertService.Create(c.Request.Context(), userID, &req)
	if err != nil {
		alertError(c, err)
		return
	}

	response.Success(c, detail)
}

// List
// GET /api/v1/alerts?type=&status=&severity=&unread_only=&page=&page_size=
func (h *AlertHandler) List(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	filter := repository.AlertFilter{
		Type:       model.AlertType(c.Query("type")),
		Status:     model.AlertStatus(c.Query("status")),
		Severity:   model.AlertSeverity(c.Query("severity")),
		UnreadOnly: c.Query("unread_only") == "true",
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	details, total, err := h.alertService.List(userID, filter, page, pageSize)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.SuccessPage(c, total, page, pageSize, details)
}

// Get
// GET /api/v1/alerts/:id
func (h *AlertHandler) Get(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "invalid alert id")
		return
	}

	detail, err := h.alertService.Get(id, userID)
	if err != nil {
		alertError(c, err)
		return
	}

	response.Success(c, detail)
}

// Update
// PUT /api/v1/alerts/:id
func (h *AlertHandler) Update(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "invalid alert id")
		return
	}

	var req dto.UpdateAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	detail, err := h.alertService.Update(c.Request.Context(), id, userID, &req)
	if err != nil {
		alertError(c, err)
		return
	}

	response.Success(c, detail)
}

// Resolve
// POST /api/v1/alerts/:id/resolve
func (h *AlertHandler) Resolve(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "invalid alert id")
		return
	}

	var req dto.ResolveAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	detail, err := h.alertService.Resolve(c.Request.Context(), id, userID, &req)
	if err != nil {
		alertError(c, err)
		return
	}

	response.Success(c, detail)
}

// Ignore
// POST /api/v1/alerts/:id/ignore
func (h *AlertHandler) Ignore(c *gin.Context) {
	h.notesTransition(c, h.alertService.Ignore)
}

// Investigate
// POST /api/v1/alerts/:id/investigate
func (h *AlertHandler) Investigate(c *gin.Context) {
	h.notesTransition(c, h.alertService.Investigate)
}

func (h *AlertHandler) notesTransition(c *gin.Context, fn func(ctx context.Context, id, userID int64, notes string) (*dto.AlertDetail, error)) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "invalid alert id")
		return
	}

	// Notes body is optional on these transitions.
	var req dto.AlertNotesRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.ParamError(c, err.Error())
			return
		}
	}

	detail, err := fn(c.Request.Context(), id, userID, req.Notes)
	if err != nil {
		alertError(c, err)
		return
	}

	response.Success(c, detail)
}

// AddAction
// POST /api/v1/alerts/:id/actions
func (h *AlertHandler) AddAction(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "invalid alert id")
		return
	}

	var req dto.AddActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	detail, err := h.alertService.AddAction(id, userID, &req)
	if err != nil {
		alertError(c, err)
		return
	}

	response.Success(c, detail)
}

// MarkRead
// POST /api/v1/alerts/:id/read
func (h *AlertHandler) MarkRead(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "invalid alert id")
		return
	}

	detail, err := h.alertService.MarkRead(id, userID)
	if err != nil {
		alertError(c, err)
		return
	}

	response.Success(c, detail)
}

// MarkAllRead
// POST /api/v1/alerts/read-all
func (h *AlertHandler) MarkAllRead(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	count, err := h.alertService.MarkAllRead(userID)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, gin.H{"marked": count})
}

// Stats
// GET /api/v1/alerts/stats
func (h *AlertHandler) Stats(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	stats, err := h.alertService.Stats(userID)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, stats)
}
