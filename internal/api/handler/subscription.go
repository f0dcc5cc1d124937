package handler

import (
	"errors"
	"io"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/subguard/subguard_go_server/config"
	"github.com/subguard/subguard_go_server/internal/api/middleware"
	"github.com/subguard/subguard_go_server/internal/model"
	"github.com/subguard/subguard_go_server/internal/model/dto"
	"github.com/subguard/subguard_go_server/internal/pkg/response"
	"github.com/subguard/subguard_go_server/internal/repository"
	"github.com/subguard/subguard_go_server/internal/service"
)

type SubscriptionHandler struct {
	subscriptionService *service.SubscriptionService
	importService       *service.ImportService
	cfg                 *config.Config
}

func NewSubscriptionHandler(
	subscriptionService *service.SubscriptionService,
	importService *service.ImportService,
	cfg *config.Config,
) *SubscriptionHandler {
	return &SubscriptionHandler{
		subscriptionService: subscriptionService,
		importService:       importService,
		cfg:                 cfg,
	}
}

func subscriptionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSubscriptionNotFound):
		response.NotFoundError(c, err.Error())
	case errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrInvalidBillingCycle),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrInvalidCategory),
		errors.Is(err, service.ErrInvalidCurrency),
		errors.Is(err, service.ErrInvalidPayment),
		errors.Is(err, service.ErrInvalidDate):
		response.ParamError(c, err.Error())
	default:
		response.ServerError(c, "")
	}
}

// Create
// POST /api/v1/subscriptions
func (h *SubscriptionHandler) Create(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.CreateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	detail, err := h.subscriptionService.Create(userID, &req)
	if err != nil {
		subscriptionError(c, err)
		return
	}

	response.Success(c, detail)
}

// List
// GET /api/v1/subscriptions?status=&category=&sort_by=&sort_desc=&page=&page_size=
func (h *SubscriptionHandler) List(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	filter := repository.SubscriptionFilter{
		Status:   model.SubscriptionStatus(c.Query("status")),
		Category: c.Query("category"),
		SortBy:   c.Query("sort_by"),
		SortDesc: c.Query("sort_desc") == "true",
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	details, total, err := h.subscriptionService.List(userID, filter, page, pageSize)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.SuccessPage(c, total, page, pageSize, details)
}

// Get
// GET /api/v1/subscriptions/:id
func (h *SubscriptionHandler) Get(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "invalid subscription id")
		return
	}

	detail, err := h.subscriptionService.Get(id, userID)
	if err != nil {
		subscriptionError(c, err)
		return
	}

	response.Success(c, detail)
}

// Update
// PUT /api/v1/subscriptions/:id
func (h *SubscriptionHandler) Update(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "invalid subscription id")
		return
	}

	var req dto.UpdateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	detail, err := h.subscriptionService.Update(id, userID, &req)
	if err != nil {
		subscriptionError(c, err)
		return
	}

	response.Success(c, detail)
}

// Delete
// DELETE /api/v1/subscriptions/:id
func (h *SubscriptionHandler) Delete(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "invalid subscription id")
		return
	}

	if err := h.subscriptionService.Delete(id, userID); err != nil {
		subscriptionError(c, err)
		return
	}

	response.SuccessWithMessage(c, "subscription deleted", nil)
}

// Cancel
// POST /api/v1/subscriptions/:id/cancel
func (h *SubscriptionHandler) Cancel(c *gin.Context) {
	h.transition(c, h.subscriptionService.Cancel)
}

// Pause
// POST /api/v1/subscriptions/:id/pause
func (h *SubscriptionHandler) Pause(c *gin.Context) {
	h.transition(c, h.subscriptionService.Pause)
}

// Reactivate
// POST /api/v1/subscriptions/:id/reactivate
func (h *SubscriptionHandler) Reactivate(c *gin.Context) {
	h.transition(c, h.subscriptionService.Reactivate)
}

// RecordUsage
// POST /api/v1/subscriptions/:id/usage
func (h *SubscriptionHandler) RecordUsage(c *gin.Context) {
	h.transition(c, h.subscriptionService.RecordUsage)
}

func (h *SubscriptionHandler) transition(c *gin.Context, fn func(id, userID int64) (*dto.SubscriptionDetail, error)) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "invalid subscription id")
		return
	}

	detail, err := fn(id, userID)
	if err != nil {
		subscriptionError(c, err)
		return
	}

	response.Success(c, detail)
}

// UpcomingRenewals
// GET /api/v1/subscriptions/renewals?days=7
func (h *SubscriptionHandler) UpcomingRenewals(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	days, _ := strconv.Atoi(c.DefaultQuery("days", "7"))

	details, err := h.subscriptionService.ListUpcomingRenewals(userID, days)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, details)
}

// ImportCSV
// POST /api/v1/subscriptions/import
func (h *SubscriptionHandler) ImportCSV(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		response.ParamError(c, "csv file is required")
		return
	}
	defer file.Close()

	if header.Size > h.cfg.Upload.MaxSize {
		response.ParamError(c, "file too large")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		response.ServerError(c, "failed to read file")
		return
	}

	resp, err := h.importService.ImportCSV(userID, data)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyCSV), errors.Is(err, service.ErrMissingHeader):
			response.ParamError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.Success(c, resp)
}
