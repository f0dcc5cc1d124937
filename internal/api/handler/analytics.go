package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/subguard/subguard_go_server/internal/api/middleware"
	"github.com/subguard/subguard_go_server/internal/pkg/response"
	"github.com/subguard/subguard_go_server/internal/service"
)

type AnalyticsHandler struct {
	analyticsService *service.AnalyticsService
}

func NewAnalyticsHandler(analyticsService *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{
		analyticsService: analyticsService,
	}
}

// Summary
// GET /api/v1/analytics/summary
func (h *AnalyticsHandler) Summary(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	summary, err := h.analyticsService.SubscriptionSummary(userID)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, summary)
}

// Spending
// GET /api/v1/analytics/spending
func (h *AnalyticsHandler) Spending(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	summary, err := h.analyticsService.SpendingSummary(userID)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, summary)
}

// Categories
// GET /api/v1/analytics/categories
func (h *AnalyticsHandler) Categories(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	breakdown, err := h.analyticsService.CategoryBreakdown(userID)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, breakdown)
}

// Merchants
// GET /api/v1/analytics/merchants
func (h *AnalyticsHandler) Merchants(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	breakdown, err := h.analyticsService.MerchantBreakdown(userID)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, breakdown)
}

// Trend
// GET /api/v1/analytics/trend?months=6
func (h *AnalyticsHandler) Trend(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	months, _ := strconv.Atoi(c.DefaultQuery("months", "6"))

	trend, err := h.analyticsService.SpendingTrend(userID, months)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, trend)
}

// Forecast
// GET /api/v1/analytics/forecast
func (h *AnalyticsHandler) Forecast(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	forecast, err := h.analyticsService.Forecast(userID)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, forecast)
}

// Recommendations
// GET /api/v1/analytics/recommendations
func (h *AnalyticsHandler) Recommendations(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	recs, err := h.analyticsService.Recommendations(userID)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, recs)
}

// Insights
// GET /api/v1/analytics/insights
func (h *AnalyticsHandler) Insights(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	insights, err := h.analyticsService.Insights(userID)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, insights)
}

// FraudMetrics
// GET /api/v1/analytics/fraud-metrics
func (h *AnalyticsHandler) FraudMetrics(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	metrics, err := h.analyticsService.FraudMetrics(userID)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, metrics)
}
