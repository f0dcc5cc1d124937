package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/subguard/subguard_go_server/config"
	"github.com/subguard/subguard_go_server/internal/api/middleware"
	"github.com/subguard/subguard_go_server/internal/pkg/response"
	"github.com/subguard/subguard_go_server/internal/service"
)

type GmailHandler struct {
	gmailService *service.GmailService
	cfg          *config.Config
}

func NewGmailHandler(gmailService *service.GmailService, cfg *config.Config) *GmailHandler {
	return &GmailHandler{
		gmailService: gmailService,
		cfg:          cfg,
	}
}

func gmailError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrGmailNotConfigured):
		response.ServerError(c, err.Error())
	case errors.Is(err, service.ErrGmailNotConnected):
		response.ConflictError(c, err.Error())
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFoundError(c, err.Error())
	default:
		response.ServerError(c, "")
	}
}

// Connect
// GET /api/v1/gmail/connect
func (h *GmailHandler) Connect(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	url, err := h.gmailService.ConnectURL(c.Request.Context(), userID)
	if err != nil {
		gmailError(c, err)
		return
	}

	response.Success(c, gin.H{"auth_url": url})
}

// Callback handles the OAuth redirect from Google. It cannot carry a
// Bearer token, so the user is recovered from the state parameter and
// the browser is bounced back to the frontend.
// GET /api/v1/gmail/callback
func (h *GmailHandler) Callback(c *gin.Context) {
	state := c.Query("state")
	code := c.Query("code")

	frontend := h.cfg.Server.FrontendURL
	if frontend == "" {
		frontend = "/"
	}

	if state == "" || code == "" {
		c.Redirect(http.StatusFound, frontend+"?gmail=error")
		return
	}

	if _, err := h.gmailService.HandleCallback(c.Request.Context(), state, code); err != nil {
		c.Redirect(http.StatusFound, frontend+"?gmail=error")
		return
	}

	c.Redirect(http.StatusFound, frontend+"?gmail=connected")
}

// Status
// GET /api/v1/gmail/status
func (h *GmailHandler) Status(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	status, err := h.gmailService.Status(userID)
	if err != nil {
		gmailError(c, err)
		return
	}

	response.Success(c, status)
}

// Sync
// POST /api/v1/gmail/sync
func (h *GmailHandler) Sync(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	result, err := h.gmailService.Sync(c.Request.Context(), userID)
	if err != nil {
		gmailError(c, err)
		return
	}

	response.Success(c, result)
}

// Disconnect
// POST /api/v1/gmail/disconnect
func (h *GmailHandler) Disconnect(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	if err := h.gmailService.Disconnect(userID); err != nil {
		gmailError(c, err)
		return
	}

	response.SuccessWithMessage(c, "gmail disconnected", nil)
}
