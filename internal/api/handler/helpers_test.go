package handler_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/subguard/subguard_go_server/config"
	"github.com/subguard/subguard_go_server/internal/api"
	"github.com/subguard/subguard_go_server/internal/api/handler"
	"github.com/subguard/subguard_go_server/internal/pkg/jwt"
	"github.com/subguard/subguard_go_server/internal/pkg/response"
	"github.com/subguard/subguard_go_server/internal/pkg/ws"
	"github.com/subguard/subguard_go_server/internal/repository"
	"github.com/subguard/subguard_go_server/internal/service"
	"github.com/subguard/subguard_go_server/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Mode:        "test",
			FrontendURL: "http://localhost:3000",
		},
		JWT: config.JWTConfig{
			Secret:      "handler-test-secret",
			ExpireHours: 24,
		},
		Upload: config.UploadConfig{
			MaxSize: 5 << 20,
		},
		CORS: config.CORSConfig{
			AllowedOrigins: []string{"http://localhost:3000"},
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
		},
	}
}

type testEnv struct {
	engine *gin.Engine
	db     *gorm.DB
	cfg    *config.Config
}

// setupEnv wires the full route table against an in-memory database.
// External providers (mail, sms, oss, oauth) stay nil, so routes that
// need them degrade the way they do with missing config.
func setupEnv(t *testing.T) (*testEnv, func()) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	cfg := testConfig()

	userRepo := repository.NewUserRepository(db)
	subRepo := repository.NewSubscriptionRepository(db)
	alertRepo := repository.NewAlertRepository(db)

	authService := service.NewAuthService(userRepo, cfg)
	userService := service.NewUserService(userRepo, subRepo, alertRepo, nil)
	subscriptionService := service.NewSubscriptionService(subRepo, alertRepo)
	alertService := service.NewAlertService(alertRepo, subRepo, nil)
	analyticsService := service.NewAnalyticsService(subRepo, alertRepo)
	importService := service.NewImportService(subRepo, nil)
	hub := ws.NewHub()
	notificationService := service.NewNotificationService(userRepo, alertRepo, nil, nil, hub, nil, 5)
	gmailService := service.NewGmailService(userRepo, alertRepo, nil, nil, 25)

	router := api.NewRouter(
		cfg,
		handler.NewAuthHandler(authService),
		handler.NewUserHandler(userService, cfg),
		handler.NewSubscriptionHandler(subscriptionService, importService, cfg),
		handler.NewAlertHandler(alertService),
		handler.NewAnalyticsHandler(analyticsService),
		handler.NewNotificationHandler(notificationService),
		handler.NewGmailHandler(gmailService, cfg),
		handler.NewWebSocketHandler(hub, cfg.JWT.Secret),
	)

	env := &testEnv{
		engine: router.Setup(),
		db:     db,
		cfg:    cfg,
	}
	cleanup := func() {
		testutil.CleanupTestDB(t, db)
	}
	return env, cleanup
}

func (e *testEnv) token(t *testing.T, userID int64) string {
	t.Helper()
	token, err := jwt.GenerateToken(userID, e.cfg.JWT.Secret, e.cfg.JWT.ExpireHours)
	require.NoError(t, err)
	return token
}

func (e *testEnv) request(t *testing.T, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func (e *testEnv) multipartRequest(t *testing.T, path, field, filename string, content []byte, token string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	require.Equal(t, http.StatusOK, w.Code)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	env := decodeEnvelope(t, w)
	require.Equal(t, response.CodeSuccess, env.Code, "unexpected code: %d (%s)", env.Code, env.Message)
	require.NoError(t, json.Unmarshal(env.Data, out))
}
