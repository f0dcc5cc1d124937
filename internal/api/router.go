package api

import (
	"github.com/gin-gonic/gin"

	"github.com/subguard/subguard_go_server/config"
	"github.com/subguard/subguard_go_server/internal/api/handler"
	"github.com/subguard/subguard_go_server/internal/api/middleware"
)

type Router struct {
	cfg                 *config.Config
	authHandler         *handler.AuthHandler
	userHandler         *handler.UserHandler
	subscriptionHandler *handler.SubscriptionHandler
	alertHandler        *handler.AlertHandler
	analyticsHandler    *handler.AnalyticsHandler
	notificationHandler *handler.NotificationHandler
	gmailHandler        *handler.GmailHandler
	wsHandler           *handler.WebSocketHandler
}

func NewRouter(
	cfg *config.Config,
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	subscriptionHandler *handler.SubscriptionHandler,
	alertHandler *handler.AlertHandler,
	analyticsHandler *handler.AnalyticsHandler,
	notificationHandler *handler.NotificationHandler,
	gmailHandler *handler.GmailHandler,
	wsHandler *handler.WebSocketHandler,
) *Router {
	return &Router{
		cfg:                 cfg,
		authHandler:         authHandler,
		userHandler:         userHandler,
		subscriptionHandler: subscriptionHandler,
		alertHandler:        alertHandler,
		analyticsHandler:    analyticsHandler,
		notificationHandler: notificationHandler,
		gmailHandler:        gmailHandler,
		wsHandler:           wsHandler,
	}
}

func (r *Router) Setup() *gin.Engine {
	if r.cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.CORS(r.cfg.CORS))

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := engine.Group("/api/v1")

	// Public routes. The OAuth callback arrives as a browser redirect
	// and cannot carry a Bearer token.
	v1.POST("/auth/register", r.authHandler.Register)
	v1.POST("/auth/login", r.authHandler.Login)
	v1.GET("/gmail/callback", r.gmailHandler.Callback)
	v1.GET("/ws", r.wsHandler.Serve)

	auth := v1.Group("")
	auth.Use(middleware.Auth(r.cfg.JWT.Secret))
	{
		auth.PUT("/auth/password", r.authHandler.ChangePassword)

		user := auth.Group("/user")
		{
			user.GET("/profile", r.userHandler.GetProfile)
			user.PUT("/profile", r.userHandler.UpdateProfile)
			user.POST("/avatar", r.userHandler.UploadAvatar)
			user.GET("/notification-settings", r.userHandler.GetNotificationSettings)
			user.PUT("/notification-settings", r.userHandler.UpdateNotificationSettings)
			user.DELETE("", r.userHandler.DeleteAccount)
		}

		subs := auth.Group("/subscriptions")
		{
			subs.POST("", r.subscriptionHandler.Create)
			subs.GET("", r.subscriptionHandler.List)
			subs.GET("/renewals", r.subscriptionHandler.UpcomingRenewals)
			subs.POST("/import", r.subscriptionHandler.ImportCSV)
			subs.GET("/:id", r.subscriptionHandler.Get)
			subs.PUT("/:id", r.subscriptionHandler.Update)
			subs.DELETE("/:id", r.subscriptionHandler.Delete)
			subs.POST("/:id/cancel", r.subscriptionHandler.Cancel)
			subs.POST("/:id/pause", r.subscriptionHandler.Pause)
			subs.POST("/:id/reactivate", r.subscriptionHandler.Reactivate)
			subs.POST("/:id/usage", r.subscriptionHandler.RecordUsage)
		}

		alerts := auth.Group("/alerts")
		{
			alerts.POST("", r.alertHandler.Create)
			alerts.GET("", r.alertHandler.List)
			alerts.GET("/stats", r.alertHandler.Stats)
			alerts.POST("/read-all", r.alertHandler.MarkAllRead)
			alerts.GET("/:id", r.alertHandler.Get)
			alerts.PUT("/:id", r.alertHandler.Update)
			alerts.POST("/:id/resolve", r.alertHandler.Resolve)
			alerts.POST("/:id/ignore", r.alertHandler.Ignore)
			alerts.POST("/:id/investigate", r.alertHandler.Investigate)
			alerts.POST("/:id/actions", r.alertHandler.AddAction)
			alerts.POST("/:id/read", r.alertHandler.MarkRead)
		}

		analytics := auth.Group("/analytics")
		{
			analytics.GET("/summary", r.analyticsHandler.Summary)
			analytics.GET("/spending", r.analyticsHandler.Spending)
			analytics.GET("/categories", r.analyticsHandler.Categories)
			analytics.GET("/merchants", r.analyticsHandler.Merchants)
			analytics.GET("/trend", r.analyticsHandler.Trend)
			analytics.GET("/forecast", r.analyticsHandler.Forecast)
			analytics.GET("/recommendations", r.analyticsHandler.Recommendations)
			analytics.GET("/insights", r.analyticsHandler.Insights)
			analytics.GET("/fraud-metrics", r.analyticsHandler.FraudMetrics)
		}

		notifications := auth.Group("/notifications")
		{
			notifications.POST("/send", r.notificationHandler.Send)
			notifications.POST("/enqueue", r.notificationHandler.Enqueue)
			notifications.POST("/test", r.notificationHandler.SendTest)
		}

		gmail := auth.Group("/gmail")
		{
			gmail.GET("/connect", r.gmailHandler.Connect)
			gmail.GET("/status", r.gmailHandler.Status)
			gmail.POST("/sync", r.gmailHandler.Sync)
			gmail.POST("/disconnect", r.gmailHandler.Disconnect)
		}
	}

	return engine
}
