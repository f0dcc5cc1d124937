package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/subguard/subguard_go_server/config"
	"github.com/subguard/subguard_go_server/internal/api"
	"github.com/subguard/subguard_go_server/internal/api/handler"
	"github.com/subguard/subguard_go_server/internal/database"
	"github.com/subguard/subguard_go_server/internal/pkg/cron"
	"github.com/subguard/subguard_go_server/internal/pkg/email"
	"github.com/subguard/subguard_go_server/internal/pkg/oauth"
	"github.com/subguard/subguard_go_server/internal/pkg/oss"
	"github.com/subguard/subguard_go_server/internal/pkg/pubsub"
	"github.com/subguard/subguard_go_server/internal/pkg/queue"
	"github.com/subguard/subguard_go_server/internal/pkg/sms"
	"github.com/subguard/subguard_go_server/internal/pkg/ws"
	"github.com/subguard/subguard_go_server/internal/repository"
	"github.com/subguard/subguard_go_server/internal/service"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.NewMySQL(cfg)
	if err != nil {
		log.Fatalf("Failed to connect database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database connected")

	rdb, err := database.NewRedis(cfg)
	if err != nil {
		log.Fatalf("Failed to connect redis: %v", err)
	}
	log.Println("Redis connected")

	// Optional providers. A missing section disables the channel
	// instead of failing startup.
	var ossClient *oss.Client
	if cfg.OSS.Endpoint != "" && cfg.OSS.AccessKeyID != "" {
		ossClient, err = oss.NewClient(&cfg.OSS)
		if err != nil {
			log.Printf("Warning: Failed to init OSS client: %v", err)
		} else {
			log.Println("OSS client initialized")
		}
	}

	var emailSender service.EmailSender
	if cfg.Email.SMTPHost != "" {
		emailSender = email.NewService(&cfg.Email)
		log.Println("Email sender configured")
	}

	var smsSender service.SMSSender
	if cfg.SMS.AccountSID != "" {
		smsSender = sms.NewService(&cfg.SMS)
		log.Println("SMS sender configured")
	}

	var gmailOAuth *oauth.GmailOAuth
	if cfg.Gmail.ClientID != "" {
		gmailOAuth = oauth.NewGmailOAuth(cfg.Gmail.ClientID, cfg.Gmail.ClientSecret, cfg.Gmail.RedirectURI)
		log.Println("Gmail OAuth configured")
	}

	notificationQueue := queue.NewQueue(rdb, cfg.Queue.NotificationQueue)
	publisher := pubsub.NewPublisher(rdb)
	stateStore := oauth.NewStateStore(rdb)

	wsHub := ws.NewHub()
	log.Println("WebSocket hub started")

	userRepo := repository.NewUserRepository(db)
	subRepo := repository.NewSubscriptionRepository(db)
	alertRepo := repository.NewAlertRepository(db)

	authService := service.NewAuthService(userRepo, cfg)
	userService := service.NewUserService(userRepo, subRepo, alertRepo, ossClient)
	subscriptionService := service.NewSubscriptionService(subRepo, alertRepo)
	alertService := service.NewAlertService(alertRepo, subRepo, publisher)
	analyticsService := service.NewAnalyticsService(subRepo, alertRepo)
	importService := service.NewImportService(subRepo, ossClient)
	notificationService := service.NewNotificationService(
		userRepo, alertRepo, emailSender, smsSender, wsHub,
		notificationQueue, cfg.Notify.ChannelTimeoutSeconds)
	gmailService := service.NewGmailService(userRepo, alertRepo, gmailOAuth, stateStore, cfg.Gmail.MaxMessages)
	sweepService := service.NewSweepService(subRepo, alertRepo, notificationQueue, cfg.Sweep)

	router := api.NewRouter(
		cfg,
		handler.NewAuthHandler(authService),
		handler.NewUserHandler(userService, cfg),
		handler.NewSubscriptionHandler(subscriptionService, importService, cfg),
		handler.NewAlertHandler(alertService),
		handler.NewAnalyticsHandler(analyticsService),
		handler.NewNotificationHandler(notificationService),
		handler.NewGmailHandler(gmailService, cfg),
		handler.NewWebSocketHandler(wsHub, cfg.JWT.Secret),
	)
	engine := router.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Bridge alert events from Redis into connected browsers.
	subscriber := pubsub.NewSubscriber(rdb)
	go func() {
		if err := subscriber.Subscribe(ctx, func(event *pubsub.AlertEvent) {
			if err := wsHub.SendToUser(event.UserID, &ws.Message{
				Type: event.Type,
				Data: event,
			}); err != nil {
				log.Printf("Failed to push alert event to user %d: %v", event.UserID, err)
			}
		}); err != nil && ctx.Err() == nil {
			log.Printf("Alert event subscriber stopped: %v", err)
		}
	}()

	sweeper := cron.NewService(func(ctx context.Context) {
		stats := sweepService.Sweep(ctx)
		log.Printf("Sweep done: advanced=%d expired=%d renewal_alerts=%d trial_alerts=%d unused_alerts=%d patterns=%d",
			stats.BillingAdvanced, stats.Expired, stats.RenewalAlerts,
			stats.TrialAlerts, stats.UnusedAlerts, stats.PatternsRefreshed)
	}, cfg.Sweep.IntervalMinutes)
	sweeper.Start()
	defer sweeper.Stop()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: engine,
	}

	go func() {
		log.Printf("Server starting on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	log.Println("Received shutdown signal")

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	log.Println("Server stopped")
}
