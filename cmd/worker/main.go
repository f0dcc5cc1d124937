package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/subguard/subguard_go_server/config"
	"github.com/subguard/subguard_go_server/internal/database"
	"github.com/subguard/subguard_go_server/internal/model/dto"
	"github.com/subguard/subguard_go_server/internal/pkg/email"
	"github.com/subguard/subguard_go_server/internal/pkg/pubsub"
	"github.com/subguard/subguard_go_server/internal/pkg/queue"
	"github.com/subguard/subguard_go_server/internal/pkg/sms"
	"github.com/subguard/subguard_go_server/internal/pkg/ws"
	"github.com/subguard/subguard_go_server/internal/repository"
	"github.com/subguard/subguard_go_server/internal/service"
)

// The worker drains the notification queue so slow SMTP or SMS calls
// never block API requests. Push delivery still happens in the server
// process, which owns the websocket connections, via pub/sub events.
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
	log.Println("Database connected")

	rdb, err := database.NewRedis(cfg)
	if err != nil {
		log.Fatalf("Failed to connect redis: %v", err)
	}
	log.Println("Redis connected")

	var emailSender service.EmailSender
	if cfg.Email.SMTPHost != "" {
		emailSender = email.NewService(&cfg.Email)
	}

	var smsSender service.SMSSender
	if cfg.SMS.AccountSID != "" {
		smsSender = sms.NewService(&cfg.SMS)
	}

	userRepo := repository.NewUserRepository(db)
	alertRepo := repository.NewAlertRepository(db)

	// The hub here has no websocket listeners; push results come back
	// as skipped and the server delivers push through pub/sub instead.
	notificationService := service.NewNotificationService(
		userRepo, alertRepo, emailSender, smsSender, ws.NewHub(),
		nil, cfg.Notify.ChannelTimeoutSeconds)

	notificationQueue := queue.NewQueue(rdb, cfg.Queue.NotificationQueue)
	publisher := pubsub.NewPublisher(rdb)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("Received shutdown signal")
		cancel()
	}()

	maxWorkers := cfg.Queue.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 2
	}
	log.Printf("Notification worker started, max workers: %d", maxWorkers)

	for i := 0; i < maxWorkers; i++ {
		go func(workerID int) {
			for {
				select {
				case <-ctx.Done():
					log.Printf("Worker %d shutting down", workerID)
					return
				default:
					msg, err := notificationQueue.Pop(ctx, 5*time.Second)
					if err != nil {
						if ctx.Err() != nil {
							return
						}
						log.Printf("Worker %d: failed to pop message: %v", workerID, err)
						continue
					}
					if msg == nil {
						continue
					}

					log.Printf("Worker %d: dispatching %s notification for user %d", workerID, msg.Type, msg.UserID)
					processMessage(ctx, notificationService, publisher, msg)
				}
			}
		}(i)
	}

	<-ctx.Done()
	log.Println("Worker shutdown complete")
}

func processMessage(ctx context.Context, svc *service.NotificationService, publisher *pubsub.Publisher, msg *queue.NotificationMessage) {
	req := &dto.SendNotificationRequest{
		Type:    msg.Type,
		Title:   msg.Title,
		Message: msg.Message,
	}
	if msg.AlertID > 0 {
		alertID := msg.AlertID
		req.AlertID = &alertID
	}

	resp, err := svc.Dispatch(ctx, msg.UserID, req)
	if err != nil {
		log.Printf("Dispatch failed for user %d: %v", msg.UserID, err)
		return
	}

	for _, result := range resp.Results {
		switch {
		case result.Success:
			log.Printf("User %d: %s sent", msg.UserID, result.Channel)
		case result.Error != "":
			log.Printf("User %d: %s failed: %s", msg.UserID, result.Channel, result.Error)
		}
	}

	// Let the server process forward a push over any open websocket.
	if msg.AlertID > 0 {
		event := &pubsub.AlertEvent{
			Type:    "notification",
			UserID:  msg.UserID,
			AlertID: msg.AlertID,
		}
		if err := publisher.PublishAlertEvent(ctx, event); err != nil {
			log.Printf("Failed to publish notification event: %v", err)
		}
	}
}
