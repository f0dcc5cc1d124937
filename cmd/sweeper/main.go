package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/subguard/subguard_go_server/config"
	"github.com/subguard/subguard_go_server/internal/database"
	"github.com/subguard/subguard_go_server/internal/pkg/queue"
	"github.com/subguard/subguard_go_server/internal/repository"
	"github.com/subguard/subguard_go_server/internal/service"
)

// One-shot sweep runner for cron or manual operation. The server runs
// the same passes on its own schedule; this binary exists for catch-up
// after downtime and for running individual passes by hand.
var (
	runBilling  = flag.Bool("billing", true, "Advance overdue auto-renew billing dates")
	runRenewals = flag.Bool("renewals", true, "Raise upcoming renewal alerts")
	runTrials   = flag.Bool("trials", true, "Raise trial ending alerts")
	runUsage    = flag.Bool("usage", true, "Refresh usage patterns and flag unused subscriptions")
	skipQueue   = flag.Bool("skip-queue", false, "Do not enqueue notifications for raised alerts")
	timeout     = flag.Int("timeout", 10, "Overall timeout in minutes")
)

func main() {
	flag.Parse()

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

	var notificationQueue *queue.Queue
	if !*skipQueue {
		rdb, err := database.NewRedis(cfg)
		if err != nil {
			log.Fatalf("Failed to connect redis: %v", err)
		}
		notificationQueue = queue.NewQueue(rdb, cfg.Queue.NotificationQueue)
	}

	subRepo := repository.NewSubscriptionRepository(db)
	alertRepo := repository.NewAlertRepository(db)
	sweeper := service.NewSweepService(subRepo, alertRepo, notificationQueue, cfg.Sweep)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(*timeout)*time.Minute)
	defer cancel()

	start := time.Now()
	log.Println("Starting sweep...")

	if *runBilling {
		advanced, err := sweeper.AdvanceOverdueBilling()
		if err != nil {
			log.Printf("Billing pass failed: %v", err)
		} else {
			log.Printf("Billing pass: %d subscriptions advanced", advanced)
		}

		expired, err := sweeper.ExpireLapsed()
		if err != nil {
			log.Printf("Expiry pass failed: %v", err)
		} else {
			log.Printf("Expiry pass: %d subscriptions expired", expired)
		}
	}

	if *runRenewals {
		raised, err := sweeper.RaiseRenewalAlerts(ctx)
		if err != nil {
			log.Printf("Renewal pass failed: %v", err)
		} else {
			log.Printf("Renewal pass: %d alerts raised", raised)
		}
	}

	if *runTrials {
		raised, err := sweeper.RaiseTrialEndingAlerts(ctx)
		if err != nil {
			log.Printf("Trial pass failed: %v", err)
		} else {
			log.Printf("Trial pass: %d alerts raised", raised)
		}
	}

	if *runUsage {
		flagged, refreshed, err := sweeper.RefreshUsage(ctx)
		if err != nil {
			log.Printf("Usage pass failed: %v", err)
		} else {
			log.Printf("Usage pass: %d patterns refreshed, %d flagged unused", refreshed, flagged)
		}
	}

	log.Printf("Sweep finished in %s", time.Since(start).Round(time.Millisecond))
}
