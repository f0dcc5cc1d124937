package cron

import (
	"context"
	"log"
	"time"
)

// Service runs a maintenance job on a fixed interval. The sweeper is wired in
// as a plain function so this package stays free of domain imports.
type Service struct {
	job      func(ctx context.Context)
	interval time.Duration
	stopChan chan struct{}
}

func NewService(job func(ctx context.Context), intervalMinutes int) *Service {
	if intervalMinutes <= 0 {
		intervalMinutes = 60
	}
	return &Service{
		job:      job,
		interval: time.Duration(intervalMinutes) * time.Minute,
		stopChan: make(chan struct{}),
	}
}

// Start runs the job once immediately, then on every tick until Stop.
func (s *Service) Start() {
	go s.run()
	log.Printf("Cron service started (interval %s)", s.interval)
}

func (s *Service) Stop() {
	close(s.stopChan)
	log.Println("Cron service stopped")
}

func (s *Service) run() {
	s.RunNow()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.RunNow()
		}
	}
}

// RunNow executes the job once, for startup and manual triggers.
func (s *Service) RunNow() {
	if s.job == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	s.job(ctx)
}
