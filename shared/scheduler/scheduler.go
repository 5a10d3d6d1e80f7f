package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"film-room/shared/config"
	"film-room/shared/monitoring"

	"github.com/robfig/cron/v3"
)

// Agent defines the interface a scheduled agent must implement.
type Agent interface {
	Name() string
	Initialize() error
	RunOnce(ctx context.Context) error
}

// Scheduler runs an agent on a cron schedule, with health and metrics
// endpoints alongside.
type Scheduler struct {
	config  *config.Config
	monitor *monitoring.Monitor
	metrics *monitoring.Metrics
	agent   Agent
	cron    *cron.Cron
}

func New(cfg *config.Config, agent Agent, monitor *monitoring.Monitor, metrics *monitoring.Metrics) *Scheduler {
	return &Scheduler{
		config:  cfg,
		monitor: monitor,
		metrics: metrics,
		agent:   agent,
		// Prevent overlapping runs
		cron: cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	if err := s.agent.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize agent: %w", err)
	}

	healthServer := monitoring.NewHealthServer(s.monitor, s.metrics, fmt.Sprintf("%d", s.config.Monitoring.HealthPort))
	healthServer.Start()

	_, err := s.cron.AddFunc(s.config.Schedule, func() {
		if err := s.RunOnce(ctx); err != nil {
			log.Printf("Error running scheduled job for %s: %v", s.agent.Name(), err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	log.Printf("Scheduler started for %s with schedule: %s", s.agent.Name(), s.config.Schedule)
	s.cron.Start()

	<-ctx.Done()
	log.Printf("Scheduler stopped for %s", s.agent.Name())
	s.cron.Stop()
	return ctx.Err()
}

func (s *Scheduler) RunOnce(ctx context.Context) error {
	startTime := time.Now()
	agentName := s.agent.Name()

	log.Printf("Starting %s run...", agentName)

	if err := s.agent.RunOnce(ctx); err != nil {
		duration := time.Since(startTime)
		s.monitor.RecordCriticalFailure(fmt.Errorf("%s failed: %w", agentName, err), duration)
		return fmt.Errorf("%s run failed: %w", agentName, err)
	}

	return nil
}
