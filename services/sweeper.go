package services

import (
	"time"

	"github.com/go-co-op/gocron"

	"onboarding-copilot/internal/logger"
)

// Sweeper runs the cache expiry sweep on a fixed schedule.
type Sweeper struct {
	scheduler *gocron.Scheduler
	cache     *SemanticCache
}

func NewSweeper(cache *SemanticCache) *Sweeper {
	return &Sweeper{
		scheduler: gocron.NewScheduler(time.UTC),
		cache:     cache,
	}
}

// Start schedules an hourly sweep and returns immediately.
func (s *Sweeper) Start() error {
	_, err := s.scheduler.Every(1).Hour().Do(func() {
		s.cache.Sweep()
	})
	if err != nil {
		return err
	}
	s.scheduler.StartAsync()
	logger.Info("Cache sweeper started", "interval", "1h")
	return nil
}

func (s *Sweeper) Stop() {
	s.scheduler.Stop()
}
