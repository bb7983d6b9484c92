package scheduler

import (
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/kacan98/weather/internal/store"
)

// Scheduler periodically sweeps expired entries out of the forecast cache.
type Scheduler struct {
	scheduler *gocron.Scheduler
	cache     *store.MemoryCache
	interval  time.Duration
}

// New creates a new Scheduler.
func New(cache *store.MemoryCache, interval time.Duration) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		cache:     cache,
		interval:  interval,
	}
}

// Start schedules the periodic sweep and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 10
	}

	_, err := s.scheduler.Every(minutes).Minutes().Do(func() {
		removed := s.cache.Sweep()
		if removed > 0 {
			log.Printf("INFO: scheduler: swept %d expired forecast cache entries (%d remain)", removed, s.cache.Len())
		}
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
