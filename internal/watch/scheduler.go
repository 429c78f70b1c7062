package watch

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/sitepub/internal/logfields"
)

// scheduler fires a periodic republish independent of filesystem events.
type scheduler struct {
	scheduler gocron.Scheduler
	logger    *slog.Logger
}

func newScheduler(logger *slog.Logger) (*scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	return &scheduler{scheduler: s, logger: logger}, nil
}

// every sends on tick each interval. A tick is dropped while the previous one
// is still pending.
func (s *scheduler) every(interval time.Duration, tick chan<- struct{}) error {
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			select {
			case tick <- struct{}{}:
			default:
				s.logger.Debug("Scheduled publish already pending")
			}
		}),
		gocron.WithName("periodic-publish"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to create periodic publish job: %w", err)
	}
	s.scheduler.Start()
	return nil
}

func (s *scheduler) stop() {
	if err := s.scheduler.Shutdown(); err != nil {
		s.logger.Warn("Failed to stop scheduler", logfields.Error(err))
	}
}
