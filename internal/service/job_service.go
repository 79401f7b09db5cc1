package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// JobService hosts the periodic maintenance entry points invoked by the
// cron scheduler.
type JobService struct {
	lifecycle *LifecycleService
	log       zerolog.Logger
}

func NewJobService(lifecycle *LifecycleService, log zerolog.Logger) *JobService {
	return &JobService{
		lifecycle: lifecycle,
		log:       log.With().Str("component", "jobs").Logger(),
	}
}

// ExpireStaleReservations sweeps confirmed reservations past their end
// time. Designed to be scheduled repeatedly; every run is idempotent.
func (s *JobService) ExpireStaleReservations() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	expired, err := s.lifecycle.ExpireStale(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("stale reservation sweep failed")
		return
	}
	if expired > 0 {
		s.log.Info().Int("expired", expired).Msg("stale reservation sweep done")
	}
}
