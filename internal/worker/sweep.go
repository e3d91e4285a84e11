// Package worker hosts the asynq task handlers for background maintenance.
package worker

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/kiosko-dev/backend-consign/internal/obs"
)

// TaskExpirySweep marks listings whose markdown schedule has fully run out.
const TaskExpirySweep = "listing:expiry_sweep"

// NewExpirySweepTask builds the periodic sweep task. It carries no payload;
// the handler derives cutoffs from its own clock.
func NewExpirySweepTask() *asynq.Task {
	return asynq.NewTask(TaskExpirySweep, nil)
}

// Expirer is the store operation the sweep needs.
type Expirer interface {
	ExpireDue(ctx context.Context, now time.Time) (int64, error)
}

// Sweeper expires listings past the end of their discount schedule.
type Sweeper struct {
	Store  Expirer
	Now    func() time.Time
	Logger zerolog.Logger
}

// ProcessTask implements asynq.Handler. The sweep is idempotent, so a retry
// after a partial failure is safe.
func (s *Sweeper) ProcessTask(ctx context.Context, _ *asynq.Task) error {
	now := s.now()
	expired, err := s.Store.ExpireDue(ctx, now)
	if err != nil {
		s.Logger.Error().Err(err).Msg("expiry sweep failed")
		return err
	}
	obs.AddExpiredListings(expired)
	if expired > 0 {
		s.Logger.Info().Int64("expired", expired).Msg("expiry sweep completed")
	}
	return nil
}

func (s *Sweeper) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
