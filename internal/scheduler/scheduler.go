// Package scheduler drives the monthly pipeline from a cron expression.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"AlloySentinel/internal/pipeline"
)

// Scheduler owns the cron loop.
type Scheduler struct {
	cron     *cron.Cron
	pipeline *pipeline.Pipeline
	ctx      context.Context
}

// NewScheduler creates a scheduler bound to ctx.
func NewScheduler(ctx context.Context, p *pipeline.Pipeline) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithSeconds()),
		pipeline: p,
		ctx:      ctx,
	}
}

// Register adds the monthly update task.
func (s *Scheduler) Register(monthlyCron string) error {
	if _, err := s.cron.AddFunc(monthlyCron, s.monthlyTask); err != nil {
		return fmt.Errorf("register monthly task: %w", err)
	}
	return nil
}

// Start starts the cron loop.
func (s *Scheduler) Start() {
	s.cron.Start()
	log.Info().Msg("scheduler started")
}

// Stop stops the cron loop gracefully.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Info().Msg("scheduler stopped")
}

// RunNow executes the monthly task immediately (manual trigger).
func (s *Scheduler) RunNow() {
	s.monthlyTask()
}

func (s *Scheduler) monthlyTask() {
	month := time.Now()
	summary, err := s.pipeline.Run(s.ctx, month)
	if err != nil {
		log.Error().Err(err).Msg("monthly update failed")
		return
	}
	log.Info().Str("month", summary.Month).Float64("surcharge", summary.Surcharge).
		Msg("monthly update completed")
}
