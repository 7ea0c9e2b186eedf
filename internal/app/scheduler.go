package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/bobmcallan/nsechat/internal/common"
	"github.com/bobmcallan/nsechat/internal/interfaces"
	"github.com/bobmcallan/nsechat/internal/models"
)

// scheduleLocation is the zone cron expressions are evaluated in; NSE trades on IST.
var scheduleLocation = func() *time.Location {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		return time.FixedZone("IST", 5*60*60+30*60)
	}
	return loc
}()

// Scheduler triggers metadata refreshes on a cron schedule.
type Scheduler struct {
	cron    *cron.Cron
	entry   cron.EntryID
	spec    string
	refresh interfaces.RefreshService
	logger  *common.Logger
}

// NewScheduler parses a standard five-field cron expression. Overlapping ticks
// are skipped by the refresh service's own single-run guard.
func NewScheduler(spec string, refresh interfaces.RefreshService, logger *common.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:    cron.New(cron.WithLocation(scheduleLocation)),
		spec:    spec,
		refresh: refresh,
		logger:  logger,
	}
	id, err := s.cron.AddFunc(spec, s.trigger)
	if err != nil {
		return nil, fmt.Errorf("%w: refresh schedule %q: %v", common.ErrInvalidArgument, spec, err)
	}
	s.entry = id
	return s, nil
}

// Start begins running scheduled refreshes in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info().
		Str("schedule", s.spec).
		Str("next", s.Next().Format(time.RFC3339)).
		Msg("Refresh scheduler: started")
}

// Stop halts the schedule and waits up to ctx for a tick in flight to return.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
	s.logger.Info().Msg("Refresh scheduler: stopped")
}

// Next returns the next scheduled trigger time, zero before Start.
func (s *Scheduler) Next() time.Time {
	return s.cron.Entry(s.entry).Next
}

func (s *Scheduler) trigger() {
	id, err := s.refresh.TriggerAsync(models.RefreshTriggerSchedule)
	switch {
	case errors.Is(err, common.ErrRefreshInProgress):
		s.logger.Info().Msg("Refresh scheduler: run already in progress, skipping tick")
	case err != nil:
		s.logger.Warn().Err(err).Msg("Refresh scheduler: trigger failed")
	default:
		s.logger.Info().Str("run_id", id).Msg("Refresh scheduler: run started")
	}
}
