// ABOUTME: Cron trigger running the reminder sweep once per day
// ABOUTME: Whole-run errors and panics are logged, never propagated to the process
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/harper/recall-tracker/internal/logger"
	"github.com/harper/recall-tracker/internal/models"
	"github.com/robfig/cron/v3"
)

// DefaultSchedule fires every day at 08:00 in the scheduler's location
const DefaultSchedule = "0 8 * * *"

type Scheduler struct {
	cron    *cron.Cron
	sweeper *Sweeper
	loc     *time.Location
	timeout time.Duration
	log     *logger.Logger
}

// New registers the sweep under a standard five-field cron spec evaluated in loc
func New(sweeper *Sweeper, spec string, loc *time.Location, log *logger.Logger) (*Scheduler, error) {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = logger.Nop()
	}
	if spec == "" {
		spec = DefaultSchedule
	}
	s := &Scheduler{
		sweeper: sweeper,
		loc:     loc,
		timeout: 10 * time.Minute,
		log:     log.With("component", "Scheduler"),
	}
	s.cron = cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.Recover(cronLogger{s.log}), cron.SkipIfStillRunning(cronLogger{s.log})),
	)
	if _, err := s.cron.AddFunc(spec, s.tick); err != nil {
		return nil, fmt.Errorf("invalid reminder schedule %q: %w", spec, err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("reminder scheduler started", "location", s.loc.String())
}

// Stop halts the trigger; the returned context is done once a running sweep finishes
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	s.RunNow(ctx, models.DateOf(time.Now().In(s.loc)))
}

// RunNow performs one sweep for date and logs the outcome
func (s *Scheduler) RunNow(ctx context.Context, date models.Date) *Report {
	report, err := s.sweeper.Run(ctx, date)
	if err != nil {
		s.log.Error("reminder sweep failed", "date", date.String(), "error", err)
		return report
	}
	if ferr := report.Err(); ferr != nil {
		s.log.Warn("some reminders failed", "date", date.String(), "error", ferr)
	}
	return report
}

// cronLogger adapts logger.Logger to cron.Logger
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error(msg, append(keysAndValues, "error", err)...)
}
