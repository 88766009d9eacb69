package service

import (
	"context"
	"errors"
	"time"

	"greenguile/internal/catalog"
	"greenguile/internal/logger"
	"greenguile/internal/models"
)

const (
	DefaultTick                = time.Second
	DefaultMaintenanceInterval = time.Minute
)

// ScheduleSettings is the part of the settings store the loop reads on every
// tick.
type ScheduleSettings interface {
	SoundInterval() time.Duration
	ActiveHours() models.ActiveHours
}

// SchedulerService decides once per tick whether to run a deterrent cycle.
// Tick is only called from the loop goroutine, so its fields need no lock.
type SchedulerService struct {
	ctrl     Controller
	settings ScheduleSettings
	maint    Housekeeper
	cfg      ScheduleConfig
	log      *logger.Logger
	now      func() time.Time

	triggered       bool
	lastTrigger     time.Time
	lastMaintenance time.Time
}

func NewSchedulerService(ctrl Controller, s ScheduleSettings, maint Housekeeper, cfg ScheduleConfig, log *logger.Logger) *SchedulerService {
	if cfg.Tick <= 0 {
		cfg.Tick = DefaultTick
	}
	if cfg.MaintenanceInterval <= 0 {
		cfg.MaintenanceInterval = DefaultMaintenanceInterval
	}
	if log == nil {
		log = logger.Nop()
	}
	return &SchedulerService{
		ctrl:     ctrl,
		settings: s,
		maint:    maint,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
	}
}

// Run ticks until ctx is cancelled, then deactivates the controller.
func (s *SchedulerService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Tick)
	defer ticker.Stop()

	s.log.Infow("scheduler_started", "tick", s.cfg.Tick.String())
	s.Tick(ctx, s.now())
	for {
		select {
		case <-ctx.Done():
			s.ctrl.Deactivate(context.WithoutCancel(ctx))
			s.log.Infow("scheduler_stopped")
			return
		case <-ticker.C:
			s.Tick(ctx, s.now())
		}
	}
}

// Tick runs one iteration of the loop at now and reports whether a cycle was
// started.
func (s *SchedulerService) Tick(ctx context.Context, now time.Time) bool {
	if ctx.Err() != nil {
		return false
	}

	if s.lastMaintenance.IsZero() {
		s.lastMaintenance = now
	} else if now.Sub(s.lastMaintenance) >= s.cfg.MaintenanceInterval {
		if s.maint != nil {
			s.maint.Housekeep(ctx, now)
		}
		s.lastMaintenance = now
	}

	if !s.ctrl.IsActive() {
		return false
	}

	hours := s.settings.ActiveHours()
	open, err := WithinWindow(now, hours.Start, hours.End)
	if err != nil {
		s.log.Warnw("active_hours_invalid", "start", hours.Start, "end", hours.End, "err", err)
		return false
	}
	if !open {
		return false
	}

	if s.triggered && now.Sub(s.lastTrigger) < s.settings.SoundInterval() {
		return false
	}

	s.triggered = true
	s.lastTrigger = now

	err = s.ctrl.RunCycle(ctx)
	switch {
	case err == nil:
	case errors.Is(err, ErrCycleInFlight), errors.Is(err, catalog.ErrNoPatternsForSeason):
		// already logged by the controller
	default:
		s.log.Warnw("cycle_failed", "err", err)
	}
	return true
}
