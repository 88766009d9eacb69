package service

import (
	"context"
	"runtime"
	"time"

	"greenguile/internal/logger"
	"greenguile/internal/repository"
)

const pruneTimeout = 10 * time.Second

// Housekeeper is the periodic hygiene hook run by the scheduler.
type Housekeeper interface {
	Housekeep(ctx context.Context, now time.Time)
}

// Maintenance reclaims memory and prunes history older than retention.
type Maintenance struct {
	events    repository.EventRepo
	retention time.Duration
	log       *logger.Logger
}

// NewMaintenance returns a housekeeper. A zero retention keeps all history.
func NewMaintenance(events repository.EventRepo, retention time.Duration, log *logger.Logger) *Maintenance {
	if log == nil {
		log = logger.Nop()
	}
	return &Maintenance{events: events, retention: retention, log: log}
}

func (m *Maintenance) Housekeep(ctx context.Context, now time.Time) {
	runtime.GC()

	if m.events == nil || m.retention <= 0 {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, pruneTimeout)
	defer cancel()

	n, err := m.events.PruneBefore(ctx, now.Add(-m.retention))
	if err != nil {
		m.log.Warnw("event_prune_failed", "err", err)
		return
	}
	if n > 0 {
		m.log.Infow("events_pruned", "count", n, "retention", m.retention.String())
	}
}
