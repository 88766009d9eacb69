package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"greenguile/internal/models"
	"greenguile/internal/repository"
)

var (
	ErrInvalidTimeRange = errors.New("invalid time range: from must be <= to")
	ErrInvalidEventType = errors.New("invalid event type")
)

var eventTypes = map[string]struct{}{
	models.EventActivate:     {},
	models.EventDeactivate:   {},
	models.EventSeasonChange: {},
	models.EventCycle:        {},
	models.EventCommand:      {},
	models.EventWarning:      {},
	models.EventError:        {},
}

// EventLogService reads the device history.
type EventLogService struct {
	events repository.EventRepo
}

func NewEventLogService(events repository.EventRepo) *EventLogService {
	return &EventLogService{events: events}
}

func (s *EventLogService) List(ctx context.Context, f LogFilter) ([]models.DeviceEvent, error) {
	from, to, typ, err := normalizeFilter(f)
	if err != nil {
		return nil, err
	}
	return s.events.List(ctx, from, to, typ)
}

// normalizeFilter moves bounds to UTC, uppercases the type and validates both.
func normalizeFilter(f LogFilter) (time.Time, time.Time, string, error) {
	from, to := utcOrZero(f.From), utcOrZero(f.To)
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return time.Time{}, time.Time{}, "", ErrInvalidTimeRange
	}

	typ := strings.ToUpper(strings.TrimSpace(f.Type))
	if typ != "" {
		if _, ok := eventTypes[typ]; !ok {
			return time.Time{}, time.Time{}, "", fmt.Errorf("%w: %s", ErrInvalidEventType, typ)
		}
	}
	return from, to, typ, nil
}

func utcOrZero(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}
