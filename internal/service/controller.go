package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"greenguile/internal/catalog"
	"greenguile/internal/logger"
	"greenguile/internal/metrics"
	"greenguile/internal/models"
	"greenguile/internal/repository"

	"github.com/google/uuid"
)

// ErrCycleInFlight is returned when RunCycle is called while another cycle
// has not returned yet. The second call is dropped, not queued.
var ErrCycleInFlight = errors.New("cycle already in flight")

// eventWriteTimeout bounds history writes made on behalf of the controller.
const eventWriteTimeout = 2 * time.Second

// PatternSelector picks the pattern to play for a season.
type PatternSelector interface {
	SelectFor(season models.Season) (string, error)
}

// Player emits a pattern.
type Player interface {
	Play(ctx context.Context, patternID string, volume int) error
}

// VolumeSource reports the configured playback volume.
type VolumeSource interface {
	Volume() int
}

// DeterrentController is the Inactive/Active state machine.
//
// opMu serializes Activate, Deactivate, SetSeason and RunCycle so a cycle
// never observes a half-applied mutation. stateMu only guards the fields and
// is never held across I/O, so Status stays responsive during playback.
type DeterrentController struct {
	opMu     sync.Mutex
	inFlight atomic.Bool

	stateMu     sync.RWMutex
	active      bool
	season      models.Season
	lastCycleAt time.Time
	lastPattern string

	selector PatternSelector
	player   Player
	volume   VolumeSource
	events   repository.EventRepo
	metrics  *metrics.Metrics
	log      *logger.Logger
	now      func() time.Time
}

// NewDeterrentController starts Inactive in the given season (spring if the
// value is not a valid season). events and m may be nil.
func NewDeterrentController(initial models.Season, sel PatternSelector, player Player, volume VolumeSource,
	events repository.EventRepo, m *metrics.Metrics, log *logger.Logger) *DeterrentController {
	if !initial.Valid() {
		initial = models.DefaultSeason
	}
	if log == nil {
		log = logger.Nop()
	}
	return &DeterrentController{
		season:   initial,
		selector: sel,
		player:   player,
		volume:   volume,
		events:   events,
		metrics:  m,
		log:      log,
		now:      time.Now,
	}
}

// Activate is idempotent.
func (c *DeterrentController) Activate(ctx context.Context) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.stateMu.Lock()
	was := c.active
	c.active = true
	c.stateMu.Unlock()

	c.metrics.SetActive(true)
	if !was {
		c.log.Infow("deterrent_activated")
		c.record(ctx, models.EventActivate, "System activated", nil)
	}
}

// Deactivate is idempotent.
func (c *DeterrentController) Deactivate(ctx context.Context) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.stateMu.Lock()
	was := c.active
	c.active = false
	c.stateMu.Unlock()

	c.metrics.SetActive(false)
	if was {
		c.log.Infow("deterrent_deactivated")
		c.record(ctx, models.EventDeactivate, "System deactivated", nil)
	}
}

// SetSeason rejects anything but the four canonical seasons and keeps the
// current one in that case.
func (c *DeterrentController) SetSeason(ctx context.Context, s models.Season) error {
	if !s.Valid() {
		return fmt.Errorf("%w: %q", models.ErrInvalidSeason, s)
	}

	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.stateMu.Lock()
	prev := c.season
	c.season = s
	c.stateMu.Unlock()

	c.log.Infow("season_updated", "from", prev, "to", s)
	c.record(ctx, models.EventSeasonChange, "Season set to "+string(s), map[string]any{
		"from": prev,
		"to":   s,
	})
	return nil
}

// RunCycle selects and plays one pattern for the current season. It is a
// no-op while Inactive. A missing pattern set is logged as a warning and
// returned; the controller stays Active either way.
func (c *DeterrentController) RunCycle(ctx context.Context) error {
	if !c.inFlight.CompareAndSwap(false, true) {
		c.metrics.CycleDone(metrics.ResultDropped)
		c.log.Warnw("cycle_dropped", "reason", "previous cycle still running")
		return ErrCycleInFlight
	}
	defer c.inFlight.Store(false)

	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.stateMu.RLock()
	active, season := c.active, c.season
	c.stateMu.RUnlock()
	if !active {
		return nil
	}

	id, err := c.selector.SelectFor(season)
	if err != nil {
		c.metrics.CycleDone(metrics.ResultNoPatterns)
		c.log.Warnw("cycle_no_patterns", "season", season, "err", err)
		c.record(ctx, models.EventWarning, "No patterns available for season: "+string(season), nil)
		return err
	}

	volume := models.DefaultVolume
	if c.volume != nil {
		volume = c.volume.Volume()
	}
	if err := c.player.Play(ctx, id, volume); err != nil {
		c.metrics.CycleDone(metrics.ResultFailed)
		c.log.Errorw("cycle_playback_failed", "pattern", id, "err", err)
		c.record(ctx, models.EventError, "Playback failed: "+id, map[string]any{"err": err.Error()})
		return err
	}

	at := c.now()
	c.stateMu.Lock()
	c.lastCycleAt = at
	c.lastPattern = id
	c.stateMu.Unlock()

	c.metrics.CycleDone(metrics.ResultPlayed)
	c.log.Infow("cycle_played", "pattern", id, "season", season, "volume", volume)
	c.record(ctx, models.EventCycle, "Played "+id, map[string]any{
		"pattern": id,
		"season":  season,
		"volume":  volume,
	})
	return nil
}

func (c *DeterrentController) IsActive() bool {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.active
}

func (c *DeterrentController) Season() models.Season {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.season
}

// Status reports controller state only; window fields are filled in by
// callers that know the settings.
func (c *DeterrentController) Status() models.DeviceStatus {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	st := models.DeviceStatus{
		Active:      c.active,
		Season:      c.season,
		LastPattern: c.lastPattern,
	}
	if !c.lastCycleAt.IsZero() {
		at := c.lastCycleAt.UTC()
		st.LastCycleAt = &at
	}
	return st
}

// record appends to the history. Failures are logged, never returned: the
// history must not be able to stop the device.
func (c *DeterrentController) record(ctx context.Context, typ, desc string, meta map[string]any) {
	if c.events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), eventWriteTimeout)
	defer cancel()

	ev := models.DeviceEvent{
		EventID:     uuid.NewString(),
		OccurredAt:  c.now().UTC(),
		Type:        typ,
		Description: desc,
	}
	if meta != nil {
		ev.Metadata = meta
	}
	if err := c.events.Append(ctx, ev); err != nil {
		c.log.Errorw("event_append_failed", "type", typ, "err", err)
	}
}

var _ PatternSelector = (*catalog.Catalog)(nil)
