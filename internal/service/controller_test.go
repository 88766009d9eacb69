package service

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"greenguile/internal/catalog"
	"greenguile/internal/models"
)

func newTestController(sel *fakeSelector, p *fakePlayer, events *fakeEventRepo) *DeterrentController {
	var repo = events
	if repo == nil {
		repo = &fakeEventRepo{}
	}
	return NewDeterrentController(models.SeasonSpring, sel, p, fixedVolume(55), repo, nil, nil)
}

func TestController_StartsInactive(t *testing.T) {
	c := newTestController(&fakeSelector{id: "x"}, &fakePlayer{}, nil)
	if c.IsActive() {
		t.Fatal("new controller should be inactive")
	}
	if c.Season() != models.SeasonSpring {
		t.Fatalf("season = %s", c.Season())
	}
}

func TestController_InvalidInitialSeasonFallsBack(t *testing.T) {
	c := NewDeterrentController("monsoon", &fakeSelector{}, &fakePlayer{}, nil, nil, nil, nil)
	if c.Season() != models.DefaultSeason {
		t.Fatalf("season = %s", c.Season())
	}
}

func TestController_ActivateDeactivate(t *testing.T) {
	events := &fakeEventRepo{}
	c := newTestController(&fakeSelector{id: "x"}, &fakePlayer{}, events)
	ctx := context.Background()

	c.Activate(ctx)
	c.Activate(ctx)
	if !c.IsActive() {
		t.Fatal("expected active")
	}
	c.Deactivate(ctx)
	c.Deactivate(ctx)
	if c.IsActive() {
		t.Fatal("expected inactive")
	}

	want := []string{models.EventActivate, models.EventDeactivate}
	if got := events.types(); !slices.Equal(got, want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
}

func TestController_SetSeason(t *testing.T) {
	ctx := context.Background()

	for _, s := range models.Seasons {
		c := newTestController(&fakeSelector{}, &fakePlayer{}, nil)
		if err := c.SetSeason(ctx, s); err != nil {
			t.Fatalf("SetSeason(%s): %v", s, err)
		}
		if c.Season() != s {
			t.Fatalf("Season() = %s, want %s", c.Season(), s)
		}
	}

	c := newTestController(&fakeSelector{}, &fakePlayer{}, nil)
	_ = c.SetSeason(ctx, models.SeasonWinter)
	for _, bad := range []models.Season{"", "fall", "SUMMER", "invalidxyz"} {
		if err := c.SetSeason(ctx, bad); !errors.Is(err, models.ErrInvalidSeason) {
			t.Fatalf("SetSeason(%q) err = %v", bad, err)
		}
		if c.Season() != models.SeasonWinter {
			t.Fatalf("season changed to %s on invalid input", c.Season())
		}
	}
}

func TestController_RunCycle_InactiveIsNoop(t *testing.T) {
	sel := &fakeSelector{id: "x"}
	p := &fakePlayer{}
	events := &fakeEventRepo{}
	c := newTestController(sel, p, events)
	ctx := context.Background()

	if err := c.RunCycle(ctx); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	c.Activate(ctx)
	c.Deactivate(ctx)
	if err := c.RunCycle(ctx); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if p.count() != 0 || len(sel.seen) != 0 {
		t.Fatalf("inactive controller touched collaborators: plays=%d selects=%d", p.count(), len(sel.seen))
	}
}

func TestController_RunCycle_PlaysForCurrentSeason(t *testing.T) {
	sel := &fakeSelector{id: "summer_hawk"}
	p := &fakePlayer{}
	events := &fakeEventRepo{}
	c := newTestController(sel, p, events)
	ctx := context.Background()

	c.Activate(ctx)
	_ = c.SetSeason(ctx, models.SeasonSummer)
	if err := c.RunCycle(ctx); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}

	if !slices.Equal(sel.seen, []models.Season{models.SeasonSummer}) {
		t.Fatalf("selector saw %v", sel.seen)
	}
	if !slices.Equal(p.played, []string{"summer_hawk"}) || p.volumes[0] != 55 {
		t.Fatalf("played %v at %v", p.played, p.volumes)
	}
	st := c.Status()
	if st.LastPattern != "summer_hawk" || st.LastCycleAt == nil {
		t.Fatalf("status = %+v", st)
	}
	if got := events.types(); got[len(got)-1] != models.EventCycle {
		t.Fatalf("events = %v", got)
	}
}

func TestController_RunCycle_NoPatternsStaysActive(t *testing.T) {
	sel := &fakeSelector{err: catalog.ErrNoPatternsForSeason}
	p := &fakePlayer{}
	events := &fakeEventRepo{}
	c := newTestController(sel, p, events)
	ctx := context.Background()

	c.Activate(ctx)
	err := c.RunCycle(ctx)
	if !errors.Is(err, catalog.ErrNoPatternsForSeason) {
		t.Fatalf("err = %v", err)
	}
	if !c.IsActive() {
		t.Fatal("controller should stay active")
	}
	if p.count() != 0 {
		t.Fatal("nothing should be played")
	}
	if got := events.types(); got[len(got)-1] != models.EventWarning {
		t.Fatalf("events = %v", got)
	}
}

func TestController_RunCycle_PlaybackErrorReturned(t *testing.T) {
	boom := errors.New("speaker unplugged")
	p := &fakePlayer{err: boom}
	events := &fakeEventRepo{}
	c := newTestController(&fakeSelector{id: "x"}, p, events)
	ctx := context.Background()

	c.Activate(ctx)
	if err := c.RunCycle(ctx); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if p.count() != 1 {
		t.Fatalf("playback retried: %d calls", p.count())
	}
	if got := events.types(); got[len(got)-1] != models.EventError {
		t.Fatalf("events = %v", got)
	}
}

func TestController_RunCycle_EventLogFailureIgnored(t *testing.T) {
	events := &fakeEventRepo{appendErr: errors.New("disk full")}
	c := newTestController(&fakeSelector{id: "x"}, &fakePlayer{}, events)
	ctx := context.Background()

	c.Activate(ctx)
	if err := c.RunCycle(ctx); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
}

func TestController_RunCycle_AtMostOneInFlight(t *testing.T) {
	p := &fakePlayer{started: make(chan struct{}, 1), block: make(chan struct{})}
	c := newTestController(&fakeSelector{id: "x"}, p, nil)
	ctx := context.Background()
	c.Activate(ctx)

	done := make(chan error, 1)
	go func() { done <- c.RunCycle(ctx) }()

	select {
	case <-p.started:
	case <-time.After(2 * time.Second):
		t.Fatal("first cycle never started")
	}

	if err := c.RunCycle(ctx); !errors.Is(err, ErrCycleInFlight) {
		t.Fatalf("second RunCycle err = %v, want ErrCycleInFlight", err)
	}

	// status reads must not wait for playback
	statusDone := make(chan struct{})
	go func() {
		_ = c.Status()
		_ = c.IsActive()
		close(statusDone)
	}()
	select {
	case <-statusDone:
	case <-time.After(time.Second):
		t.Fatal("Status blocked behind playback")
	}

	close(p.block)
	if err := <-done; err != nil {
		t.Fatalf("first RunCycle: %v", err)
	}
	if p.count() != 1 {
		t.Fatalf("plays = %d, want 1", p.count())
	}
}

func TestController_RunCycle_CancelledPlayback(t *testing.T) {
	p := &fakePlayer{block: make(chan struct{})}
	c := newTestController(&fakeSelector{id: "x"}, p, nil)
	c.Activate(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.RunCycle(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
}

type staticSettings struct {
	Settings
	snap models.Settings
}

func (s staticSettings) Snapshot() models.Settings { return s.snap }

func TestService_DeviceStatus(t *testing.T) {
	ctrl := newTestController(&fakeSelector{id: "x"}, &fakePlayer{}, nil)
	ctrl.Activate(context.Background())
	svc := &Service{Controller: ctrl, Settings: staticSettings{snap: models.DefaultSettings()}}

	st := svc.DeviceStatus(at(12, 0))
	if !st.Active || !st.WindowOpen || st.ActiveHours.Start != "06:00" {
		t.Fatalf("status = %+v", st)
	}
	if svc.DeviceStatus(at(22, 0)).WindowOpen {
		t.Fatal("window should be closed at 22:00")
	}
}
