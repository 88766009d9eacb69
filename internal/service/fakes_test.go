package service

import (
	"context"
	"sync"
	"time"

	"greenguile/internal/models"
)

// fakeEventRepo records appends and serves canned List results.
type fakeEventRepo struct {
	mu sync.Mutex

	appended  []models.DeviceEvent
	appendErr error

	gotFrom time.Time
	gotTo   time.Time
	gotType string
	events  []models.DeviceEvent
	listErr error
	calls   int

	prunedBefore time.Time
	pruneN       int64
	pruneErr     error
}

func (f *fakeEventRepo) Append(_ context.Context, e models.DeviceEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appended = append(f.appended, e)
	return f.appendErr
}

func (f *fakeEventRepo) List(_ context.Context, from, to time.Time, typ string) ([]models.DeviceEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.gotFrom, f.gotTo, f.gotType = from, to, typ
	return f.events, f.listErr
}

func (f *fakeEventRepo) PruneBefore(_ context.Context, before time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prunedBefore = before
	return f.pruneN, f.pruneErr
}

func (f *fakeEventRepo) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.appended))
	for _, e := range f.appended {
		out = append(out, e.Type)
	}
	return out
}

// fakeSelector returns a fixed pattern or error.
type fakeSelector struct {
	id  string
	err error

	mu   sync.Mutex
	seen []models.Season
}

func (f *fakeSelector) SelectFor(s models.Season) (string, error) {
	f.mu.Lock()
	f.seen = append(f.seen, s)
	f.mu.Unlock()
	return f.id, f.err
}

// fakePlayer counts calls; when block is set Play waits on it.
type fakePlayer struct {
	mu      sync.Mutex
	played  []string
	volumes []int
	err     error

	started chan struct{}
	block   chan struct{}
}

func (p *fakePlayer) Play(ctx context.Context, id string, volume int) error {
	p.mu.Lock()
	p.played = append(p.played, id)
	p.volumes = append(p.volumes, volume)
	p.mu.Unlock()

	if p.started != nil {
		p.started <- struct{}{}
	}
	if p.block != nil {
		select {
		case <-p.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return p.err
}

func (p *fakePlayer) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.played)
}

type fixedVolume int

func (v fixedVolume) Volume() int { return int(v) }
