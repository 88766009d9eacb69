package settings

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"greenguile/internal/models"
)

type fakePersister struct {
	mu      sync.Mutex
	doc     *models.Settings
	loadErr error
	saveErr error
	saves   []models.Settings
}

func (f *fakePersister) Load(ctx context.Context) (models.Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return models.Settings{}, f.loadErr
	}
	if f.doc == nil {
		return models.Settings{}, models.ErrSettingsNotFound
	}
	return f.doc.Clone(), nil
}

func (f *fakePersister) Save(ctx context.Context, s models.Settings) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves = append(f.saves, s)
	if f.saveErr != nil {
		return f.saveErr
	}
	c := s.Clone()
	f.doc = &c
	return nil
}

func TestStore_Load_MissingDocumentPersistsDefaults(t *testing.T) {
	p := &fakePersister{}
	s := NewStore(p, time.Second, nil)

	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(p.saves) != 1 {
		t.Fatalf("expected defaults to be saved once, got %d saves", len(p.saves))
	}
	if got := s.Get(models.KeySoundInterval, nil); got != models.DefaultSoundInterval {
		t.Fatalf("sound_interval = %v", got)
	}
}

func TestStore_Load_UsesPersistedDocument(t *testing.T) {
	doc := models.DefaultSettings()
	doc.SoundInterval = 30
	doc.Season = models.SeasonWinter
	s := NewStore(&fakePersister{doc: &doc}, time.Second, nil)

	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.SoundInterval() != 30*time.Second {
		t.Fatalf("SoundInterval = %v", s.SoundInterval())
	}
	if s.Season() != models.SeasonWinter {
		t.Fatalf("Season = %v", s.Season())
	}
}

func TestStore_Load_FailureKeepsDefaults(t *testing.T) {
	s := NewStore(&fakePersister{loadErr: errors.New("corrupt file")}, time.Second, nil)

	err := s.Load(context.Background())
	if !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig, got %v", err)
	}
	if s.ActiveHours() != (models.ActiveHours{Start: "06:00", End: "18:00"}) {
		t.Fatalf("defaults not retained: %+v", s.ActiveHours())
	}
}

func TestStore_GetDefaultForMissingKey(t *testing.T) {
	s := NewStore(&fakePersister{}, time.Second, nil)
	if got := s.Get("nonexistent", "default"); got != "default" {
		t.Fatalf("got %v, want default", got)
	}
}

func TestStore_Set_PersistsEveryMutation(t *testing.T) {
	p := &fakePersister{}
	s := NewStore(p, time.Second, nil)

	if err := s.Set(context.Background(), "test_value", 42); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set(context.Background(), models.KeyActiveHoursStart, "05:00"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got := s.Get("test_value", nil); got != 42 {
		t.Fatalf("test_value = %v", got)
	}
	if len(p.saves) != 2 {
		t.Fatalf("expected 2 saves, got %d", len(p.saves))
	}
	if p.saves[1].ActiveHours.Start != "05:00" {
		t.Fatalf("persisted window = %+v", p.saves[1].ActiveHours)
	}
}

func TestStore_Set_InvalidValueRejected(t *testing.T) {
	p := &fakePersister{}
	s := NewStore(p, time.Second, nil)

	err := s.Set(context.Background(), models.KeySoundInterval, 0)
	if !errors.Is(err, models.ErrInvalidSetting) {
		t.Fatalf("expected ErrInvalidSetting, got %v", err)
	}
	if len(p.saves) != 0 {
		t.Fatalf("invalid value must not be persisted")
	}
	if s.SoundInterval() != models.DefaultSoundInterval*time.Second {
		t.Fatalf("value changed: %v", s.SoundInterval())
	}
}

func TestStore_Set_PersistFailureKeepsMemoryUpdate(t *testing.T) {
	p := &fakePersister{saveErr: errors.New("read-only filesystem")}
	s := NewStore(p, time.Second, nil)

	err := s.Set(context.Background(), models.KeyVolume, 40)
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
	if s.Volume() != 40 {
		t.Fatalf("in-memory update lost: %d", s.Volume())
	}
}

func TestStore_ConcurrentSetAndGet(t *testing.T) {
	s := NewStore(&fakePersister{}, time.Second, nil)

	var wg sync.WaitGroup
	for i := 1; i <= 20; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			_ = s.Set(context.Background(), models.KeySoundInterval, n)
		}(i)
		go func() {
			defer wg.Done()
			if v := s.SoundInterval(); v < time.Second {
				t.Errorf("observed invalid interval %v", v)
			}
		}()
	}
	wg.Wait()
}

func TestStore_Replace(t *testing.T) {
	s := NewStore(&fakePersister{}, time.Second, nil)

	bad := models.DefaultSettings()
	bad.Volume = 101
	if err := s.Replace(bad); err == nil {
		t.Fatalf("expected validation error")
	}

	good := models.DefaultSettings()
	good.PhoneNumber = "+15550100"
	if err := s.Replace(good); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if s.PhoneNumber() != "+15550100" {
		t.Fatalf("PhoneNumber = %q", s.PhoneNumber())
	}
	if snap := s.Snapshot(); snap.PhoneNumber != "+15550100" {
		t.Fatalf("Snapshot = %+v", snap)
	}
}
