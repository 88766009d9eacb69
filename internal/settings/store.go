// Package settings holds the device configuration in memory and writes every
// change through to a persistence backend.
package settings

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"greenguile/internal/logger"
	"greenguile/internal/models"
)

var (
	// ErrConfig wraps failures to load the persisted document.
	ErrConfig = errors.New("config error")
	// ErrPersistence wraps failures to save; the in-memory value is kept.
	ErrPersistence = errors.New("persistence error")
)

// Persister loads and saves the settings document.
// Load returns models.ErrSettingsNotFound when no document exists yet.
type Persister interface {
	Load(ctx context.Context) (models.Settings, error)
	Save(ctx context.Context, s models.Settings) error
}

const defaultPersistTimeout = 5 * time.Second

// Store is safe for concurrent use; Set is atomic with respect to Get.
type Store struct {
	mu      sync.RWMutex
	current models.Settings

	persister Persister
	timeout   time.Duration
	log       *logger.Logger
}

// NewStore returns a store holding defaults. Call Load to read the backend.
func NewStore(p Persister, timeout time.Duration, log *logger.Logger) *Store {
	if timeout <= 0 {
		timeout = defaultPersistTimeout
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Store{
		current:   models.DefaultSettings(),
		persister: p,
		timeout:   timeout,
		log:       log,
	}
}

// Load replaces the in-memory settings with the persisted document. A missing
// document is created from defaults. Any other failure leaves the current
// values in place and returns ErrConfig.
func (s *Store) Load(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	loaded, err := s.persister.Load(ctx)
	switch {
	case errors.Is(err, models.ErrSettingsNotFound):
		s.log.Infow("settings_defaults_created")
		s.mu.RLock()
		snapshot := s.current.Clone()
		s.mu.RUnlock()
		if err := s.persister.Save(ctx, snapshot); err != nil {
			s.log.Errorw("settings_persist_failed", "err", err)
			return fmt.Errorf("%w: %w", ErrPersistence, err)
		}
		return nil
	case err != nil:
		s.log.Errorw("settings_load_failed", "err", err)
		return fmt.Errorf("%w: %w", ErrConfig, err)
	}

	if err := loaded.Validate(); err != nil {
		s.log.Errorw("settings_invalid", "err", err)
		return fmt.Errorf("%w: %w", ErrConfig, err)
	}

	s.mu.Lock()
	s.current = loaded
	s.mu.Unlock()
	s.log.Infow("settings_loaded", "sound_interval", loaded.SoundInterval, "season", loaded.Season)
	return nil
}

// Get returns the value for key, or def when the key is absent.
func (s *Store) Get(key string, def any) any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.current.Lookup(key); ok {
		return v
	}
	return def
}

// Set validates and stores value under key, then persists the document.
// When persistence fails the in-memory update is kept and ErrPersistence is
// returned.
func (s *Store) Set(ctx context.Context, key string, value any) error {
	s.mu.Lock()
	next := s.current.Clone()
	if err := next.Apply(key, value); err != nil {
		s.mu.Unlock()
		return err
	}
	s.current = next
	snapshot := next.Clone()
	// Hold the lock through the save so concurrent Sets persist in order.
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.persister.Save(ctx, snapshot); err != nil {
		s.log.Errorw("settings_persist_failed", "key", key, "err", err)
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	s.log.Infow("settings_updated", "key", key)
	return nil
}

// Replace swaps in a complete document without persisting it. Used when the
// backing file was edited externally.
func (s *Store) Replace(next models.Settings) error {
	if err := next.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.current = next.Clone()
	s.mu.Unlock()
	return nil
}

// reloadFrom swaps in the settings produced by read. read runs under the
// store lock so a concurrent Set cannot land between the read and the swap.
func (s *Store) reloadFrom(read func() (models.Settings, bool, error)) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, ok, err := read()
	if err != nil || !ok {
		return false, err
	}
	if err := next.Validate(); err != nil {
		return false, err
	}
	s.current = next.Clone()
	return true, nil
}

// Snapshot returns a copy of all settings.
func (s *Store) Snapshot() models.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

func (s *Store) SoundInterval() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return time.Duration(s.current.SoundInterval) * time.Second
}

func (s *Store) ActiveHours() models.ActiveHours {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.ActiveHours
}

func (s *Store) Volume() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Volume
}

func (s *Store) Season() models.Season {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Season
}

func (s *Store) PhoneNumber() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.PhoneNumber
}
