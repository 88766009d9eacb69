// Package catalog maps seasons to the deterrent patterns that may be played.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"

	"greenguile/internal/logger"
	"greenguile/internal/models"
)

var (
	ErrCatalogLoad         = errors.New("catalog load failed")
	ErrNoPatternsForSeason = errors.New("no patterns for season")
)

// Source produces a season to pattern-ID mapping.
type Source interface {
	Patterns(ctx context.Context) (map[models.Season][]string, error)
	String() string
}

// Catalog is safe for concurrent use. The mapping is only ever replaced as
// a whole, never edited in place.
type Catalog struct {
	mu       sync.RWMutex
	patterns map[models.Season][]string

	rngMu sync.Mutex
	rng   *rand.Rand

	log *logger.Logger
}

// New returns an empty catalog drawing from rng. A nil rng is seeded from
// the wall clock.
func New(rng *rand.Rand, log *logger.Logger) *Catalog {
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Catalog{
		patterns: map[models.Season][]string{},
		rng:      rng,
		log:      log,
	}
}

// Load replaces the mapping with the one read from src. On failure the
// previous mapping is kept.
func (c *Catalog) Load(ctx context.Context, src Source) error {
	loaded, err := src.Patterns(ctx)
	if err != nil {
		c.log.Errorw("catalog_load_failed", "source", src.String(), "err", err)
		return fmt.Errorf("%w: %s: %w", ErrCatalogLoad, src, err)
	}

	next := make(map[models.Season][]string, len(loaded))
	for season, ids := range loaded {
		if !season.Valid() {
			c.log.Warnw("catalog_unknown_season", "season", season, "source", src.String())
			continue
		}
		next[season] = append([]string(nil), ids...)
	}
	for _, season := range models.Seasons {
		if len(next[season]) == 0 {
			c.log.Warnw("catalog_season_empty", "season", season, "source", src.String())
		}
	}

	c.mu.Lock()
	c.patterns = next
	c.mu.Unlock()
	c.log.Infow("catalog_loaded", "source", src.String(), "seasons", len(next))
	return nil
}

// SelectFor picks one of the season's patterns uniformly at random.
func (c *Catalog) SelectFor(season models.Season) (string, error) {
	c.mu.RLock()
	ids := c.patterns[season]
	c.mu.RUnlock()
	if len(ids) == 0 {
		return "", fmt.Errorf("%w: %s", ErrNoPatternsForSeason, season)
	}

	c.rngMu.Lock()
	i := c.rng.Intn(len(ids))
	c.rngMu.Unlock()
	return ids[i], nil
}

// Patterns returns a copy of the patterns for season.
func (c *Catalog) Patterns(season models.Season) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.patterns[season]...)
}

// Counts reports how many patterns each season holds.
func (c *Catalog) Counts() map[models.Season]int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[models.Season]int, len(c.patterns))
	for season, ids := range c.patterns {
		out[season] = len(ids)
	}
	return out
}
