package service

import (
	"context"

	"greenguile/internal/catalog"
	"greenguile/internal/models"
)

// PatternService reloads the catalog from its configured source.
type PatternService struct {
	catalog *catalog.Catalog
	source  catalog.Source
}

func NewPatternService(c *catalog.Catalog, src catalog.Source) *PatternService {
	return &PatternService{catalog: c, source: src}
}

// Reload replaces the catalog contents. On failure the previous patterns
// stay in use.
func (s *PatternService) Reload(ctx context.Context) error {
	return s.catalog.Load(ctx, s.source)
}

func (s *PatternService) Counts() map[models.Season]int {
	return s.catalog.Counts()
}
