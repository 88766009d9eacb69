package models

import (
	"errors"
	"fmt"
	"strings"
)

// Season selects which pattern set the controller plays from.
type Season string

const (
	SeasonSpring Season = "spring"
	SeasonSummer Season = "summer"
	SeasonAutumn Season = "autumn"
	SeasonWinter Season = "winter"
)

// ErrInvalidSeason is returned for any tag outside the four seasons.
var ErrInvalidSeason = errors.New("invalid season")

// Seasons lists the valid seasons in calendar order.
var Seasons = []Season{SeasonSpring, SeasonSummer, SeasonAutumn, SeasonWinter}

// seasonAliases maps accepted (lowercased) input tokens to a season.
var seasonAliases = map[string]Season{
	"spring": SeasonSpring,
	"summer": SeasonSummer,
	"autumn": SeasonAutumn,
	"fall":   SeasonAutumn,
	"winter": SeasonWinter,
}

// ParseSeason accepts a season tag in any case; "fall" is an alias for autumn.
func ParseSeason(s string) (Season, error) {
	if season, ok := seasonAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return season, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidSeason, s)
}

// Valid reports whether s is one of the four canonical seasons.
func (s Season) Valid() bool {
	switch s {
	case SeasonSpring, SeasonSummer, SeasonAutumn, SeasonWinter:
		return true
	default:
		return false
	}
}

func (s Season) String() string { return string(s) }
