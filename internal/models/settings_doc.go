package models

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cast"
)

var (
	// ErrInvalidSetting marks a value that violates a settings invariant.
	ErrInvalidSetting = errors.New("invalid setting")
	// ErrSettingsNotFound is returned by persistence backends that hold no document yet.
	ErrSettingsNotFound = errors.New("settings not found")
)

// SettingsFromDocument decodes a loosely typed key/value document (as read
// from JSON or YAML) into Settings. Absent keys keep their defaults; keys the
// core does not know are kept in Extra.
func SettingsFromDocument(doc map[string]any) (Settings, error) {
	s := DefaultSettings()
	for k, v := range doc {
		if err := s.apply(k, v); err != nil {
			return DefaultSettings(), err
		}
	}
	return s, nil
}

// Apply sets a single key on s, coercing the value to the key's type.
// Dotted keys address the active_hours pair.
func (s *Settings) Apply(key string, value any) error {
	next := s.Clone()
	if err := next.apply(key, value); err != nil {
		return err
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*s = next
	return nil
}

func (s *Settings) apply(key string, value any) error {
	switch key {
	case KeySoundInterval:
		n, err := cast.ToIntE(value)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidSetting, key, err)
		}
		s.SoundInterval = n
	case KeyVolume:
		n, err := cast.ToIntE(value)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidSetting, key, err)
		}
		s.Volume = n
	case KeyActiveHours:
		m, err := cast.ToStringMapE(value)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidSetting, key, err)
		}
		for sub, v := range m {
			if err := s.apply(KeyActiveHours+"."+sub, v); err != nil {
				return err
			}
		}
	case KeyActiveHoursStart:
		v, err := cast.ToStringE(value)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidSetting, key, err)
		}
		s.ActiveHours.Start = v
	case KeyActiveHoursEnd:
		v, err := cast.ToStringE(value)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidSetting, key, err)
		}
		s.ActiveHours.End = v
	case KeySeason:
		v, err := cast.ToStringE(value)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidSetting, key, err)
		}
		season, err := ParseSeason(v)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidSetting, err)
		}
		s.Season = season
	case KeyPhoneNumber:
		v, err := cast.ToStringE(value)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidSetting, key, err)
		}
		s.PhoneNumber = v
	default:
		if s.Extra == nil {
			s.Extra = map[string]any{}
		}
		s.Extra[key] = value
	}
	return nil
}

// Lookup returns the value stored under key.
func (s Settings) Lookup(key string) (any, bool) {
	switch key {
	case KeySoundInterval:
		return s.SoundInterval, true
	case KeyVolume:
		return s.Volume, true
	case KeyActiveHours:
		return s.ActiveHours, true
	case KeyActiveHoursStart:
		return s.ActiveHours.Start, true
	case KeyActiveHoursEnd:
		return s.ActiveHours.End, true
	case KeySeason:
		return s.Season, true
	case KeyPhoneNumber:
		return s.PhoneNumber, true
	}
	v, ok := s.Extra[key]
	return v, ok
}

// Validate checks the settings invariants.
func (s Settings) Validate() error {
	if s.SoundInterval < 1 {
		return fmt.Errorf("%w: %s must be >= 1 second, got %d", ErrInvalidSetting, KeySoundInterval, s.SoundInterval)
	}
	if s.Volume < 0 || s.Volume > 100 {
		return fmt.Errorf("%w: %s must be 0-100, got %d", ErrInvalidSetting, KeyVolume, s.Volume)
	}
	if _, err := ParseClock(s.ActiveHours.Start); err != nil {
		return err
	}
	if _, err := ParseClock(s.ActiveHours.End); err != nil {
		return err
	}
	if !s.Season.Valid() {
		return fmt.Errorf("%w: %w: %q", ErrInvalidSetting, ErrInvalidSeason, s.Season)
	}
	return nil
}

// Document renders s as the persisted key/value document.
func (s Settings) Document() map[string]any {
	doc := make(map[string]any, 5+len(s.Extra))
	for k, v := range s.Extra {
		doc[k] = v
	}
	doc[KeySoundInterval] = s.SoundInterval
	doc[KeyVolume] = s.Volume
	doc[KeyActiveHours] = map[string]any{
		"start": s.ActiveHours.Start,
		"end":   s.ActiveHours.End,
	}
	doc[KeySeason] = string(s.Season)
	doc[KeyPhoneNumber] = s.PhoneNumber
	return doc
}

// Keys returns the document keys in sorted order.
func (s Settings) Keys() []string {
	doc := s.Document()
	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
