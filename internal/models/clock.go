package models

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseClock converts a 24h "HH:MM" string into minutes after midnight.
func ParseClock(s string) (int, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || len(hh) == 0 || len(hh) > 2 || len(mm) != 2 {
		return 0, fmt.Errorf("%w: time %q must be HH:MM", ErrInvalidSetting, s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("%w: hour in %q must be 00-23", ErrInvalidSetting, s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("%w: minute in %q must be 00-59", ErrInvalidSetting, s)
	}
	return h*60 + m, nil
}
