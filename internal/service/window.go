package service

import (
	"time"

	"greenguile/internal/models"
)

// WithinWindow reports whether now's wall-clock minute lies in [start, end].
// Both bounds are inclusive. Windows do not wrap past midnight: when start is
// later than end the window is never open.
func WithinWindow(now time.Time, start, end string) (bool, error) {
	from, err := models.ParseClock(start)
	if err != nil {
		return false, err
	}
	to, err := models.ParseClock(end)
	if err != nil {
		return false, err
	}
	minute := now.Hour()*60 + now.Minute()
	return from <= minute && minute <= to, nil
}
