package service

import (
	"time"

	"greenguile/internal/models"
)

// DeviceStatus combines controller state with the active-hours window at now.
func (s *Service) DeviceStatus(now time.Time) models.DeviceStatus {
	st := s.Controller.Status()
	hours := s.Settings.Snapshot().ActiveHours
	st.ActiveHours = hours
	if open, err := WithinWindow(now, hours.Start, hours.End); err == nil {
		st.WindowOpen = open
	}
	return st
}
