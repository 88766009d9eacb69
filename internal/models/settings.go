package models

// Setting keys as they appear in the persisted document.
const (
	KeySoundInterval    = "sound_interval"
	KeyVolume           = "volume"
	KeyActiveHours      = "active_hours"
	KeyActiveHoursStart = "active_hours.start"
	KeyActiveHoursEnd   = "active_hours.end"
	KeySeason           = "season"
	KeyPhoneNumber      = "phone_number"
)

// Defaults applied when a key is absent from the persisted document.
const (
	DefaultSoundInterval = 300 // seconds
	DefaultVolume        = 80  // percent
	DefaultWindowStart   = "06:00"
	DefaultWindowEnd     = "18:00"
	DefaultSeason        = SeasonSpring
	DefaultPhoneNumber   = "+1234567890"
)

// ActiveHours is the daily window during which cycles may trigger.
type ActiveHours struct {
	Start string `json:"start" mapstructure:"start"` // HH:MM
	End   string `json:"end" mapstructure:"end"`     // HH:MM
}

// Settings is the device configuration document.
type Settings struct {
	SoundInterval int            `json:"sound_interval"` // seconds between cycles
	Volume        int            `json:"volume"`         // 0-100
	ActiveHours   ActiveHours    `json:"active_hours"`
	Season        Season         `json:"season"`
	PhoneNumber   string         `json:"phone_number"`
	Extra         map[string]any `json:"-"` // keys the core does not interpret
}

// DefaultSettings returns the factory configuration.
func DefaultSettings() Settings {
	return Settings{
		SoundInterval: DefaultSoundInterval,
		Volume:        DefaultVolume,
		ActiveHours: ActiveHours{
			Start: DefaultWindowStart,
			End:   DefaultWindowEnd,
		},
		Season:      DefaultSeason,
		PhoneNumber: DefaultPhoneNumber,
	}
}

// Clone returns a copy that shares no maps with s.
func (s Settings) Clone() Settings {
	out := s
	if s.Extra != nil {
		out.Extra = make(map[string]any, len(s.Extra))
		for k, v := range s.Extra {
			out.Extra[k] = v
		}
	}
	return out
}
