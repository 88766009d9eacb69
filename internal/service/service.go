package service

import (
	"context"
	"time"

	"greenguile/internal/catalog"
	"greenguile/internal/logger"
	"greenguile/internal/metrics"
	"greenguile/internal/models"
	"greenguile/internal/playback"
	"greenguile/internal/repository"
	"greenguile/internal/settings"
)

type Authorization interface {
	SignUp(ctx context.Context, username, password string) (int, error)
	GenerateToken(ctx context.Context, username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Controller owns the activation state and the current season.
type Controller interface {
	Activate(ctx context.Context)
	Deactivate(ctx context.Context)
	SetSeason(ctx context.Context, s models.Season) error
	RunCycle(ctx context.Context) error
	IsActive() bool
	Season() models.Season
	Status() models.DeviceStatus
}

// Dispatcher turns one line of command text into a reply.
type Dispatcher interface {
	Process(ctx context.Context, raw string) string
}

// Settings exposes the device settings store.
type Settings interface {
	Get(key string, def any) any
	Set(ctx context.Context, key string, value any) error
	Snapshot() models.Settings
}

// Patterns exposes the pattern catalog.
type Patterns interface {
	Reload(ctx context.Context) error
	Counts() map[models.Season]int
}

// EventLog exposes append-only history with filtering.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.DeviceEvent, error)
}

// Scheduler drives cycles until ctx is cancelled.
type Scheduler interface {
	Run(ctx context.Context)
}

type Service struct {
	Controller
	Dispatcher
	Settings
	Patterns
	EventLog
	Scheduler
	Authorization
}

// Deps carries the collaborators that are not backed by the database.
type Deps struct {
	Store    *settings.Store
	Catalog  *catalog.Catalog
	Source   catalog.Source
	Player   playback.Player
	Metrics  *metrics.Metrics
	Log      *logger.Logger
	Schedule ScheduleConfig
	Auth     AuthConfig
}

// ScheduleConfig tunes the scheduler loop and housekeeping.
type ScheduleConfig struct {
	Tick                time.Duration
	MaintenanceInterval time.Duration
	EventRetention      time.Duration
}

func NewService(repos *repository.Repository, deps Deps) *Service {
	ctrl := NewDeterrentController(deps.Store.Season(), deps.Catalog, deps.Player, deps.Store, repos.EventRepo, deps.Metrics, deps.Log)

	maint := NewMaintenance(repos.EventRepo, deps.Schedule.EventRetention, deps.Log)
	return &Service{
		Controller:    ctrl,
		Dispatcher:    NewCommandDispatcher(ctrl, repos.EventRepo, deps.Metrics, deps.Log),
		Settings:      deps.Store,
		Patterns:      NewPatternService(deps.Catalog, deps.Source),
		EventLog:      NewEventLogService(repos.EventRepo),
		Scheduler:     NewSchedulerService(ctrl, deps.Store, maint, deps.Schedule, deps.Log),
		Authorization: NewAuthService(repos.Auth, deps.Auth),
	}
}
