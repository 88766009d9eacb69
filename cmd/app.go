package main

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"

	"greenguile/internal/catalog"
	"greenguile/internal/logger"
	"greenguile/internal/metrics"
	"greenguile/internal/playback"
	"greenguile/internal/repository"
	"greenguile/internal/repository/db"
	"greenguile/internal/service"
	"greenguile/internal/settings"

	"github.com/spf13/viper"
)

// app holds everything both subcommands need.
type app struct {
	db       *sql.DB
	store    *settings.Store
	file     *settings.FilePersister // nil unless settings.backend=file
	metrics  *metrics.Metrics
	services *service.Service
}

func buildApp(ctx context.Context, log *logger.Logger) (*app, error) {
	if log == nil {
		log = logger.Nop()
	}
	conn, err := db.InitDB(viper.GetString("db.path"))
	if err != nil {
		return nil, fmt.Errorf("init sqlite: %w", err)
	}
	repos := repository.NewRepository(conn)

	a := &app{db: conn, metrics: metrics.New()}

	var persister settings.Persister
	switch backend := viper.GetString("settings.backend"); backend {
	case "", "file":
		a.file = settings.NewFilePersister(viper.GetString("settings.path"))
		persister = a.file
	case "sqlite":
		persister = repos.SettingsRepo
	default:
		_ = conn.Close()
		return nil, fmt.Errorf("unknown settings.backend %q", backend)
	}

	a.store = settings.NewStore(persister, viper.GetDuration("settings.timeout"), log)
	if err := a.store.Load(ctx); err != nil {
		// defaults stay in effect
		log.Warnw("settings_load_failed_using_defaults", "err", err)
	}

	src, err := catalog.SourceFor(viper.GetString("patterns.source"), viper.GetString("patterns.path"))
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	var rng *rand.Rand
	if seed := viper.GetInt64("patterns.seed"); seed != 0 {
		rng = rand.New(rand.NewSource(seed))
	}
	cat := catalog.New(rng, log)
	if err := cat.Load(ctx, src); err != nil {
		log.Warnw("patterns_unavailable", "source", src.String(), "err", err)
	}

	player := playback.WithTimeout(
		playback.NewLogPlayer(playback.DefaultPatternDuration, log),
		viper.GetDuration("playback.timeout"),
	)

	a.services = service.NewService(repos, service.Deps{
		Store:   a.store,
		Catalog: cat,
		Source:  src,
		Player:  player,
		Metrics: a.metrics,
		Log:     log,
		Schedule: service.ScheduleConfig{
			Tick:                viper.GetDuration("scheduler.tick"),
			MaintenanceInterval: viper.GetDuration("scheduler.maintenance_interval"),
			EventRetention:      viper.GetDuration("events.retention"),
		},
		Auth: service.AuthConfig{
			SigningKey: viper.GetString("auth.signing_key"),
			TokenTTL:   viper.GetDuration("auth.token_ttl"),
		},
	})
	return a, nil
}

func (a *app) Close() error {
	return a.db.Close()
}
