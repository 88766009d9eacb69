package main

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "GREENGUILE"

func setDefaults() {
	viper.SetDefault("port", "8080")
	viper.SetDefault("db.path", "greenguile.db")
	viper.SetDefault("log.level", "info")

	viper.SetDefault("scheduler.tick", time.Second)
	viper.SetDefault("scheduler.maintenance_interval", time.Minute)
	viper.SetDefault("playback.timeout", 30*time.Second)

	viper.SetDefault("settings.backend", "file")
	viper.SetDefault("settings.path", "config.json")
	viper.SetDefault("settings.timeout", 5*time.Second)

	viper.SetDefault("patterns.source", "builtin")
	viper.SetDefault("patterns.path", "")
	viper.SetDefault("patterns.seed", 0)

	viper.SetDefault("auth.signing_key", "change-me")
	viper.SetDefault("auth.token_ttl", time.Hour)

	viper.SetDefault("sms.rate_per_min", 6)
	viper.SetDefault("events.retention", 30*24*time.Hour)
	viper.SetDefault("auto_activate", true)
}

// loadConfig reads configs/config.yml (or cfgFile) over the defaults. A
// missing file is not an error; GREENGUILE_* env vars override either.
func loadConfig(cfgFile string) error {
	setDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath("configs")
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yml")
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return err
	}
	return nil
}
