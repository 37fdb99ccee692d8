package main

import (
	"os"

	"github.com/rs/zerolog/log"
)

// Config holds the worker process settings that are not part of the shared
// application config.
type Config struct {
	Environment string
	LogLevel    string
	HealthAddr  string
}

func loadConfig() *Config {
	cfg := &Config{
		Environment: getEnv("APP_ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		HealthAddr:  getEnv("WORKER_HEALTH_ADDR", ":9999"),
	}

	log.Debug().Str("health_addr", cfg.HealthAddr).Msg("[Config] Worker config loaded")
	return cfg
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
