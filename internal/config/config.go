// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
)

// Config holds all settings for the server and tools.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8081".
	Port string

	// DatabaseURL is the Postgres connection string. Required unless
	// BackendBaseURL is set, in which case the server runs storeless
	// against the legacy backend.
	DatabaseURL string

	// BackendBaseURL points at the legacy scholarship REST backend. When
	// set, the orchestrator fetches from it instead of Postgres.
	BackendBaseURL string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Set CORS_ORIGINS to a comma-separated list to extend the default.
	CORSOrigins []string

	// AdminSecret guards the seed and admin endpoints. When empty an
	// ephemeral secret is generated at startup.
	AdminSecret string
}

// Load reads configuration from the environment.
func Load() (Config, error) {
	cfg := Config{
		Port:           getEnv("PORT", "8081"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		BackendBaseURL: strings.TrimRight(os.Getenv("BACKEND_BASE_URL"), "/"),
		CORSOrigins:    []string{"http://localhost:4200"},
		AdminSecret:    strings.TrimSpace(os.Getenv("ADMIN_SECRET")),
	}

	if extra := os.Getenv("CORS_ORIGINS"); extra != "" {
		for _, o := range strings.Split(extra, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, o)
			}
		}
	}

	if cfg.DatabaseURL == "" && cfg.BackendBaseURL == "" {
		return Config{}, fmt.Errorf("required environment variables not set: DATABASE_URL (or BACKEND_BASE_URL)")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
