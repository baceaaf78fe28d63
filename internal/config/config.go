package config

import (
	"fmt"
	"os"
	"strings"
)

// Config is the environment-derived runtime configuration. The definition
// store is always Postgres; the dynamic database, where generated tables
// live, can be any supported driver and defaults to the definition store's
// connection.
type Config struct {
	Port string

	// Definition store (pgxpool).
	DBHost     string
	DBPort     string
	DBUsername string
	DBPassword string
	DBDatabase string

	// Dynamic database for generated tables (database/sql).
	DynamicDriver string
	DynamicDSN    string

	CORSOrigins []string
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:          envOr("PORT", "8080"),
		DBHost:        os.Getenv("DB_HOST"),
		DBPort:        os.Getenv("DB_PORT"),
		DBUsername:    os.Getenv("DB_USERNAME"),
		DBPassword:    os.Getenv("DB_PASSWORD"),
		DBDatabase:    os.Getenv("DB_DATABASE"),
		DynamicDriver: envOr("DYNAMIC_DB_DRIVER", "pgx"),
		DynamicDSN:    os.Getenv("DYNAMIC_DB_DSN"),
	}

	for name, value := range map[string]string{
		"DB_HOST":     cfg.DBHost,
		"DB_PORT":     cfg.DBPort,
		"DB_USERNAME": cfg.DBUsername,
		"DB_PASSWORD": cfg.DBPassword,
		"DB_DATABASE": cfg.DBDatabase,
	} {
		if value == "" {
			return nil, fmt.Errorf("%s environment variable is required", name)
		}
	}

	if cfg.DynamicDSN == "" {
		cfg.DynamicDSN = fmt.Sprintf(
			"postgres://%s:%s@%s:%s/%s?sslmode=disable",
			cfg.DBUsername, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBDatabase,
		)
	}

	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, o)
			}
		}
	}

	return cfg, nil
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
