// Package config manages environment variables.
//
// It reads the connection parameters (DB_*) and logging settings (LOG_*)
// from the process environment, optionally seeded from a `.env` file, and
// loads them into structured Go types that stay immutable after load.
//
// Responsibilities:
//   - Load environment variables (optionally from a `.env` file).
//   - Map env vars into a structured Go config (structs).
//   - Reject values that are present but malformed. Missing values are
//     passed through untouched to the connection attempt.
//   - Provide defaults for the logging block.
package config

import (
	"fmt"
	"strings"

	"github.com/deppfellow/conn2db/internal/validation"
	"github.com/go-playground/validator/v10"
	// Side-effect import: if a `.env` file exists it is loaded into the
	// process environment before any env var is read.
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

/*
	Env vars are read per prefix and re-keyed under a koanf section:

	  DB_HOST                  -> db.host  -> Config.Database.Host
	  DB_PWD                   -> db.pwd   -> Config.Database.Password
	  LOG_SLOW_QUERY_THRESHOLD -> log.slow_query_threshold

	The rest of the name is lowercased and kept as-is, so underscores inside
	a field name (slow_query_threshold) do not create nesting.
*/

const (
	databasePrefix = "DB_"
	loggingPrefix  = "LOG_"
)

// Config is the root configuration object.
type Config struct {
	Database DatabaseConfig `koanf:"db"`
	Logging  LoggingConfig  `koanf:"log"`
}

// DatabaseConfig holds the connection parameters for one connector.
//
// Every field is optional at load time: an empty host or password is handed
// to the driver as-is and it decides what that means.
type DatabaseConfig struct {
	Driver       string `koanf:"driver" validate:"omitempty,oneof=mysql mariadb pgsql postgres postgresql sqlite sqlite3"`
	Host         string `koanf:"host"`
	Port         string `koanf:"port" validate:"omitempty,numeric"`
	Name         string `koanf:"name"`
	User         string `koanf:"user"`
	Password     string `koanf:"pwd"`
	Codification string `koanf:"codification"`
	Locale       string `koanf:"locale" validate:"omitempty,excludesall='"`
	SSLMode      string `koanf:"sslmode" validate:"omitempty,oneof=disable allow prefer require verify-ca verify-full"`
}

// Load reads configuration from the process environment.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(env.Provider(databasePrefix, ".", sectionKey(databasePrefix, "db")), nil); err != nil {
		return nil, fmt.Errorf("load %s env variables: %w", databasePrefix, err)
	}
	if err := k.Load(env.Provider(loggingPrefix, ".", sectionKey(loggingPrefix, "log")), nil); err != nil {
		return nil, fmt.Errorf("load %s env variables: %w", loggingPrefix, err)
	}

	return LoadFrom(k)
}

// LoadFrom unmarshals and validates an already populated koanf instance.
func LoadFrom(k *koanf.Koanf) (*Config, error) {
	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.Logging.applyDefaults()

	if err := validation.Struct(validator.New(), cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// sectionKey maps PREFIX_SOME_KEY to "<section>.some_key".
func sectionKey(prefix, section string) func(string) string {
	return func(s string) string {
		return section + "." + strings.ToLower(strings.TrimPrefix(s, prefix))
	}
}
