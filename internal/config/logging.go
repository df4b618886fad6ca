package config

import "time"

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the verbosity threshold (debug/info/warn/error).
	Level string `koanf:"level" validate:"oneof=debug info warn error"`

	// Format selects the output format: "json" or "console".
	Format string `koanf:"format" validate:"oneof=json console"`

	// File, when set, additionally writes logs to a rotating file.
	File string `koanf:"file"`

	// SlowQueryThreshold flags statements running longer than this.
	// Zero disables the check. Parsed from duration strings like "250ms".
	SlowQueryThreshold time.Duration `koanf:"slow_query_threshold" validate:"min=0"`
}

// DefaultLoggingConfig is used for unset logging fields.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Level:  "info",
		Format: "console",
	}
}

func (c *LoggingConfig) applyDefaults() {
	def := DefaultLoggingConfig()
	if c.Level == "" {
		c.Level = def.Level
	}
	if c.Format == "" {
		c.Format = def.Format
	}
}

// IsDebug reports whether debug logging (and SQL tracing) is enabled.
func (c LoggingConfig) IsDebug() bool {
	return c.Level == "debug"
}
