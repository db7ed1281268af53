// Package config reads runtime settings from the environment.
package config

import (
	"os"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/cast"
)

const (
	EnvLogLevel       = "LOG_LEVEL"
	EnvLogFormat      = "LOG_FORMAT"
	EnvMaxUploadMB    = "PCBQ_MAX_UPLOAD_MB"
	EnvMaxEntryMB     = "PCBQ_MAX_ENTRY_MB"
	EnvIngestWorkers  = "PCBQ_INGEST_WORKERS"
	EnvWatchDir       = "PCBQ_WATCH_DIR"
	EnvWatchDebounce  = "PCBQ_WATCH_DEBOUNCE"
	EnvCurrencySymbol = "PCBQ_CURRENCY_SYMBOL"
	EnvDefaultPayment = "PCBQ_DEFAULT_PAYMENT"
)

var envVars = []string{
	EnvLogLevel,
	EnvLogFormat,
	EnvMaxUploadMB,
	EnvMaxEntryMB,
	EnvIngestWorkers,
	EnvWatchDir,
	EnvWatchDebounce,
	EnvCurrencySymbol,
	EnvDefaultPayment,
}

// Config is the resolved runtime configuration.
type Config struct {
	LogLevel       string
	LogFormat      string
	MaxUploadMB    int
	MaxEntryMB     int
	IngestWorkers  int
	WatchDir       string
	WatchDebounce  time.Duration
	CurrencySymbol string
	DefaultPayment string
}

// Default returns the configuration used when no variable is set.
func Default() Config {
	return Config{
		LogLevel:       "info",
		LogFormat:      "json",
		MaxUploadMB:    25,
		MaxEntryMB:     20,
		IngestWorkers:  4,
		WatchDebounce:  500 * time.Millisecond,
		CurrencySymbol: "₺",
		DefaultPayment: "credit_card",
	}
}

// Load reads the process environment.
func Load() (Config, error) {
	return FromMap(environ())
}

// FromMap builds a Config from key/value pairs, falling back to Default for
// missing keys. Values that cannot be coerced keep the default.
func FromMap(values map[string]string) (Config, error) {
	cfg := Default()

	if v, ok := values[EnvLogLevel]; ok {
		cfg.LogLevel = v
	}
	if v, ok := values[EnvLogFormat]; ok {
		cfg.LogFormat = v
	}
	if v, ok := values[EnvMaxUploadMB]; ok {
		cfg.MaxUploadMB = intOr(v, cfg.MaxUploadMB)
	}
	if v, ok := values[EnvMaxEntryMB]; ok {
		cfg.MaxEntryMB = intOr(v, cfg.MaxEntryMB)
	}
	if v, ok := values[EnvIngestWorkers]; ok {
		cfg.IngestWorkers = intOr(v, cfg.IngestWorkers)
	}
	if v, ok := values[EnvWatchDir]; ok {
		cfg.WatchDir = v
	}
	if v, ok := values[EnvWatchDebounce]; ok {
		if d, err := cast.ToDurationE(v); err == nil {
			cfg.WatchDebounce = d
		}
	}
	if v, ok := values[EnvCurrencySymbol]; ok {
		cfg.CurrencySymbol = v
	}
	if v, ok := values[EnvDefaultPayment]; ok {
		cfg.DefaultPayment = v
	}

	return cfg, cfg.Validate()
}

// Validate rejects limits that would disable ingestion.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.LogLevel, validation.In("debug", "info", "warn", "error")),
		validation.Field(&c.LogFormat, validation.In("json", "console")),
		validation.Field(&c.MaxUploadMB, validation.Required, validation.Min(1)),
		validation.Field(&c.MaxEntryMB, validation.Required, validation.Min(1)),
		validation.Field(&c.IngestWorkers, validation.Required, validation.Min(1)),
		validation.Field(&c.WatchDebounce, validation.Min(time.Duration(0))),
		validation.Field(&c.CurrencySymbol, validation.Required),
		validation.Field(&c.DefaultPayment, validation.Required, validation.In("credit_card", "bank_transfer")),
	)
}

// MaxUploadBytes is MaxUploadMB in bytes.
func (c Config) MaxUploadBytes() int64 { return int64(c.MaxUploadMB) << 20 }

// MaxEntryBytes is MaxEntryMB in bytes.
func (c Config) MaxEntryBytes() int64 { return int64(c.MaxEntryMB) << 20 }

func intOr(v string, fallback int) int {
	n, err := cast.ToIntE(v)
	if err != nil {
		return fallback
	}
	return n
}

func environ() map[string]string {
	values := make(map[string]string)
	for _, key := range envVars {
		if v := os.Getenv(key); v != "" {
			values[key] = v
		}
	}
	return values
}
