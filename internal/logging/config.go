package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	EnvLogLevel     = "LIGAMENT_LOG_LEVEL"
	EnvLogTimestamp = "LIGAMENT_LOG_TIMESTAMP"
	EnvLogNoColor   = "LIGAMENT_LOG_NOCOLOR"
)

type Profile int

const (
	ProfileRuntime Profile = iota
	ProfileTest
)

// Config controls the console logger.
type Config struct {
	Level     zerolog.Level
	Timestamp bool
	NoColor   bool
}

// envConfig holds the environment overrides; nil keeps the profile default.
type envConfig struct {
	Level     *zerolog.Level `env:"LIGAMENT_LOG_LEVEL"`
	Timestamp *bool          `env:"LIGAMENT_LOG_TIMESTAMP"`
	NoColor   *bool          `env:"LIGAMENT_LOG_NOCOLOR"`
}

var configureOnce sync.Once

func ConfigureRuntime() {
	Configure(ProfileRuntime)
}

func ConfigureTests() {
	Configure(ProfileTest)
}

// Configure installs the global zerolog logger once per process. Later
// calls are no-ops.
func Configure(profile Profile) {
	configureOnce.Do(func() {
		cfg, err := LoadConfig(profile)
		zerolog.SetGlobalLevel(cfg.Level)
		log.Logger = New(cfg, os.Stderr)
		if err != nil {
			log.Warn().Err(err).Msg("ignoring log environment")
		}
	})
}

// LoadConfig returns the profile defaults overridden from the environment.
// On a parse error the defaults are returned along with the error.
func LoadConfig(profile Profile) (Config, error) {
	cfg := defaultConfig(profile)
	var raw envConfig
	if err := env.Parse(&raw); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	applyEnvOverrides(&cfg, raw)
	return cfg, nil
}

// New builds a console logger writing to out.
func New(cfg Config, out io.Writer) zerolog.Logger {
	w := zerolog.ConsoleWriter{
		Out:        out,
		NoColor:    cfg.NoColor,
		TimeFormat: time.RFC3339,
	}
	if !cfg.Timestamp {
		w.PartsExclude = []string{zerolog.TimestampFieldName}
	}
	ctx := zerolog.New(w).Level(cfg.Level).With().Str("app", "ligament")
	if cfg.Timestamp {
		ctx = ctx.Timestamp()
	}
	return ctx.Logger()
}

func defaultConfig(profile Profile) Config {
	switch profile {
	case ProfileTest:
		return Config{Level: zerolog.DebugLevel, Timestamp: false}
	default:
		return Config{Level: zerolog.InfoLevel, Timestamp: true}
	}
}

func applyEnvOverrides(cfg *Config, raw envConfig) {
	if raw.Level != nil && *raw.Level != zerolog.NoLevel {
		cfg.Level = *raw.Level
	}
	if raw.Timestamp != nil {
		cfg.Timestamp = *raw.Timestamp
	}
	if raw.NoColor != nil {
		cfg.NoColor = *raw.NoColor
	}
}
