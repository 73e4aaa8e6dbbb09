package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jsamuelsen/quote-filter/internal/platform/config"
	"github.com/jsamuelsen/quote-filter/internal/platform/logging"
	"github.com/jsamuelsen/quote-filter/internal/platform/telemetry"
)

// environment is what every command needs after start-up.
type environment struct {
	cfg       *config.Config
	logger    *slog.Logger
	telemetry *telemetry.Provider
}

// bootstrap loads and validates the configuration, applies the command's
// flag overrides, and initializes logging and telemetry. Configuration
// errors fail fast before anything is read or written.
func bootstrap(ctx context.Context, opts *rootOptions, override func(*config.Config)) (*environment, error) {
	cfg, err := config.LoadFrom(opts.configDir, opts.profile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	if opts.logFormat != "" {
		cfg.Log.Format = opts.logFormat
	}
	if override != nil {
		override(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := logging.New(&logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: cfg.App.Name,
		Version: cfg.App.Version,
		File: logging.FileConfig{
			Enabled:    cfg.Log.File.Enabled,
			Path:       cfg.Log.File.Path,
			MaxSizeMB:  cfg.Log.File.MaxSizeMB,
			MaxBackups: cfg.Log.File.MaxBackups,
			MaxAgeDays: cfg.Log.File.MaxAgeDays,
			Compress:   cfg.Log.File.Compress,
		},
	})
	logging.SetDefault(logger)

	provider, err := telemetry.New(ctx, &telemetry.Config{
		Enabled:      cfg.Telemetry.Enabled,
		Endpoint:     cfg.Telemetry.Endpoint,
		ServiceName:  cfg.Telemetry.ServiceName,
		Version:      cfg.App.Version,
		Environment:  cfg.App.Environment,
		SamplingRate: cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing telemetry: %w", err)
	}

	return &environment{cfg: cfg, logger: logger, telemetry: provider}, nil
}

// close flushes telemetry. It uses a fresh context so a cancelled command
// still exports its spans.
func (e *environment) close() {
	if err := e.telemetry.Shutdown(context.Background()); err != nil {
		e.logger.Error("telemetry shutdown error", slog.Any("error", err))
	}
}

// delimiter returns the configured field delimiter. Validation guarantees a
// single character.
func (e *environment) delimiter() rune {
	return []rune(e.cfg.Pipeline.Delimiter)[0]
}
