// Package app contains application services that orchestrate use cases.
// It coordinates domain rules and adapters through ports and owns the
// cross-cutting concerns of a run: logging, tracing and metrics.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/quote-filter/internal/domain"
	"github.com/jsamuelsen/quote-filter/internal/platform/logging"
	"github.com/jsamuelsen/quote-filter/internal/platform/telemetry"
	"github.com/jsamuelsen/quote-filter/internal/ports"
)

// Cleaner runs the record pipeline: parse every record, validate it against
// the rules, and forward the survivors to a sink.
type Cleaner struct {
	rules   domain.Rules
	logger  *slog.Logger
	metrics *Metrics
	tracer  trace.Tracer
}

// CleanerConfig contains the dependencies of a Cleaner.
type CleanerConfig struct {
	// Rules decide which records are kept. The zero value forbids no tag
	// but allows no space in the author, so "Jane Doe" is dropped; use
	// domain.DefaultRules for the standard set.
	Rules domain.Rules

	// Logger is used when the context carries none.
	Logger *slog.Logger

	// Metrics is optional.
	Metrics *Metrics
}

// NewCleaner creates a cleaner.
func NewCleaner(cfg CleanerConfig) *Cleaner {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Cleaner{
		rules:   cfg.Rules,
		logger:  logger.With(slog.String("component", "app.Cleaner")),
		metrics: cfg.Metrics,
		tracer:  telemetry.Tracer(),
	}
}

// Rules returns the rules the cleaner applies.
func (c *Cleaner) Rules() domain.Rules {
	return c.rules
}

// Clean normalizes rec in place and reports why it would be dropped.
// RejectNone means the record is kept.
func (c *Cleaner) Clean(rec *domain.Record) domain.RejectReason {
	return c.rules.Check(domain.ParseRecord(rec))
}

// NormalizeText applies sentence normalization to a single string.
func (c *Cleaner) NormalizeText(ctx context.Context, text string) string {
	_, span := c.tracer.Start(ctx, "cleaner.NormalizeText",
		trace.WithAttributes(attribute.Int("text.length", len(text))),
	)
	defer span.End()

	return domain.NormalizeSentence(text)
}

// Run cleans every record of src into sink.
//
// The header is written before the first record, so an input whose records
// are all dropped still yields a header-only output. Reading stops at the
// first malformed record or sink failure; the summary returned alongside the
// error counts what was processed until then. Cancelling ctx stops the run
// between records. Run flushes sink but does not close the writers behind
// src or sink.
func (c *Cleaner) Run(ctx context.Context, src ports.RecordSource, sink ports.RecordSink) (summary *Summary, err error) {
	runID := uuid.NewString()
	summary = newSummary(runID)
	start := time.Now()

	ctx, span := c.tracer.Start(ctx, "cleaner.Run",
		trace.WithAttributes(attribute.String("run.id", runID)),
	)
	defer span.End()

	ctx = logging.WithRunID(logging.WithContext(ctx, c.loggerFor(ctx)), runID)
	logger := logging.FromContext(ctx)

	defer func() {
		if closeErr := sink.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("flushing output: %w", closeErr)
		}

		summary.Duration = time.Since(start)
		c.metrics.recordRun(summary, err)

		span.SetAttributes(
			attribute.Int("records.total", summary.Total),
			attribute.Int("records.emitted", summary.Emitted),
		)

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			logger.ErrorContext(ctx, "cleaning run failed",
				slog.Int("total", summary.Total),
				slog.Int("emitted", summary.Emitted),
				slog.Any("error", err),
			)

			return
		}

		logger.InfoContext(ctx, "cleaning run finished",
			slog.Int("total", summary.Total),
			slog.Int("emitted", summary.Emitted),
			slog.Int("dropped", summary.DroppedTotal()),
			slog.Duration("duration", summary.Duration),
		)
	}()

	if err := sink.WriteHeader(src.Header()); err != nil {
		return summary, fmt.Errorf("writing header: %w", err)
	}

	for {
		if err := ctx.Err(); err != nil {
			return summary, fmt.Errorf("cleaning stopped after %d records: %w", summary.Total, err)
		}

		rec, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return summary, fmt.Errorf("reading record %d: %w", summary.Total+1, err)
		}

		summary.Total++
		c.metrics.recordScanned()

		if reason := c.Clean(rec); reason != domain.RejectNone {
			summary.Dropped[reason]++
			c.metrics.recordDropped(reason)
			logger.Log(ctx, logging.LevelTrace, "record dropped",
				slog.Int("record", summary.Total),
				slog.String("reason", string(reason)),
				slog.String("author", rec.Author()),
			)

			continue
		}

		if err := sink.Write(ctx, rec); err != nil {
			return summary, fmt.Errorf("writing record %d: %w", summary.Total, err)
		}

		summary.Emitted++
		c.metrics.recordEmitted()
	}

	return summary, nil
}

func (c *Cleaner) loggerFor(ctx context.Context) *slog.Logger {
	if logger, ok := logging.Lookup(ctx); ok {
		return logger
	}

	return c.logger
}
