package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/jsamuelsen/quote-filter/internal/domain"
	"github.com/jsamuelsen/quote-filter/internal/platform/logging"
	"github.com/jsamuelsen/quote-filter/internal/platform/telemetry"
	"github.com/jsamuelsen/quote-filter/internal/ports"
)

// A conversion runs validate, decode, verify, then encode. Nothing is written
// to any target until the decoded collection has been verified.

// ConvertStep names the stage of a conversion that failed.
type ConvertStep string

const (
	StepValidate ConvertStep = "validate"
	StepDecode   ConvertStep = "decode"
	StepVerify   ConvertStep = "verify"
	StepEncode   ConvertStep = "encode"
)

// ConvertError wraps errors with the step and format where they occurred.
type ConvertError struct {
	Step   ConvertStep
	Format string
	Cause  error
}

// Error implements the error interface.
func (e *ConvertError) Error() string {
	if e.Format != "" {
		return fmt.Sprintf("%s %s failed: %v", e.Step, e.Format, e.Cause)
	}

	return fmt.Sprintf("%s failed: %v", e.Step, e.Cause)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *ConvertError) Unwrap() error {
	return e.Cause
}

// ConvertStepOf extracts the failed step from a conversion error.
func ConvertStepOf(err error) (ConvertStep, bool) {
	var convErr *ConvertError
	if errors.As(err, &convErr) {
		return convErr.Step, true
	}

	return "", false
}

// ConvertTarget is one output of a conversion.
type ConvertTarget struct {
	Format string
	Output io.Writer
}

// ConvertRequest describes a conversion from one format to one or more others.
type ConvertRequest struct {
	From    string
	Input   io.Reader
	Targets []ConvertTarget
}

// Converter re-encodes cleaned quote collections between storage formats.
type Converter struct {
	codecs map[string]ports.QuoteCodec
	logger *slog.Logger
	tracer trace.Tracer
}

// NewConverter creates a converter knowing the given codecs.
func NewConverter(logger *slog.Logger, codecs ...ports.QuoteCodec) *Converter {
	if logger == nil {
		logger = slog.Default()
	}

	byName := make(map[string]ports.QuoteCodec, len(codecs))
	for _, c := range codecs {
		byName[c.Name()] = c
	}

	return &Converter{
		codecs: byName,
		logger: logger.With(slog.String("component", "app.Converter")),
		tracer: telemetry.Tracer(),
	}
}

// Formats lists the known format names in sorted order.
func (c *Converter) Formats() []string {
	out := make([]string, 0, len(c.codecs))
	for name := range c.codecs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Codec returns the codec for a format name.
func (c *Converter) Codec(format string) (ports.QuoteCodec, error) {
	codec, ok := c.codecs[format]
	if !ok {
		return nil, domain.NewValidationErrorWithValue("format",
			fmt.Sprintf("unknown format, want one of %v", c.Formats()), format)
	}

	return codec, nil
}

// Convert decodes req.Input once and encodes the result into every target
// concurrently. It returns the number of quotes converted.
func (c *Converter) Convert(ctx context.Context, req ConvertRequest) (int, error) {
	ctx, span := c.tracer.Start(ctx, "converter.Convert",
		trace.WithAttributes(
			attribute.String("convert.from", req.From),
			attribute.Int("convert.targets", len(req.Targets)),
		),
	)
	defer span.End()

	logger := c.logger
	if l, ok := logging.Lookup(ctx); ok {
		logger = l
	}
	logger = logger.With(slog.String("from", req.From))
	start := time.Now()

	decoder, encoders, err := c.validate(req)
	if err != nil {
		logger.WarnContext(ctx, "conversion rejected", slog.Any("error", err))
		return 0, err
	}

	quotes, err := decoder.Decode(req.Input)
	if err != nil {
		return 0, &ConvertError{Step: StepDecode, Format: req.From, Cause: err}
	}

	logger.DebugContext(ctx, "decoded quotes", slog.Int("count", len(quotes)))

	if err := verifyQuotes(quotes); err != nil {
		return 0, &ConvertError{Step: StepVerify, Format: req.From, Cause: err}
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, target := range req.Targets {
		codec := encoders[i]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := codec.Encode(target.Output, quotes); err != nil {
				return &ConvertError{Step: StepEncode, Format: target.Format, Cause: err}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.ErrorContext(ctx, "conversion failed", slog.Any("error", err))
		return 0, err
	}

	logger.InfoContext(ctx, "conversion completed",
		slog.Int("count", len(quotes)),
		slog.Int("targets", len(req.Targets)),
		slog.Duration("duration", time.Since(start)),
	)

	return len(quotes), nil
}

func (c *Converter) validate(req ConvertRequest) (ports.QuoteCodec, []ports.QuoteCodec, error) {
	fail := func(err error) (ports.QuoteCodec, []ports.QuoteCodec, error) {
		return nil, nil, &ConvertError{Step: StepValidate, Cause: err}
	}

	if req.Input == nil {
		return fail(domain.NewValidationError("input", "is required"))
	}

	if len(req.Targets) == 0 {
		return fail(domain.NewValidationError("targets", "at least one output is required"))
	}

	decoder, err := c.Codec(req.From)
	if err != nil {
		return fail(err)
	}

	encoders := make([]ports.QuoteCodec, len(req.Targets))
	for i, t := range req.Targets {
		if t.Output == nil {
			return fail(domain.NewValidationError("output", "is required for "+t.Format))
		}

		encoders[i], err = c.Codec(t.Format)
		if err != nil {
			return fail(err)
		}
	}

	return decoder, encoders, nil
}

// verifyQuotes checks the record invariant on decoded data: every quote kept
// by a cleaning run has a non-empty author and content.
func verifyQuotes(quotes []domain.Quote) error {
	for i, q := range quotes {
		if q.Author == "" {
			return domain.NewValidationErrorWithValue("author", fmt.Sprintf("quote %d has an empty author", i+1), q.Content)
		}
		if q.Content == "" {
			return domain.NewValidationErrorWithValue("content", fmt.Sprintf("quote %d has empty content", i+1), q.Author)
		}
	}

	return nil
}
