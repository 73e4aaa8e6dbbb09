// Package ports defines interfaces for external dependencies.
// Ports are contracts that adapters implement, allowing the application layer
// to depend on abstractions rather than concrete implementations.
//
// Port Design Principles:
//   - Context as first parameter on anything that blocks
//   - Return domain types, never adapter types
//   - Error returns use domain error types (ErrMalformedRecord, ErrUnavailable)
package ports

import (
	"context"
	"io"

	"github.com/jsamuelsen/quote-filter/internal/domain"
)

// RecordSource yields quote records one at a time.
//
// Next returns io.EOF once the input is exhausted. Malformed input is reported
// as a *domain.MalformedRecordError carrying the offending line.
type RecordSource interface {
	// Header returns the column names of the input in source order.
	Header() []string

	// Next reads the next record.
	Next(ctx context.Context) (*domain.Record, error)
}

// RecordSink receives the records that survive cleaning.
type RecordSink interface {
	// WriteHeader emits the column names. It is called once, before any
	// record, even when no record survives.
	WriteHeader(header []string) error

	// Write emits a record in header order.
	Write(ctx context.Context, rec *domain.Record) error

	// Close flushes buffered output. It does not close the underlying writer.
	Close() error
}

// DatasetFetcher retrieves a raw dataset from a remote location.
// Returns domain.ErrUnavailable if the remote side cannot serve it.
type DatasetFetcher interface {
	FetchDataset(ctx context.Context, url string) (io.ReadCloser, error)
}

// QuoteCodec encodes and decodes a quote collection in one storage format.
type QuoteCodec interface {
	// Name is the format identifier used on the command line and in config.
	Name() string

	Encode(w io.Writer, quotes []domain.Quote) error
	Decode(r io.Reader) ([]domain.Quote, error)
}
