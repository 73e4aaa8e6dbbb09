package storage

import (
	"context"
	"io"

	"github.com/jsamuelsen/quote-filter/internal/domain"
	"github.com/jsamuelsen/quote-filter/internal/ports"
)

// Sink collects cleaned records as quotes and encodes them with a codec when
// closed. Formats other than csv cannot be streamed, so the whole collection
// is held in memory.
type Sink struct {
	codec  ports.QuoteCodec
	w      io.Writer
	quotes []domain.Quote
	closed bool
}

// NewSink creates a sink encoding into w.
func NewSink(codec ports.QuoteCodec, w io.Writer) *Sink {
	return &Sink{codec: codec, w: w}
}

// WriteHeader implements ports.RecordSink. Storage formats carry a fixed
// schema, so the header is not recorded.
func (s *Sink) WriteHeader([]string) error {
	return nil
}

// Write implements ports.RecordSink.
func (s *Sink) Write(_ context.Context, rec *domain.Record) error {
	s.quotes = append(s.quotes, domain.QuoteFromRecord(rec))
	return nil
}

// Close implements ports.RecordSink. It encodes the collection once; later
// calls do nothing.
func (s *Sink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	quotes := s.quotes
	if quotes == nil {
		quotes = []domain.Quote{}
	}

	return s.codec.Encode(s.w, quotes)
}

// Len reports how many quotes were collected.
func (s *Sink) Len() int {
	return len(s.quotes)
}
