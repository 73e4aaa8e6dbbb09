package storage

import (
	"encoding/gob"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"

	"github.com/jsamuelsen/quote-filter/internal/domain"
)

// GobCodec stores quotes as a single gob-encoded slice.
type GobCodec struct{}

// Name implements ports.QuoteCodec.
func (GobCodec) Name() string { return FormatBytes }

// Encode implements ports.QuoteCodec.
func (GobCodec) Encode(w io.Writer, quotes []domain.Quote) error {
	if err := gob.NewEncoder(w).Encode(quotes); err != nil {
		return fmt.Errorf("encoding gob: %w", err)
	}

	return nil
}

// Decode implements ports.QuoteCodec.
func (GobCodec) Decode(r io.Reader) ([]domain.Quote, error) {
	quotes := make([]domain.Quote, 0)
	if err := gob.NewDecoder(r).Decode(&quotes); err != nil {
		return nil, fmt.Errorf("decoding gob: %w", err)
	}

	return quotes, nil
}

// GzipGobCodec is GobCodec behind gzip compression.
type GzipGobCodec struct{}

// Name implements ports.QuoteCodec.
func (GzipGobCodec) Name() string { return FormatBytesZ }

// Encode implements ports.QuoteCodec.
func (GzipGobCodec) Encode(w io.Writer, quotes []domain.Quote) error {
	zw := gzip.NewWriter(w)

	if err := (GobCodec{}).Encode(zw, quotes); err != nil {
		_ = zw.Close()
		return err
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("closing gzip stream: %w", err)
	}

	return nil
}

// Decode implements ports.QuoteCodec.
func (GzipGobCodec) Decode(r io.Reader) ([]domain.Quote, error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening gzip stream: %w", err)
	}
	defer zr.Close()

	return GobCodec{}.Decode(zr)
}
