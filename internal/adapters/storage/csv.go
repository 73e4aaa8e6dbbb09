package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jsamuelsen/quote-filter/internal/adapters/tabular"
	"github.com/jsamuelsen/quote-filter/internal/domain"
)

// csvHeader is the column order written for stored quotes.
var csvHeader = []string{domain.FieldQuote, domain.FieldAuthor, domain.FieldCategory}

// CSVCodec stores quotes as delimited text with quote, author and category
// columns. Decoding locates columns by header name, so files produced by a
// cleaning run with extra columns decode too.
type CSVCodec struct {
	delimiter rune
}

// NewCSVCodec creates a csv codec.
func NewCSVCodec(delimiter rune) CSVCodec {
	return CSVCodec{delimiter: delimiter}
}

// Name implements ports.QuoteCodec.
func (CSVCodec) Name() string { return FormatCSV }

// Encode implements ports.QuoteCodec.
func (c CSVCodec) Encode(w io.Writer, quotes []domain.Quote) error {
	tw := tabular.NewWriter(w, c.delimiter, tabular.WithRawFields())
	if err := tw.WriteHeader(csvHeader); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}

	ctx := context.Background()
	for i, q := range quotes {
		rec, err := domain.NewRecord(csvHeader, []string{q.Content, q.Author, q.Category()})
		if err != nil {
			return err
		}

		if err := tw.Write(ctx, rec); err != nil {
			return fmt.Errorf("writing quote %d: %w", i+1, err)
		}
	}

	return tw.Close()
}

// Decode implements ports.QuoteCodec.
func (c CSVCodec) Decode(r io.Reader) ([]domain.Quote, error) {
	tr, err := tabular.NewReader(r, c.delimiter)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	quotes := make([]domain.Quote, 0)
	for {
		rec, err := tr.Next(ctx)
		if errors.Is(err, io.EOF) {
			return quotes, nil
		}

		if err != nil {
			return nil, err
		}

		quotes = append(quotes, domain.QuoteFromRecord(rec))
	}
}
