// Package tabular reads and writes quote records as delimited text.
package tabular

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jsamuelsen/quote-filter/internal/domain"
)

const byteOrderMark = "\ufeff"

// Reader yields records from a delimited text stream with a header row.
type Reader struct {
	csv    *csv.Reader
	header []string
}

// NewReader reads the header from r and checks it carries the author, quote
// and category columns. Every following row must have as many fields as the
// header.
func NewReader(r io.Reader, delimiter rune) (*Reader, error) {
	if !domain.ValidDelimiter(delimiter) {
		return nil, domain.NewValidationErrorWithValue("delimiter",
			"must be a single character other than a double quote or a line break", string(delimiter))
	}

	cr := csv.NewReader(r)
	cr.Comma = delimiter

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, domain.NewMalformedRecordError(1, "missing header row", nil)
	}

	if err != nil {
		return nil, parseError(err)
	}

	header[0] = strings.TrimPrefix(header[0], byteOrderMark)

	if err := domain.CheckHeader(header); err != nil {
		return nil, err
	}

	return &Reader{csv: cr, header: header}, nil
}

// Header returns the column names in source order.
func (r *Reader) Header() []string {
	out := make([]string, len(r.header))
	copy(out, r.header)
	return out
}

// Next returns the next record, or io.EOF at the end of input.
func (r *Reader) Next(ctx context.Context) (*domain.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	row, err := r.csv.Read()
	if errors.Is(err, io.EOF) {
		return nil, io.EOF
	}

	if err != nil {
		return nil, parseError(err)
	}

	rec, err := domain.NewRecord(r.header, row)
	if err != nil {
		line, _ := r.csv.FieldPos(0)
		return nil, domain.NewMalformedRecordError(line, "", err)
	}

	return rec, nil
}

// parseError turns csv parse failures into malformed record errors.
func parseError(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return domain.NewMalformedRecordError(pe.Line, "", pe.Err)
	}

	return fmt.Errorf("reading input: %w", err)
}
