package tabular

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"

	"github.com/jsamuelsen/quote-filter/internal/domain"
)

// ErrHeaderNotWritten is returned when a record is written before the header.
var ErrHeaderNotWritten = errors.New("header not written")

// Writer emits records as delimited text, quoting only the fields that need it.
//
// encoding/csv is not used for output because it also quotes fields with a
// leading space, which would change rows that need no quoting at all.
type Writer struct {
	w       *bufio.Writer
	comma   rune
	header  []string
	crlf    bool
	raw     bool
	special string
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithCRLF terminates rows with \r\n instead of \n.
func WithCRLF() WriterOption {
	return func(w *Writer) { w.crlf = true }
}

// WithRawFields writes values as they are, skipping QuoteField. Used when
// re-encoding stored quotes rather than emitting a cleaning run.
func WithRawFields() WriterOption {
	return func(w *Writer) { w.raw = true }
}

// NewWriter creates a writer. Output is buffered until Close.
func NewWriter(w io.Writer, delimiter rune, opts ...WriterOption) *Writer {
	tw := &Writer{
		w:       bufio.NewWriter(w),
		comma:   delimiter,
		special: string(delimiter) + "\"\r\n",
	}

	for _, opt := range opts {
		opt(tw)
	}

	return tw
}

// WriteHeader emits the header row and fixes the column order for records.
func (w *Writer) WriteHeader(header []string) error {
	w.header = append([]string(nil), header...)
	return w.writeRow(w.header)
}

// Write emits rec in header order after applying QuoteField to every value.
func (w *Writer) Write(ctx context.Context, rec *domain.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if w.header == nil {
		return ErrHeaderNotWritten
	}

	row := make([]string, len(w.header))
	for i, name := range w.header {
		row[i] = rec.Get(name)
		if !w.raw {
			row[i] = QuoteField(row[i])
		}
	}

	return w.writeRow(row)
}

// Close flushes buffered output. The underlying writer is left open.
func (w *Writer) Close() error {
	return w.w.Flush()
}

func (w *Writer) writeRow(fields []string) error {
	for i, field := range fields {
		if i > 0 {
			if _, err := w.w.WriteRune(w.comma); err != nil {
				return err
			}
		}

		if err := w.writeField(field); err != nil {
			return err
		}
	}

	if w.crlf {
		_, err := w.w.WriteString("\r\n")
		return err
	}

	return w.w.WriteByte('\n')
}

func (w *Writer) writeField(field string) error {
	if !strings.ContainsAny(field, w.special) {
		_, err := w.w.WriteString(field)
		return err
	}

	if err := w.w.WriteByte('"'); err != nil {
		return err
	}

	if _, err := w.w.WriteString(strings.ReplaceAll(field, `"`, `""`)); err != nil {
		return err
	}

	return w.w.WriteByte('"')
}

// QuoteField applies the output quoting override. A value that already
// starts and ends with a double quote is passed through; any other value has
// its double quotes doubled. The writer then applies minimal quoting on top,
// so embedded quotes end up escaped twice.
func QuoteField(v string) string {
	if strings.HasPrefix(v, `"`) && strings.HasSuffix(v, `"`) {
		return v
	}

	return strings.ReplaceAll(v, `"`, `""`)
}
