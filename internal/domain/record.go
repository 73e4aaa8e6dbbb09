package domain

import (
	"fmt"
	"unicode/utf8"
)

// Field names every quote table must carry.
const (
	FieldAuthor   = "author"
	FieldQuote    = "quote"
	FieldCategory = "category"
)

// RequiredFields lists the columns a header must contain, in reporting order.
var RequiredFields = []string{FieldAuthor, FieldQuote, FieldCategory}

// ValidDelimiter reports whether r can separate fields. Quotes, line breaks,
// NUL and invalid runes cannot, since they would be ambiguous with field
// content or row ends.
func ValidDelimiter(r rune) bool {
	return r != 0 && r != '"' && r != '\r' && r != '\n' &&
		utf8.ValidRune(r) && r != utf8.RuneError
}

// Record is one row of the quote table.
// Field order follows the source header and is preserved on output,
// but carries no meaning for the cleaning rules.
type Record struct {
	keys   []string
	values map[string]string
}

// NewRecord pairs header keys with row values.
// Returns an error if the lengths differ.
func NewRecord(keys, values []string) (*Record, error) {
	if len(keys) != len(values) {
		return nil, fmt.Errorf("record has %d fields, header has %d", len(values), len(keys))
	}

	r := &Record{
		keys:   make([]string, len(keys)),
		values: make(map[string]string, len(keys)),
	}
	copy(r.keys, keys)

	for i, k := range keys {
		r.values[k] = values[i]
	}

	return r, nil
}

// Get returns the value of a field, or "" when the field is absent.
func (r *Record) Get(name string) string {
	return r.values[name]
}

// Set updates a field. Unknown fields are appended to the key order.
func (r *Record) Set(name, value string) {
	if _, ok := r.values[name]; !ok {
		r.keys = append(r.keys, name)
	}
	r.values[name] = value
}

// Keys returns the field names in source order.
func (r *Record) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Values returns the field values in key order.
func (r *Record) Values() []string {
	out := make([]string, len(r.keys))
	for i, k := range r.keys {
		out[i] = r.values[k]
	}
	return out
}

// Author is shorthand for Get(FieldAuthor).
func (r *Record) Author() string { return r.Get(FieldAuthor) }

// Quote is shorthand for Get(FieldQuote).
func (r *Record) Quote() string { return r.Get(FieldQuote) }

// Category is shorthand for Get(FieldCategory).
func (r *Record) Category() string { return r.Get(FieldCategory) }

// CheckHeader verifies that a header carries every required column.
func CheckHeader(header []string) error {
	present := make(map[string]struct{}, len(header))
	for _, h := range header {
		present[h] = struct{}{}
	}

	for _, f := range RequiredFields {
		if _, ok := present[f]; !ok {
			return NewMissingColumnError(f)
		}
	}

	return nil
}
