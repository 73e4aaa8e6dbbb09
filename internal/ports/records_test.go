package ports_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quote-filter/internal/domain"
	"github.com/jsamuelsen/quote-filter/internal/ports"
)

// sliceSource is a minimal RecordSource used to pin the port contract.
type sliceSource struct {
	header []string
	rows   [][]string
	pos    int
}

func (s *sliceSource) Header() []string { return s.header }

func (s *sliceSource) Next(ctx context.Context) (*domain.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.pos >= len(s.rows) {
		return nil, io.EOF
	}
	row := s.rows[s.pos]
	s.pos++
	return domain.NewRecord(s.header, row)
}

var _ ports.RecordSource = (*sliceSource)(nil)

func TestRecordSource_Contract(t *testing.T) {
	src := &sliceSource{
		header: []string{"quote", "author", "category"},
		rows:   [][]string{{"q1", "a1", "c1"}, {"q2", "a2", "c2"}},
	}

	ctx := context.Background()
	var authors []string
	for {
		rec, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		authors = append(authors, rec.Author())
	}

	assert.Equal(t, []string{"a1", "a2"}, authors)
}
