package app

import (
	"fmt"
	"sort"
	"time"

	"github.com/jsamuelsen/quote-filter/internal/domain"
)

// Summary reports the outcome of one cleaning run.
type Summary struct {
	RunID    string
	Total    int
	Emitted  int
	Dropped  map[domain.RejectReason]int
	Duration time.Duration
}

func newSummary(runID string) *Summary {
	return &Summary{
		RunID:   runID,
		Dropped: make(map[domain.RejectReason]int),
	}
}

// String renders the line printed after every run.
func (s *Summary) String() string {
	return fmt.Sprintf("csv added rows: %d total: %d", s.Emitted, s.Total)
}

// DroppedTotal is the number of records rejected by the rules.
func (s *Summary) DroppedTotal() int {
	n := 0
	for _, c := range s.Dropped {
		n += c
	}
	return n
}

// Reasons lists the rejection reasons seen, sorted for stable output.
func (s *Summary) Reasons() []domain.RejectReason {
	out := make([]domain.RejectReason, 0, len(s.Dropped))
	for r := range s.Dropped {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
