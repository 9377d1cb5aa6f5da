package telemetry

import (
	"cmp"
	"context"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

var _ sdktrace.SpanProcessor = (*Summary)(nil)

// SummaryEntry is the timing of one finished module span.
type SummaryEntry struct {
	Module   string
	Duration time.Duration
	Failed   bool
}

// Summary is a span processor that keeps the timing of every finished module span.
type Summary struct {
	mu      sync.Mutex
	entries []SummaryEntry
}

// NewSummary creates an empty Summary.
func NewSummary() *Summary {
	return &Summary{}
}

// OnStart does nothing.
func (s *Summary) OnStart(context.Context, sdktrace.ReadWriteSpan) {}

// OnEnd records the span's duration and outcome.
func (s *Summary) OnEnd(span sdktrace.ReadOnlySpan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, SummaryEntry{
		Module:   span.Name(),
		Duration: span.EndTime().Sub(span.StartTime()),
		Failed:   span.Status().Code == codes.Error,
	})
}

// ForceFlush does nothing.
func (s *Summary) ForceFlush(context.Context) error { return nil }

// Shutdown does nothing.
func (s *Summary) Shutdown(context.Context) error { return nil }

// Entries returns the recorded timings, slowest first.
func (s *Summary) Entries() []SummaryEntry {
	s.mu.Lock()
	out := slices.Clone(s.entries)
	s.mu.Unlock()

	slices.SortStableFunc(out, func(a, b SummaryEntry) int {
		if c := cmp.Compare(b.Duration, a.Duration); c != 0 {
			return c
		}
		return cmp.Compare(a.Module, b.Module)
	})
	return out
}

// Report writes the timings as a table.
func (s *Summary) Report(w io.Writer) error {
	entries := s.Entries()
	if len(entries) == 0 {
		return nil
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		result := "ok"
		if e.Failed {
			result = "failed"
		}
		rows = append(rows, []string{e.Module, e.Duration.Round(time.Millisecond).String(), result})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("MODULE", "DURATION", "RESULT").
		Rows(rows...)
	_, err := io.WriteString(w, t.String()+"\n")
	return err
}
