package assistant

import (
	"strings"
	"testing"
)

func TestExtractAnswer(t *testing.T) {
	page := "Inflation is a sustained rise in the general price level. " +
		"The Federal Reserve manages inflation through monetary policy. " +
		"Hyperinflation destroys savings rapidly. " +
		"Deflation is the opposite phenomenon entirely. " +
		"Central banks also watch inflation expectations closely."

	t.Run("matching sentences in order", func(t *testing.T) {
		got := ExtractAnswer("tell me about inflation", page)
		want := []string{
			"Inflation is a sustained rise",
			"The Federal Reserve manages inflation",
			"Hyperinflation destroys savings",
		}
		for _, w := range want {
			if !strings.Contains(got, w) {
				t.Errorf("answer missing %q: %q", w, got)
			}
		}
		// Cap reached before the fourth matching sentence.
		if strings.Contains(got, "Central banks") || strings.Contains(got, "Deflation") {
			t.Errorf("answer includes sentence beyond the cap: %q", got)
		}
	})

	t.Run("caps at three sentences", func(t *testing.T) {
		got := ExtractAnswer("inflation", page+" Extra sentence mentioning inflation one more time here.")
		if n := strings.Count(got, "inflation") + strings.Count(got, "Inflation"); n > 3 {
			t.Errorf("got %d matches, want at most 3: %q", n, got)
		}
	})

	t.Run("no match", func(t *testing.T) {
		if got := ExtractAnswer("photosynthesis", page); got != noAnswerMessage {
			t.Errorf("answer = %q, want the no-answer message", got)
		}
	})

	t.Run("short query words ignored", func(t *testing.T) {
		if got := ExtractAnswer("is a the of", page); got != noAnswerMessage {
			t.Errorf("answer = %q, want the no-answer message", got)
		}
	})

	t.Run("short sentences skipped", func(t *testing.T) {
		got := ExtractAnswer("demand", "Demand rose. Aggregate demand shifted outward during the recovery period.")
		if strings.Contains(got, "Demand rose.") {
			t.Errorf("short sentence not skipped: %q", got)
		}
		if !strings.Contains(got, "Aggregate demand shifted") {
			t.Errorf("long sentence missing: %q", got)
		}
	})
}

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int
	}{
		{"basic", "One sentence. Two sentences! Three sentences?", 3},
		{"trailing fragment", "Complete sentence. trailing words without punctuation", 2},
		{"decimal not split", "GDP grew by 2.5 percent last year. Then it slowed.", 2},
		{"empty", "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := splitSentences(tt.in); len(got) != tt.want {
				t.Errorf("splitSentences(%q) = %d sentences %v, want %d", tt.in, len(got), got, tt.want)
			}
		})
	}
}

func TestLLMStatsSnapshot(t *testing.T) {
	s := NewLLMStats(0)
	for _, ms := range []int64{10, 20, 30, 40} {
		s.Record(ms)
	}
	s.RecordError()

	snap := s.Snapshot()
	if snap.Count != 4 {
		t.Errorf("count = %d, want 4", snap.Count)
	}
	if snap.MinMs != 10 || snap.MaxMs != 40 {
		t.Errorf("min/max = %d/%d, want 10/40", snap.MinMs, snap.MaxMs)
	}
	if snap.AvgMs != 25 {
		t.Errorf("avg = %v, want 25", snap.AvgMs)
	}
	if snap.P50Ms != 25 {
		t.Errorf("p50 = %v, want 25", snap.P50Ms)
	}
	if snap.Errors != 1 {
		t.Errorf("errors = %d, want 1", snap.Errors)
	}
}

func TestLLMStatsEmpty(t *testing.T) {
	snap := NewLLMStats(0).Snapshot()
	if snap.Count != 0 || snap.AvgMs != 0 {
		t.Errorf("empty snapshot = %+v", snap)
	}
}
