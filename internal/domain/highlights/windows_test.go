package highlights

import (
	"testing"

	"github.com/amirhoseinsh/youtube-highlighter/internal/types"
)

func ll(startMs, endMs int64, text string, label types.Label) types.LabeledLine {
	return types.LabeledLine{
		Line:  types.Line{StartMs: startMs, EndMs: endMs, Text: text},
		Label: label,
	}
}

func TestBuildWindows_QuestionAnchoredWindow(t *testing.T) {
	labeled := []types.LabeledLine{
		ll(0, 2000, "Intro chatter.", types.LabelOther),
		ll(2000, 4000, "More chatter.", types.LabelOther),
		ll(10000, 12000, "So what actually went wrong that night?", types.LabelQuestion),
		ll(12000, 30000, "We lost the primary database.", types.LabelAnswer),
		ll(30000, 45000, "Alerts were firing everywhere.", types.LabelOther),
		ll(45000, 60000, "The fallback was misconfigured too.", types.LabelOther),
		ll(60000, 75000, "So it cascaded for an hour.", types.LabelOther),
		ll(75000, 76000, "And how did you recover?", types.LabelQuestion),
		ll(76000, 77000, "Restored from the morning snapshot.", types.LabelAnswer),
		ll(77000, 78000, "Rough day.", types.LabelOther),
	}

	segs := BuildWindows(labeled, WindowConfig{MinDurationMs: 60_000, MaxTokens: 100_000})
	if len(segs) != 1 {
		t.Fatalf("expected exactly 1 window, got %d: %+v", len(segs), segs)
	}
	// Lines 3-7: the question plus its four non-question followers.
	if segs[0].StartMs != 10000 || segs[0].EndMs != 75000 {
		t.Fatalf("unexpected window bounds: %d..%d", segs[0].StartMs, segs[0].EndMs)
	}
	if segs[0].EstTokens <= 0 {
		t.Fatal("segment must carry a token estimate")
	}
}

func TestBuildWindows_MinDurationFilters(t *testing.T) {
	for _, seg := range BuildWindows([]types.LabeledLine{
		ll(0, 1000, "Quick one?", types.LabelQuestion),
		ll(1000, 3000, "Yep.", types.LabelAnswer),
	}, WindowConfig{MinDurationMs: 30_000, MaxTokens: 1000}) {
		if seg.DurationMs() < 30_000 {
			t.Fatalf("short window not discarded: %+v", seg)
		}
	}
}

func TestBuildWindows_DurationCap(t *testing.T) {
	labeled := []types.LabeledLine{
		ll(0, 1000, "Where do we even start?", types.LabelQuestion),
		ll(1000, 100_000, "Part one of a very long answer.", types.LabelAnswer),
		ll(100_000, 179_000, "Part two keeps going.", types.LabelOther),
		ll(179_000, 250_000, "Part three would blow past the cap.", types.LabelOther),
	}
	segs := BuildWindows(labeled, WindowConfig{MinDurationMs: 10_000, MaxTokens: 100_000})
	if len(segs) != 1 {
		t.Fatalf("expected 1 window, got %d", len(segs))
	}
	if segs[0].EndMs != 179_000 {
		t.Fatalf("window must stop before breaking the duration cap, ended at %d", segs[0].EndMs)
	}
	if segs[0].DurationMs() > MaxWindowMs {
		t.Fatalf("window exceeds hard cap: %d", segs[0].DurationMs())
	}
}

func TestBuildWindows_TokenCapTrimsToAnswer(t *testing.T) {
	long := make([]byte, 2000)
	for i := range long {
		long[i] = 'x'
	}
	labeled := []types.LabeledLine{
		ll(0, 2000, "What is the short version?", types.LabelQuestion),
		ll(2000, 5000, "This is it.", types.LabelAnswer),
		ll(5000, 8000, "Trailing context line.", types.LabelOther),
		ll(8000, 11000, string(long), types.LabelOther),
		ll(11000, 14000, string(long), types.LabelOther),
	}
	// Tiny token cap: the window hits it well before min duration, trims
	// back to the answer plus one line, and gets discarded as too short.
	segs := BuildWindows(labeled, WindowConfig{MinDurationMs: 60_000, MaxTokens: 120, SafetyTokens: 10, CharsPerToken: 4})
	if len(segs) != 0 {
		t.Fatalf("expected no windows, got %+v", segs)
	}
}

func TestBuildWindows_WindowsNeverOverlap(t *testing.T) {
	var labeled []types.LabeledLine
	for i := 0; i < 30; i++ {
		label := types.LabelOther
		switch i % 3 {
		case 0:
			label = types.LabelQuestion
		case 1:
			label = types.LabelAnswer
		}
		s := int64(i * 20_000)
		labeled = append(labeled, ll(s, s+19_000, "line", label))
	}
	segs := BuildWindows(labeled, WindowConfig{MinDurationMs: 30_000, MaxTokens: 100_000})
	for i := 1; i < len(segs); i++ {
		if segs[i].StartMs < segs[i-1].EndMs {
			t.Fatalf("windows overlap: %+v then %+v", segs[i-1], segs[i])
		}
	}
	if len(segs) < 2 {
		t.Fatalf("expected several windows, got %d", len(segs))
	}
}
