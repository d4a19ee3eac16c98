package types

import "fmt"

// Line is one timestamped transcript line as produced by the subtitle
// source. Lines are ordered by StartMs and do not overlap.
type Line struct {
	StartMs int64  `json:"start_ms"`
	EndMs   int64  `json:"end_ms"`
	Text    string `json:"text"`
}

func (l Line) DurationMs() int64 { return l.EndMs - l.StartMs }

// Label is the 3-way classification of a transcript line.
type Label byte

const (
	LabelQuestion Label = 'Q'
	LabelAnswer   Label = 'A'
	LabelOther    Label = 'O'
)

func (l Label) String() string { return string(rune(l)) }

// ParseLabel maps a single-letter label token to a Label. Anything
// unrecognized falls back to LabelOther.
func ParseLabel(s string) Label {
	switch s {
	case "Q", "q":
		return LabelQuestion
	case "A", "a":
		return LabelAnswer
	default:
		return LabelOther
	}
}

type LabeledLine struct {
	Line
	Label Label
}

// Segment is a candidate highlight window anchored at a question line.
type Segment struct {
	StartMs   int64
	EndMs     int64
	Text      string
	EstTokens int

	// Score is the model-assigned desirability in [1,5]; zero until scored.
	Score int
}

func (s Segment) DurationMs() int64 { return s.EndMs - s.StartMs }

// Highlight is a selected, margin-adjusted time range handed to the clip
// extractor.
type Highlight struct {
	StartMs int64 `json:"start_ms"`
	EndMs   int64 `json:"end_ms"`
	Score   int   `json:"score"`
}

func (h Highlight) StartTime() string { return FormatTimestamp(h.StartMs) }
func (h Highlight) EndTime() string   { return FormatTimestamp(h.EndMs) }

// FormatTimestamp renders milliseconds as HH:MM:SS.
func FormatTimestamp(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	sec := ms / 1000
	return fmt.Sprintf("%02d:%02d:%02d", sec/3600, (sec/60)%60, sec%60)
}

// Manifest describes the output of one run.
type Manifest struct {
	RunID  string         `json:"run_id"`
	Source string         `json:"source"`
	Clips  []ManifestClip `json:"clips"`
}

type ManifestClip struct {
	ID        string `json:"id"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Score     int    `json:"score"`
	File      string `json:"file"`
	Thumbnail string `json:"thumbnail"`
}
