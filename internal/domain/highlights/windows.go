// Package highlights builds candidate segments from labeled transcript
// lines, scores them through the remote model, and greedily selects the
// final non-overlapping set.
package highlights

import (
	"strings"

	"github.com/amirhoseinsh/youtube-highlighter/internal/domain/transcript"
	"github.com/amirhoseinsh/youtube-highlighter/internal/types"
)

// MaxWindowMs caps a single candidate window so one segment never exceeds
// a single remote-model call.
const MaxWindowMs int64 = 180_000

type WindowConfig struct {
	MinDurationMs int64
	// MaxTokens bounds the cumulative estimated tokens of one window;
	// SafetyTokens is subtracted from it to leave prompt headroom.
	MaxTokens     int
	SafetyTokens  int
	CharsPerToken float64
}

func (c WindowConfig) withDefaults() WindowConfig {
	if c.MinDurationMs <= 0 {
		c.MinDurationMs = 45_000
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = 3000
	}
	if c.SafetyTokens < 0 {
		c.SafetyTokens = 0
	}
	if c.SafetyTokens == 0 {
		c.SafetyTokens = 200
	}
	return c
}

// BuildWindows stitches each question line and its following non-question
// lines into a candidate segment. Windows never overlap: the scan pointer
// jumps past the end of every window it builds, kept or discarded.
func BuildWindows(labeled []types.LabeledLine, cfg WindowConfig) []types.Segment {
	cfg = cfg.withDefaults()
	tokenCap := cfg.MaxTokens - cfg.SafetyTokens

	var out []types.Segment
	i := 0
	for i < len(labeled) {
		if labeled[i].Label != types.LabelQuestion {
			i++
			continue
		}

		startMs := labeled[i].StartMs
		endIdx := i
		lastAnswer := -1
		tokens := 0
		hitTokenCap := false
		var parts []string

		for j := i; j < len(labeled); j++ {
			if j > i && labeled[j].Label == types.LabelQuestion {
				break
			}
			if labeled[j].EndMs-startMs > MaxWindowMs {
				break
			}
			cost := transcript.EstimateTokens(labeled[j].Text, cfg.CharsPerToken)
			if tokens+cost > tokenCap {
				hitTokenCap = true
				break
			}
			tokens += cost
			endIdx = j
			if labeled[j].Label == types.LabelAnswer {
				lastAnswer = j
			}
			if t := strings.TrimSpace(labeled[j].Text); t != "" {
				parts = append(parts, t)
			}
		}

		// Short window that already hit the token cap: padding with more O
		// text cannot help, so keep the complete Q->A exchange instead.
		if hitTokenCap && labeled[endIdx].EndMs-startMs < cfg.MinDurationMs && lastAnswer >= 0 {
			trimmed := lastAnswer + 1
			if trimmed > endIdx {
				trimmed = endIdx
			}
			endIdx = trimmed
			parts = parts[:0]
			for k := i; k <= endIdx; k++ {
				if t := strings.TrimSpace(labeled[k].Text); t != "" {
					parts = append(parts, t)
				}
			}
		}

		endMs := labeled[endIdx].EndMs
		if endMs-startMs >= cfg.MinDurationMs {
			text := strings.Join(parts, " ")
			out = append(out, types.Segment{
				StartMs:   startMs,
				EndMs:     endMs,
				Text:      text,
				EstTokens: transcript.EstimateTokens(text, cfg.CharsPerToken),
			})
		}
		i = endIdx + 1
	}
	return out
}
