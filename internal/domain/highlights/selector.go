package highlights

import (
	"sort"

	"github.com/amirhoseinsh/youtube-highlighter/internal/types"
)

// PickTop greedily selects up to n scored segments: score descending,
// earliest start on ties, rejecting candidates whose margin-expanded
// intervals clash with an earlier pick. If the first pass fills fewer than
// n slots, a fallback pass relaxes the minimum-duration requirement (the
// overlap test still holds). Selected intervals are widened by marginMs on
// both ends and returned in timeline order.
func PickTop(scored []types.Segment, n int, minDurationMs, marginMs int64) []types.Highlight {
	if n <= 0 || len(scored) == 0 {
		return nil
	}

	ranked := make([]types.Segment, len(scored))
	copy(ranked, scored)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].StartMs < ranked[j].StartMs
	})

	var picks []types.Segment
	taken := make([]bool, len(ranked))
	for i, s := range ranked {
		if len(picks) >= n {
			break
		}
		if s.DurationMs() < minDurationMs {
			continue
		}
		if clashesAny(picks, s, marginMs) {
			continue
		}
		picks = append(picks, s)
		taken[i] = true
	}

	if len(picks) < n {
		for i, s := range ranked {
			if len(picks) >= n {
				break
			}
			if taken[i] || clashesAny(picks, s, marginMs) {
				continue
			}
			picks = append(picks, s)
			taken[i] = true
		}
	}

	out := make([]types.Highlight, 0, len(picks))
	for _, s := range picks {
		start := s.StartMs - marginMs
		if start < 0 {
			start = 0
		}
		out = append(out, types.Highlight{
			StartMs: start,
			EndMs:   s.EndMs + marginMs,
			Score:   s.Score,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartMs < out[j].StartMs })
	return out
}

// clashesAny reports whether the margin-expanded interval of s intersects
// any already-accepted pick.
func clashesAny(picks []types.Segment, s types.Segment, marginMs int64) bool {
	for _, p := range picks {
		if p.EndMs+marginMs >= s.StartMs-marginMs && s.EndMs+marginMs >= p.StartMs-marginMs {
			return true
		}
	}
	return false
}
