package transcript

import (
	"errors"

	"github.com/amirhoseinsh/youtube-highlighter/internal/completion"
	"github.com/amirhoseinsh/youtube-highlighter/internal/types"
)

// Range is a half-open [Start, End) span of line indices.
type Range struct {
	Start int
	End   int
}

func (r Range) Len() int { return r.End - r.Start }

// BuildChunks greedily accumulates lines into chunks of roughly
// targetTokenBudget estimated tokens, then starts the next chunk
// overlapLines earlier so question/answer pairs near a boundary appear in
// both neighbors. A single line larger than the whole budget still gets
// its own chunk; overshoot is bounded by one line.
func BuildChunks(lines []types.Line, targetTokenBudget, overlapLines int, charsPerToken float64) []Range {
	if len(lines) == 0 {
		return nil
	}
	if targetTokenBudget <= 0 {
		return []Range{{Start: 0, End: len(lines)}}
	}
	if overlapLines < 0 {
		overlapLines = 0
	}

	var out []Range
	start := 0
	for start < len(lines) {
		sum := 0
		end := start
		for end < len(lines) {
			cost := EstimateTokens(lines[end].Text, charsPerToken)
			if end > start && sum+cost > targetTokenBudget {
				break
			}
			sum += cost
			end++
		}
		out = append(out, Range{Start: start, End: end})
		if end >= len(lines) {
			break
		}
		next := end - overlapLines
		if next <= start {
			// Overlap would stall progress on tiny chunks; drop it here.
			next = end
		}
		start = next
	}
	return out
}

// Halve splits r at its midpoint. It reports false when r is already at or
// below minLines, the point at which a context overflow stops being
// splittable and becomes fatal for that slice.
func Halve(r Range, minLines int) (Range, Range, bool) {
	if minLines < 2 {
		minLines = 2
	}
	if r.Len() <= minLines {
		return Range{}, Range{}, false
	}
	mid := r.Start + r.Len()/2
	return Range{Start: r.Start, End: mid}, Range{Start: mid, End: r.End}, true
}

// ProcessRanges drains a worklist of ranges through run. A context-overflow
// failure halves the offending range and re-enters both halves
// independently; once a range cannot be halved further the error sticks to
// that slice alone and the rest of the worklist continues. All terminal
// errors come back joined.
func ProcessRanges(initial []Range, minLines int, run func(Range) error) error {
	work := make([]Range, len(initial))
	copy(work, initial)

	var failed []error
	for len(work) > 0 {
		r := work[len(work)-1]
		work = work[:len(work)-1]

		err := run(r)
		if err == nil {
			continue
		}
		if completion.IsContextOverflow(err) {
			if a, b, ok := Halve(r, minLines); ok {
				work = append(work, b, a)
				continue
			}
		}
		failed = append(failed, err)
	}
	return errors.Join(failed...)
}
