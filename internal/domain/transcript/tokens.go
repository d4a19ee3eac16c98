// Package transcript holds the token-budget arithmetic for prompts built
// from transcript lines: a sampled chars-per-token estimate, greedy chunk
// construction with overlap, and the halving worklist used when a chunk
// still overflows the remote model's context at runtime.
package transcript

import (
	"math"
	"strings"

	"github.com/amirhoseinsh/youtube-highlighter/internal/types"
)

const (
	defaultCharsPerToken = 4.0
	minCharsPerToken     = 2.0
	maxCharsPerToken     = 6.0

	// tokensPerWord approximates subword tokenization of English speech.
	tokensPerWord = 4.0 / 3.0
)

// SampleCharsPerToken derives a chars-per-token ratio from the first sample
// lines of the transcript, clamped to a sane band. Empty input falls back
// to the conventional 4 chars per token.
func SampleCharsPerToken(lines []types.Line, sample int) float64 {
	chars, words := 0, 0
	for i, l := range lines {
		if sample > 0 && i >= sample {
			break
		}
		chars += len(l.Text)
		words += len(strings.Fields(l.Text))
	}
	if words == 0 {
		return defaultCharsPerToken
	}
	ratio := float64(chars) / (float64(words) * tokensPerWord)
	if ratio < minCharsPerToken {
		return minCharsPerToken
	}
	if ratio > maxCharsPerToken {
		return maxCharsPerToken
	}
	return ratio
}

// EstimateTokens is an upper-bound-ish estimate of prompt cost for text.
func EstimateTokens(text string, charsPerToken float64) int {
	if text == "" {
		return 0
	}
	if charsPerToken <= 0 {
		charsPerToken = defaultCharsPerToken
	}
	return int(math.Ceil(float64(len(text)) / charsPerToken))
}
