package highlights

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/amirhoseinsh/youtube-highlighter/internal/cache"
	"github.com/amirhoseinsh/youtube-highlighter/internal/completion"
	"github.com/amirhoseinsh/youtube-highlighter/internal/domain/transcript"
	"github.com/amirhoseinsh/youtube-highlighter/internal/types"
)

const (
	minScore = 1
	maxScore = 5
)

type ScoreConfig struct {
	TokenBudget   int
	Concurrency   int
	CharsPerToken float64
}

func (c ScoreConfig) withDefaults() ScoreConfig {
	if c.TokenBudget <= 0 {
		c.TokenBudget = 3000
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 3
	}
	return c
}

// Scorer obtains a 1-5 desirability score per segment, consulting the
// persistent cache first and batching the misses through the remote model.
type Scorer struct {
	client *completion.Client
	store  *cache.Store
	cfg    ScoreConfig
	log    logrus.FieldLogger
}

func NewScorer(client *completion.Client, store *cache.Store, cfg ScoreConfig, log logrus.FieldLogger) *Scorer {
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		log = l
	}
	return &Scorer{client: client, store: store, cfg: cfg.withDefaults(), log: log}
}

// Score returns the input segments with Score populated, preserving input
// order. Every segment gets a score: batch failures default to the lowest
// value rather than dropping anything, so the selector always has a total
// ordering.
func (s *Scorer) Score(ctx context.Context, segs []types.Segment) []types.Segment {
	out := make([]types.Segment, len(segs))
	copy(out, segs)

	var missIdx []int
	for i := range out {
		if s.store != nil {
			if v, ok := s.store.Get(cache.Key(out[i].Text)); ok {
				out[i].Score = clampScore(v)
				continue
			}
		}
		missIdx = append(missIdx, i)
	}
	if len(missIdx) == 0 || s.client == nil {
		for _, i := range missIdx {
			out[i].Score = minScore
		}
		return out
	}

	batches := s.buildBatches(out, missIdx)

	// Batches run in groups of Concurrency; the cache is flushed after each
	// group so a crash loses at most one group of writes.
	var mu sync.Mutex
	for start := 0; start < len(batches); start += s.cfg.Concurrency {
		end := start + s.cfg.Concurrency
		if end > len(batches) {
			end = len(batches)
		}
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.cfg.Concurrency)
		for _, batch := range batches[start:end] {
			batch := batch
			g.Go(func() error {
				s.scoreBatch(gctx, out, batch, &mu)
				return nil
			})
		}
		_ = g.Wait()

		if s.store != nil {
			if err := s.store.Flush(); err != nil {
				s.log.WithError(err).Warn("score cache flush failed")
			}
		}
	}
	return out
}

// buildBatches groups miss indices so each batch's estimated tokens stay
// within the same budget the chunker uses.
func (s *Scorer) buildBatches(segs []types.Segment, missIdx []int) [][]int {
	var batches [][]int
	var cur []int
	sum := transcript.EstimateTokens(scorePrompt, s.cfg.CharsPerToken)
	for _, i := range missIdx {
		cost := segs[i].EstTokens
		if cost == 0 {
			cost = transcript.EstimateTokens(segs[i].Text, s.cfg.CharsPerToken)
		}
		if len(cur) > 0 && sum+cost > s.cfg.TokenBudget {
			batches = append(batches, cur)
			cur = nil
			sum = transcript.EstimateTokens(scorePrompt, s.cfg.CharsPerToken)
		}
		cur = append(cur, i)
		sum += cost
	}
	if len(cur) > 0 {
		batches = append(batches, cur)
	}
	return batches
}

// scoreBatch resolves one batch, halving it on context overflow. It never
// reports failure upward: unresolvable segments score minScore.
func (s *Scorer) scoreBatch(ctx context.Context, segs []types.Segment, batch []int, mu *sync.Mutex) {
	err := transcript.ProcessRanges([]transcript.Range{{Start: 0, End: len(batch)}}, 2, func(r transcript.Range) error {
		return s.scoreSlice(ctx, segs, batch[r.Start:r.End], mu)
	})
	if err != nil {
		s.log.WithError(err).Warn("scoring batch incomplete, defaulting unresolved segments")
		mu.Lock()
		for _, i := range batch {
			if segs[i].Score == 0 {
				segs[i].Score = minScore
			}
		}
		mu.Unlock()
	}
}

func (s *Scorer) scoreSlice(ctx context.Context, segs []types.Segment, idxs []int, mu *sync.Mutex) error {
	var b strings.Builder
	b.WriteString(scorePrompt)
	for n, i := range idxs {
		fmt.Fprintf(&b, "%d. %s\n\n", n+1, segs[i].Text)
	}
	prompt := b.String()

	est := transcript.EstimateTokens(prompt, s.cfg.CharsPerToken)
	out, err := s.client.Complete(ctx, prompt, est, 4*len(idxs)+16)
	if err != nil {
		if completion.IsContextOverflow(err) {
			return err
		}
		// Transient budget exhausted or permanent failure: cover the
		// segments with the floor score and move on.
		mu.Lock()
		for _, i := range idxs {
			segs[i].Score = minScore
		}
		mu.Unlock()
		return nil
	}

	scores := parseScores(out, len(idxs))
	mu.Lock()
	for n, i := range idxs {
		segs[i].Score = scores[n]
		if s.store != nil {
			s.store.Put(cache.Key(segs[i].Text), scores[n])
		}
	}
	mu.Unlock()
	return nil
}

var intRe = regexp.MustCompile(`-?\d+`)

// parseScores extracts n integers from a comma/whitespace-delimited reply,
// clamping each into [1,5] and defaulting to 1 when the reply is short.
func parseScores(s string, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = minScore
	}
	for i, m := range intRe.FindAllString(s, n) {
		v, err := strconv.Atoi(m)
		if err != nil {
			continue
		}
		out[i] = clampScore(v)
	}
	return out
}

func clampScore(v int) int {
	if v < minScore {
		return minScore
	}
	if v > maxScore {
		return maxScore
	}
	return v
}
