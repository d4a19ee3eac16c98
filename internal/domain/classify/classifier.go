// Package classify labels transcript lines as question, answer or other.
// Cheap local heuristics go first; only the lines they cannot decide are
// batched through the remote model, chunked to the context budget.
package classify

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/amirhoseinsh/youtube-highlighter/internal/completion"
	"github.com/amirhoseinsh/youtube-highlighter/internal/domain/transcript"
	"github.com/amirhoseinsh/youtube-highlighter/internal/types"
)

// Question-ish openers for lines that lack a question mark. Only short
// lines qualify; long rambling lines starting with "what" are usually not
// questions.
var interrogativePrefixes = map[string]struct{}{
	"what": {}, "why": {}, "how": {}, "who": {}, "whom": {}, "whose": {},
	"when": {}, "where": {}, "which": {}, "is": {}, "are": {}, "was": {},
	"were": {}, "do": {}, "does": {}, "did": {}, "can": {}, "could": {},
	"should": {}, "would": {}, "will": {}, "shall": {}, "tell": {},
	"explain": {}, "describe": {},
}

const maxQuestionPrefixWords = 12

type Config struct {
	BatchSize     int
	Concurrency   int
	TokenBudget   int
	OverlapLines  int
	MinChunkLines int
	CharsPerToken float64
}

func (c Config) withDefaults() Config {
	if c.BatchSize <= 0 {
		c.BatchSize = 16
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 3
	}
	if c.TokenBudget <= 0 {
		c.TokenBudget = 3000
	}
	if c.OverlapLines < 0 {
		c.OverlapLines = 0
	}
	if c.MinChunkLines <= 0 {
		c.MinChunkLines = 4
	}
	return c
}

type Classifier struct {
	client *completion.Client
	cfg    Config
	log    logrus.FieldLogger

	mu       sync.Mutex
	labeled  []types.LabeledLine
	modelSet []bool
}

// New builds a classifier. client may be nil, in which case only the
// heuristic pass runs.
func New(client *completion.Client, cfg Config, log logrus.FieldLogger) *Classifier {
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		log = l
	}
	return &Classifier{client: client, cfg: cfg.withDefaults(), log: log}
}

// Classify labels every line. It never fails: if the whole model pass is
// unavailable the heuristic labels stand, so the pipeline still terminates
// with usable output.
func (c *Classifier) Classify(ctx context.Context, lines []types.Line) []types.LabeledLine {
	labeled := HeuristicLabels(lines)
	if c.client == nil || len(lines) == 0 {
		FixQuestionFollowers(labeled)
		return labeled
	}

	c.mu.Lock()
	c.labeled = labeled
	c.modelSet = make([]bool, len(labeled))
	c.mu.Unlock()

	chunks := transcript.BuildChunks(lines, c.cfg.TokenBudget, c.cfg.OverlapLines, c.cfg.CharsPerToken)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.Concurrency)
	for _, chunk := range chunks {
		chunk := chunk
		g.Go(func() error {
			return transcript.ProcessRanges([]transcript.Range{chunk}, c.cfg.MinChunkLines, func(r transcript.Range) error {
				return c.classifyRange(gctx, r)
			})
		})
	}
	if err := g.Wait(); err != nil {
		// Degrade, don't abort: undecided lines keep their heuristic label.
		c.log.WithError(err).Warn("classifier model pass incomplete, keeping heuristic labels")
	}

	FixQuestionFollowers(labeled)
	return labeled
}

// classifyRange sends the still-undecided lines of one chunk in fixed-size
// batches. A context overflow propagates so the caller can halve the range.
func (c *Classifier) classifyRange(ctx context.Context, r transcript.Range) error {
	for {
		batch := c.nextUndecided(r)
		if len(batch) == 0 {
			return nil
		}
		if err := c.classifyBatch(ctx, batch); err != nil {
			return err
		}
	}
}

// nextUndecided picks up to BatchSize line indices in r that neither the
// heuristics nor an earlier (possibly overlapping) model batch decided.
func (c *Classifier) nextUndecided(r transcript.Range) []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []int
	for i := r.Start; i < r.End && len(out) < c.cfg.BatchSize; i++ {
		if c.labeled[i].Label == types.LabelOther && !c.modelSet[i] &&
			strings.TrimSpace(c.labeled[i].Text) != "" {
			out = append(out, i)
		}
	}
	return out
}

func (c *Classifier) classifyBatch(ctx context.Context, idxs []int) error {
	var b strings.Builder
	b.WriteString(labelPrompt)
	c.mu.Lock()
	for n, i := range idxs {
		fmt.Fprintf(&b, "%d. %s\n", n+1, c.labeled[i].Text)
	}
	c.mu.Unlock()
	prompt := b.String()

	est := transcript.EstimateTokens(prompt, c.cfg.CharsPerToken)
	maxTokens := 8*len(idxs) + 32
	out, err := c.client.Complete(ctx, prompt, est, maxTokens)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		// Mark the batch handled on non-overflow failures so the range loop
		// does not spin on it; the heuristic label stands for those lines.
		if !completion.IsContextOverflow(err) {
			for _, i := range idxs {
				c.modelSet[i] = true
			}
		}
		return err
	}
	for n, label := range parseLabels(out) {
		if n < 1 || n > len(idxs) {
			continue
		}
		i := idxs[n-1]
		c.labeled[i].Label = label
		c.modelSet[i] = true
	}
	// Lines the reply skipped stay heuristic but are not resent.
	for _, i := range idxs {
		c.modelSet[i] = true
	}
	return nil
}

var labelLineRe = regexp.MustCompile(`(\d+)\s*[:.)\-]\s*([QAOqao])\b`)

// parseLabels reads "<number>: <letter>" lines leniently, tolerating the
// separators and stray prose models tend to emit.
func parseLabels(s string) map[int]types.Label {
	out := make(map[int]types.Label)
	for _, m := range labelLineRe.FindAllStringSubmatch(s, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		out[n] = types.ParseLabel(m[2])
	}
	return out
}

// HeuristicLabels runs the local pass: question-mark or interrogative-prefix
// lines become Q, the first following non-empty non-question line becomes A,
// everything else defaults to O.
func HeuristicLabels(lines []types.Line) []types.LabeledLine {
	out := make([]types.LabeledLine, len(lines))
	for i, l := range lines {
		out[i] = types.LabeledLine{Line: l, Label: types.LabelOther}
		if isQuestionLike(l.Text) {
			out[i].Label = types.LabelQuestion
		}
	}
	for i := range out {
		if out[i].Label != types.LabelQuestion {
			continue
		}
		for j := i + 1; j < len(out); j++ {
			if strings.TrimSpace(out[j].Text) == "" || out[j].Label == types.LabelQuestion {
				continue
			}
			if out[j].Label == types.LabelOther {
				out[j].Label = types.LabelAnswer
			}
			break
		}
	}
	return out
}

func isQuestionLike(text string) bool {
	t := strings.TrimSpace(text)
	if t == "" {
		return false
	}
	if strings.HasSuffix(t, "?") {
		return true
	}
	words := strings.Fields(strings.ToLower(t))
	if len(words) == 0 || len(words) > maxQuestionPrefixWords {
		return false
	}
	first := strings.Trim(words[0], ".,!;:\"'")
	_, ok := interrogativePrefixes[first]
	return ok
}

// FixQuestionFollowers enforces the post-fix invariant: a question line is
// never immediately followed by an O line. A question with no classified
// answer is unusable downstream.
func FixQuestionFollowers(labeled []types.LabeledLine) {
	for i := 0; i+1 < len(labeled); i++ {
		if labeled[i].Label == types.LabelQuestion && labeled[i+1].Label == types.LabelOther {
			labeled[i+1].Label = types.LabelAnswer
		}
	}
}
