// Package pipeline wires the adapters and domain stages into one run:
// fetch subtitles, classify lines, build windows, score, select, cut.
package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/amirhoseinsh/youtube-highlighter/internal/cache"
	"github.com/amirhoseinsh/youtube-highlighter/internal/completion"
	"github.com/amirhoseinsh/youtube-highlighter/internal/domain/classify"
	"github.com/amirhoseinsh/youtube-highlighter/internal/domain/highlights"
	"github.com/amirhoseinsh/youtube-highlighter/internal/domain/subtitles"
	"github.com/amirhoseinsh/youtube-highlighter/internal/domain/transcript"
	"github.com/amirhoseinsh/youtube-highlighter/internal/ports"
	"github.com/amirhoseinsh/youtube-highlighter/internal/ports/adapters/ffmpeg"
	"github.com/amirhoseinsh/youtube-highlighter/internal/ports/adapters/openaichat"
	"github.com/amirhoseinsh/youtube-highlighter/internal/ports/adapters/ytdlp"
	"github.com/amirhoseinsh/youtube-highlighter/internal/progress"
	"github.com/amirhoseinsh/youtube-highlighter/internal/ratelimit"
	"github.com/amirhoseinsh/youtube-highlighter/internal/usecase"
)

// tokenSampleLines is how many transcript lines feed the chars-per-token
// estimate.
const tokenSampleLines = 200

type Config struct {
	// Input is a video URL, or a path to a local .vtt file for
	// analysis-only runs.
	Input  string `validate:"required"`
	OutDir string
	// CacheDir is the base directory for local artifacts (downloads and
	// the score cache). If empty, defaults to ".cache".
	CacheDir string

	ClipsN  int           `validate:"gt=0"`
	MinClip time.Duration `validate:"gt=0"`
	Margin  time.Duration `validate:"gte=0"`

	// SkipVideo keeps the run analysis-only: no video download, no clips.
	SkipVideo bool

	Model             string `validate:"required"`
	APIKey            string
	BaseURL           string
	AllowedHosts      []string
	TokensPerMinute   int `validate:"gt=0"`
	RequestsPerMinute int `validate:"gt=0"`

	TokenBudget   int `validate:"gt=0"`
	BatchSize     int `validate:"gt=0"`
	Concurrency   int `validate:"gt=0"`
	MinChunkLines int `validate:"gte=2"`
	OverlapLines  int `validate:"gte=0"`

	Retry completion.RetryPolicy

	YtDlpPath   string
	FFmpegPath  string
	FFprobePath string

	Log    logrus.FieldLogger
	Events chan<- progress.Event
}

var validate = validator.New()

func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.MinClip.Milliseconds() > highlights.MaxWindowMs {
		return fmt.Errorf("min clip %s exceeds the %s window cap",
			c.MinClip, time.Duration(highlights.MaxWindowMs)*time.Millisecond)
	}
	if isLocalVTT(c.Input) {
		if _, err := os.Stat(c.Input); err != nil {
			return fmt.Errorf("stat input: %w", err)
		}
	}
	return openaichat.ValidateBaseURL(c.BaseURL, c.AllowedHosts)
}

func Run(ctx context.Context, cfg Config) error {
	log := cfg.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	runID := uuid.NewString()[:8]
	log = log.WithField("run_id", runID)

	baseCache := cfg.CacheDir
	if baseCache == "" {
		baseCache = ".cache"
	}
	workDir := filepath.Join(baseCache, "runs", hash(cfg.Input))
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return err
	}

	media := ytdlp.New(cfg.YtDlpPath)

	progress.Emit(cfg.Events, progress.Event{Stage: progress.StageFetch, Message: cfg.Input})
	vttPath := cfg.Input
	videoPath := ""
	if !isLocalVTT(cfg.Input) {
		var err error
		log.Info("downloading subtitles")
		vttPath, err = media.FetchSubtitles(ctx, cfg.Input, workDir)
		if err != nil {
			return fmt.Errorf("fetch subtitles: %w", err)
		}
		if !cfg.SkipVideo {
			log.Info("downloading video")
			videoPath, err = media.FetchVideo(ctx, cfg.Input, workDir)
			if err != nil {
				return fmt.Errorf("fetch video: %w", err)
			}
		}
	}

	lines, err := subtitles.ParseVTTFile(vttPath)
	if err != nil {
		return fmt.Errorf("parse subtitles: %w", err)
	}
	log.WithField("lines", len(lines)).Info("transcript parsed")

	cpt := transcript.SampleCharsPerToken(lines, tokenSampleLines)

	var client *completion.Client
	if cfg.APIKey != "" {
		llm := openaichat.New(cfg.APIKey, cfg.BaseURL)
		limiter := ratelimit.New(cfg.TokensPerMinute, cfg.RequestsPerMinute)
		client = completion.NewClient(llm, limiter, cfg.Model, cfg.Retry, log)
	} else {
		log.Warn("no API key configured, classification falls back to heuristics")
	}

	store, err := cache.Open(filepath.Join(baseCache, "scores.json"))
	if err != nil {
		return fmt.Errorf("open score cache: %w", err)
	}

	classifier := classify.New(client, classify.Config{
		BatchSize:     cfg.BatchSize,
		Concurrency:   cfg.Concurrency,
		TokenBudget:   cfg.TokenBudget,
		OverlapLines:  cfg.OverlapLines,
		MinChunkLines: cfg.MinChunkLines,
		CharsPerToken: cpt,
	}, log)
	scorer := highlights.NewScorer(client, store, highlights.ScoreConfig{
		TokenBudget:   cfg.TokenBudget,
		Concurrency:   cfg.Concurrency,
		CharsPerToken: cpt,
	}, log)

	outDir := cfg.OutDir
	if outDir == "" {
		outDir = "out"
	}
	runOutDir := buildRunOutDir(outDir, cfg.Input, time.Now().UTC())
	dirs := []string{runOutDir}
	if videoPath != "" {
		dirs = append(dirs, filepath.Join(runOutDir, "clips"), filepath.Join(runOutDir, "thumbs"))
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return err
		}
	}
	log.WithField("dir", runOutDir).Info("output run dir")

	uc := usecase.New(usecase.Deps{
		Labeler: classifier,
		Scorer:  scorer,
		Video:   ffmpeg.New(cfg.FFmpegPath, cfg.FFprobePath),
	})
	res, err := uc.Run(ctx, usecase.Input{
		Lines:     lines,
		VideoPath: videoPath,
		OutDir:    runOutDir,
		RunID:     runID,
		Source:    cfg.Input,
		ClipsN:    cfg.ClipsN,
		MinClip:   cfg.MinClip,
		Margin:    cfg.Margin,
		Window: highlights.WindowConfig{
			MinDurationMs: cfg.MinClip.Milliseconds(),
			MaxTokens:     cfg.TokenBudget,
			SafetyTokens:  200,
			CharsPerToken: cpt,
		},
		Events: cfg.Events,
	})
	if err != nil {
		return err
	}

	if err := store.Flush(); err != nil {
		log.WithError(err).Warn("score cache flush failed")
	}

	b, err := json.MarshalIndent(res.Manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	manifestPath := filepath.Join(runOutDir, "manifest.json")
	if err := os.WriteFile(manifestPath, b, 0o644); err != nil {
		return err
	}
	for _, c := range res.Manifest.Clips {
		log.WithFields(logrus.Fields{
			"id": c.ID, "start": c.StartTime, "end": c.EndTime, "score": c.Score,
		}).Info("highlight")
	}
	log.WithFields(logrus.Fields{
		"clips": len(res.Manifest.Clips), "manifest": manifestPath,
	}).Info("done")
	return nil
}

func isLocalVTT(input string) bool {
	return strings.EqualFold(filepath.Ext(input), ".vtt")
}

func buildRunOutDir(outRoot, input string, now time.Time) string {
	name := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	name = normalizePathSegment(name)
	if name == "" {
		name = "input"
	}
	ts := now.UTC().Format("20060102-150405Z")
	runSeed := fmt.Sprintf("%s|%d", input, now.UTC().UnixNano())
	suffix := hash(runSeed)[:6]
	return filepath.Join(outRoot, fmt.Sprintf("%s-%s-%s", name, ts, suffix))
}

func normalizePathSegment(s string) string {
	var b strings.Builder
	prevDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

func hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:12]
}

// ensure adapters implement ports
var _ ports.VideoTool = (*ffmpeg.Adapter)(nil)
var _ ports.MediaSource = (*ytdlp.Adapter)(nil)
var _ ports.Completer = (*openaichat.Adapter)(nil)
