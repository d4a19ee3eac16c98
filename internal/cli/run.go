package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/amirhoseinsh/youtube-highlighter/internal/completion"
	"github.com/amirhoseinsh/youtube-highlighter/internal/pipeline"
	"github.com/amirhoseinsh/youtube-highlighter/internal/progress"
)

func run(cmd *cobra.Command, input string) error {
	outDir, _ := cmd.Flags().GetString("out")
	clipsN, _ := cmd.Flags().GetInt("clips")
	noVideo, _ := cmd.Flags().GetBool("no-video")
	verbose, _ := cmd.Flags().GetBool("verbose")
	minSec, _ := cmd.Flags().GetInt("min")
	marginSec, _ := cmd.Flags().GetInt("margin")
	tokenBudget, _ := cmd.Flags().GetInt("token-budget")
	cacheDir, _ := cmd.Flags().GetString("cache")

	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Hour)
	defer cancel()

	events := make(chan progress.Event, 64)
	go func() {
		for e := range events {
			log.WithFields(logrus.Fields{
				"stage": e.Stage, "done": e.Done, "total": e.Total,
			}).Debug(e.Message)
		}
	}()

	cfg := pipeline.Config{
		Input:    input,
		OutDir:   outDir,
		CacheDir: cacheDir,
		ClipsN:   clipsN,
		MinClip:  time.Duration(minSec) * time.Second,
		Margin:   time.Duration(marginSec) * time.Second,

		SkipVideo: noVideo,

		Model:        getenvDefault("OPENAI_MODEL", "gpt-4o-mini"),
		APIKey:       os.Getenv("OPENAI_API_KEY"),
		BaseURL:      getenvDefault("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		AllowedHosts: splitHosts(os.Getenv("OPENAI_ALLOWED_HOSTS")),

		TokensPerMinute:   60000,
		RequestsPerMinute: 50,

		TokenBudget:   tokenBudget,
		BatchSize:     16,
		Concurrency:   3,
		MinChunkLines: 4,
		OverlapLines:  2,

		Retry: completion.DefaultRetryPolicy(),

		YtDlpPath:   getenvDefault("YTDLP_PATH", "yt-dlp"),
		FFmpegPath:  getenvDefault("FFMPEG_PATH", "ffmpeg"),
		FFprobePath: getenvDefault("FFPROBE_PATH", "ffprobe"),

		Log:    log,
		Events: events,
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return pipeline.Run(ctx, cfg)
}

func getenvDefault(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func splitHosts(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
