// Package ytdlp shells out to the yt-dlp binary for subtitle and video
// downloads.
package ytdlp

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"sort"
)

type Adapter struct {
	bin string
}

func New(binPath string) *Adapter {
	if binPath == "" {
		binPath = "yt-dlp"
	}
	return &Adapter{bin: binPath}
}

// FetchSubtitles downloads the English subtitle track (auto-generated when
// no manual track exists) as WebVTT into dir and returns the file path.
func (a *Adapter) FetchSubtitles(ctx context.Context, url, dir string) (string, error) {
	args := []string{
		"--skip-download",
		"--write-subs",
		"--write-auto-subs",
		"--sub-langs", "en.*",
		"--sub-format", "vtt",
		"-o", filepath.Join(dir, "subtitles.%(ext)s"),
		url,
	}
	cmd := exec.CommandContext(ctx, a.bin, args...)
	if b, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("yt-dlp subtitles failed: %w\n%s", err, string(b))
	}

	// yt-dlp names the file subtitles.<lang>.vtt; any language variant of
	// en matches the requested pattern, so glob for the result.
	matches, err := filepath.Glob(filepath.Join(dir, "subtitles.*.vtt"))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("yt-dlp produced no English subtitle file for %s", url)
	}
	sort.Strings(matches)
	return matches[0], nil
}

// FetchVideo downloads the video as MP4 into dir and returns the file path.
func (a *Adapter) FetchVideo(ctx context.Context, url, dir string) (string, error) {
	out := filepath.Join(dir, "source.mp4")
	args := []string{
		"-f", "bv*[ext=mp4]+ba[ext=m4a]/b[ext=mp4]/b",
		"--merge-output-format", "mp4",
		"-o", out,
		url,
	}
	cmd := exec.CommandContext(ctx, a.bin, args...)
	if b, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("yt-dlp video failed: %w\n%s", err, string(b))
	}
	return out, nil
}
