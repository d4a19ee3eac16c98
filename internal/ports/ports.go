package ports

import (
	"context"
	"time"
)

// CompletionRequest is the single operation the remote completion service
// exposes to the pipeline.
type CompletionRequest struct {
	Model       string
	Prompt      string
	Temperature float32
	MaxTokens   int
}

// Completer wraps one remote text-completion call. Implementations must
// surface failures through the completion package's error taxonomy so the
// retry layer can tell transient from permanent from context-overflow.
type Completer interface {
	CreateCompletion(ctx context.Context, req CompletionRequest) (string, error)
}

// MediaSource acquires subtitles and video for a remote URL.
type MediaSource interface {
	FetchSubtitles(ctx context.Context, url, dir string) (string, error)
	FetchVideo(ctx context.Context, url, dir string) (string, error)
}

// VideoTool cuts clips and renders thumbnails from a local media file.
type VideoTool interface {
	ExtractClip(ctx context.Context, in string, startMs, endMs int64, out string) error
	Thumbnail(ctx context.Context, in string, atMs int64, out string) error
	ProbeDuration(ctx context.Context, in string) (time.Duration, error)
}
