package usecase

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/amirhoseinsh/youtube-highlighter/internal/domain/highlights"
	"github.com/amirhoseinsh/youtube-highlighter/internal/ports"
	"github.com/amirhoseinsh/youtube-highlighter/internal/progress"
	"github.com/amirhoseinsh/youtube-highlighter/internal/types"
)

// Labeler assigns a Q/A/O label to every transcript line.
type Labeler interface {
	Classify(ctx context.Context, lines []types.Line) []types.LabeledLine
}

// SegmentScorer populates Score on every candidate segment.
type SegmentScorer interface {
	Score(ctx context.Context, segs []types.Segment) []types.Segment
}

type Deps struct {
	Labeler Labeler
	Scorer  SegmentScorer
	Video   ports.VideoTool
}

type Usecase struct{ d Deps }

func New(d Deps) Usecase { return Usecase{d: d} }

type Input struct {
	Lines []types.Line

	// VideoPath is the local media file to cut. Empty skips clip
	// extraction and produces highlights only.
	VideoPath string
	OutDir    string
	RunID     string
	Source    string

	ClipsN  int
	MinClip time.Duration
	Margin  time.Duration
	Window  highlights.WindowConfig

	Events chan<- progress.Event
}

type Result struct {
	Highlights []types.Highlight
	Manifest   types.Manifest
}

// Run drives transcript lines through classification, window building,
// scoring and selection, then cuts one clip per selected highlight.
func (u Usecase) Run(ctx context.Context, in Input) (Result, error) {
	if len(in.Lines) == 0 {
		return Result{}, fmt.Errorf("transcript is empty")
	}

	progress.Emit(in.Events, progress.Event{Stage: progress.StageClassify, Total: len(in.Lines)})
	labeled := u.d.Labeler.Classify(ctx, in.Lines)

	progress.Emit(in.Events, progress.Event{Stage: progress.StageWindows})
	win := in.Window
	if win.MinDurationMs == 0 {
		win.MinDurationMs = in.MinClip.Milliseconds()
	}
	segs := highlights.BuildWindows(labeled, win)
	if len(segs) == 0 {
		return Result{Manifest: types.Manifest{RunID: in.RunID, Source: in.Source}}, nil
	}

	progress.Emit(in.Events, progress.Event{Stage: progress.StageScore, Total: len(segs)})
	scored := u.d.Scorer.Score(ctx, segs)

	progress.Emit(in.Events, progress.Event{Stage: progress.StageSelect})
	picked := highlights.PickTop(scored, in.ClipsN, in.MinClip.Milliseconds(), in.Margin.Milliseconds())

	m := types.Manifest{RunID: in.RunID, Source: in.Source}
	for i, h := range picked {
		id := fmt.Sprintf("%03d", i+1)
		clip := types.ManifestClip{
			ID:        id,
			StartTime: h.StartTime(),
			EndTime:   h.EndTime(),
			Score:     h.Score,
		}
		if in.VideoPath != "" {
			progress.Emit(in.Events, progress.Event{Stage: progress.StageCut, Done: i, Total: len(picked)})
			clipPath := filepath.Join(in.OutDir, "clips", id+".mp4")
			thumbPath := filepath.Join(in.OutDir, "thumbs", id+".jpg")
			if err := u.d.Video.ExtractClip(ctx, in.VideoPath, h.StartMs, h.EndMs, clipPath); err != nil {
				return Result{}, fmt.Errorf("extract clip %s: %w", id, err)
			}
			if err := u.d.Video.Thumbnail(ctx, in.VideoPath, h.StartMs, thumbPath); err != nil {
				return Result{}, fmt.Errorf("thumbnail %s: %w", id, err)
			}
			clip.File = filepath.ToSlash(filepath.Join("clips", id+".mp4"))
			clip.Thumbnail = filepath.ToSlash(filepath.Join("thumbs", id+".jpg"))
		}
		m.Clips = append(m.Clips, clip)
	}

	return Result{Highlights: picked, Manifest: m}, nil
}
