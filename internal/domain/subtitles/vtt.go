// Package subtitles converts WebVTT caption files into ordered transcript
// lines. It is built for yt-dlp auto-generated captions, which carry inline
// timing tags and repeat rolling text across overlapping cues.
package subtitles

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/amirhoseinsh/youtube-highlighter/internal/types"
)

var (
	timingRe   = regexp.MustCompile(`^\s*((?:\d{1,2}:)?\d{2}:\d{2}[.,]\d{3})\s*-->\s*((?:\d{1,2}:)?\d{2}:\d{2}[.,]\d{3})`)
	tagRe      = regexp.MustCompile(`<[^>]*>`)
	metadataRe = regexp.MustCompile(`^(WEBVTT|Kind:|Language:|NOTE|STYLE|REGION)`)
	cueIDRe    = regexp.MustCompile(`^\d+$`)
)

// ParseVTTFile reads and parses one .vtt file.
func ParseVTTFile(path string) ([]types.Line, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	lines, err := ParseVTT(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return lines, nil
}

// ParseVTT parses WebVTT content into ordered, non-overlapping lines.
// Rolling-caption repeats collapse into one line whose end time extends to
// the last repeat.
func ParseVTT(r io.Reader) ([]types.Line, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	var out []types.Line
	var cur *types.Line
	inCue := false

	flush := func() {
		if cur == nil {
			return
		}
		cur.Text = strings.TrimSpace(cur.Text)
		if cur.Text != "" {
			if n := len(out); n > 0 && out[n-1].Text == cur.Text {
				// Auto subs re-emit the same text in the next cue window.
				if cur.EndMs > out[n-1].EndMs {
					out[n-1].EndMs = cur.EndMs
				}
			} else {
				out = append(out, *cur)
			}
		}
		cur = nil
	}

	for sc.Scan() {
		raw := strings.TrimRight(sc.Text(), "\r")

		if m := timingRe.FindStringSubmatch(raw); m != nil {
			flush()
			start, err := parseVTTTime(m[1])
			if err != nil {
				return nil, err
			}
			end, err := parseVTTTime(m[2])
			if err != nil {
				return nil, err
			}
			if end < start {
				end = start
			}
			cur = &types.Line{StartMs: start, EndMs: end}
			inCue = true
			continue
		}

		line := strings.TrimSpace(tagRe.ReplaceAllString(raw, ""))
		switch {
		case line == "":
			flush()
			inCue = false
		case !inCue && (metadataRe.MatchString(line) || cueIDRe.MatchString(line)):
			// header, notes and bare cue identifiers
		case inCue && cur != nil:
			if cur.Text != "" {
				cur.Text += " "
			}
			cur.Text += line
		}
	}
	flush()
	if err := sc.Err(); err != nil {
		return nil, err
	}

	normalize(out)
	return out, nil
}

// normalize enforces the transcript invariants: start <= end per line and
// a monotonically non-decreasing start sequence.
func normalize(lines []types.Line) {
	var prevStart int64
	for i := range lines {
		if lines[i].StartMs < prevStart {
			lines[i].StartMs = prevStart
		}
		if lines[i].EndMs < lines[i].StartMs {
			lines[i].EndMs = lines[i].StartMs
		}
		prevStart = lines[i].StartMs
	}
}

func parseVTTTime(s string) (int64, error) {
	s = strings.ReplaceAll(s, ",", ".")
	parts := strings.Split(s, ":")
	var h, m int
	var secPart string
	switch len(parts) {
	case 3:
		h64, err := strconv.Atoi(parts[0])
		if err != nil {
			return 0, fmt.Errorf("bad hours in %q", s)
		}
		h = h64
		m64, err := strconv.Atoi(parts[1])
		if err != nil {
			return 0, fmt.Errorf("bad minutes in %q", s)
		}
		m = m64
		secPart = parts[2]
	case 2:
		m64, err := strconv.Atoi(parts[0])
		if err != nil {
			return 0, fmt.Errorf("bad minutes in %q", s)
		}
		m = m64
		secPart = parts[1]
	default:
		return 0, fmt.Errorf("bad timestamp %q", s)
	}
	sec, err := strconv.ParseFloat(secPart, 64)
	if err != nil {
		return 0, fmt.Errorf("bad seconds in %q", s)
	}
	return int64(h)*3600_000 + int64(m)*60_000 + int64(sec*1000), nil
}
