package subtitles

import (
	"strings"
	"testing"
)

const sampleVTT = `WEBVTT
Kind: captions
Language: en

00:00:01.000 --> 00:00:03.500
So what is the plan here?

2
00:00:03.500 --> 00:00:06.000
<00:00:03.600><c>Well</c> we start with the basics.

00:00:06.000 --> 00:00:08.000
Well we start with the basics.

NOTE internal marker

01:02:03.000 --> 01:02:04.250
Final <i>thought</i>.
`

func TestParseVTT(t *testing.T) {
	lines, err := ParseVTT(strings.NewReader(sampleVTT))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines after dedup, got %d: %+v", len(lines), lines)
	}

	if lines[0].StartMs != 1000 || lines[0].EndMs != 3500 {
		t.Fatalf("bad first cue times: %+v", lines[0])
	}
	if lines[0].Text != "So what is the plan here?" {
		t.Fatalf("bad first cue text: %q", lines[0].Text)
	}

	// Rolling repeat extends the previous cue instead of duplicating it.
	if lines[1].Text != "Well we start with the basics." {
		t.Fatalf("tags not stripped: %q", lines[1].Text)
	}
	if lines[1].EndMs != 8000 {
		t.Fatalf("repeat should extend end to 8000, got %d", lines[1].EndMs)
	}

	if lines[2].StartMs != 3723000 || lines[2].EndMs != 3724250 {
		t.Fatalf("bad hour-form times: %+v", lines[2])
	}
	if lines[2].Text != "Final thought." {
		t.Fatalf("bad text: %q", lines[2].Text)
	}
}

func TestParseVTT_ExactRepeatExtendsEnd(t *testing.T) {
	vtt := "WEBVTT\n\n00:00.000 --> 00:02.000\nsame text\n\n00:02.000 --> 00:04.000\nsame text\n"
	lines, err := ParseVTT(strings.NewReader(vtt))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(lines) != 1 {
		t.Fatalf("expected 1 deduped line, got %d", len(lines))
	}
	if lines[0].StartMs != 0 || lines[0].EndMs != 4000 {
		t.Fatalf("expected extended cue 0..4000, got %+v", lines[0])
	}
}

func TestParseVTT_InvariantsHold(t *testing.T) {
	// Out-of-order starts and inverted cue get clamped.
	vtt := "WEBVTT\n\n00:10.000 --> 00:12.000\nlater\n\n00:05.000 --> 00:04.000\nearlier\n"
	lines, err := ParseVTT(strings.NewReader(vtt))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	var prev int64
	for _, l := range lines {
		if l.StartMs > l.EndMs {
			t.Fatalf("start > end: %+v", l)
		}
		if l.StartMs < prev {
			t.Fatalf("starts not monotonic: %+v", lines)
		}
		prev = l.StartMs
	}
}

func TestParseVTT_BadTimestamp(t *testing.T) {
	if _, err := parseVTTTime("nope"); err == nil {
		t.Fatal("expected error")
	}
}
