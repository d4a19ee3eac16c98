package pipeline

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		Input:             "https://www.youtube.com/watch?v=abc",
		ClipsN:            5,
		MinClip:           45 * time.Second,
		Margin:            2 * time.Second,
		Model:             "gpt-4o-mini",
		TokensPerMinute:   60000,
		RequestsPerMinute: 50,
		TokenBudget:       3000,
		BatchSize:         16,
		Concurrency:       3,
		MinChunkLines:     4,
		OverlapLines:      2,
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "empty input", mutate: func(c *Config) { c.Input = "" }, wantErr: true},
		{name: "zero clips", mutate: func(c *Config) { c.ClipsN = 0 }, wantErr: true},
		{name: "negative margin", mutate: func(c *Config) { c.Margin = -time.Second }, wantErr: true},
		{name: "zero rate limits", mutate: func(c *Config) { c.TokensPerMinute = 0 }, wantErr: true},
		{name: "min clip over window cap", mutate: func(c *Config) { c.MinClip = 4 * time.Minute }, wantErr: true},
		{name: "min chunk below two", mutate: func(c *Config) { c.MinChunkLines = 1 }, wantErr: true},
		{name: "bad base URL host", mutate: func(c *Config) { c.BaseURL = "https://evil.example" }, wantErr: true},
		{name: "missing local vtt", mutate: func(c *Config) { c.Input = "nope/missing.vtt" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Fatalf("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestBuildRunOutDir(t *testing.T) {
	now := time.Date(2026, 2, 12, 10, 30, 45, 1234, time.UTC)
	got := buildRunOutDir("out", "https://www.youtube.com/watch?v=My_Talk", now)
	base := filepath.Base(got)
	if filepath.Dir(got) != "out" {
		t.Fatalf("unexpected parent dir: %s", got)
	}
	if !strings.HasPrefix(base, "watch-v-my-talk-20260212-103045Z-") {
		t.Fatalf("unexpected run dir format: %s", base)
	}
	if len(base) != len("watch-v-my-talk-20260212-103045Z-")+6 {
		t.Fatalf("unexpected run dir suffix length: %s", base)
	}
}

func TestNormalizePathSegment(t *testing.T) {
	tests := map[string]string{
		"  My Cool.Video  ": "my-cool-video",
		"___":               "",
		"abc123":            "abc123",
		"Name (v2)!":        "name-v2",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			if got := normalizePathSegment(in); got != want {
				t.Fatalf("normalizePathSegment(%q) = %q, want %q", in, got, want)
			}
		})
	}
}

func TestIsLocalVTT(t *testing.T) {
	if !isLocalVTT("talks/episode.VTT") {
		t.Fatalf("expected .VTT to be local input")
	}
	if isLocalVTT("https://www.youtube.com/watch?v=abc") {
		t.Fatalf("URL must not be treated as a local file")
	}
}
