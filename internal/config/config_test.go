package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"restream/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("RESTREAM_FFMPEG", "")
	t.Setenv("RESTREAM_YTDLP", "")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if want := filepath.Join(tempHome, ".config", "restream", "config.toml"); resolved != want {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, want)
	}

	wantState := filepath.Join(tempHome, ".local", "share", "restream")
	if cfg.Paths.StateDir != wantState {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, wantState)
	}
	if cfg.LockDir() != filepath.Join(wantState, "locks") {
		t.Fatalf("unexpected lock dir: %q", cfg.LockDir())
	}
	if cfg.Source.Extractor != config.ExtractorYTDLP {
		t.Fatalf("expected yt-dlp extractor by default, got %q", cfg.Source.Extractor)
	}
	if cfg.Source.ChunkSize != 131072 {
		t.Fatalf("unexpected chunk size: %d", cfg.Source.ChunkSize)
	}
	if cfg.Source.Quality != "best" {
		t.Fatalf("unexpected quality: %q", cfg.Source.Quality)
	}
	if cfg.Sink.FFmpegBinary != "ffmpeg" || cfg.Sink.LogLevel != "error" {
		t.Fatalf("unexpected sink defaults: %+v", cfg.Sink)
	}
	if cfg.ExitTimeout() != 5*time.Second {
		t.Fatalf("unexpected exit timeout: %s", cfg.ExitTimeout())
	}
	if cfg.History.Enabled {
		t.Fatal("expected history disabled by default")
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("RESTREAM_FFMPEG", "")
	t.Setenv("RESTREAM_YTDLP", "")

	configPath := filepath.Join(t.TempDir(), "restream.toml")
	payload := map[string]any{
		"source": map[string]any{
			"extractor":  "direct",
			"quality":    "720p",
			"chunk_size": 4096,
			"ytdlp_args": []string{" --cookies ", "", "/tmp/cookies.txt"},
		},
		"sink": map[string]any{
			"ffmpeg_binary": "/opt/ffmpeg/bin/ffmpeg",
			"exit_timeout":  12,
		},
		"paths": map[string]any{
			"state_dir": "~/state",
		},
		"history": map[string]any{
			"enabled": true,
			"path":    "~/state/runs.db",
		},
		"logging": map[string]any{
			"format": "JSON",
		},
	}
	data, err := toml.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to exist")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: %q", resolved)
	}
	if cfg.Source.Extractor != config.ExtractorDirect {
		t.Fatalf("unexpected extractor: %q", cfg.Source.Extractor)
	}
	if cfg.Source.ChunkSize != 4096 {
		t.Fatalf("unexpected chunk size: %d", cfg.Source.ChunkSize)
	}
	if got := strings.Join(cfg.Source.YTDLPArgs, "|"); got != "--cookies|/tmp/cookies.txt" {
		t.Fatalf("unexpected yt-dlp args: %q", got)
	}
	if cfg.Paths.StateDir != filepath.Join(tempHome, "state") {
		t.Fatalf("unexpected state dir: %q", cfg.Paths.StateDir)
	}
	if cfg.History.Path != filepath.Join(tempHome, "state", "runs.db") {
		t.Fatalf("unexpected history path: %q", cfg.History.Path)
	}
	if cfg.ExitTimeout() != 12*time.Second {
		t.Fatalf("unexpected exit timeout: %s", cfg.ExitTimeout())
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("expected logging format lowercased, got %q", cfg.Logging.Format)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "restream.toml")
	if err := os.WriteFile(configPath, []byte("[sink]\nvideo_codec = \"libx264\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(configPath); err == nil {
		t.Fatal("expected unknown key to be rejected")
	}
}

func TestEnvVarOverridesConfigFileForBinaries(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("RESTREAM_FFMPEG", "/env/ffmpeg")
	t.Setenv("RESTREAM_YTDLP", "/env/yt-dlp")

	configPath := filepath.Join(t.TempDir(), "restream.toml")
	content := "[source]\nytdlp_binary = \"/file/yt-dlp\"\n\n[sink]\nffmpeg_binary = \"/file/ffmpeg\"\n"
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Sink.FFmpegBinary != "/env/ffmpeg" {
		t.Fatalf("expected env ffmpeg binary, got %q", cfg.Sink.FFmpegBinary)
	}
	if cfg.Source.YTDLPBinary != "/env/yt-dlp" {
		t.Fatalf("expected env yt-dlp binary, got %q", cfg.Source.YTDLPBinary)
	}
}

func TestCreateSample(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("RESTREAM_FFMPEG", "")
	t.Setenv("RESTREAM_YTDLP", "")
	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(target); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}

	cfg, _, exists, err := config.Load(target)
	if err != nil {
		t.Fatalf("sample config should load: %v", err)
	}
	if !exists {
		t.Fatal("expected sample config to exist")
	}
	defaults := config.Default()
	if cfg.Source.ChunkSize != defaults.Source.ChunkSize || cfg.Sink.ExitTimeout != defaults.Sink.ExitTimeout {
		t.Fatalf("sample config should mirror defaults, got %+v", cfg)
	}
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.History.Enabled = true
	cfg.History.Path = filepath.Join(base, "history", "runs.db")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories returned error: %v", err)
	}
	for _, dir := range []string{cfg.LockDir(), filepath.Join(base, "history")} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Fatalf("expected directory %q: %v", dir, err)
		}
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"extractor", func(c *config.Config) { c.Source.Extractor = "streamlink" }},
		{"chunk size", func(c *config.Config) { c.Source.ChunkSize = -1 }},
		{"ffmpeg loglevel", func(c *config.Config) { c.Sink.LogLevel = "chatty" }},
		{"exit timeout", func(c *config.Config) { c.Sink.ExitTimeout = -5 }},
		{"log format", func(c *config.Config) { c.Logging.Format = "xml" }},
		{"log level", func(c *config.Config) { c.Logging.Level = "verbose" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}

	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}
