package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeSource()
	c.normalizeSink()
	if err := c.normalizeHistory(); err != nil {
		return err
	}
	return c.normalizeLogging()
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(strings.TrimSpace(c.Paths.StateDir)); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeSource() {
	c.Source.Extractor = strings.ToLower(strings.TrimSpace(c.Source.Extractor))
	if c.Source.Extractor == "" {
		c.Source.Extractor = defaultExtractor
	}
	if value, ok := os.LookupEnv("RESTREAM_YTDLP"); ok && strings.TrimSpace(value) != "" {
		c.Source.YTDLPBinary = value
	}
	c.Source.YTDLPBinary = strings.TrimSpace(c.Source.YTDLPBinary)
	if c.Source.YTDLPBinary == "" {
		c.Source.YTDLPBinary = defaultYTDLPBinary
	}
	args := make([]string, 0, len(c.Source.YTDLPArgs))
	for _, arg := range c.Source.YTDLPArgs {
		if trimmed := strings.TrimSpace(arg); trimmed != "" {
			args = append(args, trimmed)
		}
	}
	c.Source.YTDLPArgs = args
	c.Source.Quality = strings.TrimSpace(c.Source.Quality)
	if c.Source.Quality == "" {
		c.Source.Quality = defaultQuality
	}
	if c.Source.ChunkSize == 0 {
		c.Source.ChunkSize = defaultChunkSize
	}
	if c.Source.HTTPConnectTimeout == 0 {
		c.Source.HTTPConnectTimeout = defaultHTTPConnectTimeout
	}
}

func (c *Config) normalizeSink() {
	if value, ok := os.LookupEnv("RESTREAM_FFMPEG"); ok && strings.TrimSpace(value) != "" {
		c.Sink.FFmpegBinary = value
	}
	c.Sink.FFmpegBinary = strings.TrimSpace(c.Sink.FFmpegBinary)
	if c.Sink.FFmpegBinary == "" {
		c.Sink.FFmpegBinary = defaultFFmpegBinary
	}
	c.Sink.LogLevel = strings.ToLower(strings.TrimSpace(c.Sink.LogLevel))
	if c.Sink.LogLevel == "" {
		c.Sink.LogLevel = defaultFFmpegLogLevel
	}
	if c.Sink.ExitTimeout == 0 {
		c.Sink.ExitTimeout = defaultExitTimeout
	}
}

func (c *Config) normalizeHistory() error {
	var err error
	if strings.TrimSpace(c.History.Path) == "" {
		c.History.Path = defaultHistoryPath
	}
	if c.History.Path, err = expandPath(strings.TrimSpace(c.History.Path)); err != nil {
		return fmt.Errorf("history.path: %w", err)
	}
	if c.History.Limit <= 0 {
		c.History.Limit = defaultHistoryLimit
	}
	return nil
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if file := strings.TrimSpace(c.Logging.File); file != "" {
		expanded, err := expandPath(file)
		if err != nil {
			return fmt.Errorf("logging.file: %w", err)
		}
		c.Logging.File = expanded
	}
	return nil
}
