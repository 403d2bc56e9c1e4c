package config

import (
	"errors"
	"fmt"
)

var ffmpegLogLevels = map[string]struct{}{
	"quiet": {}, "panic": {}, "fatal": {}, "error": {}, "warning": {},
	"info": {}, "verbose": {}, "debug": {}, "trace": {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSource(); err != nil {
		return err
	}
	if err := c.validateSink(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateSource() error {
	switch c.Source.Extractor {
	case ExtractorYTDLP, ExtractorDirect:
	default:
		return fmt.Errorf("source.extractor must be %q or %q, got %q", ExtractorYTDLP, ExtractorDirect, c.Source.Extractor)
	}
	if c.Source.ChunkSize < 0 {
		return errors.New("source.chunk_size must be positive")
	}
	if c.Source.HTTPConnectTimeout < 0 {
		return errors.New("source.http_connect_timeout must be positive")
	}
	return nil
}

func (c *Config) validateSink() error {
	if _, ok := ffmpegLogLevels[c.Sink.LogLevel]; !ok {
		return fmt.Errorf("sink.loglevel: unsupported ffmpeg log level %q", c.Sink.LogLevel)
	}
	if c.Sink.ExitTimeout < 0 {
		return errors.New("sink.exit_timeout must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
