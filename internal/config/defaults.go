package config

const (
	defaultConfigPath         = "~/.config/restream/config.toml"
	defaultStateDir           = "~/.local/share/restream"
	defaultHistoryPath        = "~/.local/share/restream/history.db"
	defaultHistoryLimit       = 20
	defaultExtractor          = ExtractorYTDLP
	defaultYTDLPBinary        = "yt-dlp"
	defaultQuality            = "best"
	defaultChunkSize          = 131072
	defaultHTTPConnectTimeout = 10
	defaultFFmpegBinary       = "ffmpeg"
	defaultFFmpegLogLevel     = "error"
	defaultExitTimeout        = 5
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

const (
	// ExtractorYTDLP resolves page URLs through yt-dlp.
	ExtractorYTDLP = "yt-dlp"
	// ExtractorDirect fetches a progressive media URL over HTTP.
	ExtractorDirect = "direct"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Source: Source{
			Extractor:          defaultExtractor,
			YTDLPBinary:        defaultYTDLPBinary,
			Quality:            defaultQuality,
			ChunkSize:          defaultChunkSize,
			HTTPConnectTimeout: defaultHTTPConnectTimeout,
		},
		Sink: Sink{
			FFmpegBinary: defaultFFmpegBinary,
			LogLevel:     defaultFFmpegLogLevel,
			ExitTimeout:  defaultExitTimeout,
		},
		Paths: Paths{
			StateDir: defaultStateDir,
		},
		History: History{
			Path:  defaultHistoryPath,
			Limit: defaultHistoryLimit,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
