package sink

import (
	"strings"

	"restream/internal/relay"
)

// DefaultLogLevel keeps ffmpeg quiet unless something goes wrong.
const DefaultLogLevel = "error"

// Args returns the ffmpeg argument list for desc. Input is read from stdin
// at the rate it arrives; there is no -re since the source is already live.
func Args(desc relay.SinkDescriptor, logLevel string) []string {
	logLevel = strings.TrimSpace(logLevel)
	if logLevel == "" {
		logLevel = DefaultLogLevel
	}
	format := desc.Format
	if format == "" {
		format = relay.FormatFLV
	}
	codec := desc.Codec
	if codec == "" {
		codec = relay.CodecCopy
	}
	return []string{
		"-hide_banner",
		"-loglevel", logLevel,
		"-i", "-",
		"-c:v", codec,
		"-c:a", codec,
		"-f", format,
		desc.Destination,
	}
}
