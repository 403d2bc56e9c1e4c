// Package source provides the chunk producers the relay pulls from.
//
// YTDLP resolves a page URL through yt-dlp and reads the media bytes it
// writes to stdout. Direct fetches a progressive media URL over HTTP. Both
// yield chunks of at most the configured size in the order they arrive and
// classify terminal failures with relay.ErrSourceUnavailable (nothing was
// ever produced) or relay.ErrSourceInterrupted (the transport dropped after
// data flowed).
package source
