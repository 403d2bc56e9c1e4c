package preflight

import (
	"fmt"
	"net/url"
	"os"
	"slices"
	"strings"

	"golang.org/x/sys/unix"

	"restream/internal/relay"
)

// ingestSchemes lists the push protocols ffmpeg can carry an FLV mux over.
var ingestSchemes = []string{"rtmp", "rtmps", "rtmpt", "rtmpe", "srt"}

// CheckDestination verifies the ingest URL is one ffmpeg can push FLV to.
func CheckDestination(destination string) Result {
	const name = "Destination"

	destination = strings.TrimSpace(destination)
	if destination == "" {
		return Result{Name: name, Detail: "missing destination url"}
	}
	u, err := url.Parse(destination)
	if err != nil {
		return Result{Name: name, Detail: "invalid url"}
	}
	if !slices.Contains(ingestSchemes, strings.ToLower(u.Scheme)) {
		return Result{Name: name, Detail: fmt.Sprintf("unsupported scheme %q (expected one of %s)", u.Scheme, strings.Join(ingestSchemes, ", "))}
	}
	if u.Host == "" {
		return Result{Name: name, Detail: "missing ingest host"}
	}
	return Result{Name: name, Passed: true, Detail: relay.RedactDestination(destination)}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}
