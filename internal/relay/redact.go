package relay

import (
	"net/url"
	"strings"
)

const redactedMask = "****"

// RedactDestination hides credentials in an ingest URL. RTMP endpoints carry
// the stream key as the final path segment, so that segment is masked along
// with any userinfo and query string.
func RedactDestination(destination string) string {
	destination = strings.TrimSpace(destination)
	if destination == "" {
		return ""
	}
	u, err := url.Parse(destination)
	if err != nil || u.Host == "" {
		return redactedMask
	}
	path := strings.TrimSuffix(u.Path, "/")
	if idx := strings.LastIndex(path, "/"); idx >= 0 && idx < len(path)-1 {
		path = path[:idx+1] + redactedMask
	}
	redacted := u.Scheme + "://" + u.Host + path
	if u.RawQuery != "" {
		redacted += "?" + redactedMask
	}
	return redacted
}

// RedactSource hides credentials in a source URL. Signed media URLs carry
// their tokens in the query string, so the query and any userinfo are
// masked while the path stays readable.
func RedactSource(source string) string {
	source = strings.TrimSpace(source)
	if source == "" {
		return ""
	}
	u, err := url.Parse(source)
	if err != nil || u.Host == "" {
		return redactedMask
	}
	redacted := u.Scheme + "://" + u.Host + u.EscapedPath()
	if u.RawQuery != "" {
		redacted += "?" + redactedMask
	}
	return redacted
}
