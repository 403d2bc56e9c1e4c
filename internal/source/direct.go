package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"restream/internal/logging"
	"restream/internal/relay"
)

// Direct reads a progressive media URL over HTTP. The quality selector does
// not apply and is ignored.
type Direct struct {
	client *http.Client
	opts   options
}

// NewDirect constructs an HTTP source. A nil client gets a transport whose
// dial and response-header timeouts follow WithConnectTimeout; the body
// itself is never subject to a timeout.
func NewDirect(client *http.Client, opts ...Option) *Direct {
	o := buildOptions(opts)
	o.logger = logging.NewComponentLogger(o.logger, "source")
	if client == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.DialContext = (&net.Dialer{Timeout: o.timeout}).DialContext
		transport.ResponseHeaderTimeout = o.timeout
		client = &http.Client{Transport: transport}
	}
	return &Direct{client: client, opts: o}
}

// Open issues the GET request and returns a stream over the response body.
func (d *Direct) Open(ctx context.Context, desc relay.SourceDescriptor) (relay.Stream, error) {
	target := strings.TrimSpace(desc.URL)
	if target == "" {
		return nil, relay.Wrap(relay.ErrSourceUnavailable, "open", "source url required", nil)
	}

	reqCtx, cancel := context.WithCancel(ctx)
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, target, nil)
	if err != nil {
		cancel()
		return nil, relay.Wrap(relay.ErrSourceUnavailable, "build request", relay.RedactSource(target), withoutURL(err))
	}
	resp, err := d.client.Do(req)
	if err != nil {
		cancel()
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, relay.Wrap(relay.ErrSourceUnavailable, "http get", relay.RedactSource(target), withoutURL(err))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		cancel()
		return nil, relay.Wrap(relay.ErrSourceUnavailable, "http get", fmt.Sprintf("unexpected status %s", resp.Status), nil)
	}
	d.opts.logger.Debug("http source connected",
		logging.String("content_type", resp.Header.Get("Content-Type")),
		logging.Int64("content_length", resp.ContentLength),
	)

	return &directStream{
		body:   resp.Body,
		cancel: cancel,
		reader: newChunkReader(resp.Body, d.opts.chunkSize),
		logger: d.opts.logger,
	}, nil
}

// withoutURL drops the url.Error wrapper, which repeats the full request URL
// with any signing tokens.
func withoutURL(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err
	}
	return err
}

type directStream struct {
	body      io.ReadCloser
	cancel    context.CancelFunc
	reader    *chunkReader
	logger    *slog.Logger
	err       error
	closeOnce sync.Once
	closeErr  error
}

func (s *directStream) Next(ctx context.Context) (relay.Chunk, error) {
	if s.err != nil {
		return nil, s.err
	}
	stop := context.AfterFunc(ctx, s.cancel)
	chunk, err := s.reader.next()
	stop()
	if err == nil {
		return chunk, nil
	}
	switch {
	case ctx.Err() != nil:
		s.err = ctx.Err()
	case errors.Is(err, io.EOF):
		s.err = io.EOF
	default:
		s.err = relay.Wrap(relay.ErrSourceInterrupted, "http body", "", err)
	}
	return nil, s.err
}

func (s *directStream) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()
		s.closeErr = s.body.Close()
	})
	return s.closeErr
}
