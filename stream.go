package tweetstat

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// maxStreamRecord bounds a single stream message.
const maxStreamRecord = 1 << 20

// Streamer drives filtered live subscriptions.
type Streamer struct {
	auth *Authenticator
	cfg  ClientConfig
}

// NewStreamer creates a streamer that authenticates with cfg.Credentials.
func NewStreamer(cfg ClientConfig) *Streamer {
	cfg.defaults()
	return &Streamer{auth: NewAuthenticator(cfg), cfg: cfg}
}

// StreamTweets authenticates, appends every matching payload to filename and blocks until
// ctx is cancelled, the listener stops, or the platform closes the stream.
// A rate-limit stop is a clean termination and returns nil.
func (s *Streamer) StreamTweets(ctx context.Context, filename string, tags []string) error {
	session, err := s.auth.Authenticate(ctx, s.cfg.Credentials)
	if err != nil {
		return err
	}

	listener, err := NewFileListener(filename, nil)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := listener.Close(); cerr != nil {
			slog.Warn("close stream log", slog.String("path", filename), slog.Any("error", cerr))
		}
	}()

	return s.Filter(ctx, session, tags, listener)
}

// Filter opens a subscription tracking tags and feeds it to l. It does not reconnect.
func (s *Streamer) Filter(ctx context.Context, session *Session, tags []string, l Listener) error {
	if err := session.allows(opStreamFilter); err != nil {
		return err
	}
	track := slices.Clone(tags)
	track = slices.DeleteFunc(track, func(t string) bool { return strings.TrimSpace(t) == "" })
	if len(track) == 0 {
		return fmt.Errorf("%s: at least one tag is required", opStreamFilter)
	}

	log := slog.With(slog.String("session", uuid.NewString()))

	form := url.Values{"track": {strings.Join(track, ",")}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.StreamURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("%s: %w", opStreamFilter, err)
	}
	for k, v := range streamHeaders() {
		req.Header.Set(k, v)
	}

	log.Info("opening stream", slog.Any("tags", track))
	resp, err := session.HTTPClient().Do(req)
	if err != nil {
		s.record(false, false)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%s: %w", opStreamFilter, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		limited := isRateLimitStatus(resp.StatusCode) || classifyError(body) == errRateLimit
		s.record(false, limited)
		if !l.OnError(resp.StatusCode) {
			log.Info("stream stopped by listener", slog.Int("code", resp.StatusCode))
			return nil
		}
		return &StatusError{Operation: opStreamFilter, Code: resp.StatusCode, Body: truncateBytes(body, 200)}
	}
	s.record(true, false)

	received, err := s.consume(resp.Body, l)
	log.Info("stream closed", slog.Int("received", received))
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, errListenerStopped) {
		return nil
	}
	return err
}

var errListenerStopped = errors.New("listener stopped")

// consume reads newline-delimited messages until EOF or the listener stops.
func (s *Streamer) consume(body io.Reader, l Listener) (int, error) {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxStreamRecord)

	received := 0
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue // keep-alive
		}
		if code, ok := noticeCode(line); ok {
			if !l.OnError(code) {
				return received, errListenerStopped
			}
			continue
		}
		received++
		if !l.OnData(line) {
			return received, errListenerStopped
		}
	}
	if err := scanner.Err(); err != nil {
		return received, fmt.Errorf("%s: read: %w", opStreamFilter, err)
	}
	return received, nil
}

func (s *Streamer) record(success, rateLimited bool) {
	if s.cfg.MetricsHook != nil {
		s.cfg.MetricsHook(opStreamFilter, success, rateLimited)
	}
}
