package tweetstat

import (
	"net/http"
	"time"

	"github.com/anatolykoptev/go-stealth/ratelimit"
)

// Credentials is the OAuth 1.0a key set for one Twitter app and user.
type Credentials struct {
	ConsumerKey    string
	ConsumerSecret string
	AccessToken    string
	AccessSecret   string
}

// missing returns the names of empty credential fields.
func (c Credentials) missing() []string {
	var names []string
	if c.ConsumerKey == "" {
		names = append(names, "consumer key")
	}
	if c.ConsumerSecret == "" {
		names = append(names, "consumer secret")
	}
	if c.AccessToken == "" {
		names = append(names, "access token")
	}
	if c.AccessSecret == "" {
		names = append(names, "access secret")
	}
	return names
}

// ClientConfig holds all configuration for the authenticator, client and streamer.
type ClientConfig struct {
	// Credentials are the app and user keys. Never persisted.
	Credentials Credentials

	// Subject is the screen name queried by user timeline and friend list calls.
	// Empty means the authenticated account.
	Subject string

	// APIBase is the REST API origin. Default: https://api.twitter.com
	APIBase string

	// StreamURL is the filtered stream endpoint.
	// Default: https://stream.twitter.com/1.1/statuses/filter.json
	StreamURL string

	// Proxy is an optional outbound proxy URL.
	Proxy string

	// HTTPClient is the base client requests are signed on top of.
	// Its Timeout must be zero when streaming.
	HTTPClient *http.Client

	// RequestTimeout bounds each REST call. Streams are not affected.
	RequestTimeout time.Duration

	// RateLimit configures the per-endpoint limiter that remembers 429 reset times.
	RateLimit ratelimit.Config

	// MetricsHook is called on each API request for external metrics collection.
	// endpoint is the operation name, success and rateLimited indicate the outcome.
	MetricsHook func(endpoint string, success, rateLimited bool)
}

// defaults fills in zero-value config fields with sensible defaults.
func (cfg *ClientConfig) defaults() {
	if cfg.APIBase == "" {
		cfg.APIBase = apiBase
	}
	if cfg.StreamURL == "" {
		cfg.StreamURL = streamFilterURL
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.RateLimit.RequestsPerWindow == 0 {
		cfg.RateLimit = ratelimit.DefaultConfig
	}
}
