package tweetstat

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/anatolykoptev/go-stealth/ratelimit"
	"github.com/dghubble/go-twitter/twitter"
)

// Client runs bounded queries against the REST API on behalf of one session.
type Client struct {
	session *Session
	limiter *ratelimit.Limiter
	subject string
	cfg     ClientConfig
}

// NewClient creates a client bound to an authenticated session.
// cfg.Subject selects the account queried by user timeline and friend list calls.
func NewClient(session *Session, cfg ClientConfig) *Client {
	cfg.defaults()
	return &Client{
		session: session,
		limiter: ratelimit.NewLimiter(cfg.RateLimit),
		subject: cfg.Subject,
		cfg:     cfg,
	}
}

// Dial authenticates with cfg.Credentials and returns a ready client.
func Dial(ctx context.Context, cfg ClientConfig) (*Client, error) {
	session, err := NewAuthenticator(cfg).Authenticate(ctx, cfg.Credentials)
	if err != nil {
		return nil, err
	}
	return NewClient(session, cfg), nil
}

// Session returns the session the client is bound to.
func (c *Client) Session() *Session {
	return c.session
}

// Subject returns the queried screen name, falling back to the authenticated account.
func (c *Client) Subject() string {
	if c.subject != "" {
		return c.subject
	}
	if u := c.session.User(); u != nil {
		return u.Handle
	}
	return ""
}

// api returns a go-twitter client whose requests carry ctx and the request timeout.
func (c *Client) api(ctx context.Context) (*twitter.Client, context.CancelFunc) {
	reqCtx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	hc := *c.session.HTTPClient()
	hc.Transport = &contextTransport{ctx: reqCtx, next: hc.Transport}
	return twitter.NewClient(&hc), cancel
}

// call runs one remote operation with rate-limit bookkeeping and metrics.
func (c *Client) call(ctx context.Context, operation string, fn func(api *twitter.Client) (*http.Response, error)) error {
	if err := c.session.allows(operation); err != nil {
		return err
	}
	if c.limiter.IsRateLimited(operation) {
		c.recordAPICall(operation, false, true)
		until := c.limiter.AvailableAt(operation)
		return fmt.Errorf("%s: %w until %s", operation, ErrRateLimited, until.Format(time.RFC3339))
	}

	api, cancel := c.api(ctx)
	defer cancel()

	resp, err := fn(api)
	if err := checkResponse(operation, resp, err); err != nil {
		limited := isRateLimited(err)
		if limited {
			reset := ""
			if resp != nil {
				reset = resp.Header.Get("x-rate-limit-reset")
			}
			c.limiter.MarkRateLimited(operation, parseRateLimitReset(reset))
			slog.Warn("endpoint rate limited", slog.String("endpoint", operation), slog.String("reset", reset))
		}
		c.recordAPICall(operation, false, limited)
		return err
	}
	c.recordAPICall(operation, true, false)
	return nil
}

// recordAPICall calls the metrics hook if configured.
func (c *Client) recordAPICall(endpoint string, success, rateLimited bool) {
	if c.cfg.MetricsHook != nil {
		c.cfg.MetricsHook(endpoint, success, rateLimited)
	}
}
