package tweetstat

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	stealth "github.com/anatolykoptev/go-stealth"
)

// baseHTTPClient returns the unsigned client that OAuth transports wrap.
// Requests for the default REST origin are redirected to cfg.APIBase.
func baseHTTPClient(cfg ClientConfig) (*http.Client, error) {
	var base http.RoundTripper = http.DefaultTransport
	if cfg.HTTPClient != nil && cfg.HTTPClient.Transport != nil {
		base = cfg.HTTPClient.Transport
	}

	if cfg.Proxy != "" {
		proxyURL, err := url.Parse(cfg.Proxy)
		if err != nil {
			return nil, fmt.Errorf("parse proxy: %w", err)
		}
		tr, ok := base.(*http.Transport)
		if !ok {
			return nil, fmt.Errorf("proxy requires an *http.Transport, got %T", base)
		}
		tr = tr.Clone()
		tr.Proxy = http.ProxyURL(proxyURL)
		base = tr
		slog.Info("using outbound proxy", slog.String("proxy", stealth.MaskProxy(cfg.Proxy)))
	}

	if cfg.APIBase != "" && cfg.APIBase != apiBase {
		target, err := url.Parse(cfg.APIBase)
		if err != nil {
			return nil, fmt.Errorf("parse api base: %w", err)
		}
		base = &originRewriter{target: target, next: base}
	}

	c := &http.Client{Transport: base}
	if cfg.HTTPClient != nil {
		c.CheckRedirect = cfg.HTTPClient.CheckRedirect
		c.Jar = cfg.HTTPClient.Jar
	}
	return c, nil
}

// originRewriter sends requests addressed to the default REST origin to another origin.
type originRewriter struct {
	target *url.URL
	next   http.RoundTripper
}

func (o *originRewriter) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.URL.Host != "api.twitter.com" {
		return o.next.RoundTrip(req)
	}
	r := req.Clone(req.Context())
	r.URL.Scheme = o.target.Scheme
	r.URL.Host = o.target.Host
	r.Host = o.target.Host
	return o.next.RoundTrip(r)
}

// checkResponse turns a go-twitter call result into a classified error.
func checkResponse(operation string, resp *http.Response, err error) error {
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	if err == nil && (status == 0 || status < 300) {
		return nil
	}

	switch class := classifyAPIError(err); {
	case status == http.StatusUnauthorized || class == errAuth:
		return fmt.Errorf("%s: %w: %v", operation, ErrAuthentication, errOrStatus(operation, status, err))
	case isRateLimitStatus(status) || class == errRateLimit:
		return fmt.Errorf("%s: %w: %v", operation, ErrRateLimited, errOrStatus(operation, status, err))
	case err != nil:
		return fmt.Errorf("%s: %w", operation, err)
	default:
		return &StatusError{Operation: operation, Code: status}
	}
}

func errOrStatus(operation string, status int, err error) error {
	if err != nil {
		return err
	}
	return &StatusError{Operation: operation, Code: status}
}

func truncateBytes(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
