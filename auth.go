package tweetstat

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dghubble/go-twitter/twitter"
	"github.com/dghubble/oauth1"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// Session is an authenticated handle. It enables API calls and nothing else.
type Session struct {
	http *http.Client
	user *Account
}

// HTTPClient returns the signing HTTP client bound to this session.
func (s *Session) HTTPClient() *http.Client { return s.http }

// User returns the verified account, or nil for app-only sessions.
func (s *Session) User() *Account { return s.user }

// AppOnly reports whether the session carries only an application bearer token.
func (s *Session) AppOnly() bool { return s.user == nil }

// allows reports whether the session may call the given operation.
func (s *Session) allows(operation string) error {
	if s.AppOnly() && requiresUserContext(operation) {
		return fmt.Errorf("%s: %w", operation, ErrUserContextRequired)
	}
	return nil
}

// Authenticator turns credentials into sessions.
type Authenticator struct {
	cfg ClientConfig
}

// NewAuthenticator creates an authenticator using cfg's transport settings.
// cfg.Credentials is not read; credentials are passed per call.
func NewAuthenticator(cfg ClientConfig) *Authenticator {
	cfg.defaults()
	return &Authenticator{cfg: cfg}
}

// Authenticate builds an OAuth 1.0a user-context session and verifies it against the platform.
// It does not retry.
func (a *Authenticator) Authenticate(ctx context.Context, creds Credentials) (*Session, error) {
	if missing := creds.missing(); len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %s", ErrAuthentication, strings.Join(missing, ", "))
	}

	base, err := baseHTTPClient(a.cfg)
	if err != nil {
		return nil, err
	}

	config := oauth1.NewConfig(creds.ConsumerKey, creds.ConsumerSecret)
	token := oauth1.NewToken(creds.AccessToken, creds.AccessSecret)
	httpClient := config.Client(context.WithValue(ctx, oauth1.HTTPClient, base), token)

	reqCtx, cancel := context.WithTimeout(ctx, a.cfg.RequestTimeout)
	defer cancel()
	verifyClient := *httpClient
	verifyClient.Transport = &contextTransport{ctx: reqCtx, next: httpClient.Transport}

	skip := true
	user, resp, err := twitter.NewClient(&verifyClient).Accounts.VerifyCredentials(&twitter.AccountVerifyParams{
		SkipStatus:      &skip,
		IncludeEntities: new(bool),
	})
	if err := checkResponse(opVerifyCredentials, resp, err); err != nil {
		a.record(opVerifyCredentials, false, isRateLimited(err))
		return nil, fmt.Errorf("verify credentials: %w", err)
	}
	a.record(opVerifyCredentials, true, false)

	acc, err := accountFromUser(*user)
	if err != nil {
		return nil, fmt.Errorf("verify credentials: %w", err)
	}
	slog.Info("authenticated", slog.String("user", acc.Handle))
	return &Session{http: httpClient, user: acc}, nil
}

// AuthenticateApp obtains an application-only bearer token via the client-credentials grant.
// App-only sessions can read public timelines and friend lists, but not the home timeline or
// the stream.
func (a *Authenticator) AuthenticateApp(ctx context.Context, consumerKey, consumerSecret string) (*Session, error) {
	if consumerKey == "" || consumerSecret == "" {
		return nil, fmt.Errorf("%w: missing consumer key or secret", ErrAuthentication)
	}

	base, err := baseHTTPClient(a.cfg)
	if err != nil {
		return nil, err
	}

	conf := &clientcredentials.Config{
		ClientID:     consumerKey,
		ClientSecret: consumerSecret,
		TokenURL:     strings.TrimRight(a.cfg.APIBase, "/") + tokenPath,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, base)

	reqCtx, cancel := context.WithTimeout(ctx, a.cfg.RequestTimeout)
	defer cancel()
	tok, err := conf.Token(reqCtx)
	if err != nil {
		a.record("Token", false, false)
		return nil, fmt.Errorf("%w: app token: %v", ErrAuthentication, err)
	}
	a.record("Token", true, false)

	slog.Info("authenticated app-only session")
	return &Session{http: oauth2.NewClient(ctx, oauth2.StaticTokenSource(tok))}, nil
}

func (a *Authenticator) record(endpoint string, success, rateLimited bool) {
	if a.cfg.MetricsHook != nil {
		a.cfg.MetricsHook(endpoint, success, rateLimited)
	}
}

// contextTransport attaches ctx to requests issued by libraries that do not take a context.
type contextTransport struct {
	ctx  context.Context
	next http.RoundTripper
}

func (t *contextTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.next.RoundTrip(req.WithContext(t.ctx))
}
