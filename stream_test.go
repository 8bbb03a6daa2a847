package tweetstat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingListener captures everything it is given.
type recordingListener struct {
	data   []string
	codes  []int
	stopOn int
}

func (r *recordingListener) OnData(raw []byte) bool {
	r.data = append(r.data, string(raw))
	return true
}

func (r *recordingListener) OnError(code int) bool {
	r.codes = append(r.codes, code)
	return code != r.stopOn
}

func streamPayload(t *testing.T, id int64, text string) string {
	t.Helper()
	b, err := json.Marshal(tweetJSON(id, text, 1, 0))
	require.NoError(t, err)
	return string(b)
}

func TestStreamTweets_StopsOnRateLimit(t *testing.T) {
	api := newFakeAPI(t)
	p1 := streamPayload(t, 1, "go is fun #golang")
	p2 := streamPayload(t, 2, "borrow checker #rustlang")
	p3 := streamPayload(t, 3, "generics #golang")
	api.streamLines = []string{
		p1,
		"",
		p2,
		p3,
		`{"errors":[{"code":420,"message":"Enhance Your Calm"}]}`,
		streamPayload(t, 4, "never written"),
	}
	path := filepath.Join(t.TempDir(), "stream.jsonl")

	err := NewStreamer(api.config()).StreamTweets(context.Background(), path, []string{"rustlang", "golang"})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, p1+"\n"+p2+"\n"+p3+"\n", string(data))
	assert.Equal(t, "rustlang,golang", api.streamForm)
}

func TestFilter_RoutesNoticesAndData(t *testing.T) {
	api := newFakeAPI(t)
	api.streamLines = []string{
		`{"limit":{"track":12}}`,
		`{"disconnect":{"code":7,"reason":"admin logout"}}`,
		streamPayload(t, 9, "hello"),
	}
	cfg := api.config()
	session, err := NewAuthenticator(cfg).Authenticate(context.Background(), cfg.Credentials)
	require.NoError(t, err)

	l := &recordingListener{stopOn: 420}
	err = NewStreamer(cfg).Filter(context.Background(), session, []string{"golang"}, l)
	require.NoError(t, err)
	assert.Equal(t, []int{7}, l.codes)
	require.Len(t, l.data, 2)
	assert.Equal(t, `{"limit":{"track":12}}`, l.data[0])
}

func TestFilter_HTTPStatus(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		wantErr     bool
		wantStopped bool
	}{
		{"enhance your calm", 420, false, true},
		{"too many requests", http.StatusTooManyRequests, false, true},
		{"unauthorized", http.StatusUnauthorized, false, true},
		{"service unavailable", http.StatusServiceUnavailable, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newFakeAPI(t)
			api.streamStatus = tt.status
			cfg := api.config()
			session, err := NewAuthenticator(cfg).Authenticate(context.Background(), cfg.Credentials)
			require.NoError(t, err)

			l, _, _ := newTestListener(t)
			err = NewStreamer(cfg).Filter(context.Background(), session, []string{"golang"}, l)
			if tt.wantErr {
				var se *StatusError
				require.True(t, errors.As(err, &se))
				assert.Equal(t, tt.status, se.Code)
				assert.Contains(t, se.Body, "connection limit")
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantStopped, l.State() == Stopped)
		})
	}
}

func TestFilter_RequiresTags(t *testing.T) {
	api := newFakeAPI(t)
	cfg := api.config()
	session, err := NewAuthenticator(cfg).Authenticate(context.Background(), cfg.Credentials)
	require.NoError(t, err)

	err = NewStreamer(cfg).Filter(context.Background(), session, []string{" ", ""}, &recordingListener{})
	require.Error(t, err)
	assert.Zero(t, api.count("/stream/filter.json"))
}

func TestFilter_AppOnlySessionRejected(t *testing.T) {
	api := newFakeAPI(t)
	cfg := api.config()
	session, err := NewAuthenticator(cfg).AuthenticateApp(context.Background(), "ck", "cs")
	require.NoError(t, err)

	err = NewStreamer(cfg).Filter(context.Background(), session, []string{"golang"}, &recordingListener{})
	require.ErrorIs(t, err, ErrUserContextRequired)
}

func TestFilter_Cancelled(t *testing.T) {
	api := newFakeAPI(t)
	cfg := api.config()
	session, err := NewAuthenticator(cfg).Authenticate(context.Background(), cfg.Credentials)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = NewStreamer(cfg).Filter(ctx, session, []string{"golang"}, &recordingListener{})
	require.ErrorIs(t, err, context.Canceled)
}

func TestListenerScenario_ThreePayloadsThenRateLimit(t *testing.T) {
	l, path, _ := newTestListener(t)
	payloads := []string{`{"id":1}`, `{"id":2}`, `{"id":3}`}
	for _, p := range payloads {
		require.True(t, l.OnData([]byte(p)))
	}
	assert.False(t, l.OnError(420))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, strings.Join(payloads, "\n")+"\n", string(data))
	assert.Equal(t, Stopped, l.State())
}
