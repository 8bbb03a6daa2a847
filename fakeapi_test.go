package tweetstat

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

const testCreatedAt = "Wed Sep 15 12:00:00 +0000 2021"

// fakeAPI is an in-memory stand-in for the v1.1 REST and stream endpoints.
type fakeAPI struct {
	t      *testing.T
	server *httptest.Server

	mu       sync.Mutex
	timeline []map[string]any // newest first
	home     []map[string]any
	friends  []map[string]any
	requests map[string]int

	verifyStatus   int
	timelineStatus int
	rateLimitReset string

	streamStatus int
	streamLines  []string
	streamForm   string
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()
	f := &fakeAPI{t: t, requests: map[string]int{}}
	mux := http.NewServeMux()
	mux.HandleFunc("/1.1/account/verify_credentials.json", f.verify)
	mux.HandleFunc("/1.1/statuses/user_timeline.json", f.userTimeline)
	mux.HandleFunc("/1.1/statuses/home_timeline.json", f.homeTimeline)
	mux.HandleFunc("/1.1/friends/list.json", f.friendList)
	mux.HandleFunc("/oauth2/token", f.token)
	mux.HandleFunc("/stream/filter.json", f.stream)
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeAPI) config() ClientConfig {
	return ClientConfig{
		Credentials: Credentials{
			ConsumerKey:    "ck",
			ConsumerSecret: "cs",
			AccessToken:    "at",
			AccessSecret:   "as",
		},
		APIBase:   f.server.URL,
		StreamURL: f.server.URL + "/stream/filter.json",
	}
}

func (f *fakeAPI) count(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[path]
}

func (f *fakeAPI) hit(r *http.Request) {
	f.mu.Lock()
	f.requests[r.URL.Path]++
	f.mu.Unlock()
}

func tweetJSON(id int64, text string, likes, retweets int) map[string]any {
	return map[string]any{
		"id":             id,
		"id_str":         strconv.FormatInt(id, 10),
		"full_text":      text,
		"created_at":     testCreatedAt,
		"source":         `<a href="https://mobile.twitter.com" rel="nofollow">Twitter Web App</a>`,
		"favorite_count": likes,
		"retweet_count":  retweets,
	}
}

func userJSON(id int64, handle string) map[string]any {
	return map[string]any{
		"id":                      id,
		"id_str":                  strconv.FormatInt(id, 10),
		"screen_name":             handle,
		"name":                    strings.ToUpper(handle),
		"description":             "bio of " + handle,
		"followers_count":         int(id),
		"friends_count":           3,
		"created_at":              testCreatedAt,
		"profile_image_url_https": "https://pbs.twimg.com/profile_images/1/a.jpg",
	}
}

// seedTimeline creates n tweets with descending ids.
func (f *fakeAPI) seedTimeline(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.timeline = nil
	for i := range n {
		id := int64(10_000 - i)
		f.timeline = append(f.timeline, tweetJSON(id, fmt.Sprintf("tweet number %d", i), i, i/2))
	}
}

func (f *fakeAPI) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		f.t.Errorf("encode response: %v", err)
	}
}

func (f *fakeAPI) verify(w http.ResponseWriter, r *http.Request) {
	f.hit(r)
	if !strings.HasPrefix(r.Header.Get("Authorization"), "OAuth ") {
		f.writeJSON(w, http.StatusBadRequest, map[string]any{"errors": []map[string]any{{"code": 215, "message": "Bad Authentication data."}}})
		return
	}
	if f.verifyStatus == http.StatusUnauthorized {
		f.writeJSON(w, http.StatusUnauthorized, map[string]any{"errors": []map[string]any{{"code": 32, "message": "Could not authenticate you."}}})
		return
	}
	f.writeJSON(w, http.StatusOK, userJSON(42, "me"))
}

// maxIDPage serves a max_id-paginated slice of items sorted newest first.
func (f *fakeAPI) maxIDPage(r *http.Request, items []map[string]any) []map[string]any {
	q := r.URL.Query()
	count, _ := strconv.Atoi(q.Get("count"))
	if count <= 0 {
		count = 20
	}
	maxID, _ := strconv.ParseInt(q.Get("max_id"), 10, 64)

	page := []map[string]any{}
	for _, it := range items {
		if maxID != 0 && it["id"].(int64) > maxID {
			continue
		}
		page = append(page, it)
		if len(page) == count {
			break
		}
	}
	return page
}

func (f *fakeAPI) userTimeline(w http.ResponseWriter, r *http.Request) {
	f.hit(r)
	f.mu.Lock()
	status, reset, items := f.timelineStatus, f.rateLimitReset, f.timeline
	f.mu.Unlock()

	if status == http.StatusTooManyRequests {
		w.Header().Set("x-rate-limit-reset", reset)
		f.writeJSON(w, status, map[string]any{"errors": []map[string]any{{"code": 88, "message": "Rate limit exceeded"}}})
		return
	}
	f.writeJSON(w, http.StatusOK, f.maxIDPage(r, items))
}

func (f *fakeAPI) homeTimeline(w http.ResponseWriter, r *http.Request) {
	f.hit(r)
	f.mu.Lock()
	items := f.home
	f.mu.Unlock()
	f.writeJSON(w, http.StatusOK, f.maxIDPage(r, items))
}

// friendList pages friends two at a time using numeric cursors.
func (f *fakeAPI) friendList(w http.ResponseWriter, r *http.Request) {
	f.hit(r)
	f.mu.Lock()
	items := f.friends
	f.mu.Unlock()

	cursor, _ := strconv.Atoi(r.URL.Query().Get("cursor"))
	if cursor < 0 {
		cursor = 0
	}
	end := min(cursor+2, len(items))
	next := end
	if end >= len(items) {
		next = 0
	}
	users := []map[string]any{}
	if cursor < len(items) {
		users = items[cursor:end]
	}
	f.writeJSON(w, http.StatusOK, map[string]any{
		"users":           users,
		"next_cursor":     next,
		"next_cursor_str": strconv.Itoa(next),
	})
}

func (f *fakeAPI) token(w http.ResponseWriter, r *http.Request) {
	f.hit(r)
	if err := r.ParseForm(); err != nil || r.PostForm.Get("grant_type") != "client_credentials" {
		http.Error(w, "bad grant", http.StatusBadRequest)
		return
	}
	user, pass, ok := r.BasicAuth()
	if !ok || user != "ck" || pass != "cs" {
		f.writeJSON(w, http.StatusForbidden, map[string]any{"errors": []map[string]any{{"code": 99, "message": "Unable to verify your credentials"}}})
		return
	}
	f.writeJSON(w, http.StatusOK, map[string]any{"token_type": "bearer", "access_token": "app-token"})
}

func (f *fakeAPI) stream(w http.ResponseWriter, r *http.Request) {
	f.hit(r)
	_ = r.ParseForm()
	f.mu.Lock()
	f.streamForm = r.PostForm.Get("track")
	status, lines := f.streamStatus, f.streamLines
	f.mu.Unlock()

	if status != 0 && status != http.StatusOK {
		w.WriteHeader(status)
		_, _ = w.Write([]byte("Exceeded connection limit for user"))
		return
	}
	flusher, _ := w.(http.Flusher)
	for _, line := range lines {
		_, _ = w.Write([]byte(line + "\r\n"))
		if flusher != nil {
			flusher.Flush()
		}
	}
}

// testTime is the parsed form of testCreatedAt.
var testTime = time.Date(2021, time.September, 15, 12, 0, 0, 0, time.UTC)
