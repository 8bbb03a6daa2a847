package tweetstat

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dghubble/go-twitter/twitter"
)

// sourceAnchorRe extracts the client name from the HTML anchor in a tweet's source field.
var sourceAnchorRe = regexp.MustCompile(`(?s)<a[^>]*>(.*?)</a>`)

// postFromTweet converts a decoded v1.1 tweet into a Post.
func postFromTweet(t twitter.Tweet) (*Post, error) {
	id := t.IDStr
	if id == "" && t.ID != 0 {
		id = strconv.FormatInt(t.ID, 10)
	}
	if id == "" {
		return nil, fmt.Errorf("%w: tweet without id", ErrMalformedRecord)
	}
	createdAt, err := parseCreatedAt(t.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: tweet %s: %v", ErrMalformedRecord, id, err)
	}
	return &Post{
		ID:        id,
		Text:      tweetText(t),
		CreatedAt: createdAt,
		Source:    sourceName(t.Source),
		Likes:     t.FavoriteCount,
		Retweets:  t.RetweetCount,
	}, nil
}

// tweetText prefers the untruncated text of extended tweets.
func tweetText(t twitter.Tweet) string {
	if t.ExtendedTweet != nil && t.ExtendedTweet.FullText != "" {
		return t.ExtendedTweet.FullText
	}
	if t.FullText != "" {
		return t.FullText
	}
	return t.Text
}

func sourceName(raw string) string {
	if m := sourceAnchorRe.FindStringSubmatch(raw); len(m) == 2 {
		return strings.TrimSpace(m[1])
	}
	return raw
}

func parseCreatedAt(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, fmt.Errorf("missing created_at")
	}
	return time.Parse(time.RubyDate, v)
}

// accountFromUser converts a v1.1 user object into an Account.
func accountFromUser(u twitter.User) (*Account, error) {
	id := u.IDStr
	if id == "" && u.ID != 0 {
		id = strconv.FormatInt(u.ID, 10)
	}
	if id == "" {
		return nil, fmt.Errorf("%w: user without id", ErrMalformedRecord)
	}
	var createdAt time.Time
	if u.CreatedAt != "" {
		if t, err := time.Parse(time.RubyDate, u.CreatedAt); err == nil {
			createdAt = t
		}
	}
	bio := strings.TrimSpace(u.Description)
	return &Account{
		ID:          id,
		Handle:      u.ScreenName,
		DisplayName: u.Name,
		Bio:         bio,
		Followers:   u.FollowersCount,
		Following:   u.FriendsCount,
		TweetCount:  u.StatusesCount,
		ListedCount: u.ListedCount,
		CreatedAt:   createdAt,
		IsVerified:  u.Verified,
		HasAvatar:   u.ProfileImageURLHttps != "" && !u.DefaultProfileImage,
		HasBio:      bio != "",
	}, nil
}

// streamNotice is the subset of stream control messages that carry a status code.
type streamNotice struct {
	Disconnect *struct {
		Code   int    `json:"code"`
		Reason string `json:"reason"`
	} `json:"disconnect"`
	Errors []struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

// noticeCode returns the status code of an in-band disconnect or error message.
func noticeCode(raw []byte) (int, bool) {
	if len(raw) == 0 || raw[0] != '{' {
		return 0, false
	}
	var n streamNotice
	if json.Unmarshal(raw, &n) != nil {
		return 0, false
	}
	if n.Disconnect != nil {
		return n.Disconnect.Code, true
	}
	if len(n.Errors) > 0 {
		return n.Errors[0].Code, true
	}
	return 0, false
}

// parsePayload decodes one stream record. ok is false for records that are not tweets
// (limit notices, warnings, deletes).
func parsePayload(raw []byte) (post *Post, ok bool, err error) {
	var probe struct {
		ID        *int64 `json:"id"`
		CreatedAt string `json:"created_at"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	if probe.ID == nil && probe.CreatedAt == "" {
		return nil, false, nil
	}
	var t twitter.Tweet
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	p, err := postFromTweet(t)
	if err != nil {
		return nil, false, err
	}
	return p, true, nil
}
