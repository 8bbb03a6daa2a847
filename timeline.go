package tweetstat

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/dghubble/go-twitter/twitter"
)

// GetUserTimeline fetches up to count of the subject's own posts, newest first.
// It returns fewer when the timeline is exhausted, and nothing when count <= 0.
func (c *Client) GetUserTimeline(ctx context.Context, count int) ([]*Post, error) {
	return NewPager(pageSizes[opUserTimeline], c.userTimelinePage).Collect(ctx, count)
}

// GetHomeTimeline fetches up to count posts of the authenticated account's home feed.
// count <= 0 means DefaultCount.
func (c *Client) GetHomeTimeline(ctx context.Context, count int) ([]*Post, error) {
	if count <= 0 {
		count = DefaultCount
	}
	return NewPager(pageSizes[opHomeTimeline], c.homeTimelinePage).Collect(ctx, count)
}

// GetFriendList fetches up to count accounts the subject follows.
// count <= 0 means DefaultCount.
func (c *Client) GetFriendList(ctx context.Context, count int) ([]*Account, error) {
	if count <= 0 {
		count = DefaultCount
	}
	return NewPager(pageSizes[opFriendList], c.friendListPage).Collect(ctx, count)
}

// UserTimeline exposes the subject's timeline as a lazy sequence.
func (c *Client) UserTimeline() *Pager[*Post] {
	return NewPager(pageSizes[opUserTimeline], c.userTimelinePage)
}

func (c *Client) userTimelinePage(ctx context.Context, cursor string, size int) ([]*Post, string, error) {
	maxID, err := parseCursor(cursor)
	if err != nil {
		return nil, "", err
	}
	includeRetweets := true
	params := &twitter.UserTimelineParams{
		ScreenName:      c.subject,
		Count:           size,
		MaxID:           maxID,
		IncludeRetweets: &includeRetweets,
		TweetMode:       "extended",
	}
	if params.ScreenName == "" {
		if u := c.session.User(); u != nil {
			params.UserID, _ = strconv.ParseInt(u.ID, 10, 64)
		}
	}

	var tweets []twitter.Tweet
	err = c.call(ctx, opUserTimeline, func(api *twitter.Client) (*http.Response, error) {
		var resp *http.Response
		var err error
		tweets, resp, err = api.Timelines.UserTimeline(params)
		return resp, err
	})
	if err != nil {
		return nil, "", err
	}
	return postsPage(opUserTimeline, tweets)
}

func (c *Client) homeTimelinePage(ctx context.Context, cursor string, size int) ([]*Post, string, error) {
	maxID, err := parseCursor(cursor)
	if err != nil {
		return nil, "", err
	}
	params := &twitter.HomeTimelineParams{
		Count:     size,
		MaxID:     maxID,
		TweetMode: "extended",
	}

	var tweets []twitter.Tweet
	err = c.call(ctx, opHomeTimeline, func(api *twitter.Client) (*http.Response, error) {
		var resp *http.Response
		var err error
		tweets, resp, err = api.Timelines.HomeTimeline(params)
		return resp, err
	})
	if err != nil {
		return nil, "", err
	}
	return postsPage(opHomeTimeline, tweets)
}

func (c *Client) friendListPage(ctx context.Context, cursor string, size int) ([]*Account, string, error) {
	if cursor == "" {
		cursor = "-1"
	}
	pos, err := strconv.ParseInt(cursor, 10, 64)
	if err != nil {
		return nil, "", fmt.Errorf("bad cursor %q: %w", cursor, err)
	}
	skip := true
	params := &twitter.FriendListParams{
		ScreenName: c.subject,
		Cursor:     pos,
		Count:      size,
		SkipStatus: &skip,
	}
	if params.ScreenName == "" {
		if u := c.session.User(); u != nil {
			params.UserID, _ = strconv.ParseInt(u.ID, 10, 64)
		}
	}

	var friends *twitter.Friends
	err = c.call(ctx, opFriendList, func(api *twitter.Client) (*http.Response, error) {
		var resp *http.Response
		var err error
		friends, resp, err = api.Friends.List(params)
		return resp, err
	})
	if err != nil {
		return nil, "", err
	}
	if friends == nil {
		return nil, "", nil
	}

	accounts := make([]*Account, 0, len(friends.Users))
	for _, u := range friends.Users {
		acc, err := accountFromUser(u)
		if err != nil {
			return nil, "", fmt.Errorf("%s: %w", opFriendList, err)
		}
		accounts = append(accounts, acc)
	}

	next := strconv.FormatInt(friends.NextCursor, 10)
	if friends.NextCursor == 0 {
		next = ""
	}
	return accounts, next, nil
}

// postsPage converts a max_id-paginated page. The next cursor is one below the oldest id.
func postsPage(operation string, tweets []twitter.Tweet) ([]*Post, string, error) {
	if len(tweets) == 0 {
		return nil, "", nil
	}
	posts := make([]*Post, 0, len(tweets))
	for _, t := range tweets {
		p, err := postFromTweet(t)
		if err != nil {
			return nil, "", fmt.Errorf("%s: %w", operation, err)
		}
		posts = append(posts, p)
	}

	oldest := tweets[len(tweets)-1].ID
	if oldest <= 1 {
		return posts, "", nil
	}
	return posts, strconv.FormatInt(oldest-1, 10), nil
}

func parseCursor(cursor string) (int64, error) {
	if cursor == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(cursor, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad cursor %q: %w", cursor, err)
	}
	return v, nil
}
