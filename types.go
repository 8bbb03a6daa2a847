package tweetstat

import "time"

// Post is a read-only copy of a single tweet.
type Post struct {
	ID        string
	Text      string
	CreatedAt time.Time
	Source    string
	Likes     int
	Retweets  int
}
