package tweetstat

const (
	apiBase         = "https://api.twitter.com"
	streamFilterURL = "https://stream.twitter.com/1.1/statuses/filter.json"
	tokenPath       = "/oauth2/token"
)

// Operation names used for rate limiting, metrics and error messages.
const (
	opVerifyCredentials = "VerifyCredentials"
	opUserTimeline      = "UserTimeline"
	opHomeTimeline      = "HomeTimeline"
	opFriendList        = "FriendList"
	opStreamFilter      = "StreamFilter"
)

// DefaultCount is used by GetFriendList and GetHomeTimeline when count <= 0.
const DefaultCount = 10

// Maximum page sizes accepted by the v1.1 endpoints.
var pageSizes = map[string]int{
	opUserTimeline: 200,
	opHomeTimeline: 200,
	opFriendList:   200,
}

// requiresUserContext returns true for operations an app-only session cannot perform.
func requiresUserContext(operation string) bool {
	switch operation {
	case opHomeTimeline, opStreamFilter, opVerifyCredentials:
		return true
	}
	return false
}
