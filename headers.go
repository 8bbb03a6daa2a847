package tweetstat

// userAgent identifies this client to the platform.
const userAgent = "tweetstat/1.0"

// streamHeaders returns the headers sent when opening a filtered stream.
// The body is form-encoded so the OAuth1 signature covers the track parameter.
func streamHeaders() map[string]string {
	return map[string]string{
		"content-type": "application/x-www-form-urlencoded",
		"user-agent":   userAgent,
		"accept":       "application/json",
	}
}
