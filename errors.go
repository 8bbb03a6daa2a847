package tweetstat

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/dghubble/go-twitter/twitter"
)

var (
	// ErrAuthentication means the platform rejected the credentials, or they were incomplete.
	ErrAuthentication = errors.New("authentication failed")

	// ErrRateLimited is the rate-limit signal: the caller must stop making requests for a while.
	ErrRateLimited = errors.New("rate limited")

	// ErrMalformedRecord means a post lacks a field the table needs.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrEmptyTable is returned when summarizing a table with no rows.
	ErrEmptyTable = errors.New("empty table")

	// ErrUserContextRequired is returned when an app-only session calls a user-context endpoint.
	ErrUserContextRequired = errors.New("operation requires a user-context session")
)

// StatusError is an unexpected HTTP status from the platform.
type StatusError struct {
	Operation string
	Code      int
	Body      string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s HTTP %d", e.Operation, e.Code)
	}
	return fmt.Sprintf("%s HTTP %d: %s", e.Operation, e.Code, e.Body)
}

// errorClass categorizes Twitter API error responses for targeted handling.
type errorClass int

const (
	errNone          errorClass = iota
	errRateLimit                // 88: rate limit exceeded
	errAuth                     // 32, 89, 215: could not authenticate / bad token
	errSuspended                // 64: account suspended
	errOverCapacity             // 130: over capacity
	errInternal                 // 131: Twitter internal error
	errNotAuthorized            // 179: not authorized to see status
)

// classifyCode maps a single Twitter error code to its class.
func classifyCode(code int) errorClass {
	switch code {
	case 88:
		return errRateLimit
	case 32, 89, 215:
		return errAuth
	case 64:
		return errSuspended
	case 130:
		return errOverCapacity
	case 131:
		return errInternal
	case 179:
		return errNotAuthorized
	}
	return errNone
}

// classifyError inspects a response body for known Twitter error codes.
func classifyError(body []byte) errorClass {
	var errResp struct {
		Errors []struct {
			Code int `json:"code"`
		} `json:"errors"`
	}
	if json.Unmarshal(body, &errResp) != nil || len(errResp.Errors) == 0 {
		return errNone
	}
	for _, e := range errResp.Errors {
		if class := classifyCode(e.Code); class != errNone {
			return class
		}
	}
	return errNone
}

// classifyAPIError does the same for errors already decoded by go-twitter.
func classifyAPIError(err error) errorClass {
	var apiErr twitter.APIError
	if !errors.As(err, &apiErr) {
		return errNone
	}
	for _, d := range apiErr.Errors {
		if class := classifyCode(d.Code); class != errNone {
			return class
		}
	}
	return errNone
}

// isRateLimitStatus reports whether an HTTP status is the platform's rate-limit signal.
// 420 "Enhance Your Calm" is the legacy streaming code, 429 the REST one.
func isRateLimitStatus(code int) bool {
	return code == 420 || code == http.StatusTooManyRequests
}

// parseRateLimitReset parses the X-Rate-Limit-Reset unix timestamp header.
// Falls back to 15 minutes from now if missing or invalid.
func parseRateLimitReset(v string) time.Time {
	if ts, err := strconv.ParseInt(v, 10, 64); err == nil {
		return time.Unix(ts, 0)
	}
	return time.Now().Add(15 * time.Minute)
}

func isRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}
