// internal/common/http/client.go
package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// Options configures a resty client shared by outbound integrations.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	UserAgent  string
	BearerAuth string
	RetryCount int
	RetryWait  time.Duration
	RetryMax   time.Duration
}

// NewClient builds a resty client. Retries, when enabled, apply to transport
// errors, 429 and 5xx responses, and stop as soon as the request context ends.
func NewClient(opts Options) *resty.Client {
	c := resty.New().
		SetTimeout(opts.Timeout).
		SetHeader("Accept", "application/json")

	if opts.BaseURL != "" {
		c.SetBaseURL(opts.BaseURL)
	}
	if opts.UserAgent != "" {
		c.SetHeader("User-Agent", opts.UserAgent)
	}
	if opts.BearerAuth != "" {
		c.SetAuthToken(opts.BearerAuth)
	}

	if opts.RetryCount > 0 {
		wait := opts.RetryWait
		if wait <= 0 {
			wait = 100 * time.Millisecond
		}
		maxWait := opts.RetryMax
		if maxWait <= 0 {
			maxWait = 8 * wait
		}
		c.SetRetryCount(opts.RetryCount).
			SetRetryWaitTime(wait).
			SetRetryMaxWaitTime(maxWait).
			AddRetryCondition(IsRetryable)
	}

	return c
}

// IsRetryable reports whether a response or error is transient.
func IsRetryable(resp *resty.Response, err error) bool {
	if err != nil {
		return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
	}
	if resp == nil {
		return false
	}
	code := resp.StatusCode()
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}
