// Package httpx holds small HTTP helpers shared by the generation pipeline.
package httpx

import (
	"bytes"
	"context"
	"errors"
	"net"
	"net/http"
	"time"
)

// DoJSON sends a single JSON request with a buffered body. Retry scheduling
// belongs to the caller; the pipeline classifies failures per stage and uses
// fixed backoffs. Callers must close the returned response body.
func DoJSON(ctx context.Context, client *http.Client, method, url string, body []byte, headers http.Header) (*http.Response, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	if headers != nil {
		req.Header = headers.Clone()
	}
	if req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
	return client.Do(req)
}

// Get fetches a URL with a plain GET. Callers must close the body.
func Get(ctx context.Context, client *http.Client, url string) (*http.Response, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return client.Do(req)
}

// IsTimeout reports whether err is a deadline expiry or a timing-out network
// error.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// Sleep blocks for d or until ctx is done, whichever comes first. It returns
// ctx.Err() when interrupted so retry loops can bail out cleanly.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
