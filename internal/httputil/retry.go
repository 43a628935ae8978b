// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers for the completion client.
package httputil

import (
	"fmt"
	"io"
	"math"
	"net/http"
	"time"
)

// RetryBaseDelay controls the base duration for exponential backoff on
// HTTP 429 responses. Tests override this to avoid real sleeps.
var RetryBaseDelay = 10 * time.Second

// RetryTransport retries requests that receive HTTP 429 (Too Many Requests)
// with exponential backoff. The delay starts at RetryBaseDelay and doubles
// each attempt: 10 s, 20 s, 40 s, ...
//
// MaxRetries of 0 disables retrying, so the transport passes responses
// through unchanged. After exhausting retries the last 429 response is
// returned so the caller can inspect it. If the request context is cancelled
// during a backoff wait, RoundTrip returns the context error.
type RetryTransport struct {
	Base       http.RoundTripper
	MaxRetries int
}

// NewRetryClient returns an http.Client whose transport retries 429s.
func NewRetryClient(maxRetries int) *http.Client {
	return &http.Client{Transport: &RetryTransport{MaxRetries: maxRetries}}
}

func (t *RetryTransport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

// RoundTrip implements http.RoundTripper.
func (t *RetryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	for attempt := 0; ; attempt++ {
		attemptReq := req
		if attempt > 0 {
			r, err := rewind(req)
			if err != nil {
				return nil, err
			}
			attemptReq = r
		}

		resp, err := t.base().RoundTrip(attemptReq)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode != http.StatusTooManyRequests || attempt >= t.MaxRetries {
			return resp, nil
		}

		// Without a way to resend the body the 429 is final.
		if req.Body != nil && req.GetBody == nil {
			return resp, nil
		}

		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		backoff := time.Duration(math.Pow(2, float64(attempt))) * RetryBaseDelay

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
}

// rewind clones req with a fresh copy of its body.
func rewind(req *http.Request) (*http.Request, error) {
	r := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("rewinding request body: %w", err)
		}
		r.Body = body
	}
	return r, nil
}
