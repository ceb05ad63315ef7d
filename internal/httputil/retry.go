// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared by the LLM backends.
package httputil

import (
	"context"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// RetryBaseDelay controls the base duration for exponential backoff on
// throttled responses. Tests override this to avoid real sleeps.
var RetryBaseDelay = 10 * time.Second

const defaultMaxRetries = 5

// Retryable reports whether a response status should be retried: HTTP 429
// (Too Many Requests) and 503 (Service Unavailable).
func Retryable(status int) bool {
	return status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable
}

// Backoff returns the wait before retry attempt (0-based): RetryBaseDelay
// doubled each attempt.
func Backoff(attempt int) time.Duration {
	return time.Duration(math.Pow(2, float64(attempt))) * RetryBaseDelay
}

// DoWithRetry executes an HTTP request and retries Retryable responses with
// exponential backoff: 10 s, 20 s, 40 s, 80 s, 160 s by default.
//
// When maxRetries is 0 the default (5) is used. The request body is rewound
// through req.GetBody before each retry; requests built from a bytes.Reader
// or strings.Reader get this for free. If the context is cancelled during a
// backoff wait the function returns ctx.Err(). After exhausting retries the
// last throttled response is returned so the caller can inspect it.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int) (*http.Response, error) {
	if client == nil {
		client = http.DefaultClient
	}
	return retry(ctx, req, maxRetries, client.Do)
}

// RetryTransport is an http.RoundTripper that applies the DoWithRetry policy
// to every request. It lets SDK clients that accept an *http.Client share
// the same backoff behaviour.
type RetryTransport struct {
	// Base performs the requests. nil means http.DefaultTransport.
	Base http.RoundTripper
	// MaxRetries is the number of retries; 0 uses the default (5).
	MaxRetries int
}

// NewClient returns an *http.Client with a RetryTransport and the given
// timeout (0 for none).
func NewClient(timeout time.Duration, maxRetries int) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: &RetryTransport{MaxRetries: maxRetries},
	}
}

// RoundTrip implements http.RoundTripper.
func (t *RetryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return retry(req.Context(), req, t.MaxRetries, base.RoundTrip)
}

func retry(ctx context.Context, req *http.Request, maxRetries int, do func(*http.Request) (*http.Response, error)) (*http.Response, error) {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	hasBody := req.Body != nil && req.Body != http.NoBody
	replayable := !hasBody || req.GetBody != nil

	for attempt := 0; ; attempt++ {
		attemptReq := req.Clone(ctx)
		if attempt > 0 && hasBody {
			body, err := req.GetBody()
			if err != nil {
				return nil, err
			}
			attemptReq.Body = body
		}

		resp, err := do(attemptReq)
		if err != nil {
			return nil, err
		}

		// Exhausted retries, or nothing to retry: return the response as-is.
		if !Retryable(resp.StatusCode) || attempt >= maxRetries || !replayable {
			return resp, nil
		}

		// Drain and close the body before retrying.
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		wait := Backoff(attempt)
		zerolog.Ctx(ctx).Warn().Int("status", resp.StatusCode).Str("host", req.URL.Host).
			Dur("backoff", wait).Int("attempt", attempt+1).Int("max_retries", maxRetries).
			Msg("http.retry")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
}
