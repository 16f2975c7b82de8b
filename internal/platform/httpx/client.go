// Package httpx holds the JSON-over-HTTP plumbing shared by the outbound adapters.
package httpx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
	"trip-route-service/internal/domain"
)

type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("Code %d: %s", e.Code, e.Body)
}

// Client wraps http.Client with request construction and retry.
// It is safe for concurrent use.
type Client struct {
	session     *http.Client
	maxAttempts int
	backoff     time.Duration
}

func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		session:     &http.Client{Timeout: timeout},
		maxAttempts: 4,
		backoff:     200 * time.Millisecond,
	}
}

// WithBackoff returns a copy of c that waits initial before its first retry.
func (c *Client) WithBackoff(initial time.Duration) *Client {
	cp := *c
	cp.backoff = initial
	return &cp
}

func (c *Client) NewRequest(
	ctx context.Context,
	method string,
	url string,
	body io.Reader,
) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}

// Do sends req once. Status codes >= 400 come back as *StatusError with the
// body already drained and closed.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	resp, err := c.session.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, &StatusError{
			Code: resp.StatusCode,
			Body: strings.TrimSpace(string(b)),
		}
	}
	return resp, nil
}

// DoWithRetry retries transient failures (network errors, 429 and 5xx)
// with exponential backoff while respecting context cancellation. Only use it
// for idempotent requests.
func (c *Client) DoWithRetry(
	ctx context.Context,
	makeReq func() (*http.Request, error),
) (*http.Response, error) {
	backoff := c.backoff

	var lastErr error

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := makeReq()
		if err != nil {
			return nil, fmt.Errorf("make request: %w", err)
		}

		resp, err := c.Do(req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if !retryable(err) || attempt == c.maxAttempts {
			return nil, lastErr
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		backoff *= 2
	}

	return nil, lastErr
}

func retryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		switch se.Code {
		case 429, 500, 502, 503, 504:
			return true
		}
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

// Classify turns a transport failure into a Network domain error for side.
// Timeouts count as network failures.
func Classify(side domain.Side, op string, err error) error {
	if err == nil {
		return nil
	}

	var de *domain.Error
	if errors.As(err, &de) {
		return err
	}

	var se *StatusError
	if errors.As(err, &se) {
		return domain.NewError(domain.KindNetwork, side, fmt.Sprintf("%s: unexpected status %d", op, se.Code), err)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return domain.NewError(domain.KindNetwork, side, op+": request timed out", err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return domain.NewError(domain.KindNetwork, side, op+": request timed out", err)
	}

	return domain.NewError(domain.KindNetwork, side, op+": request failed", err)
}

// Malformed wraps a body that could not be decoded or lacks required fields.
func Malformed(side domain.Side, op string, err error) error {
	return domain.NewError(domain.KindMalformedResponse, side, op+": malformed response", err)
}
