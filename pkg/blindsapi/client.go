// Package blindsapi is the client of the blinds HTTP api.
package blindsapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/womat/debug"
)

// Retry policy of FetchConfiguration.
const (
	MaxRetries    = 5
	RetryTimeout  = 40 * time.Second
	RetryInterval = 5 * time.Second
)

var (
	// ErrRequestFailed is matched by *RequestFailedError.
	ErrRequestFailed = errors.New("request failed")
	// ErrInvalidOperation is returned by Forward for an operation the api doesn't accept in that form.
	ErrInvalidOperation = errors.New("invalid operation")
)

// RequestFailedError is returned when a retried request ran out of attempts or time.
type RequestFailedError struct {
	Resource string
	Attempts int
	Err      error
}

func (e *RequestFailedError) Error() string {
	return fmt.Sprintf("failed to get api resource %q after %d attempts: %v", e.Resource, e.Attempts, e.Err)
}

func (e *RequestFailedError) Unwrap() error { return e.Err }

func (e *RequestFailedError) Is(target error) bool { return target == ErrRequestFailed }

// StatusError is returned for responses with a non 2xx status code.
type StatusError struct {
	Method     string
	Resource   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s: %d %s", e.Method, e.Resource, e.StatusCode, http.StatusText(e.StatusCode))
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// Doer sends http requests, *http.Client implements it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the api below a base url, e.g. http://pi:4000/api/blinds/.
type Client struct {
	base *url.URL
	http Doer

	maxRetries int
	timeout    time.Duration
	interval   time.Duration

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New returns a Client for the api at baseURL.
func New(baseURL string) (*Client, error) {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse api url %q: %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("api url %q needs scheme and host", baseURL)
	}

	return &Client{
		base:       u,
		http:       &http.Client{Timeout: 30 * time.Second},
		maxRetries: MaxRetries,
		timeout:    RetryTimeout,
		interval:   RetryInterval,
		now:        time.Now,
		sleep:      sleepContext,
	}, nil
}

// FetchConfiguration returns the configuration document of the api.
//
// Connection failures are retried up to MaxRetries times, RetryInterval apart,
// until RetryTimeout has passed since the first attempt. An error status is
// returned at once.
func (c *Client) FetchConfiguration(ctx context.Context) (io.ReadCloser, error) {
	resp, err := c.getWithRetries(ctx, "configuration")
	if err != nil {
		return nil, err
	}
	if err := checkStatus(resp, http.MethodGet, "configuration"); err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// Channel returns the channel the remote is on.
func (c *Client) Channel(ctx context.Context) (int, error) {
	resp, err := c.do(ctx, http.MethodGet, "channel")
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp, http.MethodGet, "channel"); err != nil {
		return 0, err
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("read channel: %w", err)
	}
	ch, err := strconv.Atoi(strings.TrimSpace(string(b)))
	if err != nil {
		return 0, fmt.Errorf("parse channel %q: %w", b, err)
	}
	return ch, nil
}

// Forward posts an operation, e.g. "open" or "channel/up", in a single attempt.
// If channel is set the operation addresses channel/{id}.
func (c *Client) Forward(ctx context.Context, operation string, channel *int) error {
	resource := strings.Trim(operation, "/")
	switch {
	case resource == "":
		return fmt.Errorf("%w: empty operation", ErrInvalidOperation)
	case channel != nil && resource != "channel":
		return fmt.Errorf("%w: %q takes no channel", ErrInvalidOperation, operation)
	case channel == nil && resource == "channel":
		return fmt.Errorf("%w: %q needs a channel", ErrInvalidOperation, operation)
	case channel != nil:
		resource = "channel/" + strconv.Itoa(*channel)
	}

	resp, err := c.do(ctx, http.MethodPost, resource)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return checkStatus(resp, http.MethodPost, resource)
}

func (c *Client) getWithRetries(ctx context.Context, resource string) (*http.Response, error) {
	var lastErr error
	retries := 0
	deadline := c.now().Add(c.timeout)

	for {
		if retries > 0 {
			if err := c.sleep(ctx, c.interval); err != nil {
				return nil, &RequestFailedError{Resource: resource, Attempts: retries, Err: err}
			}
		}

		resp, err := c.do(ctx, http.MethodGet, resource)
		if err == nil {
			return resp, nil
		}
		debug.ErrorLog.Printf("blinds api request failed: %v", err)
		lastErr = err

		retries++
		if retries > c.maxRetries || !c.now().Before(deadline) {
			break
		}
	}

	return nil, &RequestFailedError{Resource: resource, Attempts: retries, Err: lastErr}
}

func (c *Client) do(ctx context.Context, method, resource string) (*http.Response, error) {
	u := c.base.ResolveReference(&url.URL{Path: resource})
	req, err := http.NewRequestWithContext(ctx, method, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	debug.TraceLog.Printf("blinds api %s %s", method, u)
	return c.http.Do(req)
}

// checkStatus closes the body of a failed response.
func checkStatus(resp *http.Response, method, resource string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &StatusError{Method: method, Resource: resource, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
