package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 10 << 20

// HTTPLoader loads pages with a plain HTTP client. It does not run
// scripts, so it suits sources that render server-side and the page dump
// tool.
type HTTPLoader struct {
	client  *http.Client
	headers map[string]string
}

// NewHTTPLoader creates a loader sending the standard request headers.
func NewHTTPLoader(from string) *HTTPLoader {
	return &HTTPLoader{
		client:  &http.Client{},
		headers: Headers(from),
	}
}

// Load performs a GET and returns the body. Statuses of 400 and above are
// returned as *StatusError.
func (l *HTTPLoader) Load(ctx context.Context, url string, timeout time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range l.headers {
		req.Header.Set(k, v)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", &StatusError{Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read body: %w", err)
	}
	return string(body), nil
}
