// Package fetcher retrieves pages with bounded retries, linear backoff and
// a minimal-content check. The page loading itself sits behind PageLoader
// so that a headless browser or a plain HTTP client can serve it.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	DefaultRetries = 2
	DefaultTimeout = 15 * time.Second
	DefaultBackoff = time.Second

	// MinContentBytes is the smallest page accepted as real content.
	MinContentBytes = 600
)

var (
	// ErrMinimalContent is returned for pages at or below MinContentBytes.
	ErrMinimalContent = errors.New("retrieved empty or minimal content")

	// ErrNoResponse is returned when navigation produced no response.
	ErrNoResponse = errors.New("no response")
)

// StatusError reports an HTTP error status for the main document.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP error: %d", e.Code)
}

// FetchError is returned once every attempt for a URL has failed. Err is
// the error of the last attempt.
type FetchError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s failed after %d attempts: %v", e.URL, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// PageLoader performs one attempt at loading a page and returns its
// rendered HTML.
type PageLoader interface {
	Load(ctx context.Context, url string, timeout time.Duration) (string, error)
}

// Config controls the retry policy.
type Config struct {
	// Retries is the total number of attempts per URL.
	Retries int
	// Timeout bounds navigation and each wait step of one attempt.
	Timeout time.Duration
	// Backoff is multiplied by the attempt number before the next attempt.
	Backoff time.Duration
	// RatePerMinute limits page loads across the engine. Zero disables it.
	RatePerMinute int
}

// WithDefaults fills unset fields.
func (c Config) WithDefaults() Config {
	if c.Retries <= 0 {
		c.Retries = DefaultRetries
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Backoff <= 0 {
		c.Backoff = DefaultBackoff
	}
	return c
}

// Engine fetches pages through a PageLoader. Fetches are expected to be
// issued sequentially.
type Engine struct {
	loader  PageLoader
	cfg     Config
	limiter *rate.Limiter
	log     logrus.FieldLogger

	// sleep waits between attempts; replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewEngine creates an engine. A nil logger discards output.
func NewEngine(loader PageLoader, cfg Config, log logrus.FieldLogger) *Engine {
	cfg = cfg.WithDefaults()
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}

	var limiter *rate.Limiter
	if cfg.RatePerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RatePerMinute)), 1)
	}

	return &Engine{
		loader:  loader,
		cfg:     cfg,
		limiter: limiter,
		log:     log,
		sleep:   sleepContext,
	}
}

// Config returns the effective retry policy.
func (e *Engine) Config() Config {
	return e.cfg
}

// Fetch loads url, retrying up to the configured number of attempts. It
// returns a *FetchError when every attempt fails.
func (e *Engine) Fetch(ctx context.Context, url string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= e.cfg.Retries; attempt++ {
		content, err := e.attempt(ctx, url)
		if err == nil {
			return content, nil
		}
		lastErr = err

		entry := e.log.WithFields(logrus.Fields{
			"url":      url,
			"attempt":  attempt,
			"attempts": e.cfg.Retries,
			"error":    err,
		})
		if attempt >= e.cfg.Retries {
			entry.Error("All fetch attempts failed")
			break
		}
		entry.Warn("Fetch attempt failed")

		if err := e.sleep(ctx, e.cfg.Backoff*time.Duration(attempt)); err != nil {
			lastErr = err
			break
		}
	}

	return "", &FetchError{URL: url, Attempts: e.cfg.Retries, Err: lastErr}
}

func (e *Engine) attempt(ctx context.Context, url string) (string, error) {
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}

	content, err := e.loader.Load(ctx, url, e.cfg.Timeout)
	if err != nil {
		return "", err
	}
	if len(content) <= MinContentBytes {
		return "", ErrMinimalContent
	}
	return content, nil
}

// Close releases the loader when it holds resources.
func (e *Engine) Close() error {
	if c, ok := e.loader.(io.Closer); ok {
		return c.Close()
	}
	return nil
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
