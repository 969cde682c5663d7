package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLoader returns queued results and records every call
type fakeLoader struct {
	results  []loadResult
	calls    []string
	timeouts []time.Duration
	closed   bool
}

type loadResult struct {
	content string
	err     error
}

func (f *fakeLoader) Load(_ context.Context, url string, timeout time.Duration) (string, error) {
	f.calls = append(f.calls, url)
	f.timeouts = append(f.timeouts, timeout)
	if len(f.results) == 0 {
		return "", errors.New("no result queued")
	}
	r := f.results[0]
	f.results = f.results[1:]
	return r.content, r.err
}

func (f *fakeLoader) Close() error {
	f.closed = true
	return nil
}

var testPage = "<html><body>" + strings.Repeat("x", MinContentBytes) + "</body></html>"

// Test helper: an engine whose sleeps are recorded instead of waited
func testEngine(loader PageLoader, cfg Config) (*Engine, *[]time.Duration) {
	e := NewEngine(loader, cfg, nil)
	var sleeps []time.Duration
	e.sleep = func(_ context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return nil
	}
	return e, &sleeps
}

// TestFetch_Success verifies a first-attempt success
func TestFetch_Success(t *testing.T) {
	loader := &fakeLoader{results: []loadResult{{content: testPage}}}
	engine, sleeps := testEngine(loader, Config{})

	content, err := engine.Fetch(context.Background(), "https://news.example.com/a")
	require.NoError(t, err)

	assert.Equal(t, testPage, content)
	assert.Len(t, loader.calls, 1)
	assert.Equal(t, []time.Duration{DefaultTimeout}, loader.timeouts)
	assert.Empty(t, *sleeps)
}

// TestFetch_ExhaustsRetries verifies exactly Retries attempts are made on
// forced failures before a FetchError
func TestFetch_ExhaustsRetries(t *testing.T) {
	for _, retries := range []int{1, 2, 4} {
		loader := &fakeLoader{}
		for i := 0; i < retries+2; i++ {
			loader.results = append(loader.results, loadResult{err: errors.New("timeout")})
		}
		engine, _ := testEngine(loader, Config{Retries: retries})

		_, err := engine.Fetch(context.Background(), "https://news.example.com/a")

		var fetchErr *FetchError
		require.True(t, errors.As(err, &fetchErr))
		assert.Equal(t, retries, fetchErr.Attempts)
		assert.Equal(t, "https://news.example.com/a", fetchErr.URL)
		assert.Len(t, loader.calls, retries)
	}
}

// TestFetch_SuccessOnFinalAttempt verifies a success on the last allowed
// attempt returns normally without further attempts
func TestFetch_SuccessOnFinalAttempt(t *testing.T) {
	loader := &fakeLoader{results: []loadResult{
		{err: &StatusError{Code: 503}},
		{content: testPage},
		{content: "never used"},
	}}
	engine, sleeps := testEngine(loader, Config{Retries: 2})

	content, err := engine.Fetch(context.Background(), "https://news.example.com/a")
	require.NoError(t, err)

	assert.Equal(t, testPage, content)
	assert.Len(t, loader.calls, 2)
	assert.Equal(t, []time.Duration{DefaultBackoff}, *sleeps)
}

// TestFetch_LinearBackoff verifies attempt-proportional delays and no
// delay after the final attempt
func TestFetch_LinearBackoff(t *testing.T) {
	loader := &fakeLoader{}
	for i := 0; i < 3; i++ {
		loader.results = append(loader.results, loadResult{err: errors.New("boom")})
	}
	engine, sleeps := testEngine(loader, Config{Retries: 3, Backoff: 100 * time.Millisecond})

	_, err := engine.Fetch(context.Background(), "https://news.example.com/a")
	require.Error(t, err)

	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}, *sleeps)
}

// TestFetch_MinimalContent verifies short pages count as failures
func TestFetch_MinimalContent(t *testing.T) {
	short := strings.Repeat("x", MinContentBytes)
	loader := &fakeLoader{results: []loadResult{{content: short}, {content: short}}}
	engine, _ := testEngine(loader, Config{})

	_, err := engine.Fetch(context.Background(), "https://news.example.com/a")

	assert.ErrorIs(t, err, ErrMinimalContent)
	assert.Len(t, loader.calls, 2)
}

// TestFetch_WrapsLastError verifies the last attempt's error is kept
func TestFetch_WrapsLastError(t *testing.T) {
	loader := &fakeLoader{results: []loadResult{
		{err: ErrNoResponse},
		{err: &StatusError{Code: 404}},
	}}
	engine, _ := testEngine(loader, Config{})

	_, err := engine.Fetch(context.Background(), "https://news.example.com/a")

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, 404, statusErr.Code)
	assert.Contains(t, err.Error(), "after 2 attempts")
}

// TestFetch_CancelledDuringBackoff verifies cancellation stops retrying
func TestFetch_CancelledDuringBackoff(t *testing.T) {
	loader := &fakeLoader{results: []loadResult{{err: errors.New("boom")}, {content: testPage}}}
	engine := NewEngine(loader, Config{Retries: 2, Backoff: time.Hour}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.Fetch(ctx, "https://news.example.com/a")

	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, loader.calls, 1)
}

// TestEngineClose verifies the loader is closed when it supports it
func TestEngineClose(t *testing.T) {
	loader := &fakeLoader{}
	engine := NewEngine(loader, Config{}, nil)

	require.NoError(t, engine.Close())
	assert.True(t, loader.closed)
}

// TestConfigWithDefaults verifies defaults and explicit values
func TestConfigWithDefaults(t *testing.T) {
	cfg := Config{}.WithDefaults()
	assert.Equal(t, DefaultRetries, cfg.Retries)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.Equal(t, DefaultBackoff, cfg.Backoff)

	custom := Config{Retries: 5, Timeout: time.Second, Backoff: time.Millisecond}.WithDefaults()
	assert.Equal(t, 5, custom.Retries)
	assert.Equal(t, time.Second, custom.Timeout)
	assert.Equal(t, time.Millisecond, custom.Backoff)
}

// TestHeaders verifies the request identity
func TestHeaders(t *testing.T) {
	h := Headers("")
	assert.Equal(t, UserAgent, h["User-Agent"])
	assert.Equal(t, Accept, h["Accept"])
	assert.Equal(t, AcceptLanguage, h["Accept-Language"])
	assert.NotContains(t, h, "From")

	assert.Equal(t, "desk@example.com", Headers("desk@example.com")["From"])
}

// TestHTTPLoader_Load verifies headers are sent and the body returned
func TestHTTPLoader_Load(t *testing.T) {
	var got http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		_, _ = w.Write([]byte(testPage))
	}))
	defer server.Close()

	content, err := NewHTTPLoader("desk@example.com").Load(context.Background(), server.URL, 5*time.Second)
	require.NoError(t, err)

	assert.Equal(t, testPage, content)
	assert.Equal(t, UserAgent, got.Get("User-Agent"))
	assert.Equal(t, AcceptLanguage, got.Get("Accept-Language"))
	assert.Equal(t, "desk@example.com", got.Get("From"))
}

// TestHTTPLoader_StatusError verifies error statuses fail the attempt
func TestHTTPLoader_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	_, err := NewHTTPLoader("").Load(context.Background(), server.URL, 5*time.Second)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusForbidden, statusErr.Code)
}

// TestHTTPLoader_ThroughEngine verifies the loader retries through the
// engine on a transient failure
func TestHTTPLoader_ThroughEngine(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if hits == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(testPage))
	}))
	defer server.Close()

	engine, _ := testEngine(NewHTTPLoader(""), Config{})
	content, err := engine.Fetch(context.Background(), server.URL)
	require.NoError(t, err)

	assert.Equal(t, testPage, content)
	assert.Equal(t, 2, hits)
}
