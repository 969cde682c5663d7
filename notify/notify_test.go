package notify

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/pevans/mediascan"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestHTTPInvalidator verifies the POST and status handling
func TestHTTPInvalidator(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr bool
	}{
		{"ok", http.StatusOK, false},
		{"server error", http.StatusInternalServerError, true},
		{"no content is not ok", http.StatusNoContent, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var method string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				method = r.Method
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			err := NewHTTPInvalidator(server.URL+"/cache/invalidate", time.Second, nil).Invalidate(context.Background())

			assert.Equal(t, http.MethodPost, method)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// TestHTTPInvalidator_Timeout verifies a slow endpoint fails the call
func TestHTTPInvalidator_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	err := NewHTTPInvalidator(server.URL, 50*time.Millisecond, nil).Invalidate(context.Background())

	assert.Error(t, err)
}

type stubInvalidator struct {
	calls int
	err   error
}

func (s *stubInvalidator) Invalidate(context.Context) error {
	s.calls++
	return s.err
}

// TestInvalidators verifies every invalidator runs and errors are joined
func TestInvalidators(t *testing.T) {
	boom := errors.New("boom")
	a := &stubInvalidator{err: boom}
	b := &stubInvalidator{}

	err := Invalidators{a, b}.Invalidate(context.Background())

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, a.calls)
	assert.Equal(t, 1, b.calls)
}

// TestRedisInvalidator verifies pattern purging against a live Redis
func TestRedisInvalidator(t *testing.T) {
	addr := os.Getenv("MEDIASCAN_TEST_REDIS")
	if addr == "" {
		t.Skip("MEDIASCAN_TEST_REDIS not set")
	}

	inv, err := NewRedisInvalidator(RedisConfig{Addr: addr, Pattern: "mediascan-test:*"}, nil)
	require.NoError(t, err)
	defer inv.Close()

	ctx := context.Background()
	require.NoError(t, inv.client.Set(ctx, "mediascan-test:a", "1", time.Minute).Err())
	require.NoError(t, inv.client.Set(ctx, "mediascan-test:b", "1", time.Minute).Err())
	require.NoError(t, inv.client.Set(ctx, "mediascan-keep", "1", time.Minute).Err())
	defer inv.client.Del(ctx, "mediascan-keep")

	deleted, err := inv.Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	n, err := inv.client.Exists(ctx, "mediascan-keep").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

// TestNewRedisInvalidator_EmptyAddr verifies the address is required
func TestNewRedisInvalidator_EmptyAddr(t *testing.T) {
	_, err := NewRedisInvalidator(RedisConfig{}, nil)
	assert.Error(t, err)
}

func testResult() *mediascan.RunResult {
	start := time.Date(2024, 5, 1, 3, 0, 0, 0, time.UTC)
	return &mediascan.RunResult{
		RunID:      uuid.MustParse("6f1c2a9e-8d4b-4c1e-9a57-3b2f0e6d7c11"),
		StartedAt:  start,
		FinishedAt: start.Add(95 * time.Second),
		Outcomes: []mediascan.RunOutcome{
			{Source: "https://www.bbc.com/", Name: "BBC", Accepted: 5, Duplicates: 2},
			{Source: "https://apnews.com/", Name: "AP", SourceFailed: true, Deactivated: true},
		},
		Unresolved: []string{"https://www.rt.com/"},
	}
}

// TestFormatSummary verifies counts, failures and top labels are listed
func TestFormatSummary(t *testing.T) {
	stats := &mediascan.LabelStats{
		Articles: 5,
		Sentiments: []mediascan.LabelCount{
			{Label: "CONCERN", Count: 4}, {Label: "FEAR", Count: 3},
			{Label: "TRUST", Count: 2}, {Label: "JOY", Count: 1},
		},
		Ideologies: []mediascan.LabelCount{{Label: "LIBERALISM", Count: 3}},
	}

	text := FormatSummary(testResult(), stats, 3)

	assert.Contains(t, text, "Run 6f1c2a9e-8d4b-4c1e-9a57-3b2f0e6d7c11")
	assert.Contains(t, text, "Took 1m35s")
	assert.Contains(t, text, "Accepted 5 articles from 2 sources")
	assert.Contains(t, text, "BBC: 5 accepted, 2 duplicates, 0 failed")
	assert.Contains(t, text, "AP: failed")
	assert.Contains(t, text, "Failed sources: https://apnews.com/ (deactivated)")
	assert.Contains(t, text, "Skipped without active media: https://www.rt.com/")
	assert.Contains(t, text, "Sentiments: CONCERN (4), FEAR (3), TRUST (2)")
	assert.NotContains(t, text, "JOY")
	assert.Contains(t, text, "Ideologies: LIBERALISM (3)")
}

// TestFormatSummary_NoStats verifies the label section is omitted
func TestFormatSummary_NoStats(t *testing.T) {
	text := FormatSummary(&mediascan.RunResult{RunID: uuid.New()}, nil, 0)

	assert.Contains(t, text, "Accepted 0 articles from 0 sources")
	assert.NotContains(t, text, "Sentiments")
}

type fakeSender struct {
	sent []tgbotapi.MessageConfig
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if f.err != nil {
		return tgbotapi.Message{}, f.err
	}
	f.sent = append(f.sent, c.(tgbotapi.MessageConfig))
	return tgbotapi.Message{}, nil
}

type fakeStats struct {
	since time.Time
	err   error
}

func (f *fakeStats) LabelStats(_ context.Context, since time.Time) (*mediascan.LabelStats, error) {
	f.since = since
	if f.err != nil {
		return nil, f.err
	}
	return &mediascan.LabelStats{
		Articles:   1,
		Sentiments: []mediascan.LabelCount{{Label: "JOY", Count: 1}},
	}, nil
}

// TestTelegramReporter verifies the message goes to the chat with the
// day's stats
func TestTelegramReporter(t *testing.T) {
	sender := &fakeSender{}
	stats := &fakeStats{}
	reporter := NewTelegramReporterWithSender(sender, 42, stats, nil)

	require.NoError(t, reporter.Report(context.Background(), testResult()))

	require.Len(t, sender.sent, 1)
	assert.Equal(t, int64(42), sender.sent[0].ChatID)
	assert.Contains(t, sender.sent[0].Text, "Sentiments: JOY (1)")
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), stats.since)
}

// TestTelegramReporter_StatsFailure verifies the summary is still sent
func TestTelegramReporter_StatsFailure(t *testing.T) {
	sender := &fakeSender{}
	log, hook := test.NewNullLogger()
	reporter := NewTelegramReporterWithSender(sender, 42, &fakeStats{err: errors.New("db closed")}, log)

	require.NoError(t, reporter.Report(context.Background(), testResult()))

	require.Len(t, sender.sent, 1)
	assert.NotContains(t, sender.sent[0].Text, "Sentiments")
	require.NotEmpty(t, hook.Entries)
	assert.Equal(t, logrus.WarnLevel, hook.Entries[0].Level)
}

// TestTelegramReporter_SendFailure verifies send errors are returned
func TestTelegramReporter_SendFailure(t *testing.T) {
	reporter := NewTelegramReporterWithSender(&fakeSender{err: errors.New("unauthorized")}, 42, nil, nil)

	err := reporter.Report(context.Background(), testResult())

	assert.ErrorContains(t, err, "unauthorized")
}

// TestNewTelegramReporter_EmptyToken verifies the token is required
func TestNewTelegramReporter_EmptyToken(t *testing.T) {
	_, err := NewTelegramReporter("", 1, nil, nil)
	assert.Error(t, err)
}

// TestLogReporter verifies the summary is logged at Info
func TestLogReporter(t *testing.T) {
	log, hook := test.NewNullLogger()

	require.NoError(t, NewLogReporter(nil, log).Report(context.Background(), testResult()))

	require.Len(t, hook.Entries, 1)
	assert.Equal(t, logrus.InfoLevel, hook.Entries[0].Level)
	assert.Contains(t, hook.Entries[0].Message, "BBC: 5 accepted")
}
