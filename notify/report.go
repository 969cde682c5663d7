package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pevans/mediascan"
	"github.com/sirupsen/logrus"
)

// DefaultTopLabels is how many labels per axis a summary lists.
const DefaultTopLabels = 3

// StatsProvider supplies the label tallies included in summaries.
type StatsProvider interface {
	LabelStats(ctx context.Context, since time.Time) (*mediascan.LabelStats, error)
}

// FormatSummary renders a run as plain text. stats may be nil.
func FormatSummary(result *mediascan.RunResult, stats *mediascan.LabelStats, top int) string {
	if top <= 0 {
		top = DefaultTopLabels
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Run %s\n", result.RunID)
	if !result.FinishedAt.IsZero() {
		fmt.Fprintf(&b, "Took %s\n", result.FinishedAt.Sub(result.StartedAt).Round(time.Second))
	}
	fmt.Fprintf(&b, "Accepted %d articles from %d sources\n", result.Accepted(), len(result.Outcomes))

	if len(result.Outcomes) > 0 {
		b.WriteString("\n")
		for _, o := range result.Outcomes {
			name := o.Name
			if name == "" {
				name = o.Source
			}
			if o.SourceFailed {
				fmt.Fprintf(&b, "%s: failed\n", name)
				continue
			}
			fmt.Fprintf(&b, "%s: %d accepted, %d duplicates, %d failed\n",
				name, o.Accepted, o.Duplicates, o.Failed)
		}
	}

	if failed := result.FailedSources(); len(failed) > 0 {
		names := make([]string, len(failed))
		for i, o := range failed {
			names[i] = o.Source
			if o.Deactivated {
				names[i] += " (deactivated)"
			}
		}
		fmt.Fprintf(&b, "\nFailed sources: %s\n", strings.Join(names, ", "))
	}

	if len(result.Unresolved) > 0 {
		fmt.Fprintf(&b, "Skipped without active media: %s\n", strings.Join(result.Unresolved, ", "))
	}

	if stats != nil && stats.Articles > 0 {
		fmt.Fprintf(&b, "\nToday (%d articles)\n", stats.Articles)
		fmt.Fprintf(&b, "Sentiments: %s\n", joinTop(stats.Sentiments, top))
		fmt.Fprintf(&b, "Ideologies: %s\n", joinTop(stats.Ideologies, top))
	}

	return strings.TrimRight(b.String(), "\n")
}

func joinTop(counts []mediascan.LabelCount, n int) string {
	if len(counts) > n {
		counts = counts[:n]
	}
	parts := make([]string, len(counts))
	for i, c := range counts {
		parts[i] = fmt.Sprintf("%s (%d)", c.Label, c.Count)
	}
	return strings.Join(parts, ", ")
}

// summary renders result together with today's label stats. A stats
// failure is logged and the summary goes out without them.
func summary(ctx context.Context, stats StatsProvider, result *mediascan.RunResult, log logrus.FieldLogger) string {
	var labels *mediascan.LabelStats
	if stats != nil {
		y, m, d := result.StartedAt.Date()
		since := time.Date(y, m, d, 0, 0, 0, 0, result.StartedAt.Location())
		var err error
		labels, err = stats.LabelStats(ctx, since)
		if err != nil {
			log.WithFields(logrus.Fields{
				"run_id": result.RunID,
				"error":  err,
			}).Warn("Failed to load label stats for summary")
		}
	}
	return FormatSummary(result, labels, DefaultTopLabels)
}

// LogReporter writes the summary to the log.
type LogReporter struct {
	stats StatsProvider
	log   logrus.FieldLogger
}

// NewLogReporter creates a reporter logging at Info. stats may be nil.
func NewLogReporter(stats StatsProvider, log logrus.FieldLogger) *LogReporter {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &LogReporter{stats: stats, log: log}
}

// Report logs the summary.
func (r *LogReporter) Report(ctx context.Context, result *mediascan.RunResult) error {
	r.log.WithField("run_id", result.RunID).Info(summary(ctx, r.stats, result, r.log))
	return nil
}

// MessageSender is the part of tgbotapi.BotAPI used for posting.
type MessageSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramReporter posts the summary to a Telegram chat.
type TelegramReporter struct {
	bot    MessageSender
	chatID int64
	stats  StatsProvider
	log    logrus.FieldLogger
}

// NewTelegramReporter creates a reporter using a bot token.
func NewTelegramReporter(token string, chatID int64, stats StatsProvider, log logrus.FieldLogger) (*TelegramReporter, error) {
	if token == "" {
		return nil, errors.New("telegram token cannot be empty")
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return NewTelegramReporterWithSender(bot, chatID, stats, log), nil
}

// NewTelegramReporterWithSender creates a reporter over an existing sender.
func NewTelegramReporterWithSender(bot MessageSender, chatID int64, stats StatsProvider, log logrus.FieldLogger) *TelegramReporter {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &TelegramReporter{bot: bot, chatID: chatID, stats: stats, log: log}
}

// Report sends the summary message.
func (r *TelegramReporter) Report(ctx context.Context, result *mediascan.RunResult) error {
	msg := tgbotapi.NewMessage(r.chatID, summary(ctx, r.stats, result, r.log))
	msg.DisableWebPagePreview = true

	if _, err := r.bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	r.log.WithFields(logrus.Fields{
		"run_id":  result.RunID,
		"chat_id": r.chatID,
	}).Info("Posted run summary")
	return nil
}

// Reporters runs several reporters and joins their errors.
type Reporters []mediascan.Reporter

// Report calls every reporter even when an earlier one fails.
func (m Reporters) Report(ctx context.Context, result *mediascan.RunResult) error {
	var errs []error
	for _, r := range m {
		if err := r.Report(ctx, result); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
