// Package classifier labels article text with sentiments and ideologies
// using a chat completion model.
package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	// LabelsPerAxis is how many labels each axis must yield.
	LabelsPerAxis = 3

	DefaultRetries = 2

	// Texts longer than CondenseAbove characters are summarised first.
	CondenseAbove   = 19000
	CondenseChunk   = 4000
	CondenseOverlap = 400
)

// ErrInsufficientLabels is returned when a reply does not carry enough
// distinct allowed labels.
var ErrInsufficientLabels = errors.New("insufficient labels")

// Completer sends one system and user prompt pair and returns the reply
// text.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// Labels is the classification of one article.
type Labels struct {
	Sentiments []string
	Ideologies []string
}

// Config tunes the classifier.
type Config struct {
	// Retries is the number of attempts per axis.
	Retries int
	// RatePerMinute spaces out completion requests. Zero disables it.
	RatePerMinute int
}

// Classifier labels article text.
type Classifier struct {
	completer Completer
	retries   int
	limiter   *rate.Limiter
	log       logrus.FieldLogger
}

// New creates a classifier. A nil logger discards output.
func New(completer Completer, cfg Config, log logrus.FieldLogger) *Classifier {
	if cfg.Retries <= 0 {
		cfg.Retries = DefaultRetries
	}
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}

	var limiter *rate.Limiter
	if cfg.RatePerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RatePerMinute)), 1)
	}

	return &Classifier{
		completer: completer,
		retries:   cfg.Retries,
		limiter:   limiter,
		log:       log,
	}
}

type axis struct {
	key      string
	allowed  []string
	template string
	list     string
	// hyphens are mapped back to underscores in replies
	hyphens bool
}

var (
	ideologyAxis = axis{
		key:      "ideologies",
		allowed:  Ideologies,
		template: ideologyTemplate,
		list:     hyphenated(Ideologies),
		hyphens:  true,
	}
	sentimentAxis = axis{
		key:      "sentiments",
		allowed:  Sentiments,
		template: sentimentTemplate,
		list:     strings.Join(Sentiments, ", "),
	}
)

// Classify returns three ideologies and three sentiments for text.
// Ideologies are requested first. Long texts are condensed before either
// request. The returned error wraps ErrInsufficientLabels when an axis
// came back short after every attempt.
func (c *Classifier) Classify(ctx context.Context, text string) (*Labels, error) {
	if len([]rune(text)) > CondenseAbove {
		condensed, err := c.Condense(ctx, text)
		if err != nil {
			return nil, err
		}
		text = condensed
	}

	ideologies, err := c.request(ctx, ideologyAxis, text)
	if err != nil {
		return nil, err
	}
	sentiments, err := c.request(ctx, sentimentAxis, text)
	if err != nil {
		return nil, err
	}

	return &Labels{Sentiments: sentiments, Ideologies: ideologies}, nil
}

// Condense summarises overlapping chunks of text and joins the summaries.
func (c *Classifier) Condense(ctx context.Context, text string) (string, error) {
	chunks := Windows(text, CondenseChunk, CondenseOverlap)
	summaries := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		if err := c.wait(ctx); err != nil {
			return "", err
		}
		summary, err := c.completer.Complete(ctx, summarySystem, fmt.Sprintf(summaryTemplate, chunk))
		if err != nil {
			return "", fmt.Errorf("failed to summarise chunk %d of %d: %w", i+1, len(chunks), err)
		}
		summaries = append(summaries, strings.TrimSpace(summary))
	}
	return strings.Join(summaries, " "), nil
}

func (c *Classifier) request(ctx context.Context, ax axis, text string) ([]string, error) {
	system := systemPrompt(ax.key)
	prompt := fmt.Sprintf(ax.template, text, ax.list)

	var lastErr error
	for attempt := 1; attempt <= c.retries; attempt++ {
		if err := c.wait(ctx); err != nil {
			return nil, err
		}

		reply, err := c.completer.Complete(ctx, system, prompt)
		if err == nil {
			var labels []string
			labels, err = ParseLabels(reply, ax.key, ax.allowed, ax.hyphens)
			if err == nil && len(labels) >= LabelsPerAxis {
				return labels, nil
			}
			if err == nil {
				err = fmt.Errorf("%w: got %d of %d", ErrInsufficientLabels, len(labels), LabelsPerAxis)
			}
		}
		lastErr = err

		c.log.WithFields(logrus.Fields{
			"axis":     ax.key,
			"attempt":  attempt,
			"attempts": c.retries,
			"error":    err,
		}).Warn("Classification attempt failed")

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("classify %s after %d attempts: %w", ax.key, c.retries, lastErr)
}

func (c *Classifier) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

var codeFence = regexp.MustCompile("(?i)^```(?:json)?\\s*|\\s*```$")

// ParseLabels reads the label array stored under key in a JSON reply.
// Code fences are stripped. Labels are upper-cased, matched against
// allowed, deduplicated and capped at LabelsPerAxis. With hyphens set,
// "-" is read as "_".
func ParseLabels(reply, key string, allowed []string, hyphens bool) ([]string, error) {
	clean := strings.TrimSpace(codeFence.ReplaceAllString(strings.TrimSpace(reply), ""))

	var parsed map[string][]string
	if err := json.Unmarshal([]byte(clean), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse reply: %w", err)
	}
	raw, ok := parsed[key]
	if !ok {
		return nil, fmt.Errorf("reply has no %q field", key)
	}

	valid := make(map[string]bool, len(allowed))
	for _, a := range allowed {
		valid[a] = true
	}

	seen := make(map[string]bool)
	var labels []string
	for _, l := range raw {
		l = strings.ToUpper(strings.TrimSpace(l))
		if hyphens {
			l = strings.ReplaceAll(l, "-", "_")
		}
		if !valid[l] || seen[l] {
			continue
		}
		seen[l] = true
		labels = append(labels, l)
		if len(labels) == LabelsPerAxis {
			break
		}
	}
	return labels, nil
}

// Windows splits text into chunks of size characters where each chunk
// starts size-overlap characters after the previous one.
func Windows(text string, size, overlap int) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	step := size - overlap
	if step <= 0 {
		step = size
	}

	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := min(start+size, len(runes))
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks
}
