// Package app wires configuration into the stores and collaborators used
// by the mediascan commands.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/pevans/mediascan"
	"github.com/pevans/mediascan/analysis"
	"github.com/pevans/mediascan/articles"
	"github.com/pevans/mediascan/classifier"
	"github.com/pevans/mediascan/config"
	"github.com/pevans/mediascan/discovery"
	"github.com/pevans/mediascan/fetcher"
	"github.com/pevans/mediascan/logging"
	"github.com/pevans/mediascan/notify"
	"github.com/pevans/mediascan/postgres"
	"github.com/pevans/mediascan/scraper"
	"github.com/pevans/mediascan/sources"
	"github.com/sirupsen/logrus"
)

// ErrNoAPIKey is returned when a run is requested without classifier
// credentials.
var ErrNoAPIKey = errors.New("no AI API key configured (set MEDIASCAN_AI_API_KEY or ai.api_key)")

// MediaAdmin is the media registry as used by the commands.
type MediaAdmin interface {
	mediascan.MediaRepository
	ListMedia(ctx context.Context, filter sources.MediaFilter) ([]mediascan.Media, error)
	SetActive(ctx context.Context, id int64, active bool) error
	Seed(ctx context.Context, roster scraper.Roster) (int, error)
}

// ArticleStore is the article store as used by the commands.
type ArticleStore interface {
	mediascan.ArticleRepository
	articles.Reader
}

// App holds the opened stores of one process.
type App struct {
	Config   *config.Config
	Log      *logrus.Logger
	Roster   scraper.Roster
	Media    MediaAdmin
	Articles ArticleStore

	// Registry is the media store behind the media HTTP API.
	Registry sources.Registry

	closers []func() error
}

// NewLogger builds the process logger from the log section.
func NewLogger(cfg *config.Config) (*logrus.Logger, error) {
	return logging.New(logging.Options{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
}

// Open loads the roster and opens the configured stores.
func Open(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*App, error) {
	roster, err := config.LoadRoster(cfg.RosterFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load roster: %w", err)
	}

	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}
	a := &App{Config: cfg, Log: log, Roster: roster}

	switch cfg.Storage.Type {
	case config.StoragePostgres:
		db, err := postgres.New(cfg.Storage.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		if err := db.Migrate(ctx); err != nil {
			a.Close()
			return nil, err
		}
		a.Media = db
		a.Articles = db
		a.Registry = db

	default:
		media, err := sources.NewMediaStore(cfg.Storage.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open media store: %w", err)
		}
		a.closers = append(a.closers, media.Close)

		store, err := articles.NewStore(cfg.Storage.ArticlesDSN)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to open article store: %w", err)
		}
		a.closers = append(a.closers, store.Close)

		a.Media = media
		a.Registry = media
		a.Articles = store
	}

	return a, nil
}

// Close closes every opened store.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// FetchConfig returns the retry policy of the fetch engine.
func (a *App) FetchConfig() fetcher.Config {
	return fetcher.Config{
		Retries:       a.Config.Browser.Retries,
		Timeout:       a.Config.Browser.Timeout,
		Backoff:       a.Config.Browser.Backoff,
		RatePerMinute: a.Config.Browser.RatePerMinute,
	}
}

// FetcherFactory launches the headless browser for each run.
func (a *App) FetcherFactory() mediascan.FetcherFactory {
	return func(ctx context.Context) (mediascan.Fetcher, error) {
		browser, err := fetcher.NewBrowser(ctx, fetcher.BrowserOptions{
			Headless: a.Config.Browser.Headless,
			ExecPath: a.Config.Browser.ExecPath,
			From:     a.Config.Browser.FromHeader,
		})
		if err != nil {
			return nil, err
		}
		return fetcher.NewEngine(browser, a.FetchConfig(), a.Log), nil
	}
}

// Classifier builds the AI classifier.
func (a *App) Classifier() (*classifier.Classifier, error) {
	if a.Config.AI.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	completer := classifier.NewOpenAICompleter(a.Config.AI.APIKey, a.Config.AI.BaseURL, a.Config.AI.Model)
	return classifier.New(completer, classifier.Config{RatePerMinute: a.Config.AI.RatePerMinute}, a.Log), nil
}

// Invalidator builds the configured cache invalidators, or nil when none
// is configured.
func (a *App) Invalidator() (mediascan.CacheInvalidator, error) {
	var invs notify.Invalidators
	n := a.Config.Notify

	if n.InvalidateURL != "" {
		invs = append(invs, notify.NewHTTPInvalidator(n.InvalidateURL, n.InvalidateTimeout, a.Log))
	}
	if n.RedisAddr != "" {
		redis, err := notify.NewRedisInvalidator(notify.RedisConfig{
			Addr:     n.RedisAddr,
			Password: n.RedisPassword,
			DB:       n.RedisDB,
			Pattern:  n.RedisPattern,
		}, a.Log)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, redis.Close)
		invs = append(invs, redis)
	}

	if len(invs) == 0 {
		return nil, nil
	}
	return invs, nil
}

// Reporter builds the run summary reporters. The log reporter is always
// present.
func (a *App) Reporter() (mediascan.Reporter, error) {
	reporters := notify.Reporters{notify.NewLogReporter(a.Articles, a.Log)}

	if a.Config.Notify.TelegramToken != "" {
		tg, err := notify.NewTelegramReporter(a.Config.Notify.TelegramToken, a.Config.Notify.TelegramChatID, a.Articles, a.Log)
		if err != nil {
			return nil, err
		}
		reporters = append(reporters, tg)
	}
	return reporters, nil
}

// Pipeline builds a pipeline over the opened stores. The analyzer is
// built once here and reused for every run of the pipeline.
func (a *App) Pipeline() (*mediascan.Pipeline, error) {
	cls, err := a.Classifier()
	if err != nil {
		return nil, err
	}

	analyzer, err := analysis.New()
	if err != nil {
		return nil, fmt.Errorf("failed to load language models: %w", err)
	}

	inv, err := a.Invalidator()
	if err != nil {
		return nil, err
	}

	reporter, err := a.Reporter()
	if err != nil {
		return nil, err
	}

	deps := mediascan.Dependencies{
		NewFetcher:  a.FetcherFactory(),
		Feeds:       discovery.NewFeedReader(a.Config.Browser.Timeout, fetcher.UserAgent),
		Media:       a.Media,
		Articles:    articles.NewSeenCache(a.Articles, articles.DefaultSeenTTL),
		Analyzer:    analyzer,
		Classifier:  cls,
		Invalidator: inv,
		Reporter:    reporter,
		Log:         a.Log,
	}

	return mediascan.NewPipeline(a.Roster, deps, mediascan.PipelineConfig{
		MaxCandidates: a.Config.Pipeline.MaxCandidates,
		MaxAccepted:   a.Config.Pipeline.MaxAccepted,
	}), nil
}

// ScheduleConfig returns the daemon schedule.
func (a *App) ScheduleConfig(runOnStart bool) mediascan.ScheduleConfig {
	return mediascan.ScheduleConfig{
		At:         a.Config.Schedule.At,
		Interval:   a.Config.Schedule.Interval,
		RunOnStart: runOnStart,
		RunTimeout: a.Config.Schedule.Timeout,
	}
}

// StartOfDay is the cutoff used for "today" statistics.
func StartOfDay() time.Time {
	return articles.StartOfDay(time.Now())
}
