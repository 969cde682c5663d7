// Package mediascan harvests articles from a roster of news sites. A run
// fetches each active source's landing page, discovers candidate article
// links, extracts and analyses each new article and stores the result.
package mediascan

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pevans/mediascan/analysis"
	"github.com/pevans/mediascan/classifier"
	"github.com/pevans/mediascan/discovery"
	"github.com/pevans/mediascan/extract"
	"github.com/pevans/mediascan/fetcher"
	"github.com/pevans/mediascan/scraper"
	"github.com/sirupsen/logrus"
)

const (
	DefaultMaxCandidates = discovery.DefaultMaxCandidates
	DefaultMaxAccepted   = 5
)

// Fetcher loads a page and returns its HTML.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
	Close() error
}

// FetcherFactory creates the fetcher shared by one run. An error means the
// browser environment is unavailable and aborts the run.
type FetcherFactory func(ctx context.Context) (Fetcher, error)

// FeedSource returns the item links of an RSS or Atom feed.
type FeedSource interface {
	Hrefs(ctx context.Context, feedURL string) ([]string, error)
}

// MediaRepository resolves and deactivates persisted sources.
type MediaRepository interface {
	ActiveMedia(ctx context.Context) ([]Media, error)
	// Deactivate reports false when no record was changed.
	Deactivate(ctx context.Context, id int64) (bool, error)
}

// ArticleRepository is the dedup check and article sink.
type ArticleRepository interface {
	Exists(ctx context.Context, url string) (bool, error)
	Persist(ctx context.Context, article *Article, words map[string]int, pos map[string]string) error
}

// TextAnalyzer computes the linguistic profile of article text.
type TextAnalyzer interface {
	Analyze(ctx context.Context, text string) (*analysis.Result, error)
}

// Classifier labels article text with sentiments and ideologies.
type Classifier interface {
	Classify(ctx context.Context, text string) (*classifier.Labels, error)
}

// CacheInvalidator purges downstream caches after a run.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// Reporter publishes the run summary.
type Reporter interface {
	Report(ctx context.Context, result *RunResult) error
}

// Dependencies are the collaborators of a pipeline. Feeds, Invalidator and
// Reporter are optional.
type Dependencies struct {
	NewFetcher  FetcherFactory
	Feeds       FeedSource
	Media       MediaRepository
	Articles    ArticleRepository
	Analyzer    TextAnalyzer
	Classifier  Classifier
	Invalidator CacheInvalidator
	Reporter    Reporter
	Log         logrus.FieldLogger
}

// PipelineConfig bounds the work done per source.
type PipelineConfig struct {
	// MaxCandidates caps discovered links per source.
	MaxCandidates int
	// MaxAccepted stops a source once this many articles were stored.
	MaxAccepted int
}

// ResolvedSource is a configured source bound to its media record for one
// run.
type ResolvedSource struct {
	Config scraper.SourceConfig
	// URL is the persisted media URL; landing pages are fetched from it and
	// relative links are resolved against it.
	URL string
}

// RunOutcome counts what happened to one source during a run.
type RunOutcome struct {
	Source     string `json:"source"`
	Name       string `json:"name"`
	SourceID   int64  `json:"source_id"`
	Discovered int    `json:"discovered"`
	Attempted  int    `json:"attempted"`
	Accepted   int    `json:"accepted"`
	Duplicates int    `json:"duplicates"`
	Failed     int    `json:"failed"`
	// SourceFailed is set when the landing page or link discovery failed.
	SourceFailed bool  `json:"source_failed"`
	Deactivated  bool  `json:"deactivated"`
	Err          error `json:"-"`
}

// RunResult is the summary of one run.
type RunResult struct {
	RunID      uuid.UUID    `json:"run_id"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Outcomes   []RunOutcome `json:"outcomes"`
	// Unresolved lists configured sources with no active media record.
	Unresolved []string `json:"unresolved"`
}

// Accepted returns the number of articles stored across all sources.
func (r *RunResult) Accepted() int {
	n := 0
	for _, o := range r.Outcomes {
		n += o.Accepted
	}
	return n
}

// FailedSources returns the outcomes of sources that failed entirely.
func (r *RunResult) FailedSources() []RunOutcome {
	var failed []RunOutcome
	for _, o := range r.Outcomes {
		if o.SourceFailed {
			failed = append(failed, o)
		}
	}
	return failed
}

// Pipeline drives runs over a fixed roster. Sources are processed one after
// another and the links of a source sequentially.
type Pipeline struct {
	roster scraper.Roster
	deps   Dependencies
	cfg    PipelineConfig
	log    logrus.FieldLogger
	now    func() time.Time
}

// NewPipeline creates a pipeline. The roster is expected to be validated.
func NewPipeline(roster scraper.Roster, deps Dependencies, cfg PipelineConfig) *Pipeline {
	if cfg.MaxCandidates <= 0 {
		cfg.MaxCandidates = DefaultMaxCandidates
	}
	if cfg.MaxAccepted <= 0 {
		cfg.MaxAccepted = DefaultMaxAccepted
	}

	log := deps.Log
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}

	return &Pipeline{
		roster: roster,
		deps:   deps,
		cfg:    cfg,
		log:    log,
		now:    time.Now,
	}
}

// ResolveSources binds each configured source to the first active media
// record whose URL contains the configured key. Sources without a match
// are returned by key in unresolved. The roster is not modified.
func ResolveSources(roster scraper.Roster, media []Media) (resolved []ResolvedSource, unresolved []string) {
	for _, cfg := range roster {
		key := strings.TrimSuffix(cfg.Key, "/")
		found := false
		for _, m := range media {
			if !m.Active || !strings.Contains(m.URL, key) {
				continue
			}
			resolved = append(resolved, ResolvedSource{
				Config: cfg.WithMedia(m.ID, m.Active),
				URL:    strings.TrimSpace(m.URL),
			})
			found = true
			break
		}
		if !found {
			unresolved = append(unresolved, cfg.Key)
		}
	}
	return resolved, unresolved
}

// Run performs one harvest across every resolved source. The only error
// returned is a failure to list media or to create the fetcher; every
// other failure is logged and recorded in the result.
func (p *Pipeline) Run(ctx context.Context) (*RunResult, error) {
	result := &RunResult{
		RunID:     uuid.New(),
		StartedAt: p.now(),
	}
	log := p.log.WithField("run_id", result.RunID.String())

	media, err := p.deps.Media.ActiveMedia(ctx)
	if err != nil {
		return nil, &StorageError{Op: "list media", Err: err}
	}

	sources, unresolved := ResolveSources(p.roster, media)
	result.Unresolved = unresolved
	for _, key := range unresolved {
		log.WithField("source", key).Debug("No active media record, skipping source")
	}
	if len(sources) == 0 {
		log.Info("No active sources to harvest")
		result.FinishedAt = p.now()
		return result, nil
	}

	pages, err := p.deps.NewFetcher(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create fetcher: %w", err)
	}

	log.WithField("sources", len(sources)).Info("Run starting")
	for _, src := range sources {
		if ctx.Err() != nil {
			log.WithError(ctx.Err()).Warn("Run cancelled, skipping remaining sources")
			break
		}
		result.Outcomes = append(result.Outcomes, p.ProcessSource(ctx, pages, src, log))
	}

	if err := pages.Close(); err != nil {
		log.WithError(err).Warn("Failed to close fetcher")
	}

	result.FinishedAt = p.now()
	log.WithFields(logrus.Fields{
		"accepted": result.Accepted(),
		"failed":   len(result.FailedSources()),
		"duration": result.FinishedAt.Sub(result.StartedAt).String(),
	}).Info("Run finished")

	p.finish(ctx, result, log)
	return result, nil
}

// finish invalidates downstream caches, then posts the summary. Failures
// are logged only.
func (p *Pipeline) finish(ctx context.Context, result *RunResult, log logrus.FieldLogger) {
	if p.deps.Invalidator != nil {
		if err := p.deps.Invalidator.Invalidate(ctx); err != nil {
			log.WithError(err).Warn("Cache invalidation failed")
		} else {
			log.Info("Cache invalidated")
		}
	}

	if p.deps.Reporter != nil {
		if err := p.deps.Reporter.Report(ctx, result); err != nil {
			log.WithError(err).Error("Failed to post run summary")
		}
	}
}

// ProcessSource discovers the candidate links of one source and processes
// them until MaxAccepted articles are stored. A discovery failure
// deactivates the source.
func (p *Pipeline) ProcessSource(ctx context.Context, pages Fetcher, src ResolvedSource, log logrus.FieldLogger) RunOutcome {
	cfg := src.Config
	outcome := RunOutcome{Source: cfg.Key, Name: cfg.Name, SourceID: cfg.SourceID}
	log = log.WithField("source", cfg.Name)

	extractor, err := extract.ForConfig(cfg)
	if err != nil {
		outcome.Err = err
		log.WithError(err).Error("Source has no usable extractor")
		return outcome
	}

	links, err := p.discover(ctx, pages, src)
	if err != nil && ctx.Err() != nil {
		// A cancelled run says nothing about the source.
		outcome.Err = err
		log.WithError(err).Warn("Run cancelled during discovery")
		return outcome
	}
	if err != nil {
		outcome.SourceFailed = true
		outcome.Err = &SourceFailure{Source: cfg.Key, Err: err}
		log.WithError(err).Error("Source failed, deactivating")
		outcome.Deactivated = p.deactivate(ctx, cfg.SourceID, log)
		return outcome
	}
	outcome.Discovered = len(links)
	log.WithField("links", len(links)).Info("Discovered candidate links")

	for _, link := range links {
		if outcome.Accepted >= p.cfg.MaxAccepted || ctx.Err() != nil {
			break
		}
		entry := log.WithField("url", link)

		exists, err := p.deps.Articles.Exists(ctx, link)
		if err != nil {
			outcome.Failed++
			entry.WithError(&StorageError{Op: "exists", Err: err}).Warn("Dedup check failed, skipping article")
			continue
		}
		if exists {
			outcome.Duplicates++
			entry.Debug("Already stored, skipping")
			continue
		}

		outcome.Attempted++
		if err := p.processLink(ctx, pages, extractor, cfg.SourceID, link); err != nil {
			outcome.Failed++
			entry.WithError(err).Warn("Skipping article")
			continue
		}
		outcome.Accepted++
		entry.Info("Article stored")
	}

	log.WithFields(logrus.Fields{
		"accepted":   outcome.Accepted,
		"duplicates": outcome.Duplicates,
		"failed":     outcome.Failed,
	}).Info("Source done")
	return outcome
}

func (p *Pipeline) discover(ctx context.Context, pages Fetcher, src ResolvedSource) ([]string, error) {
	cfg := src.Config
	base := src.URL
	if base == "" {
		base = cfg.Key
	}

	if cfg.FeedURL != "" && p.deps.Feeds != nil {
		hrefs, err := p.deps.Feeds.Hrefs(ctx, cfg.FeedURL)
		if err != nil {
			return nil, err
		}
		links := discovery.CollectLinks(hrefs, base, cfg, p.cfg.MaxCandidates)
		if len(links) == 0 {
			return nil, fmt.Errorf("%w in feed %s", discovery.ErrNoCandidates, cfg.FeedURL)
		}
		return links, nil
	}

	content, err := pages.Fetch(ctx, base)
	if err != nil {
		return nil, err
	}
	return discovery.DiscoverLinks(content, base, cfg, p.cfg.MaxCandidates)
}

func (p *Pipeline) deactivate(ctx context.Context, id int64, log logrus.FieldLogger) bool {
	ok, err := p.deps.Media.Deactivate(ctx, id)
	if err != nil {
		log.WithError(&StorageError{Op: "deactivate", Err: err}).Error("Failed to deactivate source")
		return false
	}
	if !ok {
		log.WithField("source_id", id).Error("Source was not deactivated")
	}
	return ok
}

// processLink runs fetch, extract, analyse, classify and persist for one
// candidate link.
func (p *Pipeline) processLink(ctx context.Context, pages Fetcher, extractor extract.Extractor, mediaID int64, link string) error {
	content, err := pages.Fetch(ctx, link)
	if err != nil {
		return err
	}

	extracted, err := extractor.Extract(content, link)
	if err != nil {
		return err
	}

	profile, err := p.deps.Analyzer.Analyze(ctx, extracted.Text)
	if err != nil {
		return &AnalysisError{Stage: StageLinguistic, Err: err}
	}

	labels, err := p.deps.Classifier.Classify(ctx, extracted.Text)
	if err != nil {
		return &AnalysisError{Stage: StageClassification, Err: err}
	}
	if labels == nil || len(labels.Sentiments) < classifier.LabelsPerAxis || len(labels.Ideologies) < classifier.LabelsPerAxis {
		return &AnalysisError{Stage: StageClassification, Err: classifier.ErrInsufficientLabels}
	}

	article := &Article{
		ID:          uuid.New(),
		MediaID:     mediaID,
		Title:       extracted.Title,
		URL:         link,
		Text:        profile.Text,
		CommonWords: profile.CommonWords,
		Entities:    profile.Entities,
		Sentiments:  labels.Sentiments,
		Ideologies:  labels.Ideologies,
		WordCount:   profile.WordCount,
		Length:      profile.Length,
		InsertedAt:  p.now(),
	}
	if err := p.deps.Articles.Persist(ctx, article, profile.Frequencies, profile.POSTags); err != nil {
		return &StorageError{Op: "persist", Err: err}
	}
	return nil
}

// IsArticleError reports whether err is one of the article-scoped errors a
// run recovers from by moving to the next link.
func IsArticleError(err error) bool {
	var (
		analysisErr *AnalysisError
		storageErr  *StorageError
		lengthErr   *extract.ArticleLengthError
		extractErr  *extract.ExtractionError
		fetchErr    *fetcher.FetchError
	)
	return errors.As(err, &analysisErr) ||
		errors.As(err, &storageErr) ||
		errors.As(err, &lengthErr) ||
		errors.As(err, &extractErr) ||
		errors.As(err, &fetchErr)
}
