package fetcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// ContentSelector is waited for after navigation. The first element that
// matches any of the alternatives ends the wait.
const ContentSelector = "main, article, #content, .content, .article, body"

const (
	viewportWidth  = 1920
	viewportHeight = 1080
)

// stealthScript masks the usual automation fingerprints before any page
// script runs.
const stealthScript = `
Object.defineProperty(navigator, 'webdriver', { get: () => undefined });
Object.defineProperty(navigator, 'languages', { get: () => ['en-US', 'en'] });
Object.defineProperty(navigator, 'plugins', { get: () => Array(3).fill().map(() => ({})) });
`

// BrowserOptions configures the shared headless browser.
type BrowserOptions struct {
	Headless bool
	// ExecPath overrides the Chrome binary lookup.
	ExecPath string
	// From is sent as the From request header when set.
	From string
}

// Browser is a headless Chrome instance shared by every fetch of a run.
// Each Load opens its own tab and closes it before returning.
type Browser struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	headers     network.Headers
}

// NewBrowser launches Chrome. An error here means the automation
// environment is unavailable.
func NewBrowser(ctx context.Context, opts BrowserOptions) (*Browser, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(UserAgent),
		chromedp.WindowSize(viewportWidth, viewportHeight),
	)
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	browserCtx, cancel := chromedp.NewContext(allocCtx)

	if err := chromedp.Run(browserCtx); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	headers := network.Headers{}
	for k, v := range Headers(opts.From) {
		headers[k] = v
	}

	return &Browser{
		ctx:         browserCtx,
		cancel:      cancel,
		allocCancel: allocCancel,
		headers:     headers,
	}, nil
}

// Close shuts the browser down.
func (b *Browser) Close() error {
	b.cancel()
	b.allocCancel()
	return nil
}

// Load opens a tab, navigates to url waiting only for the DOM to be parsed,
// checks the document status, waits for a plausible content element and
// returns the rendered HTML. The tab is always closed.
func (b *Browser) Load(ctx context.Context, url string, timeout time.Duration) (string, error) {
	tabCtx, closeTab := chromedp.NewContext(b.ctx)
	defer closeTab()
	stop := context.AfterFunc(ctx, closeTab)
	defer stop()

	nav := newNavState()
	chromedp.ListenTarget(tabCtx, nav.handle)

	if err := chromedp.Run(tabCtx, b.prepareTab()); err != nil {
		return "", fmt.Errorf("failed to prepare tab: %w", err)
	}

	navCtx, cancelNav := context.WithTimeout(tabCtx, timeout)
	defer cancelNav()

	var loaderID cdp.LoaderID
	err := chromedp.Run(navCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		_, id, errorText, err := page.Navigate(url).Do(ctx)
		if err != nil {
			return err
		}
		if errorText != "" {
			return fmt.Errorf("navigation failed: %s", errorText)
		}
		loaderID = id
		return nil
	}))
	if err != nil {
		return "", fmt.Errorf("failed to navigate: %w", err)
	}

	if err := nav.wait(navCtx, loaderID, "DOMContentLoaded"); err != nil {
		return "", fmt.Errorf("waiting for DOMContentLoaded: %w", err)
	}

	status, ok := nav.status(loaderID)
	if !ok {
		return "", ErrNoResponse
	}
	if status >= 400 {
		return "", &StatusError{Code: int(status)}
	}

	if err := b.waitForContent(tabCtx, nav, loaderID, timeout); err != nil {
		return "", err
	}

	var html string
	if err := chromedp.Run(tabCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("failed to read page content: %w", err)
	}
	return html, nil
}

// prepareTab applies the stealth script, viewport and request headers.
func (b *Browser) prepareTab() chromedp.Tasks {
	return chromedp.Tasks{
		network.Enable(),
		page.SetLifecycleEventsEnabled(true),
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(stealthScript).Do(ctx)
			return err
		}),
		chromedp.EmulateViewport(viewportWidth, viewportHeight),
		network.SetExtraHTTPHeaders(b.headers),
	}
}

// waitForContent waits for ContentSelector, falling back to network idle
// for half the timeout.
func (b *Browser) waitForContent(tabCtx context.Context, nav *navState, loaderID cdp.LoaderID, timeout time.Duration) error {
	waitCtx, cancel := context.WithTimeout(tabCtx, timeout)
	err := chromedp.Run(waitCtx, chromedp.WaitReady(ContentSelector, chromedp.ByQuery))
	cancel()
	if err == nil {
		return nil
	}

	idleCtx, cancelIdle := context.WithTimeout(tabCtx, timeout/2)
	defer cancelIdle()
	if err := nav.wait(idleCtx, loaderID, "networkIdle"); err != nil {
		return fmt.Errorf("page never became ready: %w", err)
	}
	return nil
}

// navState records document statuses and lifecycle events per loader as
// they arrive from the tab.
type navState struct {
	mu       sync.Mutex
	statuses map[cdp.LoaderID]int64
	events   map[cdp.LoaderID]map[string]bool
	changed  chan struct{}
}

func newNavState() *navState {
	return &navState{
		statuses: make(map[cdp.LoaderID]int64),
		events:   make(map[cdp.LoaderID]map[string]bool),
		changed:  make(chan struct{}, 1),
	}
}

// handle runs on the event loop and must not block.
func (s *navState) handle(ev any) {
	switch e := ev.(type) {
	case *network.EventResponseReceived:
		if e.Type != network.ResourceTypeDocument || e.Response == nil {
			return
		}
		s.mu.Lock()
		s.statuses[e.LoaderID] = e.Response.Status
		s.mu.Unlock()
	case *page.EventLifecycleEvent:
		s.mu.Lock()
		if s.events[e.LoaderID] == nil {
			s.events[e.LoaderID] = make(map[string]bool)
		}
		s.events[e.LoaderID][e.Name] = true
		s.mu.Unlock()
	default:
		return
	}

	select {
	case s.changed <- struct{}{}:
	default:
	}
}

func (s *navState) status(id cdp.LoaderID) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	code, ok := s.statuses[id]
	return code, ok
}

func (s *navState) seen(id cdp.LoaderID, name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events[id][name]
}

func (s *navState) wait(ctx context.Context, id cdp.LoaderID, name string) error {
	for !s.seen(id, name) {
		select {
		case <-s.changed:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
