package main

import (
	"context"
	"flag"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pevans/mediascan/config"
	"github.com/pevans/mediascan/discovery"
	"github.com/pevans/mediascan/extract"
	"github.com/pevans/mediascan/fetcher"
	"github.com/pevans/mediascan/scraper"
)

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func handleScrapeTest(args []string) {
	fs := flag.NewFlagSet("scrape-test", flag.ExitOnError)
	maxPages := fs.Int("max", 5, "Maximum number of article pages to fetch")
	outDir := fs.String("out", "htmls", "Directory for the page dumps")
	useBrowser := fs.Bool("browser", false, "Fetch with the headless browser instead of plain HTTP")

	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "Error: roster key, name or URL is required\n")
		fmt.Fprintf(os.Stderr, "Usage: mediascan scrape-test <key|name|url> [-max n] [-out dir] [-browser]\n")
		os.Exit(1)
	}
	target := args[0]
	fs.Parse(args[1:])

	cfg, log := loadConfig()

	roster, err := config.LoadRoster(cfg.RosterFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load roster: %v\n", err)
		os.Exit(1)
	}

	src, landing, ok := findSource(roster, target)
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: no roster entry matches %q\n", target)
		os.Exit(1)
	}

	ctx := context.Background()

	var loader fetcher.PageLoader = fetcher.NewHTTPLoader(cfg.Browser.FromHeader)
	if *useBrowser {
		browser, err := fetcher.NewBrowser(ctx, fetcher.BrowserOptions{
			Headless: cfg.Browser.Headless,
			ExecPath: cfg.Browser.ExecPath,
			From:     cfg.Browser.FromHeader,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to start browser: %v\n", err)
			os.Exit(1)
		}
		loader = browser
	}
	engine := fetcher.NewEngine(loader, fetcher.Config{
		Retries:       cfg.Browser.Retries,
		Timeout:       cfg.Browser.Timeout,
		Backoff:       cfg.Browser.Backoff,
		RatePerMinute: cfg.Browser.RatePerMinute,
	}, log)
	defer engine.Close()

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to create %s: %v\n", *outDir, err)
		os.Exit(1)
	}

	fmt.Printf("Source:   %s (%s, %s)\n", src.Name, src.Key, src.Strategy)
	fmt.Printf("Landing:  %s\n", landing)
	fmt.Println()

	var links []string
	if src.FeedURL != "" {
		reader := discovery.NewFeedReader(cfg.Browser.Timeout, fetcher.UserAgent)
		hrefs, err := reader.Hrefs(ctx, src.FeedURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to read feed: %v\n", err)
			os.Exit(1)
		}
		links = discovery.CollectLinks(hrefs, landing, src, *maxPages)
	} else {
		content, err := engine.Fetch(ctx, landing)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to fetch landing page: %v\n", err)
			os.Exit(1)
		}
		path := filepath.Join(*outDir, "landing.html")
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to write %s: %v\n", path, err)
			os.Exit(1)
		}
		fmt.Printf("✓ Landing page: %s (%d bytes)\n", path, len(content))

		links, err = discovery.DiscoverLinks(content, landing, src, *maxPages)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	fmt.Printf("Discovered %d links\n\n", len(links))

	extractor, err := extract.ForConfig(src)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	for _, link := range links {
		fmt.Println(link)

		content, err := engine.Fetch(ctx, link)
		if err != nil {
			fmt.Printf("  ✗ Fetch: %v\n", err)
			continue
		}

		stripped, err := extract.StripPage(content)
		if err != nil {
			fmt.Printf("  ✗ Strip: %v\n", err)
			continue
		}
		path := filepath.Join(*outDir, dumpName(link))
		if err := os.WriteFile(path, []byte(stripped), 0o644); err != nil {
			fmt.Printf("  ✗ Write: %v\n", err)
			continue
		}
		fmt.Printf("  ✓ Dump: %s\n", path)

		article, err := extractor.Extract(content, link)
		if err != nil {
			fmt.Printf("  ✗ Extract: %v\n", err)
			continue
		}
		fmt.Printf("  ✓ %s (%d characters)\n", truncate(article.Title, 80), article.Length)
	}
}

// findSource looks target up by roster key or name, then as a URL under a
// roster key. It returns the page to start discovery from.
func findSource(roster scraper.Roster, target string) (scraper.SourceConfig, string, bool) {
	if src, ok := roster.Lookup(target); ok {
		return src, src.Key, true
	}
	if !strings.Contains(target, "://") {
		return scraper.SourceConfig{}, "", false
	}
	for _, src := range roster {
		if strings.Contains(target, src.Key) {
			return src, target, true
		}
	}
	return scraper.SourceConfig{}, "", false
}

// dumpName names the dump of link after its last path segment
func dumpName(link string) string {
	name := ""
	if u, err := url.Parse(link); err == nil {
		segments := strings.Split(strings.Trim(u.Path, "/"), "/")
		name = segments[len(segments)-1]
	}

	name = strings.TrimSuffix(name, ".html")
	name = strings.Trim(unsafeFileChars.ReplaceAllString(name, "_"), "_.")
	if name == "" {
		name = "index"
	}
	return name + ".html"
}
