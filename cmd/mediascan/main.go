package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pevans/mediascan/app"
	"github.com/pevans/mediascan/config"
	"github.com/sirupsen/logrus"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "run":
		handleRun(args)
	case "media":
		handleMedia(args)
	case "articles":
		handleArticles(args)
	case "scrape-test":
		handleScrapeTest(args)
	case "init":
		handleInit(args)
	case "doctor":
		handleDoctor(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("mediascan - news article extraction pipeline")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  mediascan <command> [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  run                           Run the pipeline once over every active source")
	fmt.Println("  media list                    List media records")
	fmt.Println("  media seed                    Create media records for the roster")
	fmt.Println("  media enable <id>             Reactivate a media record")
	fmt.Println("  media disable <id>            Deactivate a media record")
	fmt.Println("  articles list                 List stored articles")
	fmt.Println("  articles show <id>            Show one stored article")
	fmt.Println("  articles stats                Show label counts")
	fmt.Println("  scrape-test <key|url>         Dump landing and article pages of one source")
	fmt.Println("  init                          Write the default config and create stores")
	fmt.Println("  doctor                        Check configuration and stores")
	fmt.Println()
	fmt.Println("Configuration is read from ~/.mediascan/config.yaml, .env and MEDIASCAN_* variables.")
}

// loadConfig resolves configuration and the logger, exiting on error.
func loadConfig() (*config.Config, *logrus.Logger) {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := app.NewLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return cfg, log
}

// openApp opens the configured stores, exiting on error. Callers close the
// returned app.
func openApp(ctx context.Context) *app.App {
	cfg, log := loadConfig()

	a, err := app.Open(ctx, cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return a
}
