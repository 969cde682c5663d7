package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pevans/mediascan/articles"
	"github.com/pevans/mediascan/notify"
)

func handleRun(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	format := fs.String("format", "text", "Output format: text or json")
	maxCandidates := fs.Int("max-candidates", 0, "Candidate links per source (overrides config)")
	maxAccepted := fs.Int("max-accepted", 0, "Accepted articles per source (overrides config)")
	headed := fs.Bool("headed", false, "Show the browser window")
	fs.Parse(args)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := openApp(ctx)
	defer a.Close()

	if *maxCandidates > 0 {
		a.Config.Pipeline.MaxCandidates = *maxCandidates
	}
	if *maxAccepted > 0 {
		a.Config.Pipeline.MaxAccepted = *maxAccepted
	}
	if *headed {
		a.Config.Browser.Headless = false
	}

	pipeline, err := a.Pipeline()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	result, err := pipeline.Run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: run failed: %v\n", err)
		os.Exit(1)
	}

	if *format == "json" {
		printJSON(result)
		return
	}

	// A cancelled run context must not hide the summary.
	stats, err := a.Articles.LabelStats(context.Background(), articles.StartOfDay(result.StartedAt))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load label stats: %v\n", err)
		stats = nil
	}
	fmt.Println(notify.FormatSummary(result, stats, notify.DefaultTopLabels))
}
