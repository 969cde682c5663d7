package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/pevans/mediascan"
	"github.com/pevans/mediascan/app"
)

func handleArticles(args []string) {
	if len(args) < 1 {
		printArticlesUsage()
		os.Exit(1)
	}

	action := args[0]
	actionArgs := args[1:]

	switch action {
	case "list":
		handleArticlesList(actionArgs)
	case "show":
		handleArticlesShow(actionArgs)
	case "stats":
		handleArticlesStats(actionArgs)
	default:
		fmt.Fprintf(os.Stderr, "Unknown articles action: %s\n\n", action)
		printArticlesUsage()
		os.Exit(1)
	}
}

func printArticlesUsage() {
	fmt.Println("Usage: mediascan articles <action> [arguments]")
	fmt.Println()
	fmt.Println("Actions:")
	fmt.Println("  list [-media id] [-since 24h|7d|RFC3339] [-limit n] [-offset n] [-format text|json]")
	fmt.Println("  show <id> [-format text|json]")
	fmt.Println("  stats [-since 24h|7d|RFC3339] [-format text|json]")
}

func handleArticlesList(args []string) {
	fs := flag.NewFlagSet("articles list", flag.ExitOnError)
	mediaID := fs.Int64("media", 0, "Only articles of this media record")
	since := fs.String("since", "", "Only articles inserted since this time or duration")
	limit := fs.Int("limit", 20, "Maximum number of articles")
	offset := fs.Int("offset", 0, "Number of articles to skip")
	format := fs.String("format", "text", "Output format: text or json")
	fs.Parse(args)

	filter := mediascan.ArticleFilter{
		MediaID: *mediaID,
		Limit:   *limit,
		Offset:  *offset,
	}
	if *since != "" {
		t, err := parseSince(*since, time.Now())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		filter.Since = t
	}

	ctx := context.Background()
	a := openApp(ctx)
	defer a.Close()

	list, err := a.Articles.ListArticles(ctx, filter)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to list articles: %v\n", err)
		os.Exit(1)
	}

	if *format == "json" {
		printJSON(map[string]any{"articles": list, "limit": *limit, "offset": *offset})
		return
	}
	printArticlesTable(list, *offset)
}

func handleArticlesShow(args []string) {
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "Error: article ID is required\n")
		fmt.Fprintf(os.Stderr, "Usage: mediascan articles show <id>\n")
		os.Exit(1)
	}

	id, err := uuid.Parse(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid article ID: %v\n", err)
		os.Exit(1)
	}

	fs := flag.NewFlagSet("articles show", flag.ExitOnError)
	format := fs.String("format", "text", "Output format: text or json")
	fs.Parse(args[1:])

	ctx := context.Background()
	a := openApp(ctx)
	defer a.Close()

	article, err := a.Articles.GetArticle(ctx, id)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to get article: %v\n", err)
		os.Exit(1)
	}

	if *format == "json" {
		printJSON(article)
		return
	}
	printArticle(article)
}

func handleArticlesStats(args []string) {
	fs := flag.NewFlagSet("articles stats", flag.ExitOnError)
	since := fs.String("since", "", "Count articles inserted since this time or duration (default: today)")
	format := fs.String("format", "text", "Output format: text or json")
	fs.Parse(args)

	cutoff := app.StartOfDay()
	if *since != "" {
		t, err := parseSince(*since, time.Now())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		cutoff = t
	}

	ctx := context.Background()
	a := openApp(ctx)
	defer a.Close()

	stats, err := a.Articles.LabelStats(ctx, cutoff)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load label stats: %v\n", err)
		os.Exit(1)
	}

	if *format == "json" {
		printJSON(stats)
		return
	}
	printLabelStats(stats)
}
