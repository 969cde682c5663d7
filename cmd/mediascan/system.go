package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/pevans/mediascan/app"
	"github.com/pevans/mediascan/config"
	"github.com/pevans/mediascan/sources"
)

func handleInit(args []string) {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	force := fs.Bool("force", false, "Overwrite an existing config file")
	noSeed := fs.Bool("no-seed", false, "Do not create media records for the roster")
	fs.Parse(args)

	fmt.Println("Initializing mediascan...")
	fmt.Println()

	configPath, err := config.ConfigFilePath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "  ✗ %v\n", err)
		os.Exit(1)
	}

	created, err := config.WriteDefaultConfigFile(*force)
	if err != nil {
		fmt.Fprintf(os.Stderr, "  ✗ Failed to create config file: %v\n", err)
		os.Exit(1)
	}
	if created {
		fmt.Printf("  ✓ Config file: %s\n", configPath)
	} else {
		fmt.Printf("  Config file: %s (already exists)\n", configPath)
	}

	// Stores are created on open, at the paths of the config just written.
	ctx := context.Background()
	a := openApp(ctx)
	defer a.Close()

	switch a.Config.Storage.Type {
	case config.StoragePostgres:
		fmt.Println("  ✓ Postgres schema migrated")
	default:
		fmt.Printf("  ✓ Media database: %s\n", a.Config.Storage.DSN)
		fmt.Printf("  ✓ Article database: %s\n", a.Config.Storage.ArticlesDSN)
	}

	if !*noSeed {
		n, err := a.Media.Seed(ctx, a.Roster)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  ✗ Failed to seed media: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("  ✓ Seeded %d media records\n", n)
	}

	fmt.Println()
	fmt.Println("Set MEDIASCAN_AI_API_KEY (or ai.api_key) before running 'mediascan run'.")
}

func handleDoctor(args []string) {
	fs := flag.NewFlagSet("doctor", flag.ExitOnError)
	fs.Parse(args)

	ok := true
	fail := func(format string, args ...any) {
		ok = false
		fmt.Printf("  ✗ "+format+"\n", args...)
	}

	fmt.Println("Checking mediascan...")
	fmt.Println()

	cfg, err := config.Load()
	if err != nil {
		fail("Configuration: %v", err)
		os.Exit(1)
	}
	fmt.Printf("  ✓ Configuration (storage: %s)\n", cfg.Storage.Type)

	log, err := app.NewLogger(cfg)
	if err != nil {
		fail("Logging: %v", err)
		os.Exit(1)
	}

	ctx := context.Background()
	a, err := app.Open(ctx, cfg, log)
	if err != nil {
		fail("Stores: %v", err)
		os.Exit(1)
	}
	defer a.Close()
	fmt.Printf("  ✓ Roster: %d sources\n", len(a.Roster))

	active := true
	media, err := a.Media.ListMedia(ctx, sources.MediaFilter{Active: &active})
	switch {
	case err != nil:
		fail("Media: %v", err)
	case len(media) == 0:
		fail("Media: no active records (run 'mediascan media seed')")
	default:
		fmt.Printf("  ✓ Media: %d active\n", len(media))
	}

	stats, err := a.Articles.LabelStats(ctx, app.StartOfDay())
	if err != nil {
		fail("Articles: %v", err)
	} else {
		fmt.Printf("  ✓ Articles: %d stored today\n", stats.Articles)
	}

	if _, err := a.Classifier(); err != nil {
		fail("Classifier: %v", err)
	} else {
		fmt.Printf("  ✓ Classifier: %s\n", cfg.AI.Model)
	}

	if _, err := a.Invalidator(); err != nil {
		fail("Cache invalidation: %v", err)
	} else if cfg.Notify.InvalidateURL == "" && cfg.Notify.RedisAddr == "" {
		fmt.Println("  - Cache invalidation: not configured")
	} else {
		fmt.Println("  ✓ Cache invalidation")
	}

	if cfg.Notify.TelegramToken == "" {
		fmt.Println("  - Telegram summary: not configured")
	} else if _, err := a.Reporter(); err != nil {
		fail("Telegram summary: %v", err)
	} else {
		fmt.Println("  ✓ Telegram summary")
	}

	fmt.Println()
	if !ok {
		fmt.Println("Some checks failed.")
		os.Exit(1)
	}
	fmt.Println("All checks passed.")
}
