package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/pevans/mediascan/sources"
)

func handleMedia(args []string) {
	if len(args) < 1 {
		printMediaUsage()
		os.Exit(1)
	}

	action := args[0]
	actionArgs := args[1:]

	switch action {
	case "list":
		handleMediaList(actionArgs)
	case "seed":
		handleMediaSeed(actionArgs)
	case "enable":
		handleMediaSetActive(actionArgs, true)
	case "disable":
		handleMediaSetActive(actionArgs, false)
	default:
		fmt.Fprintf(os.Stderr, "Unknown media action: %s\n\n", action)
		printMediaUsage()
		os.Exit(1)
	}
}

func printMediaUsage() {
	fmt.Println("Usage: mediascan media <action> [arguments]")
	fmt.Println()
	fmt.Println("Actions:")
	fmt.Println("  list [-active|-inactive] [-format text|json]")
	fmt.Println("  seed")
	fmt.Println("  enable <id>")
	fmt.Println("  disable <id>")
}

func handleMediaList(args []string) {
	fs := flag.NewFlagSet("media list", flag.ExitOnError)
	onlyActive := fs.Bool("active", false, "Only active media")
	onlyInactive := fs.Bool("inactive", false, "Only inactive media")
	format := fs.String("format", "text", "Output format: text or json")
	fs.Parse(args)

	if *onlyActive && *onlyInactive {
		fmt.Fprintf(os.Stderr, "Error: -active and -inactive are mutually exclusive\n")
		os.Exit(1)
	}

	var filter sources.MediaFilter
	switch {
	case *onlyActive:
		active := true
		filter.Active = &active
	case *onlyInactive:
		inactive := false
		filter.Active = &inactive
	}

	ctx := context.Background()
	a := openApp(ctx)
	defer a.Close()

	media, err := a.Media.ListMedia(ctx, filter)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to list media: %v\n", err)
		os.Exit(1)
	}

	if *format == "json" {
		printJSON(map[string]any{"media": media, "total": len(media)})
		return
	}
	printMediaTable(media)
}

func handleMediaSeed(args []string) {
	fs := flag.NewFlagSet("media seed", flag.ExitOnError)
	fs.Parse(args)

	ctx := context.Background()
	a := openApp(ctx)
	defer a.Close()

	created, err := a.Media.Seed(ctx, a.Roster)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to seed media: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✓ Created %d media records (%d sources in roster)\n", created, len(a.Roster))
}

func handleMediaSetActive(args []string, active bool) {
	verb := "enable"
	if !active {
		verb = "disable"
	}

	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "Error: media ID is required\n")
		fmt.Fprintf(os.Stderr, "Usage: mediascan media %s <id>\n", verb)
		os.Exit(1)
	}

	id, err := parseMediaID(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	a := openApp(ctx)
	defer a.Close()

	if err := a.Media.SetActive(ctx, id, active); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to %s media: %v\n", verb, err)
		os.Exit(1)
	}

	fmt.Printf("✓ Media %d %sd\n", id, verb)
}
