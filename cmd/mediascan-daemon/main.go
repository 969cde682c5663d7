package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pevans/mediascan"
	"github.com/pevans/mediascan/app"
	"github.com/pevans/mediascan/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Flags default to the resolved configuration, so they take precedence
	// over file and environment.
	at := flag.String("at", cfg.Schedule.At, "Daily start time HH:MM, empty to run every -interval (MEDIASCAN_SCHEDULE_AT)")
	interval := flag.Duration("interval", cfg.Schedule.Interval, "Time between runs when -at is empty (MEDIASCAN_SCHEDULE_INTERVAL)")
	runTimeout := flag.Duration("run-timeout", cfg.Schedule.Timeout, "Upper bound on one run (MEDIASCAN_RUN_TIMEOUT)")
	runOnStart := flag.Bool("run-on-start", false, "Run once immediately on start")
	shutdownTimeout := flag.Duration("shutdown-timeout", 60*time.Second, "How long a run in progress may take to finish on shutdown")
	flag.Parse()

	cfg.Schedule.At = *at
	cfg.Schedule.Interval = *interval
	cfg.Schedule.Timeout = *runTimeout

	log, err := app.NewLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.Open(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to open stores")
	}
	defer a.Close()

	pipeline, err := a.Pipeline()
	if err != nil {
		log.WithError(err).Fatal("Failed to build pipeline")
	}

	scheduler, err := mediascan.NewScheduler(pipeline, a.ScheduleConfig(*runOnStart), log)
	if err != nil {
		log.WithError(err).Fatal("Invalid schedule")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT, syscall.SIGHUP)

	errChan := make(chan error, 1)
	go func() {
		errChan <- scheduler.Run(ctx)
	}()

	for {
		select {
		case sig := <-sigChan:
			log.WithField("signal", sig.String()).Info("Received signal")
			if sig == syscall.SIGHUP {
				log.Info("SIGHUP ignored; restart the daemon to reload configuration")
				continue
			}

			log.Info("Shutting down gracefully...")
			scheduler.Stop()

			shutdownTimer := time.NewTimer(*shutdownTimeout)
			select {
			case <-errChan:
				log.Info("Scheduler stopped")
			case <-shutdownTimer.C:
				log.Warn("Shutdown timeout exceeded, cancelling run in progress")
				cancel()
				<-errChan
			}
			return

		case err := <-errChan:
			if err != nil && !errors.Is(err, context.Canceled) {
				log.WithError(err).Error("Scheduler error")
				a.Close()
				os.Exit(1)
			}
			return
		}
	}
}
