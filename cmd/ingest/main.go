// Command ingest scans the input directory, ingests files not yet in the
// ledger and prints a summary. It takes no arguments; everything is
// configured through the environment.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/anybrain-ai/anybrain/internal/app"
	"github.com/anybrain-ai/anybrain/internal/config"
)

func main() {
	log := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(log)

	if err := run(log); err != nil {
		log.Error("ingestion failed", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	// First run convenience: create the input directory and tell the
	// user where to put files.
	if _, err := os.Stat(cfg.InputDir); os.IsNotExist(err) {
		if err := os.MkdirAll(cfg.InputDir, 0o755); err != nil {
			return fmt.Errorf("create input dir: %w", err)
		}
		log.Info("input directory created, put your files there", "dir", cfg.InputDir)
		return nil
	}

	application, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer application.Close()

	report, err := application.Pipeline.Run(ctx)
	if err != nil {
		return err
	}

	if report.Discovered == 0 {
		fmt.Println("Everything is up to date. No new files.")
		return nil
	}
	fmt.Printf("Done: %d of %d new files ingested.\n", report.Ingested, report.Discovered)
	return nil
}
