package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jessevdk/go-flags"
	"go.uber.org/zap"

	"recipe-ingestor/internal/app"
	"recipe-ingestor/internal/core/discovery"
	"recipe-ingestor/internal/infrastructure/config"
	"recipe-ingestor/internal/pkg/common"
)

type options struct {
	Limit     int      `long:"limit" short:"n" env:"DISCOVER_LIMIT" default:"10" description:"Maximum number of recipe URLs to process"`
	Strict    bool     `long:"strict" description:"Reject ingredient lines that cannot be parsed"`
	DryRun    bool     `long:"dry-run" description:"Do not store recipes, print the normalized results as JSON"`
	StartURLs []string `long:"start-url" description:"Process these recipe URLs instead of discovering them (repeatable)"`
	BaseURL   string   `long:"base-url" env:"DISCOVER_BASE_URL" description:"Site to discover recipes from"`
}

func main() {
	var opts options
	if _, err := flags.NewParser(&opts, flags.Default).Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return
		}
		os.Exit(2)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := common.InitLogger(cfg.LogLevel); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	if opts.BaseURL != "" {
		cfg.Discovery.BaseURL = opts.BaseURL
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, opts); err != nil {
		common.LogError("批次匯入失敗", zap.Error(err))
		common.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, opts options) error {
	strict := opts.Strict || cfg.Scraper.Strict
	services, err := app.New(ctx, cfg, app.Options{Strict: &strict, NoStore: opts.DryRun})
	if err != nil {
		return err
	}
	defer services.Close()

	urls := opts.StartURLs
	if len(urls) == 0 {
		finder := discovery.NewBudgetBytes(services.Fetcher, cfg.Discovery)
		urls, err = finder.Discover(ctx, opts.Limit)
		if err != nil {
			return fmt.Errorf("discover recipes: %w", err)
		}
	} else if opts.Limit > 0 && len(urls) > opts.Limit {
		urls = urls[:opts.Limit]
	}
	if len(urls) == 0 {
		return errors.New("no recipe urls found")
	}

	summary := services.Processor.Run(ctx, urls)

	if opts.DryRun {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}

	fmt.Printf("processed %d: ingested %d, skipped %d, preview %d, failed %d\n",
		summary.Total, summary.Ingested, summary.Skipped, summary.Preview, summary.Failed)
	for _, r := range summary.Results {
		if r.Error != "" {
			fmt.Printf("  %s %s: %s\n", r.Status, r.URL, r.Error)
		}
	}
	return nil
}
