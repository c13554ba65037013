package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"snapex/pkg/aisummary"
	"snapex/pkg/config"
	"snapex/pkg/export"
	"snapex/pkg/progress"
	"snapex/pkg/revex"
)

const runTimeout = 5 * time.Minute

func run() error {
	var (
		snapshotID = flag.String("snapshot", "", "snapshot id to export")
		companyID  = flag.String("company", "", "company id owning the snapshot")
		userID     = flag.String("user", "", "user id to resolve the company id from")
		list       = flag.Bool("list", false, "list snapshots instead of exporting")
		format     = flag.String("format", "", "export format: xlsx or csv (default from config)")
		outDir     = flag.String("out", "", "output directory (default from config)")
		configPath = flag.String("config", "", "path to YAML config file")
		baseURL    = flag.String("base-url", "", "API base URL (default from config)")
		token      = flag.String("token", "", "bearer token (or SNAPEX_TOKEN)")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *format == "" {
		*format = cfg.ExportFormat
	}
	if *outDir == "" {
		*outDir = cfg.OutputDir
	}
	if *baseURL == "" {
		*baseURL = cfg.BaseURL
	}
	if *token == "" {
		*token = os.Getenv("SNAPEX_TOKEN")
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	session := revex.NewSession(revex.New(), *baseURL, *token, logger)
	if err := session.EnsureReady(ctx); err != nil {
		return err
	}

	summarizer, err := aisummary.New(cfg.OpenAIAPIKey, cfg.AIAnalysisEnabled, logger)
	if err != nil {
		return err
	}

	reporter := progress.NewReporter()
	exporter := export.New(session, summarizer, reporter, logger)

	if *companyID == "" && *userID != "" {
		*companyID, err = exporter.CompanyIDFromUser(ctx, *userID)
		if err != nil {
			return err
		}
		logger.Info("resolved company id", "company", *companyID)
	}

	if *list {
		return listSnapshots(ctx, exporter, *companyID)
	}
	if *snapshotID == "" {
		return fmt.Errorf("snapshot id is required (use -snapshot, or -list to browse)")
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for ev := range reporter.Events() {
			fmt.Fprintf(os.Stderr, "[%3d%%] %s\n", ev.Progress, ev.Message)
		}
	}()

	files, err := exporter.Run(ctx, export.Options{
		SnapshotID: *snapshotID,
		CompanyID:  *companyID,
		Format:     *format,
	})
	reporter.Close()
	wg.Wait()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	for _, f := range files {
		dst := filepath.Join(*outDir, f.Name)
		if err := os.WriteFile(dst, f.Data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", f.Name, err)
		}
		fmt.Println(dst)
	}
	return nil
}

func listSnapshots(ctx context.Context, exporter *export.Exporter, companyID string) error {
	if companyID == "" {
		return fmt.Errorf("company id is required (use -company or -user)")
	}
	entries, err := exporter.Snapshots(ctx, companyID)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("no snapshots found")
		return nil
	}
	for _, entry := range entries {
		fmt.Printf("%s\t%s\n", entry.ID, entry.Name)
	}
	return nil
}
