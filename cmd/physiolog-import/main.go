package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/jguzman/physiolog/internal/config"
	"github.com/jguzman/physiolog/internal/importer"
	"github.com/jguzman/physiolog/internal/storage"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	dataPath := flag.String("path", "", "path to CSV/TSV export file (required)")
	update := flag.Bool("update", false, "overwrite existing entries instead of skipping them")
	dryRun := flag.Bool("dry-run", false, "parse and count rows without writing to the database")
	force := flag.Bool("force", false, "import even if this file was already imported unchanged")
	stateDir := flag.String("state-dir", ".physiolog-import", "directory for the import state database")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *dataPath == "" {
		fmt.Fprintf(os.Stderr, "Usage: physiolog-import -config config.yaml -path data/health_data.csv [-update] [-dry-run] [-force]\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	info, err := os.Stat(*dataPath)
	if err != nil || info.IsDir() {
		log.Error("data file does not exist or is a directory", "path", *dataPath)
		os.Exit(1)
	}

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	dsn := cfg.Database.DSN()

	// Run migrations
	if err := storage.RunMigrations(dsn, "migrations"); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}
	log.Info("migrations applied")

	ctx := context.Background()

	if *dryRun {
		log.Info("DRY RUN mode: no data will be written to the database")
	}

	// Skip unchanged files already imported, tracked in a local SQLite DB.
	state, err := importer.OpenStateDB(*stateDir)
	if err != nil {
		log.Error("failed to open import state", "error", err)
		os.Exit(1)
	}
	defer state.Close()

	hash, err := importer.HashFile(*dataPath)
	if err != nil {
		log.Error("failed to hash data file", "error", err)
		os.Exit(1)
	}
	if !*force && !*dryRun {
		done, err := state.IsImported(*dataPath, info.Size(), hash)
		if err != nil {
			log.Error("failed to check import state", "error", err)
			os.Exit(1)
		}
		if done {
			log.Info("file already imported unchanged, nothing to do (use -force to re-import)", "path", *dataPath)
			return
		}
	}

	// Connect database
	db, err := storage.New(ctx, dsn)
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	log.Info("database connected")

	var opts []importer.Option
	if *update {
		opts = append(opts, importer.WithUpdate())
	}
	if *dryRun {
		opts = append(opts, importer.WithDryRun())
	}

	imp := importer.New(db, log, 1, opts...)
	stats, err := imp.Import(ctx, *dataPath)
	if err != nil {
		log.Error("import failed", "error", err)
		printStats(log, stats)
		os.Exit(1)
	}

	printStats(log, stats)

	if !*dryRun {
		if err := state.MarkImported(*dataPath, info.Size(), hash); err != nil {
			log.Warn("failed to record import state", "error", err)
		}
	}
	log.Info("import complete")
}

func printStats(log *slog.Logger, stats *importer.Stats) {
	log.Info("import stats",
		"run_id", stats.RunID,
		"rows_read", stats.RowsRead,
		"rows_imported", stats.RowsImported,
		"rows_updated", stats.RowsUpdated,
		"rows_skipped", stats.RowsSkipped,
		"rows_rejected", stats.RowsRejected,
	)
}
