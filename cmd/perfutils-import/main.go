package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/claude/perfutils/internal/config"
	"github.com/claude/perfutils/internal/formula"
	"github.com/claude/perfutils/internal/importer"
	"github.com/claude/perfutils/internal/ingest/alpha"
	"github.com/claude/perfutils/internal/storage"
	"github.com/claude/perfutils/internal/traininglog"
	"github.com/claude/perfutils/internal/upload"
	"github.com/google/uuid"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	path := flag.String("path", "", "training log to import, optionally .gz or .zst compressed (required)")
	format := flag.String("format", "json", "input format: json (training log tree) or alpha (Alpha Progression CSV export)")
	logID := flag.String("log", "", "ID of the log to import into (default: create a new log)")
	logName := flag.String("name", "", "name of the new log (default: file name)")
	estimate := flag.Bool("estimate", true, "store one-rep max estimates after importing")
	formulaName := flag.String("formula", "", "formula for estimates (default: config formulas.default)")
	dryRun := flag.Bool("dry-run", false, "report counts without writing to the database")
	serverURL := flag.String("server", "", "upload to this perfutils server instead of the configured database")
	apiKey := flag.String("api-key", os.Getenv("PERFUTILS_AUTH_API_KEY"), "API key for -server")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *path == "" {
		fmt.Fprintf(os.Stderr, "Usage: perfutils-import -config config.yaml -path log.json [-log ID | -name NAME] [-formula epley] [-dry-run]\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	if *format != "json" && *format != "alpha" {
		log.Error("unknown format", "format", *format)
		os.Exit(1)
	}

	if *serverURL != "" {
		runUpload(strings.TrimRight(*serverURL, "/"), *apiKey, *path, *format, *logID, *logName, *formulaName, *estimate, log)
		return
	}

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *formulaName == "" {
		*formulaName = cfg.Formulas.Default
	}
	f, err := formula.Lookup(*formulaName)
	if err != nil {
		log.Error("invalid formula", "error", err)
		os.Exit(1)
	}

	data, err := traininglog.ReadFile(*path)
	if err != nil {
		log.Error("failed to read training log", "path", *path, "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	store, closeStore, err := storage.Open(ctx, cfg.Database, "migrations", log)
	if err != nil {
		log.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	if *dryRun {
		log.Info("DRY RUN mode: no data will be written to the database")
	}

	id, err := targetLog(ctx, store, *logID, *logName, *path, *dryRun)
	if err != nil {
		log.Error("failed to resolve log", "error", err)
		os.Exit(1)
	}

	imp := importer.New(store, log, *dryRun)
	switch *format {
	case "alpha":
		if err := importAlpha(ctx, store, id, data, *dryRun, log); err != nil {
			log.Error("import failed", "error", err)
			os.Exit(1)
		}
	default:
		root, err := traininglog.Parse(data)
		if err != nil {
			log.Error("invalid training log", "path", *path, "error", err)
			os.Exit(1)
		}
		stats, err := imp.ImportLifts(ctx, id, root)
		if err != nil {
			log.Error("import failed", "error", err)
			printStats(log, stats)
			os.Exit(1)
		}
		printStats(log, stats)
	}

	if *estimate && !*dryRun {
		est, err := imp.EstimateLog(ctx, id, f)
		if err != nil {
			log.Error("estimate failed", "error", err)
			os.Exit(1)
		}
		log.Info("estimate stats", "formula", f.Name(), "estimated", est.Estimated, "skipped", est.Skipped)
		for _, p := range est.Problems {
			log.Warn("item skipped", "problem", p)
		}
	}
	log.Info("import complete", "log_id", id)
}

// targetLog returns the log to import into, creating it unless an ID was given.
func targetLog(ctx context.Context, store storage.LogStore, rawID, name, path string, dryRun bool) (uuid.UUID, error) {
	if rawID != "" {
		id, err := uuid.Parse(rawID)
		if err != nil {
			return uuid.Nil, fmt.Errorf("invalid log ID %q: %w", rawID, err)
		}
		if _, err := store.GetLog(ctx, id); err != nil {
			return uuid.Nil, err
		}
		return id, nil
	}
	if dryRun {
		return uuid.Nil, nil
	}
	if name == "" {
		name = path
	}
	l, err := store.CreateLog(ctx, name)
	if err != nil {
		return uuid.Nil, err
	}
	return l.ID, nil
}

// importAlpha stores an Alpha Progression export. A dry run only parses it.
func importAlpha(ctx context.Context, store storage.LogStore, id uuid.UUID, data []byte, dryRun bool, log *slog.Logger) error {
	if dryRun {
		sessions, err := alpha.Parse(bytes.NewReader(data))
		if err != nil {
			return err
		}
		log.Info("alpha export parsed", "sessions", len(sessions), "items", len(alpha.Items(id, sessions, 1)))
		return nil
	}
	res, err := alpha.NewProvider(store, log).Ingest(ctx, id, bytes.NewReader(data))
	if err != nil {
		return err
	}
	printAlpha(log, res)
	return nil
}

func printAlpha(log *slog.Logger, res *alpha.Result) {
	log.Info("alpha import stats",
		"sessions", res.SessionsReceived,
		"exercises", res.ExercisesReceived,
		"sets", res.SetsReceived,
		"warmups_skipped", res.WarmupsSkipped,
		"items_inserted", res.ItemsInserted,
		"items_skipped", res.ItemsSkipped,
	)
}

func printStats(log *slog.Logger, stats *importer.Stats) {
	log.Info("import stats",
		"lifts_found", stats.LiftsFound,
		"items_inserted", stats.ItemsInserted,
		"items_duplicated", stats.ItemsDuplicated,
	)
}

// runUpload sends the log to a remote server, which imports and estimates it.
func runUpload(serverURL, apiKey, path, format, rawID, name, formulaName string, estimate bool, log *slog.Logger) {
	data, err := traininglog.ReadFile(path)
	if err != nil {
		log.Error("failed to read training log", "path", path, "error", err)
		os.Exit(1)
	}
	if format == "alpha" {
		_, err = alpha.Parse(bytes.NewReader(data))
	} else {
		_, err = traininglog.Parse(data)
	}
	if err != nil {
		log.Error("invalid training log", "path", path, "error", err)
		os.Exit(1)
	}

	client := upload.NewClient(serverURL, apiKey)

	var id uuid.UUID
	if rawID != "" {
		if id, err = uuid.Parse(rawID); err != nil {
			log.Error("invalid log ID", "id", rawID, "error", err)
			os.Exit(1)
		}
	} else {
		if name == "" {
			name = path
		}
		l, err := client.CreateLog(name)
		if err != nil {
			log.Error("upload failed", "error", err)
			os.Exit(1)
		}
		id = l.ID
	}

	if format == "alpha" {
		res, err := client.ImportAlpha(id, data)
		if err != nil {
			log.Error("upload failed", "error", err)
			os.Exit(1)
		}
		printAlpha(log, res)
	} else {
		stats, err := client.ImportLog(id, data)
		if err != nil {
			log.Error("upload failed", "error", err)
			os.Exit(1)
		}
		printStats(log, stats)
	}

	if estimate {
		est, err := client.EstimateLog(id, formulaName)
		if err != nil {
			log.Error("estimate failed", "error", err)
			os.Exit(1)
		}
		log.Info("estimate stats", "estimated", est.Estimated, "skipped", est.Skipped)
	}
	log.Info("upload complete", "server", serverURL, "log_id", id)
}
