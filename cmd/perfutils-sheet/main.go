package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/claude/perfutils/internal/formula"
	"github.com/claude/perfutils/internal/importer"
	"github.com/claude/perfutils/internal/spreadsheet/excel"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	file := flag.String("file", "", "workbook to annotate (.xlsx, created if missing)")
	sheet := flag.String("sheet", "", "sheet to annotate (default: every sheet)")
	formulaName := flag.String("formula", "brzycki", "one-rep max formula")
	dryRun := flag.Bool("dry-run", false, "compute estimates but don't save the workbook")
	watch := flag.Bool("watch", false, "re-annotate whenever the workbook changes")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("perfutils-sheet", Version)
		return
	}

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *file == "" {
		fmt.Fprintf(os.Stderr, "Usage: perfutils-sheet -file lifts.xlsx [-sheet Sheet1] [-formula brzycki] [-dry-run] [-watch]\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	f, err := formula.Lookup(*formulaName)
	if err != nil {
		log.Error("invalid formula", "error", err)
		os.Exit(1)
	}

	if *dryRun {
		log.Info("DRY RUN mode: the workbook will not be saved")
	}

	name := strings.TrimSuffix(*file, ".xlsx")
	run := func() error { return annotate(name, *sheet, f, *dryRun, log) }

	if err := run(); err != nil {
		log.Error("annotation failed", "error", err)
		if !*watch {
			os.Exit(1)
		}
	}
	if !*watch {
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	log.Info("watching workbook", "path", name+".xlsx")
	if err := importer.Watch(ctx, name+".xlsx", log, run); err != nil {
		log.Error("watch failed", "error", err)
		os.Exit(1)
	}
	log.Info("watch stopped")
}

// annotate opens the workbook, annotates the selected sheets and saves it
// when any cell changed.
func annotate(name, sheet string, f formula.Formula, dryRun bool, log *slog.Logger) error {
	wb, err := excel.Open(name)
	if err != nil {
		return err
	}
	defer wb.Close()

	sheets := wb.Sheets()
	if sheet != "" {
		sheets = []string{sheet}
	}

	changed := 0
	for _, sn := range sheets {
		ws, err := wb.Sheet(sn)
		if err != nil {
			return err
		}
		stats, err := importer.AnnotateSheet(ws, f)
		if err != nil {
			log.Warn("sheet skipped", "sheet", sn, "error", err)
			continue
		}
		printStats(log, sn, stats)
		changed += stats.CellsChanged
	}

	if changed == 0 || dryRun {
		return nil
	}
	if err := wb.Save(); err != nil {
		return fmt.Errorf("saving %s: %w", wb.Path(), err)
	}
	log.Info("workbook saved", "path", wb.Path(), "cells_changed", changed)
	return nil
}

func printStats(log *slog.Logger, sheet string, stats *importer.SheetStats) {
	log.Info("sheet stats",
		"sheet", sheet,
		"rows_read", stats.RowsRead,
		"rows_annotated", stats.RowsAnnotated,
		"rows_skipped", stats.RowsSkipped,
		"cells_changed", stats.CellsChanged,
		"column", stats.Column,
	)
	for _, p := range stats.Problems {
		log.Warn("row skipped", "sheet", sheet, "problem", p)
	}
}
