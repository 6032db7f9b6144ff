package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/16mlwood-afk/invoice-parser-sub000/constants"
	"github.com/16mlwood-afk/invoice-parser-sub000/internal/aggregate"
	"github.com/16mlwood-afk/invoice-parser-sub000/internal/archive"
	"github.com/16mlwood-afk/invoice-parser-sub000/internal/batch"
	"github.com/16mlwood-afk/invoice-parser-sub000/internal/common"
	"github.com/16mlwood-afk/invoice-parser-sub000/internal/export"
	"github.com/16mlwood-afk/invoice-parser-sub000/internal/invoice"
	"github.com/16mlwood-afk/invoice-parser-sub000/internal/locale"
	"github.com/16mlwood-afk/invoice-parser-sub000/internal/pdftext"
	"github.com/16mlwood-afk/invoice-parser-sub000/internal/pipeline"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		dir       = flag.String("dir", "", "directory of invoice files to process (required)")
		out       = flag.String("out", "", "output XLSX file path (optional, defaults to parent directory)")
		forced    = flag.String("locale", "", "skip detection and force this locale for every file")
		noArchive = flag.Bool("no-archive", false, "skip archiving records to the local database")
		verbose   = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}
	if *out == "" {
		*out = filepath.Join(filepath.Dir(*dir), "invoices.xlsx")
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx := context.Background()
	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	parser, err := pipeline.New(cfg.Extraction, logger)
	if err != nil {
		logger.Error("failed to build parser", "error", err)
		os.Exit(1)
	}

	opts := pipeline.Options{}
	if *forced != "" {
		code := constants.Locale(*forced)
		if !parser.Supported(code) {
			printError("Error: unsupported locale %q\n", *forced)
			os.Exit(1)
		}
		opts.ForceLocale = code
	}

	inputs, err := collectInputs(*dir, logger)
	if err != nil {
		logger.Error("failed to read input directory", "error", err)
		os.Exit(1)
	}
	if len(inputs) == 0 {
		printError("Error: no supported invoice files in %s\n", *dir)
		os.Exit(1)
	}
	logger.Info("starting batch", "dir", *dir, "files", len(inputs))

	processor := batch.NewProcessor(parser, cfg.Batch, logger)
	results, stats := processor.Process(ctx, inputs, opts)

	records := make([]*invoice.InvoiceRecord, 0, len(results))
	for _, r := range results {
		if r.Record != nil {
			records = append(records, r.Record)
		}
		if r.Err != nil {
			logger.Warn("document failed", "input", r.Input, "error", r.Err)
		}
	}

	profiles, err := locale.Load()
	if err != nil {
		logger.Error("failed to load locale profiles", "error", err)
		os.Exit(1)
	}
	summary := aggregate.New(profiles, logger).Summarize(records)

	if !*noArchive {
		store, err := archive.Open(ctx, cfg.Archive, logger)
		if err != nil {
			logger.Error("failed to open archive", "error", err)
			os.Exit(1)
		}
		defer store.Close()
		for _, rec := range records {
			if rec.OrderNumber == nil {
				continue
			}
			if err := store.Save(ctx, rec); err != nil {
				logger.Warn("failed to archive record", "order_number", *rec.OrderNumber, "error", err)
			}
		}
	}

	xlsxBytes, err := export.NewService(logger).ExportXLSX(records, summary)
	if err != nil {
		logger.Error("failed to export workbook", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, xlsxBytes, 0o644); err != nil {
		logger.Error("failed to write output file", "error", err)
		os.Exit(1)
	}

	logger.Info("batch complete",
		"files", stats.Total,
		"succeeded", stats.Succeeded,
		"partial", stats.Partial,
		"failed", stats.Failed,
		"output_file", *out)

	fmt.Printf("Batch processing complete!\n")
	fmt.Printf("- Files processed: %d\n", stats.Total)
	fmt.Printf("- Succeeded: %d\n", stats.Succeeded)
	fmt.Printf("- Partial: %d\n", stats.Partial)
	fmt.Printf("- Failed: %d\n", stats.Failed)
	fmt.Printf("- Output: %s\n", *out)
}

// collectInputs loads every supported file directly under dir, sorted by
// name so batch output order is stable.
func collectInputs(dir string, logger *slog.Logger) ([]batch.Input, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	reader := pdftext.NewReader(logger)
	var inputs []batch.Input
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := constants.NormalizeExt(filepath.Ext(e.Name()))
		if _, ok := constants.AllowedExtensions[ext]; !ok {
			continue
		}
		path := filepath.Join(dir, e.Name())
		doc, err := reader.Read(path)
		if err != nil {
			logger.Warn("skipping unreadable file", "path", path, "error", err)
			continue
		}
		inputs = append(inputs, batch.Input{Name: e.Name(), Text: doc.Text})
	}
	sort.Slice(inputs, func(i, j int) bool {
		return strings.ToLower(inputs[i].Name) < strings.ToLower(inputs[j].Name)
	})
	return inputs, nil
}
