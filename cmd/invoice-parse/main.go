package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/16mlwood-afk/invoice-parser-sub000/constants"
	"github.com/16mlwood-afk/invoice-parser-sub000/internal/common"
	"github.com/16mlwood-afk/invoice-parser-sub000/internal/invoice"
	"github.com/16mlwood-afk/invoice-parser-sub000/internal/pdftext"
	"github.com/16mlwood-afk/invoice-parser-sub000/internal/pipeline"
)

func main() {
	var (
		file       = flag.String("file", "", "invoice file to parse (required)")
		forced     = flag.String("locale", "", "skip detection and force this locale")
		detectOnly = flag.Bool("detect", false, "print the detection result and exit")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	if *file == "" {
		fmt.Fprintln(os.Stderr, "Error: --file is required")
		os.Exit(1)
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	parser, err := pipeline.New(cfg.Extraction, logger)
	if err != nil {
		logger.Error("failed to build parser", "error", err)
		os.Exit(1)
	}

	doc, err := pdftext.NewReader(logger).Read(*file)
	if err != nil {
		logger.Error("failed to read file", "path", *file, "error", err)
		os.Exit(1)
	}

	if *detectOnly {
		printJSON(parser.Detect(doc.Text))
		return
	}

	opts := pipeline.Options{ForceLocale: constants.Locale(*forced)}
	rec, err := parser.Extract(context.Background(), doc.Text, opts)
	if err != nil {
		logger.Error("extraction failed", "path", *file, "error", err)
		os.Exit(1)
	}

	// Enforce the output contract before anything downstream sees the record.
	payload, err := json.Marshal(rec)
	if err != nil {
		logger.Error("failed to encode record", "error", err)
		os.Exit(1)
	}
	if err := invoice.ValidateRecordJSON(payload); err != nil {
		logger.Error("record violates output schema", "error", err)
		os.Exit(1)
	}

	printJSON(rec)
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
