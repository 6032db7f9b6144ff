package batch

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/16mlwood-afk/invoice-parser-sub000/constants"
	"github.com/16mlwood-afk/invoice-parser-sub000/internal/common"
	"github.com/16mlwood-afk/invoice-parser-sub000/internal/invoice"
	"github.com/16mlwood-afk/invoice-parser-sub000/internal/pipeline"
)

// Result is the per-document outcome of a batch run. Exactly one result is
// produced per input, in input order, regardless of individual failures.
type Result struct {
	Input    string
	Status   constants.JobStatus
	Record   *invoice.InvoiceRecord
	Err      error
	Duration time.Duration
}

// Stats summarizes one batch run.
type Stats struct {
	Total     int
	Succeeded int
	Partial   int
	Failed    int
	Elapsed   time.Duration
}

// Processor fans invoice texts out over a bounded worker pool. One failed
// document never aborts the batch; errors are carried in the results.
type Processor struct {
	parser *pipeline.Parser
	cfg    common.BatchConfig
	logger *slog.Logger
}

func NewProcessor(parser *pipeline.Parser, cfg common.BatchConfig, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Processor{parser: parser, cfg: cfg, logger: logger}
}

// Input is one named invoice text to process.
type Input struct {
	Name string
	Text string
}

// Process runs the pipeline over every input with at most cfg.Workers
// documents in flight, applying opts to every document. The results slice is
// preallocated and indexed by input position, so output order matches input
// order.
func (p *Processor) Process(ctx context.Context, inputs []Input, opts pipeline.Options) ([]Result, Stats) {
	start := time.Now()
	results := make([]Result, len(inputs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Workers)
	for i, in := range inputs {
		i, in := i, in
		g.Go(func() error {
			docStart := time.Now()
			rec, err := p.parser.Extract(ctx, in.Text, opts)
			results[i] = Result{
				Input:    in.Name,
				Record:   rec,
				Err:      err,
				Duration: time.Since(docStart),
				Status:   statusFor(rec, err),
			}
			// Failures stay in the result row; returning them would cancel
			// the remaining documents.
			return nil
		})
	}
	_ = g.Wait()

	stats := Stats{Total: len(inputs), Elapsed: time.Since(start)}
	for _, r := range results {
		switch r.Status {
		case constants.JobStatusOK:
			stats.Succeeded++
		case constants.JobStatusPartial:
			stats.Partial++
		default:
			stats.Failed++
		}
	}

	p.logger.Info("batch.done",
		"total", stats.Total,
		"succeeded", stats.Succeeded,
		"partial", stats.Partial,
		"failed", stats.Failed,
		"workers", p.cfg.Workers,
		"elapsed", stats.Elapsed)
	return results, stats
}

func statusFor(rec *invoice.InvoiceRecord, err error) constants.JobStatus {
	switch {
	case err != nil:
		return constants.JobStatusFailed
	case rec != nil && rec.Recovery != nil:
		return constants.JobStatusPartial
	default:
		return constants.JobStatusOK
	}
}
