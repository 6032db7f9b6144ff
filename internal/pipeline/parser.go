package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/16mlwood-afk/invoice-parser-sub000/constants"
	"github.com/16mlwood-afk/invoice-parser-sub000/internal/common"
	"github.com/16mlwood-afk/invoice-parser-sub000/internal/currency"
	"github.com/16mlwood-afk/invoice-parser-sub000/internal/detect"
	"github.com/16mlwood-afk/invoice-parser-sub000/internal/extract"
	"github.com/16mlwood-afk/invoice-parser-sub000/internal/invoice"
	"github.com/16mlwood-afk/invoice-parser-sub000/internal/locale"
	"github.com/16mlwood-afk/invoice-parser-sub000/internal/validate"
)

// Options tunes a single Extract call.
type Options struct {
	// ForceLocale skips detection and dispatches directly.
	ForceLocale constants.Locale
	// SkipValidation leaves rec.Validation nil.
	SkipValidation bool
}

// Parser wires detection, locale dispatch, field extraction and validation
// into the end-to-end flow. It is safe for concurrent use; all state is
// immutable after construction.
type Parser struct {
	cfg       common.ExtractionConfig
	detector  *detect.Detector
	registry  *extract.Registry
	validator *validate.Validator
	logger    *slog.Logger
}

// New builds a parser over the embedded locale rule tables.
func New(cfg common.ExtractionConfig, logger *slog.Logger) (*Parser, error) {
	if logger == nil {
		logger = slog.Default()
	}
	profiles, err := locale.Load()
	if err != nil {
		return nil, fmt.Errorf("loading locale profiles: %w", err)
	}
	registry, err := extract.NewRegistry(profiles, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("building extractor registry: %w", err)
	}
	return &Parser{
		cfg:       cfg,
		detector:  detect.New(profiles, cfg.MinDetectionConfidence, logger),
		registry:  registry,
		validator: validate.New(cfg, logger),
		logger:    logger,
	}, nil
}

// Detect exposes locale detection on its own, without extraction.
func (p *Parser) Detect(text string) invoice.DetectionResult {
	return p.detector.Detect(text)
}

// Supported reports whether a locale has its own extractor.
func (p *Parser) Supported(code constants.Locale) bool {
	return p.registry.Supported(code)
}

// Extract runs the full pipeline over raw invoice text and returns a
// populated record. Unknown locales fall back to the generic English
// extractor. When extraction fails, the per-field partial-recovery path runs;
// a usable partial result is returned as a record with recovery info
// attached, otherwise the error propagates.
func (p *Parser) Extract(ctx context.Context, text string, opts Options) (*invoice.InvoiceRecord, error) {
	start := time.Now()
	jobID := uuid.New()
	log := p.logger.With("job_id", jobID)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, common.NewAppError("EMPTY_INPUT", "no text to extract from", common.ErrInvalidInput)
	}
	// Bound worst-case pattern matching on adversarial input.
	if p.cfg.ExtractionBudget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.ExtractionBudget)
		defer cancel()
	}

	detection := invoice.DetectionResult{Locale: opts.ForceLocale, Confidence: 1.0, Supported: true}
	if opts.ForceLocale == "" {
		detection = p.detector.Detect(text)
	}
	target := detection.Locale
	if target == constants.LocaleUnknown {
		log.Warn("pipeline.unknown_locale_fallback", "confidence", detection.Confidence)
		target = constants.LocaleEnglish
	}
	ex := p.registry.Get(target)

	rec, err := p.extractAll(ctx, ex, text)
	if err != nil {
		log.Warn("pipeline.extraction_failed", "locale", target, "error", err)
		return p.recover(ex, text, err, log)
	}

	if !opts.SkipValidation {
		rec.Validation = p.validator.Validate(rec, text)
	}
	rec.Metadata = &invoice.ExtractionMetadata{
		JobID:               jobID,
		Locale:              ex.Locale(),
		DetectionConfidence: detection.Confidence,
		TextBytes:           len(text),
		Duration:            time.Since(start),
	}

	log.Info("pipeline.ok",
		"locale", ex.Locale(),
		"items", len(rec.Items),
		"score", validationScore(rec),
		"duration", time.Since(start))
	return rec, nil
}

// extractAll populates every field. A panic anywhere inside an extractor is
// converted into an extraction failure so the recovery path can take over.
func (p *Parser) extractAll(ctx context.Context, ex extract.Extractor, text string) (rec *invoice.InvoiceRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			rec = nil
			err = fmt.Errorf("%w: extractor panic: %v", common.ErrExtraction, r)
		}
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rec = invoice.NewRecord(ex.Locale())
	rec.OrderNumber = ex.ExtractOrderNumber(text)
	rec.OrderDate = ex.ExtractOrderDate(text)
	rec.Items = ex.ExtractItems(text)
	if rec.Items == nil {
		rec.Items = []invoice.LineItem{}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rec.Subtotal = ex.ExtractSubtotal(text)
	rec.Shipping = ex.ExtractShipping(text)
	rec.Tax = ex.ExtractTax(text)
	rec.Discount = ex.ExtractDiscount(text)
	rec.Total = ex.ExtractTotal(text)

	if rec.Total != nil {
		rec.CurrencyCode = currency.DetectCode(*rec.Total)
	}
	if rec.CurrencyCode == "" {
		rec.CurrencyCode = currency.DetectCode(text)
	}
	return rec, nil
}

// recover categorizes the failure and runs per-field partial extraction. The
// partial record is returned only when it clears the usability gate.
func (p *Parser) recover(ex extract.Extractor, text string, cause error, log *slog.Logger) (*invoice.InvoiceRecord, error) {
	catErr := extract.CategorizeError(cause, "pipeline.extract")
	if !catErr.Recoverable {
		return nil, cause
	}

	partial := extract.ExtractPartial(ex, text, p.cfg.PartialUsableConfidence)
	suggestions := extract.SuggestRecovery(catErr, partial)
	if !partial.Usable {
		log.Warn("pipeline.partial_unusable", "overall", partial.Overall)
		return nil, fmt.Errorf("partial recovery below usability gate (%.2f): %w", partial.Overall, cause)
	}

	rec := partial.Record
	rec.Recovery = &invoice.RecoveryInfo{
		Cause:       catErr.Message,
		Overall:     partial.Overall,
		Suggestions: suggestions,
	}
	log.Info("pipeline.partial_recovered", "overall", partial.Overall)
	return rec, nil
}

func validationScore(rec *invoice.InvoiceRecord) int {
	if rec.Validation == nil {
		return -1
	}
	return rec.Validation.Score
}
