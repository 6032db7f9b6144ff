package validate

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/16mlwood-afk/invoice-parser-sub000/internal/common"
	"github.com/16mlwood-afk/invoice-parser-sub000/internal/currency"
	"github.com/16mlwood-afk/invoice-parser-sub000/internal/extract"
	"github.com/16mlwood-afk/invoice-parser-sub000/internal/invoice"
)

// subtotalAnchors are the labels counted to spot multi-shipment orders: more
// than one subtotal-like anchor in the source text means the simple
// subtotal+shipping+tax identity may legitimately not hold.
var subtotalAnchors = []string{
	"subtotal", "zwischensumme", "sous-total", "subtotale", "小計",
}

// itemHeaders signal that the source text carried an item listing, so an
// empty items slice is a real extraction miss rather than a summary-only
// document.
var itemHeaders = []string{
	"items ordered", "item subtotal", "artikel", "articles", "articoli", "注文内容",
}

// Validator runs cross-field consistency checks over a populated record.
// Findings are never fatal: they only lower the score and populate the
// validation result.
type Validator struct {
	cfg    common.ExtractionConfig
	logger *slog.Logger
}

// New builds a validator with the given thresholds.
func New(cfg common.ExtractionConfig, logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{cfg: cfg, logger: logger}
}

// Validate scores a record against its source text. The score starts at 100
// and is decremented by weighted penalties; IsValid is true iff no
// error-severity findings were produced.
func (v *Validator) Validate(rec *invoice.InvoiceRecord, sourceText string) *invoice.ValidationResult {
	res := &invoice.ValidationResult{
		Score:    100,
		Warnings: []invoice.Finding{},
		Errors:   []invoice.Finding{},
	}

	v.checkOrderNumber(rec, res)
	v.checkOrderDate(rec, res)
	v.checkItems(rec, sourceText, res)
	v.checkAmountsNumeric(rec, res)
	v.checkTotals(rec, sourceText, res)
	v.checkCurrencyConsistency(rec, res)

	if res.Score < 0 {
		res.Score = 0
	}
	res.IsValid = len(res.Errors) == 0
	res.Summary = fmt.Sprintf("%d error(s), %d warning(s)", len(res.Errors), len(res.Warnings))
	return res
}

func (v *Validator) addError(res *invoice.ValidationResult, penalty int, f invoice.Finding) {
	f.Severity = invoice.SeverityError
	res.Errors = append(res.Errors, f)
	res.Score -= penalty
}

func (v *Validator) addWarning(res *invoice.ValidationResult, penalty int, f invoice.Finding) {
	if f.Severity == "" {
		f.Severity = invoice.SeverityWarning
	}
	res.Warnings = append(res.Warnings, f)
	res.Score -= penalty
}

func (v *Validator) checkOrderNumber(rec *invoice.InvoiceRecord, res *invoice.ValidationResult) {
	switch {
	case rec.OrderNumber == nil:
		v.addError(res, 20, invoice.Finding{
			Type:    "missing_order_number",
			Message: "no order number found",
			Fields:  []string{"order_number"},
		})
	case !extract.ValidOrderNumber(*rec.OrderNumber):
		v.addError(res, 15, invoice.Finding{
			Type:    "order_number_format",
			Message: fmt.Sprintf("order number %q does not match the 3-7-7 segmentation", *rec.OrderNumber),
			Fields:  []string{"order_number"},
		})
	}
}

func (v *Validator) checkOrderDate(rec *invoice.InvoiceRecord, res *invoice.ValidationResult) {
	if rec.OrderDate != nil {
		return
	}
	// Criticality scales with how much else is missing.
	penalty := 10
	if rec.Total == nil {
		penalty = 20
	}
	v.addWarning(res, penalty, invoice.Finding{
		Type:    "missing_order_date",
		Message: "no order date found",
		Fields:  []string{"order_date"},
	})
}

func (v *Validator) checkItems(rec *invoice.InvoiceRecord, sourceText string, res *invoice.ValidationResult) {
	if len(rec.Items) > 0 || rec.Subtotal == nil {
		return
	}
	lower := strings.ToLower(sourceText)
	hasAnchors := extract.HasProductAnchor(sourceText)
	hasHeaders := false
	for _, h := range itemHeaders {
		if strings.Contains(lower, h) {
			hasHeaders = true
			break
		}
	}
	switch {
	case hasAnchors:
		v.addWarning(res, 15, invoice.Finding{
			Type:    "missing_items",
			Message: "subtotal present and product codes visible, but no line items extracted",
			Fields:  []string{"items", "subtotal"},
		})
	case hasHeaders:
		v.addWarning(res, 5, invoice.Finding{
			Type:    "missing_items",
			Message: "subtotal present and an item section header visible, but no line items extracted",
			Fields:  []string{"items", "subtotal"},
		})
	}
}

func (v *Validator) checkAmountsNumeric(rec *invoice.InvoiceRecord, res *invoice.ValidationResult) {
	fields := []struct {
		name  string
		value *string
	}{
		{"subtotal", rec.Subtotal},
		{"shipping", rec.Shipping},
		{"tax", rec.Tax},
		{"discount", rec.Discount},
		{"total", rec.Total},
	}
	for _, f := range fields {
		if f.value == nil {
			continue
		}
		if _, ok := currency.ToAmount(*f.value); !ok {
			v.addWarning(res, 10, invoice.Finding{
				Type:    "non_numeric_amount",
				Message: fmt.Sprintf("%s value %q is not numeric", f.name, *f.value),
				Fields:  []string{f.name},
			})
		}
	}
}

func (v *Validator) checkTotals(rec *invoice.InvoiceRecord, sourceText string, res *invoice.ValidationResult) {
	if rec.Total == nil {
		v.addError(res, 25, invoice.Finding{
			Type:    "missing_total",
			Message: "no order total found",
			Fields:  []string{"total"},
		})
		return
	}
	total := currency.ToNumber(*rec.Total)
	if total == 0 {
		return
	}

	var subtotal float64
	if rec.Subtotal != nil {
		subtotal = currency.ToNumber(*rec.Subtotal)
	}

	if subtotal > 0 && total < subtotal*0.8 {
		v.addWarning(res, 5, invoice.Finding{
			Type:    "suspicious_total",
			Message: fmt.Sprintf("total %.2f is implausibly below 80%% of subtotal %.2f", total, subtotal),
			Fields:  []string{"total", "subtotal"},
		})
	}

	if rec.Subtotal == nil {
		return
	}
	var shipping, tax float64
	if rec.Shipping != nil {
		shipping = currency.ToNumber(*rec.Shipping)
	}
	if rec.Tax != nil {
		tax = currency.ToNumber(*rec.Tax)
	}
	calculated := subtotal + shipping + tax

	multiShipment := v.isMultiShipment(sourceText, subtotal, total)
	tolerance := math.Max(total*v.cfg.MathTolerancePct, v.cfg.MathToleranceFloor)
	if multiShipment {
		tolerance = math.Max(tolerance*v.cfg.MultiShipmentWiden, total*v.cfg.MultiShipmentFloorPct)
	}

	diff := math.Abs(calculated - total)
	if diff > tolerance {
		penalty := 15
		if multiShipment {
			penalty = 5
		}
		pct := diff / total * 100
		v.addWarning(res, penalty, invoice.Finding{
			Type: "mathematical_inconsistency",
			Message: fmt.Sprintf("subtotal+shipping+tax = %.2f differs from total %.2f by %.1f%%",
				calculated, total, pct),
			Fields: []string{"subtotal", "shipping", "tax", "total"},
		})
	}
}

// isMultiShipment applies the multi-shipment heuristics: repeated
// subtotal-like anchors, or a subtotal far above the total. Both are guesses
// at document structure, so the thresholds come from configuration.
func (v *Validator) isMultiShipment(sourceText string, subtotal, total float64) bool {
	if subtotal > total*v.cfg.MultiShipmentRatio {
		return true
	}
	lower := strings.ToLower(sourceText)
	count := 0
	for _, a := range subtotalAnchors {
		count += strings.Count(lower, a)
	}
	return count > 1
}

func (v *Validator) checkCurrencyConsistency(rec *invoice.InvoiceRecord, res *invoice.ValidationResult) {
	codes := map[string]struct{}{}
	for _, s := range []*string{rec.Subtotal, rec.Shipping, rec.Tax, rec.Total} {
		if s == nil {
			continue
		}
		if c := currency.DetectCode(*s); c != "" {
			codes[c] = struct{}{}
		}
	}
	if len(codes) > 1 {
		list := make([]string, 0, len(codes))
		for c := range codes {
			list = append(list, c)
		}
		sort.Strings(list)
		v.addWarning(res, 10, invoice.Finding{
			Type:    "currency_mismatch",
			Message: fmt.Sprintf("invoice-level fields disagree on currency: %s", strings.Join(list, ", ")),
			Fields:  []string{"subtotal", "shipping", "tax", "total"},
		})
	}

	// Per-item disagreement alone is informational.
	invoiceCode := rec.CurrencyCode
	for _, it := range rec.Items {
		if it.Currency != "" && invoiceCode != "" && it.Currency != invoiceCode {
			v.addWarning(res, 0, invoice.Finding{
				Type:     "item_currency_mismatch",
				Severity: invoice.SeverityInfo,
				Message:  fmt.Sprintf("item %q uses %s while the invoice uses %s", it.Description, it.Currency, invoiceCode),
				Fields:   []string{"items"},
			})
			break
		}
	}
}
