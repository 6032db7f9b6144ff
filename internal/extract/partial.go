package extract

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/16mlwood-afk/invoice-parser-sub000/internal/common"
	"github.com/16mlwood-afk/invoice-parser-sub000/internal/currency"
	"github.com/16mlwood-afk/invoice-parser-sub000/internal/invoice"
)

// fieldNames are the independently extractable fields counted by partial
// recovery.
var fieldNames = []string{
	"order_number", "order_date", "items",
	"subtotal", "shipping", "tax", "discount", "total",
}

// CategorizeError maps a failure into the error taxonomy: file/permission
// errors are critical and non-recoverable; extraction and parsing failures
// are recoverable and trigger the fallback path; anything else is
// informational.
func CategorizeError(err error, context string) invoice.CategorizedError {
	var pathErr *fs.PathError
	switch {
	case errors.Is(err, os.ErrNotExist), errors.Is(err, os.ErrPermission), errors.As(err, &pathErr):
		return invoice.CategorizedError{
			Level:       invoice.LevelCritical,
			Type:        "file_access",
			Message:     err.Error(),
			Context:     context,
			Recoverable: false,
			Suggestion:  "check that the file exists and is readable",
		}
	case errors.Is(err, common.ErrExtraction), errors.Is(err, common.ErrValidation):
		return invoice.CategorizedError{
			Level:       invoice.LevelRecoverable,
			Type:        "extraction_failure",
			Message:     err.Error(),
			Context:     context,
			Recoverable: true,
			Suggestion:  "retry with per-field partial extraction",
		}
	default:
		return invoice.CategorizedError{
			Level:       invoice.LevelInfo,
			Type:        "unexpected",
			Message:     err.Error(),
			Context:     context,
			Recoverable: false,
			Suggestion:  "inspect the source text manually",
		}
	}
}

// ExtractPartial independently re-runs every field extractor after a
// failure, recording per-field confidence. Overall confidence is the share
// of fields that produced a value; the record is usable only when both the
// order number and order date succeeded and overall clears the gate. The
// gate keeps low-trust partial data out of downstream financial aggregation.
func ExtractPartial(ex Extractor, text string, gate float64) invoice.PartialRecord {
	rec := invoice.NewRecord(ex.Locale())
	conf := make(map[string]float64, len(fieldNames))

	set := func(field string, v *string) {
		if v != nil {
			conf[field] = 1.0
		} else {
			conf[field] = 0.0
		}
	}

	rec.OrderNumber = safeField(func() *string { return ex.ExtractOrderNumber(text) })
	set("order_number", rec.OrderNumber)
	rec.OrderDate = safeField(func() *string { return ex.ExtractOrderDate(text) })
	set("order_date", rec.OrderDate)
	rec.Subtotal = safeField(func() *string { return ex.ExtractSubtotal(text) })
	set("subtotal", rec.Subtotal)
	rec.Shipping = safeField(func() *string { return ex.ExtractShipping(text) })
	set("shipping", rec.Shipping)
	rec.Tax = safeField(func() *string { return ex.ExtractTax(text) })
	set("tax", rec.Tax)
	rec.Discount = safeField(func() *string { return ex.ExtractDiscount(text) })
	set("discount", rec.Discount)
	rec.Total = safeField(func() *string { return ex.ExtractTotal(text) })
	set("total", rec.Total)

	rec.Items = safeItems(func() []invoice.LineItem { return ex.ExtractItems(text) })
	if len(rec.Items) > 0 {
		conf["items"] = 1.0
	} else {
		conf["items"] = 0.0
	}

	if c := currency.DetectCode(text); c != "" {
		rec.CurrencyCode = c
	}

	successes := 0.0
	for _, f := range fieldNames {
		successes += conf[f]
	}
	overall := successes / float64(len(fieldNames))

	return invoice.PartialRecord{
		Record:          rec,
		FieldConfidence: conf,
		Overall:         overall,
		Usable:          rec.OrderNumber != nil && rec.OrderDate != nil && overall > gate,
	}
}

// safeField shields a single field extraction: a panic in one field must not
// block the others.
func safeField(fn func() *string) (v *string) {
	defer func() {
		if r := recover(); r != nil {
			v = nil
		}
	}()
	return fn()
}

func safeItems(fn func() []invoice.LineItem) (items []invoice.LineItem) {
	defer func() {
		if r := recover(); r != nil {
			items = []invoice.LineItem{}
		}
	}()
	items = fn()
	if items == nil {
		items = []invoice.LineItem{}
	}
	return items
}

// SuggestRecovery produces priority-tagged follow-up actions for a failure.
// The first suggestion always states the confidence band of the partial
// result.
func SuggestRecovery(catErr invoice.CategorizedError, partial invoice.PartialRecord) []invoice.RecoverySuggestion {
	out := make([]invoice.RecoverySuggestion, 0, 4)

	switch {
	case partial.Overall > 0.7:
		out = append(out, invoice.RecoverySuggestion{
			Priority: invoice.PriorityHigh,
			Action:   fmt.Sprintf("partial extraction is high-confidence (%.2f > 0.7); use the recovered fields", partial.Overall),
		})
	case partial.Overall > 0.3:
		out = append(out, invoice.RecoverySuggestion{
			Priority: invoice.PriorityMedium,
			Action:   fmt.Sprintf("partial extraction is medium-confidence (%.2f > 0.3); review recovered fields before use", partial.Overall),
		})
	default:
		out = append(out, invoice.RecoverySuggestion{
			Priority: invoice.PriorityLow,
			Action:   fmt.Sprintf("partial extraction is low-confidence (%.2f); manual review required", partial.Overall),
		})
	}

	if !catErr.Recoverable && catErr.Level == invoice.LevelCritical {
		out = append(out, invoice.RecoverySuggestion{
			Priority: invoice.PriorityHigh,
			Action:   "resolve the file access problem and re-run the extraction",
		})
		return out
	}
	if partial.Record != nil {
		if partial.Record.OrderNumber == nil {
			out = append(out, invoice.RecoverySuggestion{
				Priority: invoice.PriorityHigh,
				Action:   "verify the document is an order invoice; no order number was found",
			})
		}
		if len(partial.Record.Items) == 0 {
			out = append(out, invoice.RecoverySuggestion{
				Priority: invoice.PriorityMedium,
				Action:   "no line items recovered; the item table may be heavily corrupted",
			})
		}
		if partial.Record.Total == nil {
			out = append(out, invoice.RecoverySuggestion{
				Priority: invoice.PriorityMedium,
				Action:   "no order total found; check for an unusual total label in the source",
			})
		}
	}
	return out
}
