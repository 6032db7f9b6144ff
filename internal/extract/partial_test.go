package extract

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/16mlwood-afk/invoice-parser-sub000/constants"
	"github.com/16mlwood-afk/invoice-parser-sub000/internal/common"
	"github.com/16mlwood-afk/invoice-parser-sub000/internal/invoice"
)

func TestCategorizeError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		level       invoice.ErrorLevel
		recoverable bool
	}{
		{"missing file", os.ErrNotExist, invoice.LevelCritical, false},
		{"permission", fmt.Errorf("open: %w", os.ErrPermission), invoice.LevelCritical, false},
		{"extraction", fmt.Errorf("%w: bad ladder", common.ErrExtraction), invoice.LevelRecoverable, true},
		{"validation", common.ErrValidation, invoice.LevelRecoverable, true},
		{"unexpected", errors.New("boom"), invoice.LevelInfo, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := CategorizeError(tc.err, "test")
			if got.Level != tc.level {
				t.Errorf("level = %s, want %s", got.Level, tc.level)
			}
			if got.Recoverable != tc.recoverable {
				t.Errorf("recoverable = %v, want %v", got.Recoverable, tc.recoverable)
			}
		})
	}
}

func TestExtractPartialUsableGate(t *testing.T) {
	ex := testRegistry(t).Get(constants.LocaleEnglish)

	// Order number, date and total: 3 of 8 fields clears the 0.3 gate.
	text := "Order Number: 123-4567890-1234567\nOrder Date: 2024-03-01\nOrder Total: $10.00\n"
	partial := ExtractPartial(ex, text, 0.3)
	if partial.Overall <= 0.3 {
		t.Fatalf("overall = %.3f, want > 0.3", partial.Overall)
	}
	if !partial.Usable {
		t.Fatal("expected usable partial record")
	}
	if partial.FieldConfidence["order_number"] != 1.0 || partial.FieldConfidence["shipping"] != 0.0 {
		t.Errorf("field confidence = %v", partial.FieldConfidence)
	}
	if partial.Record.CurrencyCode != "USD" {
		t.Errorf("currency = %q, want USD", partial.Record.CurrencyCode)
	}
}

func TestExtractPartialUnusableWithoutIdentity(t *testing.T) {
	ex := testRegistry(t).Get(constants.LocaleEnglish)

	// Plenty of fields, but no order date: never usable.
	text := "Order Number: 123-4567890-1234567\nSubtotal: $8.00\nTax: $2.00\nOrder Total: $10.00\n"
	partial := ExtractPartial(ex, text, 0.3)
	if partial.Record.OrderDate != nil {
		t.Fatalf("unexpected order date %q", *partial.Record.OrderDate)
	}
	if partial.Usable {
		t.Fatal("partial without order date must not be usable")
	}
}

func TestExtractPartialEmptyText(t *testing.T) {
	ex := testRegistry(t).Get(constants.LocaleEnglish)
	partial := ExtractPartial(ex, "", 0.3)
	if partial.Overall != 0 {
		t.Errorf("overall = %.3f, want 0", partial.Overall)
	}
	if partial.Usable {
		t.Error("empty text must not be usable")
	}
	if partial.Record.Items == nil {
		t.Error("items must be an empty slice, not nil")
	}
}

func TestSuggestRecoveryConfidenceBands(t *testing.T) {
	catErr := invoice.CategorizedError{Level: invoice.LevelRecoverable, Recoverable: true}

	high := SuggestRecovery(catErr, invoice.PartialRecord{Overall: 0.8, Record: invoice.NewRecord("en")})
	if len(high) == 0 || high[0].Priority != invoice.PriorityHigh {
		t.Errorf("high band = %+v", high)
	}

	medium := SuggestRecovery(catErr, invoice.PartialRecord{Overall: 0.5, Record: invoice.NewRecord("en")})
	if len(medium) == 0 || medium[0].Priority != invoice.PriorityMedium {
		t.Errorf("medium band = %+v", medium)
	}

	low := SuggestRecovery(catErr, invoice.PartialRecord{Overall: 0.1, Record: invoice.NewRecord("en")})
	if len(low) == 0 || low[0].Priority != invoice.PriorityLow {
		t.Errorf("low band = %+v", low)
	}

	critical := SuggestRecovery(invoice.CategorizedError{Level: invoice.LevelCritical}, invoice.PartialRecord{Overall: 0.1})
	if len(critical) != 2 {
		t.Errorf("critical suggestions = %+v, want band note plus file-access action", critical)
	}
}
