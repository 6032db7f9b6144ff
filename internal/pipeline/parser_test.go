package pipeline

import (
	"context"
	"testing"

	"github.com/16mlwood-afk/invoice-parser-sub000/constants"
	"github.com/16mlwood-afk/invoice-parser-sub000/internal/common"
)

const usOrderText = `Amazon.com order number: 123-4567890-1234567
Order Placed: January 15, 2024
Ship to: Jordan Smith
Items Ordered
1 of: Anker USB-C Charger 65W
$89.98
Item(s) Subtotal: $89.98
Shipping & Handling: $0.00
Estimated tax to be collected: $7.19
Grand Total: $97.17
Payment Method: Visa
`

const deOrderText = `Bestellnummer: 234-5678901-2345678
Bestellung aufgegeben am: 15. Januar 2024
1 x Logitech MX Master 3S
EUR 85,00
Zwischensumme: EUR 85,00
Verpackung und Versand: EUR 5,00
MwSt: EUR 10,00
Gesamtbetrag: EUR 100,00
Zahlungsart: Kreditkarte
`

func newParser(t *testing.T) *Parser {
	t.Helper()
	p, err := New(common.LoadConfig().Extraction, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p
}

func TestExtractUSOrder(t *testing.T) {
	p := newParser(t)
	rec, err := p.Extract(context.Background(), usOrderText, Options{})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if rec.OrderNumber == nil || *rec.OrderNumber != "123-4567890-1234567" {
		t.Errorf("order number = %v, want 123-4567890-1234567", rec.OrderNumber)
	}
	if rec.OrderDate == nil || *rec.OrderDate != "January 15, 2024" {
		t.Errorf("order date = %v, want January 15, 2024", rec.OrderDate)
	}
	if rec.Total == nil || *rec.Total != "$97.17" {
		t.Errorf("total = %v, want $97.17", rec.Total)
	}
	if rec.Subtotal == nil || *rec.Subtotal != "$89.98" {
		t.Errorf("subtotal = %v, want $89.98", rec.Subtotal)
	}
	if rec.CurrencyCode != "USD" {
		t.Errorf("currency = %q, want USD", rec.CurrencyCode)
	}
	if len(rec.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(rec.Items))
	}
	if rec.Items[0].Quantity != 1 || rec.Items[0].UnitPrice != 89.98 {
		t.Errorf("item = %+v", rec.Items[0])
	}

	if rec.Validation == nil {
		t.Fatal("validation missing")
	}
	if rec.Validation.Score != 100 || !rec.Validation.IsValid {
		t.Errorf("validation = %+v, want score 100 and valid", rec.Validation)
	}
	if rec.Metadata == nil {
		t.Fatal("metadata missing")
	}
	if rec.Metadata.Locale != "en-US" {
		t.Errorf("metadata locale = %s, want en-US", rec.Metadata.Locale)
	}
}

func TestExtractSummaryOnlyDocument(t *testing.T) {
	p := newParser(t)
	text := "Order Placed: December 15, 2023\nOrder #123-4567890-1234567\nSubtotal: $89.98\nTax: $7.19\nGrand Total: $97.17\n"
	rec, err := p.Extract(context.Background(), text, Options{})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if rec.OrderNumber == nil || *rec.OrderNumber != "123-4567890-1234567" {
		t.Errorf("order number = %v", rec.OrderNumber)
	}
	if rec.Total == nil || *rec.Total != "$97.17" {
		t.Errorf("total = %v, want $97.17", rec.Total)
	}
	// No items in the text, but nothing suggesting items were missed either:
	// the record must still score clean.
	if len(rec.Items) != 0 {
		t.Errorf("items = %+v, want none", rec.Items)
	}
	if rec.Validation == nil || rec.Validation.Score != 100 {
		t.Errorf("validation = %+v, want score 100", rec.Validation)
	}
}

func TestExtractGermanOrder(t *testing.T) {
	p := newParser(t)
	rec, err := p.Extract(context.Background(), deOrderText, Options{})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if rec.Metadata.Locale != "de" {
		t.Fatalf("locale = %s, want de", rec.Metadata.Locale)
	}
	if rec.OrderDate == nil || *rec.OrderDate != "15. Januar 2024" {
		t.Errorf("order date = %v", rec.OrderDate)
	}
	if rec.Total == nil || *rec.Total != "EUR 100,00" {
		t.Errorf("total = %v, want EUR 100,00", rec.Total)
	}
	if rec.CurrencyCode != "EUR" {
		t.Errorf("currency = %q, want EUR", rec.CurrencyCode)
	}
	if rec.Validation == nil || rec.Validation.Score != 100 {
		t.Errorf("validation = %+v, want score 100", rec.Validation)
	}
}

func TestExtractUnknownLocaleFallsBackToEnglish(t *testing.T) {
	p := newParser(t)
	text := "ref 345-6789012-3456789\nbetrag offen\n"
	if res := p.Detect(text); res.Locale != constants.LocaleUnknown {
		t.Fatalf("Detect = %s, want UNKNOWN", res.Locale)
	}
	rec, err := p.Extract(context.Background(), text, Options{})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if rec.OrderNumber == nil || *rec.OrderNumber != "345-6789012-3456789" {
		t.Errorf("order number = %v", rec.OrderNumber)
	}
	if rec.Metadata.Locale != constants.LocaleEnglish {
		t.Errorf("fallback locale = %s, want %s", rec.Metadata.Locale, constants.LocaleEnglish)
	}
}

func TestExtractForcedLocale(t *testing.T) {
	p := newParser(t)
	rec, err := p.Extract(context.Background(), deOrderText, Options{ForceLocale: constants.LocaleGerman})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if rec.Metadata.Locale != constants.LocaleGerman {
		t.Errorf("locale = %s, want %s", rec.Metadata.Locale, constants.LocaleGerman)
	}
	if rec.Metadata.DetectionConfidence != 1.0 {
		t.Errorf("forced locale confidence = %f, want 1.0", rec.Metadata.DetectionConfidence)
	}
}

func TestExtractCancelledContext(t *testing.T) {
	p := newParser(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Extract(ctx, usOrderText, Options{}); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestDetectPassthrough(t *testing.T) {
	p := newParser(t)
	res := p.Detect("")
	if res.Locale != constants.LocaleUnknown || res.Confidence != 0 {
		t.Errorf("Detect(\"\") = %+v, want UNKNOWN with 0 confidence", res)
	}

	res = p.Detect(usOrderText)
	if res.Locale != "en-US" {
		t.Errorf("Detect(US sample) = %s, want en-US", res.Locale)
	}
}
