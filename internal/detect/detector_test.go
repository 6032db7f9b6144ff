package detect

import (
	"testing"

	"github.com/16mlwood-afk/invoice-parser-sub000/constants"
	"github.com/16mlwood-afk/invoice-parser-sub000/internal/locale"
)

func newDetector(t *testing.T) *Detector {
	t.Helper()
	profiles, err := locale.Load()
	if err != nil {
		t.Fatalf("load profiles: %v", err)
	}
	return New(profiles, constants.MinDetectionConfidence, nil)
}

func TestDetectEmptyText(t *testing.T) {
	d := newDetector(t)
	for _, text := range []string{"", "   ", "\n\t\n"} {
		got := d.Detect(text)
		if got.Locale != constants.LocaleUnknown {
			t.Errorf("Detect(%q).Locale = %s, want UNKNOWN", text, got.Locale)
		}
		if got.Confidence != 0 {
			t.Errorf("Detect(%q).Confidence = %f, want 0", text, got.Confidence)
		}
	}
}

func TestDetectBelowFloorReturnsUnknown(t *testing.T) {
	d := newDetector(t)
	got := d.Detect("lorem ipsum dolor sit amet")
	if got.Locale != constants.LocaleUnknown {
		t.Errorf("locale = %s, want UNKNOWN", got.Locale)
	}
	if got.Confidence >= constants.MinDetectionConfidence {
		t.Errorf("confidence = %f, want below floor", got.Confidence)
	}
}

func TestDetectPerLocale(t *testing.T) {
	tests := []struct {
		want constants.Locale
		text string
	}{
		{constants.LocaleUS, "Order Placed: January 15, 2024\nItems Ordered\nShipping & Handling: $0.00\nGrand Total: $97.17\n"},
		{constants.LocaleUK, "Order Placed: 15 January 2024\nDispatched to London\nPostage & Packing: £2.99\nVAT: £4.00\nOrder Total: £26.99\n"},
		{constants.LocaleGerman, "Bestellung aufgegeben am: 15. Januar 2024\nZwischensumme: 20,00 €\nMwSt: 4,00 €\nGesamtbetrag: 26,99 €\n"},
		{constants.LocaleSwiss, "Bestellnummer: 123-4567890-1234567\nZwischensumme: CHF 20.00\nMwSt: CHF 4.00\nGesamtbetrag: CHF 26.99\n"},
		{constants.LocaleFrench, "Commande effectuée le 15 janvier 2024\nSous-total: 20,00 €\nTVA: 4,00 €\nMontant total: 26,99 €\n"},
		{constants.LocaleCanadianFR, "Numéro de commande: 123-4567890-1234567\nSous-total: 20,00 $\nTPS: 1,00 $\nTVQ: 2,00 $\nTotal de la commande: 26,99 $\n"},
		{constants.LocaleItalian, "Ordine effettuato il 15 gennaio 2024\nSubtotale: 20,00 €\nIVA: 4,00 €\nTotale ordine: 26,99 €\n"},
		{constants.LocaleSpanish, "Pedido realizado el 15 de enero de 2024\nSubtotal: 20,00 €\nIVA: 4,00 €\nImporte total: 26,99 €\n"},
		{constants.LocaleJapanese, "注文番号: 123-4567890-1234567\n注文日: 2024年1月15日\n小計: ¥2,000\n消費税: ¥400\n合計: ¥2,699\n"},
		{constants.LocaleEUBusiness, "VAT Invoice\nInvoice Number DE2024-12345\nVAT registration number: DE123456789\nUnit price (excl. VAT)\nVAT rate 19%\nInvoice total: 85,00 €\nSold by Amazon EU S.a r.l.\n"},
		{constants.LocaleEUConsumer, "Receipt\nVAT included\nOrder Number: 123-4567890-1234567\nTotal VAT: 4,00 €\nGrand Total: 26,99 €\nSold by Amazon EU S.a r.l.\n"},
	}

	d := newDetector(t)
	for _, tc := range tests {
		t.Run(string(tc.want), func(t *testing.T) {
			got := d.Detect(tc.text)
			if got.Locale != tc.want {
				t.Errorf("locale = %s (%.2f), want %s", got.Locale, got.Confidence, tc.want)
			}
			if got.Confidence < constants.MinDetectionConfidence {
				t.Errorf("confidence = %f, below floor", got.Confidence)
			}
			if !got.Supported {
				t.Error("supported = false")
			}
			if len(got.Evidence) == 0 {
				t.Error("no evidence recorded")
			}
		})
	}
}

func TestDetectLanguageTag(t *testing.T) {
	d := newDetector(t)
	tests := []struct {
		text string
		want string
	}{
		{"Order Placed: January 15, 2024\nItems Ordered\nShipping & Handling: $0.00\nGrand Total: $97.17\n", "en-US"},
		{"Bestellung aufgegeben am: 15. Januar 2024\nZwischensumme: 20,00 €\nMwSt: 4,00 €\nGesamtbetrag: 26,99 €\n", "de"},
		// The pan-EU layout families span several languages.
		{"VAT Invoice\nInvoice Number DE2024-12345\nVAT registration number: DE123456789\nUnit price (excl. VAT)\nVAT rate 19%\nInvoice total: 85,00 €\nSold by Amazon EU S.a r.l.\n", "und"},
		{"", "und"},
		{"lorem ipsum dolor sit amet", "und"},
	}
	for _, tc := range tests {
		if got := d.Detect(tc.text); got.Language != tc.want {
			t.Errorf("Detect(%.20q).Language = %q, want %q", tc.text, got.Language, tc.want)
		}
	}
}

func TestDetectDeterministic(t *testing.T) {
	d := newDetector(t)
	text := "Bestellung aufgegeben am: 15. Januar 2024\nGesamtbetrag: 26,99 €\nZwischensumme: 20,00 €\n"
	first := d.Detect(text)
	for i := 0; i < 10; i++ {
		got := d.Detect(text)
		if got.Locale != first.Locale || got.Confidence != first.Confidence {
			t.Fatalf("run %d diverged: %+v vs %+v", i, got, first)
		}
	}
}
