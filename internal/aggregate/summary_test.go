package aggregate

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/16mlwood-afk/invoice-parser-sub000/constants"
	"github.com/16mlwood-afk/invoice-parser-sub000/internal/invoice"
	"github.com/16mlwood-afk/invoice-parser-sub000/internal/locale"
)

func strp(s string) *string { return &s }

func record(format constants.Locale, date, total, code string) *invoice.InvoiceRecord {
	rec := invoice.NewRecord(format)
	if date != "" {
		rec.OrderDate = strp(date)
	}
	if total != "" {
		rec.Total = strp(total)
	}
	rec.CurrencyCode = code
	return rec
}

func newAggregator(t *testing.T) *Aggregator {
	t.Helper()
	profiles, err := locale.Load()
	if err != nil {
		t.Fatalf("load profiles: %v", err)
	}
	return New(profiles, nil)
}

func TestSummarizeKeepsCurrenciesApart(t *testing.T) {
	a := newAggregator(t)
	sum := a.Summarize([]*invoice.InvoiceRecord{
		record(constants.LocaleUS, "January 15, 2024", "$97.17", "USD"),
		record(constants.LocaleUS, "February 2, 2024", "$10.00", "USD"),
		record(constants.LocaleGerman, "15. Januar 2024", "95,00 €", "EUR"),
	})

	if sum.Records != 3 || sum.Skipped != 0 {
		t.Fatalf("summary = %+v", sum)
	}
	if len(sum.ByCurrency) != 2 {
		t.Fatalf("by currency = %+v", sum.ByCurrency)
	}
	// Sorted by code: EUR before USD.
	if sum.ByCurrency[0].Currency != "EUR" || !sum.ByCurrency[0].Total.Equal(decimal.RequireFromString("95.00")) {
		t.Errorf("EUR bucket = %+v", sum.ByCurrency[0])
	}
	if sum.ByCurrency[1].Currency != "USD" || !sum.ByCurrency[1].Total.Equal(decimal.RequireFromString("107.17")) {
		t.Errorf("USD bucket = %+v", sum.ByCurrency[1])
	}
}

func TestSummarizeMonthlyBreakdownAcrossLocales(t *testing.T) {
	a := newAggregator(t)
	sum := a.Summarize([]*invoice.InvoiceRecord{
		record(constants.LocaleUS, "January 15, 2024", "$50.00", "USD"),
		record(constants.LocaleUS, "January 20, 2024", "$25.00", "USD"),
		record(constants.LocaleJapanese, "2024年1月15日", "¥2,699", "JPY"),
		record(constants.LocaleUS, "February 2, 2024", "$10.00", "USD"),
	})

	if len(sum.ByMonth) != 3 {
		t.Fatalf("by month = %+v", sum.ByMonth)
	}
	jan := sum.ByMonth[0]
	if jan.Month != "2024-01" || jan.Currency != "JPY" || !jan.Total.Equal(decimal.RequireFromString("2699")) {
		t.Errorf("first bucket = %+v", jan)
	}
	janUSD := sum.ByMonth[1]
	if janUSD.Month != "2024-01" || janUSD.Currency != "USD" || janUSD.Orders != 2 {
		t.Errorf("second bucket = %+v", janUSD)
	}
	if !janUSD.Total.Equal(decimal.RequireFromString("75.00")) {
		t.Errorf("january USD total = %s", janUSD.Total)
	}
	feb := sum.ByMonth[2]
	if feb.Month != "2024-02" || !feb.Total.Equal(decimal.RequireFromString("10.00")) {
		t.Errorf("third bucket = %+v", feb)
	}
}

func TestSummarizeSkipsUnusableTotals(t *testing.T) {
	a := newAggregator(t)
	sum := a.Summarize([]*invoice.InvoiceRecord{
		record(constants.LocaleUS, "January 15, 2024", "", "USD"),
		record(constants.LocaleUS, "January 15, 2024", "not a number", "USD"),
		record(constants.LocaleUS, "January 15, 2024", "$5.00", "USD"),
		nil,
	})

	if sum.Records != 3 {
		t.Errorf("records = %d, want 3", sum.Records)
	}
	if sum.Skipped != 2 {
		t.Errorf("skipped = %d, want 2", sum.Skipped)
	}
	if len(sum.ByCurrency) != 1 || sum.ByCurrency[0].Orders != 1 {
		t.Errorf("by currency = %+v", sum.ByCurrency)
	}
}

func TestSummarizeOrderIndependent(t *testing.T) {
	a := newAggregator(t)
	recs := []*invoice.InvoiceRecord{
		record(constants.LocaleUS, "January 15, 2024", "$50.00", "USD"),
		record(constants.LocaleGerman, "15. Januar 2024", "95,00 €", "EUR"),
		record(constants.LocaleUS, "February 2, 2024", "$10.00", "USD"),
	}
	forward := a.Summarize(recs)

	reversed := []*invoice.InvoiceRecord{recs[2], recs[1], recs[0]}
	backward := a.Summarize(reversed)

	if len(forward.ByCurrency) != len(backward.ByCurrency) {
		t.Fatalf("currency buckets differ: %+v vs %+v", forward.ByCurrency, backward.ByCurrency)
	}
	for i := range forward.ByCurrency {
		f, b := forward.ByCurrency[i], backward.ByCurrency[i]
		if f.Currency != b.Currency || f.Orders != b.Orders || !f.Total.Equal(b.Total) {
			t.Errorf("bucket %d differs: %+v vs %+v", i, f, b)
		}
	}
	for i := range forward.ByMonth {
		f, b := forward.ByMonth[i], backward.ByMonth[i]
		if f.Month != b.Month || f.Currency != b.Currency || !f.Total.Equal(b.Total) {
			t.Errorf("month bucket %d differs: %+v vs %+v", i, f, b)
		}
	}
}

func TestSummarizeLocaleCounts(t *testing.T) {
	a := newAggregator(t)
	sum := a.Summarize([]*invoice.InvoiceRecord{
		record(constants.LocaleUS, "", "$1.00", "USD"),
		record(constants.LocaleUS, "", "$1.00", "USD"),
		record(constants.LocaleFrench, "", "1,00 €", "EUR"),
	})
	if sum.ByLocale["en-US"] != 2 || sum.ByLocale["fr"] != 1 {
		t.Errorf("by locale = %v", sum.ByLocale)
	}
}
