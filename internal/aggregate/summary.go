package aggregate

import (
	"log/slog"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/16mlwood-afk/invoice-parser-sub000/constants"
	"github.com/16mlwood-afk/invoice-parser-sub000/internal/currency"
	"github.com/16mlwood-afk/invoice-parser-sub000/internal/invoice"
	"github.com/16mlwood-afk/invoice-parser-sub000/internal/locale"
)

// CurrencyTotal accumulates spend in one currency. Amounts are exact
// decimals; floating point never touches the sums.
type CurrencyTotal struct {
	Currency string          `json:"currency"`
	Orders   int             `json:"orders"`
	Total    decimal.Decimal `json:"total"`
}

// MonthTotal is spend in one calendar month for one currency.
type MonthTotal struct {
	Month    string          `json:"month"` // YYYY-MM
	Currency string          `json:"currency"`
	Orders   int             `json:"orders"`
	Total    decimal.Decimal `json:"total"`
}

// Summary is the batch-level aggregation over parsed records. Records
// without a parseable total are counted but excluded from sums; mixing
// currencies in arithmetic is never attempted.
type Summary struct {
	Records    int              `json:"records"`
	Skipped    int              `json:"skipped"`
	ByCurrency []CurrencyTotal  `json:"by_currency"`
	ByMonth    []MonthTotal     `json:"by_month"`
	ByLocale   map[string]int   `json:"by_locale"`
}

// Aggregator folds records into per-currency and per-month totals. Order
// dates are parsed with the record's locale profile, so German and Japanese
// date formats land in the right month.
type Aggregator struct {
	profiles *locale.Registry
	logger   *slog.Logger
}

func New(profiles *locale.Registry, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{profiles: profiles, logger: logger}
}

// Summarize builds the summary for a set of records. Output slices are
// sorted (currency, then month) so repeated runs produce identical output.
func (a *Aggregator) Summarize(records []*invoice.InvoiceRecord) Summary {
	sum := Summary{ByLocale: make(map[string]int)}
	byCurrency := make(map[string]*CurrencyTotal)
	byMonth := make(map[string]*MonthTotal)

	for _, rec := range records {
		if rec == nil {
			continue
		}
		sum.Records++
		sum.ByLocale[string(rec.Format)]++

		amount, code, ok := recordTotal(rec)
		if !ok {
			sum.Skipped++
			continue
		}

		ct, exists := byCurrency[code]
		if !exists {
			ct = &CurrencyTotal{Currency: code}
			byCurrency[code] = ct
		}
		ct.Orders++
		ct.Total = ct.Total.Add(amount)

		if month, ok := a.recordMonth(rec); ok {
			key := month + "|" + code
			mt, exists := byMonth[key]
			if !exists {
				mt = &MonthTotal{Month: month, Currency: code}
				byMonth[key] = mt
			}
			mt.Orders++
			mt.Total = mt.Total.Add(amount)
		}
	}

	for _, ct := range byCurrency {
		sum.ByCurrency = append(sum.ByCurrency, *ct)
	}
	sort.Slice(sum.ByCurrency, func(i, j int) bool {
		return sum.ByCurrency[i].Currency < sum.ByCurrency[j].Currency
	})
	for _, mt := range byMonth {
		sum.ByMonth = append(sum.ByMonth, *mt)
	}
	sort.Slice(sum.ByMonth, func(i, j int) bool {
		if sum.ByMonth[i].Month != sum.ByMonth[j].Month {
			return sum.ByMonth[i].Month < sum.ByMonth[j].Month
		}
		return sum.ByMonth[i].Currency < sum.ByMonth[j].Currency
	})
	return sum
}

func recordTotal(rec *invoice.InvoiceRecord) (decimal.Decimal, string, bool) {
	if rec.Total == nil {
		return decimal.Zero, "", false
	}
	amount, ok := currency.ToAmount(*rec.Total)
	if !ok {
		return decimal.Zero, "", false
	}
	code := rec.CurrencyCode
	if code == "" {
		code = currency.DetectCode(*rec.Total)
	}
	if code == "" {
		return decimal.Zero, "", false
	}
	return amount, code, true
}

func (a *Aggregator) recordMonth(rec *invoice.InvoiceRecord) (string, bool) {
	if rec.OrderDate == nil {
		return "", false
	}
	p := a.profiles.Get(rec.Format)
	if p == nil {
		p = a.profiles.Get(constants.LocaleEnglish)
	}
	t, ok := p.ParseDate(*rec.OrderDate)
	if !ok {
		a.logger.Debug("aggregate.unparseable_date",
			"locale", rec.Format, "value", *rec.OrderDate)
		return "", false
	}
	return t.Format("2006-01"), true
}
