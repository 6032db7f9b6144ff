package extract

import (
	"log/slog"
	"math"
	"regexp"
	"strings"

	"github.com/16mlwood-afk/invoice-parser-sub000/internal/common"
	"github.com/16mlwood-afk/invoice-parser-sub000/internal/currency"
	"github.com/16mlwood-afk/invoice-parser-sub000/internal/invoice"
	"github.com/16mlwood-afk/invoice-parser-sub000/internal/locale"
)

// tableWindow bounds how far around a product anchor the extractor searches
// for a structural row.
const tableWindow = 250

// Structural row ladder, most explicit first. Order matters: the six-column
// row is the only shape that reliably separates VAT-inclusive from
// VAT-exclusive unit prices; looser shapes risk swapping unit price and line
// total, so they only run when nothing stricter matched.
const (
	moneyTok = `(?:€\s?|EUR\s?)?\d{1,3}(?:[.,]\d{3})*[.,]\d{2}(?:\s?€)?`
	pctTok   = `\d{1,2}(?:[.,]\d+)?\s?%`
)

type tableRow struct {
	re   *regexp.Regexp
	kind string
}

var tableLadder = []tableRow{
	// ex-VAT unit, VAT rate, (qty), inc-VAT unit, line total
	{regexp.MustCompile(`(` + moneyTok + `)\s+(` + pctTok + `)\s*\((\d{1,3})\)\s*(` + moneyTok + `)\s+(` + moneyTok + `)`), "cols6"},
	// ex-VAT unit, VAT rate, inc-VAT unit, line total (quantity derived)
	{regexp.MustCompile(`(` + moneyTok + `)\s+(` + pctTok + `)\s+(` + moneyTok + `)\s+(` + moneyTok + `)`), "cols5"},
	// qty x unit, line total
	{regexp.MustCompile(`(\d{1,3})\s*x\s*(` + moneyTok + `)\s+(` + moneyTok + `)`), "qty_unit_total"},
	// bare unit, line total
	{regexp.MustCompile(`(` + moneyTok + `)\s+(` + moneyTok + `)`), "unit_total"},
}

var tableNoiseRe = regexp.MustCompile(`^[\d\s.,;:%()€$£¥'x×+-]+$`)

// TableExtractor recovers tabular line items from flattened EU invoice text
// where column boundaries and line breaks vary by renderer.
type TableExtractor struct {
	profile *locale.Profile
	cfg     common.ExtractionConfig
	logger  *slog.Logger
	headers map[string]struct{}
}

// NewTableExtractor builds a table extractor for a table-layout profile.
func NewTableExtractor(p *locale.Profile, cfg common.ExtractionConfig, logger *slog.Logger) *TableExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	headers := make(map[string]struct{}, len(p.TableHeaders))
	for _, h := range p.TableHeaders {
		headers[strings.ToLower(h)] = struct{}{}
	}
	return &TableExtractor{profile: p, cfg: cfg, logger: logger, headers: headers}
}

// Extract scans for product anchors and recovers one line item per anchor
// whose window yields a structural match. The returned interval set holds
// every consumed character range; it is scoped to this call only.
//
// Deduplication is deliberately conservative: value-identical rows are kept
// (repeat purchases are common); only position-level overlap is prevented.
func (t *TableExtractor) Extract(text string) ([]invoice.LineItem, IntervalSet) {
	items := []invoice.LineItem{}
	consumed := IntervalSet{}

	for _, anchor := range productAnchorRe.FindAllStringIndex(text, -1) {
		if consumed.Overlaps(anchor[0], anchor[1]) {
			continue
		}
		item, span, ok := t.extractAt(text, anchor, consumed)
		if !ok {
			continue
		}
		items = append(items, item)
		consumed = consumed.Add(span.Start, span.End).Add(anchor[0], anchor[1])
	}
	return items, consumed
}

// extractAt tries the bounded window before the anchor first, then the
// window after it.
func (t *TableExtractor) extractAt(text string, anchor []int, consumed IntervalSet) (invoice.LineItem, Interval, bool) {
	lo := anchor[0] - tableWindow
	if lo < 0 {
		lo = 0
	}
	hi := anchor[1] + tableWindow
	if hi > len(text) {
		hi = len(text)
	}

	row, span, ok := t.matchRow(text[lo:anchor[0]], lo, true, consumed)
	if !ok {
		row, span, ok = t.matchRow(text[anchor[1]:hi], anchor[1], false, consumed)
	}
	if !ok {
		return invoice.LineItem{}, Interval{}, false
	}

	item := t.buildItem(row)
	item.ASIN = text[anchor[0]:anchor[1]]
	item.Description = t.recoverDescription(text, anchor[0])
	return item, span, true
}

type rowMatch struct {
	kind   string
	groups []string
}

// matchRow applies the structural ladder to a window. In the window before
// the anchor the match closest to the anchor (the last one) wins; after the
// anchor the first does.
func (t *TableExtractor) matchRow(window string, offset int, preferLast bool, consumed IntervalSet) (rowMatch, Interval, bool) {
	for _, rung := range tableLadder {
		locs := rung.re.FindAllStringSubmatchIndex(window, -1)
		if len(locs) == 0 {
			continue
		}
		ordered := locs
		if preferLast {
			ordered = make([][]int, 0, len(locs))
			for i := len(locs) - 1; i >= 0; i-- {
				ordered = append(ordered, locs[i])
			}
		}
		for _, loc := range ordered {
			start, end := offset+loc[0], offset+loc[1]
			if consumed.Overlaps(start, end) {
				continue
			}
			groups := make([]string, 0, len(loc)/2)
			for g := 0; g < len(loc); g += 2 {
				if loc[g] < 0 {
					groups = append(groups, "")
					continue
				}
				groups = append(groups, window[loc[g]:loc[g+1]])
			}
			return rowMatch{kind: rung.kind, groups: groups}, Interval{Start: start, End: end}, true
		}
	}
	return rowMatch{}, Interval{}, false
}

// buildItem maps a structural match onto a line item and applies quantity
// correction: the quantity derived from lineTotal/unitPrice replaces the
// parsed one when it round-trips within tolerance. This is the main defense
// against layout corruption merging quantity digits into a price token.
func (t *TableExtractor) buildItem(row rowMatch) invoice.LineItem {
	item := invoice.LineItem{Quantity: 1, Currency: t.profile.Currency}

	switch row.kind {
	case "cols6":
		item.Quantity = atoiDefault(row.groups[3], 1)
		item.UnitPrice = currency.ToNumber(row.groups[4])
		item.TotalPrice = currency.ToNumber(row.groups[5])
	case "cols5":
		item.UnitPrice = currency.ToNumber(row.groups[3])
		item.TotalPrice = currency.ToNumber(row.groups[4])
	case "qty_unit_total":
		item.Quantity = atoiDefault(row.groups[1], 1)
		item.UnitPrice = currency.ToNumber(row.groups[2])
		item.TotalPrice = currency.ToNumber(row.groups[3])
	case "unit_total":
		item.UnitPrice = currency.ToNumber(row.groups[1])
		item.TotalPrice = currency.ToNumber(row.groups[2])
	}

	if qty, ok := t.deriveQuantity(item.UnitPrice, item.TotalPrice); ok {
		item.Quantity = qty
	}
	return item
}

// deriveQuantity computes round(total/unit) and accepts it only when it
// round-trips within the configured absolute tolerance and a sane range.
func (t *TableExtractor) deriveQuantity(unit, total float64) (int, bool) {
	if unit <= 0 || total <= 0 {
		return 0, false
	}
	derived := int(math.Round(total / unit))
	if derived < 1 || derived > t.cfg.MaxQuantity {
		return 0, false
	}
	if math.Abs(float64(derived)*unit-total) >= t.cfg.QuantityRoundTripEpsilon {
		return 0, false
	}
	return derived, true
}

// recoverDescription walks the lines preceding the anchor backward,
// discarding numeric/symbol noise and table-header vocabulary, and returns
// the most plausible free-text description.
func (t *TableExtractor) recoverDescription(text string, anchorStart int) string {
	before := text[:anchorStart]
	lines := strings.Split(before, "\n")

	// The anchor's own line may carry the description inline before the code.
	candidates := make([]string, 0, 7)
	candidates = append(candidates, lines[len(lines)-1])
	for i, n := len(lines)-2, 0; i >= 0 && n < 6; i, n = i-1, n+1 {
		candidates = append(candidates, lines[i])
	}

	for _, c := range candidates {
		trimmed := strings.TrimSpace(c)
		if len(trimmed) < 4 {
			continue
		}
		if tableNoiseRe.MatchString(trimmed) {
			continue
		}
		if t.isHeaderLine(trimmed) {
			continue
		}
		return trimmed
	}
	return ""
}

func (t *TableExtractor) isHeaderLine(line string) bool {
	lower := strings.ToLower(line)
	if _, ok := t.headers[lower]; ok {
		return true
	}
	hits := 0
	for h := range t.headers {
		if strings.Contains(lower, h) {
			hits++
			if hits >= 2 {
				return true
			}
		}
	}
	return false
}
