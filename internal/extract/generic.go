package extract

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/16mlwood-afk/invoice-parser-sub000/constants"
	"github.com/16mlwood-afk/invoice-parser-sub000/internal/common"
	"github.com/16mlwood-afk/invoice-parser-sub000/internal/invoice"
	"github.com/16mlwood-afk/invoice-parser-sub000/internal/locale"
)

// orderNumberRe is the exact segmentation an order number must satisfy. A
// malformed candidate is rejected outright, never returned as partial.
var orderNumberRe = regexp.MustCompile(`^\d{3}-\d{7}-\d{7}$`)

// productAnchorRe matches the fixed-length product codes used as scan anchors
// inside item tables.
var productAnchorRe = regexp.MustCompile(`\bB0[A-Z0-9]{8}\b`)

// guardWindow is how far around a guarded match the extractor looks for
// product anchors and percent tokens before accepting it.
const guardWindow = 48

// ValidOrderNumber reports whether s matches the exact 3-7-7 order number
// segmentation.
func ValidOrderNumber(s string) bool { return orderNumberRe.MatchString(s) }

// HasProductAnchor reports whether the text contains at least one product
// code anchor.
func HasProductAnchor(text string) bool { return productAnchorRe.MatchString(text) }

// LocaleExtractor is the generic pattern-ladder extractor. One instance per
// locale, parameterized entirely by the locale's rule-table profile.
type LocaleExtractor struct {
	profile *locale.Profile
	cfg     common.ExtractionConfig
	logger  *slog.Logger
	table   *TableExtractor
}

// NewLocaleExtractor builds an extractor for a profile.
func NewLocaleExtractor(p *locale.Profile, cfg common.ExtractionConfig, logger *slog.Logger) *LocaleExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	ex := &LocaleExtractor{profile: p, cfg: cfg, logger: logger}
	if p.ItemTable {
		ex.table = NewTableExtractor(p, cfg, logger)
	}
	return ex
}

func (e *LocaleExtractor) Locale() constants.Locale { return e.profile.Code }

// Profile exposes the underlying rule table (detector and validator reuse it).
func (e *LocaleExtractor) Profile() *locale.Profile { return e.profile }

func (e *LocaleExtractor) ExtractOrderNumber(text string) *string {
	v := e.matchLadder(text, "order_number")
	if v == nil {
		return nil
	}
	if !orderNumberRe.MatchString(*v) {
		return nil
	}
	return v
}

func (e *LocaleExtractor) ExtractOrderDate(text string) *string {
	return e.matchLadder(text, "order_date")
}

func (e *LocaleExtractor) ExtractSubtotal(text string) *string {
	return e.matchLadder(text, "subtotal")
}

func (e *LocaleExtractor) ExtractShipping(text string) *string {
	return e.matchLadder(text, "shipping")
}

func (e *LocaleExtractor) ExtractTax(text string) *string {
	return e.matchLadder(text, "tax")
}

func (e *LocaleExtractor) ExtractDiscount(text string) *string {
	return e.matchLadder(text, "discount")
}

func (e *LocaleExtractor) ExtractTotal(text string) *string {
	return e.matchLadder(text, "total")
}

func (e *LocaleExtractor) ExtractItems(text string) []invoice.LineItem {
	if e.table != nil {
		items, _ := e.table.Extract(text)
		return items
	}
	return extractLineItems(e.profile, text)
}

// matchLadder walks the ordered pattern ladder for a field; the first match
// wins. Guarded rungs are generic fallbacks whose candidates are rejected
// when a product anchor or percent token sits next to them, so line-item
// amounts are not misread as invoice-level values.
func (e *LocaleExtractor) matchLadder(text, field string) *string {
	for _, pat := range e.profile.Fields[field] {
		if !pat.Guarded {
			if m := pat.Re.FindStringSubmatch(text); m != nil {
				return captured(m)
			}
			continue
		}
		for _, loc := range pat.Re.FindAllStringSubmatchIndex(text, -1) {
			if e.guardRejects(text, loc[0], loc[1]) {
				continue
			}
			v := submatchAt(text, loc)
			if v != "" {
				return &v
			}
		}
	}
	return nil
}

// guardRejects reports whether a candidate match sits inside an item table:
// a product anchor or percent token within the guard window on either side.
func (e *LocaleExtractor) guardRejects(text string, start, end int) bool {
	lo := start - guardWindow
	if lo < 0 {
		lo = 0
	}
	hi := end + guardWindow
	if hi > len(text) {
		hi = len(text)
	}
	ctx := text[lo:hi]
	if productAnchorRe.MatchString(ctx) {
		return true
	}
	return strings.Contains(ctx, "%")
}

// captured returns the first capture group when present, else the whole
// match, trimmed.
func captured(m []string) *string {
	v := m[0]
	if len(m) > 1 && m[1] != "" {
		v = m[1]
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

// submatchAt extracts the first capture group (or whole match) from an index
// pair slice as returned by FindAllStringSubmatchIndex.
func submatchAt(text string, loc []int) string {
	start, end := loc[0], loc[1]
	if len(loc) >= 4 && loc[2] >= 0 {
		start, end = loc[2], loc[3]
	}
	return strings.TrimSpace(text[start:end])
}
