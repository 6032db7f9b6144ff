package extract

import (
	"strings"

	"github.com/16mlwood-afk/invoice-parser-sub000/internal/currency"
	"github.com/16mlwood-afk/invoice-parser-sub000/internal/invoice"
	"github.com/16mlwood-afk/invoice-parser-sub000/internal/locale"
)

// extractLineItems recovers items from non-tabular layouts by classifying
// each line through the profile's ordered item ladder. A line matching the
// locale's section-boundary keywords terminates the items section.
func extractLineItems(p *locale.Profile, text string) []invoice.LineItem {
	items := []invoice.LineItem{}
	var pending *invoice.LineItem

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if p.SectionBoundary != nil && p.SectionBoundary.MatchString(trimmed) {
			break
		}

		kind, m := classifyLine(p, line)
		switch kind {
		case "qty_desc_price":
			qty := atoiDefault(m[1], 1)
			unit := currency.ToNumber(m[3])
			items = append(items, invoice.LineItem{
				Description: strings.TrimSpace(m[2]),
				Quantity:    qty,
				UnitPrice:   unit,
				TotalPrice:  unit * float64(qty),
				ASIN:        firstAnchor(line),
				Currency:    lineCurrency(p, line),
			})
			pending = nil
		case "qty_desc":
			pending = &invoice.LineItem{
				Description: strings.TrimSpace(m[2]),
				Quantity:    atoiDefault(m[1], 1),
				ASIN:        firstAnchor(line),
				Currency:    p.Currency,
			}
		case "desc_price":
			unit := currency.ToNumber(m[2])
			items = append(items, invoice.LineItem{
				Description: strings.TrimSpace(m[1]),
				Quantity:    1,
				UnitPrice:   unit,
				TotalPrice:  unit,
				ASIN:        firstAnchor(line),
				Currency:    lineCurrency(p, line),
			})
			pending = nil
		case "price":
			if pending != nil {
				unit := currency.ToNumber(m[1])
				pending.UnitPrice = unit
				pending.TotalPrice = unit * float64(pending.Quantity)
				if c := currency.DetectCode(line); c != "" {
					pending.Currency = c
				}
				items = append(items, *pending)
				pending = nil
			}
		}
	}
	return items
}

// classifyLine runs the ordered item ladder; the first matching rung decides
// the line's kind.
func classifyLine(p *locale.Profile, line string) (string, []string) {
	for _, pat := range p.Items {
		if m := pat.Re.FindStringSubmatch(line); m != nil {
			return pat.Kind, m
		}
	}
	return "", nil
}

func lineCurrency(p *locale.Profile, line string) string {
	if c := currency.DetectCode(line); c != "" {
		return c
	}
	return p.Currency
}

func firstAnchor(line string) string {
	return productAnchorRe.FindString(line)
}

func atoiDefault(s string, def int) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return def
		}
		n = n*10 + int(r-'0')
	}
	if n == 0 {
		return def
	}
	return n
}
