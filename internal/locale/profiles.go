package locale

import (
	_ "embed"
	"fmt"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/16mlwood-afk/invoice-parser-sub000/constants"
)

//go:embed profiles.yaml
var profilesYAML []byte

// Pattern is one rung of an ordered extraction ladder. Ladders run from most
// specific to most generic; the first match wins. Guarded patterns are
// generic fallbacks that must not match inside item tables, so candidates are
// rejected when product anchors or percent tokens sit next to them.
type Pattern struct {
	Re      *regexp.Regexp
	Guarded bool
	Kind    string
}

// Profile carries everything locale-specific an extractor needs: lexical
// anchors for detection, date grammar, currency formats, and the per-field
// pattern ladders.
type Profile struct {
	Code             constants.Locale
	Language         string
	Currency         string
	Subtype          string
	StrongAnchors    []string
	MediumAnchors    []string
	CurrencyPatterns []*regexp.Regexp
	DatePatterns     []*regexp.Regexp
	DateLayouts      []string
	MonthNames       []string
	Fields           map[string][]Pattern
	SectionBoundary  *regexp.Regexp
	Items            []Pattern
	ItemTable        bool
	TableHeaders     []string
}

type rawPattern struct {
	P       string `yaml:"p"`
	Guarded bool   `yaml:"guarded"`
	Kind    string `yaml:"kind"`
}

type rawProfile struct {
	Code     string `yaml:"code"`
	Language string `yaml:"language"`
	Currency string `yaml:"currency"`
	Subtype  string `yaml:"subtype"`
	Anchors  struct {
		Strong []string `yaml:"strong"`
		Medium []string `yaml:"medium"`
	} `yaml:"anchors"`
	CurrencyPatterns []string                `yaml:"currency_patterns"`
	DatePatterns     []string                `yaml:"date_patterns"`
	DateLayouts      []string                `yaml:"date_layouts"`
	MonthNames       []string                `yaml:"month_names"`
	Fields           map[string][]rawPattern `yaml:"fields"`
	SectionBoundary  string                  `yaml:"section_boundary"`
	Items            []rawPattern            `yaml:"items"`
	ItemTable        bool                    `yaml:"item_table"`
	TableHeaders     []string                `yaml:"table_headers"`
}

type rawFile struct {
	Locales []rawProfile `yaml:"locales"`
}

// Registry holds the compiled locale profiles keyed by locale code.
type Registry struct {
	byCode map[constants.Locale]*Profile
	order  []constants.Locale
}

// Load parses and compiles the embedded profile table. Compilation failures
// are programmer errors in the rule data, so they surface as errors here and
// nowhere else.
func Load() (*Registry, error) {
	var raw rawFile
	if err := yaml.Unmarshal(profilesYAML, &raw); err != nil {
		return nil, fmt.Errorf("decode profiles: %w", err)
	}
	reg := &Registry{byCode: make(map[constants.Locale]*Profile, len(raw.Locales))}
	for _, rp := range raw.Locales {
		p, err := compile(rp)
		if err != nil {
			return nil, fmt.Errorf("profile %s: %w", rp.Code, err)
		}
		if _, dup := reg.byCode[p.Code]; dup {
			return nil, fmt.Errorf("profile %s: duplicate code", rp.Code)
		}
		reg.byCode[p.Code] = p
		reg.order = append(reg.order, p.Code)
	}
	for _, code := range constants.SupportedLocales {
		if _, ok := reg.byCode[code]; !ok {
			return nil, fmt.Errorf("profile %s: missing from rule table", code)
		}
	}
	return reg, nil
}

// MustLoad is Load for package init paths where the embedded table is known
// good (it is covered by tests).
func MustLoad() *Registry {
	reg, err := Load()
	if err != nil {
		panic(err)
	}
	return reg
}

func compile(rp rawProfile) (*Profile, error) {
	p := &Profile{
		Code:          constants.Locale(rp.Code),
		Language:      rp.Language,
		Currency:      rp.Currency,
		Subtype:       rp.Subtype,
		StrongAnchors: rp.Anchors.Strong,
		MediumAnchors: rp.Anchors.Medium,
		DateLayouts:   rp.DateLayouts,
		MonthNames:    rp.MonthNames,
		ItemTable:     rp.ItemTable,
		TableHeaders:  rp.TableHeaders,
		Fields:        make(map[string][]Pattern, len(rp.Fields)),
	}
	if p.Code == "" {
		return nil, fmt.Errorf("empty code")
	}
	if len(rp.MonthNames) != 0 && len(rp.MonthNames) != 12 {
		return nil, fmt.Errorf("month_names must have 12 entries, got %d", len(rp.MonthNames))
	}
	for _, s := range rp.CurrencyPatterns {
		re, err := regexp.Compile(s)
		if err != nil {
			return nil, fmt.Errorf("currency pattern %q: %w", s, err)
		}
		p.CurrencyPatterns = append(p.CurrencyPatterns, re)
	}
	for _, s := range rp.DatePatterns {
		re, err := regexp.Compile(s)
		if err != nil {
			return nil, fmt.Errorf("date pattern %q: %w", s, err)
		}
		p.DatePatterns = append(p.DatePatterns, re)
	}
	for field, ladder := range rp.Fields {
		compiled, err := compileLadder(ladder)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", field, err)
		}
		p.Fields[field] = compiled
	}
	if rp.SectionBoundary != "" {
		re, err := regexp.Compile(rp.SectionBoundary)
		if err != nil {
			return nil, fmt.Errorf("section boundary: %w", err)
		}
		p.SectionBoundary = re
	}
	items, err := compileLadder(rp.Items)
	if err != nil {
		return nil, fmt.Errorf("items: %w", err)
	}
	p.Items = items
	return p, nil
}

func compileLadder(raw []rawPattern) ([]Pattern, error) {
	out := make([]Pattern, 0, len(raw))
	for _, r := range raw {
		re, err := regexp.Compile(r.P)
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", r.P, err)
		}
		out = append(out, Pattern{Re: re, Guarded: r.Guarded, Kind: r.Kind})
	}
	return out, nil
}

// Get returns the profile for a locale code, or nil when unsupported.
func (r *Registry) Get(code constants.Locale) *Profile {
	return r.byCode[code]
}

// All returns profiles in detector evaluation order.
func (r *Registry) All() []*Profile {
	out := make([]*Profile, 0, len(r.order))
	for _, code := range r.order {
		out = append(out, r.byCode[code])
	}
	return out
}

// ParseDate parses a locale-formatted date string into a calendar day.
// Numeric and English layouts are tried first; locales with non-English month
// names resolve the month by name lookup.
func (p *Profile) ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range p.DateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	if len(p.MonthNames) == 12 {
		if t, ok := p.parseNamedMonth(s); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

var (
	reYear = regexp.MustCompile(`\b(\d{4})\b`)
	reDay  = regexp.MustCompile(`\b(\d{1,2})\b`)
)

func (p *Profile) parseNamedMonth(s string) (time.Time, bool) {
	lower := strings.ToLower(s)
	month := 0
	for i, name := range p.MonthNames {
		if name != "" && strings.Contains(lower, name) {
			month = i + 1
			break
		}
	}
	if month == 0 {
		return time.Time{}, false
	}
	ym := reYear.FindStringSubmatch(s)
	if ym == nil {
		return time.Time{}, false
	}
	year := atoi(ym[1])
	day := 1
	if dm := reDay.FindStringSubmatch(s); dm != nil {
		if d := atoi(dm[1]); d >= 1 && d <= 31 {
			day = d
		}
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
}

func atoi(s string) int {
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}
	return n
}
