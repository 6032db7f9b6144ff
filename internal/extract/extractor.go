package extract

import (
	"fmt"
	"log/slog"

	"github.com/16mlwood-afk/invoice-parser-sub000/constants"
	"github.com/16mlwood-afk/invoice-parser-sub000/internal/common"
	"github.com/16mlwood-afk/invoice-parser-sub000/internal/invoice"
	"github.com/16mlwood-afk/invoice-parser-sub000/internal/locale"
)

// Extractor is the shared field-extraction contract every locale implements.
// Each operation is independently callable and returns nil when the field is
// absent or malformed; a poisoned field never blocks the others.
type Extractor interface {
	Locale() constants.Locale
	ExtractOrderNumber(text string) *string
	ExtractOrderDate(text string) *string
	ExtractItems(text string) []invoice.LineItem
	ExtractSubtotal(text string) *string
	ExtractShipping(text string) *string
	ExtractTax(text string) *string
	ExtractDiscount(text string) *string
	ExtractTotal(text string) *string
}

// Registry dispatches detected locales to their extractors. All supported
// locales share the generic pattern-ladder extractor, parameterized by their
// profile; table layouts additionally route item extraction through the
// table-anchored extractor.
type Registry struct {
	profiles *locale.Registry
	cfg      common.ExtractionConfig
	logger   *slog.Logger
	byCode   map[constants.Locale]Extractor
}

// NewRegistry builds extractors for every profile in the locale registry.
func NewRegistry(profiles *locale.Registry, cfg common.ExtractionConfig, logger *slog.Logger) (*Registry, error) {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{
		profiles: profiles,
		cfg:      cfg,
		logger:   logger,
		byCode:   make(map[constants.Locale]Extractor),
	}
	for _, p := range profiles.All() {
		r.byCode[p.Code] = NewLocaleExtractor(p, cfg, logger)
	}
	if _, ok := r.byCode[constants.LocaleEnglish]; !ok {
		return nil, fmt.Errorf("registry: missing fallback locale %s", constants.LocaleEnglish)
	}
	return r, nil
}

// Get returns the extractor for a locale. Unknown or unsupported locales
// fall back to the generic English extractor so extraction can still be
// attempted.
func (r *Registry) Get(code constants.Locale) Extractor {
	if ex, ok := r.byCode[code]; ok {
		return ex
	}
	return r.byCode[constants.LocaleEnglish]
}

// Supported reports whether a locale has its own extractor.
func (r *Registry) Supported(code constants.Locale) bool {
	_, ok := r.byCode[code]
	return ok
}
