package detect

import (
	"log/slog"
	"strings"

	"golang.org/x/text/language"

	"github.com/16mlwood-afk/invoice-parser-sub000/constants"
	"github.com/16mlwood-afk/invoice-parser-sub000/internal/invoice"
	"github.com/16mlwood-afk/invoice-parser-sub000/internal/locale"
)

// Scoring weights. Each locale accumulates independently and is capped at 1.
const (
	strongAnchorWeight = 0.15
	mediumAnchorWeight = 0.08
	currencyWeight     = 0.10
	currencyCap        = 0.20
	dateWeight         = 0.10
)

// Detector scores raw text against every locale signature and returns the
// best guess. Detection is pure: no side effects beyond diagnostic logging,
// and the same text always yields the same result.
type Detector struct {
	profiles      *locale.Registry
	minConfidence float64
	logger        *slog.Logger
}

// New builds a detector over the locale registry. minConfidence is the floor
// below which the winner is discarded and UNKNOWN returned.
func New(profiles *locale.Registry, minConfidence float64, logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	if minConfidence <= 0 {
		minConfidence = constants.MinDetectionConfidence
	}
	return &Detector{profiles: profiles, minConfidence: minConfidence, logger: logger}
}

// Detect scores text against each supported locale and returns the highest
// scorer. Empty input yields UNKNOWN with confidence 0. Ties resolve to the
// earlier profile in evaluation order, keeping results deterministic.
func (d *Detector) Detect(text string) invoice.DetectionResult {
	if strings.TrimSpace(text) == "" {
		return invoice.DetectionResult{
			Locale:   constants.LocaleUnknown,
			Language: language.Und.String(),
		}
	}

	lower := strings.ToLower(text)

	var best invoice.DetectionResult
	best.Locale = constants.LocaleUnknown
	for _, p := range d.profiles.All() {
		score, evidence := d.score(p, text, lower)
		if score > best.Confidence {
			best = invoice.DetectionResult{
				Locale:     p.Code,
				Confidence: score,
				Evidence:   evidence,
				Supported:  true,
			}
		}
	}

	if best.Confidence < d.minConfidence {
		d.logger.Debug("detect.below_floor",
			"best_locale", best.Locale, "confidence", best.Confidence)
		return invoice.DetectionResult{
			Locale:     constants.LocaleUnknown,
			Confidence: best.Confidence,
			Language:   language.Und.String(),
		}
	}

	best.Language = languageTag(best.Locale).String()
	d.logger.Debug("detect.ok",
		"locale", best.Locale, "language", best.Language,
		"confidence", best.Confidence, "evidence", len(best.Evidence))
	return best
}

// languageTag resolves a locale code to its canonical BCP 47 tag. The pan-EU
// layout families span several languages, so they map to und.
func languageTag(code constants.Locale) language.Tag {
	switch code {
	case constants.LocaleEUBusiness, constants.LocaleEUConsumer, constants.LocaleUnknown:
		return language.Und
	}
	return language.Make(string(code))
}

func (d *Detector) score(p *locale.Profile, text, lower string) (float64, []string) {
	score := 0.0
	var evidence []string

	for _, anchor := range p.StrongAnchors {
		if strings.Contains(lower, strings.ToLower(anchor)) {
			score += strongAnchorWeight
			evidence = append(evidence, anchor)
		}
	}
	for _, anchor := range p.MediumAnchors {
		if strings.Contains(lower, strings.ToLower(anchor)) {
			score += mediumAnchorWeight
			evidence = append(evidence, anchor)
		}
	}

	cur := 0.0
	for _, re := range p.CurrencyPatterns {
		if re.MatchString(text) {
			cur += currencyWeight
			if cur >= currencyCap {
				cur = currencyCap
				break
			}
		}
	}
	score += cur

	for _, re := range p.DatePatterns {
		if re.MatchString(text) {
			score += dateWeight
			break
		}
	}

	if score > 1.0 {
		score = 1.0
	}
	return score, evidence
}
