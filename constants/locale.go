package constants

// Locale identifies an invoice language/layout family. The string values are
// stable and stored in archived records.
type Locale string

const (
	LocaleUnknown    Locale = "UNKNOWN"
	LocaleEnglish    Locale = "en"
	LocaleUS         Locale = "en-US"
	LocaleUK         Locale = "en-GB"
	LocaleGerman     Locale = "de"
	LocaleFrench     Locale = "fr"
	LocaleItalian    Locale = "it"
	LocaleSpanish    Locale = "es"
	LocaleJapanese   Locale = "ja"
	LocaleSwiss      Locale = "de-CH"
	LocaleCanadianFR Locale = "fr-CA"
	LocaleEUBusiness Locale = "eu-business"
	LocaleEUConsumer Locale = "eu-consumer"
)

// SupportedLocales lists every locale with a registered extractor, in the
// order the detector evaluates them.
var SupportedLocales = []Locale{
	LocaleUS,
	LocaleUK,
	LocaleEnglish,
	LocaleGerman,
	LocaleSwiss,
	LocaleFrench,
	LocaleCanadianFR,
	LocaleItalian,
	LocaleSpanish,
	LocaleJapanese,
	LocaleEUBusiness,
	LocaleEUConsumer,
}

// DefaultVendor is the vendor attributed to every parsed invoice. The parser
// targets a single vendor's invoice families.
const DefaultVendor = "Amazon"

// MinDetectionConfidence is the floor under which detection reports UNKNOWN.
const MinDetectionConfidence = 0.3
