package invoice

import (
	"time"

	"github.com/google/uuid"

	"github.com/16mlwood-afk/invoice-parser-sub000/constants"
)

// InvoiceRecord is the stable boundary contract of the parser: one record per
// document, populated field-by-field by the selected extractor, validated,
// and immutable once returned. Monetary fields keep the currency-formatted
// strings as found in the source; numeric interpretation happens through the
// currency normalizer.
type InvoiceRecord struct {
	OrderNumber  *string               `json:"order_number"`
	OrderDate    *string               `json:"order_date"`
	Items        []LineItem            `json:"items"`
	Subtotal     *string               `json:"subtotal"`
	Shipping     *string               `json:"shipping"`
	Tax          *string               `json:"tax"`
	Discount     *string               `json:"discount"`
	Total        *string               `json:"total"`
	CurrencyCode string                `json:"currency_code"`
	Vendor       string                `json:"vendor"`
	Format       constants.Locale      `json:"format"`
	Subtype      string                `json:"subtype,omitempty"`
	Validation   *ValidationResult     `json:"validation,omitempty"`
	Recovery     *RecoveryInfo         `json:"recovery,omitempty"`
	Metadata     *ExtractionMetadata   `json:"metadata,omitempty"`
}

// LineItem is one purchased item. Quantity defaults to 1.
type LineItem struct {
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	TotalPrice  float64 `json:"total_price"`
	ASIN        string  `json:"asin,omitempty"`
	Currency    string  `json:"currency,omitempty"`
}

// DetectionResult is the outcome of a single detection probe. Produced once
// per parse, not retained.
type DetectionResult struct {
	Locale     constants.Locale `json:"locale"`
	Confidence float64          `json:"confidence"`
	Evidence   []string         `json:"evidence,omitempty"`
	Supported  bool             `json:"supported"`
	// Language is the canonical BCP 47 tag for the detected locale, "und"
	// for UNKNOWN and for the pan-EU layout families.
	Language string `json:"language,omitempty"`
}

// Severity classifies validation findings.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Finding is a single validation observation.
type Finding struct {
	Type     string   `json:"type"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Fields   []string `json:"fields,omitempty"`
}

// ValidationResult carries the confidence score and findings for a record.
// Score starts at 100 and is decremented by weighted penalties; IsValid is
// true iff there are zero error-severity findings.
type ValidationResult struct {
	Score    int       `json:"score"`
	IsValid  bool      `json:"is_valid"`
	Warnings []Finding `json:"warnings"`
	Errors   []Finding `json:"errors"`
	Summary  string    `json:"summary"`
}

// ErrorLevel classifies categorized errors.
type ErrorLevel string

const (
	LevelCritical    ErrorLevel = "critical"
	LevelRecoverable ErrorLevel = "recoverable"
	LevelInfo        ErrorLevel = "info"
)

// CategorizedError is the taxonomy entry produced for a failure: file/access
// errors are critical and non-recoverable, extraction failures are
// recoverable (they trigger the partial-recovery path), everything else is
// informational.
type CategorizedError struct {
	Level       ErrorLevel `json:"level"`
	Type        string     `json:"type"`
	Message     string     `json:"message"`
	Context     string     `json:"context,omitempty"`
	Recoverable bool       `json:"recoverable"`
	Suggestion  string     `json:"suggestion,omitempty"`
}

// Priority tags recovery suggestions.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// RecoverySuggestion is one actionable follow-up for a failed or partially
// failed extraction.
type RecoverySuggestion struct {
	Priority Priority `json:"priority"`
	Action   string   `json:"action"`
}

// PartialRecord is the result of re-running every field extractor
// independently after a failure. Usable is true only when both order number
// and order date succeeded and overall confidence clears the gate; the gate
// keeps low-trust partial data out of downstream financial aggregation.
type PartialRecord struct {
	Record          *InvoiceRecord     `json:"record,omitempty"`
	FieldConfidence map[string]float64 `json:"field_confidence"`
	Overall         float64            `json:"overall"`
	Usable          bool               `json:"usable"`
}

// RecoveryInfo is attached to records produced through partial recovery.
type RecoveryInfo struct {
	Cause       string               `json:"cause"`
	Overall     float64              `json:"overall"`
	Suggestions []RecoverySuggestion `json:"suggestions,omitempty"`
}

// ExtractionMetadata carries per-call diagnostics. It never influences
// validation.
type ExtractionMetadata struct {
	JobID               uuid.UUID     `json:"job_id"`
	Locale              constants.Locale `json:"locale"`
	DetectionConfidence float64       `json:"detection_confidence"`
	TextBytes           int           `json:"text_bytes"`
	Duration            time.Duration `json:"duration_ns"`
}

// NewRecord returns a fresh record with vendor and format defaults applied.
func NewRecord(format constants.Locale) *InvoiceRecord {
	return &InvoiceRecord{
		Items:  []LineItem{},
		Vendor: constants.DefaultVendor,
		Format: format,
	}
}
