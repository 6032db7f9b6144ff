package invoice

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildRecordJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a
// generic map describing the InvoiceRecord boundary contract. Downstream
// consumers validate against it; unknown fields are stripped rather than
// failing the whole parse.
func BuildRecordJSONSchema() map[string]any {
	nullableString := map[string]any{"type": []string{"string", "null"}}
	item := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"description": map[string]any{"type": "string"},
			"quantity":    map[string]any{"type": "integer", "minimum": 1},
			"unit_price":  map[string]any{"type": "number"},
			"total_price": map[string]any{"type": "number"},
			"asin":        map[string]any{"type": "string"},
			"currency":    map[string]any{"type": "string"},
		},
		"required": []string{"description", "quantity"},
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"order_number": map[string]any{
				"type":    []string{"string", "null"},
				"pattern": `^\d{3}-\d{7}-\d{7}$`,
			},
			"order_date":    nullableString,
			"items":         map[string]any{"type": "array", "items": item},
			"subtotal":      nullableString,
			"shipping":      nullableString,
			"tax":           nullableString,
			"discount":      nullableString,
			"total":         nullableString,
			"currency_code": map[string]any{"type": "string"},
			"vendor":        map[string]any{"type": "string", "minLength": 1},
			"format":        map[string]any{"type": "string"},
			"subtype":       map[string]any{"type": "string"},
			"validation":    map[string]any{"type": "object"},
			"recovery":      map[string]any{"type": "object"},
			"metadata":      map[string]any{"type": "object"},
		},
		"required":             []string{"items", "currency_code", "vendor", "format"},
		"additionalProperties": false,
	}
}

// ValidateRecordJSON validates record JSON against the boundary schema.
func ValidateRecordJSON(data []byte) error {
	b, err := json.Marshal(BuildRecordJSONSchema())
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("record.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("record.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal record: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("record does not match schema: %w", err)
	}
	return nil
}

// allowedKeys is the schema field set; anything else is stripped.
var allowedKeys = map[string]struct{}{
	"order_number": {}, "order_date": {}, "items": {}, "subtotal": {},
	"shipping": {}, "tax": {}, "discount": {}, "total": {},
	"currency_code": {}, "vendor": {}, "format": {}, "subtype": {},
	"validation": {}, "recovery": {}, "metadata": {},
}

// NormalizeAndStrip removes unknown top-level keys from record JSON so a
// strict consumer can still validate it. Returns the cleaned JSON and the
// names of stripped keys.
func NormalizeAndStrip(raw []byte, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("strip: decode: %w", err)
	}
	var dropped []string
	for k := range m {
		if _, ok := allowedKeys[k]; !ok {
			delete(m, k)
			dropped = append(dropped, k)
		}
	}
	out, err := json.Marshal(m)
	if err != nil {
		return nil, dropped, fmt.Errorf("strip: encode: %w", err)
	}
	if len(dropped) > 0 {
		logger.Warn("record.schema.stripped_unknown_fields", "dropped", dropped)
	}
	return out, dropped, nil
}
