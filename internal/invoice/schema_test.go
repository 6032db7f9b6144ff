package invoice

import (
	"encoding/json"
	"testing"

	"github.com/16mlwood-afk/invoice-parser-sub000/constants"
)

func strPtr(s string) *string { return &s }

func TestValidateRecordJSON(t *testing.T) {
	rec := NewRecord(constants.LocaleUS)
	rec.OrderNumber = strPtr("123-4567890-1234567")
	rec.OrderDate = strPtr("December 15, 2023")
	rec.Total = strPtr("$97.17")
	rec.CurrencyCode = "USD"

	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := ValidateRecordJSON(data); err != nil {
		t.Errorf("valid record rejected: %v", err)
	}
}

func TestValidateRecordJSONRejectsMalformedOrderNumber(t *testing.T) {
	rec := NewRecord(constants.LocaleUS)
	rec.OrderNumber = strPtr("123-4567890-123456") // 3-7-6
	rec.CurrencyCode = "USD"

	data, _ := json.Marshal(rec)
	if err := ValidateRecordJSON(data); err == nil {
		t.Error("expected schema violation for 3-7-6 order number")
	}
}

func TestNormalizeAndStrip(t *testing.T) {
	raw := []byte(`{"order_number":"123-4567890-1234567","items":[],"currency_code":"USD","vendor":"Amazon","format":"en-US","unexpected":"x","legacy_field":1}`)
	out, dropped, err := NormalizeAndStrip(raw, nil)
	if err != nil {
		t.Fatalf("NormalizeAndStrip: %v", err)
	}
	if len(dropped) != 2 {
		t.Errorf("dropped = %v, want 2 keys", dropped)
	}
	if err := ValidateRecordJSON(out); err != nil {
		t.Errorf("stripped record should validate: %v", err)
	}

	if _, _, err := NormalizeAndStrip([]byte("not json"), nil); err == nil {
		t.Error("expected decode error")
	}
}
