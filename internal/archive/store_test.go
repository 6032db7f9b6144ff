package archive

import (
	"context"
	"errors"
	"testing"

	"github.com/16mlwood-afk/invoice-parser-sub000/constants"
	"github.com/16mlwood-afk/invoice-parser-sub000/internal/common"
	"github.com/16mlwood-afk/invoice-parser-sub000/internal/invoice"
)

func strp(s string) *string { return &s }

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), common.ArchiveConfig{DSN: ":memory:"}, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func archivedRecord(orderNumber, localeCode string) *invoice.InvoiceRecord {
	rec := invoice.NewRecord("en-US")
	if localeCode != "" {
		rec.Format = constants.Locale(localeCode)
	}
	rec.OrderNumber = strp(orderNumber)
	rec.OrderDate = strp("January 15, 2024")
	rec.Total = strp("$97.17")
	rec.CurrencyCode = "USD"
	rec.Validation = &invoice.ValidationResult{Score: 100, IsValid: true}
	return rec
}

func TestSaveAndGetRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	rec := archivedRecord("123-4567890-1234567", "")
	if err := store.Save(ctx, rec); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Get(ctx, "123-4567890-1234567")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.OrderNumber == nil || *got.OrderNumber != "123-4567890-1234567" {
		t.Errorf("order number = %v", got.OrderNumber)
	}
	if got.Total == nil || *got.Total != "$97.17" {
		t.Errorf("total = %v", got.Total)
	}
	if got.Validation == nil || got.Validation.Score != 100 {
		t.Errorf("validation = %+v", got.Validation)
	}
}

func TestSaveUpsertsByOrderNumber(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	rec := archivedRecord("123-4567890-1234567", "")
	if err := store.Save(ctx, rec); err != nil {
		t.Fatal(err)
	}
	rec.Total = strp("$100.00")
	if err := store.Save(ctx, rec); err != nil {
		t.Fatalf("re-save: %v", err)
	}

	n, err := store.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("count = %d, want 1 after upsert", n)
	}
	got, err := store.Get(ctx, "123-4567890-1234567")
	if err != nil {
		t.Fatal(err)
	}
	if *got.Total != "$100.00" {
		t.Errorf("total = %q, want replacement value", *got.Total)
	}
}

func TestSaveRejectsRecordWithoutOrderNumber(t *testing.T) {
	store := openTestStore(t)
	rec := invoice.NewRecord("en")
	err := store.Save(context.Background(), rec)
	if !errors.Is(err, common.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestGetMissingRecord(t *testing.T) {
	store := openTestStore(t)
	_, err := store.Get(context.Background(), "999-9999999-9999999")
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestListFiltersByLocale(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, archivedRecord("111-1111111-1111111", "")); err != nil {
		t.Fatal(err)
	}
	if err := store.Save(ctx, archivedRecord("222-2222222-2222222", "de")); err != nil {
		t.Fatal(err)
	}

	all, err := store.List(ctx, "", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Fatalf("all = %d, want 2", len(all))
	}

	german, err := store.List(ctx, "de", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(german) != 1 || *german[0].OrderNumber != "222-2222222-2222222" {
		t.Fatalf("german = %+v", german)
	}
}
