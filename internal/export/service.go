package export

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/16mlwood-afk/invoice-parser-sub000/internal/aggregate"
	"github.com/16mlwood-afk/invoice-parser-sub000/internal/invoice"
)

// Service produces XLSX bytes for parsed invoice records.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// ExportXLSX returns a workbook with one row per record on the Invoices
// sheet and the batch aggregation on the Summary sheet. Nil records (failed
// documents) are skipped.
func (s *Service) ExportXLSX(records []*invoice.InvoiceRecord, summary aggregate.Summary) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	const invoicesSheet = "Invoices"
	if err := f.SetSheetName(f.GetSheetName(0), invoicesSheet); err != nil {
		return nil, err
	}

	headers := []string{
		"Order Number",
		"Order Date",
		"Locale",
		"Currency",
		"Subtotal",
		"Shipping",
		"Tax",
		"Total",
		"Items",
		"Score",
		"Valid",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(invoicesSheet, cell, h)
	}

	row := 2
	exported := 0
	for _, r := range records {
		if r == nil {
			continue
		}
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(invoicesSheet, cell, v)
		}
		write(1, deref(r.OrderNumber))
		write(2, deref(r.OrderDate))
		write(3, string(r.Format))
		write(4, r.CurrencyCode)
		write(5, deref(r.Subtotal))
		write(6, deref(r.Shipping))
		write(7, deref(r.Tax))
		write(8, deref(r.Total))
		write(9, len(r.Items))
		if r.Validation != nil {
			write(10, r.Validation.Score)
			write(11, r.Validation.IsValid)
		}
		row++
		exported++
	}

	_ = f.SetColWidth(invoicesSheet, "A", "A", 22) // order number
	_ = f.SetColWidth(invoicesSheet, "B", "B", 18) // date
	_ = f.SetColWidth(invoicesSheet, "C", "D", 10)
	_ = f.SetColWidth(invoicesSheet, "E", "H", 14) // amounts

	if err := s.writeSummarySheet(f, summary); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", exported,
		"currencies", len(summary.ByCurrency),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func (s *Service) writeSummarySheet(f *excelize.File, summary aggregate.Summary) error {
	const sheet = "Summary"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	set := func(col, row int, v any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(sheet, cell, v)
	}

	set(1, 1, "Records")
	set(2, 1, summary.Records)
	set(1, 2, "Skipped")
	set(2, 2, summary.Skipped)

	row := 4
	set(1, row, "Currency")
	set(2, row, "Orders")
	set(3, row, "Total")
	row++
	for _, ct := range summary.ByCurrency {
		set(1, row, ct.Currency)
		set(2, row, ct.Orders)
		set(3, row, ct.Total.StringFixed(2))
		row++
	}

	row++
	set(1, row, "Month")
	set(2, row, "Currency")
	set(3, row, "Orders")
	set(4, row, "Total")
	row++
	for _, mt := range summary.ByMonth {
		set(1, row, mt.Month)
		set(2, row, mt.Currency)
		set(3, row, mt.Orders)
		set(4, row, mt.Total.StringFixed(2))
		row++
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
