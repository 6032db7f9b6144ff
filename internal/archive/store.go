package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/16mlwood-afk/invoice-parser-sub000/internal/common"
	"github.com/16mlwood-afk/invoice-parser-sub000/internal/invoice"
)

const schema = `
CREATE TABLE IF NOT EXISTS invoices (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	order_number  TEXT NOT NULL UNIQUE,
	order_date    TEXT,
	locale        TEXT NOT NULL,
	currency_code TEXT,
	total         TEXT,
	score         INTEGER,
	record_json   TEXT NOT NULL,
	archived_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_invoices_locale ON invoices(locale);
`

// Store archives parsed records in a local SQLite database. Records are
// keyed by order number; re-archiving the same order replaces the stored
// record.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open connects to the archive database and applies the schema.
func Open(ctx context.Context, cfg common.ArchiveConfig, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, common.NewAppError("DB_OPEN", "opening archive database", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, common.NewAppError("DB_PING", "archive database unreachable", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, common.NewAppError("DB_MIGRATE", "applying archive schema", err)
	}
	logger.Info("archive.open", "dsn", cfg.DSN)
	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Close() error {
	s.logger.Info("archive.close")
	return s.db.Close()
}

// Save archives one record. Records without an order number are rejected;
// the order number is the archive key.
func (s *Store) Save(ctx context.Context, rec *invoice.InvoiceRecord) error {
	if rec == nil || rec.OrderNumber == nil {
		return common.NewAppError("ARCHIVE_KEY", "record has no order number", common.ErrInvalidInput)
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	score := sql.NullInt64{}
	if rec.Validation != nil {
		score = sql.NullInt64{Int64: int64(rec.Validation.Score), Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO invoices (order_number, order_date, locale, currency_code, total, score, record_json, archived_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(order_number) DO UPDATE SET
			order_date = excluded.order_date,
			locale = excluded.locale,
			currency_code = excluded.currency_code,
			total = excluded.total,
			score = excluded.score,
			record_json = excluded.record_json,
			archived_at = excluded.archived_at`,
		*rec.OrderNumber, nullStr(rec.OrderDate), string(rec.Format),
		rec.CurrencyCode, nullStr(rec.Total), score, string(payload), time.Now().UTC())
	if err != nil {
		return common.NewAppError("ARCHIVE_SAVE", "archiving record", errors.Join(common.ErrDatabase, err))
	}

	s.logger.Debug("archive.save", "order_number", *rec.OrderNumber, "locale", rec.Format)
	return nil
}

// Get loads the archived record for an order number.
func (s *Store) Get(ctx context.Context, orderNumber string) (*invoice.InvoiceRecord, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT record_json FROM invoices WHERE order_number = ?`, orderNumber).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NewAppError("ARCHIVE_GET",
			fmt.Sprintf("order %s not archived", orderNumber), common.ErrNotFound)
	}
	if err != nil {
		return nil, common.NewAppError("ARCHIVE_GET", "loading record", errors.Join(common.ErrDatabase, err))
	}

	var rec invoice.InvoiceRecord
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return &rec, nil
}

// List returns archived records, newest first, optionally filtered by locale.
func (s *Store) List(ctx context.Context, localeFilter string, limit int) ([]*invoice.InvoiceRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT record_json FROM invoices`
	args := []any{}
	if localeFilter != "" {
		query += ` WHERE locale = ?`
		args = append(args, localeFilter)
	}
	query += ` ORDER BY archived_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, common.NewAppError("ARCHIVE_LIST", "listing records", errors.Join(common.ErrDatabase, err))
	}
	defer rows.Close()

	var out []*invoice.InvoiceRecord
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var rec invoice.InvoiceRecord
		if err := json.Unmarshal([]byte(payload), &rec); err != nil {
			return nil, fmt.Errorf("decode record: %w", err)
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}

// Count returns the number of archived records.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM invoices`).Scan(&n); err != nil {
		return 0, common.NewAppError("ARCHIVE_COUNT", "counting records", errors.Join(common.ErrDatabase, err))
	}
	return n, nil
}

func nullStr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
