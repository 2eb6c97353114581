package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"business-scraper/models"
	"business-scraper/utils"
)

// PostgresWriter stores each record as a JSONB document. Records are appended;
// nothing is deduplicated.
type PostgresWriter struct {
	db   *sql.DB
	site string
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresWriter tagging rows with site.
func NewPostgresWriter(ctx context.Context, dsn, site string, logger *utils.Logger) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	retry := &utils.RetryConfig{MaxAttempts: 5, BaseDelay: time.Second, Logger: logger}
	if err := retry.Do(ctx, "postgres ping", func() error { return db.PingContext(ctx) }); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}

	pw := &PostgresWriter{db: db, site: site}
	if err := pw.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate(ctx context.Context) error {
	_, err := pw.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS businesses (
			id          SERIAL PRIMARY KEY,
			site        VARCHAR(100) NOT NULL,
			name        TEXT         NOT NULL,
			category    TEXT         NOT NULL DEFAULT '',
			address     TEXT         NOT NULL DEFAULT '',
			source      TEXT         NOT NULL DEFAULT '',
			document    JSONB        NOT NULL,
			captured_at TIMESTAMPTZ  NOT NULL,
			created_at  TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_businesses_site     ON businesses(site);
		CREATE INDEX IF NOT EXISTS idx_businesses_name     ON businesses(name);
		CREATE INDEX IF NOT EXISTS idx_businesses_category ON businesses(category);
	`)
	return err
}

// Write batch-inserts all records.
func (pw *PostgresWriter) Write(records []models.Record) error {
	const batchSize = 50
	for i := 0; i < len(records); i += batchSize {
		end := min(i+batchSize, len(records))
		if err := pw.insertBatch(records[i:end]); err != nil {
			return err
		}
	}
	return nil
}

const insertColumns = 7

func (pw *PostgresWriter) insertBatch(batch []models.Record) error {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]any, 0, len(batch)*insertColumns)

	for idx, r := range batch {
		doc, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("postgres: encode %q: %w", r.Name, err)
		}

		base := idx * insertColumns
		valueStrings = append(valueStrings,
			fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d,$%d)",
				base+1, base+2, base+3, base+4, base+5, base+6, base+7))
		valueArgs = append(valueArgs,
			pw.site, r.Name, r.Category, r.Address, r.Source, string(doc), r.CapturedAt)
	}

	query := fmt.Sprintf(`
		INSERT INTO businesses (site, name, category, address, source, document, captured_at)
		VALUES %s
	`, strings.Join(valueStrings, ","))

	if _, err := pw.db.Exec(query, valueArgs...); err != nil {
		return fmt.Errorf("postgres: insert: %w", err)
	}
	return nil
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}

// FetchAll retrieves every stored record of this writer's site, used by the
// insight service.
func (pw *PostgresWriter) FetchAll(ctx context.Context) ([]models.Record, error) {
	rows, err := pw.db.QueryContext(ctx, `
		SELECT document
		FROM businesses
		WHERE site = $1
		ORDER BY id
	`, pw.site)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch all: %w", err)
	}
	defer rows.Close()

	var records []models.Record
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		var r models.Record
		if err := json.Unmarshal(doc, &r); err != nil {
			return nil, fmt.Errorf("postgres: decode document: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
