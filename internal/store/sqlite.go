package store

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/finsight-group/finrag-cli/internal/model"
)

// SQLiteStore implements EntityStore using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path, configures WAL
// mode and creates the entity_data table if missing.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	if _, err := db.Exec(entityDataDDL); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "sqlite: migrate")
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Replace rebuilds entity_data from records inside one transaction, so
// readers never observe a partially written table.
func (s *SQLiteStore) Replace(ctx context.Context, records []model.EntityRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin replace")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM entity_data`); err != nil {
		return eris.Wrap(err, "sqlite: clear entity_data")
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(entityColumns)), ", ")
	insert := fmt.Sprintf(`INSERT INTO entity_data (%s) VALUES (%s)`,
		strings.Join(entityColumns, ", "), placeholders)

	for _, r := range records {
		if _, err := tx.ExecContext(ctx, insert, recordValues(r)...); err != nil {
			return eris.Wrapf(err, "sqlite: insert record %s/%s", r.Company, r.Year)
		}
	}

	if err := tx.Commit(); err != nil {
		return eris.Wrap(err, "sqlite: commit replace")
	}
	return nil
}

// Query executes a statement and renders the result as strings. Engine
// errors are wrapped as ErrQuery and surfaced, never retried.
func (s *SQLiteStore) Query(ctx context.Context, statement string) (*QueryResult, error) {
	rows, err := s.db.QueryContext(ctx, statement)
	if err != nil {
		return nil, eris.Wrapf(ErrQuery, "sqlite: %v", err)
	}
	defer rows.Close()

	return scanRows(rows)
}

// ExportCSV writes the entity_data table as a flat CSV mirror for audit.
func (s *SQLiteStore) ExportCSV(ctx context.Context, w io.Writer) error {
	result, err := s.Query(ctx, `SELECT `+strings.Join(entityColumns, ", ")+` FROM entity_data ORDER BY company, year`)
	if err != nil {
		return err
	}
	return writeCSV(w, result)
}

func scanRows(rows *sql.Rows) (*QueryResult, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, eris.Wrap(err, "store: read columns")
	}

	result := &QueryResult{Columns: cols}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, eris.Wrap(err, "store: scan row")
		}
		result.Rows = append(result.Rows, renderValues(values))
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrapf(ErrQuery, "store: %v", err)
	}
	return result, nil
}

func renderValues(values []any) []string {
	out := make([]string, len(values))
	for i, v := range values {
		switch t := v.(type) {
		case nil:
			out[i] = "NULL"
		case []byte:
			out[i] = string(t)
		case float64:
			// Plain digits, never scientific notation. The rendered text
			// feeds the SQL interpretation model and the CSV audit mirror.
			out[i] = strconv.FormatFloat(t, 'f', -1, 64)
		case float32:
			out[i] = strconv.FormatFloat(float64(t), 'f', -1, 32)
		default:
			out[i] = fmt.Sprintf("%v", t)
		}
	}
	return out
}
