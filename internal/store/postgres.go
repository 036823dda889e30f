package store

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/finsight-group/finrag-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses; pgxmock satisfies it
// in tests.
type Pool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements EntityStore using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool and ensures
// the entity_data table exists.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}

	if _, err := pool.Exec(ctx, entityDataDDL); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: migrate")
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// Replace rebuilds entity_data from records inside one transaction.
func (s *PostgresStore) Replace(ctx context.Context, records []model.EntityRecord) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin replace")
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM entity_data`); err != nil {
		return eris.Wrap(err, "postgres: clear entity_data")
	}

	placeholders := make([]string, len(entityColumns))
	for i := range placeholders {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	insert := fmt.Sprintf(`INSERT INTO entity_data (%s) VALUES (%s)`,
		strings.Join(entityColumns, ", "), strings.Join(placeholders, ", "))

	for _, r := range records {
		if _, err := tx.Exec(ctx, insert, recordValues(r)...); err != nil {
			return eris.Wrapf(err, "postgres: insert record %s/%s", r.Company, r.Year)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return eris.Wrap(err, "postgres: commit replace")
	}
	return nil
}

// Query executes a statement and renders the result as strings.
func (s *PostgresStore) Query(ctx context.Context, statement string) (*QueryResult, error) {
	rows, err := s.pool.Query(ctx, statement)
	if err != nil {
		return nil, eris.Wrapf(ErrQuery, "postgres: %v", err)
	}
	defer rows.Close()

	descs := rows.FieldDescriptions()
	cols := make([]string, len(descs))
	for i, d := range descs {
		cols[i] = d.Name
	}

	result := &QueryResult{Columns: cols}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, eris.Wrap(err, "postgres: read row")
		}
		result.Rows = append(result.Rows, renderValues(values))
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrapf(ErrQuery, "postgres: %v", err)
	}
	return result, nil
}

// ExportCSV writes the entity_data table as a flat CSV mirror for audit.
func (s *PostgresStore) ExportCSV(ctx context.Context, w io.Writer) error {
	result, err := s.Query(ctx, `SELECT `+strings.Join(entityColumns, ", ")+` FROM entity_data ORDER BY company, year`)
	if err != nil {
		return err
	}
	return writeCSV(w, result)
}
