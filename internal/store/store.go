package store

import (
	"context"
	"io"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/finsight-group/finrag-cli/internal/config"
	"github.com/finsight-group/finrag-cli/internal/model"
)

// ErrQuery indicates the underlying engine rejected a statement. It is
// fatal for that sub-request only and is surfaced to the caller, never
// retried.
var ErrQuery = eris.New("store: query failed")

// QueryResult is a tabular query result with values rendered as strings
// (NULL rendered as "NULL").
type QueryResult struct {
	Columns []string
	Rows    [][]string
}

// EntityStore persists aggregated entity records and answers declarative
// queries over them. Replace is a full rebuild of the backing table;
// readers either see the prior version or the committed new one.
type EntityStore interface {
	Replace(ctx context.Context, records []model.EntityRecord) error
	Query(ctx context.Context, statement string) (*QueryResult, error)
	ExportCSV(ctx context.Context, w io.Writer) error
	Close() error
}

// Schema returns the entity_data DDL, used both for migration and as the
// schema description handed to the question-answering agent.
func Schema() string {
	return entityDataDDL
}

const entityDataDDL = `CREATE TABLE IF NOT EXISTS entity_data (
	company                 TEXT NOT NULL,
	year                    INTEGER NOT NULL,
	revenue                 REAL,
	revenue_reasoning       TEXT,
	revenue_unit            TEXT,
	revenue_unit_reasoning  TEXT,
	risks                   TEXT,
	risks_reasoning         TEXT,
	human_capital           INTEGER,
	human_capital_reasoning TEXT,
	source_doc              TEXT,
	PRIMARY KEY (company, year)
)`

// entityColumns is the column order used by inserts and the CSV export.
var entityColumns = []string{
	"company", "year", "revenue", "revenue_reasoning", "revenue_unit",
	"revenue_unit_reasoning", "risks", "risks_reasoning", "human_capital",
	"human_capital_reasoning", "source_doc",
}

func recordValues(r model.EntityRecord) []any {
	// The year column is an integer. A non-numeric manifest year falls
	// back to 0 rather than failing the whole replace.
	year, err := strconv.Atoi(r.Year)
	if err != nil {
		year = 0
	}
	return []any{
		r.Company, year, r.Revenue, r.RevenueReasoning, r.RevenueUnit,
		r.RevenueUnitReasoning, r.Risks, r.RisksReasoning, r.HumanCapital,
		r.HumanCapitalReasoning, r.SourceDoc,
	}
}

// New creates an EntityStore for the configured driver.
func New(ctx context.Context, cfg config.StoreConfig) (EntityStore, error) {
	switch cfg.Driver {
	case "sqlite", "":
		return NewSQLite(cfg.Path)
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}
