package store

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsight-group/finrag-cli/internal/config"
	"github.com/finsight-group/finrag-cli/internal/model"
)

func configWithDriver(driver string) config.StoreConfig {
	return config.StoreConfig{Driver: driver}
}

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	return st
}

func ptr[T any](v T) *T { return &v }

func testRecords() []model.EntityRecord {
	return []model.EntityRecord{
		{
			Company:              "acme",
			Year:                 "2021",
			Revenue:              ptr(500000000.0),
			RevenueReasoning:     ptr("Revenue was $500 million."),
			RevenueUnit:          ptr("USD"),
			RevenueUnitReasoning: ptr("Report in dollars."),
			Risks:                ptr("supply chain"),
			RisksReasoning:       ptr("page 3"),
			HumanCapital:         ptr(int64(1200)),
			SourceDoc:            "https://example.com/acme-2021.pdf",
		},
		{
			Company:   "zenith",
			Year:      "2020",
			SourceDoc: "zenith-2020.pdf",
		},
	}
}

func TestSQLite_ReplaceAndQuery(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.Replace(ctx, testRecords()))

	res, err := st.Query(ctx, `SELECT company, revenue FROM entity_data ORDER BY company`)
	require.NoError(t, err)
	assert.Equal(t, []string{"company", "revenue"}, res.Columns)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, "acme", res.Rows[0][0])
	assert.Equal(t, "500000000", res.Rows[0][1])
	assert.Equal(t, "zenith", res.Rows[1][0])
	assert.Equal(t, "NULL", res.Rows[1][1])
}

func TestSQLite_RealColumnsRenderPlainDigits(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	recs := []model.EntityRecord{{
		Company:   "acme",
		Year:      "2021",
		Revenue:   ptr(469822000.0),
		SourceDoc: "acme-2021.pdf",
	}}
	require.NoError(t, st.Replace(ctx, recs))

	res, err := st.Query(ctx, `SELECT revenue FROM entity_data`)
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "469822000", res.Rows[0][0])
	assert.NotContains(t, res.Rows[0][0], "e+")

	var buf bytes.Buffer
	require.NoError(t, st.ExportCSV(ctx, &buf))
	assert.Contains(t, buf.String(), "acme,2021,469822000,")
	assert.NotContains(t, buf.String(), "e+08")
}

func TestSQLite_ReplaceIsFullRebuild(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.Replace(ctx, testRecords()))
	require.NoError(t, st.Replace(ctx, testRecords()[:1]))

	res, err := st.Query(ctx, `SELECT company FROM entity_data`)
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "acme", res.Rows[0][0])
}

func TestSQLite_QueryError(t *testing.T) {
	st := newTestSQLiteStore(t)

	_, err := st.Query(context.Background(), `SELECT nope FROM missing_table`)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrQuery)
}

func TestSQLite_AggregateQuery(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	require.NoError(t, st.Replace(ctx, testRecords()))

	res, err := st.Query(ctx, `SELECT COUNT(*) FROM entity_data WHERE revenue IS NOT NULL`)
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "1", res.Rows[0][0])
}

func TestSQLite_ExportCSV(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	require.NoError(t, st.Replace(ctx, testRecords()))

	var buf bytes.Buffer
	require.NoError(t, st.ExportCSV(ctx, &buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, strings.Join(entityColumns, ","), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "acme,2021,"))
	assert.True(t, strings.HasPrefix(lines[2], "zenith,2020,"))
	assert.Contains(t, lines[2], "NULL")
}

func TestNew_UnknownDriver(t *testing.T) {
	_, err := New(context.Background(), configWithDriver("mysql"))
	require.Error(t, err)
}

func TestNew_SQLiteDriver(t *testing.T) {
	cfg := configWithDriver("sqlite")
	cfg.Path = filepath.Join(t.TempDir(), "entities.db")

	st, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer st.Close()
	assert.IsType(t, &SQLiteStore{}, st)
}
