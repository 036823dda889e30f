package store

import (
	"encoding/csv"
	"io"

	"github.com/rotisserie/eris"
)

// writeCSV renders a query result as CSV with a header row.
func writeCSV(w io.Writer, result *QueryResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(result.Columns); err != nil {
		return eris.Wrap(err, "store: write csv header")
	}
	for _, row := range result.Rows {
		if err := cw.Write(row); err != nil {
			return eris.Wrap(err, "store: write csv row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "store: flush csv")
}
