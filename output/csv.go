// Package output holds the external collaborators spec.md §6 names: CSV,
// tabular console, relational SQLite, and keyword-search writers that
// consume a carve.Result and render it for a human or another tool.
package output

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/forensickit/sqlitecarve/carve"
)

// csvBaseHeaders mirrors original_source/SQBite/Modules/output_csv.py's
// fixed prefix; any columns beyond it are padded out to the widest row as
// Data_N.
var csvBaseHeaders = []string{"Source File", "Page Number", "Table Name", "File Offset", "Row ID"}

// WriteCSV renders every RecordTuple as one CSV row, widening the header to
// the row with the most value columns (spec.md §6 "Tabular output... dynamic
// padding so every row has the same width as the widest row"). Grounded on
// original_source/SQBite/Modules/output_csv.py:write_to_csv; encoding/csv is
// used directly — no example repo in the pack wraps a third-party CSV
// library, so the standard library is the idiomatic choice here.
func WriteCSV(w io.Writer, records []carve.RecordTuple) error {
	if len(records) == 0 {
		return nil
	}
	maxValues := 0
	for _, r := range records {
		if len(r.Values) > maxValues {
			maxValues = len(r.Values)
		}
	}

	cw := csv.NewWriter(w)
	defer cw.Flush()

	headers := append([]string{}, csvBaseHeaders...)
	for i := 0; i < maxValues; i++ {
		headers = append(headers, fmt.Sprintf("Data_%d", i+1))
	}
	if err := cw.Write(headers); err != nil {
		return err
	}

	for _, r := range records {
		row := make([]string, 0, len(headers))
		row = append(row, r.SourceFile, itoa(r.PageNumber), r.TableName, itoa(r.FileOffset), i64toa(r.RowID))
		for _, v := range r.Values {
			row = append(row, v.String())
		}
		for len(row) < len(headers) {
			row = append(row, "")
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	return cw.Error()
}

func itoa(n int) string     { return fmt.Sprintf("%d", n) }
func i64toa(n int64) string { return fmt.Sprintf("%d", n) }
