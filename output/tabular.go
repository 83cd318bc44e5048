package output

import (
	"io"

	"github.com/olekukonko/tablewriter"

	"github.com/forensickit/sqlitecarve/carve"
)

// WriteTabular renders record tuples as an aligned console table, every row
// padded to the widest row's column count (spec.md §6). Grounded on the
// teacher's ConsoleFormatter (formatter.go), replacing its tab-joined
// strings.Builder with olekukonko/tablewriter — present elsewhere in this
// retrieval pack's manifests — for actual column alignment rather than raw
// tab characters.
func WriteTabular(w io.Writer, records []carve.RecordTuple) {
	if len(records) == 0 {
		return
	}
	maxValues := 0
	for _, r := range records {
		if len(r.Values) > maxValues {
			maxValues = len(r.Values)
		}
	}

	table := tablewriter.NewWriter(w)
	headers := append([]string{}, csvBaseHeaders...)
	for i := 0; i < maxValues; i++ {
		headers = append(headers, "Data_"+itoa(i+1))
	}
	table.SetHeader(headers)

	for _, r := range records {
		row := make([]string, 0, len(headers))
		row = append(row, r.SourceFile, itoa(r.PageNumber), r.TableName, itoa(r.FileOffset), i64toa(r.RowID))
		for _, v := range r.Values {
			row = append(row, v.String())
		}
		for len(row) < len(headers) {
			row = append(row, "")
		}
		table.Append(row)
	}
	table.Render()
}
