package output

import (
	"strings"

	"github.com/forensickit/sqlitecarve/carve"
)

// SearchHit is one record whose non-metadata column values contain the
// search keyword, case-insensitively.
type SearchHit struct {
	TableName    string
	RowID        int64
	RecordStatus string
	Matches      map[string]string
}

// SearchKeyword scans every RecordTuple's values for a case-insensitive
// substring match. Every row is scanned, including rows of synthetic
// tables; only the values are searched, never the provenance fields
// (original_source/SQBite/Modules/instasearch.py needs a column-name
// exclusion list for that, which this data model does not). Match keys
// are the column names from schema's TableInfo.Columns when the row's
// table is known, and positional names (Column_1, Column_2, ...)
// otherwise.
func SearchKeyword(records []carve.RecordTuple, schema map[string]*carve.TableInfo, keyword string) []SearchHit {
	needle := strings.ToLower(keyword)
	var hits []SearchHit

	for _, r := range records {
		matches := map[string]string{}
		names := columnNames(schema, r.TableName, len(r.Values))
		for i, v := range r.Values {
			text := v.String()
			if text == "" {
				continue
			}
			if strings.Contains(strings.ToLower(text), needle) {
				matches[names[i]] = text
			}
		}
		if len(matches) > 0 {
			hits = append(hits, SearchHit{
				TableName:    r.TableName,
				RowID:        r.RowID,
				RecordStatus: r.RecordStatus,
				Matches:      matches,
			})
		}
	}
	return hits
}

func columnNames(schema map[string]*carve.TableInfo, table string, n int) []string {
	names := make([]string, n)
	info, ok := schema[table]
	for i := range names {
		if ok && i < len(info.Columns) {
			names[i] = info.Columns[i].Name
		} else {
			names[i] = "Column_" + itoa(i+1)
		}
	}
	return names
}
