package output

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/forensickit/sqlitecarve/carve"
)

var sqliteInternalTables = map[string]bool{
	"sqlite_master": true, "sqlite_sequence": true, "sqlite_temp_master": true,
	"sqlite_stat1": true, "sqlite_stat2": true, "sqlite_stat3": true, "sqlite_stat4": true,
}

// recordBaseColumns are the provenance columns every relational output
// table carries ahead of its declared schema columns (spec.md §6).
var recordBaseColumns = []string{
	"Record_ID", "Source_File", "Frame_Number", "Page_Number",
	"Record_Status", "Table_Name", "File_Offset", "Row_ID",
}

// WriteSQLite renders the full carve.Result into a pure-Go SQLite database:
// one table per discovered schema table (columns
// Record_ID, Source_File, Frame_Number, Page_Number, Record_Status,
// Table_Name, File_Offset, Row_ID, <declared columns>), synthetic
// "unknown" and "freelist" tables for rows that don't match a known
// schema or that came off a freelist page, and a Recovered_Records table
// for residue (spec.md §6). Grounded on
// original_source/SQBite/Modules/output_sqlite.py:write_to_sqlite, using
// modernc.org/sqlite (pure Go, no cgo) for the sink and google/uuid to
// mint Record_ID values instead of relying on SQLite's own rowid. Each
// Record_ID is a fresh random UUID, so IDs differ between runs, and a
// re-run against an existing output path appends rows to its tables.
func WriteSQLite(path string, result *carve.Result) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open output sqlite %s: %w", path, err)
	}
	defer db.Close()

	byTable := make(map[string][]carve.RecordTuple)
	maxDynamicColumns := 0
	for _, r := range result.Records {
		name := strings.ToLower(r.TableName)
		if sqliteInternalTables[name] {
			continue
		}
		target := r.TableName
		if r.RecordStatus == carve.StatusFreelist {
			target = "Freelist"
		} else if _, known := result.Context.TableMap[r.TableName]; !known {
			target = "unknown"
		}
		byTable[target] = append(byTable[target], r)
		if len(r.Values) > maxDynamicColumns {
			maxDynamicColumns = len(r.Values)
		}
	}

	for tableName, rows := range byTable {
		var columns []carve.Column
		if info, ok := result.Context.TableMap[tableName]; ok {
			columns = info.Columns
		} else {
			for i := 0; i < maxDynamicColumns; i++ {
				columns = append(columns, carve.Column{Name: fmt.Sprintf("Column_%d", i+1), Type: "TEXT"})
			}
		}
		if err := createRecordTable(db, tableName, columns); err != nil {
			return err
		}
		if err := insertRecordRows(db, tableName, columns, rows); err != nil {
			return err
		}
	}

	if err := createRecoveredTable(db); err != nil {
		return err
	}
	return insertRecoveredRows(db, result.Residue)
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func createRecordTable(db *sql.DB, tableName string, columns []carve.Column) error {
	defs := []string{
		quoteIdent("Record_ID") + " TEXT PRIMARY KEY",
		quoteIdent("Source_File") + " TEXT",
		quoteIdent("Frame_Number") + " TEXT",
		quoteIdent("Page_Number") + " INTEGER",
		quoteIdent("Record_Status") + " TEXT",
		quoteIdent("Table_Name") + " TEXT",
		quoteIdent("File_Offset") + " INTEGER",
		quoteIdent("Row_ID") + " INTEGER",
	}
	seen := map[string]bool{}
	for _, c := range columns {
		if seen[c.Name] {
			continue
		}
		seen[c.Name] = true
		defs = append(defs, quoteIdent(c.Name)+" "+c.Type)
	}
	stmt := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", quoteIdent(tableName), strings.Join(defs, ", "))
	_, err := db.Exec(stmt)
	return err
}

func insertRecordRows(db *sql.DB, tableName string, columns []carve.Column, rows []carve.RecordTuple) error {
	names := append([]string{}, recordBaseColumns...)
	for _, c := range columns {
		names = append(names, c.Name)
	}
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = quoteIdent(n)
	}
	placeholders := strings.Repeat("?, ", len(names))
	placeholders = strings.TrimSuffix(placeholders, ", ")
	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", quoteIdent(tableName), strings.Join(quoted, ", "), placeholders)

	for _, r := range rows {
		args := []interface{}{
			uuid.NewString(), r.SourceFile, r.FrameNumber, r.PageNumber,
			r.RecordStatus, r.TableName, r.FileOffset, r.RowID,
		}
		for i := range columns {
			if i < len(r.Values) {
				args = append(args, sqlValueArg(r.Values[i]))
			} else {
				args = append(args, nil)
			}
		}
		if _, err := db.Exec(stmt, args...); err != nil {
			return fmt.Errorf("insert into %s: %w", tableName, err)
		}
	}
	return nil
}

func sqlValueArg(v carve.Value) interface{} {
	switch v.Kind {
	case carve.KindNull:
		return nil
	case carve.KindInt:
		return v.Int
	case carve.KindZero:
		return 0
	case carve.KindOne:
		return 1
	case carve.KindReal:
		return v.Real
	case carve.KindText:
		return string(v.Raw)
	case carve.KindBlob:
		return v.Raw
	default:
		return nil
	}
}

func createRecoveredTable(db *sql.DB) error {
	stmt := `CREATE TABLE IF NOT EXISTS "Recovered_Records" (
		"Record_ID" TEXT PRIMARY KEY,
		"Source_File" TEXT,
		"Frame_Number" TEXT,
		"Page_Number" INTEGER,
		"Page_Type" TEXT,
		"Table_Name" TEXT,
		"File_Offset" INTEGER,
		"Recovered_Data" TEXT
	)`
	_, err := db.Exec(stmt)
	return err
}

func insertRecoveredRows(db *sql.DB, residue []carve.RecoveredTuple) error {
	stmt := `INSERT INTO "Recovered_Records"
		("Record_ID", "Source_File", "Frame_Number", "Page_Number", "Page_Type", "Table_Name", "File_Offset", "Recovered_Data")
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	for _, r := range residue {
		_, err := db.Exec(stmt, uuid.NewString(), r.SourceFile, r.FrameNumber, r.PageNumber, r.PageType, r.TableName, r.FileOffset, r.PrintableText)
		if err != nil {
			return fmt.Errorf("insert into Recovered_Records: %w", err)
		}
	}
	return nil
}
