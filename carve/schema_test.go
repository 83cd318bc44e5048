package carve

import "testing"

func TestParseColumnDefinitionsBasic(t *testing.T) {
	sql := `CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT NOT NULL, score NUMERIC(10,2))`
	cols := ParseColumnDefinitions(sql)
	want := []Column{
		{Name: "id", Type: "INTEGER"},
		{Name: "name", Type: "TEXT"},
		{Name: "score", Type: "NUMERIC(10,2)"},
	}
	if len(cols) != len(want) {
		t.Fatalf("ParseColumnDefinitions() = %+v, want %+v", cols, want)
	}
	for i := range want {
		if cols[i] != want[i] {
			t.Errorf("column %d = %+v, want %+v", i, cols[i], want[i])
		}
	}
}

func TestParseColumnDefinitionsSkipsConstraints(t *testing.T) {
	sql := `CREATE TABLE t (a TEXT, b TEXT, CONSTRAINT pk PRIMARY KEY (a, b))`
	cols := ParseColumnDefinitions(sql)
	if len(cols) != 2 {
		t.Fatalf("ParseColumnDefinitions() = %+v, want 2 columns", cols)
	}
	if cols[0].Name != "a" || cols[1].Name != "b" {
		t.Errorf("ParseColumnDefinitions() = %+v, want a, b", cols)
	}
}

func TestParseColumnDefinitionsDefaultsToText(t *testing.T) {
	sql := `CREATE TABLE t (a)`
	cols := ParseColumnDefinitions(sql)
	if len(cols) != 1 || cols[0].Type != "TEXT" {
		t.Errorf("ParseColumnDefinitions() = %+v, want single TEXT column", cols)
	}
}

func TestParseColumnDefinitionsStripsQuoting(t *testing.T) {
	sql := "CREATE TABLE t (`my col` TEXT)"
	cols := ParseColumnDefinitions(sql)
	if len(cols) != 1 || cols[0].Name != "my col" {
		t.Errorf("ParseColumnDefinitions() = %+v, want name \"my col\"", cols)
	}
}

func TestSplitTopLevelIgnoresNestedParens(t *testing.T) {
	parts := splitTopLevel("a INTEGER, b NUMERIC(10,2), c TEXT")
	if len(parts) != 3 {
		t.Fatalf("splitTopLevel() = %v, want 3 parts", parts)
	}
}
