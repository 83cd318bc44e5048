package carve

// Column is an ordered (name, declared-type) pair extracted from a
// CREATE TABLE statement (spec.md §4.6).
type Column struct {
	Name string
	Type string
}

// TableInfo is one entry of the TableMap derived entity (spec.md §3).
type TableInfo struct {
	Name     string
	RootPage int
	Columns  []Column
	SQL      string
}

// Context bundles the derived, read-only entities spec.md §3 and §9 say are
// built once in an initialization phase and then shared, unmodified, across
// every downstream stage: TableMap, PageToTable, FreelistSet, PointerMapSet.
// No global mutable state exists anywhere in this package — every function
// that needs this data takes a *Context explicitly (spec.md §9).
type Context struct {
	Header *Header

	// TableMap: table name -> root page + declared columns.
	TableMap map[string]*TableInfo

	// PageToTable: leaf page number -> owning table name, built by
	// traversing every table's B-tree root (spec.md §4.7).
	PageToTable map[int]string

	// FreelistSet is the union of every trunk and leaf page number in the
	// freelist (spec.md §3).
	FreelistSet map[int]bool
	// FreelistTrunks is the subset of FreelistSet that are trunk pages.
	FreelistTrunks map[int]bool

	// PointerMapSet holds the predicted pointer-map page numbers for
	// auto-vacuum databases (spec.md §4.5); empty when auto-vacuum is off.
	PointerMapSet map[int]bool
}

func newContext(header *Header) *Context {
	return &Context{
		Header:         header,
		TableMap:       make(map[string]*TableInfo),
		PageToTable:    make(map[int]string),
		FreelistSet:    make(map[int]bool),
		FreelistTrunks: make(map[int]bool),
		PointerMapSet:  make(map[int]bool),
	}
}
