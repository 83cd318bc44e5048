package carve

import (
	"encoding/binary"
	"testing"
)

func buildLeafPage(pageSize int, pageType byte, cellCount uint16) []byte {
	page := make([]byte, pageSize)
	page[0] = pageType
	binary.BigEndian.PutUint16(page[3:5], cellCount)
	binary.BigEndian.PutUint16(page[5:7], uint16(pageSize)) // content start at end, no cells
	return page
}

func TestParseBTreeHeaderLeaf(t *testing.T) {
	page := buildLeafPage(4096, pageTypeTableLeaf, 3)
	hdr, err := parseBTreeHeader(page, 0)
	if err != nil {
		t.Fatalf("parseBTreeHeader() error = %v", err)
	}
	if hdr.IsInterior {
		t.Errorf("IsInterior = true, want false for leaf page")
	}
	if hdr.HeaderSize != 8 {
		t.Errorf("HeaderSize = %d, want 8", hdr.HeaderSize)
	}
	if hdr.CellCount != 3 {
		t.Errorf("CellCount = %d, want 3", hdr.CellCount)
	}
}

func TestParseBTreeHeaderInterior(t *testing.T) {
	page := make([]byte, 4096)
	page[0] = pageTypeTableInterior
	binary.BigEndian.PutUint32(page[8:12], 77)
	hdr, err := parseBTreeHeader(page, 0)
	if err != nil {
		t.Fatalf("parseBTreeHeader() error = %v", err)
	}
	if !hdr.IsInterior || hdr.HeaderSize != 12 {
		t.Errorf("expected 12-byte interior header, got %+v", hdr)
	}
	if hdr.RightmostChild != 77 {
		t.Errorf("RightmostChild = %d, want 77", hdr.RightmostChild)
	}
}

func TestParseBTreeHeaderContentStartZeroMeans65536(t *testing.T) {
	page := buildLeafPage(65536, pageTypeTableLeaf, 0)
	binary.BigEndian.PutUint16(page[5:7], 0)
	hdr, err := parseBTreeHeader(page, 0)
	if err != nil {
		t.Fatalf("parseBTreeHeader() error = %v", err)
	}
	if hdr.CellContentStart != 65536 {
		t.Errorf("CellContentStart = %d, want 65536", hdr.CellContentStart)
	}
}

func TestClassifyPagePriorityOrder(t *testing.T) {
	ctx := newContext(&Header{})
	ctx.PointerMapSet[5] = true
	ctx.FreelistTrunks[5] = true // pointer-map wins over freelist-trunk

	page := buildLeafPage(4096, pageTypeTableLeaf, 0)
	if got := ClassifyPage(page, 5, ctx); got != PagePointerMap {
		t.Errorf("ClassifyPage() = %v, want PagePointerMap", got)
	}
}

func TestClassifyPageFreelistTrunkBeforeLeaf(t *testing.T) {
	ctx := newContext(&Header{})
	ctx.FreelistSet[9] = true
	ctx.FreelistTrunks[9] = true

	page := buildLeafPage(4096, pageTypeTableLeaf, 0)
	if got := ClassifyPage(page, 9, ctx); got != PageFreelistTrunk {
		t.Errorf("ClassifyPage() = %v, want PageFreelistTrunk", got)
	}
}

func TestClassifyPageZeroedVsOverflow(t *testing.T) {
	ctx := newContext(&Header{})
	zeroed := make([]byte, 100)
	if got := ClassifyPage(zeroed, 50, ctx); got != PageZeroedEmpty {
		t.Errorf("ClassifyPage(all-zero) = %v, want PageZeroedEmpty", got)
	}

	overflow := make([]byte, 100)
	overflow[50] = 1
	if got := ClassifyPage(overflow, 50, ctx); got != PageOverflow {
		t.Errorf("ClassifyPage(non-zero, type 0) = %v, want PageOverflow", got)
	}
}

func TestClassifyPageOne(t *testing.T) {
	ctx := newContext(&Header{})
	page := make([]byte, 100)
	copy(page, sqliteMagic)
	if got := ClassifyPage(page, 1, ctx); got != Page1Schema {
		t.Errorf("ClassifyPage(page 1) = %v, want Page1Schema", got)
	}
}
