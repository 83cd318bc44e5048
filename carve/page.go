package carve

import "encoding/binary"

// PageType tags the eleven page roles spec.md §3/§4.3 distinguishes.
type PageType int

const (
	PageUnknown PageType = iota
	Page1Schema
	PageTableInterior
	PageTableLeaf
	PageIndexInterior
	PageIndexLeaf
	PageOverflow
	PageZeroedEmpty
	PageFreelistTrunk
	PageFreelistLeaf
	PagePointerMap
)

func (t PageType) String() string {
	switch t {
	case Page1Schema:
		return "Page1Schema"
	case PageTableInterior:
		return "TableInterior"
	case PageTableLeaf:
		return "TableLeaf"
	case PageIndexInterior:
		return "IndexInterior"
	case PageIndexLeaf:
		return "IndexLeaf"
	case PageOverflow:
		return "Overflow"
	case PageZeroedEmpty:
		return "ZeroedEmpty"
	case PageFreelistTrunk:
		return "FreelistTrunk"
	case PageFreelistLeaf:
		return "FreelistLeaf"
	case PagePointerMap:
		return "PointerMap"
	default:
		return "Unknown"
	}
}

const (
	pageTypeIndexInterior = 0x02
	pageTypeTableInterior = 0x05
	pageTypeIndexLeaf     = 0x0A
	pageTypeTableLeaf     = 0x0D
	pageTypeZeroOrOverflow = 0x00
)

// BTreeHeader is a page's 8- or 12-byte B-tree header (spec.md §3).
type BTreeHeader struct {
	Type             byte
	FirstFreeblock   uint16
	CellCount        uint16
	CellContentStart int // 0 in the raw field means 65536
	FragmentedBytes  byte
	RightmostChild   uint32 // only set for interior pages
	IsInterior       bool
	// HeaderSize is 8 for leaf pages, 12 for interior pages.
	HeaderSize int
}

// parseBTreeHeader reads a B-tree page header starting at headerOffset
// within page (headerOffset is 0 for every page except page 1, where it is
// 100 — spec.md §3/§4.3). Grounded on the teacher's parsePageHeader
// (btree.go / database_raw.go), generalized for interior pages that append
// the rightmost-child pointer.
func parseBTreeHeader(page []byte, headerOffset int) (*BTreeHeader, error) {
	if headerOffset+8 > len(page) {
		return nil, newDecodeError("parse_btree_header", 0, headerOffset, ErrTruncatedHeader)
	}
	h := &BTreeHeader{
		Type:            page[headerOffset],
		FirstFreeblock:  binary.BigEndian.Uint16(page[headerOffset+1 : headerOffset+3]),
		CellCount:       binary.BigEndian.Uint16(page[headerOffset+3 : headerOffset+5]),
		FragmentedBytes: page[headerOffset+7],
	}
	contentStart := binary.BigEndian.Uint16(page[headerOffset+5 : headerOffset+7])
	if contentStart == 0 {
		h.CellContentStart = 65536
	} else {
		h.CellContentStart = int(contentStart)
	}

	switch h.Type {
	case pageTypeTableInterior, pageTypeIndexInterior:
		h.IsInterior = true
		h.HeaderSize = 12
		if headerOffset+12 > len(page) {
			return nil, newDecodeError("parse_btree_header", 0, headerOffset, ErrTruncatedHeader)
		}
		h.RightmostChild = binary.BigEndian.Uint32(page[headerOffset+8 : headerOffset+12])
	default:
		h.HeaderSize = 8
	}
	return h, nil
}

// ClassifyPage assigns one of the eleven page roles to a page image,
// following the priority order of spec.md §4.3: page 1 magic, pointer-map
// membership, freelist-trunk membership, freelist-leaf membership, first
// byte, then all-zero.
func ClassifyPage(page []byte, pageNumber int, ctx *Context) PageType {
	if pageNumber == 1 && len(page) >= 16 && string(page[:16]) == sqliteMagic {
		return Page1Schema
	}
	if ctx.PointerMapSet[pageNumber] {
		return PagePointerMap
	}
	if ctx.FreelistTrunks[pageNumber] {
		return PageFreelistTrunk
	}
	if ctx.FreelistSet[pageNumber] && !ctx.FreelistTrunks[pageNumber] {
		return PageFreelistLeaf
	}

	if len(page) == 0 {
		return PageUnknown
	}
	switch page[0] {
	case pageTypeTableInterior:
		return PageTableInterior
	case pageTypeTableLeaf:
		return PageTableLeaf
	case pageTypeIndexInterior:
		return PageIndexInterior
	case pageTypeIndexLeaf:
		return PageIndexLeaf
	case pageTypeZeroOrOverflow:
		if isAllZero(page) {
			return PageZeroedEmpty
		}
		return PageOverflow
	default:
		return PageUnknown
	}
}

func isAllZero(buf []byte) bool {
	for _, b := range buf {
		if b != 0 {
			return false
		}
	}
	return true
}
