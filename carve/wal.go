package carve

import (
	"io"
	"strconv"
)

const walFrameHeaderSize = 24

// walFrame is one decoded WAL frame: its header-declared page number, the
// page image, and the frame's absolute byte offset (used for FileOffset
// computation on emitted tuples/residue).
type walFrame struct {
	pageNumber int
	page       []byte
	fileOffset int64
}

// readWALFrames reads every frame sequentially from sess (positioned right
// after OpenWAL consumed the 32-byte header), numbering them from 1 in
// write order. Grounded on
// original_source/SQBite/Modules/parse_wal_file.py's main read loop.
func readWALFrames(sess *Session, pageSize int) ([]walFrame, error) {
	var frames []walFrame
	offset := int64(walHeaderSize)
	hdr := make([]byte, walFrameHeaderSize)

	for {
		n, err := sess.file.ReadAt(hdr, offset)
		if err != nil && err != io.EOF {
			return frames, newDecodeError("read_wal_frames", 0, int(offset), ErrIO)
		}
		if n < walFrameHeaderSize {
			break
		}
		pageOffset := offset + walFrameHeaderSize
		page := make([]byte, pageSize)
		pn, _ := sess.file.ReadAt(page, pageOffset)
		if pn < pageSize {
			page = page[:pn]
		}
		if pn == 0 {
			break
		}
		pageNumber := int(be32(hdr, 0))
		frames = append(frames, walFrame{pageNumber: pageNumber, page: page, fileOffset: pageOffset})
		offset = pageOffset + int64(pageSize)
	}
	return frames, nil
}

// checkWALPageSize enforces invariant I4 (spec.md §3): every non-empty WAL
// frame's page size must equal the main header's. The WAL header declares
// one page size for the whole file, so a mismatch against ctx.Header is
// logged once; under ValidationStrict the WAL run is aborted instead of
// decoding frames against the wrong page size.
func checkWALPageSize(walHeader *WALHeader, ctx *Context, sess *Session) error {
	if ctx.Header == nil || walHeader.PageSize == ctx.Header.PageSize {
		return nil
	}
	sess.warnf(0, 0, "WAL page size %d does not match main header page size %d (I4)", walHeader.PageSize, ctx.Header.PageSize)
	if sess.opts.Validation == ValidationStrict {
		return newDecodeError("check_invariants", 0, 0, ErrWALPageSizeMismatch)
	}
	return nil
}

// RunWAL executes the WAL pipeline of spec.md §4.11 against an already
// built main-file Context (its TableMap/PageToTable feed resolution steps
// 1-2). dbPageCount is not read: the backward walk does no page-range
// check.
func RunWAL(sess *Session, walHeader *WALHeader, ctx *Context, dbPageCount int) (*Result, error) {
	if err := checkWALPageSize(walHeader, ctx, sess); err != nil {
		return nil, err
	}

	frames, err := readWALFrames(sess, walHeader.PageSize)
	if err != nil {
		return nil, err
	}

	res := &Result{Context: ctx}
	rootToTable := make(map[int]string)
	for name, t := range ctx.TableMap {
		if t.RootPage > 0 {
			rootToTable[t.RootPage] = name
		}
	}

	for i, f := range frames {
		frameNumber := i + 1
		if len(f.page) == 0 {
			continue
		}
		if ctx.PointerMapSet[f.pageNumber] {
			continue
		}
		if f.pageNumber == 1 {
			continue // main database header + schema, spec.md §4.11
		}

		pt := classifyWALPage(f.page)
		headerOffset := 0

		switch pt {
		case PageTableLeaf:
			table := resolveWALPageTable(frames, i, f.pageNumber, ctx, rootToTable)
			emitWALLeafCells(sess, f, frameNumber, walHeader.PageSize, table, &res.Records)
			scavengeWALPage(sess, f, frameNumber, headerOffset, pt, table, &res.Residue)

		case PageTableInterior, PageIndexInterior, PageIndexLeaf:
			table := resolveWALPageTable(frames, i, f.pageNumber, ctx, rootToTable)
			scavengeWALPage(sess, f, frameNumber, headerOffset, pt, table, &res.Residue)

		case PageZeroedEmpty, PageOverflow:
			continue
		default:
			continue
		}
	}
	return res, nil
}

// classifyWALPage classifies a WAL frame's page image by first byte only —
// a WAL frame has no access to the freelist/pointer-map sets that depend on
// full-file context already folded into RunWAL's own skip checks.
func classifyWALPage(page []byte) PageType {
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

// resolveWALPageTable implements the four-step resolution of spec.md
// §4.11: known root page, then already-known PageToTable entry, then the
// backward interior-frame walk, else Unknown. Grounded on
// original_source/SQBite/Modules/parse_wal_file.py:build_page_table_mapping.
func resolveWALPageTable(frames []walFrame, frameIndex, targetPage int, ctx *Context, rootToTable map[int]string) string {
	if name, ok := rootToTable[targetPage]; ok {
		return name
	}
	if name, ok := ctx.PageToTable[targetPage]; ok {
		return name
	}

	current := targetPage
	visited := make(map[int]bool)
	for idx := frameIndex - 1; idx >= 0; idx-- {
		pn := frames[idx].pageNumber
		if visited[pn] {
			continue
		}
		visited[pn] = true

		page := frames[idx].page
		if len(page) == 0 || page[0] != pageTypeTableInterior {
			continue
		}
		if interiorHasChild(page, current) {
			current = pn
			visited = make(map[int]bool)
			if name, ok := rootToTable[current]; ok {
				return name
			}
		}
	}
	return "Unknown"
}

func interiorHasChild(page []byte, target int) bool {
	if len(page) < 12 {
		return false
	}
	cellCount := int(be16(page, 3))
	for i := 0; i < cellCount; i++ {
		off := 12 + i*2
		if off+2 > len(page) {
			break
		}
		ptr := int(be16(page, off))
		if ptr < 0 || ptr+4 > len(page) {
			continue
		}
		if int(be32(page, ptr)) == target {
			return true
		}
	}
	return int(be32(page, 8)) == target
}

func emitWALLeafCells(sess *Session, f walFrame, frameNumber, pageSize int, table string, out *[]RecordTuple) {
	hdr, err := parseBTreeHeader(f.page, 0)
	if err != nil {
		sess.warnf(f.pageNumber, 0, "frame %d: parse leaf header: %v", frameNumber, err)
		return
	}
	if hdr.Type != pageTypeTableLeaf {
		return
	}
	for i := 0; i < int(hdr.CellCount); i++ {
		off := hdr.HeaderSize + i*2
		if off+2 > len(f.page) {
			break
		}
		ptr := int(be16(f.page, off))
		if ptr < 0 || ptr >= len(f.page) {
			continue
		}
		rec, rowid, ok := decodeWALLeafCell(f.page, ptr, pageSize)
		if !ok {
			continue
		}
		*out = append(*out, RecordTuple{
			SourceFile:   sess.name,
			FrameNumber:  strconv.Itoa(frameNumber),
			PageNumber:   f.pageNumber,
			RecordStatus: "",
			TableName:    table,
			FileOffset:   int(f.fileOffset) + ptr,
			RowID:        rowid,
			Values:       rec.Values,
			Partial:      rec.Partial,
		})
	}
}

func scavengeWALPage(sess *Session, f walFrame, frameNumber, headerOffset int, pt PageType, table string, out *[]RecoveredTuple) {
	if r := ScavengeUnallocated(f.page, headerOffset); r != nil {
		*out = append(*out, RecoveredTuple{
			SourceFile: sess.name, FrameNumber: strconv.Itoa(frameNumber), PageNumber: f.pageNumber,
			PageType: pt.String(), TableName: table, Kind: KindUnallocated,
			FileOffset: int(f.fileOffset) + r.PageOffset, PrintableText: r.Text,
		})
	}
	for _, r := range ScavengeFreeblocks(f.page, headerOffset, sess, f.pageNumber) {
		*out = append(*out, RecoveredTuple{
			SourceFile: sess.name, FrameNumber: strconv.Itoa(frameNumber), PageNumber: f.pageNumber,
			PageType: pt.String(), TableName: table, Kind: KindFreeblock,
			FileOffset: int(f.fileOffset) + r.PageOffset, PrintableText: r.Text,
		})
	}
}
