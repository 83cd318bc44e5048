package carve

// Result is the full output of a carving run: both tuple streams plus the
// context derived along the way (spec.md §6).
type Result struct {
	Records  []RecordTuple
	Residue  []RecoveredTuple
	Context  *Context
}

// RunMain executes the main-file pipeline of spec.md §4.10: builds the
// schema-derived Context, then sweeps every page 1..N, dispatching by
// classified page type. Grounded on
// original_source/SQBite/Modules/parse_sqlite_file.py's per-page-type
// branch structure.
func RunMain(sess *Session, header *Header) (*Result, error) {
	ctx := newContext(header)
	ctx.PointerMapSet = ComputePointerMapPages(header.AutoVacuum, header.PageSize, sess.PageCount())

	if err := WalkFreelist(sess, ctx, sess); err != nil {
		return nil, err
	}
	if err := ReadSchema(sess, ctx, sess); err != nil {
		return nil, err
	}
	BuildPageToTable(sess, ctx, sess)
	if err := checkFreelistTableOverlap(ctx, sess); err != nil {
		return nil, err
	}

	res := &Result{Context: ctx}

	for pageNum := 1; pageNum <= sess.PageCount(); pageNum++ {
		page, err := sess.ReadPage(pageNum)
		if err != nil {
			sess.warnf(pageNum, 0, "read page %d: %v", pageNum, err)
			continue
		}

		pt := ClassifyPage(page, pageNum, ctx)
		headerOffset := 0
		if pageNum == 1 {
			headerOffset = mainHeaderSize
		}

		switch pt {
		case Page1Schema, PagePointerMap:
			continue

		case PageFreelistTrunk:
			if r := ScavengeFreelistTrunkTail(page); r != nil {
				res.Residue = append(res.Residue, RecoveredTuple{
					SourceFile: sess.name, FrameNumber: NoFrame, PageNumber: pageNum,
					PageType: pt.String(), TableName: NotKnownTable, Kind: KindUnallocated,
					FileOffset: (pageNum-1)*sess.pageSize + r.PageOffset, PrintableText: r.Text,
				})
			}

		case PageFreelistLeaf:
			if len(page) > 0 && (page[0] == pageTypeTableLeaf) {
				emitLeafCells(sess, page, pageNum, headerOffset, "freelist", StatusFreelist, &res.Records)
			}
			scavengePage(sess, page, pageNum, headerOffset, pt, NotKnownTable, &res.Residue)

		case PageTableLeaf:
			table := ctx.PageToTable[pageNum]
			if table == "" {
				table = "unknown"
			}
			emitLeafCells(sess, page, pageNum, headerOffset, table, "", &res.Records)
			scavengePage(sess, page, pageNum, headerOffset, pt, table, &res.Residue)

		case PageTableInterior, PageIndexInterior, PageIndexLeaf:
			table := ctx.PageToTable[pageNum]
			if table == "" {
				table = NotKnownTable
			}
			scavengePage(sess, page, pageNum, headerOffset, pt, table, &res.Residue)

		case PageZeroedEmpty, PageOverflow:
			continue
		}
	}

	return res, nil
}

// checkFreelistTableOverlap enforces invariant I3 (spec.md §3): a page that
// is both in the freelist and reachable from a live table's B-tree is
// internally inconsistent evidence. Every offending page is logged; under
// ValidationStrict the run is aborted instead of silently carrying on.
func checkFreelistTableOverlap(ctx *Context, sess *Session) error {
	violated := false
	for page := range ctx.FreelistSet {
		if table, ok := ctx.PageToTable[page]; ok {
			sess.warnf(page, 0, "page %d is in the freelist but still reachable from table %q's B-tree (I3)", page, table)
			violated = true
		}
	}
	if violated && sess.opts.Validation == ValidationStrict {
		return newDecodeError("check_invariants", 0, 0, ErrFreelistTableOverlap)
	}
	return nil
}

func scavengePage(sess *Session, page []byte, pageNum, headerOffset int, pt PageType, table string, out *[]RecoveredTuple) {
	base := (pageNum - 1) * sess.pageSize
	if r := ScavengeUnallocated(page, headerOffset); r != nil {
		*out = append(*out, RecoveredTuple{
			SourceFile: sess.name, FrameNumber: NoFrame, PageNumber: pageNum,
			PageType: pt.String(), TableName: table, Kind: KindUnallocated,
			FileOffset: base + r.PageOffset, PrintableText: r.Text,
		})
	}
	for _, r := range ScavengeFreeblocks(page, headerOffset, sess, pageNum) {
		*out = append(*out, RecoveredTuple{
			SourceFile: sess.name, FrameNumber: NoFrame, PageNumber: pageNum,
			PageType: pt.String(), TableName: table, Kind: KindFreeblock,
			FileOffset: base + r.PageOffset, PrintableText: r.Text,
		})
	}
}

func emitLeafCells(sess *Session, page []byte, pageNum, headerOffset int, table, forcedStatus string, out *[]RecordTuple) {
	hdr, err := parseBTreeHeader(page, headerOffset)
	if err != nil {
		sess.warnf(pageNum, headerOffset, "parse leaf header: %v", err)
		return
	}
	if hdr.Type != pageTypeTableLeaf {
		return
	}
	pointerArrayStart := headerOffset + hdr.HeaderSize
	base := (pageNum - 1) * sess.pageSize

	for i := 0; i < int(hdr.CellCount); i++ {
		off := pointerArrayStart + i*2
		if off+2 > len(page) {
			sess.warnf(pageNum, off, "cell pointer array truncated")
			break
		}
		ptr := int(be16(page, off))
		if ptr < 0 || ptr >= len(page) {
			sess.warnf(pageNum, off, "cell pointer %d out of range", ptr)
			continue
		}
		rec, rowid, ok := decodeTableLeafCell(page, ptr, sess)
		if !ok {
			sess.warnf(pageNum, ptr, "failed to decode cell")
			continue
		}
		status := forcedStatus
		tuple := RecordTuple{
			SourceFile:   sess.name,
			FrameNumber:  NoFrame,
			PageNumber:   pageNum,
			RecordStatus: status,
			TableName:    table,
			FileOffset:   base + ptr,
			RowID:        rowid,
			Values:       rec.Values,
			Partial:      rec.Partial,
		}
		*out = append(*out, tuple)
	}
}
