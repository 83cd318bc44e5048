package carve

import "math"

// overflowThresholds computes the X/M thresholds spec.md §3 defines for a
// given page size U, used to decide whether a payload of length P fits on
// the leaf page or must spill to overflow pages.
func overflowThresholds(pageSize int) (x, m int) {
	u := float64(pageSize)
	x = int(u) - 35
	m = int(math.Floor(((u-12)*32/255)-23))
	return
}

// localPayloadSize returns how many payload bytes live on the leaf page
// itself (the rest lives in the overflow chain), per spec.md §3's
// K = M + (P-M) mod (U-4) formula.
func localPayloadSize(payloadLen, pageSize int) int {
	x, m := overflowThresholds(pageSize)
	if payloadLen <= x {
		return payloadLen
	}
	k := m + (payloadLen-m)%(pageSize-4)
	if k <= x {
		return k
	}
	return m
}

// followOverflow reassembles the remainder of a payload from the overflow
// page chain, given the first overflow page number and how many bytes
// still remain. Grounded on
// original_source/SQBite/Modules/btreeleafpage_processing_works.py:handle_overflow,
// with cycle detection added (the original has none).
func followOverflow(src PageSource, firstPage uint32, remaining int, logger warnLogger) ([]byte, error) {
	var out []byte
	page := firstPage
	visited := make(map[uint32]bool)
	pageSize := src.PageSize()

	for page != 0 && remaining > 0 {
		if visited[page] {
			return out, ErrOverflowChainInvalid
		}
		visited[page] = true

		if int(page) < 1 || int(page) > src.PageCount() {
			if logger != nil {
				logger.warnf(int(page), 0, "overflow chain page %d out of range, truncating payload", page)
			}
			return out, ErrOverflowChainInvalid
		}
		data, err := src.ReadPage(int(page))
		if err != nil || len(data) < 4 {
			return out, ErrOverflowChainInvalid
		}

		next := be32(data, 0)
		take := remaining
		if take > pageSize-4 {
			take = pageSize - 4
		}
		if 4+take > len(data) {
			take = len(data) - 4
		}
		out = append(out, data[4:4+take]...)
		remaining -= take
		page = next
	}
	return out, nil
}

// decodeTableLeafCell decodes one table-leaf B-tree cell starting at
// cellOffset within page: payload-length varint, rowid varint, then the
// record itself. When src is non-nil and the payload overflows, the
// overflow chain is followed; with src nil an overflowing payload degrades
// to Partial rather than erroring. The WAL path does not call this; it uses
// decodeWALLeafCell. A chain that ends early or is invalid is not logged:
// the reassembled payload is decoded as far as it goes and the record is
// marked Partial.
// Grounded on the teacher's readCellsFromPage1/parseRecord
// (database_raw.go) and
// original_source/SQBite/Modules/btreeleafpage_processing_works.py:parse_cell.
func decodeTableLeafCell(page []byte, cellOffset int, src PageSource) (Record, int64, bool) {
	payloadLen, n1, err := decodeVarint(page, cellOffset)
	if err != nil {
		return Record{}, 0, false
	}
	pos := cellOffset + n1
	rowid, n2, err := decodeVarint(page, pos)
	if err != nil {
		return Record{}, 0, false
	}
	pos += n2

	pageSize := len(page)
	if src != nil {
		pageSize = src.PageSize()
	}
	localLen := localPayloadSize(int(payloadLen), pageSize)

	end := pos + localLen
	if end > len(page) {
		end = len(page)
	}
	local := page[pos:end]

	if int(payloadLen) <= localLen {
		serialTypes, headerLen, err := decodeRecordHeader(local)
		if err != nil {
			return Record{}, int64(rowid), false
		}
		rec := decodeRecordBody(local, headerLen, serialTypes)
		return rec, int64(rowid), true
	}

	// Overflow case: local holds localLen bytes of payload followed by a
	// 4-byte overflow page pointer at page[end:end+4].
	if end+4 > len(page) || src == nil {
		serialTypes, headerLen, err := decodeRecordHeader(local)
		if err != nil {
			return Record{}, int64(rowid), false
		}
		rec := decodeRecordBody(local, headerLen, serialTypes)
		rec.Partial = true
		return rec, int64(rowid), true
	}
	overflowPage := be32(page, end)
	remaining := int(payloadLen) - localLen
	rest, _ := followOverflow(src, overflowPage, remaining, nil)
	full := append(append([]byte(nil), local...), rest...)

	serialTypes, headerLen, err := decodeRecordHeader(full)
	if err != nil {
		return Record{}, int64(rowid), false
	}
	rec := decodeRecordBody(full, headerLen, serialTypes)
	if len(rest) < remaining {
		rec.Partial = true
	}
	return rec, int64(rowid), true
}

// decodeWALLeafCell decodes a table-leaf cell found in a WAL frame. It
// never follows the overflow chain — only the initial payload fragment
// that lives in the frame's own page image is available — so a record
// whose payload overflows always comes back Partial. Grounded on
// original_source/SQBite/Modules/btreeleafpage_processing_works.py:parse_walcell.
func decodeWALLeafCell(page []byte, cellOffset, pageSize int) (Record, int64, bool) {
	payloadLen, n1, err := decodeVarint(page, cellOffset)
	if err != nil {
		return Record{}, 0, false
	}
	pos := cellOffset + n1
	rowid, n2, err := decodeVarint(page, pos)
	if err != nil {
		return Record{}, 0, false
	}
	pos += n2

	localLen := localPayloadSize(int(payloadLen), pageSize)
	end := pos + localLen
	if end > len(page) {
		end = len(page)
	}
	local := page[pos:end]

	serialTypes, headerLen, err := decodeRecordHeader(local)
	if err != nil {
		return Record{}, int64(rowid), false
	}
	rec := decodeRecordBody(local, headerLen, serialTypes)
	if int(payloadLen) > localLen {
		rec.Partial = true
	}
	return rec, int64(rowid), true
}
