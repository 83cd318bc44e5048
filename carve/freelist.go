package carve

import "encoding/binary"

// PageSource reads individual pages from the evidence file by 1-based page
// number. *Session (the main-file reader) implements it; tests can supply a
// slice-backed fake.
type PageSource interface {
	ReadPage(pageNumber int) ([]byte, error)
	PageSize() int
	PageCount() int
}

// WalkFreelist enumerates every trunk and leaf page reachable from the
// header's first-trunk pointer, populating ctx.FreelistSet/FreelistTrunks.
// Grounded on original_source/SQBite/Modules/freelistpagenumbers.py, with
// the cycle detection and bounds-checking spec.md §4.4 requires added (the
// Python original has neither).
func WalkFreelist(src PageSource, ctx *Context, logger warnLogger) error {
	trunk := int(ctx.Header.FirstFreelistTrunk)
	visited := make(map[int]bool)

	for trunk != 0 {
		if visited[trunk] {
			return newDecodeError("walk_freelist", trunk, 0, ErrFreelistCycle)
		}
		visited[trunk] = true

		if trunk < 1 || trunk > src.PageCount() {
			logger.warnf(trunk, 0, "freelist trunk page %d out of range, stopping walk", trunk)
			break
		}

		page, err := src.ReadPage(trunk)
		if err != nil {
			logger.warnf(trunk, 0, "read freelist trunk %d: %v", trunk, err)
			break
		}
		if len(page) < 8 {
			logger.warnf(trunk, 0, "freelist trunk %d too short for header", trunk)
			break
		}

		ctx.FreelistSet[trunk] = true
		ctx.FreelistTrunks[trunk] = true

		nextTrunk := int(binary.BigEndian.Uint32(page[0:4]))
		leafCount := int(binary.BigEndian.Uint32(page[4:8]))

		for i := 0; i < leafCount; i++ {
			off := 8 + i*4
			if off+4 > len(page) {
				logger.warnf(trunk, off, "freelist leaf array truncated at entry %d", i)
				break
			}
			leaf := int(binary.BigEndian.Uint32(page[off : off+4]))
			if leaf < 1 || leaf > src.PageCount() {
				logger.warnf(trunk, off, "freelist leaf entry %d out of range", leaf)
				continue
			}
			ctx.FreelistSet[leaf] = true
		}

		trunk = nextTrunk
	}
	return nil
}

// warnLogger is the narrow logging surface freelist/btree/cell code needs:
// a page+offset-scoped warning line (spec.md §7 "short diagnostic line per
// warning"). *Session implements it via logrus.
type warnLogger interface {
	warnf(page, offset int, format string, args ...interface{})
}
