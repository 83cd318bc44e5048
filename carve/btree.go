package carve

// BuildPageToTable traverses every table's B-tree from its root page down to
// its leaf pages, recording which table owns each leaf page. Root page 0
// marks a virtual table (spec.md §4.7 / the original's "Skips Virtual
// Tables" comment) and is skipped entirely. Grounded on
// original_source/SQBite/Modules/findtable.py:traverse_table_btree, with the
// teacher's visited-set BFS style (btree.go's TraverseAll) kept.
func BuildPageToTable(src PageSource, ctx *Context, logger warnLogger) {
	for name, table := range ctx.TableMap {
		if table.RootPage == 0 {
			continue
		}
		traverseTableBTree(src, ctx, name, table.RootPage, logger)
	}
}

func traverseTableBTree(src PageSource, ctx *Context, tableName string, rootPage int, logger warnLogger) {
	queue := []int{rootPage}
	visited := make(map[int]bool)

	for len(queue) > 0 {
		pageNum := queue[0]
		queue = queue[1:]
		if visited[pageNum] {
			continue
		}
		visited[pageNum] = true

		if pageNum < 1 || pageNum > src.PageCount() {
			logger.warnf(pageNum, 0, "table %s: page %d out of range, skipping", tableName, pageNum)
			continue
		}
		page, err := src.ReadPage(pageNum)
		if err != nil {
			logger.warnf(pageNum, 0, "table %s: read page %d: %v", tableName, pageNum, err)
			continue
		}

		headerOffset := 0
		if pageNum == 1 {
			headerOffset = mainHeaderSize
		}
		hdr, err := parseBTreeHeader(page, headerOffset)
		if err != nil {
			logger.warnf(pageNum, 0, "table %s: parse page %d header: %v", tableName, pageNum, err)
			continue
		}

		switch hdr.Type {
		case pageTypeTableInterior:
			pointerArrayStart := headerOffset + hdr.HeaderSize
			for i := 0; i < int(hdr.CellCount); i++ {
				off := pointerArrayStart + i*2
				if off+2 > len(page) {
					break
				}
				ptr := int(be16(page, off))
				if ptr < 0 || ptr+4 > len(page) {
					logger.warnf(pageNum, off, "table %s: interior cell pointer out of range", tableName)
					continue
				}
				queue = append(queue, int(be32(page, ptr)))
			}
			queue = append(queue, int(hdr.RightmostChild))

		case pageTypeTableLeaf:
			ctx.PageToTable[pageNum] = tableName

		default:
			logger.warnf(pageNum, 0, "table %s: page %d is not a table B-tree page (type %d), possibly WITHOUT ROWID", tableName, pageNum, hdr.Type)
		}
	}
}
