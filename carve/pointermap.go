package carve

// ComputePointerMapPages predicts the pointer-map page numbers for an
// auto-vacuum database (spec.md §4.5): page 2 is the first pointer map, and
// each subsequent one is spaced by floor(page_size/5)+1 pages.
// Grounded on original_source/SQBite/Modules/calculate_pointermappages.py
// (kept in two near-identical copies there, once per pipeline — unified
// here into one function shared by both the main-file and WAL pipelines).
func ComputePointerMapPages(autoVacuum uint32, pageSize, pageCount int) map[int]bool {
	pages := make(map[int]bool)
	if autoVacuum == 0 {
		return pages
	}
	stride := pageSize/5 + 1
	for k := 0; ; k++ {
		page := k*stride + 2
		if page > pageCount {
			break
		}
		pages[page] = true
	}
	return pages
}
