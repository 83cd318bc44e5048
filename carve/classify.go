package carve

// ClassifyRecords assigns a RecordStatus to every tuple in the unified
// main-file + WAL record stream, grouped by page number (spec.md §4.12).
// Grounded on original_source/SQBite/Modules/recordclassify.py, generalized
// from its dict-of-lists bookkeeping to three passes over the slice with
// maps keyed by page and by (page, rowid).
//
// Rows already carrying StatusFreelist (assigned by the main-file pipeline
// for freelist-leaf table-shaped rows, spec.md §4.10c) are left untouched —
// they are not part of the Active/Deleted/Modified/Duplicate lifecycle.
func ClassifyRecords(tuples []RecordTuple) []RecordTuple {
	maxFrame := make(map[int]int)
	for _, t := range tuples {
		if t.RecordStatus == StatusFreelist {
			continue
		}
		if f := t.frameOrdinal(); f > maxFrame[t.PageNumber] {
			maxFrame[t.PageNumber] = f
		}
	}

	active := make(map[int]map[int64]int) // page -> rowid -> index into tuples

	out := make([]RecordTuple, len(tuples))
	copy(out, tuples)

	for i := range out {
		if out[i].RecordStatus == StatusFreelist {
			continue
		}
		if out[i].frameOrdinal() == maxFrame[out[i].PageNumber] {
			out[i].RecordStatus = StatusActive
			if active[out[i].PageNumber] == nil {
				active[out[i].PageNumber] = make(map[int64]int)
			}
			active[out[i].PageNumber][out[i].RowID] = i
		}
	}

	for i := range out {
		if out[i].RecordStatus == StatusFreelist || out[i].RecordStatus == StatusActive {
			continue
		}
		page := out[i].PageNumber
		counterpartIdx, ok := active[page][out[i].RowID]
		if !ok {
			out[i].RecordStatus = StatusDeleted
			continue
		}
		if valuesEqual(out[i].Values, out[counterpartIdx].Values) {
			out[i].RecordStatus = StatusDupe
		} else {
			out[i].RecordStatus = StatusModified
		}
	}
	return out
}

func valuesEqual(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Kind != b[i].Kind {
			return false
		}
		switch a[i].Kind {
		case KindInt:
			if a[i].Int != b[i].Int {
				return false
			}
		case KindReal:
			if a[i].Real != b[i].Real {
				return false
			}
		case KindText, KindBlob:
			if string(a[i].Raw) != string(b[i].Raw) {
				return false
			}
		}
	}
	return true
}
