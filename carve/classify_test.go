package carve

import "testing"

func TestClassifyRecordsActiveAndDeleted(t *testing.T) {
	tuples := []RecordTuple{
		{PageNumber: 5, FrameNumber: "1", RowID: 1, Values: []Value{{Kind: KindInt, Int: 1}}},
		{PageNumber: 5, FrameNumber: "3", RowID: 1, Values: []Value{{Kind: KindInt, Int: 2}}},
		{PageNumber: 5, FrameNumber: "2", RowID: 2, Values: []Value{{Kind: KindInt, Int: 9}}},
	}
	got := ClassifyRecords(tuples)

	// highest frame for page 5 is 3: rowid 1 at frame 3 is Active.
	if got[1].RecordStatus != StatusActive {
		t.Errorf("frame 3 rowid 1 status = %s, want Active", got[1].RecordStatus)
	}
	// rowid 1 at frame 1 differs from the Active counterpart -> Modified.
	if got[0].RecordStatus != StatusModified {
		t.Errorf("frame 1 rowid 1 status = %s, want Modified/Reused ID", got[0].RecordStatus)
	}
	// rowid 2 has no Active counterpart on page 5 -> Deleted.
	if got[2].RecordStatus != StatusDeleted {
		t.Errorf("frame 2 rowid 2 status = %s, want Deleted", got[2].RecordStatus)
	}
}

func TestClassifyRecordsDuplicateWhenIdentical(t *testing.T) {
	tuples := []RecordTuple{
		{PageNumber: 1, FrameNumber: "1", RowID: 1, Values: []Value{{Kind: KindInt, Int: 5}}},
		{PageNumber: 1, FrameNumber: "2", RowID: 1, Values: []Value{{Kind: KindInt, Int: 5}}},
	}
	got := ClassifyRecords(tuples)
	if got[1].RecordStatus != StatusActive {
		t.Errorf("frame 2 status = %s, want Active", got[1].RecordStatus)
	}
	if got[0].RecordStatus != StatusDupe {
		t.Errorf("frame 1 status = %s, want Duplicate (Active)", got[0].RecordStatus)
	}
}

func TestClassifyRecordsSkipsFreelistRows(t *testing.T) {
	tuples := []RecordTuple{
		{PageNumber: 1, FrameNumber: NoFrame, RowID: 1, RecordStatus: StatusFreelist},
	}
	got := ClassifyRecords(tuples)
	if got[0].RecordStatus != StatusFreelist {
		t.Errorf("freelist row status changed to %s, want untouched Freelist", got[0].RecordStatus)
	}
}

func TestClassifyRecordsMainFileRowsAllActiveWithoutWAL(t *testing.T) {
	tuples := []RecordTuple{
		{PageNumber: 1, FrameNumber: NoFrame, RowID: 1},
		{PageNumber: 1, FrameNumber: NoFrame, RowID: 2},
	}
	got := ClassifyRecords(tuples)
	for i, r := range got {
		if r.RecordStatus != StatusActive {
			t.Errorf("row %d status = %s, want Active (no WAL frames present)", i, r.RecordStatus)
		}
	}
}
