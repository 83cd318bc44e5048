package carve

import "testing"

func TestComputePointerMapPagesAutoVacuumOff(t *testing.T) {
	got := ComputePointerMapPages(0, 4096, 1000)
	if len(got) != 0 {
		t.Errorf("ComputePointerMapPages(autoVacuum=0) = %v, want empty", got)
	}
}

func TestComputePointerMapPagesFirstIsPageTwo(t *testing.T) {
	got := ComputePointerMapPages(1, 4096, 10000)
	if !got[2] {
		t.Errorf("ComputePointerMapPages() missing page 2 as first pointer map page")
	}
}

func TestComputePointerMapPagesStride(t *testing.T) {
	pageSize := 4096
	got := ComputePointerMapPages(1, pageSize, 2000)
	stride := pageSize/5 + 1
	if !got[2+stride] {
		t.Errorf("ComputePointerMapPages() missing page %d (second pointer map)", 2+stride)
	}
}

func TestComputePointerMapPagesBoundedByPageCount(t *testing.T) {
	got := ComputePointerMapPages(1, 4096, 3)
	for p := range got {
		if p > 3 {
			t.Errorf("ComputePointerMapPages() included out-of-range page %d", p)
		}
	}
}
