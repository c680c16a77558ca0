package airdrop

import "testing"

func TestPartition_SizesAndOrder(t *testing.T) {
	tests := []struct {
		count     int
		wantSizes []int
	}{
		{0, nil},
		{1, []int{1}},
		{5, []int{5}},
		{6, []int{5, 1}},
		{7, []int{5, 2}},
		{12, []int{5, 5, 2}},
	}

	for _, tt := range tests {
		transfers := make([]Transfer, tt.count)
		for i := range transfers {
			transfers[i].Amount = uint64(i)
		}

		batches := partition(transfers)
		if len(batches) != len(tt.wantSizes) {
			t.Errorf("count %d: got %d batches, want %d", tt.count, len(batches), len(tt.wantSizes))
			continue
		}

		next := uint64(0)
		for bi, b := range batches {
			if len(b) != tt.wantSizes[bi] {
				t.Errorf("count %d batch %d: size = %d, want %d", tt.count, bi, len(b), tt.wantSizes[bi])
			}
			for _, tr := range b {
				if tr.Amount != next {
					t.Fatalf("count %d: order broken at amount %d, want %d", tt.count, tr.Amount, next)
				}
				next++
			}
		}
		if int(next) != tt.count {
			t.Errorf("count %d: %d transfers landed in batches, want all", tt.count, next)
		}
	}
}
