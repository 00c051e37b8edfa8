package viewport

import "testing"

func TestComputeBasic(t *testing.T) {
	tests := []struct {
		name                           string
		offset, height, item, total, b int
		want                           Window
	}{
		{"top", 0, 300, 40, 50000, 10, Window{0, 28}},
		{"middle", 4000, 300, 40, 50000, 10, Window{90, 118}},
		{"end corrected", 50000*40 - 300, 300, 40, 50000, 10, Window{49972, 50000}},
		{"short list", 0, 300, 40, 5, 10, Window{0, 5}},
		{"no buffer", 85, 100, 10, 100, 0, Window{8, 18}},
		{"offset past end", 1 << 30, 100, 10, 50, 2, Window{36, 50}},
		{"empty", 0, 100, 10, 0, 2, Window{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compute(tt.offset, tt.height, tt.item, tt.total, tt.b)
			if got != tt.want {
				t.Errorf("Compute(%d,%d,%d,%d,%d) = %+v, want %+v",
					tt.offset, tt.height, tt.item, tt.total, tt.b, got, tt.want)
			}
		})
	}
}

func TestComputeLargeListRendersBoundedRows(t *testing.T) {
	w := Compute(0, 300, 40, 50000, 10)
	if w.Len() > 28 {
		t.Fatalf("materialized %d rows, want at most 28", w.Len())
	}
	adaptive := Compute(0, 300, 40, 50000, AdaptiveBuffer(10, 50000))
	if adaptive.Len() > w.Len() {
		t.Errorf("adaptive buffer grew the window: %d > %d", adaptive.Len(), w.Len())
	}
}

func TestComputeCoversViewport(t *testing.T) {
	for _, total := range []int{1, 3, 7, 28, 29, 100, 1000} {
		for _, item := range []int{1, 3, 40} {
			for _, height := range []int{0, 1, 10, 300} {
				for _, b := range []int{0, 1, 5, 10} {
					minCount := MinCount(height, item, b)
					maxOff := total * item
					for off := 0; off <= maxOff; off += 1 + maxOff/37 {
						w := Compute(off, height, item, total, b)
						if total < minCount {
							if w.Start != 0 || w.End != total {
								t.Fatalf("total=%d<min=%d: got %+v", total, minCount, w)
							}
							continue
						}
						if w.Len() != minCount {
							t.Fatalf("Compute(%d,%d,%d,%d,%d) len=%d want %d",
								off, height, item, total, b, w.Len(), minCount)
						}
						if w.Start < 0 || w.End > total {
							t.Fatalf("window out of bounds: %+v", w)
						}
					}
				}
			}
		}
	}
}

func TestComputeNoGap(t *testing.T) {
	const (
		total  = 2000
		item   = 3
		height = 40
	)
	for _, b := range []int{1, 2, 10} {
		for off := 0; off <= (total-1)*item; off++ {
			w := Compute(off, height, item, total, b)
			v := Visible(off, height, item, total)
			if !w.Covers(v) {
				t.Fatalf("gap at offset %d buffer %d: window %+v visible %+v", off, b, w, v)
			}
		}
	}
}

func TestAdaptiveBuffer(t *testing.T) {
	tests := []struct {
		buffer, total, want int
	}{
		{10, 50, 10},
		{10, 1000, 7},
		{10, 10000, 5},
		{10, 50000, 2},
		{2, 50000, 1},
		{0, 50000, 0},
	}
	for _, tt := range tests {
		if got := AdaptiveBuffer(tt.buffer, tt.total); got != tt.want {
			t.Errorf("AdaptiveBuffer(%d, %d) = %d, want %d", tt.buffer, tt.total, got, tt.want)
		}
	}
}

func TestVisible(t *testing.T) {
	if got := Visible(20, 40, 40, 10); got != (Window{0, 2}) {
		t.Errorf("partial rows: got %+v", got)
	}
	if got := Visible(0, 10, 1, 3); got != (Window{0, 3}) {
		t.Errorf("short list: got %+v", got)
	}
	if got := Visible(0, 0, 1, 3); got.Len() != 0 {
		t.Errorf("zero height: got %+v", got)
	}
}
