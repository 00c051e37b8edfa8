package viewport

import "testing"

func newTestScroller(total int) *Scroller {
	cfg := DefaultConfig(20)
	cfg.Buffer = 10
	cfg.ScrollThreshold = 3
	s := NewScroller(cfg)
	s.SetTotal(total)
	return s
}

func TestScrollerIgnoresMicroScrolls(t *testing.T) {
	s := newTestScroller(5000)
	base := s.Recomputes()

	if s.ScrollTo(2) {
		t.Error("delta below threshold should not recompute")
	}
	if s.Offset() != 2 {
		t.Errorf("offset not tracked: %d", s.Offset())
	}
	if !s.ScrollTo(3) {
		t.Error("delta at threshold should recompute")
	}
	if s.Recomputes() != base+1 {
		t.Errorf("Recomputes() = %d, want %d", s.Recomputes(), base+1)
	}
}

func TestScrollerNoGapWithMicroScrolls(t *testing.T) {
	s := newTestScroller(3000)
	for off := 0; off < 3000; off++ {
		s.ScrollTo(off)
		if !s.Window().Covers(s.Visible()) {
			t.Fatalf("gap at offset %d: window %+v visible %+v", off, s.Window(), s.Visible())
		}
	}
	for off := 2999; off >= 0; off -= 2 {
		s.ScrollTo(off)
		if !s.Window().Covers(s.Visible()) {
			t.Fatalf("gap scrolling up at %d: window %+v visible %+v", off, s.Window(), s.Visible())
		}
	}
}

func TestScrollerReentrancyGuard(t *testing.T) {
	s := newTestScroller(1000)
	calls := 0
	s.OnScroll(func(offset int) {
		calls++
		// a listener that scrolls again must not loop
		if s.ScrollTo(offset + 50) {
			t.Error("nested ScrollTo recomputed")
		}
	})

	before := s.Recomputes()
	s.ScrollTo(100)
	if calls != 1 {
		t.Errorf("listener called %d times, want 1", calls)
	}
	if s.Recomputes() != before+1 {
		t.Errorf("recomputes = %d, want %d", s.Recomputes(), before+1)
	}
	if s.Offset() != 100 {
		t.Errorf("nested scroll leaked through: offset %d", s.Offset())
	}
}

func TestScrollerClampsOffset(t *testing.T) {
	s := newTestScroller(30)
	var seen []int
	s.OnScroll(func(offset int) { seen = append(seen, offset) })

	s.ScrollTo(1000)
	if s.Offset() != 10 {
		t.Errorf("offset = %d, want clamp to 10", s.Offset())
	}
	if len(seen) != 1 || seen[0] != 10 {
		t.Errorf("listener saw %v, want [10]", seen)
	}
	s.ScrollTo(-5)
	if s.Offset() != 0 {
		t.Errorf("negative offset not clamped: %d", s.Offset())
	}
}

func TestScrollerBypassBelowThreshold(t *testing.T) {
	s := newTestScroller(40)
	if !s.Bypassed() {
		t.Fatal("short list should bypass virtualization")
	}
	if w := s.Window(); w.Start != 0 || w.End != 40 {
		t.Errorf("bypass window = %+v, want [0,40)", w)
	}
}

func TestScrollerDisabledUsesInitialCap(t *testing.T) {
	cfg := DefaultConfig(10)
	cfg.Disabled = true
	cfg.InitialCap = 25
	s := NewScroller(cfg)
	s.SetTotal(1000)

	if w := s.Window(); w != (Window{0, 25}) {
		t.Errorf("window = %+v, want [0,25)", w)
	}
	if s.Hidden() != 975 {
		t.Errorf("Hidden() = %d, want 975", s.Hidden())
	}
	s.ScrollTo(500)
	if s.Offset() != 15 {
		t.Errorf("offset = %d, want clamp to 15", s.Offset())
	}
}

func TestScrollerEnsureVisible(t *testing.T) {
	s := newTestScroller(500)
	s.EnsureVisible(30)
	if s.Offset() != 11 {
		t.Errorf("offset = %d, want 11 (row 30 at bottom)", s.Offset())
	}
	if !s.Visible().Contains(30) || !s.Window().Contains(30) {
		t.Error("row 30 should be visible and materialized")
	}
	s.EnsureVisible(5)
	if s.Offset() != 5 {
		t.Errorf("offset = %d, want 5", s.Offset())
	}
	if s.EnsureVisible(10) {
		t.Error("already visible row should not scroll")
	}
}

func TestScrollerSetTotalRecomputes(t *testing.T) {
	s := newTestScroller(5000)
	s.ScrollTo(4000)
	s.SetTotal(100)
	if s.Offset() != 80 {
		t.Errorf("offset = %d, want clamp to 80", s.Offset())
	}
	if !s.Window().Covers(s.Visible()) {
		t.Errorf("window %+v does not cover %+v", s.Window(), s.Visible())
	}
}

func TestScrollerListenerRemoval(t *testing.T) {
	s := newTestScroller(500)
	calls := 0
	remove := s.OnScroll(func(int) { calls++ })
	s.ScrollTo(50)
	remove()
	s.ScrollTo(100)
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	s.OnScroll(func(int) {})
	s.ClearListeners()
	if s.Listeners() != 0 {
		t.Errorf("Listeners() = %d after ClearListeners", s.Listeners())
	}
}

func TestGuard(t *testing.T) {
	var g Guard
	release, ok := g.Enter()
	if !ok || !g.Held() {
		t.Fatal("first Enter should acquire")
	}
	if _, ok := g.Enter(); ok {
		t.Fatal("nested Enter should fail")
	}
	release()
	if g.Held() {
		t.Fatal("release should free the guard")
	}
}
