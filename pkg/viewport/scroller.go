package viewport

// Guard is a scoped re-entrancy flag. Enter succeeds only when the guard is
// free and hands back the release func; a nested Enter reports ok=false.
type Guard struct {
	held bool
}

// Enter acquires the guard
func (g *Guard) Enter() (release func(), ok bool) {
	if g.held {
		return func() {}, false
	}
	g.held = true
	return func() { g.held = false }, true
}

// Held reports whether the guard is currently acquired
func (g *Guard) Held() bool {
	return g.held
}

// Config controls windowing
type Config struct {
	ItemHeight      int
	ContainerHeight int
	Buffer          int
	// VirtualizeThreshold: at or below this count every row is materialized
	VirtualizeThreshold int
	// ScrollThreshold: offset changes smaller than this keep the current window
	ScrollThreshold int
	// Disabled turns virtualization off; at most InitialCap rows are materialized
	Disabled   bool
	InitialCap int
}

// DefaultConfig returns the windowing defaults for a container height
func DefaultConfig(containerHeight int) Config {
	return Config{
		ItemHeight:          1,
		ContainerHeight:     containerHeight,
		Buffer:              DefaultBuffer,
		VirtualizeThreshold: DefaultVirtualizeThreshold,
		ScrollThreshold:     DefaultScrollThreshold,
		InitialCap:          200,
	}
}

// Scroller tracks a scroll offset over a list of total rows and keeps the
// materialized window in sync with it.
type Scroller struct {
	cfg    Config
	total  int
	offset int

	window     Window
	computedAt int
	valid      bool

	guard     Guard
	listeners map[int]func(offset int)
	nextID    int

	recomputes int
}

// NewScroller creates a scroller over an empty list
func NewScroller(cfg Config) *Scroller {
	if cfg.ItemHeight <= 0 {
		cfg.ItemHeight = 1
	}
	if cfg.Buffer < 0 {
		cfg.Buffer = 0
	}
	return &Scroller{cfg: cfg, listeners: make(map[int]func(int))}
}

// Config returns the active configuration
func (s *Scroller) Config() Config {
	return s.cfg
}

// OnScroll registers fn to run whenever the offset changes. The returned
// func unregisters it.
func (s *Scroller) OnScroll(fn func(offset int)) (remove func()) {
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() { delete(s.listeners, id) }
}

// ClearListeners drops every OnScroll callback
func (s *Scroller) ClearListeners() {
	s.listeners = make(map[int]func(int))
}

// Listeners is the number of registered scroll callbacks
func (s *Scroller) Listeners() int {
	return len(s.listeners)
}

// SetTotal replaces the row count (a new filtered list). The window is
// always recomputed and the offset clamped.
func (s *Scroller) SetTotal(total int) {
	if total < 0 {
		total = 0
	}
	s.total = total
	s.valid = false
	s.ScrollTo(s.offset)
}

// SetContainerHeight resizes the container and recomputes the window
func (s *Scroller) SetContainerHeight(h int) {
	if h < 0 {
		h = 0
	}
	if h == s.cfg.ContainerHeight {
		return
	}
	s.cfg.ContainerHeight = h
	s.valid = false
	s.ScrollTo(s.offset)
}

// Total returns the row count
func (s *Scroller) Total() int {
	return s.total
}

// Offset returns the scroll offset
func (s *Scroller) Offset() int {
	return s.offset
}

// Window returns the materialized rows
func (s *Scroller) Window() Window {
	if !s.valid {
		s.recompute()
	}
	return s.window
}

// Visible returns the rows intersecting the container
func (s *Scroller) Visible() Window {
	return Visible(s.offset, s.cfg.ContainerHeight, s.cfg.ItemHeight, s.effectiveTotal())
}

// Recomputes counts window recomputations
func (s *Scroller) Recomputes() int {
	return s.recomputes
}

// Bypassed reports whether windowing is skipped for the current list
func (s *Scroller) Bypassed() bool {
	return s.cfg.Disabled || s.total <= s.cfg.VirtualizeThreshold
}

// Buffer is the buffer in effect for the current list size
func (s *Scroller) Buffer() int {
	return AdaptiveBuffer(s.cfg.Buffer, s.total)
}

// Hidden is the number of rows cut off by the non-virtualized display cap
func (s *Scroller) Hidden() int {
	return s.total - s.effectiveTotal()
}

// ScrollBy moves the offset by delta
func (s *Scroller) ScrollBy(delta int) bool {
	return s.ScrollTo(s.offset + delta)
}

// ScrollTo handles a scroll to offset. It reports whether the window was
// recomputed. Calls made while a recompute is running (for example from an
// OnScroll callback reacting to a clamp) are ignored.
func (s *Scroller) ScrollTo(offset int) bool {
	release, ok := s.guard.Enter()
	if !ok {
		return false
	}
	defer release()

	prev := s.offset
	s.offset = offset
	if s.valid && abs(s.offset-s.computedAt) < s.microThreshold() && s.inRange(s.offset) {
		if s.offset != prev {
			s.emit()
		}
		return false
	}
	s.recompute()
	if s.offset != prev {
		s.emit()
	}
	return true
}

// EnsureVisible scrolls the minimum amount needed to show row i fully
func (s *Scroller) EnsureVisible(i int) bool {
	if i < 0 || i >= s.effectiveTotal() {
		return false
	}
	ih := s.cfg.ItemHeight
	top := i * ih
	bottom := top + ih
	switch {
	case top < s.offset:
		return s.ScrollTo(top)
	case bottom > s.offset+s.cfg.ContainerHeight:
		return s.ScrollTo(bottom - s.cfg.ContainerHeight)
	}
	return false
}

// Reset returns to the top and drops the window
func (s *Scroller) Reset() {
	s.offset = 0
	s.computedAt = 0
	s.window = Window{}
	s.valid = false
}

func (s *Scroller) effectiveTotal() int {
	if s.cfg.Disabled && s.cfg.InitialCap > 0 && s.total > s.cfg.InitialCap {
		return s.cfg.InitialCap
	}
	return s.total
}

func (s *Scroller) maxOffset() int {
	return MaxOffset(s.cfg.ContainerHeight, s.cfg.ItemHeight, s.effectiveTotal())
}

func (s *Scroller) inRange(offset int) bool {
	return offset >= 0 && offset <= s.maxOffset()
}

// microThreshold bounds the ignored scroll delta so a stale window still
// covers every visible row: the shift must stay within buffer-1 rows.
func (s *Scroller) microThreshold() int {
	if s.Bypassed() {
		return 0
	}
	limit := (s.Buffer() - 1) * s.cfg.ItemHeight
	t := s.cfg.ScrollThreshold
	if t > limit {
		t = limit
	}
	if t < 0 {
		t = 0
	}
	return t
}

func (s *Scroller) recompute() {
	if s.offset > s.maxOffset() {
		s.offset = s.maxOffset()
	}
	if s.offset < 0 {
		s.offset = 0
	}

	total := s.effectiveTotal()
	if s.Bypassed() {
		s.window = Window{Start: 0, End: total}
	} else {
		s.window = Compute(s.offset, s.cfg.ContainerHeight, s.cfg.ItemHeight, total, s.Buffer())
	}
	s.computedAt = s.offset
	s.valid = true
	s.recomputes++
}

func (s *Scroller) emit() {
	for _, fn := range s.listeners {
		fn(s.offset)
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
