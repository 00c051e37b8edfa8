package ui

import (
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Dicklesworthstone/vselect/pkg/cache"
	"github.com/Dicklesworthstone/vselect/pkg/config"
	"github.com/Dicklesworthstone/vselect/pkg/filter"
	"github.com/Dicklesworthstone/vselect/pkg/index"
	"github.com/Dicklesworthstone/vselect/pkg/logutil"
	"github.com/Dicklesworthstone/vselect/pkg/model"
	"github.com/Dicklesworthstone/vselect/pkg/selection"
	"github.com/Dicklesworthstone/vselect/pkg/viewport"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"
)

// State is the dropdown state
type State int

const (
	StateClosed State = iota
	StateOpen
	// StateFiltering is StateOpen with a non-empty query
	StateFiltering
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateFiltering:
		return "filtering"
	default:
		return "closed"
	}
}

const (
	// LargeSetThreshold is the option count above which caches are pruned
	// whenever the dropdown closes
	LargeSetThreshold = 10000

	renderCacheSize = 1024
	wheelLines      = 3
	minWidth        = 12
	// headerHeight is the bordered input box: top border, text, bottom border
	headerHeight = 3
)

var lastID atomic.Int64

func nextID() int {
	return int(lastID.Add(1))
}

// ChangeMsg is emitted when the user changes the selection
type ChangeMsg struct {
	ID string
	// Value is a string or nil in single mode and a []string in multi mode
	Value  any
	Values []string
}

// OptionsMsg replaces the option set, typically after a reload
type OptionsMsg struct {
	Options model.Options
	Err     error
}

// CopiedMsg reports the outcome of a clipboard copy
type CopiedMsg struct {
	ID   string
	Text string
	Err  error
}

type debounceMsg struct {
	id    int
	seq   uint64
	query string
}

type filterStepMsg struct {
	id  int
	seq uint64
}

type blurMsg struct {
	id  int
	seq uint64
}

// press tracks a mouse gesture from press to release
type press struct {
	x, y  int
	lastY int
	at    time.Time
	row   int
	drag  bool
}

// SelectOption configures a SelectModel
type SelectOption func(*SelectModel)

// WithLogger sets the component logger
func WithLogger(l *slog.Logger) SelectOption {
	return func(m *SelectModel) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithClock replaces time.Now for tap timing
func WithClock(now func() time.Time) SelectOption {
	return func(m *SelectModel) {
		if now != nil {
			m.now = now
		}
	}
}

// WithClipboard replaces the clipboard writer
func WithClipboard(write func(string) error) SelectOption {
	return func(m *SelectModel) {
		if write != nil {
			m.copyText = write
		}
	}
}

// WithOptions sets the initial option set
func WithOptions(opts model.Options) SelectOption {
	return func(m *SelectModel) {
		m.initial = opts
	}
}

// SelectModel is a searchable dropdown over a possibly very large option set.
// Only the rows around the viewport are rendered.
type SelectModel struct {
	id       int
	cfg      config.Select
	theme    Theme
	logger   *slog.Logger
	now      func() time.Time
	copyText func(string) error
	initial  model.Options

	options  index.Holder
	engine   *filter.Engine
	scroller *viewport.Scroller
	sel      *selection.State

	// rendered caches styled labels by option position
	rendered      *cache.LRU[int, string]
	renderedWidth int
	materialized  int

	input  textinput.Model
	state  State
	result filter.Result
	cursor int

	debounceSeq uint64
	blurSeq     uint64
	pass        *filter.Pass

	width        int
	listHeight   int
	override     *widthOverride
	removeScroll func()

	press            *press
	originX, originY int

	focused   bool
	disabled  bool
	touched   bool
	destroyed bool

	onChange  func(any)
	onTouched func()

	status string
}

// NewSelectModel creates a closed select
func NewSelectModel(cfg config.Select, theme Theme, opts ...SelectOption) *SelectModel {
	ti := textinput.New()
	ti.Placeholder = "Search..."
	ti.Prompt = ""
	ti.CharLimit = 256

	m := &SelectModel{
		id:         nextID(),
		cfg:        cfg,
		theme:      theme,
		logger:     slog.Default(),
		now:        time.Now,
		copyText:   clipboard.WriteAll,
		input:      ti,
		width:      cfg.Width,
		listHeight: cfg.Height,
		rendered:   cache.NewLRU[int, string](renderCacheSize),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.theme.Renderer == nil {
		m.theme = DefaultTheme(nil)
	}
	if m.cfg.RowHeight < 1 {
		m.cfg.RowHeight = 1
	}
	if m.listHeight < 1 {
		m.listHeight = 1
	}

	if cfg.Multiple {
		m.sel = selection.NewMulti()
	} else {
		m.sel = selection.NewSingle()
	}

	engineOpts := []filter.EngineOption{filter.WithMode(cfg.MatchMode), filter.WithLogger(m.logger)}
	if cfg.LabelCacheSize > 0 {
		engineOpts = append(engineOpts, filter.WithLabelCacheSize(cfg.LabelCacheSize))
	}
	m.engine = filter.NewEngine(engineOpts...)

	vcfg := viewport.DefaultConfig(m.listHeight)
	vcfg.ItemHeight = m.cfg.RowHeight
	vcfg.Buffer = cfg.Buffer
	vcfg.VirtualizeThreshold = cfg.VirtualizeThreshold
	vcfg.ScrollThreshold = cfg.ScrollThreshold
	vcfg.Disabled = !cfg.Virtualize
	vcfg.InitialCap = cfg.InitialDisplayCap
	m.scroller = viewport.NewScroller(vcfg)

	if m.initial != nil {
		m.SetOptions(m.initial)
		m.initial = nil
	}
	return m
}

// Init implements tea.Model
func (m *SelectModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m *SelectModel) Update(msg tea.Msg) (*SelectModel, tea.Cmd) {
	if m.destroyed {
		return m, nil
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if !m.focused || m.disabled {
			return m, nil
		}
		return m, m.handleKey(msg)

	case tea.MouseMsg:
		return m, m.handleMouse(msg)

	case debounceMsg:
		if msg.id != m.id || msg.seq != m.debounceSeq || m.state == StateClosed {
			return m, nil
		}
		return m, m.runFilter(msg.query)

	case filterStepMsg:
		if msg.id != m.id {
			return m, nil
		}
		return m, m.step(msg.seq)

	case blurMsg:
		if msg.id == m.id && msg.seq == m.blurSeq && !m.focused {
			m.close()
		}
		return m, nil

	case OptionsMsg:
		if msg.Err != nil {
			m.status = "load failed: " + msg.Err.Error()
			m.logger.Warn("keeping previous options", "id", m.cfg.ID, "err", msg.Err)
			return m, nil
		}
		return m, m.SetOptions(msg.Options)

	case CopiedMsg:
		if msg.ID == m.cfg.ID && msg.Err != nil {
			m.status = "copy failed: " + msg.Err.Error()
		}
		return m, nil
	}

	if m.state != StateClosed {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// SetOptions replaces the option set. The index and every cache are rebuilt
// and values bound before the options arrived are resolved again.
func (m *SelectModel) SetOptions(opts model.Options) tea.Cmd {
	if m.destroyed {
		return nil
	}
	pending := len(m.sel.Pending(&m.options))

	m.options.Replace(opts)
	m.engine.SetLabels(opts.Labels())
	m.rendered.Clear()
	m.pass = nil
	m.status = ""
	m.logger.Debug("options replaced", "id", m.cfg.ID, "count", len(opts))

	if pending > 0 {
		still := len(m.sel.Pending(&m.options))
		m.logger.Debug("bound values re-resolved", "id", m.cfg.ID, "resolved", pending-still, "pending", still)
	}
	if m.state == StateClosed {
		return nil
	}
	// positions in the old result index the old set
	m.applyResult(filter.Result{})
	return m.runFilter(m.input.Value())
}

// ══════════════════════════════════════════════════════════════════════════════
// FORM INTEGRATION
// ══════════════════════════════════════════════════════════════════════════════

// WriteValue sets the selection from outside without emitting a change.
// Accepts nil, a single value, []string or []any.
func (m *SelectModel) WriteValue(v any) {
	switch x := v.(type) {
	case nil:
		m.sel.Clear()
	case []string:
		m.sel.Set(x...)
	case []any:
		values := make([]string, 0, len(x))
		for _, item := range x {
			values = append(values, model.ValueKey(item))
		}
		m.sel.Set(values...)
	default:
		m.sel.Set(model.ValueKey(v))
	}
	if pending := m.sel.Pending(&m.options); len(pending) > 0 {
		m.logger.Debug("bound values not yet resolvable", "id", m.cfg.ID, "pending", len(pending))
	}
}

// OnChange registers the change callback
func (m *SelectModel) OnChange(fn func(any)) {
	m.onChange = fn
}

// OnTouched registers the interaction callback
func (m *SelectModel) OnTouched(fn func()) {
	m.onTouched = fn
}

// SetDisabled enables or disables the select; disabling closes it
func (m *SelectModel) SetDisabled(disabled bool) {
	if disabled {
		m.close()
	}
	m.disabled = disabled
}

// Value is the emitted form of the selection
func (m *SelectModel) Value() any {
	return m.sel.Emitted()
}

// Values returns the selected values in selection order
func (m *SelectModel) Values() []string {
	return m.sel.Values()
}

// Multiple reports whether this is a multi-select
func (m *SelectModel) Multiple() bool {
	return m.sel.Multi()
}

// DisplayText is the text shown in the closed input
func (m *SelectModel) DisplayText() string {
	text, _ := m.sel.DisplayText(&m.options, m.display())
	return filter.PlainText(text)
}

func (m *SelectModel) display() selection.Display {
	return selection.Display{Placeholder: m.cfg.Placeholder, Default: m.cfg.DefaultOption}
}

// ══════════════════════════════════════════════════════════════════════════════
// FOCUS AND LIFECYCLE
// ══════════════════════════════════════════════════════════════════════════════

// Focus gives the select keyboard focus and opens it
func (m *SelectModel) Focus() tea.Cmd {
	if m.destroyed || m.disabled {
		return nil
	}
	// a refocus inside the grace period cancels the pending close
	m.blurSeq++
	if m.focused {
		return nil
	}
	m.focused = true
	return m.open()
}

// Blur removes focus. The dropdown closes after the blur grace period unless
// focus returns first.
func (m *SelectModel) Blur() tea.Cmd {
	if !m.focused {
		return nil
	}
	m.focused = false
	m.blurSeq++
	id, seq := m.id, m.blurSeq
	return tea.Tick(m.cfg.BlurGrace, func(time.Time) tea.Msg {
		return blurMsg{id: id, seq: seq}
	})
}

// Destroy releases every timer, listener and cache. The model is inert
// afterwards.
func (m *SelectModel) Destroy() {
	if m.destroyed {
		return
	}
	m.onChange = nil
	m.onTouched = nil
	m.close()
	m.override.Release()
	m.debounceSeq++
	m.blurSeq++
	m.engine.SetLabels(nil)
	m.rendered.Clear()
	m.scroller.ClearListeners()
	m.options.Reset()
	m.focused = false
	m.destroyed = true
	m.logger.Debug("select destroyed", "id", m.cfg.ID)
}

// SetSize bounds the select to the terminal size
func (m *SelectModel) SetSize(width, height int) {
	h := m.cfg.Height
	if avail := height - headerHeight - 2; avail < h {
		h = avail
	}
	if h < 1 {
		h = 1
	}
	m.listHeight = h
	m.scroller.SetContainerHeight(h)

	if width > 0 && m.baseWidth()+2 > width {
		m.width = width - 2
	}
}

// SetOrigin places the select on screen for mouse hit testing
func (m *SelectModel) SetOrigin(x, y int) {
	m.originX, m.originY = x, y
}

func (m *SelectModel) baseWidth() int {
	if m.override.Active() {
		return m.override.saved
	}
	return m.width
}

func (m *SelectModel) open() tea.Cmd {
	if m.disabled || m.destroyed || m.state != StateClosed {
		return nil
	}
	m.state = StateOpen
	m.override = overrideWidth(&m.width, m.cfg.FocusWidth)
	m.removeScroll = m.scroller.OnScroll(m.followScroll)

	m.input.Reset()
	cmd := m.input.Focus()

	m.scroller.Reset()
	m.applyResult(m.engine.Filter(""))
	m.revealSelected()
	m.logger.Debug("select opened", "id", m.cfg.ID, "options", m.scroller.Total())
	return cmd
}

func (m *SelectModel) close() {
	if m.state == StateClosed {
		return
	}
	m.state = StateClosed
	m.debounceSeq++
	m.engine.Cancel()
	m.pass = nil
	m.press = nil

	m.input.Reset()
	m.input.Blur()
	if m.removeScroll != nil {
		m.removeScroll()
		m.removeScroll = nil
	}
	m.result = filter.Result{}
	m.cursor = 0
	m.scroller.Reset()
	m.scroller.SetTotal(0)
	m.override.Release()

	if n := len(m.options.Load().Options()); n > LargeSetThreshold {
		m.engine.Prune(n / 2)
		m.rendered.Prune(m.rendered.Capacity() / 2)
		m.logger.Debug("caches pruned", "id", m.cfg.ID, "options", n)
	}
	m.markTouched()
	m.logger.Debug("select closed", "id", m.cfg.ID)
}

func (m *SelectModel) markTouched() {
	m.touched = true
	if m.onTouched != nil {
		m.onTouched()
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// FILTERING
// ══════════════════════════════════════════════════════════════════════════════

// queryChanged supersedes any in-flight pass and schedules a debounced one
func (m *SelectModel) queryChanged() tea.Cmd {
	q := m.input.Value()
	if strings.TrimSpace(q) == "" {
		m.state = StateOpen
	} else {
		m.state = StateFiltering
	}
	m.debounceSeq++
	m.engine.Cancel()
	m.pass = nil

	id, seq := m.id, m.debounceSeq
	d := filter.DebounceFor(m.cfg.SearchDebounce, m.engine.Len())
	logutil.Trace(m.logger, "query debounced", "id", m.cfg.ID, "query", q, "delay", d)
	return tea.Tick(d, func(time.Time) tea.Msg {
		return debounceMsg{id: id, seq: seq, query: q}
	})
}

// runFilter starts a pass for query. Small sets finish synchronously; large
// ones continue in chunk steps delivered as messages.
func (m *SelectModel) runFilter(query string) tea.Cmd {
	pass, res, ok := m.engine.Begin(query)
	if ok {
		m.pass = nil
		m.applyResult(res)
		return nil
	}
	if !m.engine.Chunked() {
		for !pass.Step(m.engine.Len() + 1) {
		}
		if res, ok := m.engine.Publish(pass); ok {
			m.applyResult(res)
		}
		return nil
	}
	m.pass = pass
	return m.stepCmd(pass)
}

func (m *SelectModel) stepCmd(p *filter.Pass) tea.Cmd {
	id, seq := m.id, p.Seq()
	return func() tea.Msg {
		return filterStepMsg{id: id, seq: seq}
	}
}

func (m *SelectModel) step(seq uint64) tea.Cmd {
	p := m.pass
	if p == nil || p.Seq() != seq || !m.engine.Current(p) {
		return nil
	}
	if !p.Step(filter.ChunkSize) {
		return m.stepCmd(p)
	}
	m.pass = nil
	if res, ok := m.engine.Publish(p); ok {
		m.applyResult(res)
	}
	return nil
}

func (m *SelectModel) applyResult(res filter.Result) {
	m.result = res
	m.cursor = 0
	m.scroller.Reset()
	m.scroller.SetTotal(res.Len())
}

// revealSelected moves the cursor to the selected option when it is listed
func (m *SelectModel) revealSelected() {
	v, ok := m.sel.Value()
	if !ok || !m.result.All() {
		return
	}
	pos := m.options.Load().Position(v)
	if pos < 0 || pos >= m.rowCount() {
		return
	}
	m.cursor = pos
	m.scroller.EnsureVisible(pos)
}

// followScroll keeps the cursor on screen after a wheel or drag scroll
func (m *SelectModel) followScroll(int) {
	vis := m.scroller.Visible()
	if vis.Len() == 0 {
		return
	}
	if m.cursor < vis.Start {
		m.cursor = vis.Start
	} else if m.cursor >= vis.End {
		m.cursor = vis.End - 1
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// INPUT
// ══════════════════════════════════════════════════════════════════════════════

func (m *SelectModel) handleKey(msg tea.KeyMsg) tea.Cmd {
	key := msg.String()
	if key == "ctrl+y" {
		return m.copyCmd()
	}

	if m.state == StateClosed {
		switch key {
		case "enter", " ", "down":
			return m.open()
		case "delete", "backspace":
			if m.cfg.AllowClear {
				return m.clear()
			}
			return nil
		}
		if msg.Type == tea.KeyRunes && !msg.Alt {
			// type-to-search
			return tea.Batch(m.open(), m.updateInput(msg))
		}
		return nil
	}

	switch key {
	case "esc":
		m.close()
		return nil
	case "up":
		m.moveCursor(-1)
	case "down":
		m.moveCursor(1)
	case "pgup":
		m.moveCursor(-m.pageRows())
	case "pgdown":
		m.moveCursor(m.pageRows())
	case "enter":
		return m.pick(m.cursor)
	default:
		return m.updateInput(msg)
	}
	return nil
}

func (m *SelectModel) updateInput(msg tea.Msg) tea.Cmd {
	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() == before {
		return cmd
	}
	return tea.Batch(cmd, m.queryChanged())
}

func (m *SelectModel) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if m.disabled {
		return nil
	}
	x, y := msg.X-m.originX, msg.Y-m.originY
	inside := m.contains(x, y)

	switch msg.Button {
	case tea.MouseButtonWheelUp:
		if m.state != StateClosed && inside {
			m.scroller.ScrollBy(-wheelLines)
		}
		return nil
	case tea.MouseButtonWheelDown:
		if m.state != StateClosed && inside {
			m.scroller.ScrollBy(wheelLines)
		}
		return nil
	}

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return nil
		}
		if !inside {
			m.close()
			return nil
		}
		if !m.focused {
			m.focused = true
			m.blurSeq++
		}
		if y < headerHeight {
			if m.state != StateClosed {
				return nil
			}
			if m.cfg.AllowClear && m.sel.Len() > 0 && m.onClearGlyph(x) {
				return m.clear()
			}
			return m.open()
		}
		m.press = &press{x: x, y: y, lastY: y, at: m.now(), row: m.rowAt(y)}
		return nil

	case tea.MouseActionMotion:
		p := m.press
		if p == nil {
			return nil
		}
		if !p.drag && (abs(x-p.x) > m.cfg.TapSlop || abs(y-p.y) > m.cfg.TapSlop) {
			p.drag = true
		}
		if p.drag && y != p.lastY {
			// dragging content up reveals rows below
			m.scroller.ScrollBy(p.lastY - y)
			p.lastY = y
		}
		return nil

	case tea.MouseActionRelease:
		p := m.press
		m.press = nil
		if p == nil || p.drag || p.row < 0 {
			return nil
		}
		if abs(x-p.x) > m.cfg.TapSlop || abs(y-p.y) > m.cfg.TapSlop {
			return nil
		}
		if held := m.now().Sub(p.at); held > m.cfg.TapMaxHold {
			logutil.Trace(m.logger, "tap discarded", "id", m.cfg.ID, "held", held)
			return nil
		}
		return m.pick(p.row)
	}
	return nil
}

func (m *SelectModel) contains(x, y int) bool {
	if x < 0 || x >= m.outerWidth() || y < 0 {
		return false
	}
	if m.state == StateClosed {
		return y < headerHeight
	}
	return y < headerHeight+m.listLines()+m.footerLines()
}

func (m *SelectModel) onClearGlyph(x int) bool {
	w := m.boxWidth()
	return x >= w-1 && x <= w
}

// rowAt maps a component-relative y to a filtered row, or -1
func (m *SelectModel) rowAt(y int) int {
	line := y - headerHeight
	if line < 0 || line >= m.listLines() {
		return -1
	}
	row := (m.scroller.Offset() + line) / m.cfg.RowHeight
	if row >= m.rowCount() {
		return -1
	}
	return row
}

func (m *SelectModel) moveCursor(delta int) {
	n := m.rowCount()
	if n == 0 {
		return
	}
	c := m.cursor + delta
	if c < 0 {
		c = 0
	}
	if c >= n {
		c = n - 1
	}
	m.cursor = c
	m.scroller.EnsureVisible(c)
}

func (m *SelectModel) pageRows() int {
	if n := m.listHeight / m.cfg.RowHeight; n > 1 {
		return n
	}
	return 1
}

// ══════════════════════════════════════════════════════════════════════════════
// SELECTION
// ══════════════════════════════════════════════════════════════════════════════

func (m *SelectModel) pick(row int) tea.Cmd {
	if row < 0 || row >= m.rowCount() {
		return nil
	}
	opt := m.options.Load().Options()[m.result.Indices[row]]
	m.cursor = row

	var cmd tea.Cmd
	if m.sel.Select(opt.Value) {
		cmd = m.emitChange()
	}
	if !m.sel.Multi() {
		m.close()
	}
	return cmd
}

func (m *SelectModel) clear() tea.Cmd {
	if !m.sel.Clear() {
		return nil
	}
	return m.emitChange()
}

func (m *SelectModel) emitChange() tea.Cmd {
	msg := ChangeMsg{ID: m.cfg.ID, Value: m.sel.Emitted(), Values: m.sel.Values()}
	if m.onChange != nil {
		m.onChange(msg.Value)
	}
	m.logger.Debug("selection changed", "id", m.cfg.ID, "values", len(msg.Values))
	return func() tea.Msg { return msg }
}

func (m *SelectModel) copyCmd() tea.Cmd {
	values := m.sel.Values()
	if len(values) == 0 {
		return nil
	}
	text := strings.Join(values, "\n")
	id, write := m.cfg.ID, m.copyText
	return func() tea.Msg {
		return CopiedMsg{ID: id, Text: text, Err: write(text)}
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// STATE ACCESSORS
// ══════════════════════════════════════════════════════════════════════════════

// State returns the dropdown state
func (m *SelectModel) State() State {
	return m.state
}

// Focused reports keyboard focus
func (m *SelectModel) Focused() bool {
	return m.focused
}

// Touched reports whether the user has interacted with the select
func (m *SelectModel) Touched() bool {
	return m.touched
}

// Width is the current input width, including any focus override
func (m *SelectModel) Width() int {
	return m.width
}

// Query returns the search text
func (m *SelectModel) Query() string {
	return m.input.Value()
}

// Matches is the number of options matching the current query
func (m *SelectModel) Matches() int {
	return m.result.Len()
}

// Filtering reports whether a chunked pass is in flight
func (m *SelectModel) Filtering() bool {
	return m.pass != nil
}

// Materialized is the number of rows rendered by the last View
func (m *SelectModel) Materialized() int {
	return m.materialized
}

// Status returns the last error shown under the list
func (m *SelectModel) Status() string {
	return m.status
}

func (m *SelectModel) rowCount() int {
	return m.scroller.Total() - m.scroller.Hidden()
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// ══════════════════════════════════════════════════════════════════════════════
// VIEW
// ══════════════════════════════════════════════════════════════════════════════

func (m *SelectModel) boxWidth() int {
	if m.width < minWidth {
		return minWidth
	}
	return m.width
}

func (m *SelectModel) outerWidth() int {
	return m.boxWidth() + 2
}

// listLines is the number of list lines shown below the input
func (m *SelectModel) listLines() int {
	if m.state == StateClosed {
		return 0
	}
	content := m.rowCount()*m.cfg.RowHeight - m.scroller.Offset()
	if content <= 0 {
		return 1 // empty-state line
	}
	if content > m.listHeight {
		return m.listHeight
	}
	return content
}

func (m *SelectModel) footerLines() int {
	n := 0
	if m.scroller.Hidden() > 0 {
		n++
	}
	if m.pass != nil {
		n++
	}
	if m.status != "" {
		n++
	}
	return n
}

// View renders the select
func (m *SelectModel) View() string {
	if m.destroyed {
		return ""
	}
	lines := []string{m.renderHeader()}
	if m.state != StateClosed {
		lines = append(lines, m.renderList()...)
		if hidden := m.scroller.Hidden(); hidden > 0 {
			lines = append(lines, m.theme.muted().Render(fmt.Sprintf("  … %d more", hidden)))
		}
		if m.pass != nil {
			done, total := m.pass.Progress()
			lines = append(lines, m.theme.muted().Render(fmt.Sprintf("  searching %d/%d", done, total)))
		}
	}
	if m.status != "" {
		lines = append(lines, m.theme.errorText().Render("  "+m.status))
	}
	return strings.Join(lines, "\n")
}

func (m *SelectModel) renderHeader() string {
	inner := m.boxWidth() - 2
	var content string
	if m.state != StateClosed {
		m.input.Width = inner - 1
		content = m.input.View()
	} else {
		text, resolved := m.sel.DisplayText(&m.options, m.display())
		text = runewidth.Truncate(filter.PlainText(text), inner-2, "…")
		glyph := "▾"
		if m.cfg.AllowClear && m.sel.Len() > 0 {
			glyph = "×"
		}
		style := m.theme.value()
		if !resolved {
			style = m.theme.placeholder()
		}
		pad := inner - 2 - runewidth.StringWidth(text)
		if pad < 0 {
			pad = 0
		}
		content = style.Render(text) + strings.Repeat(" ", pad) + " " + glyph
	}
	return m.theme.inputBox(m.focused, m.boxWidth()).Render(content)
}

func (m *SelectModel) renderList() []string {
	rows := m.rowCount()
	if rows == 0 {
		m.materialized = 0
		var msg string
		switch {
		case m.pass != nil:
			msg = "Searching…"
		case len(m.options.Load().Options()) == 0:
			msg = "No options"
		default:
			msg = "No matches"
		}
		return []string{m.theme.muted().Render("  " + msg)}
	}

	width := m.outerWidth()
	if width != m.renderedWidth {
		m.rendered.Clear()
		m.renderedWidth = width
	}

	win := m.scroller.Window()
	ih := m.cfg.RowHeight
	materialized := make([][]string, win.Len())
	for r := win.Start; r < win.End; r++ {
		materialized[r-win.Start] = m.renderRow(r, width)
	}
	m.materialized = win.Len()

	off := m.scroller.Offset()
	n := m.listLines()
	lines := make([]string, 0, n)
	for line := off; line < off+n; line++ {
		r := line / ih
		if !win.Contains(r) {
			lines = append(lines, "")
			continue
		}
		lines = append(lines, materialized[r-win.Start][line%ih])
	}
	return lines
}

func (m *SelectModel) renderRow(row, width int) []string {
	pos := m.result.Indices[row]
	opt := m.options.Load().Options()[pos]

	pointer := "  "
	if row == m.cursor {
		pointer = "▸ "
	}
	mark := ""
	checked := m.sel.Has(opt.Value)
	switch {
	case m.sel.Multi() && checked:
		mark = "[x] "
	case m.sel.Multi():
		mark = "[ ] "
	case checked:
		mark = "✓ "
	default:
		mark = "  "
	}

	label := m.renderLabel(pos, opt, width-runewidth.StringWidth(pointer+mark))
	if checked {
		mark = m.theme.checked().Render(mark)
	}
	line := pointer + mark + label
	if row == m.cursor {
		line = m.theme.cursorRow().Render(pointer) + mark + label
	}

	out := make([]string, m.cfg.RowHeight)
	out[0] = line
	return out
}

// renderLabel styles a label's bold runs and truncates it to width
func (m *SelectModel) renderLabel(pos int, opt model.Option, width int) string {
	if s, ok := m.rendered.Get(pos); ok {
		return s
	}
	var b strings.Builder
	remaining := width
	for _, span := range filter.Spans(opt.DisplayLabel()) {
		if remaining <= 0 {
			break
		}
		text := span.Text
		if w := runewidth.StringWidth(text); w > remaining {
			text = runewidth.Truncate(text, remaining, "…")
		}
		remaining -= runewidth.StringWidth(text)
		if span.Bold {
			b.WriteString(m.theme.bold().Render(text))
		} else {
			b.WriteString(text)
		}
	}
	s := b.String()
	m.rendered.Put(pos, s)
	return s
}
