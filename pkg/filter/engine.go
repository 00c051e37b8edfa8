// Package filter narrows an option set by a typed query.
//
// Matching is containment on normalized label text. Options whose text starts
// with the query are returned first, followed by the remaining containment
// matches; both groups keep source order. An opt-in fuzzy mode ranks by
// sahilm/fuzzy score instead.
//
// Large sets are filtered in chunks through a Pass so the caller can yield to
// its event loop between steps. Every pass carries a sequence number and only
// the most recently begun pass may publish.
package filter

import (
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/Dicklesworthstone/vselect/pkg/cache"
	"github.com/sahilm/fuzzy"
)

// Mode selects the matching strategy
type Mode string

const (
	ModeContains Mode = "contains"
	ModeFuzzy    Mode = "fuzzy"
)

// IsValid returns true if the mode is a recognized value
func (m Mode) IsValid() bool {
	return m == ModeContains || m == ModeFuzzy
}

const (
	// ChunkThreshold is the option count above which filtering is chunked
	ChunkThreshold = 20000
	// ChunkSize is the number of options examined per Pass.Step
	ChunkSize = 2000

	// DefaultDebounce is the base quiet period before a typed query is applied
	DefaultDebounce = 150 * time.Millisecond

	defaultLabelCacheSize  = 20000
	defaultResultCacheSize = 16
)

// DebounceFor scales the base debounce interval with the option count
func DebounceFor(base time.Duration, n int) time.Duration {
	if base <= 0 {
		base = DefaultDebounce
	}
	switch {
	case n >= 50000:
		return base * 4
	case n >= 10000:
		return base * 3
	case n >= 1000:
		return base * 2
	}
	return base
}

// Result is a published filter outcome
type Result struct {
	Query string
	// Indices are positions into the option set, in display order
	Indices []int
	// Prefix is how many leading Indices are prefix matches
	Prefix int

	// matched holds the same positions in source order, used for narrowing
	matched []int
	all     bool
}

// Len is the number of matches
func (r Result) Len() int {
	return len(r.Indices)
}

// All reports whether the result is the unfiltered option set
func (r Result) All() bool {
	return r.all
}

// Engine filters one option set and caches its results.
// Not safe for concurrent use; the owning component serializes calls.
type Engine struct {
	labels []string
	mode   Mode
	logger *slog.Logger

	labelCache *cache.LRU[int, string]
	results    *cache.LRU[string, Result]

	last      Result
	lastValid bool

	seq   uint64
	scans int
}

// EngineOption configures an Engine
type EngineOption func(*Engine)

// WithMode sets the matching mode
func WithMode(m Mode) EngineOption {
	return func(e *Engine) {
		if m.IsValid() {
			e.mode = m
		}
	}
}

// WithLabelCacheSize bounds the normalized label cache
func WithLabelCacheSize(n int) EngineOption {
	return func(e *Engine) {
		e.labelCache = cache.NewLRU[int, string](n)
	}
}

// WithResultCacheSize bounds the number of remembered query results
func WithResultCacheSize(n int) EngineOption {
	return func(e *Engine) {
		e.results = cache.NewLRU[string, Result](n)
	}
}

// WithLogger sets the engine logger
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine creates an engine with no options loaded
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		mode:       ModeContains,
		logger:     slog.Default(),
		labelCache: cache.NewLRU[int, string](defaultLabelCacheSize),
		results:    cache.NewLRU[string, Result](defaultResultCacheSize),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetLabels replaces the option set. All caches are invalidated and any
// in-flight pass is superseded.
func (e *Engine) SetLabels(labels []string) {
	e.labels = labels
	e.Reset()
}

// Reset clears caches and supersedes in-flight passes, keeping the labels
func (e *Engine) Reset() {
	e.seq++
	e.labelCache.Clear()
	e.results.Clear()
	e.last = Result{}
	e.lastValid = false
}

// Prune shrinks the caches, keeping the most recent entries
func (e *Engine) Prune(keepLabels int) {
	e.labelCache.Prune(keepLabels)
	e.results.Prune(1)
}

// Cancel supersedes any in-flight pass without touching caches
func (e *Engine) Cancel() {
	e.seq++
}

// Len is the size of the option set
func (e *Engine) Len() int {
	return len(e.labels)
}

// Mode returns the matching mode
func (e *Engine) Mode() Mode {
	return e.mode
}

// Scans counts passes that actually examined options
func (e *Engine) Scans() int {
	return e.scans
}

// LabelCacheStats exposes label cache counters
func (e *Engine) LabelCacheStats() cache.Stats {
	return e.labelCache.Stats()
}

// Last returns the most recently published result
func (e *Engine) Last() (Result, bool) {
	return e.last, e.lastValid
}

// Chunked reports whether filtering this set should be split into steps
func (e *Engine) Chunked() bool {
	return len(e.labels) > ChunkThreshold
}

// Filter runs a complete pass synchronously and publishes it
func (e *Engine) Filter(query string) Result {
	pass, res, ok := e.Begin(query)
	if ok {
		return res
	}
	for !pass.Step(len(e.labels) + 1) {
	}
	res, _ = e.Publish(pass)
	return res
}

// Begin starts a pass for query. When the result is already known (empty
// query or cache hit) it is returned directly with ok=true and no pass.
// Beginning a pass supersedes every earlier one.
func (e *Engine) Begin(query string) (pass *Pass, res Result, ok bool) {
	e.seq++
	q := Normalize(query)

	if q == "" {
		res = e.allResult()
		e.remember(res)
		return nil, res, true
	}
	if e.lastValid && e.last.Query == q {
		return nil, e.last, true
	}
	if cached, hit := e.results.Get(q); hit {
		e.remember(cached)
		return nil, cached, true
	}

	e.scans++
	pass = &Pass{
		engine:     e,
		seq:        e.seq,
		query:      q,
		candidates: e.candidatesFor(q),
	}
	e.logger.Debug("filter pass begin",
		"query", q,
		"candidates", pass.total(),
		"seq", pass.seq)
	return pass, Result{}, false
}

// Publish finalizes a completed pass. Stale passes (superseded by a later
// Begin, Cancel or SetLabels) are discarded and ok is false.
func (e *Engine) Publish(p *Pass) (Result, bool) {
	if p == nil || !p.Done() {
		return Result{}, false
	}
	if p.seq != e.seq {
		e.logger.Debug("filter pass superseded", "query", p.query, "seq", p.seq, "latest", e.seq)
		return Result{}, false
	}
	res := p.result()
	e.results.Put(res.Query, res)
	e.remember(res)
	e.logger.Debug("filter pass published", "query", res.Query, "matches", res.Len())
	return res, true
}

// Current reports whether p is still the latest pass
func (e *Engine) Current(p *Pass) bool {
	return p != nil && p.seq == e.seq
}

func (e *Engine) remember(res Result) {
	e.last = res
	e.lastValid = true
}

func (e *Engine) allResult() Result {
	all := make([]int, len(e.labels))
	for i := range all {
		all[i] = i
	}
	return Result{Indices: all, matched: all, all: true}
}

// candidatesFor narrows the scan to a cached superset when q extends an
// earlier query; every match of q also matches any prefix of q.
func (e *Engine) candidatesFor(q string) []int {
	if e.lastValid && !e.last.all && e.last.Query != "" && strings.HasPrefix(q, e.last.Query) {
		return e.last.matched
	}
	for k := len(q) - 1; k > 0; k-- {
		if cached, ok := e.results.Peek(q[:k]); ok {
			return cached.matched
		}
	}
	return nil
}

func (e *Engine) normalized(i int) string {
	if s, ok := e.labelCache.Get(i); ok {
		return s
	}
	s := MatchText(e.labels[i])
	e.labelCache.Put(i, s)
	return s
}

// Pass is one cancellable filter computation
type Pass struct {
	engine *Engine
	seq    uint64
	query  string

	// candidates are source-ordered positions to scan; nil means all
	candidates []int
	next       int

	prefix []int
	substr []int
	fuzzy  []fuzzyHit
}

type fuzzyHit struct {
	pos   int
	score int
}

// Query returns the normalized query
func (p *Pass) Query() string {
	return p.query
}

// Seq returns the pass sequence number
func (p *Pass) Seq() uint64 {
	return p.seq
}

// Done reports whether every candidate has been examined
func (p *Pass) Done() bool {
	return p.next >= p.total()
}

// Progress returns examined and total candidate counts
func (p *Pass) Progress() (done, total int) {
	return p.next, p.total()
}

func (p *Pass) total() int {
	if p.candidates != nil {
		return len(p.candidates)
	}
	return len(p.engine.labels)
}

func (p *Pass) position(i int) int {
	if p.candidates != nil {
		return p.candidates[i]
	}
	return i
}

// Step examines up to n more candidates and reports whether the pass is done.
// A superseded pass stops immediately.
func (p *Pass) Step(n int) bool {
	if n <= 0 {
		n = ChunkSize
	}
	if !p.engine.Current(p) {
		p.next = p.total()
		return true
	}
	end := p.next + n
	if end > p.total() {
		end = p.total()
	}
	if p.engine.mode == ModeFuzzy {
		p.stepFuzzy(p.next, end)
	} else {
		p.stepContains(p.next, end)
	}
	p.next = end
	return p.Done()
}

func (p *Pass) stepContains(from, to int) {
	for i := from; i < to; i++ {
		pos := p.position(i)
		text := p.engine.normalized(pos)
		switch {
		case strings.HasPrefix(text, p.query):
			p.prefix = append(p.prefix, pos)
		case strings.Contains(text, p.query):
			p.substr = append(p.substr, pos)
		}
	}
}

type chunkSource struct {
	pass     *Pass
	from, to int
}

func (s chunkSource) String(i int) string {
	return s.pass.engine.normalized(s.pass.position(s.from + i))
}

func (s chunkSource) Len() int {
	return s.to - s.from
}

func (p *Pass) stepFuzzy(from, to int) {
	for _, m := range fuzzy.FindFromNoSort(p.query, chunkSource{pass: p, from: from, to: to}) {
		p.fuzzy = append(p.fuzzy, fuzzyHit{pos: p.position(from + m.Index), score: m.Score})
	}
}

func (p *Pass) result() Result {
	res := Result{Query: p.query}
	if p.engine.mode == ModeFuzzy {
		matched := make([]int, len(p.fuzzy))
		for i, h := range p.fuzzy {
			matched[i] = h.pos
		}
		sort.SliceStable(p.fuzzy, func(i, j int) bool {
			return p.fuzzy[i].score > p.fuzzy[j].score
		})
		res.Indices = make([]int, len(p.fuzzy))
		for i, h := range p.fuzzy {
			res.Indices[i] = h.pos
		}
		res.matched = matched
		return res
	}

	res.Indices = make([]int, 0, len(p.prefix)+len(p.substr))
	res.Indices = append(res.Indices, p.prefix...)
	res.Indices = append(res.Indices, p.substr...)
	res.Prefix = len(p.prefix)
	res.matched = mergeSorted(p.prefix, p.substr)
	return res
}

func mergeSorted(a, b []int) []int {
	out := make([]int, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if a[i] < b[j] {
			out = append(out, a[i])
			i++
		} else {
			out = append(out, b[j])
			j++
		}
	}
	out = append(out, a[i:]...)
	return append(out, b[j:]...)
}
