// Package index maps option values to options for O(1) reverse lookup.
package index

import (
	"sync/atomic"

	"github.com/Dicklesworthstone/vselect/pkg/model"
)

// Index is an immutable value -> option lookup built from one option set.
// When values collide the last option wins.
type Index struct {
	options  model.Options
	position map[string]int
}

// Build creates an index over options. The slice is not copied; callers must
// treat it as read-only once indexed.
func Build(options model.Options) *Index {
	position := make(map[string]int, len(options))
	for i, opt := range options {
		position[opt.Value] = i
	}
	return &Index{options: options, position: position}
}

// Resolve returns the option bound to value
func (ix *Index) Resolve(value string) (model.Option, bool) {
	if ix == nil {
		return model.Option{}, false
	}
	i, ok := ix.position[value]
	if !ok {
		return model.Option{}, false
	}
	return ix.options[i], true
}

// Position returns the source position of value, or -1
func (ix *Index) Position(value string) int {
	if ix == nil {
		return -1
	}
	if i, ok := ix.position[value]; ok {
		return i
	}
	return -1
}

// Len is the number of distinct values
func (ix *Index) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.position)
}

// Options returns the indexed option set
func (ix *Index) Options() model.Options {
	if ix == nil {
		return nil
	}
	return ix.options
}

// Holder publishes a built Index atomically so readers never see a
// half-built map.
type Holder struct {
	current atomic.Pointer[Index]
}

// Replace builds a new index over options and swaps it in
func (h *Holder) Replace(options model.Options) *Index {
	ix := Build(options)
	h.current.Store(ix)
	return ix
}

// Load returns the current index; nil before the first Replace
func (h *Holder) Load() *Index {
	return h.current.Load()
}

// Ready reports whether options have been indexed at least once
func (h *Holder) Ready() bool {
	return h.current.Load() != nil
}

// Reset drops the current index
func (h *Holder) Reset() {
	h.current.Store(nil)
}

// Resolve looks value up in the current index
func (h *Holder) Resolve(value string) (model.Option, bool) {
	return h.Load().Resolve(value)
}
