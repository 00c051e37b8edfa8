// Package selection tracks the chosen value(s) of a select and resolves the
// text shown in its closed input.
package selection

import (
	"fmt"

	"github.com/Dicklesworthstone/vselect/pkg/model"
)

// Resolver maps a value to its option
type Resolver interface {
	Resolve(value string) (model.Option, bool)
}

// Display configures DisplayText fallbacks
type Display struct {
	Placeholder string
	// Default is shown when nothing is selected in single mode
	Default *model.Option
}

// State is either a single optional value or a set of values
type State struct {
	multi bool

	single    string
	hasSingle bool

	// order keeps multi values in selection order for stable output
	order []string
	set   map[string]struct{}
}

// NewSingle creates single-select state
func NewSingle() *State {
	return &State{}
}

// NewMulti creates multi-select state
func NewMulti() *State {
	return &State{multi: true, set: make(map[string]struct{})}
}

// Multi reports whether this is multi-select state
func (s *State) Multi() bool {
	return s.multi
}

// Select replaces the value (single) or toggles its membership (multi).
// It reports whether the state changed.
func (s *State) Select(value string) bool {
	if !s.multi {
		if s.hasSingle && s.single == value {
			return false
		}
		s.single = value
		s.hasSingle = true
		return true
	}
	if _, ok := s.set[value]; ok {
		s.remove(value)
		return true
	}
	s.set[value] = struct{}{}
	s.order = append(s.order, value)
	return true
}

func (s *State) remove(value string) {
	delete(s.set, value)
	for i, v := range s.order {
		if v == value {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}

// Clear resets to no selection and reports whether anything was selected
func (s *State) Clear() bool {
	if s.Len() == 0 {
		return false
	}
	s.single = ""
	s.hasSingle = false
	s.order = nil
	s.set = make(map[string]struct{})
	return true
}

// Set replaces the state with values, as when a host form writes a value in.
// Single state keeps only the first value; empty clears.
func (s *State) Set(values ...string) {
	s.Clear()
	if !s.multi {
		if len(values) > 0 && values[0] != "" {
			s.single = values[0]
			s.hasSingle = true
		}
		return
	}
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, dup := s.set[v]; dup {
			continue
		}
		s.set[v] = struct{}{}
		s.order = append(s.order, v)
	}
}

// Value returns the single value
func (s *State) Value() (string, bool) {
	if s.multi {
		if len(s.order) == 1 {
			return s.order[0], true
		}
		return "", false
	}
	return s.single, s.hasSingle
}

// Values returns every selected value in selection order
func (s *State) Values() []string {
	if !s.multi {
		if s.hasSingle {
			return []string{s.single}
		}
		return []string{}
	}
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Has reports whether value is selected
func (s *State) Has(value string) bool {
	if !s.multi {
		return s.hasSingle && s.single == value
	}
	_, ok := s.set[value]
	return ok
}

// Len is the number of selected values
func (s *State) Len() int {
	if !s.multi {
		if s.hasSingle {
			return 1
		}
		return 0
	}
	return len(s.order)
}

// Emitted is the value carried by a change event: a string or nil for
// single state, a []string for multi state.
func (s *State) Emitted() any {
	if s.multi {
		return s.Values()
	}
	if s.hasSingle {
		return s.single
	}
	return nil
}

// Pending lists selected values the resolver cannot find yet
func (s *State) Pending(r Resolver) []string {
	var pending []string
	for _, v := range s.Values() {
		if r == nil {
			pending = append(pending, v)
			continue
		}
		if _, ok := r.Resolve(v); !ok {
			pending = append(pending, v)
		}
	}
	return pending
}

// DisplayText returns the text for the closed input and whether it came from
// a resolved selection.
func (s *State) DisplayText(r Resolver, d Display) (string, bool) {
	if s.multi {
		switch len(s.order) {
		case 0:
			return d.Placeholder, false
		case 1:
			if opt, ok := resolve(r, s.order[0]); ok {
				return opt.DisplayLabel(), true
			}
			return d.Placeholder, false
		default:
			return fmt.Sprintf("%d selected", len(s.order)), true
		}
	}

	if !s.hasSingle {
		if d.Default != nil && d.Placeholder == "" {
			return d.Default.DisplayLabel(), false
		}
		return d.Placeholder, false
	}
	if opt, ok := resolve(r, s.single); ok {
		return opt.DisplayLabel(), true
	}
	return d.Placeholder, false
}

func resolve(r Resolver, value string) (model.Option, bool) {
	if r == nil {
		return model.Option{}, false
	}
	return r.Resolve(value)
}
