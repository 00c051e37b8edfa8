package model

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Default field names used when a FieldSelector leaves them empty
const (
	DefaultLabelField = "name"
	DefaultValueField = "id"
)

// Record is a raw option row as it came from a source (JSONL line, YAML entry, DB row)
type Record map[string]any

// Option is a single selectable entry
type Option struct {
	Label  string `json:"label" yaml:"label"`
	Value  string `json:"value" yaml:"value"`
	Record Record `json:"record,omitempty" yaml:"record,omitempty"`
}

// DisplayLabel returns the label, falling back to the value when the label is blank
func (o Option) DisplayLabel() string {
	if strings.TrimSpace(o.Label) == "" {
		return o.Value
	}
	return o.Label
}

// Validate checks if the option can take part in selection
func (o *Option) Validate() error {
	if o.Value == "" {
		return fmt.Errorf("option value cannot be empty (label %q)", o.Label)
	}
	return nil
}

// Clone creates a deep copy of the option
func (o Option) Clone() Option {
	clone := o
	if o.Record != nil {
		clone.Record = make(Record, len(o.Record))
		for k, v := range o.Record {
			clone.Record[k] = v
		}
	}
	return clone
}

// Options is an ordered option list
type Options []Option

// Clone deep-copies the list
func (opts Options) Clone() Options {
	if opts == nil {
		return nil
	}
	out := make(Options, len(opts))
	for i, o := range opts {
		out[i] = o.Clone()
	}
	return out
}

// Labels returns the raw labels in source order
func (opts Options) Labels() []string {
	labels := make([]string, len(opts))
	for i, o := range opts {
		labels[i] = o.DisplayLabel()
	}
	return labels
}

// FieldSelector picks the label and value out of a Record
type FieldSelector struct {
	LabelField string `yaml:"label_field"`
	ValueField string `yaml:"value_field"`
}

func (f FieldSelector) labelField() string {
	if f.LabelField == "" {
		return DefaultLabelField
	}
	return f.LabelField
}

func (f FieldSelector) valueField() string {
	if f.ValueField == "" {
		return DefaultValueField
	}
	return f.ValueField
}

// Option converts a record into an Option.
// Field names may be dotted paths into nested maps ("customer.name").
func (f FieldSelector) Option(r Record) (Option, error) {
	rawValue, ok := lookup(r, f.valueField())
	if !ok || rawValue == nil {
		return Option{}, fmt.Errorf("record has no %q field", f.valueField())
	}
	opt := Option{
		Value:  ValueKey(rawValue),
		Record: r,
	}
	if rawLabel, ok := lookup(r, f.labelField()); ok && rawLabel != nil {
		opt.Label = fmt.Sprint(rawLabel)
	}
	if err := opt.Validate(); err != nil {
		return Option{}, err
	}
	return opt, nil
}

func lookup(r Record, path string) (any, bool) {
	var cur any = map[string]any(r)
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// ValueKey normalizes a bound value to the string identity used by the index.
// Integral floats print without a fraction so JSON numbers match typed ints.
func ValueKey(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case Option:
		return x.Value
	case *Option:
		if x == nil {
			return ""
		}
		return x.Value
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case uint:
		return strconv.FormatUint(uint64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float32:
		return formatFloat(float64(x))
	case float64:
		return formatFloat(x)
	case bool:
		return strconv.FormatBool(x)
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(v)
}

func formatFloat(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
