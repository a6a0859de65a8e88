// Package opspec describes a single operator instance before it is added to
// a graph: its type, stage, tensor wiring and typed arguments.
package opspec

import (
	"errors"
	"fmt"
	"sort"

	"github.com/specialistvlad/stagegrid/internal/tensorref"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Spec is the configuration of one operator instance. The graph only reads
// Stage, Inputs and Outputs; Type and Args are interpreted by the operator
// factory.
type Spec struct {
	Type    string
	Stage   Stage
	Inputs  []tensorref.Ref
	Outputs []tensorref.Ref
	Args    map[string]cty.Value
}

// New creates an empty Spec for the given operator type and stage.
func New(opType string, stage Stage) *Spec {
	return &Spec{
		Type:  opType,
		Stage: stage,
		Args:  make(map[string]cty.Value),
	}
}

// AddInput appends an input reference.
func (s *Spec) AddInput(name string, device tensorref.Device) *Spec {
	s.Inputs = append(s.Inputs, tensorref.New(name, device))
	return s
}

// AddOutput appends an output declaration.
func (s *Spec) AddOutput(name string, device tensorref.Device) *Spec {
	s.Outputs = append(s.Outputs, tensorref.New(name, device))
	return s
}

// AddArg sets an argument. Native Go values are converted with gocty; a
// value that has no cty equivalent is a programming error and panics.
func (s *Spec) AddArg(name string, v any) *Spec {
	if s.Args == nil {
		s.Args = make(map[string]cty.Value)
	}
	if cv, ok := v.(cty.Value); ok {
		s.Args[name] = cv
		return s
	}
	ty, err := gocty.ImpliedType(v)
	if err != nil {
		panic(fmt.Sprintf("opspec: argument %q: %v", name, err))
	}
	cv, err := gocty.ToCtyValue(v, ty)
	if err != nil {
		panic(fmt.Sprintf("opspec: argument %q: %v", name, err))
	}
	s.Args[name] = cv
	return s
}

// Arg returns the raw argument value.
func (s *Spec) Arg(name string) (cty.Value, bool) {
	v, ok := s.Args[name]
	if !ok || v.IsNull() {
		return cty.NilVal, false
	}
	return v, true
}

// ArgNames returns the argument names in sorted order.
func (s *Spec) ArgNames() []string {
	names := make([]string, 0, len(s.Args))
	for k := range s.Args {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// IntArg returns an integer argument, or def when it is not set.
func (s *Spec) IntArg(name string, def int) (int, error) {
	v, ok := s.Arg(name)
	if !ok {
		return def, nil
	}
	var out int
	if err := gocty.FromCtyValue(v, &out); err != nil {
		return 0, fmt.Errorf("argument %q: %w", name, err)
	}
	return out, nil
}

// IntListArg returns a list of integers, or def when it is not set. Both
// lists and tuples are accepted, since HCL literals evaluate to tuples.
func (s *Spec) IntListArg(name string, def []int) ([]int, error) {
	v, ok := s.Arg(name)
	if !ok {
		return def, nil
	}
	ty := v.Type()
	if !ty.IsListType() && !ty.IsTupleType() && !ty.IsSetType() {
		return nil, fmt.Errorf("argument %q: expected a list of numbers, got %s", name, ty.FriendlyName())
	}
	out := make([]int, 0, v.LengthInt())
	for it := v.ElementIterator(); it.Next(); {
		_, ev := it.Element()
		var n int
		if err := gocty.FromCtyValue(ev, &n); err != nil {
			return nil, fmt.Errorf("argument %q: %w", name, err)
		}
		out = append(out, n)
	}
	return out, nil
}

// StringArg returns a string argument, or def when it is not set.
func (s *Spec) StringArg(name string, def string) (string, error) {
	v, ok := s.Arg(name)
	if !ok {
		return def, nil
	}
	var out string
	if err := gocty.FromCtyValue(v, &out); err != nil {
		return "", fmt.Errorf("argument %q: %w", name, err)
	}
	return out, nil
}

// Validate checks that the spec is well formed on its own, without regard
// to any graph.
func (s *Spec) Validate() error {
	if s == nil {
		return errors.New("operator spec is nil")
	}
	if s.Type == "" {
		return errors.New("operator type cannot be empty")
	}
	if !s.Stage.Valid() {
		return fmt.Errorf("operator %q: invalid stage %s", s.Type, s.Stage)
	}
	for _, ref := range append(append([]tensorref.Ref{}, s.Inputs...), s.Outputs...) {
		if err := tensorref.ValidateName(ref.Name); err != nil {
			return fmt.Errorf("operator %q: %w", s.Type, err)
		}
		if !ref.Device.Valid() {
			return fmt.Errorf("operator %q: tensor %q has invalid device", s.Type, ref.Name)
		}
	}
	return nil
}

// Clone returns a deep copy of the spec. cty values are immutable and are
// shared.
func (s *Spec) Clone() *Spec {
	c := &Spec{
		Type:    s.Type,
		Stage:   s.Stage,
		Inputs:  append([]tensorref.Ref(nil), s.Inputs...),
		Outputs: append([]tensorref.Ref(nil), s.Outputs...),
		Args:    make(map[string]cty.Value, len(s.Args)),
	}
	for k, v := range s.Args {
		c.Args[k] = v
	}
	return c
}
