package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/specialistvlad/stagegrid/internal/operator"
	"github.com/specialistvlad/stagegrid/internal/opspec"
)

// Module is the interface that all operator modules implement to be registered.
type Module interface {
	Register(r *Registry)
}

// Factory creates an operator instance for one graph node.
type Factory func(spec *opspec.Spec) (operator.Operator, error)

// RegisteredOperator describes one operator type.
type RegisteredOperator struct {
	// Stages lists the stages the operator may run in. Empty means any.
	Stages      []opspec.Stage
	Description string
	New         Factory
}

// Supports reports whether the operator may run in stage.
func (ro *RegisteredOperator) Supports(stage opspec.Stage) bool {
	if len(ro.Stages) == 0 {
		return true
	}
	for _, s := range ro.Stages {
		if s == stage {
			return true
		}
	}
	return false
}

// Registry holds all registered operator types for a single application instance.
type Registry struct {
	mu        sync.RWMutex
	operators map[string]*RegisteredOperator
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{operators: make(map[string]*RegisteredOperator)}
}

// NewWithModules creates a Registry and registers every module into it.
func NewWithModules(modules ...Module) *Registry {
	r := New()
	for _, m := range modules {
		m.Register(r)
	}
	return r
}

// RegisterOperator registers a factory for opType. Registering the same
// type twice is a programming error and panics.
func (r *Registry) RegisterOperator(opType string, ro *RegisteredOperator) {
	if ro == nil || ro.New == nil {
		panic(fmt.Sprintf("operator '%s' registered without a factory", opType))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.operators[opType]; exists {
		panic(fmt.Sprintf("operator with type '%s' already registered", opType))
	}
	slog.Debug("Registering operator.", "type", opType)
	r.operators[opType] = ro
}

// Lookup returns the registration for opType.
func (r *Registry) Lookup(opType string) (*RegisteredOperator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ro, ok := r.operators[opType]
	return ro, ok
}

// Types returns the registered operator types in sorted order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.operators))
	for t := range r.operators {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// ErrUnknownType is wrapped by Instantiate and Check when no factory exists.
var ErrUnknownType = errors.New("unknown operator type")

// ErrUnsupportedStage is wrapped when an operator is placed in a stage it
// does not support.
var ErrUnsupportedStage = errors.New("unsupported stage")

// Check verifies that spec names a registered type placed in a supported stage.
func (r *Registry) Check(spec *opspec.Spec) (*RegisteredOperator, error) {
	ro, ok := r.Lookup(spec.Type)
	if !ok {
		return nil, fmt.Errorf("%w '%s'", ErrUnknownType, spec.Type)
	}
	if !ro.Supports(spec.Stage) {
		return nil, fmt.Errorf("%w: operator '%s' cannot run in the %s stage", ErrUnsupportedStage, spec.Type, spec.Stage)
	}
	return ro, nil
}

// Instantiate creates a new operator for spec.
func (r *Registry) Instantiate(spec *opspec.Spec) (operator.Operator, error) {
	ro, err := r.Check(spec)
	if err != nil {
		return nil, err
	}
	op, err := ro.New(spec)
	if err != nil {
		return nil, fmt.Errorf("creating operator '%s': %w", spec.Type, err)
	}
	return op, nil
}
