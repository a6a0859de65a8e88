package executor

import (
	"fmt"

	"github.com/specialistvlad/stagegrid/internal/buffer"
	"github.com/specialistvlad/stagegrid/internal/tensorref"
)

// View is a read-only window on the requested outputs of one completed
// slot. Its buffers stay valid until that slot's next host stage.
type View struct {
	slot  int
	names []string
	refs  []tensorref.Ref
	lists []*buffer.TensorList
}

// Slot returns the slot the view reads from.
func (v *View) Slot() int { return v.slot }

// Len returns the number of outputs.
func (v *View) Len() int { return len(v.lists) }

// Names returns a copy of the canonical output names in request order.
func (v *View) Names() []string { return append([]string(nil), v.names...) }

// Ref returns the tensor reference of output i.
func (v *View) Ref(i int) tensorref.Ref { return v.refs[i] }

// Tensor returns output i. Callers must not modify it.
func (v *View) Tensor(i int) *buffer.TensorList { return v.lists[i] }

// ByName returns the output with the given name. Device aliases are
// accepted.
func (v *View) ByName(name string) (*buffer.TensorList, bool) {
	ref, err := tensorref.Parse(name)
	if err != nil {
		return nil, false
	}
	for i, r := range v.refs {
		if r == ref {
			return v.lists[i], true
		}
	}
	return nil, false
}

// Outputs hands the oldest completed slot to the caller and marks the slot
// free for reuse.
func (e *Executor) Outputs() (*View, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.usable(); err != nil {
		return nil, err
	}
	if len(e.completed) == 0 {
		return nil, fmt.Errorf("%w: no stage cycle has completed since the last read", ErrDataNotReady)
	}

	slot := e.completed[0]
	e.completed = e.completed[1:]
	e.states[slot] = SlotEmpty

	v := &View{
		slot:  slot,
		names: append([]string(nil), e.outputNames...),
		refs:  append([]tensorref.Ref(nil), e.outputRefs...),
		lists: make([]*buffer.TensorList, len(e.outputSources)),
	}
	for i, src := range e.outputSources {
		v.lists[i] = e.sets.Output(slot, src)
	}
	return v, nil
}

// Ready returns the number of completed slots waiting for Outputs.
func (e *Executor) Ready() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.completed)
}
