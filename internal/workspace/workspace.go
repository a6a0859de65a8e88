// Package workspace binds operator inputs and outputs to concrete buffers,
// once per (stage, slot, node).
package workspace

import (
	"github.com/specialistvlad/stagegrid/internal/buffer"
	"github.com/specialistvlad/stagegrid/internal/opspec"
	"github.com/specialistvlad/stagegrid/internal/tensorref"
)

// Workspace is the set of buffers one operator invocation uses in one slot.
// Inputs are the producers' output lists of the same slot, never copies.
type Workspace struct {
	NodeID    int
	NodeName  string
	Stage     opspec.Stage
	Slot      int
	BatchSize int

	inputs     []*buffer.TensorList
	outputs    []*buffer.TensorList
	inputRefs  []tensorref.Ref
	outputRefs []tensorref.Ref
}

// NumInput returns the number of bound inputs.
func (w *Workspace) NumInput() int { return len(w.inputs) }

// NumOutput returns the number of owned outputs.
func (w *Workspace) NumOutput() int { return len(w.outputs) }

// Input returns input i. Operators must not modify it.
func (w *Workspace) Input(i int) *buffer.TensorList { return w.inputs[i] }

// Output returns output i.
func (w *Workspace) Output(i int) *buffer.TensorList { return w.outputs[i] }

// InputRef returns the tensor reference bound to input i.
func (w *Workspace) InputRef(i int) tensorref.Ref { return w.inputRefs[i] }

// OutputRef returns the tensor reference of output i.
func (w *Workspace) OutputRef(i int) tensorref.Ref { return w.outputRefs[i] }

// InputDevice returns the device of input i.
func (w *Workspace) InputDevice(i int) tensorref.Device { return w.inputs[i].Device() }

// OutputDevice returns the device of output i.
func (w *Workspace) OutputDevice(i int) tensorref.Device { return w.outputs[i].Device() }

// PrepareOutputs sizes every output to the batch size before the operator
// runs. Previous samples are kept so producers may overwrite in place.
func (w *Workspace) PrepareOutputs() {
	for _, out := range w.outputs {
		out.Resize(w.BatchSize)
	}
}
