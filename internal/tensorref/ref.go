// internal/tensorref/ref.go
package tensorref

import "fmt"

// Device tags where a tensor's data lives.
type Device int

const (
	// Host is CPU-visible memory.
	Host Device = iota
	// Accelerator is accelerator-visible memory.
	Accelerator
)

// String returns the canonical device suffix.
func (d Device) String() string {
	switch d {
	case Host:
		return "host"
	case Accelerator:
		return "accelerator"
	default:
		return fmt.Sprintf("device(%d)", int(d))
	}
}

// Valid reports whether d is a known device.
func (d Device) Valid() bool {
	return d == Host || d == Accelerator
}

// Ref is a symbolic tensor reference: a name plus a device tag. Two refs with
// the same name on different devices are different tensors.
type Ref struct {
	Name   string
	Device Device
}

// New is a convenience constructor.
func New(name string, device Device) Ref {
	return Ref{Name: name, Device: device}
}

// String serializes the Ref into its canonical `<name>_<device>` form.
func (r Ref) String() string {
	return r.Name + "_" + r.Device.String()
}
