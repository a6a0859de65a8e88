package buffer

import (
	"fmt"

	"github.com/born-ml/born/tensor"
	"github.com/specialistvlad/stagegrid/internal/tensorref"
)

// BornDevice maps a tensor reference device to the born device used to tag
// sample storage.
func BornDevice(d tensorref.Device) tensor.Device {
	if d == tensorref.Accelerator {
		return tensor.WebGPU
	}
	return tensor.CPU
}

// TensorList is a resizable batch of samples living on one device.
type TensorList struct {
	device  tensorref.Device
	samples []*tensor.RawTensor
}

// New creates an empty list tagged with device.
func New(device tensorref.Device) *TensorList {
	return &TensorList{device: device}
}

// Device returns the list's device tag.
func (l *TensorList) Device() tensorref.Device { return l.device }

// Len returns the batch size the list currently holds.
func (l *TensorList) Len() int { return len(l.samples) }

// Resize sets the batch size. Samples beyond n are released; new positions
// are empty until assigned.
func (l *TensorList) Resize(n int) {
	if n < 0 {
		n = 0
	}
	for i := n; i < len(l.samples); i++ {
		if l.samples[i] != nil {
			l.samples[i].Release()
			l.samples[i] = nil
		}
	}
	if n <= cap(l.samples) {
		l.samples = l.samples[:n]
		return
	}
	grown := make([]*tensor.RawTensor, n)
	copy(grown, l.samples)
	l.samples = grown
}

// Reset releases every sample but keeps the batch size.
func (l *TensorList) Reset() {
	for i, s := range l.samples {
		if s != nil {
			s.Release()
			l.samples[i] = nil
		}
	}
}

// Sample returns sample i, or nil when it has not been assigned.
func (l *TensorList) Sample(i int) *tensor.RawTensor {
	if i < 0 || i >= len(l.samples) {
		return nil
	}
	return l.samples[i]
}

// Ready reports whether every position holds a sample.
func (l *TensorList) Ready() bool {
	for _, s := range l.samples {
		if s == nil {
			return false
		}
	}
	return true
}

// SetSample stores raw at position i, taking ownership of the reference.
// The sample must live on the list's device.
func (l *TensorList) SetSample(i int, raw *tensor.RawTensor) error {
	if i < 0 || i >= len(l.samples) {
		return fmt.Errorf("sample index %d out of range [0, %d)", i, len(l.samples))
	}
	if raw == nil {
		return fmt.Errorf("sample %d is nil", i)
	}
	if want := BornDevice(l.device); raw.Device() != want {
		return fmt.Errorf("sample %d lives on %s, list expects %s", i, raw.Device(), want)
	}
	if prev := l.samples[i]; prev != nil && prev != raw {
		prev.Release()
	}
	l.samples[i] = raw
	return nil
}

// ShareFrom makes l reference the same sample storage as src. Both lists
// must be on the same device.
func (l *TensorList) ShareFrom(src *TensorList) error {
	if src.device != l.device {
		return fmt.Errorf("cannot share %s samples into a %s list", src.device, l.device)
	}
	l.Resize(src.Len())
	for i, s := range src.samples {
		if s == nil {
			return fmt.Errorf("source sample %d is empty", i)
		}
		if err := l.SetSample(i, s.Clone()); err != nil {
			return err
		}
	}
	return nil
}

// CopyFrom replaces l's contents with private copies of src's samples,
// re-tagged for l's device.
func (l *TensorList) CopyFrom(src *TensorList) error {
	l.Resize(src.Len())
	for i, s := range src.samples {
		if s == nil {
			return fmt.Errorf("source sample %d is empty", i)
		}
		cp, err := CopySample(s, l.device)
		if err != nil {
			return fmt.Errorf("copying sample %d: %w", i, err)
		}
		if err := l.SetSample(i, cp); err != nil {
			return err
		}
	}
	return nil
}

// TotalBytes returns the sum of the sample byte sizes.
func (l *TensorList) TotalBytes() int {
	total := 0
	for _, s := range l.samples {
		if s != nil {
			total += s.ByteSize()
		}
	}
	return total
}

// CopySample returns a private copy of s allocated on device.
func CopySample(s *tensor.RawTensor, device tensorref.Device) (*tensor.RawTensor, error) {
	cp, err := tensor.NewRaw(s.Shape().Clone(), s.DType(), BornDevice(device))
	if err != nil {
		return nil, err
	}
	copy(cp.Data(), s.Data()[:s.ByteSize()])
	return cp, nil
}

// NewBytesSample allocates a one-dimensional uint8 sample holding data.
func NewBytesSample(data []byte, device tensorref.Device) (*tensor.RawTensor, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("sample data cannot be empty")
	}
	raw, err := tensor.NewRaw(tensor.Shape{len(data)}, tensor.Uint8, BornDevice(device))
	if err != nil {
		return nil, err
	}
	copy(raw.Data(), data)
	return raw, nil
}

// NewFilledSample allocates a uint8 sample of the given shape with every
// element set to fill.
func NewFilledSample(shape []int, fill uint8, device tensorref.Device) (*tensor.RawTensor, error) {
	raw, err := tensor.NewRaw(tensor.Shape(shape), tensor.Uint8, BornDevice(device))
	if err != nil {
		return nil, err
	}
	if fill != 0 {
		data := raw.AsUint8()
		for i := range data {
			data[i] = fill
		}
	}
	return raw, nil
}

// FromBytes builds a host or accelerator list with one uint8 sample per
// entry of batch.
func FromBytes(device tensorref.Device, batch ...[]byte) (*TensorList, error) {
	l := New(device)
	l.Resize(len(batch))
	for i, data := range batch {
		raw, err := NewBytesSample(data, device)
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}
		if err := l.SetSample(i, raw); err != nil {
			return nil, err
		}
	}
	return l, nil
}
