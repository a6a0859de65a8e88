package graph

import (
	"errors"
	"fmt"
)

// ErrGraph matches every *GraphError via errors.Is.
var ErrGraph = errors.New("graph error")

// ErrorKind classifies a GraphError.
type ErrorKind int

const (
	// UnresolvedInput: an input names a tensor no earlier node produces.
	UnresolvedInput ErrorKind = iota + 1
	// UnknownTensor: TensorSource was asked about a tensor nobody produces.
	UnknownTensor
	// UnknownOutput: a requested output does not resolve.
	UnknownOutput
	// InvalidStageOrder: data flows from a later stage to an earlier one.
	InvalidStageOrder
	// InvalidDevice: a tensor's device is illegal for the operator's stage.
	InvalidDevice
	// DuplicateTensor: a (name, device) pair is produced twice.
	DuplicateTensor
	// DuplicateName: an explicit node name is reused.
	DuplicateName
	// UnknownOperator: no factory is registered for an operator type.
	UnknownOperator
	// InvalidSpec: the operator spec is malformed.
	InvalidSpec
)

func (k ErrorKind) String() string {
	switch k {
	case UnresolvedInput:
		return "UnresolvedInput"
	case UnknownTensor:
		return "UnknownTensor"
	case UnknownOutput:
		return "UnknownOutput"
	case InvalidStageOrder:
		return "InvalidStageOrder"
	case InvalidDevice:
		return "InvalidDevice"
	case DuplicateTensor:
		return "DuplicateTensor"
	case DuplicateName:
		return "DuplicateName"
	case UnknownOperator:
		return "UnknownOperator"
	case InvalidSpec:
		return "InvalidSpec"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Kind sentinels for errors.Is.
var (
	ErrUnresolvedInput   = &GraphError{Kind: UnresolvedInput}
	ErrUnknownTensor     = &GraphError{Kind: UnknownTensor}
	ErrUnknownOutput     = &GraphError{Kind: UnknownOutput}
	ErrInvalidStageOrder = &GraphError{Kind: InvalidStageOrder}
	ErrInvalidDevice     = &GraphError{Kind: InvalidDevice}
	ErrDuplicateTensor   = &GraphError{Kind: DuplicateTensor}
	ErrDuplicateName     = &GraphError{Kind: DuplicateName}
	ErrUnknownOperator   = &GraphError{Kind: UnknownOperator}
	ErrInvalidSpec       = &GraphError{Kind: InvalidSpec}
)

// GraphError is raised at build, prune and allocation time, never mid-run.
type GraphError struct {
	Kind   ErrorKind
	Detail string
}

// Errorf builds a GraphError of the given kind.
func Errorf(kind ErrorKind, format string, args ...any) *GraphError {
	return &GraphError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

func (e *GraphError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("graph error: %s", e.Kind)
	}
	return fmt.Sprintf("graph error: %s: %s", e.Kind, e.Detail)
}

// Unwrap exposes ErrGraph so callers can match the whole class.
func (e *GraphError) Unwrap() error {
	return ErrGraph
}

// Is matches another *GraphError of the same kind.
func (e *GraphError) Is(target error) bool {
	t, ok := target.(*GraphError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of the first GraphError in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var ge *GraphError
	if errors.As(err, &ge) {
		return ge.Kind, true
	}
	return 0, false
}
