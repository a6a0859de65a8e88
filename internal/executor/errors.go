package executor

import "errors"

var (
	// ErrSequence is returned when a stage is called out of order for the
	// current slot. It signals a programming error and is never retried.
	ErrSequence = errors.New("stage called out of sequence")
	// ErrDataNotReady is returned when external input is missing before a
	// host stage, or when Outputs is called with no completed slot.
	ErrDataNotReady = errors.New("data not ready")
	// ErrLogic is returned by run and output calls on an executor that is
	// not built, or that must be rebuilt after a failed stage.
	ErrLogic = errors.New("executor logic error")
)
