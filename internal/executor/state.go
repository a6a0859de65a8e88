package executor

import "fmt"

// SlotState is the progress of one buffer slot through a stage cycle.
type SlotState int

const (
	// SlotEmpty: free for the next host stage.
	SlotEmpty SlotState = iota
	// SlotHostDone: host stage finished, staging may run.
	SlotHostDone
	// SlotStagingDone: staging finished, accelerator may run.
	SlotStagingDone
	// SlotAcceleratorDone: results are complete and waiting for Outputs.
	SlotAcceleratorDone
)

func (s SlotState) String() string {
	switch s {
	case SlotEmpty:
		return "Empty"
	case SlotHostDone:
		return "HostDone"
	case SlotStagingDone:
		return "StagingDone"
	case SlotAcceleratorDone:
		return "AcceleratorDone"
	default:
		return fmt.Sprintf("SlotState(%d)", int(s))
	}
}
