package opspec

import (
	"fmt"
	"strings"
)

// Stage is the execution tier an operator runs in. Stages are ordered:
// data may only flow from a lower stage to the same or a higher one.
type Stage int

const (
	// Host operators run on the CPU worker pool.
	Host Stage = iota
	// Staging operators move or materialize host data for the accelerator.
	Staging
	// Accelerator operators run on the accelerator queue.
	Accelerator
)

// NumStages is the number of execution stages.
const NumStages = 3

// Stages returns all stages in execution order.
func Stages() []Stage {
	return []Stage{Host, Staging, Accelerator}
}

func (s Stage) String() string {
	switch s {
	case Host:
		return "host"
	case Staging:
		return "staging"
	case Accelerator:
		return "accelerator"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// Valid reports whether s is one of the known stages.
func (s Stage) Valid() bool {
	return s >= Host && s <= Accelerator
}

// ParseStage converts a stage name into a Stage. The aliases `cpu`, `mixed`
// and `gpu` are accepted.
func ParseStage(s string) (Stage, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "host", "cpu":
		return Host, nil
	case "staging", "mixed":
		return Staging, nil
	case "accelerator", "gpu":
		return Accelerator, nil
	default:
		return 0, fmt.Errorf("unknown stage %q", s)
	}
}
