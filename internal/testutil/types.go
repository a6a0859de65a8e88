package testutil

import "time"

// ExecutionRecord holds the start and end times for a single operator run.
type ExecutionRecord struct {
	Start time.Time
	End   time.Time
}
