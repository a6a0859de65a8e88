package scheduler

import "sync/atomic"

// Tracker counts outstanding dependencies for one run of a Plan.
type Tracker struct {
	plan      *Plan
	pending   map[int]*atomic.Int32
	remaining atomic.Int32
}

// Tracker returns a fresh dependency tracker for a single stage run.
func (p *Plan) Tracker() *Tracker {
	t := &Tracker{
		plan:    p,
		pending: make(map[int]*atomic.Int32, len(p.Order)),
	}
	for _, id := range p.Order {
		c := new(atomic.Int32)
		c.Store(int32(p.deps[id]))
		t.pending[id] = c
	}
	t.remaining.Store(int32(len(p.Order)))
	return t
}

// Complete marks id as finished. It returns the dependents whose last
// outstanding dependency was id, and whether every node of the stage has
// now completed.
func (t *Tracker) Complete(id int) (ready []int, done bool) {
	for _, child := range t.plan.dependents[id] {
		if t.pending[child].Add(-1) == 0 {
			ready = append(ready, child)
		}
	}
	return ready, t.remaining.Add(-1) == 0
}

// Remaining returns the number of nodes not yet completed.
func (t *Tracker) Remaining() int {
	return int(t.remaining.Load())
}
