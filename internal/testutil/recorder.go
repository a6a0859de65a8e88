package testutil

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/specialistvlad/stagegrid/internal/buffer"
	"github.com/specialistvlad/stagegrid/internal/operator"
	"github.com/specialistvlad/stagegrid/internal/opspec"
	"github.com/specialistvlad/stagegrid/internal/registry"
	"github.com/specialistvlad/stagegrid/internal/workspace"
)

// RecorderType is the operator type registered by Recorder.
const RecorderType = "Record"

// Recorder is a test module whose operator records when each node ran,
// optionally sleeps and optionally fails. Outputs copy input 0 when the node
// has inputs; otherwise they are filled with the node id.
type Recorder struct {
	Sleep  time.Duration
	FailOn map[string]bool

	mu      sync.Mutex
	records map[string]*ExecutionRecord
	order   []string

	active    atomic.Int32
	maxActive atomic.Int32
}

// NewRecorder creates a Recorder that sleeps for sleep in every run.
func NewRecorder(sleep time.Duration) *Recorder {
	return &Recorder{
		Sleep:   sleep,
		FailOn:  make(map[string]bool),
		records: make(map[string]*ExecutionRecord),
	}
}

// Register implements the registry.Module interface.
func (r *Recorder) Register(reg *registry.Registry) {
	reg.RegisterOperator(RecorderType, &registry.RegisteredOperator{
		Description: "Test operator recording execution times.",
		New: func(*opspec.Spec) (operator.Operator, error) {
			return operator.Func(r.run), nil
		},
	})
}

func (r *Recorder) run(ctx context.Context, ws *workspace.Workspace) error {
	cur := r.active.Add(1)
	defer r.active.Add(-1)
	for {
		prev := r.maxActive.Load()
		if cur <= prev || r.maxActive.CompareAndSwap(prev, cur) {
			break
		}
	}

	start := time.Now()
	if r.Sleep > 0 {
		select {
		case <-time.After(r.Sleep):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if r.FailOn[ws.NodeName] {
		return fmt.Errorf("recorder: forced failure in %s", ws.NodeName)
	}

	for o := 0; o < ws.NumOutput(); o++ {
		out := ws.Output(o)
		if ws.NumInput() > 0 {
			if err := out.CopyFrom(ws.Input(0)); err != nil {
				return err
			}
			continue
		}
		for i := 0; i < out.Len(); i++ {
			raw, err := buffer.NewFilledSample([]int{1}, uint8(ws.NodeID), out.Device())
			if err != nil {
				return err
			}
			if err := out.SetSample(i, raw); err != nil {
				return err
			}
		}
	}

	r.mu.Lock()
	r.records[ws.NodeName] = &ExecutionRecord{Start: start, End: time.Now()}
	r.order = append(r.order, ws.NodeName)
	r.mu.Unlock()
	return nil
}

// Record returns the last execution record of the named node.
func (r *Recorder) Record(name string) (*ExecutionRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[name]
	return rec, ok
}

// Order returns node names in completion order.
func (r *Recorder) Order() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.order...)
}

// MaxConcurrency returns the highest number of simultaneously running nodes.
func (r *Recorder) MaxConcurrency() int {
	return int(r.maxActive.Load())
}
