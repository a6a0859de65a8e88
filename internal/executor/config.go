package executor

import "fmt"

// DefaultPrefetchDepth is the number of buffer slots used when none is set.
const DefaultPrefetchDepth = 2

// Config holds the executor's static parameters.
type Config struct {
	// BatchSize is the number of samples every output buffer is sized to.
	BatchSize int
	// Workers is the size of the host-stage worker pool.
	Workers int
	// PrefetchDepth is the number of buffer slots. Zero means DefaultPrefetchDepth.
	PrefetchDepth int
}

func (c Config) withDefaults() Config {
	if c.PrefetchDepth == 0 {
		c.PrefetchDepth = DefaultPrefetchDepth
	}
	return c
}

func (c Config) validate() error {
	if c.BatchSize < 1 {
		return fmt.Errorf("batch size must be at least 1, got %d", c.BatchSize)
	}
	if c.Workers < 1 {
		return fmt.Errorf("worker count must be at least 1, got %d", c.Workers)
	}
	if c.PrefetchDepth < 1 {
		return fmt.Errorf("prefetch depth must be at least 1, got %d", c.PrefetchDepth)
	}
	return nil
}
