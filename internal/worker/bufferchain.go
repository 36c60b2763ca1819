package worker

import (
	"log/slog"
	"sync"
)

// BufferChain serializes buffer-store writes so that write N+1 starts
// only after write N settles, guaranteeing observed write order equals
// observed Work call order regardless of scheduling. There is no direct
// teacher equivalent for this primitive; it is grounded on spec.md §4.5's
// description of the guarantee it must provide.
type BufferChain struct {
	jobs   chan func() error
	logger *slog.Logger

	mu      sync.Mutex
	lastErr error
}

// NewBufferChain starts the chain's single background worker.
func NewBufferChain(logger *slog.Logger) *BufferChain {
	if logger == nil {
		logger = slog.Default()
	}
	c := &BufferChain{jobs: make(chan func() error, 256), logger: logger}
	go c.run()
	return c
}

func (c *BufferChain) run() {
	for job := range c.jobs {
		if err := job(); err != nil {
			c.logger.Error("buffer write failed", "error", err)
			c.mu.Lock()
			c.lastErr = err
			c.mu.Unlock()
		}
	}
}

// Enqueue appends a write to the chain. Safe to call concurrently; jobs
// still execute one at a time, in enqueue order.
func (c *BufferChain) Enqueue(job func() error) {
	c.jobs <- job
}

// LastErr returns and clears the most recent write failure, letting a
// caller surface it without blocking the chain on delivery.
func (c *BufferChain) LastErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	err := c.lastErr
	c.lastErr = nil
	return err
}
