//go:build !tinygo

package uart

import "sync"

// criticalSection serializes application-side access to the buffers.
// Hosted Go has no interrupts to mask; the pump stays lock free because the
// rings are single-producer/single-consumer per direction.
type criticalSection struct {
	mu sync.Mutex
}

func (c *criticalSection) enter() {
	c.mu.Lock()
}

func (c *criticalSection) exit() {
	c.mu.Unlock()
}
