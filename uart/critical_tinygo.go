//go:build tinygo

package uart

import "runtime/interrupt"

// criticalSection masks interrupts so the ISR-driven pump never observes a
// half-updated index.
type criticalSection struct {
	state interrupt.State
}

func (c *criticalSection) enter() {
	c.state = interrupt.Disable()
}

func (c *criticalSection) exit() {
	interrupt.Restore(c.state)
}
