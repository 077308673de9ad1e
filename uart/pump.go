package uart

import (
	"context"
	"time"
)

// DefaultPumpIdle bounds how long the pump sleeps when it has no wake-up
// signal.
const DefaultPumpIdle = time.Millisecond

// Pump drives s the way a UART interrupt would on a microcontroller. It
// calls TransferToAndFromBuffer until a call makes no progress, then parks
// until wake fires or idle elapses. It returns when ctx is done.
func Pump(ctx context.Context, s *BufferedSerial, wake <-chan struct{}, idle time.Duration) error {
	if idle <= 0 {
		idle = DefaultPumpIdle
	}
	timer := time.NewTimer(idle)
	defer timer.Stop()

	for {
		for s.TransferToAndFromBuffer() {
			if ctx.Err() != nil {
				return ctx.Err()
			}
		}

		timer.Reset(idle)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-wake:
		case <-timer.C:
		}
	}
}
