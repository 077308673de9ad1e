package uart

//go:generate go tool mockgen -source=raw.go -destination=mock_raw_test.go -package=uart

// RawPort is the hardware side of a serial port. Implementations are
// called from the pump context and must never block.
type RawPort interface {
	// RawRead returns the next received byte, or false if the hardware
	// has nothing pending.
	RawRead() (byte, bool)

	// RawWrite hands one byte to the hardware. It returns false, without
	// consuming the byte, when the hardware transmit FIFO is full.
	RawWrite(b byte) bool

	// StartTransmit kicks the hardware to begin or continue transmitting.
	// It is idempotent.
	StartTransmit()
}
