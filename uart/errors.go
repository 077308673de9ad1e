package uart

import "errors"

var (
	// ErrBufferEmpty is returned by ReadByte when nothing is buffered.
	ErrBufferEmpty = errors.New("uart: receive buffer empty")

	// ErrBufferFull is returned by WriteByte when the transmit buffer has no
	// free slot. The byte is not queued.
	ErrBufferFull = errors.New("uart: transmit buffer full")

	// ErrPortClosed is reported by FIFOPort once its underlying stream has
	// returned EOF.
	ErrPortClosed = errors.New("uart: port closed")
)
