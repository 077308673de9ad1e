// Package uart implements an interrupt-safe, double-buffered serial
// transport.
//
// A BufferedSerial sits between a RawPort (the hardware) and application
// code. The pump context (an interrupt handler on a microcontroller, a
// goroutine on a host) repeatedly calls TransferToAndFromBuffer to move at
// most one byte in each direction. Application code reads and writes the
// two rings without ever blocking; every application call returns how much
// it actually did, which may be less than requested.
package uart

import (
	"i4.energy/across/simcomm/ringbuffer"
)

// Default ring capacities.
const (
	DefaultRxSize = 256
	DefaultTxSize = 256
)

const terminator byte = '\n'

// BufferedSerial multiplexes a RawPort between the pump context and
// application code.
type BufferedSerial struct {
	port RawPort
	cs   criticalSection
	rx   *ringbuffer.RingBuffer[byte]
	tx   *ringbuffer.RingBuffer[byte]
}

// NewBufferedSerial returns a transport over port with the given receive
// and transmit capacities. Non-positive sizes select the defaults.
func NewBufferedSerial(port RawPort, rxSize, txSize int) *BufferedSerial {
	if rxSize <= 0 {
		rxSize = DefaultRxSize
	}
	if txSize <= 0 {
		txSize = DefaultTxSize
	}
	return &BufferedSerial{
		port: port,
		rx:   ringbuffer.New[byte](rxSize),
		tx:   ringbuffer.New[byte](txSize),
	}
}

// BytesAvailable returns the number of received bytes ready to be read.
func (s *BufferedSerial) BytesAvailable() int {
	s.cs.enter()
	n := s.rx.BytesAvailable()
	s.cs.exit()
	return n
}

// SpaceAvailable returns the number of bytes that can be queued for
// transmission right now.
func (s *BufferedSerial) SpaceAvailable() int {
	s.cs.enter()
	n := s.tx.SpaceAvailable()
	s.cs.exit()
	return n
}

// Read moves at most len(p) buffered bytes into p.
func (s *BufferedSerial) Read(p []byte) int {
	s.cs.enter()
	n := s.rx.BulkPull(p)
	s.cs.exit()
	return n
}

// ReadByte pulls one received byte.
func (s *BufferedSerial) ReadByte() (byte, error) {
	s.cs.enter()
	defer s.cs.exit()
	if s.rx.IsEmpty() {
		return 0, ErrBufferEmpty
	}
	return s.rx.Pull(), nil
}

// Write queues at most min(len(p), SpaceAvailable()) bytes and starts
// transmission. A short count is normal backpressure, not an error.
func (s *BufferedSerial) Write(p []byte) int {
	s.cs.enter()
	n := s.tx.BulkPush(p)
	s.cs.exit()
	s.port.StartTransmit()
	return n
}

// WriteString queues str up to its first NUL byte, bounded by the free
// space, and starts transmission.
func (s *BufferedSerial) WriteString(str string) int {
	n := 0
	s.cs.enter()
	for n < len(str) && str[n] != 0 && s.tx.Push(str[n]) {
		n++
	}
	s.cs.exit()
	s.port.StartTransmit()
	return n
}

// WriteByte queues a single byte and starts transmission.
func (s *BufferedSerial) WriteByte(c byte) error {
	s.cs.enter()
	ok := s.tx.Push(c)
	s.cs.exit()
	s.port.StartTransmit()
	if !ok {
		return ErrBufferFull
	}
	return nil
}

// CanReadLine reports whether at least one complete line is buffered.
func (s *BufferedSerial) CanReadLine() bool {
	s.cs.enter()
	lines := ringbuffer.NumBufferedLines(s.rx)
	s.cs.exit()
	return lines > 0
}

// ReadLine drains bytes until a '\n' has been consumed or the receive ring
// is empty. Bytes beyond len(p) are consumed and dropped.
//
// The critical section is held for one byte at a time.
func (s *BufferedSerial) ReadLine(p []byte) int {
	n := 0
	for {
		s.cs.enter()
		if s.rx.IsEmpty() {
			s.cs.exit()
			break
		}
		c := s.rx.Pull()
		s.cs.exit()
		if n < len(p) {
			p[n] = c
			n++
		}
		if c == terminator {
			break
		}
	}
	return n
}

// FlushReceiveBuffers discards everything received so far.
func (s *BufferedSerial) FlushReceiveBuffers() {
	s.cs.enter()
	s.rx.Discard(s.rx.BytesAvailable())
	s.cs.exit()
}

// BufferSize returns the capacity of the transmit ring.
func (s *BufferedSerial) BufferSize() int {
	return s.tx.Size()
}

// TransferToAndFromBuffer is the pump. It moves at most one byte to the
// hardware and at most one byte from it, and reports whether anything
// moved. It is the only caller that consumes the transmit ring and
// produces into the receive ring, so it takes no lock.
func (s *BufferedSerial) TransferToAndFromBuffer() bool {
	moved := false

	if b, ok := s.tx.Front(); ok && s.port.RawWrite(b) {
		s.tx.Pull()
		moved = true
	}

	if !s.rx.IsFull() {
		if b, ok := s.port.RawRead(); ok {
			s.rx.Push(b)
			moved = true
		}
	}

	return moved
}
