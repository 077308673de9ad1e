package uart

import (
	"context"
	"errors"
	"io"
	"sync"

	"go.uber.org/atomic"
)

// DefaultFIFODepth matches the small hardware FIFOs found on common MCU
// UARTs.
const DefaultFIFODepth = 16

// FIFOPort emulates UART hardware on top of a blocking byte stream such as
// an OS serial port. Two bounded channels stand in for the receive and
// transmit FIFOs; RawRead and RawWrite only ever poll them.
//
// A single reader goroutine owns the stream's read side for the life of
// the port, so Run may be called again after an earlier Run returned.
type FIFOPort struct {
	rw    io.ReadWriter
	rx    chan byte
	tx    chan byte
	ready chan struct{}
	err   atomic.Error

	readOnce sync.Once
	readErr  chan error
	stopOnce sync.Once
	done     chan struct{}
}

// NewFIFOPort wraps rw. depth is the size of each emulated FIFO.
func NewFIFOPort(rw io.ReadWriter, depth int) *FIFOPort {
	if depth <= 0 {
		depth = DefaultFIFODepth
	}
	return &FIFOPort{
		rw:      rw,
		rx:      make(chan byte, depth),
		tx:      make(chan byte, depth),
		ready:   make(chan struct{}, 1),
		readErr: make(chan error, 1),
		done:    make(chan struct{}),
	}
}

// RawRead implements RawPort.
func (p *FIFOPort) RawRead() (byte, bool) {
	select {
	case b := <-p.rx:
		return b, true
	default:
		return 0, false
	}
}

// RawWrite implements RawPort.
func (p *FIFOPort) RawWrite(b byte) bool {
	select {
	case p.tx <- b:
		return true
	default:
		return false
	}
}

// StartTransmit implements RawPort by waking the pump.
func (p *FIFOPort) StartTransmit() {
	p.signal()
}

// Ready is signalled whenever there is new work for the pump.
func (p *FIFOPort) Ready() <-chan struct{} {
	return p.ready
}

// Err returns the first I/O error seen on the underlying stream.
func (p *FIFOPort) Err() error {
	return p.err.Load()
}

// Stop releases the reader goroutine once the stream unblocks it. It does
// not close the stream; the owner does that.
func (p *FIFOPort) Stop() {
	p.stopOnce.Do(func() {
		close(p.done)
	})
}

// Run shuttles bytes between the FIFOs and the stream until ctx is done or
// the stream fails. The first call starts the reader, which outlives Run
// and keeps filling the receive FIFO between calls. Once the stream has
// failed Run returns that error straight away.
func (p *FIFOPort) Run(ctx context.Context) error {
	if err := p.Err(); err != nil {
		return err
	}
	p.readOnce.Do(func() {
		go func() {
			p.readErr <- p.readLoop()
		}()
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	writeErr := make(chan error, 1)
	go func() {
		writeErr <- p.writeLoop(ctx)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-p.readErr:
		p.fail(err)
		return err
	case err := <-writeErr:
		if ctx.Err() != nil {
			return ctx.Err()
		}
		p.fail(err)
		return err
	}
}

func (p *FIFOPort) readLoop() error {
	buf := make([]byte, cap(p.rx))
	for {
		n, err := p.rw.Read(buf)
		for _, b := range buf[:n] {
			select {
			case p.rx <- b:
				p.signal()
			case <-p.done:
				return ErrPortClosed
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return ErrPortClosed
			}
			return err
		}
	}
}

func (p *FIFOPort) writeLoop(ctx context.Context) error {
	batch := make([]byte, 0, cap(p.tx))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case b := <-p.tx:
			batch = append(batch[:0], b)
		}
	drain:
		for len(batch) < cap(batch) {
			select {
			case b := <-p.tx:
				batch = append(batch, b)
			default:
				break drain
			}
		}
		if _, err := p.rw.Write(batch); err != nil {
			return err
		}
		// Room in the transmit FIFO again.
		p.signal()
	}
}

func (p *FIFOPort) signal() {
	select {
	case p.ready <- struct{}{}:
	default:
	}
}

func (p *FIFOPort) fail(err error) {
	if err == nil || errors.Is(err, context.Canceled) {
		return
	}
	if p.err.Load() == nil {
		p.err.Store(err)
	}
}
