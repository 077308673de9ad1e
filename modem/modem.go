package modem

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.uber.org/atomic"
	"i4.energy/across/simcomm/at"
	"i4.energy/across/simcomm/uart"
)

// maxStepsPerTick bounds how many engine steps run back to back before the
// loop yields to the next tick.
const maxStepsPerTick = 64

// Modem is a cellular modem providing one TCP connection through AT
// commands. It owns the transport, the serial pump and the protocol
// engine, and serializes all access to the engine.
type Modem struct {
	mu sync.Mutex

	// transport provides the physical connection to the modem (serial, pty, etc.)
	transport Transport
	config    Config
	logger    *slog.Logger

	port   *uart.FIFOPort
	serial *uart.BufferedSerial
	device *Device

	closed      bool
	loopRunning atomic.Bool

	// loopCtx controls the lifecycle of the main event loop
	loopCtx    context.Context
	loopCancel context.CancelFunc
}

// Status is a snapshot of the connection.
type Status struct {
	State     ConnectState `json:"state"`
	Host      string       `json:"host,omitempty"`
	Port      uint16       `json:"port,omitempty"`
	RemoteIP  string       `json:"remote_ip,omitempty"`
	LocalIP   string       `json:"local_ip,omitempty"`
	RSSI      uint8        `json:"rssi"`
	Readable  int          `json:"readable"`
	Writable  int          `json:"writable"`
	LoopAlive bool         `json:"loop_alive"`
}

// New creates a new Modem instance with the given configuration. It dials
// the transport and prepares the serial stack, but no bytes move until Loop
// runs.
func New(ctx context.Context, config Config) (*Modem, error) {
	config.setDefaults()
	if err := config.validate(); err != nil {
		return nil, err
	}

	transport, err := config.Dialer.Dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("dial modem: %w", err)
	}
	if transport == nil {
		return nil, ErrNotInitialized
	}

	port := uart.NewFIFOPort(transport, config.FIFODepth)
	serial := uart.NewBufferedSerial(port, config.RxBufferSize, config.TxBufferSize)

	m := &Modem{
		transport: transport,
		config:    config,
		logger:    config.Logger,
		port:      port,
		serial:    serial,
		device:    NewDevice(serial, config),
	}
	m.loopCtx, m.loopCancel = context.WithCancel(ctx)
	return m, nil
}

// Loop is the main event loop. It shuttles bytes between the transport and
// the serial rings and steps the protocol engine on every tick. It must be
// running for any connection to make progress.
//
// Loop returns when ctx is cancelled, when Close is called, or when the
// transport fails.
//
// Usage:
//
//	modem, err := New(ctx, config)
//	if err != nil { return err }
//
//	go modem.Loop(ctx)
//
//	err = modem.Connect("example.com", 80)
func (m *Modem) Loop(ctx context.Context) error {
	if !m.loopRunning.CompareAndSwap(false, true) {
		return ErrLoopRunning
	}
	defer m.loopRunning.Store(false)

	m.mu.Lock()
	closed := m.closed
	m.mu.Unlock()
	if closed {
		return ErrAlreadyClosed
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(m.loopCtx, cancel)
	defer stop()

	portErr := make(chan error, 1)
	go func() {
		portErr <- m.port.Run(ctx)
	}()
	go uart.Pump(ctx, m.serial, m.port.Ready(), m.config.PumpIdle)

	ticker := time.NewTicker(m.config.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-portErr:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// Close cancels loopCtx before closing the transport.
			if err := m.loopCtx.Err(); err != nil {
				return err
			}
			m.logger.Error("modem transport failed", "error", err)
			return fmt.Errorf("transport error: %w", err)
		case now := <-ticker.C:
			m.step(now)
		}
	}
}

func (m *Modem) step(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := 0; i < maxStepsPerTick; i++ {
		if !m.device.Step(now) {
			return
		}
	}
}

// Close shuts down the modem and releases all resources.
// It stops the event loop, closes the transport connection, and marks
// the modem as closed. After calling Close(), the modem cannot be reused.
func (m *Modem) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrAlreadyClosed
	}
	m.closed = true

	if m.loopCancel != nil {
		m.loopCancel()
	}
	m.port.Stop()
	if m.transport != nil {
		return m.transport.Close()
	}
	return nil
}

// SetAPN replaces the access point settings for the next Connect.
func (m *Modem) SetAPN(apn, user, password string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.device.SetAPN(apn, user, password)
}

// Connect starts connecting to host:port. It returns as soon as the request
// is accepted; watch Status for progress.
func (m *Modem) Connect(host string, port uint16) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.usable(); err != nil {
		return err
	}
	m.device.SetHost(host, port)
	return m.device.Connect()
}

// Disconnect requests the connection to be closed.
func (m *Modem) Disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.device.Disconnect()
}

// Send queues payload and returns how much was accepted.
func (m *Modem) Send(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.usable(); err != nil {
		return 0, err
	}
	return m.device.WriteData(p)
}

// Recv copies received payload into p.
func (m *Modem) Recv(p []byte) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.device.ReadData(p)
}

// RequestRSSI asks the modem for a fresh signal quality reading.
func (m *Modem) RequestRSSI() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.device.RequestRSSI()
}

// Status returns a snapshot of the connection.
func (m *Modem) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := m.device
	return Status{
		State:     d.State(),
		Host:      d.host,
		Port:      d.port,
		RemoteIP:  d.RemoteIP(),
		LocalIP:   d.LocalIP(),
		RSSI:      d.RSSI(),
		Readable:  d.BytesAvailable(),
		Writable:  d.SpaceAvailable(),
		LoopAlive: m.loopRunning.Load(),
	}
}

// Exec runs a raw AT command while the engine is between exchanges and
// returns the reply lines up to the final result. The Loop must be
// running.
func (m *Modem) Exec(ctx context.Context, cmd string) (string, error) {
	if _, ok := ctx.Deadline(); !ok && m.config.ATTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.config.ATTimeout)
		defer cancel()
	}

	if err := m.lock(ctx); err != nil {
		return "", err
	}
	defer m.unlock()

	wire := []byte(at.Command(strings.TrimSpace(cmd)))
	for len(wire) > 0 {
		m.mu.Lock()
		n := m.device.SerialWrite(wire)
		m.mu.Unlock()
		wire = wire[n:]
		if len(wire) > 0 {
			if err := m.wait(ctx); err != nil {
				return "", fmt.Errorf("write command %q: %w", cmd, err)
			}
		}
	}

	var (
		pending []byte
		lines   []string
		buf     = make([]byte, 64)
	)
	for {
		m.mu.Lock()
		n := m.device.SerialRead(buf)
		m.mu.Unlock()
		pending = append(pending, buf[:n]...)

		for {
			advance, token, _ := at.Splitter(pending, false)
			if advance == 0 {
				break
			}
			pending = pending[advance:]
			line := strings.TrimSpace(string(token))
			if line == "" {
				continue
			}

			switch at.Classify(line) {
			case at.TypeFinal:
				lines = append(lines, line)
				response := strings.Join(lines, "\n")
				if line == at.OK || line == at.ShutOK {
					return response, nil
				}
				return response, errors.New(line)
			case at.TypeData:
				lines = append(lines, line)
			case at.TypeURC:
				// Not part of the reply, but the engine must still see it.
				m.mu.Lock()
				m.device.NotifyURC(line)
				m.mu.Unlock()
			case at.TypePrompt:
				lines = append(lines, line)
				return strings.Join(lines, "\n"), nil
			}
		}

		if n == 0 {
			if err := m.wait(ctx); err != nil {
				return strings.Join(lines, "\n"), fmt.Errorf("command timeout: %w", err)
			}
		}
	}
}

// Probe checks that the modem answers at all.
func (m *Modem) Probe(ctx context.Context) error {
	resp, err := m.Exec(ctx, at.CmdAt)
	if err != nil {
		return fmt.Errorf("modem not responding: %w", err)
	}
	if !strings.Contains(resp, at.OK) {
		return fmt.Errorf("unexpected response: %q", resp)
	}
	return nil
}

func (m *Modem) lock(ctx context.Context) error {
	for {
		m.mu.Lock()
		if err := m.usable(); err != nil {
			m.mu.Unlock()
			return err
		}
		ok := m.device.SerialLock()
		m.mu.Unlock()
		if ok {
			return nil
		}
		if err := m.wait(ctx); err != nil {
			return fmt.Errorf("serial port busy: %w", err)
		}
	}
}

func (m *Modem) unlock() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.device.SerialUnlock()
}

func (m *Modem) wait(ctx context.Context) error {
	t := time.NewTimer(m.config.TickInterval)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (m *Modem) usable() error {
	if m.closed {
		return ErrAlreadyClosed
	}
	if m.device == nil {
		return ErrNotInitialized
	}
	return nil
}
