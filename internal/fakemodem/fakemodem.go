// Package fakemodem is a scripted SIM800 stand-in. It speaks the subset of
// the AT command set the connection engine uses and keeps one TCP link
// whose remote end is driven by the test.
//
// A Modem can be attached either as a uart.RawPort, polled directly by a
// BufferedSerial, or as a blocking io.ReadWriteCloser behind a FIFOPort or
// a pseudo terminal.
package fakemodem

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"i4.energy/across/simcomm/at"
)

type override struct {
	prefix string
	reply  string
}

// Modem is a fake SIM800.
type Modem struct {
	mu   sync.Mutex
	cond *sync.Cond

	in     []byte
	out    []byte
	closed bool

	hosts     map[string]string
	localIP   string
	rssi      int
	overrides []override

	commands      []string
	sent          bytes.Buffer
	pending       []byte
	connected     bool
	sendRemaining int
	sendStart     int
	echo          bool
}

// New returns a fake that resolves no hosts, reports 10.0.0.7 as its
// address and an RSSI of 17.
func New() *Modem {
	m := &Modem{
		hosts:   make(map[string]string),
		localIP: "10.0.0.7",
		rssi:    17,
	}
	m.cond = sync.NewCond(&m.mu)
	return m
}

// AddHost makes host resolve to ip.
func (m *Modem) AddHost(host, ip string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hosts[host] = ip
}

// SetRSSI sets the value reported to signal quality queries.
func (m *Modem) SetRSSI(rssi int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rssi = rssi
}

// SetEcho makes the remote peer send every payload straight back.
func (m *Modem) SetEcho(on bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.echo = on
}

// On replaces the reply to every command starting with prefix. An empty
// reply makes the modem stay silent.
func (m *Modem) On(prefix, reply string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.overrides = append(m.overrides, override{prefix: prefix, reply: reply})
}

// Commands returns the command lines received so far.
func (m *Modem) Commands() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.commands...)
}

// Sent returns the payload the remote peer has received.
func (m *Modem) Sent() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return bytes.Clone(m.sent.Bytes())
}

// Connected reports whether the link is open.
func (m *Modem) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

// Deliver queues payload from the remote peer and raises the data
// indicator.
func (m *Modem) Deliver(p []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected {
		return
	}
	m.pending = append(m.pending, p...)
	m.emit(at.CRLF + at.UrcDataPending + at.CRLF)
}

// PeerClose closes the link from the remote side.
func (m *Modem) PeerClose() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected {
		return
	}
	m.connected = false
	m.emit(at.CRLF + "0, CLOSED" + at.CRLF)
}

// RawRead implements uart.RawPort.
func (m *Modem) RawRead() (byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.out) == 0 {
		return 0, false
	}
	b := m.out[0]
	m.out = m.out[1:]
	return b, true
}

// RawWrite implements uart.RawPort.
func (m *Modem) RawWrite(b byte) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.feed(b)
	return true
}

// StartTransmit implements uart.RawPort.
func (m *Modem) StartTransmit() {}

// Read blocks until the modem has output or is closed.
func (m *Modem) Read(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for len(m.out) == 0 && !m.closed {
		m.cond.Wait()
	}
	if len(m.out) == 0 {
		return 0, io.EOF
	}
	n := copy(p, m.out)
	m.out = m.out[n:]
	return n, nil
}

func (m *Modem) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, io.ErrClosedPipe
	}
	for _, b := range p {
		m.feed(b)
	}
	return len(p), nil
}

func (m *Modem) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.cond.Broadcast()
	return nil
}

func (m *Modem) lastSend() []byte {
	return bytes.Clone(m.sent.Bytes()[m.sendStart:])
}

func (m *Modem) emit(s string) {
	m.out = append(m.out, s...)
	m.cond.Broadcast()
}

func (m *Modem) feed(b byte) {
	if m.sendRemaining > 0 {
		m.sent.WriteByte(b)
		m.sendRemaining--
		if m.sendRemaining == 0 {
			m.emit(at.CRLF + "0, SEND OK" + at.CRLF)
			if m.echo {
				m.pending = append(m.pending, m.lastSend()...)
				m.emit(at.CRLF + at.UrcDataPending + at.CRLF)
			}
		}
		return
	}

	m.in = append(m.in, b)
	for {
		advance, token, _ := at.Splitter(m.in, false)
		if advance == 0 {
			return
		}
		line := strings.TrimSpace(string(token))
		m.in = m.in[advance:]
		if line != "" {
			m.handle(line)
		}
	}
}

func (m *Modem) handle(cmd string) {
	m.commands = append(m.commands, cmd)

	for _, o := range m.overrides {
		if strings.HasPrefix(cmd, o.prefix) {
			m.emit(o.reply)
			return
		}
	}

	ok := at.CRLF + at.OK + at.CRLF
	switch {
	case cmd == at.CmdAt, cmd == at.CmdEchoOff, cmd == at.CmdMux, cmd == at.CmdRxGetMode,
		cmd == at.CmdBringUp, strings.HasPrefix(cmd, "AT+CSTT="):
		m.emit(ok)
	case cmd == at.CmdShut:
		m.connected = false
		m.pending = nil
		m.emit(at.CRLF + at.ShutOK + at.CRLF)
	case cmd == at.CmdLocalIP:
		m.emit(at.CRLF + m.localIP + at.CRLF)
	case strings.HasPrefix(cmd, "AT+CDNSGIP="):
		host := strings.Trim(strings.TrimPrefix(cmd, "AT+CDNSGIP="), "\"")
		m.emit(ok)
		if ip, found := m.hosts[host]; found {
			m.emit(fmt.Sprintf("\r\n+CDNSGIP: 1,\"%s\",\"%s\"\r\n", host, ip))
		} else {
			m.emit("\r\n+CDNSGIP: 0,8\r\n")
		}
	case strings.HasPrefix(cmd, "AT+CIPSTART="):
		m.connected = true
		m.emit(ok + at.CRLF + "0, CONNECT OK" + at.CRLF)
	case strings.HasPrefix(cmd, at.CmdSendPrefix):
		n, err := strconv.Atoi(strings.TrimPrefix(cmd, at.CmdSendPrefix))
		if err != nil || !m.connected {
			m.emit(at.CRLF + at.ERROR + at.CRLF)
			return
		}
		m.emit(at.CRLF + at.Prompt + " ")
		m.sendStart = m.sent.Len()
		m.sendRemaining = n
		if n == 0 {
			m.emit(at.CRLF + "0, SEND OK" + at.CRLF)
		}
	case cmd == at.CmdRxGetQuery:
		m.emit(fmt.Sprintf("\r\n%s%d\r\n", at.RxGetPending, len(m.pending)) + ok)
	case strings.HasPrefix(cmd, at.CmdRxGetPrefix):
		n, err := strconv.Atoi(strings.TrimPrefix(cmd, at.CmdRxGetPrefix))
		if err != nil || !m.connected {
			m.emit(at.CRLF + at.ERROR + at.CRLF)
			return
		}
		n = min(n, len(m.pending))
		payload := m.pending[:n]
		m.pending = m.pending[n:]
		m.emit(fmt.Sprintf("\r\n%s%d,%d\r\n", at.RxGetGrant, n, len(m.pending)))
		m.emit(string(payload))
		m.emit(ok)
	case cmd == at.CmdClose:
		if !m.connected {
			m.emit(at.CRLF + at.ERROR + at.CRLF)
			return
		}
		m.connected = false
		m.emit(at.CRLF + "0, CLOSE OK" + at.CRLF)
	case cmd == at.CmdSignal:
		m.emit(fmt.Sprintf("\r\n%s%d,0\r\n", at.Signal, m.rssi) + ok)
	default:
		m.emit(at.CRLF + at.ERROR + at.CRLF)
	}
}
