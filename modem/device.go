package modem

import (
	"bytes"
	"log/slog"
	"strconv"
	"time"

	"i4.energy/across/simcomm/at"
	"i4.energy/across/simcomm/ringbuffer"
)

// RSSIUnknown is reported until the modem has answered a signal quality
// query, and again after each new request.
const RSSIUnknown uint8 = 99

// Serial is the byte transport the engine drives. *uart.BufferedSerial
// implements it.
type Serial interface {
	BytesAvailable() int
	SpaceAvailable() int
	Read(p []byte) int
	ReadByte() (byte, error)
	Write(p []byte) int
	WriteString(s string) int
	WriteByte(c byte) error
	BufferSize() int
}

// Device is the modem protocol engine. It turns connect, disconnect and
// payload requests into AT command exchanges over a Serial and parses the
// replies. A Device is not safe for concurrent use; Modem serializes access.
type Device struct {
	serial  Serial
	profile Profile
	logger  *slog.Logger

	atTimeout  time.Duration
	maxRetries int

	state       ConnectState
	apn         string
	apnUser     string
	apnPassword string
	host        string
	port        uint16
	readBuffer  *ringbuffer.RingBuffer[byte]
	writeBuffer *ringbuffer.RingBuffer[byte]

	lineBuffer []byte
	lineFill   int
	line       []byte

	sendPhase    sendPhase
	replyPhase   replyPhase
	waitForReply string
	replySince   time.Time

	bytesToWrite   int
	bytesToReceive int
	bytesToRead    int

	ip            string
	localIP       string
	rssi          uint8
	rssiRequested bool
	resets        int
	reconnect     bool

	serialLocked      bool
	lineMode          bool
	connectPending    bool
	disconnectPending bool
	dataPending       bool
	resetPending      bool
	ipConnected       bool
}

// NewDevice returns an engine over s. Only the non-transport fields of
// config are used; unset ones take their defaults.
func NewDevice(s Serial, config Config) *Device {
	config.setDefaults()
	return &Device{
		serial:      s,
		profile:     config.Profile,
		logger:      config.Logger,
		atTimeout:   config.ATTimeout,
		maxRetries:  config.MaxRetries,
		apn:         config.APN,
		apnUser:     config.APNUser,
		apnPassword: config.APNPassword,
		readBuffer:  ringbuffer.New[byte](config.ReadBufferSize),
		writeBuffer: ringbuffer.New[byte](config.WriteBufferSize),
		lineBuffer:  make([]byte, config.Profile.LineLength),
		rssi:        RSSIUnknown,
		lineMode:    true,
	}
}

// fillLineBuffer moves bytes from the serial receive ring into the line
// buffer until a reply unit is complete: a newline, a prompt character or a
// full buffer. It reports whether a unit is ready in d.line.
func (d *Device) fillLineBuffer() bool {
	if !d.lineMode {
		return false
	}
	for d.serial.BytesAvailable() > 0 {
		c, err := d.serial.ReadByte()
		if err != nil {
			return false
		}
		d.lineBuffer[d.lineFill] = c
		d.lineFill++
		if c == '\n' || c == at.Prompt[0] || d.lineFill == len(d.lineBuffer) {
			d.line = d.lineBuffer[:d.lineFill]
			d.lineFill = 0
			return true
		}
	}
	return false
}

// reply returns the current unit without surrounding whitespace.
func (d *Device) reply() []byte {
	return bytes.TrimSpace(d.line)
}

// SerialLock hands the serial port to the caller for raw commands. It only
// succeeds while no exchange is in flight.
func (d *Device) SerialLock() bool {
	if d.serialLocked || d.waitForReply != "" || d.replyPhase != replyNone {
		return false
	}
	d.serialLocked = true
	return true
}

// SerialUnlock returns the port to the engine.
func (d *Device) SerialUnlock() {
	d.serialLocked = false
}

// SerialWrite writes raw bytes. It returns 0 unless the port is locked.
func (d *Device) SerialWrite(p []byte) int {
	if !d.serialLocked {
		return 0
	}
	return d.serial.Write(p)
}

// SerialRead reads raw bytes. It returns 0 unless the port is locked.
func (d *Device) SerialRead(p []byte) int {
	if !d.serialLocked {
		return 0
	}
	return d.serial.Read(p)
}

// widestIP is the longest dotted quad a DNS reply can carry.
const widestIP = "255.255.255.255"

// commandsFit reports whether every setup command for the current APN and
// host fits the serial transmit ring.
func (d *Device) commandsFit() bool {
	size := d.serial.BufferSize()
	return len(at.APN(d.apn, d.apnUser, d.apnPassword)) <= size &&
		len(d.host)+d.profile.DNSOverhead <= size &&
		len(at.Open(d.profile.OpenVariant, widestIP, d.port)) <= size
}

func (d *Device) sendDnsQuery() bool {
	if d.serial.SpaceAvailable() < len(d.host)+d.profile.DNSOverhead {
		return false
	}
	d.serial.WriteString(at.DNSQuery(d.host))
	return true
}

// parseDnsReply extracts the resolved address from the current unit. A
// reply with an out of range quote count moves the connection to DNSError;
// a negative reply requests a reset.
func (d *Device) parseDnsReply() bool {
	line := d.reply()
	switch {
	case bytes.HasPrefix(line, []byte(at.DNSOk)):
		quotes := bytes.Count(line, []byte{'"'})
		if quotes < d.profile.DNSMinQuotes || quotes > d.profile.DNSMaxQuotes {
			d.state = DNSError
			return false
		}
		rest := line
		for i := 0; i < 3; i++ {
			rest = rest[bytes.IndexByte(rest, '"')+1:]
		}
		if i := bytes.IndexByte(rest, '"'); i >= 0 {
			rest = rest[:i]
		}
		d.ip = string(rest)
		return true
	case bytes.HasPrefix(line, []byte(at.DNSFail)):
		d.resetPending = true
	}
	return false
}

func (d *Device) sendCipstart() {
	d.serial.WriteString(at.Open(d.profile.OpenVariant, d.ip, d.port))
}

// prepareSending announces as much queued payload as fits behind the
// announce header and arms the prompt.
func (d *Device) prepareSending() bool {
	space := d.serial.SpaceAvailable()
	if space < d.profile.SendReserve {
		return false
	}
	n := d.writeBuffer.BytesAvailable()
	if limit := space - d.profile.SendReserve; n > limit {
		n = limit
	}
	if n == 0 {
		return false
	}
	d.bytesToWrite = n
	d.serial.WriteString(at.Send(n))
	d.waitForReply = at.Prompt
	return true
}

// sendData moves the announced payload from the write buffer to the
// serial port.
func (d *Device) sendData() {
	for d.bytesToWrite > 0 {
		c, ok := d.writeBuffer.Front()
		if !ok || d.serial.WriteByte(c) != nil {
			break
		}
		d.writeBuffer.Pull()
		d.bytesToWrite--
	}
	d.bytesToWrite = 0
}

func (d *Device) parseCiprxget4() bool {
	n, ok := leadingInt(d.reply(), at.RxGetPending)
	if !ok {
		return false
	}
	d.bytesToReceive += n
	return true
}

// parseCiprxget2 accepts a receive grant. The granted payload follows raw,
// so line assembly stops until receive has consumed it.
func (d *Device) parseCiprxget2() bool {
	n, ok := leadingInt(d.reply(), at.RxGetGrant)
	if !ok {
		return false
	}
	d.bytesToReceive -= n
	if d.bytesToReceive < 0 || n == 0 {
		// An empty grant means the modem holds nothing more.
		d.bytesToReceive = 0
	}
	d.bytesToRead += n
	d.lineMode = false
	return true
}

func (d *Device) sendCiprxget2() bool {
	space := d.serial.SpaceAvailable()
	room := d.readBuffer.SpaceAvailable()
	if space <= d.profile.RxGetReserve || room == 0 {
		return false
	}
	n := min(space-d.profile.RxGetReserve, d.bytesToReceive, room)
	if n <= 0 {
		return false
	}
	d.serial.WriteString(at.RxGet(n))
	return true
}

// receive copies a granted payload into the read buffer once all of it has
// arrived.
func (d *Device) receive() (int, bool) {
	if d.serial.BytesAvailable() < d.bytesToRead {
		return 0, false
	}
	n := d.bytesToRead
	for d.bytesToRead > 0 {
		c, err := d.serial.ReadByte()
		if err != nil {
			break
		}
		d.readBuffer.Push(c)
		d.bytesToRead--
	}
	d.lineMode = true
	return n, true
}

// flushReadBuffer drops granted payload that can no longer be delivered.
func (d *Device) flushReadBuffer() {
	for d.bytesToRead > 0 && d.serial.BytesAvailable() > 0 {
		if _, err := d.serial.ReadByte(); err != nil {
			break
		}
		d.bytesToRead--
	}
	d.bytesToReceive = 0
	if d.bytesToRead == 0 {
		d.lineMode = true
	}
}

// checkConnectionState watches every unit for the pending data indicator
// and the peer close pattern.
func (d *Device) checkConnectionState(closeVariant string) {
	line := d.reply()
	switch {
	case bytes.HasPrefix(line, []byte(at.UrcDataPending)):
		d.dataPending = true
	case closeVariant != "" && bytes.HasPrefix(line, []byte(closeVariant)):
		d.waitForReply = ""
		d.ipConnected = false
	}
}

// NotifyURC passes an unsolicited line read while the serial port was
// locked back to the engine.
func (d *Device) NotifyURC(line string) {
	d.line = []byte(line)
	d.checkConnectionState(d.profile.ClosePattern)
}

// RequestRSSI asks for a fresh signal quality reading.
func (d *Device) RequestRSSI() {
	d.rssi = RSSIUnknown
	d.rssiRequested = true
}

// RSSI returns the last signal quality value, RSSIUnknown if none.
func (d *Device) RSSI() uint8 {
	return d.rssi
}

func (d *Device) parseCsq() bool {
	n, ok := leadingInt(d.reply(), at.Signal)
	if !ok || n < 0 || n > 255 {
		return false
	}
	d.rssi = uint8(n)
	d.rssiRequested = false
	return true
}

// handleConnect consumes a pending connect request.
func (d *Device) handleConnect(next sendPhase) bool {
	if !d.connectPending {
		return false
	}
	d.connectPending = false
	d.sendPhase = next
	return true
}

// handleDisconnect consumes a pending disconnect request.
func (d *Device) handleDisconnect(next sendPhase) bool {
	if !d.disconnectPending {
		return false
	}
	d.disconnectPending = false
	d.sendPhase = next
	return true
}

// leadingInt parses the decimal number directly after prefix.
func leadingInt(line []byte, prefix string) (int, bool) {
	if !bytes.HasPrefix(line, []byte(prefix)) {
		return 0, false
	}
	rest := line[len(prefix):]
	end := 0
	for end < len(rest) && rest[end] >= '0' && rest[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(string(rest[:end]))
	if err != nil {
		return 0, false
	}
	return n, true
}
