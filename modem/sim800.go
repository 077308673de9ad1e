package modem

import (
	"bytes"
	"time"

	"i4.energy/across/simcomm/at"
)

type sendPhase int

const (
	phaseIdle sendPhase = iota
	phaseEchoOff
	phaseShut
	phaseMux
	phaseRxMode
	phaseAPN
	phaseBringUp
	phaseLocalIP
	phaseDNS
	phaseOpen
	phaseConnected
	phaseClose
	phaseShutdown
	phaseReset
)

var sendPhaseNames = [...]string{
	"idle", "echo-off", "shut", "mux", "rx-mode", "apn", "bring-up",
	"local-ip", "dns", "open", "connected", "close", "shutdown", "reset",
}

func (p sendPhase) String() string {
	if int(p) < len(sendPhaseNames) {
		return sendPhaseNames[p]
	}
	return "unknown"
}

type replyPhase int

const (
	replyNone replyPhase = iota
	replyOK
	replyLocalIP
	replyDNS
	replyOpen
	replyPrompt
	replySendOK
	replyRxQuery
	replyRxGrant
	replyCSQ
	replyClose
	replyShutdown
)

var replyPhaseNames = [...]string{
	"none", "ok", "local-ip", "dns", "open", "prompt", "send-ok",
	"rx-query", "rx-grant", "csq", "close", "shutdown",
}

func (p replyPhase) String() string {
	if int(p) < len(replyPhaseNames) {
		return replyPhaseNames[p]
	}
	return "unknown"
}

// Step advances the engine by at most one reply unit and one command. It
// must be called periodically; now is used for reply timeouts. Step reports
// whether anything happened, so callers can repeat it until it settles.
func (d *Device) Step(now time.Time) bool {
	progress := false

	if !d.serialLocked && d.fillLineBuffer() {
		progress = true
		d.logger.Debug("modem reply",
			"line", string(d.reply()),
			"sendPhase", d.sendPhase,
			"replyPhase", d.replyPhase,
			"state", d.state)
		d.checkConnectionState(d.profile.ClosePattern)
		d.handleReply(now)
	}

	if !d.lineMode {
		if d.resetPending || !d.ipConnected {
			d.flushReadBuffer()
		} else if n, ok := d.receive(); ok {
			d.logger.Debug("modem payload received", "bytes", n)
			progress = true
		}
	}

	if d.replyPhase != replyNone && d.atTimeout > 0 && now.Sub(d.replySince) > d.atTimeout {
		d.logger.Warn("modem reply timeout",
			"sendPhase", d.sendPhase,
			"replyPhase", d.replyPhase,
			"waitForReply", d.waitForReply)
		d.replyTimeout()
		progress = true
	}

	if d.replyPhase == replyNone && d.waitForReply == "" && !d.serialLocked {
		if d.dispatch(now) {
			progress = true
		}
	}
	return progress
}

// expect arms the reply handler for the command just written.
func (d *Device) expect(now time.Time, phase replyPhase, token string) {
	d.replyPhase = phase
	d.waitForReply = token
	d.replySince = now
}

func (d *Device) replyDone() {
	d.replyPhase = replyNone
	d.waitForReply = ""
}

func (d *Device) matches(token string) bool {
	return token != "" && bytes.HasPrefix(d.reply(), []byte(token))
}

// command writes cmd if it fits, arms the reply and moves to next.
func (d *Device) command(now time.Time, cmd string, phase replyPhase, token string, next sendPhase) bool {
	if len(cmd) > d.serial.BufferSize() {
		return d.abort(len(cmd))
	}
	if d.serial.SpaceAvailable() < len(cmd) {
		return false
	}
	d.serial.WriteString(cmd)
	d.expect(now, phase, token)
	d.sendPhase = next
	return true
}

func (d *Device) dispatch(now time.Time) bool {
	if d.resetPending {
		if d.sendPhase == phaseIdle {
			d.resetPending = false
		} else if d.sendPhase != phaseReset {
			d.sendPhase = phaseReset
		}
	}

	if d.sendPhase > phaseIdle && d.sendPhase < phaseConnected && d.handleDisconnect(phaseShutdown) {
		d.reconnect = false
		d.state = Disconnecting
		return true
	}

	switch d.sendPhase {
	case phaseIdle:
		if d.handleConnect(phaseEchoOff) {
			d.logger.Info("modem connecting", "host", d.host, "port", d.port)
			d.state = Connecting
			d.resets = 0
			d.reconnect = true
			d.readBuffer.Flush()
			d.writeBuffer.Flush()
			return true
		}
		if d.handleDisconnect(phaseIdle) {
			return true
		}
		if d.rssiRequested {
			return d.command(now, at.Command(at.CmdSignal), replyCSQ, at.OK, phaseIdle)
		}
		return false
	case phaseEchoOff:
		return d.command(now, at.Command(at.CmdEchoOff), replyOK, at.OK, phaseShut)
	case phaseShut:
		return d.command(now, at.Command(at.CmdShut), replyOK, at.ShutOK, phaseMux)
	case phaseMux:
		return d.command(now, at.Command(at.CmdMux), replyOK, at.OK, phaseRxMode)
	case phaseRxMode:
		return d.command(now, at.Command(at.CmdRxGetMode), replyOK, at.OK, phaseAPN)
	case phaseAPN:
		return d.command(now, at.APN(d.apn, d.apnUser, d.apnPassword), replyOK, at.OK, phaseBringUp)
	case phaseBringUp:
		return d.command(now, at.Command(at.CmdBringUp), replyOK, at.OK, phaseLocalIP)
	case phaseLocalIP:
		return d.command(now, at.Command(at.CmdLocalIP), replyLocalIP, "", phaseDNS)
	case phaseDNS:
		if n := len(d.host) + d.profile.DNSOverhead; n > d.serial.BufferSize() {
			return d.abort(n)
		}
		if !d.sendDnsQuery() {
			return false
		}
		d.expect(now, replyDNS, "")
		d.sendPhase = phaseOpen
		return true
	case phaseOpen:
		if d.serial.SpaceAvailable() < len(at.Open(d.profile.OpenVariant, d.ip, d.port)) {
			return false
		}
		d.sendCipstart()
		d.expect(now, replyOpen, d.profile.ConnectOK)
		d.sendPhase = phaseConnected
		return true
	case phaseConnected:
		return d.connectedStep(now)
	case phaseClose:
		if !d.ipConnected {
			d.sendPhase = phaseShutdown
			return true
		}
		return d.command(now, at.Command(at.CmdClose), replyClose, d.profile.CloseOK, phaseShutdown)
	case phaseShutdown:
		return d.command(now, at.Command(at.CmdShut), replyShutdown, at.ShutOK, phaseIdle)
	case phaseReset:
		return d.reset(now)
	}
	return false
}

func (d *Device) connectedStep(now time.Time) bool {
	if !d.ipConnected {
		d.logger.Info("modem connection closed by peer", "host", d.host)
		d.reconnect = false
		d.state = Disconnecting
		d.sendPhase = phaseShutdown
		return true
	}
	if d.handleDisconnect(phaseClose) {
		d.reconnect = false
		d.state = Disconnecting
		return true
	}
	if d.dataPending {
		d.dataPending = false
		return d.command(now, at.Command(at.CmdRxGetQuery), replyRxQuery, at.OK, phaseConnected)
	}
	if d.bytesToReceive > 0 && d.sendCiprxget2() {
		d.expect(now, replyRxGrant, at.OK)
		return true
	}
	if d.writeBuffer.BytesAvailable() > 0 && d.prepareSending() {
		d.expect(now, replyPrompt, at.Prompt)
		return true
	}
	if d.rssiRequested {
		return d.command(now, at.Command(at.CmdSignal), replyCSQ, at.OK, phaseConnected)
	}
	return false
}

// abort gives up a connection attempt whose next command can never fit the
// transmit ring. Idle, reset and shutdown only send short fixed commands.
func (d *Device) abort(size int) bool {
	if d.sendPhase == phaseIdle || d.sendPhase == phaseShutdown || d.sendPhase == phaseReset {
		return false
	}
	d.logger.Error("modem command exceeds serial buffer",
		"sendPhase", d.sendPhase,
		"size", size,
		"bufferSize", d.serial.BufferSize())
	d.reconnect = false
	d.state = GeneralError
	d.sendPhase = phaseShutdown
	return true
}

// reset restarts the IP stack after a failure, or gives up once retries
// are exhausted.
func (d *Device) reset(now time.Time) bool {
	if d.serial.SpaceAvailable() < len(at.Command(at.CmdShut)) {
		return false
	}
	d.flushReadBuffer()
	d.bytesToRead = 0
	d.lineMode = true
	d.resetPending = false
	d.ipConnected = false
	d.dataPending = false
	d.bytesToWrite = 0
	d.bytesToReceive = 0
	d.resets++

	if !d.reconnect || d.resets > d.maxRetries {
		d.logger.Error("modem connection failed", "host", d.host, "resets", d.resets)
		d.reconnect = false
		if d.state != DNSError {
			d.state = GeneralError
		}
		return d.command(now, at.Command(at.CmdShut), replyShutdown, at.ShutOK, phaseIdle)
	}
	d.logger.Warn("modem resetting IP stack", "host", d.host, "attempt", d.resets)
	d.state = Connecting
	return d.command(now, at.Command(at.CmdShut), replyOK, at.ShutOK, phaseMux)
}

func (d *Device) replyTimeout() {
	d.replyDone()
	d.bytesToWrite = 0
	if d.sendPhase == phaseIdle {
		// A signal query outside a connection is simply dropped.
		d.rssiRequested = false
		if d.state == Disconnecting {
			d.state = NotConnected
		}
		return
	}
	d.resetPending = true
}

func (d *Device) handleReply(now time.Time) {
	if d.replyPhase == replyNone {
		return
	}
	line := d.reply()
	if len(line) == 0 {
		return
	}

	if at.IsError(string(line)) {
		d.replyError()
		return
	}

	switch d.replyPhase {
	case replyOK:
		if d.matches(d.waitForReply) {
			d.replyDone()
		}
	case replyLocalIP:
		d.localIP = string(line)
		d.replyDone()
	case replyDNS:
		if !bytes.HasPrefix(line, []byte(at.DNSReply)) {
			return
		}
		d.replyDone()
		if d.parseDnsReply() {
			d.logger.Debug("modem host resolved", "host", d.host, "ip", d.ip)
			return
		}
		if d.state == DNSError {
			d.logger.Error("modem malformed DNS reply", "host", d.host, "line", string(line))
			d.reconnect = false
			d.sendPhase = phaseShutdown
			return
		}
		d.resetPending = true
	case replyOpen:
		switch {
		case d.matches(d.profile.ConnectOK):
			d.replyDone()
			d.ipConnected = true
			d.state = Connected
			d.resets = 0
			d.logger.Info("modem connected", "host", d.host, "ip", d.ip, "port", d.port)
		case d.matches(d.profile.ConnectFail):
			d.replyError()
		}
	case replyPrompt:
		if !d.ipConnected {
			d.replyDone()
			return
		}
		if d.matches(at.Prompt) {
			d.sendData()
			d.expect(now, replySendOK, d.profile.SendOK)
		}
	case replySendOK:
		switch {
		case !d.ipConnected:
			d.replyDone()
		case d.matches(d.profile.SendOK):
			d.replyDone()
		case d.matches(d.profile.SendFail):
			d.replyError()
		}
	case replyRxQuery:
		if d.parseCiprxget4() {
			return
		}
		if !d.ipConnected || d.matches(at.OK) {
			d.replyDone()
		}
	case replyRxGrant:
		if d.parseCiprxget2() {
			return
		}
		if !d.ipConnected || d.matches(at.OK) {
			d.replyDone()
		}
	case replyCSQ:
		if d.parseCsq() {
			return
		}
		if d.matches(at.OK) {
			d.rssiRequested = false
			d.replyDone()
		}
	case replyClose:
		if d.matches(d.profile.CloseOK) || d.matches(d.profile.ClosePattern) {
			d.ipConnected = false
			d.replyDone()
		}
	case replyShutdown:
		if d.matches(at.ShutOK) {
			d.replyDone()
			d.finishShutdown()
		}
	}
}

// replyError handles a failure result for the command in flight.
func (d *Device) replyError() {
	phase := d.replyPhase
	d.replyDone()
	d.bytesToWrite = 0
	switch phase {
	case replyCSQ:
		d.rssiRequested = false
	case replyClose:
		d.ipConnected = false
	case replyShutdown:
		d.finishShutdown()
	default:
		d.resetPending = true
	}
}

func (d *Device) finishShutdown() {
	d.ipConnected = false
	d.dataPending = false
	d.bytesToReceive = 0
	d.bytesToWrite = 0
	if d.state != GeneralError && d.state != DNSError {
		d.state = NotConnected
	}
	d.logger.Info("modem disconnected", "host", d.host, "state", d.state)
}
