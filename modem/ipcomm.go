package modem

// SetAPN sets the access point name and credentials used by the next
// Connect.
func (d *Device) SetAPN(apn, user, password string) {
	d.apn = apn
	d.apnUser = user
	d.apnPassword = password
}

// SetHost sets the remote endpoint used by the next Connect.
func (d *Device) SetHost(host string, port uint16) {
	d.host = host
	d.port = port
}

// Connect requests a connection to the configured host. It only records the
// request; the step driver carries it out.
func (d *Device) Connect() error {
	if d.apn == "" {
		return ErrNoAPN
	}
	if d.host == "" || d.port == 0 {
		return ErrNoHost
	}
	if !d.commandsFit() {
		return ErrCommandTooLong
	}
	if !d.IsIdle() {
		return ErrBusy
	}
	d.connectPending = true
	d.disconnectPending = false
	d.state = Connecting
	return nil
}

// Disconnect requests the connection to be closed. It is honored at the
// next safe point of the step driver.
func (d *Device) Disconnect() {
	if d.connectPending {
		d.connectPending = false
		d.state = NotConnected
		return
	}
	d.disconnectPending = true
}

// State returns the connection state.
func (d *Device) State() ConnectState {
	return d.state
}

// IsIdle reports whether a new Connect would be accepted.
func (d *Device) IsIdle() bool {
	return d.state < Intermediate
}

// IsConnected reports whether a socket is established.
func (d *Device) IsConnected() bool {
	return d.state == Connected
}

// WriteData queues payload for the remote peer and returns how much was
// accepted.
func (d *Device) WriteData(p []byte) (int, error) {
	if d.state != Connected {
		return 0, ErrNotConnected
	}
	return d.writeBuffer.BulkPush(p), nil
}

// ReadData returns payload received from the remote peer. Data received
// before a peer close stays readable.
func (d *Device) ReadData(p []byte) int {
	return d.readBuffer.BulkPull(p)
}

// BytesAvailable returns the amount of received payload ready to read.
func (d *Device) BytesAvailable() int {
	return d.readBuffer.BytesAvailable()
}

// SpaceAvailable returns how much payload WriteData would accept.
func (d *Device) SpaceAvailable() int {
	return d.writeBuffer.SpaceAvailable()
}

// LocalIP returns the address assigned by the network, if any.
func (d *Device) LocalIP() string {
	return d.localIP
}

// RemoteIP returns the address the host resolved to, if any.
func (d *Device) RemoteIP() string {
	return d.ip
}
