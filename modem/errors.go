package modem

import "errors"

var (
	// ErrNoDialer is returned when a Modem is constructed without a Dialer.
	//
	// This indicates a configuration error. A Dialer is required in order to
	// establish a connection to the modem.
	ErrNoDialer = errors.New("no dialer configured")

	// ErrNotInitialized is returned when an operation is attempted on a Modem
	// that has not been successfully initialized.
	//
	// This can occur if the Dialer returned no Transport or if the Modem was
	// not created via New.
	ErrNotInitialized = errors.New("modem not initialized")

	// ErrAlreadyClosed is returned when Close is called on a Modem that has
	// already been closed.
	ErrAlreadyClosed = errors.New("modem already closed")

	// ErrLoopRunning is returned when Loop is called while another Loop is
	// still active.
	ErrLoopRunning = errors.New("modem loop already running")

	// ErrNoAPN is returned by Connect when no access point name has been
	// configured. No command is sent to the modem.
	ErrNoAPN = errors.New("no APN configured")

	// ErrNoHost is returned by Connect when the remote host or port is
	// missing.
	ErrNoHost = errors.New("no host configured")

	// ErrBusy is returned by Connect while a previous connection is still
	// being set up or torn down.
	ErrBusy = errors.New("connection in progress")

	// ErrNotConnected is returned when payload is offered while no socket is
	// established.
	ErrNotConnected = errors.New("not connected")

	// ErrInvalidBufferSizes is returned by Build and New when the serial
	// receive ring is smaller than the transmit ring. A receive grant is
	// sized from the outbound space, so the whole payload must fit inbound.
	ErrInvalidBufferSizes = errors.New("receive buffer smaller than transmit buffer")

	// ErrCommandTooLong is returned by Connect when the host or the APN
	// settings would produce a command larger than the serial transmit ring.
	ErrCommandTooLong = errors.New("command exceeds serial buffer")
)
