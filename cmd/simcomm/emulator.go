package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/creack/pty"
	"i4.energy/across/simcomm/internal/fakemodem"
)

// emulator attaches a fake SIM800 to the master side of a pseudo terminal.
// The slave side is opened like any serial port.
type emulator struct {
	master, slave *os.File
	fake          *fakemodem.Modem
}

func startEmulator(logger *slog.Logger) (*emulator, error) {
	master, slave, err := pty.Open()
	if err != nil {
		return nil, err
	}

	fake := fakemodem.New()
	fake.AddHost("echo.local", "192.0.2.1")
	fake.SetEcho(true)

	e := &emulator{master: master, slave: slave, fake: fake}
	go func() {
		if _, err := io.Copy(fake, master); err != nil {
			logger.Debug("emulator input stopped", "error", err)
		}
	}()
	go func() {
		if _, err := io.Copy(master, fake); err != nil {
			logger.Debug("emulator output stopped", "error", err)
		}
	}()
	return e, nil
}

// Name returns the serial device path of the emulated modem.
func (e *emulator) Name() string {
	return e.slave.Name()
}

func (e *emulator) Close() error {
	e.fake.Close()
	e.slave.Close()
	return e.master.Close()
}
