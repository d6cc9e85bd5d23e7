//go:build !wasm

package serial

import (
	"fmt"
	"io"
	"time"

	"github.com/tarm/serial"
)

// NativePort drives a real serial device through tarm/serial.
type NativePort struct {
	port *serial.Port
	cfg  *Config
}

// Open opens the serial device named in cfg.
func Open(cfg *Config) (Port, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	port, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		ReadTimeout: time.Duration(cfg.ReadTimeout) * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", cfg.Device, err)
	}

	return &NativePort{port: port, cfg: cfg}, nil
}

// Read polls the device. A ReadTimeout expiry surfaces from the tty
// layer as io.EOF; a serial line has no end, so that becomes an empty
// read and the caller polls again.
func (p *NativePort) Read(b []byte) (int, error) {
	n, err := p.port.Read(b)
	if err == io.EOF {
		return n, nil
	}
	return n, err
}

func (p *NativePort) Write(b []byte) (int, error) {
	return p.port.Write(b)
}

func (p *NativePort) Close() error {
	if p.port != nil {
		return p.port.Close()
	}
	return nil
}

// Flush is a no-op; tarm/serial writes through unbuffered.
func (p *NativePort) Flush() error {
	return nil
}
