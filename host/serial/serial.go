package serial

import "io"

// Port is a byte-stream connection to an Agon machine. Implementations
// cover a native serial device, the in-process simulator, and test
// doubles.
type Port interface {
	io.ReadWriteCloser

	// Flush pushes any buffered writes to the device.
	Flush() error
}

// Config holds serial port settings.
type Config struct {
	// Device path, e.g. "/dev/ttyUSB0" or "COM3".
	Device string

	// Baud rate. The MOS console runs at 115200 by default.
	Baud int

	// Read timeout in milliseconds, 0 for blocking reads.
	ReadTimeout int
}

// DefaultConfig returns the standard settings for an Agon console link
// on the given device.
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        115200,
		ReadTimeout: 50,
	}
}
