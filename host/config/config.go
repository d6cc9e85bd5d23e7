// Package config loads host-side settings from JSON.
package config

import (
	"encoding/json"
	"time"

	"gomos/host/serial"
)

// Config holds everything the host needs to reach a machine.
type Config struct {
	// Device is the serial device path.
	Device string `json:"device"`
	// Baud is the line speed. The Agon's VDP fixes its UART at 115200.
	Baud int `json:"baud"`
	// ReadTimeoutMS bounds a single blocking read on the device.
	ReadTimeoutMS int `json:"read_timeout_ms"`
	// CallTimeoutMS bounds a whole command round trip.
	CallTimeoutMS int `json:"call_timeout_ms"`
	// Verbose enables protocol-level logging.
	Verbose bool `json:"verbose"`
}

// LoadConfig parses a JSON configuration and returns a Config
func LoadConfig(jsonData []byte) (*Config, error) {
	var config Config

	err := json.Unmarshal(jsonData, &config)
	if err != nil {
		return nil, err
	}

	// Apply defaults
	applyDefaults(&config)

	return &config, nil
}

// applyDefaults fills in missing configuration values with sensible defaults
func applyDefaults(config *Config) {
	if config.Device == "" {
		config.Device = "/dev/ttyUSB0"
	}
	if config.Baud == 0 {
		config.Baud = 115200
	}
	if config.ReadTimeoutMS == 0 {
		config.ReadTimeoutMS = 50
	}
	if config.CallTimeoutMS == 0 {
		config.CallTimeoutMS = 2000
	}
}

// DefaultConfig returns the configuration for a stock Agon Light 2
func DefaultConfig() *Config {
	return &Config{
		Device:        "/dev/ttyUSB0",
		Baud:          115200,
		ReadTimeoutMS: 50,
		CallTimeoutMS: 2000,
	}
}

// SerialConfig converts the settings into the serial layer's form.
func (c *Config) SerialConfig() *serial.Config {
	return &serial.Config{
		Device:      c.Device,
		Baud:        c.Baud,
		ReadTimeout: c.ReadTimeoutMS,
	}
}

// CallTimeout returns the command round-trip bound as a duration.
func (c *Config) CallTimeout() time.Duration {
	return time.Duration(c.CallTimeoutMS) * time.Millisecond
}
