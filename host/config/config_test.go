package config

import (
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	jsonData := []byte(`{
		"device": "/dev/ttyACM1",
		"baud": 57600,
		"read_timeout_ms": 100,
		"call_timeout_ms": 5000,
		"verbose": true
	}`)

	cfg, err := LoadConfig(jsonData)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Device != "/dev/ttyACM1" {
		t.Errorf("Expected device /dev/ttyACM1, got %s", cfg.Device)
	}
	if cfg.Baud != 57600 {
		t.Errorf("Expected baud 57600, got %d", cfg.Baud)
	}
	if cfg.ReadTimeoutMS != 100 {
		t.Errorf("Expected read timeout 100, got %d", cfg.ReadTimeoutMS)
	}
	if cfg.CallTimeoutMS != 5000 {
		t.Errorf("Expected call timeout 5000, got %d", cfg.CallTimeoutMS)
	}
	if !cfg.Verbose {
		t.Error("Expected verbose to be true")
	}
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	cfg, err := LoadConfig([]byte(`{"device": "/dev/ttyACM1"}`))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Device != "/dev/ttyACM1" {
		t.Errorf("Expected device /dev/ttyACM1, got %s", cfg.Device)
	}
	if cfg.Baud != 115200 {
		t.Errorf("Expected default baud 115200, got %d", cfg.Baud)
	}
	if cfg.ReadTimeoutMS != 50 {
		t.Errorf("Expected default read timeout 50, got %d", cfg.ReadTimeoutMS)
	}
	if cfg.CallTimeoutMS != 2000 {
		t.Errorf("Expected default call timeout 2000, got %d", cfg.CallTimeoutMS)
	}
	if cfg.Verbose {
		t.Error("Expected verbose to default to false")
	}
}

func TestLoadConfigInvalidJSON(t *testing.T) {
	if _, err := LoadConfig([]byte(`{"device": `)); err == nil {
		t.Error("Expected an error for truncated JSON")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Device != "/dev/ttyUSB0" {
		t.Errorf("Expected device /dev/ttyUSB0, got %s", cfg.Device)
	}
	if cfg.Baud != 115200 {
		t.Errorf("Expected baud 115200, got %d", cfg.Baud)
	}
}

func TestSerialConfig(t *testing.T) {
	cfg := &Config{Device: "COM3", Baud: 9600, ReadTimeoutMS: 25}
	sc := cfg.SerialConfig()

	if sc.Device != "COM3" {
		t.Errorf("Expected device COM3, got %s", sc.Device)
	}
	if sc.Baud != 9600 {
		t.Errorf("Expected baud 9600, got %d", sc.Baud)
	}
	if sc.ReadTimeout != 25 {
		t.Errorf("Expected read timeout 25, got %d", sc.ReadTimeout)
	}
}

func TestCallTimeout(t *testing.T) {
	cfg := &Config{CallTimeoutMS: 1500}
	if got := cfg.CallTimeout(); got != 1500*time.Millisecond {
		t.Errorf("Expected 1.5s, got %v", got)
	}
}
