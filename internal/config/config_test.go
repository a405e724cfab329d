package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"fidelity-driver/internal/protocol"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	conn, err := cfg.Serial.ConnectionConfig()
	if err != nil {
		t.Fatalf("ConnectionConfig() error = %v", err)
	}
	if conn != protocol.DefaultConnectionConfig() {
		t.Errorf("ConnectionConfig() = %+v, want defaults %+v", conn, protocol.DefaultConnectionConfig())
	}
	if !cfg.Device.ScanOnFailure {
		t.Error("device.scan_on_failure default = false, want true")
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Output != "stderr" {
		t.Errorf("logging = %+v, want info to stderr", cfg.Logging)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
serial:
  port: /dev/ttyUSB3
  baud_rate: 19200
  parity: E
  stop_bits: 2
  read_timeout: 1s
device:
  scan_on_failure: false
logging:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Serial.Port != "/dev/ttyUSB3" {
		t.Errorf("serial.port = %q, want /dev/ttyUSB3", cfg.Serial.Port)
	}
	conn, err := cfg.Serial.ConnectionConfig()
	if err != nil {
		t.Fatalf("ConnectionConfig() error = %v", err)
	}
	if conn.BaudRate != 19200 || conn.Parity != protocol.ParityEven || conn.StopBits != 2 {
		t.Errorf("ConnectionConfig() = %+v, want 19200 E 2", conn)
	}
	if conn.ReadTimeout != time.Second {
		t.Errorf("read timeout = %v, want 1s", conn.ReadTimeout)
	}
	if conn.DataBits != 8 {
		t.Errorf("data bits = %d, want default 8", conn.DataBits)
	}
	if cfg.Device.ScanOnFailure {
		t.Error("device.scan_on_failure = true, want false")
	}
	if cfg.IsDebugEnabled() {
		t.Error("IsDebugEnabled() = true for production without app.debug")
	}
}

func TestLoadEnvironmentOverride(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("FIDELITY_SERIAL_PORT", "COM7")
	t.Setenv("FIDELITY_SERIAL_READ_TIMEOUT", "250ms")
	t.Setenv("FIDELITY_LOGGING_LEVEL", "warn")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Serial.Port != "COM7" {
		t.Errorf("serial.port = %q, want COM7", cfg.Serial.Port)
	}
	if cfg.Serial.ReadTimeout != 250*time.Millisecond {
		t.Errorf("serial.read_timeout = %v, want 250ms", cfg.Serial.ReadTimeout)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("logging.level = %q, want warn", cfg.Logging.Level)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("Load(missing file) error = nil, want error")
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad parity", "serial:\n  parity: sideways\n"},
		{"bad data bits", "serial:\n  data_bits: 9\n"},
		{"flow control", "serial:\n  rtscts: true\n"},
		{"write timeout", "serial:\n  write_timeout: 1s\n"},
		{"bad level", "logging:\n  level: verbose\n"},
		{"bad format", "logging:\n  format: xml\n"},
		{"bad environment", "app:\n  environment: moon\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.body)); err == nil {
				t.Errorf("Load() error = nil, want validation error")
			}
		})
	}
}
