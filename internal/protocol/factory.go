// internal/protocol/factory.go
package protocol

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// NewSerialOpener returns an Opener backed by go.bug.st/serial
func NewSerialOpener(logger *zap.Logger) Opener {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(port string, cfg ConnectionConfig) (Transport, error) {
		t, err := OpenSerial(port, cfg, logger)
		if err != nil {
			return nil, err
		}
		return t, nil
	}
}

// ParseParity parses a parity name. Single letter forms (N, O, E, M, S) are accepted.
func ParseParity(s string) (Parity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "n", "":
		return ParityNone, nil
	case "odd", "o":
		return ParityOdd, nil
	case "even", "e":
		return ParityEven, nil
	case "mark", "m":
		return ParityMark, nil
	case "space", "s":
		return ParitySpace, nil
	default:
		return "", fmt.Errorf("invalid parity %q", s)
	}
}

// ValidateConnectionConfig checks that cfg can be applied to a serial port
func ValidateConnectionConfig(cfg ConnectionConfig) error {
	if cfg.BaudRate <= 0 {
		return fmt.Errorf("invalid baud rate %d", cfg.BaudRate)
	}
	if cfg.DataBits < 5 || cfg.DataBits > 8 {
		return fmt.Errorf("invalid data bits %d (must be 5-8)", cfg.DataBits)
	}
	if _, err := ParseParity(string(cfg.Parity)); err != nil {
		return err
	}
	switch cfg.StopBits {
	case 1, 1.5, 2:
	default:
		return fmt.Errorf("invalid stop bits %v (must be 1, 1.5 or 2)", cfg.StopBits)
	}

	if cfg.XonXoff {
		return fmt.Errorf("software flow control is not supported")
	}
	if cfg.RtsCts || cfg.DsrDtr {
		return fmt.Errorf("hardware flow control is not supported")
	}
	if cfg.WriteTimeout != 0 {
		return fmt.Errorf("write timeout is not supported")
	}
	if cfg.InterByteTimeout != 0 {
		return fmt.Errorf("inter-byte timeout is not supported")
	}
	return nil
}
