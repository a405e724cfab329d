// internal/protocol/serial_connection.go
package protocol

import (
	"errors"
	"fmt"
	"time"

	"go.bug.st/serial"
	"go.uber.org/zap"
)

// SerialTransport implements Transport for serial ports
type SerialTransport struct {
	name   string
	port   serial.Port
	lines  *lineReader
	logger *zap.Logger
	stats  Stats
}

// OpenSerial opens the named serial port. The port is opened with the mode derived from
// cfg; callers still apply cfg with Configure to set the read timeout.
func OpenSerial(name string, cfg ConnectionConfig, logger *zap.Logger) (*SerialTransport, error) {
	if name == "" {
		return nil, fmt.Errorf("port is required")
	}

	mode, err := serialMode(cfg)
	if err != nil {
		return nil, err
	}

	logger = logger.With(
		zap.String("protocol", "serial"),
		zap.String("port", name),
	)
	logger.Debug("Opening serial port", zap.Int("baud_rate", cfg.BaudRate))

	port, err := serial.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port: %w", err)
	}

	return newSerialTransport(name, port, logger), nil
}

func newSerialTransport(name string, port serial.Port, logger *zap.Logger) *SerialTransport {
	t := &SerialTransport{
		name:   name,
		port:   port,
		logger: logger,
	}
	t.lines = newLineReader(countingReader{t})
	return t
}

// Configure applies mode and read timeout to the open port
func (t *SerialTransport) Configure(cfg ConnectionConfig) error {
	mode, err := serialMode(cfg)
	if err != nil {
		return err
	}
	if err := t.port.SetMode(mode); err != nil {
		return fmt.Errorf("failed to set serial mode: %w", err)
	}

	timeout := cfg.ReadTimeout
	if timeout < 0 {
		timeout = serial.NoTimeout
	}
	if err := t.port.SetReadTimeout(timeout); err != nil {
		return fmt.Errorf("failed to set read timeout: %w", err)
	}

	t.logger.Debug("Serial settings applied",
		zap.Int("baud_rate", cfg.BaudRate),
		zap.Int("data_bits", cfg.DataBits),
		zap.String("parity", string(cfg.Parity)),
		zap.Float64("stop_bits", cfg.StopBits),
		zap.Duration("read_timeout", cfg.ReadTimeout),
	)
	return nil
}

// Write writes data to the serial port
func (t *SerialTransport) Write(data []byte) (int, error) {
	n, err := t.port.Write(data)
	if err != nil {
		t.stats.ErrorCount++
		return n, fmt.Errorf("failed to write to serial port: %w", err)
	}
	if n != len(data) {
		t.stats.ErrorCount++
		return n, fmt.Errorf("incomplete write: wrote %d of %d bytes", n, len(data))
	}

	t.stats.BytesWritten += int64(n)
	t.stats.LastActivity = time.Now()
	return n, nil
}

// ReadLine reads one line, bounded by the configured read timeout
func (t *SerialTransport) ReadLine() ([]byte, error) {
	line, err := t.lines.ReadLine()
	if err != nil {
		t.stats.ErrorCount++
		return line, fmt.Errorf("failed to read from serial port: %w", err)
	}
	if len(line) > 0 {
		t.stats.LinesRead++
		t.stats.LastActivity = time.Now()
	}
	return line, nil
}

// Close closes the serial port
func (t *SerialTransport) Close() error {
	if err := t.port.Close(); err != nil {
		return fmt.Errorf("failed to close serial port: %w", err)
	}
	t.logger.Debug("Serial port closed",
		zap.Int64("bytes_written", t.stats.BytesWritten),
		zap.Int64("bytes_read", t.stats.BytesRead),
		zap.Int64("lines_read", t.stats.LinesRead),
	)
	return nil
}

// Name returns the serial port name
func (t *SerialTransport) Name() string {
	return t.name
}

// Stats returns a copy of the transport statistics
func (t *SerialTransport) Stats() Stats {
	return t.stats
}

// IsPortBusy reports whether err says the port is held by another handle
func IsPortBusy(err error) bool {
	var portErr *serial.PortError
	if errors.As(err, &portErr) {
		return portErr.Code() == serial.PortBusy
	}
	return false
}

// countingReader feeds the line reader and keeps the byte count.
type countingReader struct {
	t *SerialTransport
}

func (r countingReader) Read(p []byte) (int, error) {
	n, err := r.t.port.Read(p)
	r.t.stats.BytesRead += int64(n)
	return n, err
}

// serialMode converts cfg to a go.bug.st mode
func serialMode(cfg ConnectionConfig) (*serial.Mode, error) {
	if err := ValidateConnectionConfig(cfg); err != nil {
		return nil, err
	}
	parity, err := ParseParity(string(cfg.Parity))
	if err != nil {
		return nil, err
	}

	mode := &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: cfg.DataBits,
		// DTR and RTS stay asserted when no hardware handshake is requested.
		InitialStatusBits: &serial.ModemOutputBits{
			DTR: true,
			RTS: true,
		},
	}

	switch parity {
	case ParityOdd:
		mode.Parity = serial.OddParity
	case ParityEven:
		mode.Parity = serial.EvenParity
	case ParityMark:
		mode.Parity = serial.MarkParity
	case ParitySpace:
		mode.Parity = serial.SpaceParity
	default:
		mode.Parity = serial.NoParity
	}

	switch cfg.StopBits {
	case 1.5:
		mode.StopBits = serial.OnePointFiveStopBits
	case 2:
		mode.StopBits = serial.TwoStopBits
	default:
		mode.StopBits = serial.OneStopBit
	}

	return mode, nil
}
