package protocol

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"go.bug.st/serial"
	"go.uber.org/zap"
)

// fakePort implements the parts of serial.Port the transport uses.
type fakePort struct {
	serial.Port

	reads   []string
	written []byte
	mode    *serial.Mode
	timeout time.Duration
	closed  bool
}

func (p *fakePort) SetMode(mode *serial.Mode) error {
	p.mode = mode
	return nil
}

func (p *fakePort) SetReadTimeout(t time.Duration) error {
	p.timeout = t
	return nil
}

func (p *fakePort) Read(b []byte) (int, error) {
	if len(p.reads) == 0 {
		return 0, nil
	}
	n := copy(b, p.reads[0])
	p.reads = p.reads[1:]
	return n, nil
}

func (p *fakePort) Write(b []byte) (int, error) {
	p.written = append(p.written, b...)
	return len(b), nil
}

func (p *fakePort) Close() error {
	p.closed = true
	return nil
}

func TestSerialTransportConfigure(t *testing.T) {
	port := &fakePort{}
	tr := newSerialTransport("/dev/ttyUSB0", port, zap.NewNop())

	cfg := DefaultConnectionConfig()
	cfg.Parity = ParityEven
	cfg.StopBits = 2
	if err := tr.Configure(cfg); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}

	if port.mode == nil {
		t.Fatal("Configure() did not set the serial mode")
	}
	if port.mode.BaudRate != 9600 || port.mode.DataBits != 8 {
		t.Errorf("mode = %+v, want 9600 baud 8 data bits", port.mode)
	}
	if port.mode.Parity != serial.EvenParity {
		t.Errorf("parity = %v, want EvenParity", port.mode.Parity)
	}
	if port.mode.StopBits != serial.TwoStopBits {
		t.Errorf("stop bits = %v, want TwoStopBits", port.mode.StopBits)
	}
	if port.timeout != 500*time.Millisecond {
		t.Errorf("read timeout = %v, want 500ms", port.timeout)
	}
}

func TestSerialTransportConfigureParity(t *testing.T) {
	tests := []struct {
		parity Parity
		want   serial.Parity
	}{
		{ParityNone, serial.NoParity},
		{ParityOdd, serial.OddParity},
		{ParityEven, serial.EvenParity},
		{ParityMark, serial.MarkParity},
		{ParitySpace, serial.SpaceParity},
		{Parity("N"), serial.NoParity},
		{Parity("O"), serial.OddParity},
		{Parity("E"), serial.EvenParity},
		{Parity("M"), serial.MarkParity},
		{Parity("S"), serial.SpaceParity},
		{Parity("Even"), serial.EvenParity},
		{Parity(""), serial.NoParity},
	}

	for _, tt := range tests {
		t.Run(string(tt.parity), func(t *testing.T) {
			port := &fakePort{}
			tr := newSerialTransport("/dev/ttyUSB0", port, zap.NewNop())

			cfg := DefaultConnectionConfig()
			cfg.Parity = tt.parity
			if err := tr.Configure(cfg); err != nil {
				t.Fatalf("Configure() error = %v", err)
			}
			if port.mode.Parity != tt.want {
				t.Errorf("parity = %v, want %v", port.mode.Parity, tt.want)
			}
		})
	}
}

func TestSerialTransportConfigureBlockingTimeout(t *testing.T) {
	port := &fakePort{}
	tr := newSerialTransport("COM3", port, zap.NewNop())

	cfg := DefaultConnectionConfig()
	cfg.ReadTimeout = -1
	if err := tr.Configure(cfg); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}
	if port.timeout != serial.NoTimeout {
		t.Errorf("read timeout = %v, want serial.NoTimeout", port.timeout)
	}
}

func TestSerialTransportConfigureRejectsFlowControl(t *testing.T) {
	port := &fakePort{}
	tr := newSerialTransport("COM3", port, zap.NewNop())

	cfg := DefaultConnectionConfig()
	cfg.RtsCts = true
	if err := tr.Configure(cfg); err == nil {
		t.Fatal("Configure() error = nil, want unsupported flow control error")
	}
	if port.mode != nil {
		t.Error("Configure() applied a mode despite invalid settings")
	}
}

func TestSerialTransportReadWrite(t *testing.T) {
	port := &fakePort{reads: []string{"FIDELITY", " v2.1\r\n"}}
	tr := newSerialTransport("/dev/ttyUSB0", port, zap.NewNop())

	if _, err := tr.Write([]byte("IDN?\r\n")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if string(port.written) != "IDN?\r\n" {
		t.Errorf("written = %q, want %q", port.written, "IDN?\r\n")
	}

	line, err := tr.ReadLine()
	if err != nil {
		t.Fatalf("ReadLine() error = %v", err)
	}
	if string(line) != "FIDELITY v2.1\r\n" {
		t.Errorf("ReadLine() = %q, want %q", line, "FIDELITY v2.1\r\n")
	}
	if line, _ := tr.ReadLine(); line != nil {
		t.Errorf("ReadLine() after data = %q, want nil", line)
	}

	stats := tr.Stats()
	if stats.BytesWritten != 6 || stats.BytesRead != 15 || stats.LinesRead != 1 {
		t.Errorf("stats = %+v, want 6 written, 15 read, 1 line", stats)
	}

	if err := tr.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !port.closed {
		t.Error("Close() did not close the port")
	}
}

func TestOpenSerialRequiresPort(t *testing.T) {
	if _, err := OpenSerial("", DefaultConnectionConfig(), zap.NewNop()); err == nil {
		t.Fatal("OpenSerial(\"\") error = nil, want error")
	}
}

func TestNewSerialOpenerReturnsNilTransportOnError(t *testing.T) {
	open := NewSerialOpener(nil)
	tr, err := open("", DefaultConnectionConfig())
	if err == nil {
		t.Fatal("open error = nil, want error")
	}
	if tr != nil {
		t.Errorf("open transport = %#v, want nil interface", tr)
	}
}

func TestIsPortBusy(t *testing.T) {
	if IsPortBusy(errors.New("plain")) {
		t.Error("IsPortBusy(plain error) = true, want false")
	}

	portErr := &serial.PortError{}
	wrapped := fmt.Errorf("failed to open serial port: %w", portErr)
	if got, want := IsPortBusy(wrapped), portErr.Code() == serial.PortBusy; got != want {
		t.Errorf("IsPortBusy(wrapped PortError) = %v, want %v", got, want)
	}
}
