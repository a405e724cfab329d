package fidelity

import (
	"errors"
	"fmt"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"fidelity-driver/internal/discovery"
	"fidelity-driver/internal/protocol"
)

// mockTransport answers each written command with scripted lines.
type mockTransport struct {
	replies map[string][]string // full command line -> lines to return

	pending    []string
	writes     []string
	configured []protocol.ConnectionConfig
	closed     bool

	writeErr     error
	readErr      error
	configureErr error
	closeErr     error
}

func newMockTransport(replies map[string][]string) *mockTransport {
	if replies == nil {
		replies = map[string][]string{}
	}
	return &mockTransport{replies: replies}
}

// instrument returns a transport that behaves like a healthy instrument.
func instrument() *mockTransport {
	return newMockTransport(map[string][]string{
		"IDN?\r\n": {"FIDELITY HP 2.1\r\n"},
		"GDD?\r\n": {"42.5\r\n"},
	})
}

func (m *mockTransport) Write(p []byte) (int, error) {
	if m.writeErr != nil {
		return 0, m.writeErr
	}
	m.writes = append(m.writes, string(p))
	m.pending = append([]string(nil), m.replies[string(p)]...)
	return len(p), nil
}

func (m *mockTransport) ReadLine() ([]byte, error) {
	if len(m.pending) == 0 {
		if m.readErr != nil {
			return nil, m.readErr
		}
		return nil, nil
	}
	l := m.pending[0]
	m.pending = m.pending[1:]
	return []byte(l), nil
}

func (m *mockTransport) Configure(cfg protocol.ConnectionConfig) error {
	if m.configureErr != nil {
		return m.configureErr
	}
	m.configured = append(m.configured, cfg)
	return nil
}

func (m *mockTransport) Close() error {
	m.closed = true
	return m.closeErr
}

// bench is a set of named ports with scripted transports.
type bench struct {
	order    []string
	ports    map[string]*mockTransport
	failOpen map[string]int // number of opens that fail before succeeding
	opened   []string
}

func newBench() *bench {
	return &bench{
		ports:    map[string]*mockTransport{},
		failOpen: map[string]int{},
	}
}

func (b *bench) add(name string, t *mockTransport) *mockTransport {
	b.order = append(b.order, name)
	b.ports[name] = t
	return t
}

func (b *bench) open(port string, cfg protocol.ConnectionConfig) (protocol.Transport, error) {
	b.opened = append(b.opened, port)
	if b.failOpen[port] > 0 {
		b.failOpen[port]--
		return nil, errors.New("port busy")
	}
	t, ok := b.ports[port]
	if !ok {
		return nil, fmt.Errorf("no such port %s", port)
	}
	t.closed = false
	return t, nil
}

func (b *bench) lister() discovery.PortLister {
	return discovery.StaticPorts(b.order)
}

func (b *bench) openCount(port string) int {
	n := 0
	for _, p := range b.opened {
		if p == port {
			n++
		}
	}
	return n
}

// newTestDriver builds a driver on b and returns the observed log entries.
func newTestDriver(t *testing.T, b *bench, opts ...Option) (*Driver, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	opts = append([]Option{WithOpener(b.open), WithPortLister(b.lister())}, opts...)
	return New(zap.New(core), opts...), logs
}

// connectedDriver returns a driver holding t on /dev/ttyUSB0, without verification.
func connectedDriver(t *testing.T, tr *mockTransport) (*Driver, *observer.ObservedLogs) {
	t.Helper()
	b := newBench()
	b.add("/dev/ttyUSB0", tr)
	d, logs := newTestDriver(t, b)
	if !d.OpenPort("/dev/ttyUSB0") {
		t.Fatal("OpenPort() = false, want true")
	}
	return d, logs
}

func warnings(logs *observer.ObservedLogs, message string) int {
	return logs.FilterLevelExact(zapcore.WarnLevel).FilterMessage(message).Len()
}
