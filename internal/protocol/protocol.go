// internal/protocol/protocol.go
package protocol

import (
	"io"
	"time"
)

// Transport represents a line oriented link to an instrument
type Transport interface {
	io.Writer

	// ReadLine returns the next line including its terminator. A line cut short by the
	// read timeout is returned as is; nil means nothing arrived before the timeout.
	ReadLine() ([]byte, error)

	// Configure applies the connection settings to the open link.
	Configure(cfg ConnectionConfig) error

	Close() error
}

// Opener opens a transport on the named port
type Opener func(port string, cfg ConnectionConfig) (Transport, error)

// Stats provides transport-level statistics
type Stats struct {
	BytesWritten int64     `json:"bytes_written"`
	BytesRead    int64     `json:"bytes_read"`
	LinesRead    int64     `json:"lines_read"`
	ErrorCount   int64     `json:"error_count"`
	LastActivity time.Time `json:"last_activity"`
}
