// internal/protocol/connection.go
package protocol

import "time"

// Parity represents the serial parity setting
type Parity string

const (
	ParityNone  Parity = "none"
	ParityOdd   Parity = "odd"
	ParityEven  Parity = "even"
	ParityMark  Parity = "mark"
	ParitySpace Parity = "space"
)

// ConnectionConfig represents serial link configuration.
// A zero WriteTimeout or InterByteTimeout means none; a negative ReadTimeout blocks forever.
type ConnectionConfig struct {
	BaudRate         int           `json:"baud_rate"`
	DataBits         int           `json:"data_bits"`
	Parity           Parity        `json:"parity"`
	StopBits         float64       `json:"stop_bits"`
	XonXoff          bool          `json:"xonxoff"`
	RtsCts           bool          `json:"rtscts"`
	DsrDtr           bool          `json:"dsrdtr"`
	ReadTimeout      time.Duration `json:"read_timeout"`
	WriteTimeout     time.Duration `json:"write_timeout"`
	InterByteTimeout time.Duration `json:"inter_byte_timeout"`
}

// DefaultConnectionConfig returns the settings the instrument ships with: 9600 8N1,
// no flow control and a 500ms line read timeout.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		BaudRate:    9600,
		DataBits:    8,
		Parity:      ParityNone,
		StopBits:    1,
		ReadTimeout: 500 * time.Millisecond,
	}
}
