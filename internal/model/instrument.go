// internal/model/instrument.go
package model

// ConnectionState represents the observable link state of the instrument
type ConnectionState string

const (
	StateDisconnected      ConnectionState = "DISCONNECTED"
	StateConnectedVerified ConnectionState = "CONNECTED_VERIFIED"
)

// Valid reports whether s is a known state
func (s ConnectionState) Valid() bool {
	switch s {
	case StateDisconnected, StateConnectedVerified:
		return true
	}
	return false
}

// InstrumentStatus is a snapshot of the driver's cached instrument readings.
// Nil fields have not been read or were invalid.
type InstrumentStatus struct {
	Port       string          `json:"port"`
	State      ConnectionState `json:"state"`
	Version    *string         `json:"version,omitempty"`
	Dispersion *float64        `json:"dispersion,omitempty"`
	Power      *int            `json:"power,omitempty"`
}

// IsConnected reports whether the snapshot was taken on a verified link
func (s *InstrumentStatus) IsConnected() bool {
	return s.State == StateConnectedVerified
}
