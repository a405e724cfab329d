// internal/discovery/scanner.go
package discovery

import (
	"fmt"
	"strings"
)

// PortLister enumerates the serial port identifiers visible to the host
type PortLister interface {
	ListPorts() ([]string, error)
}

// PortListerFunc adapts a plain function to PortLister
type PortListerFunc func() ([]string, error)

// ListPorts calls f
func (f PortListerFunc) ListPorts() ([]string, error) {
	return f()
}

// StaticPorts is a PortLister over a fixed list, in the given order
type StaticPorts []string

// ListPorts returns a copy of the list
func (s StaticPorts) ListPorts() ([]string, error) {
	return append([]string(nil), s...), nil
}

// PortDetails describes an enumerated serial port
type PortDetails struct {
	Name         string `json:"name"`
	IsUSB        bool   `json:"is_usb"`
	VID          string `json:"vid,omitempty"`
	PID          string `json:"pid,omitempty"`
	SerialNumber string `json:"serial_number,omitempty"`
	Product      string `json:"product,omitempty"`
}

// USBID returns "vid:pid" for USB ports and "" otherwise
func (p PortDetails) USBID() string {
	if !p.IsUSB {
		return ""
	}
	return fmt.Sprintf("%s:%s", strings.ToLower(p.VID), strings.ToLower(p.PID))
}
