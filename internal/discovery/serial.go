// internal/discovery/serial.go
package discovery

import (
	"fmt"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
	"go.uber.org/zap"
)

// SerialPortLister lists ports through go.bug.st/serial
type SerialPortLister struct {
	logger *zap.Logger
}

// NewSerialPortLister creates a new serial port lister
func NewSerialPortLister(logger *zap.Logger) *SerialPortLister {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SerialPortLister{
		logger: logger.With(zap.String("scanner", "serial")),
	}
}

// ListPorts returns the host's serial ports in enumeration order
func (l *SerialPortLister) ListPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to get serial ports: %w", err)
	}

	if len(ports) == 0 {
		l.logger.Info("No serial ports found")
		return ports, nil
	}

	l.logger.Debug("Found serial ports", zap.Strings("ports", ports))
	return ports, nil
}

// DetailedPorts returns the host's serial ports with USB identity where available
func DetailedPorts() ([]PortDetails, error) {
	list, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate serial ports: %w", err)
	}

	ports := make([]PortDetails, 0, len(list))
	for _, p := range list {
		ports = append(ports, PortDetails{
			Name:         p.Name,
			IsUSB:        p.IsUSB,
			VID:          p.VID,
			PID:          p.PID,
			SerialNumber: p.SerialNumber,
			Product:      p.Product,
		})
	}
	return ports, nil
}
