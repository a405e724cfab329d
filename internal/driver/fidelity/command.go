// internal/driver/fidelity/command.go
package fidelity

import "fmt"

// terminator ends every command line sent to the instrument.
const terminator = "\r\n"

// Valid ranges reported and accepted by the instrument.
const (
	MotorPositionMin = -10000
	MotorPositionMax = 10000

	DispersionMin = -100000.0
	DispersionMax = 100000.0

	PowerMin = 0
	PowerMax = 3
)

// commands contains the fixed command lines understood by the instrument
var commands = struct {
	LaserOn      []byte
	LaserOff     []byte
	HighPowerOn  []byte
	HighPowerOff []byte
	MotorReset   []byte
	Identify     []byte
	Dispersion   []byte
	Power        []byte
	MotorHomed   []byte
	Presets      []byte
}{
	LaserOn:      line("laseron=1"),
	LaserOff:     line("laseron=0"),
	HighPowerOn:  line("hpon=1"),
	HighPowerOff: line("hpon=0"),
	MotorReset:   line("motorreset"),
	Identify:     line("IDN?"),
	Dispersion:   line("GDD?"),
	Power:        line("power?"),
	MotorHomed:   line("motorhomed?"),
	Presets:      line("presets?"),
}

// motorGoTo builds the absolute motor positioning command
func motorGoTo(position int) []byte {
	return line(fmt.Sprintf("motorgoto=%d", position))
}

func line(cmd string) []byte {
	return []byte(cmd + terminator)
}

// commandName strips the terminator for log fields and errors.
func commandName(cmd []byte) string {
	n := len(cmd)
	for n > 0 && (cmd[n-1] == '\r' || cmd[n-1] == '\n') {
		n--
	}
	return string(cmd[:n])
}
