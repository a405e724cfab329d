// internal/driver/fidelity/operations.go
package fidelity

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// LaserOn switches the laser emission on.
func (d *Driver) LaserOn() {
	d.fireAndForget(commands.LaserOn)
}

// LaserOff switches the laser emission off.
func (d *Driver) LaserOff() {
	d.fireAndForget(commands.LaserOff)
}

// HighPowerOn enables high power mode.
func (d *Driver) HighPowerOn() {
	d.fireAndForget(commands.HighPowerOn)
}

// HighPowerOff disables high power mode.
func (d *Driver) HighPowerOff() {
	d.fireAndForget(commands.HighPowerOff)
}

// MotorReset resets the positioning motor.
func (d *Driver) MotorReset() {
	d.fireAndForget(commands.MotorReset)
}

// MotorGoTo moves the motor to an absolute position in [-10000, 10000]. Out of range
// positions are refused with a warning; fractional positions are truncated with a warning.
func (d *Driver) MotorGoTo(position float64) {
	if math.IsNaN(position) || position < MotorPositionMin || position > MotorPositionMax {
		d.logger.Warn("Requested motor position is out of range",
			zap.Float64("position", position),
			zap.Int("min", MotorPositionMin),
			zap.Int("max", MotorPositionMax),
		)
		return
	}

	if position != math.Trunc(position) {
		d.logger.Warn("Requested motor position converted to int", zap.Float64("position", position))
	}

	// The instrument may answer; the answer carries nothing we use.
	d.fireAndForget(motorGoTo(int(position)))
}

// ReadVersion queries the identity string and caches the raw response, or clears the
// cache when nothing came back.
func (d *Driver) ReadVersion() (string, bool, error) {
	resp, ok, err := d.SendCommand(commands.Identify, true)
	if err != nil {
		return "", false, err
	}
	if !ok {
		d.version = nil
		return "", false, nil
	}
	d.version = &resp
	return resp, true, nil
}

// EnsureVersion returns the cached identity string, querying the instrument only when
// none is cached.
func (d *Driver) EnsureVersion() (string, bool, error) {
	if v, ok := d.Version(); ok {
		return v, true, nil
	}
	return d.ReadVersion()
}

// ReadDispersion queries the GDD value. No response clears the cache; an unparsable
// response is logged and leaves the cache alone; an out of range value is logged and
// still cached. ok reports whether this call produced a value.
func (d *Driver) ReadDispersion() (float64, bool, error) {
	resp, ok, err := d.SendCommand(commands.Dispersion, true)
	if err != nil {
		return 0, false, err
	}
	if !ok {
		d.dispersion = nil
		return 0, false, nil
	}

	// ErrRange still yields ±Inf or 0, which the range check below handles.
	gdd, err := strconv.ParseFloat(strings.TrimSpace(resp), 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		d.logger.Warn("Dispersion query response is invalid", zap.String("response", resp), zap.Error(err))
		return 0, false, nil
	}
	if gdd < DispersionMin || gdd > DispersionMax {
		d.logger.Warn("Dispersion seems to be out of range",
			zap.Float64("gdd", gdd),
			zap.Float64("min", DispersionMin),
			zap.Float64("max", DispersionMax),
		)
	}

	d.SetDispersion(gdd)
	return gdd, true, nil
}

// ReadPower queries the power level. Values outside [0, 3], unparsable responses and
// missing responses are logged and leave the cache alone.
func (d *Driver) ReadPower() (int, bool, error) {
	resp, ok, err := d.SendCommand(commands.Power, true)
	if err != nil {
		return 0, false, err
	}
	if !ok {
		d.logger.Warn("Power query got no response")
		return 0, false, nil
	}

	power, err := strconv.Atoi(strings.TrimSpace(resp))
	if err != nil {
		d.logger.Warn("Power query response is invalid", zap.String("response", resp), zap.Error(err))
		return 0, false, nil
	}
	if power < PowerMin || power > PowerMax {
		d.logger.Warn("Power seems to be out of range",
			zap.Int("power", power),
			zap.Int("min", PowerMin),
			zap.Int("max", PowerMax),
		)
		return power, false, nil
	}

	d.SetPower(power)
	return power, true, nil
}

// IsMotorHomed reports whether the instrument answered exactly "1".
func (d *Driver) IsMotorHomed() (bool, error) {
	resp, _, err := d.SendCommand(commands.MotorHomed, true)
	if err != nil {
		return false, err
	}
	return resp == "1", nil
}

// Presets returns the raw presets listing. Nothing is cached.
func (d *Driver) Presets() (string, bool, error) {
	return d.SendCommand(commands.Presets, true)
}

// SwitchToStandby is reserved for a future instrument mode.
func (d *Driver) SwitchToStandby() error {
	return fmt.Errorf("switch to standby: %w", ErrNotImplemented)
}

// SwitchToOn is reserved for a future instrument mode.
func (d *Driver) SwitchToOn() error {
	return fmt.Errorf("switch to on: %w", ErrNotImplemented)
}

// SwitchToHighPower is reserved for a future instrument mode.
func (d *Driver) SwitchToHighPower() error {
	return fmt.Errorf("switch to high power: %w", ErrNotImplemented)
}

// SwitchToAlignment is reserved for a future instrument mode.
func (d *Driver) SwitchToAlignment() error {
	return fmt.Errorf("switch to alignment: %w", ErrNotImplemented)
}

func (d *Driver) fireAndForget(cmd []byte) {
	// Responses are discarded undecoded, so this cannot fail.
	_, _, _ = d.SendCommand(cmd, false)
}
