// internal/driver/fidelity/fidelity_driver.go
package fidelity

import (
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"fidelity-driver/internal/discovery"
	"fidelity-driver/internal/model"
	"fidelity-driver/internal/protocol"
	"fidelity-driver/internal/utils"
)

// Driver controls one Fidelity laser instrument over a serial link.
//
// A Driver is not safe for concurrent use. Communication failures are logged and
// absorbed; callers learn about them from return values and the cached readings.
type Driver struct {
	config        protocol.ConnectionConfig
	opener        protocol.Opener
	lister        discovery.PortLister
	logger        *utils.DeviceLogger
	scanOnFailure bool

	port      string
	transport protocol.Transport
	verified  bool

	version    *string
	dispersion *float64
	power      *int
}

// Option configures a Driver.
type Option func(*Driver)

// WithConnectionConfig replaces the default serial settings.
func WithConnectionConfig(cfg protocol.ConnectionConfig) Option {
	return func(d *Driver) { d.config = cfg }
}

// WithOpener sets how transports are opened. The default opens go.bug.st serial ports.
func WithOpener(opener protocol.Opener) Option {
	return func(d *Driver) { d.opener = opener }
}

// WithPortLister sets the port enumeration used by ScanForPort.
func WithPortLister(lister discovery.PortLister) Option {
	return func(d *Driver) { d.lister = lister }
}

// WithPort presets the port used by Connect("") without opening it.
func WithPort(port string) Option {
	return func(d *Driver) { d.port = port }
}

// WithScanOnFailure controls whether Connect falls back to scanning all ports.
func WithScanOnFailure(scan bool) Option {
	return func(d *Driver) { d.scanOnFailure = scan }
}

// New creates a disconnected driver. No I/O happens until Connect, OpenPort or
// ScanForPort is called.
func New(logger *zap.Logger, opts ...Option) *Driver {
	if logger == nil {
		logger = zap.NewNop()
	}

	d := &Driver{
		config:        protocol.DefaultConnectionConfig(),
		scanOnFailure: true,
	}
	for _, opt := range opts {
		opt(d)
	}

	d.logger = utils.NewDeviceLogger(logger, "fidelity")
	if d.opener == nil {
		d.opener = protocol.NewSerialOpener(logger)
	}
	if d.lister == nil {
		d.lister = discovery.NewSerialPortLister(logger)
	}
	return d
}

// Connect opens and verifies port, or the preset port when port is empty. When that
// fails, or no port is known at all, every host port is scanned unless scanning was
// disabled. It reports whether the driver ended up connected to a verified instrument.
func (d *Driver) Connect(port string) bool {
	if port != "" || d.port != "" {
		if d.OpenPort(port) {
			ok, err := d.IsVerified()
			if err != nil {
				d.logger.Warn("Verification failed", zap.String("port", d.port), zap.Error(err))
			}
			if ok {
				d.logger.Info("Connection to Fidelity successful", zap.String("port", d.port))
				return true
			}
			d.closeTransport()
		}
		d.logger.Warn("Connection to Fidelity unsuccessful", zap.String("port", d.port), zap.Bool("scan", d.scanOnFailure))
	}

	if !d.scanOnFailure {
		return false
	}
	return d.ScanForPort()
}

// OpenPort opens a transport on port (or the current port when empty) and applies the
// connection config. A failed open is retried once after closing any held transport.
// On failure the driver holds no transport; nothing is returned but the outcome.
func (d *Driver) OpenPort(port string) bool {
	if port != "" {
		d.port = port
	}
	d.verified = false

	if d.port == "" {
		d.logger.Warn("No port to open")
		return false
	}

	t, err := d.opener(d.port, d.config)
	if err != nil {
		d.logger.LogConnection("open", d.port, false, err)
		if protocol.IsPortBusy(err) {
			d.logger.Debug("Port busy, closing held transport before retry", zap.String("port", d.port))
		}

		d.closeTransport()
		t, err = d.opener(d.port, d.config)
		if err != nil {
			d.logger.LogConnection("reopen", d.port, false, err)
			return false
		}
	} else if d.transport != nil {
		d.closeTransport()
	}

	if err := t.Configure(d.config); err != nil {
		d.logger.LogConnection("configure", d.port, false, err)
		closeQuietly(t)
		return false
	}

	d.transport = t
	d.logger.LogConnection("open", d.port, true, nil)
	return true
}

// IsVerified probes the open link: it reads the version and, when one arrived, the
// dispersion. The link counts as verified only when both reads produced a value.
// The probe updates the cached version and dispersion.
func (d *Driver) IsVerified() (bool, error) {
	d.verified = false

	if _, ok, err := d.ReadVersion(); err != nil || !ok {
		return false, err
	}
	if _, ok, err := d.ReadDispersion(); err != nil || !ok {
		return false, err
	}

	d.verified = true
	return true, nil
}

// ScanForPort tries every host port in enumeration order and stops at the first one that
// verifies. Candidates that fail are closed and their readings discarded. Finding no
// instrument leaves the driver disconnected and is only logged.
func (d *Driver) ScanForPort() bool {
	ports, err := d.lister.ListPorts()
	if err != nil {
		utils.LogError(d.logger.Logger, "Failed to enumerate serial ports", err)
		return false
	}

	var failures error
	for _, candidate := range ports {
		d.port = candidate

		var cause error
		if d.OpenPort(candidate) {
			ok, err := d.IsVerified()
			if ok {
				d.logger.LogConnection("scan", candidate, true, nil)
				return true
			}
			cause = err
			if cause == nil {
				cause = errNotVerified
			}
		} else {
			cause = errOpenFailed
		}

		d.logger.LogConnection("scan", candidate, false, cause)
		failures = multierr.Append(failures, fmt.Errorf("%s: %w", candidate, cause))

		d.closeTransport()
		d.version = nil
		d.dispersion = nil
	}

	d.logger.Warn("No Fidelity instrument found on any port",
		zap.Int("candidates", len(ports)),
		zap.Error(failures),
	)
	return false
}

// Close releases the transport. Close errors are ignored.
func (d *Driver) Close() {
	d.closeTransport()
}

// Connected reports whether the driver holds a transport that passed verification.
func (d *Driver) Connected() bool {
	return d.transport != nil && d.verified
}

// State returns the observable connection state.
func (d *Driver) State() model.ConnectionState {
	if d.Connected() {
		return model.StateConnectedVerified
	}
	return model.StateDisconnected
}

// Status returns a snapshot of the port, state and cached readings.
func (d *Driver) Status() model.InstrumentStatus {
	status := model.InstrumentStatus{
		Port:  d.port,
		State: d.State(),
	}
	if d.version != nil {
		v := *d.version
		status.Version = &v
	}
	if d.dispersion != nil {
		v := *d.dispersion
		status.Dispersion = &v
	}
	if d.power != nil {
		v := *d.power
		status.Power = &v
	}
	return status
}

// ConnectionConfig returns a copy of the current serial settings.
func (d *Driver) ConnectionConfig() protocol.ConnectionConfig {
	return d.config
}

// SetConnectionConfig replaces the serial settings and re-applies them to an open link.
func (d *Driver) SetConnectionConfig(cfg protocol.ConnectionConfig) {
	d.config = cfg
	if d.transport == nil {
		return
	}
	if err := d.transport.Configure(cfg); err != nil {
		utils.LogError(d.logger.Logger, "Failed to apply connection config", err, zap.String("port", d.port))
	}
}

// Port returns the current port identifier.
func (d *Driver) Port() string {
	return d.port
}

// SetPort changes the port identifier used by the next OpenPort("") or Connect("").
func (d *Driver) SetPort(port string) {
	d.port = port
}

// Version returns the cached identity string.
func (d *Driver) Version() (string, bool) {
	if d.version == nil {
		return "", false
	}
	return *d.version, true
}

// Dispersion returns the cached GDD value.
func (d *Driver) Dispersion() (float64, bool) {
	if d.dispersion == nil {
		return 0, false
	}
	return *d.dispersion, true
}

// SetDispersion overwrites the cached GDD value. No range check is applied here.
func (d *Driver) SetDispersion(gdd float64) {
	d.dispersion = &gdd
}

// Power returns the cached power level.
func (d *Driver) Power() (int, bool) {
	if d.power == nil {
		return 0, false
	}
	return *d.power, true
}

// SetPower overwrites the cached power level. No range check is applied here.
func (d *Driver) SetPower(level int) {
	d.power = &level
}
