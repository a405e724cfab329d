// cmd/fidelity/main.go
package main

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"fidelity-driver/internal/config"
	"fidelity-driver/internal/driver/fidelity"
	"fidelity-driver/internal/utils"
)

var errNotConnected = errors.New("no verified Fidelity instrument found")

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

// Application wires configuration, logging and the instrument driver
type Application struct {
	config *config.Config
	logger *zap.Logger
	driver *fidelity.Driver
}

// globalOptions holds the persistent command line flags
type globalOptions struct {
	configPath string
	port       string
	logLevel   string
	scan       bool
	scanSet    bool
}

// NewApplication creates a new application instance
func NewApplication(opts *globalOptions) (*Application, error) {
	// Load configuration
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	opts.apply(cfg)

	// Initialize logger
	logger, err := utils.NewLogger(&cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	connCfg, err := cfg.Serial.ConnectionConfig()
	if err != nil {
		return nil, fmt.Errorf("invalid serial configuration: %w", err)
	}

	app := &Application{
		config: cfg,
		logger: logger,
		driver: fidelity.New(logger,
			fidelity.WithConnectionConfig(connCfg),
			fidelity.WithScanOnFailure(cfg.Device.ScanOnFailure),
		),
	}

	logger.Debug("Application initialized",
		zap.String("app", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
		zap.String("port", cfg.Serial.Port),
		zap.Bool("scan_on_failure", cfg.Device.ScanOnFailure),
	)
	return app, nil
}

// apply overrides configuration values with flags given on the command line
func (o *globalOptions) apply(cfg *config.Config) {
	if o.port != "" {
		cfg.Serial.Port = o.port
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	if o.scanSet {
		cfg.Device.ScanOnFailure = o.scan
	}
	if cfg.IsDebugEnabled() && o.logLevel == "" {
		cfg.Logging.Level = "debug"
	}
}

// Connect opens the configured port, scanning when allowed
func (app *Application) Connect() error {
	if !app.driver.Connect(app.config.Serial.Port) {
		return errNotConnected
	}
	return nil
}

// Shutdown releases the instrument and flushes logs
func (app *Application) Shutdown() {
	app.driver.Close()
	// Sync on a terminal returns ENOTTY/EINVAL; nothing to report.
	_ = utils.CloseLogger(app.logger)
}
