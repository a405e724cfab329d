// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"

	"fidelity-driver/internal/protocol"
)

// Config represents the application configuration
type Config struct {
	Serial  SerialConfig  `mapstructure:"serial"`
	Device  DeviceConfig  `mapstructure:"device"`
	Logging LoggingConfig `mapstructure:"logging"`
	App     AppConfig     `mapstructure:"app"`
}

// SerialConfig represents serial port configuration
type SerialConfig struct {
	Port             string        `mapstructure:"port"`
	BaudRate         int           `mapstructure:"baud_rate"`
	DataBits         int           `mapstructure:"data_bits"`
	Parity           string        `mapstructure:"parity"`
	StopBits         float64       `mapstructure:"stop_bits"`
	XonXoff          bool          `mapstructure:"xonxoff"`
	RtsCts           bool          `mapstructure:"rtscts"`
	DsrDtr           bool          `mapstructure:"dsrdtr"`
	ReadTimeout      time.Duration `mapstructure:"read_timeout"`
	WriteTimeout     time.Duration `mapstructure:"write_timeout"`
	InterByteTimeout time.Duration `mapstructure:"inter_byte_timeout"`
}

// DeviceConfig represents instrument connection behaviour
type DeviceConfig struct {
	ScanOnFailure bool `mapstructure:"scan_on_failure"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level" validate:"required"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// AppConfig represents application metadata
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Version     string `mapstructure:"version" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required"`
	Debug       bool   `mapstructure:"debug"`
}

var (
	validEnvs   = []string{"development", "staging", "production", "test"}
	validLevels = []string{"debug", "info", "warn", "error", "fatal"}
)

// Load loads configuration from file and environment variables. With an empty path the
// file is optional and searched for as config.yaml in ., ./configs and $HOME/.fidelity.
func Load(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.fidelity")
	}

	// Environment variable support
	v.SetEnvPrefix("FIDELITY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Serial defaults
	v.SetDefault("serial.port", "")
	v.SetDefault("serial.baud_rate", 9600)
	v.SetDefault("serial.data_bits", 8)
	v.SetDefault("serial.parity", "none")
	v.SetDefault("serial.stop_bits", 1)
	v.SetDefault("serial.xonxoff", false)
	v.SetDefault("serial.rtscts", false)
	v.SetDefault("serial.dsrdtr", false)
	v.SetDefault("serial.read_timeout", "500ms")
	v.SetDefault("serial.write_timeout", "0s")
	v.SetDefault("serial.inter_byte_timeout", "0s")

	// Device defaults
	v.SetDefault("device.scan_on_failure", true)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", "stderr")
	v.SetDefault("logging.max_size", 10)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age", 28)
	v.SetDefault("logging.compress", true)

	// App defaults
	v.SetDefault("app.name", "fidelity")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "production")
	v.SetDefault("app.debug", false)
}

// validate validates the configuration
func validate(config *Config) error {
	if _, err := config.Serial.ConnectionConfig(); err != nil {
		return fmt.Errorf("serial: %w", err)
	}

	if config.App.Name == "" {
		return fmt.Errorf("app.name is required")
	}
	if !slices.Contains(validEnvs, config.App.Environment) {
		return fmt.Errorf("app.environment must be one of: %v", validEnvs)
	}
	if !slices.Contains(validLevels, config.Logging.Level) {
		return fmt.Errorf("logging.level must be one of: %v", validLevels)
	}
	switch config.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console")
	}

	return nil
}

// ConnectionConfig converts the serial section to validated transport settings
func (s SerialConfig) ConnectionConfig() (protocol.ConnectionConfig, error) {
	parity, err := protocol.ParseParity(s.Parity)
	if err != nil {
		return protocol.ConnectionConfig{}, err
	}

	cfg := protocol.ConnectionConfig{
		BaudRate:         s.BaudRate,
		DataBits:         s.DataBits,
		Parity:           parity,
		StopBits:         s.StopBits,
		XonXoff:          s.XonXoff,
		RtsCts:           s.RtsCts,
		DsrDtr:           s.DsrDtr,
		ReadTimeout:      s.ReadTimeout,
		WriteTimeout:     s.WriteTimeout,
		InterByteTimeout: s.InterByteTimeout,
	}
	if err := protocol.ValidateConnectionConfig(cfg); err != nil {
		return protocol.ConnectionConfig{}, err
	}
	return cfg, nil
}

// IsDebugEnabled checks if debug mode is enabled
func (c *Config) IsDebugEnabled() bool {
	return c.App.Debug || c.App.Environment == "development"
}
