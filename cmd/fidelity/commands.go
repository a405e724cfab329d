// cmd/fidelity/commands.go
package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"fidelity-driver/internal/discovery"
	"fidelity-driver/internal/driver/fidelity"
)

// newRootCommand builds the fidelity command tree
func newRootCommand() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "fidelity",
		Short: "Control a Fidelity laser over its serial link",
		Long: `Control a Fidelity laser over its serial link.

Every instrument command connects to the configured port first. When that port
does not answer like a Fidelity instrument, all serial ports are scanned unless
scanning is disabled with --scan=false.

Configuration is read from config.yaml (., ./configs, $HOME/.fidelity) or --config,
and can be overridden with FIDELITY_* environment variables.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			opts.scanSet = cmd.Flags().Changed("scan")
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to a config file")
	rootCmd.PersistentFlags().StringVarP(&opts.port, "port", "p", "", "Serial port of the instrument, e.g. /dev/ttyUSB0 or COM3")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error, fatal")
	rootCmd.PersistentFlags().BoolVar(&opts.scan, "scan", true, "Scan all serial ports when the configured port fails")

	rootCmd.AddCommand(
		newPortsCommand(),
		newStatusCommand(opts),
		newVersionCommand(opts),
		newGDDCommand(opts),
		newPowerCommand(opts),
		newPresetsCommand(opts),
		newSwitchCommand(opts, "laser", "Switch the laser emission on or off",
			(*fidelity.Driver).LaserOn, (*fidelity.Driver).LaserOff),
		newSwitchCommand(opts, "highpower", "Switch high power mode on or off",
			(*fidelity.Driver).HighPowerOn, (*fidelity.Driver).HighPowerOff),
		newMotorCommand(opts),
	)
	return rootCmd
}

// runWithInstrument connects to the instrument, runs fn and shuts down
func runWithInstrument(opts *globalOptions, fn func(cmd *cobra.Command, args []string, app *Application) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		app, err := NewApplication(opts)
		if err != nil {
			return err
		}
		defer app.Shutdown()

		if err := app.Connect(); err != nil {
			return err
		}
		return fn(cmd, args, app)
	}
}

func newPortsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ports",
		Short: "List available serial ports",
		Long: `List the serial ports in the order a scan would try them.

With --table, USB vendor/product IDs and serial numbers are shown where the
operating system reports them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tableFormat, _ := cmd.Flags().GetBool("table")
			out := cmd.OutOrStdout()

			if tableFormat {
				ports, err := discovery.DetailedPorts()
				if err != nil {
					return err
				}
				fmt.Fprint(out, renderPortsTable(ports))
				return nil
			}

			ports, err := discovery.NewSerialPortLister(nil).ListPorts()
			if err != nil {
				return err
			}
			if len(ports) == 0 {
				fmt.Fprintln(out, "No serial ports found")
				return nil
			}
			for _, port := range ports {
				fmt.Fprintln(out, port)
			}
			return nil
		},
	}

	cmd.Flags().BoolP("table", "t", false, "Display output in a styled table format")
	return cmd
}

func newStatusCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Connect and show the instrument status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := NewApplication(opts)
			if err != nil {
				return err
			}
			defer app.Shutdown()

			connErr := app.Connect()
			if connErr == nil {
				if _, _, err := app.driver.ReadPower(); err != nil {
					return err
				}
			}

			fmt.Fprint(cmd.OutOrStdout(), renderStatus(app.driver.Status()))
			return connErr
		},
	}
}

func newVersionCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the instrument identity string",
		Args:  cobra.NoArgs,
		RunE: runWithInstrument(opts, func(cmd *cobra.Command, args []string, app *Application) error {
			version, ok, err := app.driver.EnsureVersion()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderReading("Version", trimResponse(version), ok))
			return nil
		}),
	}
}

func newGDDCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "gdd",
		Short: "Read the group delay dispersion",
		Args:  cobra.NoArgs,
		RunE: runWithInstrument(opts, func(cmd *cobra.Command, args []string, app *Application) error {
			gdd, ok, err := app.driver.ReadDispersion()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderReading("GDD", formatFloat(gdd), ok))
			return nil
		}),
	}
}

func newPowerCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "power",
		Short: "Read the power level (0-3)",
		Args:  cobra.NoArgs,
		RunE: runWithInstrument(opts, func(cmd *cobra.Command, args []string, app *Application) error {
			power, ok, err := app.driver.ReadPower()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderReading("Power", strconv.Itoa(power), ok))
			return nil
		}),
	}
}

func newPresetsCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List the instrument presets",
		Args:  cobra.NoArgs,
		RunE: runWithInstrument(opts, func(cmd *cobra.Command, args []string, app *Application) error {
			presets, ok, err := app.driver.Presets()
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), renderReading("Presets", "", false))
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), presets)
			return nil
		}),
	}
}

// newSwitchCommand builds an on|off command around two driver operations
func newSwitchCommand(opts *globalOptions, use, short string, on, off func(*fidelity.Driver)) *cobra.Command {
	return &cobra.Command{
		Use:       use + " on|off",
		Short:     short,
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"on", "off"},
		RunE: runWithInstrument(opts, func(cmd *cobra.Command, args []string, app *Application) error {
			enable, err := parseOnOff(args[0])
			if err != nil {
				return err
			}
			if enable {
				on(app.driver)
			} else {
				off(app.driver)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderSent(use+" "+args[0]))
			return nil
		}),
	}
}

func newMotorCommand(opts *globalOptions) *cobra.Command {
	motorCmd := &cobra.Command{
		Use:   "motor",
		Short: "Control the positioning motor",
	}

	gotoCmd := &cobra.Command{
		Use:   "goto <position>",
		Short: "Move the motor to an absolute position (-10000..10000)",
		Long: `Move the motor to an absolute position.

Positions outside -10000..10000 are refused. Fractional positions are
truncated toward zero. Negative positions must follow "--" so they are not
read as flags.`,
		Example: `  fidelity motor goto 5000
  fidelity motor goto -- -2500`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			position, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("invalid position %q: %w", args[0], err)
			}
			return runWithInstrument(opts, func(cmd *cobra.Command, args []string, app *Application) error {
				app.driver.MotorGoTo(position)
				fmt.Fprintln(cmd.OutOrStdout(), renderSent("motor goto "+args[0]))
				return nil
			})(cmd, args)
		},
	}

	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset the motor",
		Args:  cobra.NoArgs,
		RunE: runWithInstrument(opts, func(cmd *cobra.Command, args []string, app *Application) error {
			app.driver.MotorReset()
			fmt.Fprintln(cmd.OutOrStdout(), renderSent("motor reset"))
			return nil
		}),
	}

	homedCmd := &cobra.Command{
		Use:   "homed",
		Short: "Report whether the motor is homed",
		Args:  cobra.NoArgs,
		RunE: runWithInstrument(opts, func(cmd *cobra.Command, args []string, app *Application) error {
			homed, err := app.driver.IsMotorHomed()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderReading("Homed", strconv.FormatBool(homed), true))
			return nil
		}),
	}

	motorCmd.AddCommand(gotoCmd, resetCmd, homedCmd)
	return motorCmd
}

func parseOnOff(s string) (bool, error) {
	switch s {
	case "on":
		return true, nil
	case "off":
		return false, nil
	default:
		return false, fmt.Errorf("expected on or off, got %q", s)
	}
}
