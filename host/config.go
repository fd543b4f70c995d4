package host

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ardnew/wrn/device"
)

// Config holds the host daemon's full configuration surface: transport,
// FIFO paths, on-disk state, and the knobs §6 documents.
type Config struct {
	Port                   string `toml:"port"`
	Baud                   int    `toml:"baud"`
	ReadTimeoutDeciseconds int    `toml:"vtime"`

	CommandFIFO  string `toml:"command_fifo"`
	RNGFIFO      string `toml:"rng_fifo"`
	RadioFIFO    string `toml:"radio_fifo"`
	WatchdogFIFO string `toml:"watchdog_fifo"`

	PIDFile string `toml:"pid_file"`
	LogDir  string `toml:"log_dir"`

	WatchdogTimeout  int  `toml:"watchdog_timeout"`
	WatchdogNowayout bool `toml:"watchdog_nowayout"`

	Verbosity int  `toml:"verbosity"`
	Daemonize bool `toml:"daemonize"`
}

// DefaultConfig holds the compiled-in flag defaults.
func DefaultConfig() Config {
	return Config{
		Port:                   "/dev/ttyS0",
		Baud:                   DefaultBaud,
		ReadTimeoutDeciseconds: 5,
		CommandFIFO:            "/run/wrnd/command",
		RNGFIFO:                "/run/wrnd/rng",
		RadioFIFO:              "/run/wrnd/radio",
		WatchdogFIFO:           "/run/wrnd/watchdog",
		PIDFile:                "/run/wrnd/wrnd.pid",
		LogDir:                 "/var/log/wrnd",
		WatchdogTimeout:        device.WatchdogTimeoutDefault,
	}
}

// preScanConfigFile extracts a --config value from args without requiring
// every other flag to already be registered, so a TOML file can supply
// flag defaults before the real flag set parses args.
func preScanConfigFile(args []string) string {
	fs := pflag.NewFlagSet("wrnd-prescan", pflag.ContinueOnError)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.Usage = func() {}
	path := fs.String("config", "", "")
	fs.Parse(args)
	return *path
}

// NewRootCommand builds the cobra root command. args is the daemon's full
// argument list (normally os.Args[1:]): it is pre-scanned for --config so
// an optional TOML file can override DefaultConfig's values before the
// flag set binds its own defaults, letting an explicit command-line flag
// still win over both.
func NewRootCommand(args []string, run func(Config) error) *cobra.Command {
	cfg := DefaultConfig()
	var loadErr error
	if path := preScanConfigFile(args); path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			loadErr = fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	cmd := &cobra.Command{
		Use:           "wrnd",
		Short:         "bridges the wrn device's serial protocol to local FIFOs",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if loadErr != nil {
				return loadErr
			}
			return run(cfg)
		},
	}

	flags := cmd.Flags()
	flags.String("config", "", "optional TOML file overriding flag defaults")
	flags.StringVar(&cfg.Port, "port", cfg.Port, "serial device path")
	flags.IntVar(&cfg.Baud, "baud", cfg.Baud, "serial baud rate")
	flags.IntVar(&cfg.ReadTimeoutDeciseconds, "vtime", cfg.ReadTimeoutDeciseconds, "serial read timeout, in deciseconds")
	flags.StringVar(&cfg.CommandFIFO, "command-fifo", cfg.CommandFIFO, "path to the one-shot command-response FIFO")
	flags.StringVar(&cfg.RNGFIFO, "rng-fifo", cfg.RNGFIFO, "path to the continuous RNG byte-stream FIFO")
	flags.StringVar(&cfg.RadioFIFO, "radio-fifo", cfg.RadioFIFO, "path to the continuous radio INSERT-statement FIFO")
	flags.StringVar(&cfg.WatchdogFIFO, "watchdog-fifo", cfg.WatchdogFIFO, "path to the watchdog keep-alive bridge FIFO")
	flags.StringVar(&cfg.PIDFile, "pid-file", cfg.PIDFile, "path to write the daemon's process id")
	flags.StringVar(&cfg.LogDir, "log-dir", cfg.LogDir, "directory for rotated per-category log files")
	flags.IntVar(&cfg.WatchdogTimeout, "wdt-timeout", cfg.WatchdogTimeout, "device watchdog timeout, in seconds")
	flags.BoolVar(&cfg.WatchdogNowayout, "wdt-nowayout", cfg.WatchdogNowayout, "ignore the magic close character; the watchdog can never be deactivated")
	flags.IntVarP(&cfg.Verbosity, "verbosity", "v", cfg.Verbosity, "trace verbosity, 0-3 (accepted; the daemon does not read it)")
	flags.BoolVarP(&cfg.Daemonize, "daemonize", "d", cfg.Daemonize, "run in the background (accepted; the daemon does not detach)")

	return cmd
}
