package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/eigerco/computeplane/internal/config"
	"github.com/eigerco/computeplane/pkg/log"
)

type rootOptions struct {
	configPath  string
	dbPath      string
	logLevel    string
	logJSON     bool
	metricsAddr string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:          "computeplane",
		Short:        "Offchain compute coordination layer",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level, err := log.ParseLogLevel(opts.logLevel)
			if err != nil {
				return fmt.Errorf("invalid log level %q: %w", opts.logLevel, err)
			}
			logType := log.ConsoleLogger
			if opts.logJSON {
				logType = log.JSONLogger
			}
			log.Init(log.Options{LogLevel: level, Type: logType, Output: os.Stderr})
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "parameter file (toml, yaml or json), defaults apply when empty")
	flags.StringVar(&opts.dbPath, "db", "", "pebble data directory, in-memory when empty")
	flags.StringVar(&opts.logLevel, "log-level", "info", "log level")
	flags.BoolVar(&opts.logJSON, "log-json", false, "log as JSON")
	flags.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9100")

	cmd.AddCommand(
		newParamsCmd(opts),
		newAccountCmd(),
		newCallsCmd(),
		newRunCmd(opts),
	)
	return cmd
}

func (o *rootOptions) params() (config.Params, error) {
	return config.Load(o.configPath)
}
