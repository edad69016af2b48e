package cli

import (
	"fmt"

	"twobeats/internal/app"
	"twobeats/internal/config"

	"github.com/spf13/cobra"
)

type VersionInfo struct {
	Version string
	Commit  string
}

// options are shared by every subcommand through the persistent flags.
type options struct {
	configPath string
	logLevel   string
}

func NewRootCommand(info VersionInfo) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:           "twobeats",
		Short:         "twobeats media sharing server",
		Long:          "twobeats serves music and video uploads with likes, comments and live counters.",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default is $CONFIG_PATH or ./config/config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override log level (debug, info, warn, error)")

	cmd.Version = fmt.Sprintf("%s.%s", info.Version, info.Commit)

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newMigrateCommand(opts))
	cmd.AddCommand(newCleanupCommand(opts))
	cmd.AddCommand(newConfigCommand())

	return cmd
}

// load reads the configuration and initializes the logger from it.
func (o *options) load() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	app.InitLogger(cfg)
	return cfg, nil
}
