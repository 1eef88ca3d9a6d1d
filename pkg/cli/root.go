package cli

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/platinummonkey/taskboard/pkg/config"
	"github.com/platinummonkey/taskboard/pkg/observability"
)

// loader resolves the configuration and logger for a command invocation
type loader func(cmd *cobra.Command) (*config.Config, *logrus.Logger, error)

// NewRootCommand creates the root command
func NewRootCommand(version string) *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "taskboard",
		Short:         "Taskboard - a task tracking REST API",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"path to a YAML config file (defaults to $"+config.ConfigFileEnv+")")

	load := func(cmd *cobra.Command) (*config.Config, *logrus.Logger, error) {
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load config: %w", err)
		}
		return cfg, observability.NewLogger(cfg.Observability.Level(), cmd.ErrOrStderr()), nil
	}

	root.AddCommand(
		newServeCommand(load, version),
		newMigrateCommand(load),
		newVersionCommand(version),
	)
	return root
}
