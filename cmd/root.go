// Package cmd implements the linkshield command-line interface.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/SiGentIsHere/Weblink-Shield/internal/bootstrap"
	"github.com/SiGentIsHere/Weblink-Shield/internal/config"
	infraconfig "github.com/SiGentIsHere/Weblink-Shield/internal/infra/config"
	"github.com/SiGentIsHere/Weblink-Shield/internal/infra/logger"
)

// defaultConfigFile is used when neither --config nor CONFIG_PATH is set.
const defaultConfigFile = "config.yml"

// cfgFile holds the path to the configuration file.
var cfgFile string

// NewRootCommand builds the linkshield command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "linkshield",
		Short:         "URL maliciousness scanner",
		Long:          `linkshield canonicalizes URLs, probes their hosts and scores them with explainable rules.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	root.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		infraconfig.GetConfigPath(defaultConfigFile),
		"config file (overrides CONFIG_PATH)",
	)

	root.AddCommand(
		newServeCommand(),
		newMigrateCommand(),
		newAnalyzeCommand(),
		newVersionCommand(),
	)
	return root
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

// loadRuntime loads config and creates the logger shared by subcommands.
func loadRuntime() (*config.Config, logger.Logger, error) {
	cfg, err := bootstrap.LoadConfig(cfgFile)
	if err != nil {
		return nil, nil, err
	}

	log, err := bootstrap.CreateLogger(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := bootstrap.LoadConfig(cfgFile)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", cfg.Service.Name, cfg.Service.Version)
			return err
		},
	}
}
