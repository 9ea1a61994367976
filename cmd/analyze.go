package cmd

import (
	"github.com/spf13/cobra"

	"github.com/SiGentIsHere/Weblink-Shield/internal/bootstrap"
)

func newAnalyzeCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "analyze <url>",
		Short: "Analyze one URL and print its verdict",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadRuntime()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			result, err := bootstrap.AnalyzeOnce(cmd.Context(), cfg, log, args[0])
			if err != nil {
				return err
			}
			return renderResult(cmd.OutOrStdout(), result, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "output format: table or json")
	return cmd
}
