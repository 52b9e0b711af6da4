// Package app assembles the openact CLI's root command and subcommands.
package app

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/aionixone/openact/pkg/logger"
)

// NewRootCmd builds the openact root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "openact",
		DisableAutoGenTag: true,
		Short:             "openact runs declared Actions against reusable Connections",
		Long: `openact is a typed connector runtime: it stores Connections and Actions,
resolves credentials through an OAuth2 AuthFlow engine, and executes actions
via a pluggable connector registry (HTTP, PostgreSQL, and more).`,
		Run: func(cmd *cobra.Command, _ []string) {
			if err := cmd.Help(); err != nil {
				logger.Errorf("error displaying help: %v", err)
			}
		},
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			debug, _ := cmd.Flags().GetBool("debug")
			logger.Initialize(debug)
		},
	}

	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("config", "", "Path to config file (default: environment only)")

	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))

	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newExecuteCmd())
	rootCmd.AddCommand(newExecuteFileCmd())
	rootCmd.AddCommand(newExecuteInlineCmd())
	rootCmd.AddCommand(newServeRESTCmd())
	rootCmd.AddCommand(newServeMCPCmd())
	rootCmd.AddCommand(newFlowRunCmd())

	rootCmd.SilenceUsage = true
	return rootCmd
}
