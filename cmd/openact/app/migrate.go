package app

import (
	"github.com/spf13/cobra"

	"github.com/aionixone/openact/pkg/logger"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending storage schema migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := newRuntime(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer rt.Close()
			logger.Infof("migrate: schema is up to date")
			return nil
		},
	}
}
