package app

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "list {connections|actions|kinds}",
		Short:     "List connections, actions, or registered connector kinds",
		Args:      cobra.ExactValidArgs(1),
		ValidArgs: []string{"connections", "actions", "kinds"},
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			ctx := cmd.Context()
			switch args[0] {
			case "kinds":
				return printJSON(cmd, rt.registry.ConnectorMetadata())
			case "connections":
				var out []any
				for _, kind := range rt.registry.RegisteredConnectors() {
					recs, err := rt.store.ListConnectionsByConnector(ctx, kind)
					if err != nil {
						return err
					}
					for _, r := range recs {
						out = append(out, r)
					}
				}
				return printJSON(cmd, out)
			case "actions":
				var out []any
				for _, kind := range rt.registry.RegisteredConnectors() {
					recs, err := rt.store.ListActionsByConnector(ctx, kind)
					if err != nil {
						return err
					}
					for _, r := range recs {
						out = append(out, r)
					}
				}
				return printJSON(cmd, out)
			default:
				return fmt.Errorf("unknown list target %q", args[0])
			}
		},
	}
	return cmd
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
