package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aionixone/openact/pkg/logger"
	"github.com/aionixone/openact/pkg/store"
)

// snapshot is the on-disk shape for import/export: a flat dump of every
// connection and action, keyed by nothing more than the arrays themselves
// (each record already carries its own ResourceName).
type snapshot struct {
	Connections []*store.ConnectionRecord `json:"connections"`
	Actions     []*store.ActionRecord     `json:"actions"`
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Upsert connections and actions from a JSON snapshot file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}
			var snap snapshot
			if err := json.Unmarshal(raw, &snap); err != nil {
				return fmt.Errorf("parsing %s: %w", args[0], err)
			}

			ctx := cmd.Context()
			for _, c := range snap.Connections {
				if _, err := rt.store.UpsertConnection(ctx, c); err != nil {
					return fmt.Errorf("upserting connection %s: %w", c.Name.String(), err)
				}
			}
			for _, a := range snap.Actions {
				if _, err := rt.store.UpsertAction(ctx, a); err != nil {
					return fmt.Errorf("upserting action %s: %w", a.Name.String(), err)
				}
			}
			logger.Infof("import: upserted %d connections and %d actions", len(snap.Connections), len(snap.Actions))
			return nil
		},
	}
}

func newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <file>",
		Short: "Dump every connection and action to a JSON snapshot file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			snap, err := collectSnapshot(cmd.Context(), rt)
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(snap, "", "  ")
			if err != nil {
				return fmt.Errorf("encoding snapshot: %w", err)
			}
			if err := os.WriteFile(args[0], out, 0o600); err != nil {
				return fmt.Errorf("writing %s: %w", args[0], err)
			}
			logger.Infof("export: wrote %d connections and %d actions to %s", len(snap.Connections), len(snap.Actions), args[0])
			return nil
		},
	}
}

func collectSnapshot(ctx context.Context, rt *runtime) (snapshot, error) {
	var snap snapshot
	for _, kind := range rt.registry.RegisteredConnectors() {
		conns, err := rt.store.ListConnectionsByConnector(ctx, kind)
		if err != nil {
			return snap, fmt.Errorf("listing %s connections: %w", kind, err)
		}
		snap.Connections = append(snap.Connections, conns...)

		actions, err := rt.store.ListActionsByConnector(ctx, kind)
		if err != nil {
			return snap, fmt.Errorf("listing %s actions: %w", kind, err)
		}
		snap.Actions = append(snap.Actions, actions...)
	}
	return snap, nil
}
