package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/aionixone/openact/pkg/apiserver"
	"github.com/aionixone/openact/pkg/logger"
	"github.com/aionixone/openact/pkg/mcptools"
	"github.com/aionixone/openact/pkg/store"
)

func newServeRESTCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve-rest",
		Short: "Serve the §6 REST API over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := newRuntime(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			addr, _ := cmd.Flags().GetString("addr")
			srv := &http.Server{
				Addr:              addr,
				Handler:           apiserver.NewRouter(rt.registry),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Infof("serve-rest: listening on %s", addr)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case <-cmd.Context().Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			case err := <-errCh:
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("serve-rest: %w", err)
				}
				return nil
			}
		},
	}
	cmd.Flags().String("addr", ":8788", "Listen address")
	return cmd
}

// newServeMCPCmd exposes the Tool Adapter's catalog as a plain JSON document
// rather than a full MCP JSON-RPC transport (out of scope, see DESIGN.md):
// it prints the governed tool catalog so an external MCP front-end can
// serve it without this module taking on protocol-framing dependencies.
func newServeMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve-mcp",
		Short: "Print the governed MCP tool catalog as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := newRuntime(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			profileFlag, _ := cmd.Flags().GetString("profile")
			allow, deny := mcptools.ApplyProfile(mcptools.Profile(profileFlag))

			ctx := cmd.Context()
			var all []*store.ActionRecord
			for _, kind := range rt.registry.RegisteredConnectors() {
				recs, err := rt.store.ListActionsByConnector(ctx, kind)
				if err != nil {
					return err
				}
				all = append(all, recs...)
			}

			gov := mcptools.NewGovernance(allow, deny, 0, 0)
			catalog := mcptools.BuildCatalog(all)
			var filtered []mcptools.Spec
			for _, spec := range catalog {
				if gov.Permitted(spec.Name) {
					filtered = append(filtered, spec)
				}
			}
			return printJSON(cmd, filtered)
		},
	}
	cmd.Flags().String("profile", "mixed", "Governance profile: a-only, b-only, mixed")
	return cmd
}
