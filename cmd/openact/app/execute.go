package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aionixone/openact/pkg/connector"
	"github.com/aionixone/openact/pkg/connector/builtin"
	"github.com/aionixone/openact/pkg/connector/clientpool"
	"github.com/aionixone/openact/pkg/exec"
	"github.com/aionixone/openact/pkg/trn"
)

func addInputFlags(cmd *cobra.Command) {
	cmd.Flags().String("input", "", "JSON input object")
	cmd.Flags().String("input-file", "", "Path to a JSON input file")
}

func addExecuteFlags(cmd *cobra.Command) {
	addInputFlags(cmd)
	cmd.Flags().Bool("dry-run", false, "Report a synthetic success envelope without executing")
	cmd.Flags().Duration("timeout", 0, "Execution deadline (e.g. 30s); 0 disables")
}

func resolveInput(cmd *cobra.Command) (map[string]any, error) {
	inline, _ := cmd.Flags().GetString("input")
	file, _ := cmd.Flags().GetString("input-file")

	var raw []byte
	switch {
	case inline != "" && file != "":
		return nil, fmt.Errorf("--input and --input-file are mutually exclusive")
	case inline != "":
		raw = []byte(inline)
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", file, err)
		}
		raw = data
	default:
		return map[string]any{}, nil
	}

	var input map[string]any
	if err := json.Unmarshal(raw, &input); err != nil {
		return nil, fmt.Errorf("parsing input JSON: %w", err)
	}
	return input, nil
}

func resolveOptions(cmd *cobra.Command) exec.Options {
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	return exec.Options{DryRun: dryRun, Timeout: timeout}
}

func newExecuteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "execute <action-trn>",
		Short: "Execute a stored action by its resource name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			name, err := trn.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid action name: %w", err)
			}
			input, err := resolveInput(cmd)
			if err != nil {
				return err
			}
			opts := resolveOptions(cmd)

			res := exec.ExecuteAction(cmd.Context(), rt.registry, name, input, opts)
			return reportResult(cmd, res)
		},
	}
	addExecuteFlags(cmd)
	return cmd
}

func reportResult(cmd *cobra.Command, res exec.Result) error {
	if err := printJSON(cmd, res); err != nil {
		return err
	}
	if !res.Success {
		return fmt.Errorf("execution failed: %s", res.Error)
	}
	return nil
}

// noopCredentialResolver rejects every oauth2 connection_ref. Inline and
// file-based execution run against an ephemeral store with no AuthFlow
// history to resolve tokens from, so connections used this way are expected
// to carry static credentials (api_key, basic, bearer) rather than an
// oauth2 connection_ref.
type noopCredentialResolver struct{}

func (noopCredentialResolver) ResolveAccessToken(_ context.Context, connectionRef string) (string, error) {
	return "", fmt.Errorf("no stored credential for %q: inline/file execution does not resolve oauth2 connection refs", connectionRef)
}

func wireInlineRegistry(reg *connector.Registry) {
	builtin.Register(reg, clientpool.New(8, 0), noopCredentialResolver{})
}

func newExecuteFileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "execute-file <snapshot.json> <action-trn>",
		Short: "Execute a single action from a self-contained connection/action snapshot file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}
			var snap snapshot
			if err := json.Unmarshal(raw, &snap); err != nil {
				return fmt.Errorf("parsing %s: %w", args[0], err)
			}
			input, err := resolveInput(cmd)
			if err != nil {
				return err
			}
			opts := resolveOptions(cmd)

			res := exec.ExecuteInline(cmd.Context(), exec.InlineRequest{
				Connections: snap.Connections,
				Actions:     snap.Actions,
				ActionName:  args[1],
				Input:       input,
				Options:     opts,
			}, wireInlineRegistry)
			return reportResult(cmd, res)
		},
	}
	addExecuteFlags(cmd)
	return cmd
}

func newExecuteInlineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "execute-inline <snapshot-json> <action-trn>",
		Short: "Execute a single action from an inline connection/action snapshot JSON string",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var snap snapshot
			if err := json.Unmarshal([]byte(args[0]), &snap); err != nil {
				return fmt.Errorf("parsing inline snapshot JSON: %w", err)
			}
			input, err := resolveInput(cmd)
			if err != nil {
				return err
			}
			opts := resolveOptions(cmd)

			res := exec.ExecuteInline(cmd.Context(), exec.InlineRequest{
				Connections: snap.Connections,
				Actions:     snap.Actions,
				ActionName:  args[1],
				Input:       input,
				Options:     opts,
			}, wireInlineRegistry)
			return reportResult(cmd, res)
		},
	}
	addExecuteFlags(cmd)
	return cmd
}
