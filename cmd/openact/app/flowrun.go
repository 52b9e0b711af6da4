package app

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aionixone/openact/pkg/authflow"
	"github.com/aionixone/openact/pkg/authflow/handlers"
)

func registerFlowHandlers(e *authflow.Engine, rt *runtime) {
	e.Register("oauth2.authorize_redirect", authflow.TaskHandlerFunc(handlers.AuthorizeRedirect))
	e.Register("oauth2.await_callback", authflow.TaskHandlerFunc(handlers.AwaitCallback))
	e.Register("oauth2.exchange_token", authflow.TaskHandlerFunc(handlers.ExchangeToken))
	e.Register("oauth2.refresh_token", authflow.TaskHandlerFunc(handlers.RefreshToken))
	e.Register("http.request", authflow.TaskHandlerFunc(handlers.Request))
	e.Register("compute.hmac", authflow.TaskHandlerFunc(handlers.HMAC))
	e.Register("compute.jwt_sign", authflow.TaskHandlerFunc(handlers.JWTSign))
	e.Register("inject.bearer", authflow.TaskHandlerFunc(handlers.InjectBearer))
	e.Register("inject.api_key", authflow.TaskHandlerFunc(handlers.InjectAPIKey))
	e.Register("inject.basic", authflow.TaskHandlerFunc(handlers.InjectBasic))

	conn := &handlers.ConnectionStore{Store: rt.store}
	e.Register("connection.read", authflow.TaskHandlerFunc(conn.Read))
	e.Register("connection.update", authflow.TaskHandlerFunc(conn.Update))

	if rt.secrets != nil {
		secrets := &handlers.SecretsResolver{Provider: rt.secrets}
		e.Register("secrets.resolve", authflow.TaskHandlerFunc(secrets.Resolve))
	}
}

func newFlowRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flow-run --dsl <file>",
		Short: "Run an AuthFlow DSL document to completion or its first pause",
		RunE: func(cmd *cobra.Command, _ []string) error {
			dslPath, _ := cmd.Flags().GetString("dsl")
			if dslPath == "" {
				return fmt.Errorf("--dsl is required")
			}
			raw, err := os.ReadFile(dslPath)
			if err != nil {
				return fmt.Errorf("reading %s: %w", dslPath, err)
			}
			d, err := authflow.ParseDSL(raw)
			if err != nil {
				return fmt.Errorf("parsing %s: %w", dslPath, err)
			}

			rt, err := newRuntime(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			e := authflow.NewEngine(rt.checkpoints)
			registerFlowHandlers(e, rt)

			input, err := resolveInput(cmd)
			if err != nil {
				return err
			}

			outcome, err := e.Run(cmd.Context(), d, input)
			if err != nil {
				return err
			}
			return printJSON(cmd, outcome)
		},
	}
	cmd.Flags().String("dsl", "", "Path to the AuthFlow DSL JSON document")
	addInputFlags(cmd)
	return cmd
}
