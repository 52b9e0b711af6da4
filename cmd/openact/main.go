// Command openact runs the OpenAct CLI: store migrations, connection/action
// import-export, ad-hoc execution, the REST API, and AuthFlow runs.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/aionixone/openact/cmd/openact/app"
	"github.com/aionixone/openact/pkg/logger"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer cancel()

	if err := app.NewRootCmd().ExecuteContext(ctx); err != nil {
		logger.Errorf("error executing command: %v", err)
		os.Exit(1)
	}
}
