// Package builtin wires every connector kind OpenAct ships with into a
// Registry, so the CLI and REST entry points don't each have to know the
// connector set.
package builtin

import (
	"github.com/aionixone/openact/pkg/connector"
	"github.com/aionixone/openact/pkg/connector/clientpool"
	"github.com/aionixone/openact/pkg/connector/genericasync"
	"github.com/aionixone/openact/pkg/connector/httpconn"
	"github.com/aionixone/openact/pkg/connector/pgconn"
)

// Register binds the http, postgresql, and generic-async connector kinds
// into reg. resolver may be nil when no connector requires credential-store
// token lookups.
func Register(reg *connector.Registry, pool *clientpool.Pool, resolver httpconn.CredentialResolver) {
	httpconn.Register(reg, pool, resolver)
	pgconn.Register(reg)
	genericasync.Register(reg)
}
