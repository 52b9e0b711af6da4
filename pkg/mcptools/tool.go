// Package mcptools implements the Tool Adapter (§4.9): rendering
// mcp_enabled actions as MCP tool specs, and a governance filter gating
// which tools a caller may invoke.
package mcptools

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/aionixone/openact/pkg/apperrors"
	"github.com/aionixone/openact/pkg/store"
)

// Spec is a single tool's MCP-facing description.
type Spec struct {
	Name         string          `json:"name"`
	Title        string          `json:"title,omitempty"`
	Description  string          `json:"description,omitempty"`
	InputSchema  json.RawMessage `json:"input_schema"`
	OutputSchema json.RawMessage `json:"output_schema,omitempty"`
}

// namePattern is the §4.9 tool name grammar, case-insensitive.
var namePattern = regexp.MustCompile(`(?i)^[a-z0-9-]+\.[a-z0-9-._]+$`)

// overrides is the decoded shape of ActionRecord.MCPOverrides. Any field
// left unset falls back to a generic default so an action can opt into the
// tool catalog with zero configuration.
type overrides struct {
	Title        string          `json:"title,omitempty"`
	Description  string          `json:"description,omitempty"`
	InputSchema  json.RawMessage `json:"input_schema,omitempty"`
	OutputSchema json.RawMessage `json:"output_schema,omitempty"`
}

var defaultInputSchema = json.RawMessage(`{"type":"object"}`)

// BuildSpec renders one mcp_enabled ActionRecord as a tool Spec. Name is
// "<connector_kind>.<action local name>" per §4.9; actions whose connector
// kind or local name contain characters outside the tool-name grammar are
// rejected rather than silently mangled.
func BuildSpec(rec *store.ActionRecord) (Spec, error) {
	name := rec.ConnectorKnd + "." + rec.Name.Name
	if !namePattern.MatchString(name) {
		return Spec{}, apperrors.NewInvalidError(fmt.Sprintf("mcptools: tool name %q does not match the required pattern", name), nil)
	}

	var ov overrides
	if len(rec.MCPOverrides) > 0 {
		if err := json.Unmarshal(rec.MCPOverrides, &ov); err != nil {
			return Spec{}, apperrors.NewInvalidError("mcptools: invalid mcp_overrides JSON", err)
		}
	}

	spec := Spec{
		Name:         name,
		Title:        ov.Title,
		Description:  ov.Description,
		InputSchema:  ov.InputSchema,
		OutputSchema: ov.OutputSchema,
	}
	if spec.InputSchema == nil {
		spec.InputSchema = defaultInputSchema
	}
	return spec, nil
}

// BuildCatalog renders every mcp_enabled action in recs into tool specs,
// skipping (not failing) actions whose name fails the tool-name grammar —
// a catalog listing should not go dark because one action is misnamed.
func BuildCatalog(recs []*store.ActionRecord) []Spec {
	specs := make([]Spec, 0, len(recs))
	for _, rec := range recs {
		if !rec.MCPEnabled {
			continue
		}
		spec, err := BuildSpec(rec)
		if err != nil {
			continue
		}
		specs = append(specs, spec)
	}
	return specs
}

// IsGenericExecuteTool reports whether name is the fixed cross-connector
// "openact.execute" tool used by the `a-only`/`mixed` governance profiles.
func IsGenericExecuteTool(name string) bool {
	return strings.EqualFold(name, "openact.execute")
}
