package authflow

import (
	"fmt"
	"strconv"
	"strings"
)

// Bindings is the variable namespace available to expression markers:
// $access_token, $expires_at, $ctx, $vars.*, secrets.
type Bindings struct {
	AccessToken string
	ExpiresAt   string
	Ctx         map[string]any
	Vars        map[string]any
	Secrets     map[string]any
}

// EvalExpression evaluates the small expression grammar from §3/§6:
// literal strings, "&" concatenation, "$name"/"$ctx.path.to.field"
// variable lookup, and "/a/b" JSON-pointer indexing into $ctx/$vars. It
// intentionally implements only this grammar (not a general expression
// language) per the §9 design note on scope creep.
func EvalExpression(expr string, b Bindings) (any, error) {
	parts := splitConcat(expr)
	if len(parts) == 1 {
		return evalTerm(strings.TrimSpace(parts[0]), b)
	}
	var sb strings.Builder
	for _, p := range parts {
		v, err := evalTerm(strings.TrimSpace(p), b)
		if err != nil {
			return nil, err
		}
		sb.WriteString(toStringValue(v))
	}
	return sb.String(), nil
}

// splitConcat splits on top-level "&" (not inside quotes).
func splitConcat(expr string) []string {
	var parts []string
	var cur strings.Builder
	inQuotes := false
	for i := 0; i < len(expr); i++ {
		c := expr[i]
		switch {
		case c == '\'' || c == '"':
			inQuotes = !inQuotes
			cur.WriteByte(c)
		case c == '&' && !inQuotes:
			parts = append(parts, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	parts = append(parts, cur.String())
	return parts
}

func evalTerm(term string, b Bindings) (any, error) {
	switch {
	case strings.HasPrefix(term, "'") && strings.HasSuffix(term, "'") && len(term) >= 2:
		return term[1 : len(term)-1], nil
	case strings.HasPrefix(term, "\"") && strings.HasSuffix(term, "\"") && len(term) >= 2:
		return term[1 : len(term)-1], nil
	case strings.HasPrefix(term, "$"):
		return lookupVar(term, b)
	case strings.HasPrefix(term, "/"):
		return lookupPointer(b.Ctx, term)
	default:
		// A bare number or the literal true/false/null is accepted as-is.
		if n, err := strconv.ParseFloat(term, 64); err == nil {
			return n, nil
		}
		switch term {
		case "true":
			return true, nil
		case "false":
			return false, nil
		case "null":
			return nil, nil
		}
		return nil, fmt.Errorf("authflow: expr: cannot evaluate term %q", term)
	}
}

func lookupVar(term string, b Bindings) (any, error) {
	name := strings.TrimPrefix(term, "$")
	switch {
	case name == "access_token":
		return b.AccessToken, nil
	case name == "expires_at":
		return b.ExpiresAt, nil
	case name == "ctx" || strings.HasPrefix(name, "ctx."):
		path := strings.TrimPrefix(name, "ctx")
		path = strings.TrimPrefix(path, ".")
		return lookupDotted(b.Ctx, path)
	case name == "vars" || strings.HasPrefix(name, "vars."):
		path := strings.TrimPrefix(name, "vars")
		path = strings.TrimPrefix(path, ".")
		return lookupDotted(b.Vars, path)
	case name == "secrets" || strings.HasPrefix(name, "secrets."):
		path := strings.TrimPrefix(name, "secrets")
		path = strings.TrimPrefix(path, ".")
		return lookupDotted(b.Secrets, path)
	default:
		return nil, fmt.Errorf("authflow: expr: unknown variable %q", term)
	}
}

func lookupDotted(m map[string]any, path string) (any, error) {
	if path == "" {
		return m, nil
	}
	var cur any = m
	for _, seg := range strings.Split(path, ".") {
		asMap, ok := cur.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("authflow: expr: path segment %q is not an object", seg)
		}
		v, ok := asMap[seg]
		if !ok {
			return nil, nil
		}
		cur = v
	}
	return cur, nil
}

func lookupPointer(root map[string]any, pointer string) (any, error) {
	segs := strings.Split(strings.TrimPrefix(pointer, "/"), "/")
	var cur any = root
	for _, seg := range segs {
		seg = strings.ReplaceAll(seg, "~1", "/")
		seg = strings.ReplaceAll(seg, "~0", "~")
		switch v := cur.(type) {
		case map[string]any:
			next, ok := v[seg]
			if !ok {
				return nil, nil
			}
			cur = next
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(v) {
				return nil, nil
			}
			cur = v[idx]
		default:
			return nil, nil
		}
	}
	return cur, nil
}

func toStringValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}

// isExpressionMarker reports whether s is wholly "{% ... %}".
func isExpressionMarker(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "{%") && strings.HasSuffix(s, "%}") {
		return strings.TrimSpace(s[2 : len(s)-2]), true
	}
	return "", false
}

// RenderValue recursively substitutes expression markers found in v,
// leaving literal JSON values untouched (§3 Expression Mapping). A JSON
// pointer in plain-string form ("/a/b", without the {% %} wrapper) is also
// dereferenced directly against ctx, per §4.1's "(a) JSON pointer
// dereference of the context" primitive.
func RenderValue(v any, b Bindings) (any, error) {
	switch val := v.(type) {
	case string:
		if expr, ok := isExpressionMarker(val); ok {
			return EvalExpression(expr, b)
		}
		if strings.HasPrefix(val, "/") {
			return lookupPointer(b.Ctx, val)
		}
		return val, nil
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, vv := range val {
			rendered, err := RenderValue(vv, b)
			if err != nil {
				return nil, err
			}
			out[k] = rendered
		}
		return out, nil
	case []any:
		out := make([]any, len(val))
		for i, vv := range val {
			rendered, err := RenderValue(vv, b)
			if err != nil {
				return nil, err
			}
			out[i] = rendered
		}
		return out, nil
	default:
		return v, nil
	}
}
