// Package secretsprovider resolves "vault://mount/path[#/json/pointer]"
// references used by the secrets.resolve task handler (§4.5) and by
// connector configs that need secret material without embedding it.
package secretsprovider

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aionixone/openact/pkg/apperrors"
)

// Provider resolves a mount+path to its raw JSON document.
type Provider interface {
	Resolve(ctx context.Context, mount, path string) (json.RawMessage, error)
}

// Ref is a parsed "vault://mount/path[#/pointer]" reference.
type Ref struct {
	Mount   string
	Path    string
	Pointer string // empty means "whole document"
}

// ParseRef parses the vault:// scheme described in §4.5.
func ParseRef(raw string) (Ref, error) {
	const scheme = "vault://"
	if !strings.HasPrefix(raw, scheme) {
		return Ref{}, apperrors.NewInvalidError("secrets ref must start with vault://: "+raw, nil)
	}
	rest := strings.TrimPrefix(raw, scheme)
	var pointer string
	if idx := strings.Index(rest, "#"); idx >= 0 {
		pointer = rest[idx+1:]
		rest = rest[:idx]
	}
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Ref{}, apperrors.NewInvalidError("secrets ref must be vault://mount/path: "+raw, nil)
	}
	return Ref{Mount: parts[0], Path: parts[1], Pointer: pointer}, nil
}

// Resolve resolves a raw vault:// string through p, applying the optional
// JSON-pointer suffix to extract a single field from the secret document.
func Resolve(ctx context.Context, p Provider, raw string) (any, error) {
	ref, err := ParseRef(raw)
	if err != nil {
		return nil, err
	}
	doc, err := p.Resolve(ctx, ref.Mount, ref.Path)
	if err != nil {
		return nil, err
	}
	if ref.Pointer == "" {
		var v any
		if err := json.Unmarshal(doc, &v); err != nil {
			return nil, apperrors.NewInternalError("secrets: malformed secret document", err)
		}
		return v, nil
	}
	var v any
	if err := json.Unmarshal(doc, &v); err != nil {
		return nil, apperrors.NewInternalError("secrets: malformed secret document", err)
	}
	return dereference(v, ref.Pointer)
}

func dereference(root any, pointer string) (any, error) {
	segs := strings.Split(strings.TrimPrefix(pointer, "/"), "/")
	cur := root
	for _, seg := range segs {
		seg = strings.ReplaceAll(seg, "~1", "/")
		seg = strings.ReplaceAll(seg, "~0", "~")
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, apperrors.NewInvalidError(fmt.Sprintf("secrets: pointer segment %q is not addressable", seg), nil)
		}
		v, ok := m[seg]
		if !ok {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("secrets: pointer segment %q not found", seg), nil)
		}
		cur = v
	}
	return cur, nil
}

// MapProvider is a process-local, in-memory Provider backed by a static map
// of mount -> path -> raw JSON document. It is the default provider for
// single-process deployments and tests; a real deployment wires a different
// Provider (e.g. an HTTP client against an external secrets service).
type MapProvider struct {
	docs map[string]map[string]json.RawMessage
}

// NewMapProvider builds a MapProvider from nested maps of mount -> path ->
// arbitrary JSON-marshalable value.
func NewMapProvider(data map[string]map[string]any) (*MapProvider, error) {
	docs := make(map[string]map[string]json.RawMessage, len(data))
	for mount, paths := range data {
		docs[mount] = make(map[string]json.RawMessage, len(paths))
		for path, v := range paths {
			raw, err := json.Marshal(v)
			if err != nil {
				return nil, apperrors.NewInvalidError("secrets: failed to encode seed document", err)
			}
			docs[mount][path] = raw
		}
	}
	return &MapProvider{docs: docs}, nil
}

// Resolve implements Provider.
func (p *MapProvider) Resolve(_ context.Context, mount, path string) (json.RawMessage, error) {
	paths, ok := p.docs[mount]
	if !ok {
		return nil, apperrors.NewNotFoundError("secrets: unknown mount "+mount, nil)
	}
	doc, ok := paths[path]
	if !ok {
		return nil, apperrors.NewNotFoundError("secrets: unknown path "+path+" in mount "+mount, nil)
	}
	return doc, nil
}
