// Package trn parses and renders OpenAct resource names (TRNs).
//
// A resource name has the shape:
//
//	trn:<system>:<tenant>:<kind>/<connector>/<name>[@v<int>]
//
// It identifies a Connection, Action, or AuthConnection within a tenant.
package trn

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind is the resource kind component of a ResourceName.
type Kind string

// Recognised resource kinds.
const (
	KindConnection Kind = "connection"
	KindAction     Kind = "action"
	KindAuth       Kind = "auth"
)

// ResourceName is a parsed, validated OpenAct resource identifier.
type ResourceName struct {
	System    string
	Tenant    string
	Kind      Kind
	Connector string
	Name      string
	Version   int
}

const prefix = "trn"

// Parse parses s into a ResourceName, or returns a descriptive error.
//
// The grammar is: trn:<system>:<tenant>:<kind>/<connector>/<name>[@v<int>].
// Kind tokens are accepted in any case and normalised to lower case.
func Parse(s string) (ResourceName, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 4 {
		return ResourceName{}, fmt.Errorf("trn: malformed identifier %q: expected 4 colon-separated components", s)
	}
	if !strings.EqualFold(parts[0], prefix) {
		return ResourceName{}, fmt.Errorf("trn: malformed identifier %q: missing %q prefix", s, prefix)
	}
	system := parts[1]
	tenant := parts[2]
	if tenant == "" {
		return ResourceName{}, fmt.Errorf("trn: malformed identifier %q: empty tenant", s)
	}
	rest := parts[3]

	segs := strings.SplitN(rest, "/", 3)
	if len(segs) != 3 {
		return ResourceName{}, fmt.Errorf("trn: malformed identifier %q: expected <kind>/<connector>/<name>", s)
	}

	kind := Kind(strings.ToLower(segs[0]))
	switch kind {
	case KindConnection, KindAction, KindAuth:
	default:
		return ResourceName{}, fmt.Errorf("trn: unknown kind %q", segs[0])
	}

	connector := segs[1]
	if !isLowerKebab(connector) {
		return ResourceName{}, fmt.Errorf("trn: invalid connector component %q: must be lower-kebab", connector)
	}

	nameAndVersion := segs[2]
	name := nameAndVersion
	version := 0
	if idx := strings.LastIndex(nameAndVersion, "@"); idx >= 0 {
		name = nameAndVersion[:idx]
		verStr := nameAndVersion[idx+1:]
		if !strings.HasPrefix(verStr, "v") && !strings.HasPrefix(verStr, "V") {
			return ResourceName{}, fmt.Errorf("trn: invalid version suffix %q: must be vN", verStr)
		}
		n, err := strconv.Atoi(verStr[1:])
		if err != nil {
			return ResourceName{}, fmt.Errorf("trn: version not an integer: %q", verStr)
		}
		version = n
	}
	if !isLowerKebabDot(name) {
		return ResourceName{}, fmt.Errorf("trn: invalid name component %q: must be lower-kebab-dot", name)
	}

	return ResourceName{
		System:    system,
		Tenant:    tenant,
		Kind:      kind,
		Connector: connector,
		Name:      name,
		Version:   version,
	}, nil
}

// Render serialises a ResourceName to its canonical string form.
// The version suffix is only emitted for non-zero versions.
func Render(n ResourceName) string {
	var b strings.Builder
	b.WriteString(prefix)
	b.WriteByte(':')
	b.WriteString(n.System)
	b.WriteByte(':')
	b.WriteString(n.Tenant)
	b.WriteByte(':')
	b.WriteString(string(n.Kind))
	b.WriteByte('/')
	b.WriteString(n.Connector)
	b.WriteByte('/')
	b.WriteString(n.Name)
	if n.Version != 0 {
		b.WriteString("@v")
		b.WriteString(strconv.Itoa(n.Version))
	}
	return b.String()
}

// String implements fmt.Stringer.
func (n ResourceName) String() string {
	return Render(n)
}

// Equal reports structural equality of all components including version.
func (n ResourceName) Equal(other ResourceName) bool {
	return n == other
}

// SameFamily reports whether two resource names share tenant, kind,
// connector and name, ignoring version.
func (n ResourceName) SameFamily(other ResourceName) bool {
	return n.System == other.System &&
		n.Tenant == other.Tenant &&
		n.Kind == other.Kind &&
		n.Connector == other.Connector &&
		n.Name == other.Name
}

// IsAncestorOf reports whether n is an earlier version of the same family
// as other (strictly lower version number).
func (n ResourceName) IsAncestorOf(other ResourceName) bool {
	return n.SameFamily(other) && n.Version < other.Version
}

// Less orders ResourceNames by family components then version, for use in
// sort.Slice over a family's version history.
func (n ResourceName) Less(other ResourceName) bool {
	if n.System != other.System {
		return n.System < other.System
	}
	if n.Tenant != other.Tenant {
		return n.Tenant < other.Tenant
	}
	if n.Kind != other.Kind {
		return n.Kind < other.Kind
	}
	if n.Connector != other.Connector {
		return n.Connector < other.Connector
	}
	if n.Name != other.Name {
		return n.Name < other.Name
	}
	return n.Version < other.Version
}

func isLowerKebab(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
		case r == '-':
			if i == 0 || i == len(s)-1 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func isLowerKebabDot(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
		case r == '-', r == '.':
			if i == 0 || i == len(s)-1 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
