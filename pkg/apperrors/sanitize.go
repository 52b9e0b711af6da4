package apperrors

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Redacted is the placeholder substituted for sensitive values.
const Redacted = "***REDACTED***"

var sensitiveFieldNames = map[string]bool{
	"password":      true,
	"token":         true,
	"secret":        true,
	"key":           true,
	"authorization": true,
	"credential":    true,
	"credentials":   true,
}

var sensitiveSuffixes = []string{
	"_key", "_token", "_secret", "_password", "_auth",
}

// fieldNamePattern catches "key=value" or "key: value" style occurrences in
// free-form strings so log messages get scrubbed too, not just JSON trees.
var fieldNamePattern = regexp.MustCompile(`(?i)\b([A-Za-z0-9_]+)\s*[:=]\s*("[^"]*"|[^\s,}]+)`)

// IsSensitiveField reports whether a field name should be redacted, per the
// §7 propagation policy: exact matches on a fixed set of names, or any name
// suffixed by _key|_token|_secret|_password|_auth.
func IsSensitiveField(name string) bool {
	lower := strings.ToLower(name)
	if sensitiveFieldNames[lower] {
		return true
	}
	for _, suffix := range sensitiveSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}

// SanitizeJSON walks an arbitrary decoded JSON value and replaces the values
// of sensitive fields (by name) with Redacted, recursing through nested
// objects and arrays. The input value is not mutated; a sanitised copy is
// returned.
func SanitizeJSON(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, vv := range val {
			if IsSensitiveField(k) {
				out[k] = Redacted
				continue
			}
			out[k] = SanitizeJSON(vv)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, vv := range val {
			out[i] = SanitizeJSON(vv)
		}
		return out
	default:
		return v
	}
}

// SanitizeMessage redacts "name=value"/"name: value" occurrences of
// sensitive field names within a free-form error/log message.
func SanitizeMessage(msg string) string {
	return fieldNamePattern.ReplaceAllStringFunc(msg, func(match string) string {
		loc := fieldNamePattern.FindStringSubmatch(match)
		if len(loc) != 3 {
			return match
		}
		name := loc[1]
		if !IsSensitiveField(name) {
			return match
		}
		sep := strings.TrimSpace(strings.TrimPrefix(match, name))
		if strings.HasPrefix(sep, ":") {
			return name + ": " + Redacted
		}
		return name + "=" + Redacted
	})
}

// SanitizeJSONString sanitises a JSON document given as raw bytes/string,
// returning the re-marshalled sanitised document. If the input is not valid
// JSON it falls back to SanitizeMessage.
func SanitizeJSONString(raw string) string {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return SanitizeMessage(raw)
	}
	out, err := json.Marshal(SanitizeJSON(v))
	if err != nil {
		return SanitizeMessage(raw)
	}
	return string(out)
}
