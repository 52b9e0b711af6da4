package mcptools

import (
	"context"
	"strings"
	"time"

	"github.com/aionixone/openact/pkg/apperrors"
)

// Governance is the §4.9 (allow, deny, max_concurrency, timeout) quadruple.
// A nil/zero-value Governance allows everything with no concurrency cap and
// no timeout.
type Governance struct {
	Allow          []string
	Deny           []string
	MaxConcurrency int
	Timeout        time.Duration

	sem chan struct{}
}

// NewGovernance builds a Governance with its semaphore initialised. A
// maxConcurrency of 0 means unlimited (no semaphore acquired).
func NewGovernance(allow, deny []string, maxConcurrency int, timeout time.Duration) *Governance {
	g := &Governance{Allow: allow, Deny: deny, MaxConcurrency: maxConcurrency, Timeout: timeout}
	if maxConcurrency > 0 {
		g.sem = make(chan struct{}, maxConcurrency)
	}
	return g
}

// matchPattern implements the §4.9 pattern syntax: literal, "prefix.*",
// "*.suffix", or the bare wildcard "*". Matching is case-insensitive.
func matchPattern(pattern, name string) bool {
	pattern = strings.ToLower(pattern)
	name = strings.ToLower(name)
	switch {
	case pattern == "*":
		return true
	case strings.HasSuffix(pattern, ".*"):
		return strings.HasPrefix(name, strings.TrimSuffix(pattern, "*"))
	case strings.HasPrefix(pattern, "*."):
		return strings.HasSuffix(name, strings.TrimPrefix(pattern, "*"))
	default:
		return pattern == name
	}
}

func matchesAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if matchPattern(p, name) {
			return true
		}
	}
	return false
}

// Permitted reports whether name passes the §4.9 allow/deny filter (steps
// 1-2), without acquiring the concurrency semaphore or running anything.
// Useful for catalog listing, where no invocation takes place.
func (g *Governance) Permitted(name string) bool {
	return g.permitted(name)
}

// permitted runs the §4.9 allow/deny algorithm steps 1-2.
func (g *Governance) permitted(name string) bool {
	if len(g.Allow) > 0 && !matchesAny(g.Allow, name) {
		return false
	}
	if matchesAny(g.Deny, name) {
		return false
	}
	return true
}

// Invoke runs fn under the governance quadruple: allow/deny check, then a
// semaphore acquire (failing RateLimit on exhaustion), then a timeout wrap
// around fn itself.
func (g *Governance) Invoke(ctx context.Context, toolName string, fn func(context.Context) (any, error)) (any, error) {
	if !g.permitted(toolName) {
		return nil, apperrors.NewForbiddenError("mcptools: tool "+toolName+" denied by governance", nil)
	}

	if g.sem != nil {
		select {
		case g.sem <- struct{}{}:
			defer func() { <-g.sem }()
		default:
			return nil, apperrors.NewRateLimitError("mcptools: governance concurrency limit exhausted for "+toolName, nil)
		}
	}

	runCtx := ctx
	if g.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, g.Timeout)
		defer cancel()
	}

	type outcome struct {
		val any
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		v, err := fn(runCtx)
		done <- outcome{val: v, err: err}
	}()

	select {
	case <-runCtx.Done():
		return nil, apperrors.NewTimeoutError("mcptools: tool "+toolName+" exceeded governance timeout", runCtx.Err())
	case o := <-done:
		return o.val, o.err
	}
}

// Profile is a named governance preset (§4.9).
type Profile string

const (
	ProfileAOnly Profile = "a-only"
	ProfileBOnly Profile = "b-only"
	ProfileMixed Profile = "mixed"
)

// ApplyProfile returns the (allow, deny) patterns for a named preset.
// a-only exposes only the generic "openact.execute" tool; b-only exposes
// every per-action tool but blocks the generic one; mixed exposes both.
func ApplyProfile(p Profile) (allow, deny []string) {
	switch p {
	case ProfileAOnly:
		return []string{"openact.execute"}, nil
	case ProfileBOnly:
		return nil, []string{"openact.execute"}
	case ProfileMixed:
		return nil, nil
	default:
		return nil, nil
	}
}
