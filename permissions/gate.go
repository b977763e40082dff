package permissions

import (
	"sort"
	"strings"
)

// Policy lists the scopes a grant must include before the gateway will seal its
// token. It is process-wide configuration.
type Policy struct {
	Required []string
}

// Result of checking a grant against the policy.
type Result struct {
	Valid   bool     `json:"valid"`
	Missing []string `json:"missing_permissions"`
}

// Gate checks granted scopes against a Policy. An empty policy accepts every grant.
type Gate struct {
	required []string
}

func NewGate(policy Policy) *Gate {
	return &Gate{required: normalizeScopes(policy.Required)}
}

// Required returns a copy of the normalized required scopes.
func (g *Gate) Required() []string {
	return append([]string(nil), g.required...)
}

// Check computes required minus granted. Missing is sorted and never nil.
func (g *Gate) Check(granted []string) Result {
	have := make(map[string]struct{}, len(granted))
	for _, scope := range normalizeScopes(granted) {
		have[scope] = struct{}{}
	}

	missing := []string{}
	for _, scope := range g.required {
		if _, ok := have[scope]; !ok {
			missing = append(missing, scope)
		}
	}
	return Result{Valid: len(missing) == 0, Missing: missing}
}

func normalizeScopes(scopes []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(scopes))
	for _, scope := range scopes {
		normalized := strings.ToLower(strings.TrimSpace(scope))
		if normalized == "" {
			continue
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}
	sort.Strings(out)
	return out
}
