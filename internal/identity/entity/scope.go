package entity

import (
	"slices"
	"strings"
)

const (
	ScopeOpenID        = "openid"
	ScopeProfile       = "profile"
	ScopeEmail         = "email"
	ScopeOfflineAccess = "offline_access"
)

// SupportedScopes is the order scopes are advertised and normalized in.
var SupportedScopes = []string{ScopeOpenID, ScopeProfile, ScopeEmail, ScopeOfflineAccess}

// Scope is a set of OAuth2 scope values.
type Scope []string

// ParseScope splits a space separated scope string. ok is false when a value
// is not supported. The result is de-duplicated and ordered like
// SupportedScopes.
func ParseScope(raw string) (Scope, bool) {
	seen := map[string]struct{}{}
	for _, v := range strings.Fields(raw) {
		if !slices.Contains(SupportedScopes, v) {
			return nil, false
		}
		seen[v] = struct{}{}
	}

	out := make(Scope, 0, len(seen))
	for _, v := range SupportedScopes {
		if _, ok := seen[v]; ok {
			out = append(out, v)
		}
	}
	return out, true
}

func (s Scope) Has(v string) bool {
	return slices.Contains(s, v)
}

// Within reports whether every value of s is also in other.
func (s Scope) Within(other Scope) bool {
	for _, v := range s {
		if !other.Has(v) {
			return false
		}
	}
	return true
}

func (s Scope) String() string {
	return strings.Join(s, " ")
}
