package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseScope(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		want   Scope
		wantOK bool
	}{
		{name: "empty", raw: "", want: Scope{}, wantOK: true},
		{name: "normalized order", raw: "offline_access  openid email", want: Scope{"openid", "email", "offline_access"}, wantOK: true},
		{name: "duplicates", raw: "openid openid", want: Scope{"openid"}, wantOK: true},
		{name: "unknown", raw: "openid admin", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseScope(tt.raw)

			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestScope_Within(t *testing.T) {
	granted := Scope{ScopeOpenID, ScopeEmail, ScopeOfflineAccess}

	assert.True(t, Scope{ScopeOpenID}.Within(granted))
	assert.True(t, Scope{}.Within(granted))
	assert.False(t, Scope{ScopeProfile}.Within(granted))
	assert.Equal(t, "openid email offline_access", granted.String())
}

func TestRefreshToken_Rotated(t *testing.T) {
	next := int64(2)

	assert.False(t, (&RefreshToken{}).Rotated())
	assert.False(t, (&RefreshToken{Revoked: true}).Rotated())
	assert.True(t, (&RefreshToken{Revoked: true, ReplacedByTokenID: &next}).Rotated())
}
