package entity

import (
	"time"

	"github.com/shandysiswandi/gofocus/internal/pkg/valueobject"
)

type User struct {
	ID        int64
	Email     string
	FullName  string
	Role      Role
	Status    UserStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// LoginInfo is a user joined with its password hash and second factor state.
type LoginInfo struct {
	User
	Password string // hashed
	HasMFA   bool
}

type MFAFactor struct {
	ID           int64
	UserID       int64
	Type         MFAType
	FriendlyName string
	Secret       []byte // encrypted, see mfa.PurposeTOTPSeed
	KeyVersion   int16
	IsVerified   bool
}

// Challenge is a short lived, single use token. Token holds the HMAC digest,
// never the value handed to the client.
type Challenge struct {
	ID        int64
	UserID    int64
	Token     string
	Purpose   ChallengePurpose
	ExpiresAt time.Time
	Metadata  valueobject.JSONMap
}

// RefreshToken is a stored refresh token. Token holds the HMAC digest.
// ClientID is empty for tokens issued by the first-party login endpoints.
type RefreshToken struct {
	ID                int64
	UserID            int64
	Token             string
	ClientID          string
	Scope             string
	AuthTime          time.Time
	ExpiresAt         time.Time
	Revoked           bool
	ReplacedByTokenID *int64
}

// Rotated reports whether the token was revoked by a rotation, which makes
// any further use of it a replay.
func (rt *RefreshToken) Rotated() bool {
	return rt.Revoked && rt.ReplacedByTokenID != nil
}

type UserFilter struct {
	Search string
	Status UserStatus
	Role   Role
	Limit  int32
	Offset int32
}
