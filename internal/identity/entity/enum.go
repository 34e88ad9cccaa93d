package entity

type UserStatus string

const (
	// UserStatusActive mean user is allowed to use the app.
	UserStatusActive UserStatus = "active"

	// UserStatusBanned mean user is blocked from using the app (policy/abuse/etc).
	UserStatusBanned UserStatus = "banned"

	// UserStatusInactive mean user is not currently active (e.g., deactivated, closed).
	UserStatusInactive UserStatus = "inactive"
)

func (us UserStatus) IsValid() bool {
	switch us {
	case UserStatusActive, UserStatusBanned, UserStatusInactive:
		return true
	default:
		return false
	}
}

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAdmin
}

type ChallengePurpose string

const (
	ChallengePurposeMFALogin        ChallengePurpose = "mfa_login"
	ChallengePurposeMFASetupConfirm ChallengePurpose = "mfa_setup_confirm"
)

type MFAType string

const (
	MFATypeTOTP MFAType = "totp"
)
