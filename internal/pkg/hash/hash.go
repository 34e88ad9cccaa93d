package hash

import "fmt"

// Hash hashes secrets and verifies plaintext against a stored hash.
type Hash interface {
	Hash(str string) ([]byte, error)
	Verify(hashed, str string) bool
}

// NewPassword returns the password hasher selected by driver ("bcrypt" or "argon2id").
func NewPassword(driver string, bcryptCost int, pepper string) (Hash, error) {
	switch driver {
	case "", "bcrypt":
		return NewBcrypt(bcryptCost, pepper), nil
	case "argon2id":
		return NewArgon2id(pepper), nil
	default:
		return nil, fmt.Errorf("hash: unsupported password driver %q", driver)
	}
}
