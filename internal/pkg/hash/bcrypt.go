package hash

import "golang.org/x/crypto/bcrypt"

// Bcrypt hashes peppered passwords with bcrypt.
type Bcrypt struct {
	cost   int
	pepper string
}

// NewBcrypt clamps cost into bcrypt's accepted range.
func NewBcrypt(cost int, pepper string) *Bcrypt {
	return &Bcrypt{cost: min(max(cost, bcrypt.MinCost), bcrypt.MaxCost), pepper: pepper}
}

func (h *Bcrypt) Hash(plaintext string) ([]byte, error) {
	return bcrypt.GenerateFromPassword(peppered(h.pepper, plaintext), h.cost)
}

func (h *Bcrypt) Verify(hashed, plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), peppered(h.pepper, plaintext)) == nil
}
