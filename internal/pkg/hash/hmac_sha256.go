package hash

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// HMACSHA256 produces deterministic hex digests so tokens can be looked up
// by digest. Only the digest is persisted.
type HMACSHA256 struct {
	key []byte
}

func NewHMACSHA256(secret string) *HMACSHA256 {
	return &HMACSHA256{key: []byte(secret)}
}

// Hash never fails; the error satisfies Hash.
func (h *HMACSHA256) Hash(token string) ([]byte, error) {
	return h.digest(token), nil
}

func (h *HMACSHA256) Verify(digest, token string) bool {
	return hmac.Equal([]byte(digest), h.digest(token))
}

func (h *HMACSHA256) digest(token string) []byte {
	mac := hmac.New(sha256.New, h.key)
	mac.Write([]byte(token))
	return hex.AppendEncode(nil, mac.Sum(nil))
}
