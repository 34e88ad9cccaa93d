package uid

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"io"
	"time"
)

const (
	tokenBytes     = 32
	tokenTimeBytes = 6
)

// Token generates 64-char hex opaque tokens for refresh tokens and login
// challenges. The first 6 bytes are the big-endian unix millisecond so rows
// sort by issue time; the remaining 26 bytes come from crypto/rand.
type Token struct {
	now  func() time.Time
	rand io.Reader
}

// NewToken returns a Token generator. It fails when the system CSPRNG is
// unusable.
func NewToken() (*Token, error) {
	var seed [1]byte
	if _, err := io.ReadFull(rand.Reader, seed[:]); err != nil {
		return nil, err
	}

	return &Token{now: time.Now, rand: rand.Reader}, nil
}

func (t *Token) Generate() string {
	var raw [tokenBytes]byte

	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(t.now().UnixMilli()))
	copy(raw[:tokenTimeBytes], ts[8-tokenTimeBytes:])

	if _, err := io.ReadFull(t.rand, raw[tokenTimeBytes:]); err != nil {
		panic("uid: crypto/rand failed: " + err.Error())
	}

	return hex.EncodeToString(raw[:])
}
