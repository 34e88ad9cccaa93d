package hash

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// argon2Params is the PHC parameter block stored alongside each hash.
type argon2Params struct {
	memory  uint32
	time    uint32
	threads uint8
}

func (p argon2Params) String() string {
	return fmt.Sprintf("m=%d,t=%d,p=%d", p.memory, p.time, p.threads)
}

var defaultArgon2Params = argon2Params{memory: 32 * 1024, time: 3, threads: 2}

const (
	argon2SaltLen = 16
	argon2KeyLen  = 32
	argon2Slots   = 2
)

// Argon2id hashes peppered passwords with argon2id. A small semaphore bounds
// how many derivations hold their memory at once.
type Argon2id struct {
	params argon2Params
	pepper string
	slots  chan struct{}
}

func NewArgon2id(pepper string) *Argon2id {
	return &Argon2id{
		params: defaultArgon2Params,
		pepper: pepper,
		slots:  make(chan struct{}, argon2Slots),
	}
}

func (a *Argon2id) key(plaintext string, salt []byte, p argon2Params, keyLen uint32) []byte {
	a.slots <- struct{}{}
	defer func() { <-a.slots }()

	return argon2.IDKey(peppered(a.pepper, plaintext), salt, p.time, p.memory, p.threads, keyLen)
}

// Hash returns "$argon2id$v=19$m=..,t=..,p=..$<salt>$<key>".
func (a *Argon2id) Hash(plaintext string) ([]byte, error) {
	salt := make([]byte, argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("hash: argon2id salt: %w", err)
	}

	enc := base64.RawStdEncoding
	return fmt.Appendf(nil, "$argon2id$v=%d$%s$%s$%s",
		argon2.Version, a.params, enc.EncodeToString(salt),
		enc.EncodeToString(a.key(plaintext, salt, a.params, argon2KeyLen)),
	), nil
}

func (a *Argon2id) Verify(hashed, plaintext string) bool {
	p, salt, want, ok := parseArgon2id(hashed)
	if !ok || plaintext == "" {
		return false
	}

	got := a.key(plaintext, salt, p, uint32(len(want))) //nolint:gosec // key length comes from our own encoding
	return subtle.ConstantTimeCompare(want, got) == 1
}

func parseArgon2id(encoded string) (p argon2Params, salt, key []byte, ok bool) {
	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, key
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return p, nil, nil, false
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return p, nil, nil, false
	}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.time, &p.threads); err != nil {
		return p, nil, nil, false
	}
	if p.memory == 0 || p.time == 0 || p.threads == 0 {
		return p, nil, nil, false
	}

	var err error
	if salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return p, nil, nil, false
	}
	if key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil || len(key) == 0 {
		return p, nil, nil, false
	}

	return p, salt, key, true
}
