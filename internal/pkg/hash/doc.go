// Package hash covers the two kinds of digests identity needs: slow password
// hashes (bcrypt or argon2id, peppered) and a keyed HMAC-SHA256 used to store
// refresh tokens and login challenges without keeping the raw token.
package hash
