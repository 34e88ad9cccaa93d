// Package jwt issues and verifies JSON Web Tokens.
//
// It includes:
//   - Access token Claims with user, role and OAuth2 scope.
//   - HS512 (shared secret) and RS256 (key store with kid and JWKS) signing.
//   - OpenID Connect ID tokens.
//   - A Redis-backed revocation list keyed by jti.
//   - Context helpers for storing and retrieving authenticated claims.
package jwt
