// Package jwt issues and parses signed session tokens for accounts that
// have passed the full authentication pipeline.
//
// Tokens are stateless: the engine signs the account id and username
// into the claims and callers verify them on each request. HMAC-SHA256
// and Ed25519 signing are supported; the parser pins the configured
// algorithm, so a token signed under a different method never verifies.
package jwt
