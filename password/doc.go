// Package password derives and verifies scrypt password credentials.
//
// Credentials are stored as "hex(key).hex(salt)". Verification is
// constant-time over the derived key and treats malformed stored
// credentials as a mismatch rather than an error, so a corrupt record
// cannot be distinguished from a wrong password by the caller.
package password
