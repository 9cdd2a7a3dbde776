// Package mfagate provides a multi-factor authentication engine combining
// password verification with optional TOTP codes and face-image
// verification, plus the enrollment flows that turn those factors on and
// off per account.
//
// The package is designed for concurrent server workloads: Engine methods
// are safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// mfagate is the public surface. It exposes [Engine], [Builder], [Config],
// and value types (LoginAttempt, TOTPSetup, MetricsSnapshot). Account
// persistence lives in the credstore sub-package behind [credstore.Store],
// credential hashing in password, image comparison in face, and session
// tokens in jwt. None of the sub-packages import mfagate.
//
// # Pipeline contract
//
// Authenticate evaluates factors in a fixed order: password, then TOTP,
// then face. A later factor is never consulted before every earlier one
// has passed, factor inputs the account has not enrolled are ignored, and
// the first failing stage decides the returned sentinel error. Enrollment
// state changes go through per-record atomic store updates, so concurrent
// transitions never lose writes.
package mfagate
