// Package credstore holds per-account identity and enrolled-factor state.
//
// The engine never touches account records directly; every read and every
// enrollment transition goes through [Store]. Implementations must serialize
// concurrent updates of the same record: [Store.Update] is a per-record
// atomic read-modify-write, so two racing enrollment transitions never lose
// a write.
//
// [MemoryStore] is the default backend for tests and single-process
// deployments. [RedisStore] provides the same contract on Redis using
// optimistic WATCH/MULTI transactions.
package credstore
