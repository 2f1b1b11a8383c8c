// Package overrides keeps optimistic, locally authoritative boolean statuses
// (for example "is this user active") that must win over a slower remote
// value until the remote write they anticipate has landed.
//
// Two collections are tracked per process:
//
//   - overrides: subject id → value shown to the user instead of remote truth
//   - pending:   subject ids whose remote write is still in flight
//
// A caller typically does SetOverride + AddPendingOperation before issuing a
// remote write, RemovePendingOperation once the write returns, and
// ClearOverride when the remote listener reports the expected value while no
// write is pending. The pending marker is what keeps a replayed, stale
// listener notification from clearing an override too early.
//
// Reads are lock-free: the state lives behind an atomic pointer to an
// immutable Snapshot and every mutation publishes a fresh copy. Each mutation
// is persisted to the local key-value store under the keys
// "status_overrides" and "pending_ops"; persistence failures are logged and
// never surface to the caller.
package overrides
