// Package docstore is the client's boundary to the remote document store.
//
// Store is implemented by:
//   - Memory, an in-process store used offline and in tests;
//   - GRPCStore, which talks to the ridekeeper document server, attaches
//     the access token to every call and logs in again when it expires;
//   - Cached, a read-through TTL cache in front of any other Store.
//
// Errors are reported as sentinels that callers match with errors.Is:
// common.ErrorNotFound for a missing document, ErrUnavailable when the
// server cannot be reached and ErrUnauthorized when credentials are rejected.
package docstore
