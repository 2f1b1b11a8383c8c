// Package client bootstraps the ridekeeper client's local persistence.
//
// InitDatabase opens the on-device SQLite database and applies the embedded
// goose migrations. NewRepositories wires the local prefs store together
// with the entity repositories, which talk to a docstore.Store.
package client
