// Package cli is the interactive ridekeeper client.
//
// NewApp opens the local SQLite database, connects to the document server
// and wires the status overrides cache. Run logs in, starts a background
// connectivity watcher that flips between online and offline mode, and
// serves the REPL until the user exits. Status changes made with "active"
// show immediately and survive restarts while the server catches up.
package cli
