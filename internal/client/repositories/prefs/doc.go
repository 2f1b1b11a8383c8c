// Package prefs implements the local key-value store ("preferences") backed
// by the client's SQLite database. The status-override cache persists its
// two keys here.
package prefs
