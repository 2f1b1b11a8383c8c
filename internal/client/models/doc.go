// Package models defines the ride-hailing entities the client reads from
// and writes to the document store: users, drivers and rides.
package models
