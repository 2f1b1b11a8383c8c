// Package services contains application services for the ridekeeper client.
//
// UserStatus is the caller-side policy around the override cache: it decides
// when an override is installed, when its pending marker is dropped and when
// it is cleared. Session covers connectivity and authentication against the
// document server.
package services
