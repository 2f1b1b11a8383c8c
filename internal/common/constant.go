// Package common contains shared constants and sentinel errors used across
// ridekeeper components.
package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the access
// token on outbound requests.
const AccessTokenHeaderName = "access_token"

// Collection names used by the document store.
const (
	CollectionUsers   = "users"
	CollectionDrivers = "drivers"
	CollectionRides   = "rides"
)
