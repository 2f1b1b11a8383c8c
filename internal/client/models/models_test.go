package models

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnums(t *testing.T) {
	r, err := ParseRole(" driver ")
	require.NoError(t, err)
	assert.Equal(t, RoleDriver, r)
	_, err = ParseRole("pilot")
	assert.ErrorIs(t, err, ErrInvalidRole)

	ds, err := ParseDriverStatus("en_route")
	require.NoError(t, err)
	assert.Equal(t, DriverStatusEnRoute, ds)
	_, err = ParseDriverStatus("asleep")
	assert.ErrorIs(t, err, ErrInvalidDriverStatus)

	rs, err := ParseRideStatus("In_Progress")
	require.NoError(t, err)
	assert.Equal(t, RideInProgress, rs)
	_, err = ParseRideStatus("")
	assert.ErrorIs(t, err, ErrInvalidRideStatus)

	vt, err := ParseVehicleType("xl")
	require.NoError(t, err)
	assert.Equal(t, VehicleXL, vt)
	_, err = ParseVehicleType("bike")
	assert.ErrorIs(t, err, ErrInvalidVehicleType)
}

func TestNewUser(t *testing.T) {
	u, err := NewUser(" Ann ", "ann@example.com", RolePassenger)
	require.NoError(t, err)
	assert.Equal(t, "Ann", u.Name)
	assert.True(t, u.Active)
	assert.True(t, u.IsPassenger())

	_, err = NewUser("Ann", "not-an-email", RolePassenger)
	assert.ErrorIs(t, err, ErrInvalidEmail)
	_, err = NewUser("", "ann@example.com", RolePassenger)
	assert.ErrorIs(t, err, ErrNameRequired)
	_, err = NewUser("Ann", "ann@example.com", Role("GUEST"))
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestNewDriver(t *testing.T) {
	d, err := NewDriver("u1", "LIC-1", VehicleEconomy, Vehicle{Plate: "AB123"})
	require.NoError(t, err)
	assert.Equal(t, "u1", d.ID)
	assert.Equal(t, DriverStatusOffline, d.Status)

	_, err = NewDriver("", "LIC-1", VehicleEconomy, Vehicle{})
	assert.ErrorIs(t, err, ErrUserIDRequired)
	_, err = NewDriver("u1", "", VehicleEconomy, Vehicle{})
	assert.ErrorIs(t, err, ErrLicenseRequired)
	_, err = NewDriver("u1", "LIC-1", "SCOOTER", Vehicle{})
	assert.ErrorIs(t, err, ErrInvalidVehicleType)

	d.Location = &Coordinate{Latitude: 91}
	assert.ErrorIs(t, d.Validate(), ErrInvalidLatitude)
}

func TestRideTransitions(t *testing.T) {
	pickup := Location{Coordinate: Coordinate{Latitude: 43.24, Longitude: 76.88}, Address: "Abay 1"}
	dest := Location{Coordinate: Coordinate{Latitude: 43.22, Longitude: 76.85}}

	r, err := NewRide("p1", VehicleEconomy, pickup, dest)
	require.NoError(t, err)
	assert.Equal(t, RideRequested, r.Status)

	require.ErrorIs(t, r.Transition(RideCompleted), ErrInvalidStatusTransition)
	for _, next := range []RideStatus{RideMatched, RideEnRoute, RideArrived, RideInProgress, RideCompleted} {
		require.NoError(t, r.Transition(next), "to %s", next)
	}
	assert.NotNil(t, r.CompletedAt)
	assert.True(t, r.Status.Terminal())
	assert.ErrorIs(t, r.Transition(RideCancelled), ErrInvalidStatusTransition)

	_, err = NewRide("p1", VehicleEconomy, Location{Coordinate: Coordinate{Longitude: 200}}, dest)
	assert.ErrorIs(t, err, ErrInvalidLongitude)
}

func TestFields(t *testing.T) {
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	r := Ride{
		ID:          "ignored",
		PassengerID: "p1",
		VehicleType: VehiclePremium,
		Status:      RideMatched,
		Pickup:      Location{Coordinate: Coordinate{Latitude: 1.5, Longitude: 2.5}, Address: "A"},
		RequestedAt: at,
	}

	m, err := Fields(r)
	require.NoError(t, err)
	assert.NotContains(t, m, "driver_id")
	assert.NotContains(t, m, "ID")
	assert.Equal(t, map[string]any{"lat": 1.5, "lng": 2.5, "address": "A"}, m["pickup"])
	assert.Equal(t, "2025-03-01T10:00:00Z", m["requested_at"])

	var back Ride
	require.NoError(t, FromFields(m, &back))
	back.ID = r.ID
	if diff := cmp.Diff(r, back); diff != "" {
		t.Fatalf("ride mismatch (-want +got):\n%s", diff)
	}
}
