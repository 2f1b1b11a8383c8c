package models

import (
	"errors"
	"strings"
	"time"
)

type VehicleType string

const (
	VehicleEconomy VehicleType = "ECONOMY"
	VehiclePremium VehicleType = "PREMIUM"
	VehicleXL      VehicleType = "XL"
)

var ErrInvalidVehicleType = errors.New("invalid vehicle type")

func ParseVehicleType(s string) (VehicleType, error) {
	vt := VehicleType(strings.ToUpper(strings.TrimSpace(s)))
	if vt.Valid() {
		return vt, nil
	}
	return "", ErrInvalidVehicleType
}

func (v VehicleType) Valid() bool {
	switch v {
	case VehicleEconomy, VehiclePremium, VehicleXL:
		return true
	default:
		return false
	}
}

// RideStatus is the lifecycle state of a ride.
type RideStatus string

const (
	RideRequested  RideStatus = "REQUESTED"
	RideMatched    RideStatus = "MATCHED"
	RideEnRoute    RideStatus = "EN_ROUTE"
	RideArrived    RideStatus = "ARRIVED"
	RideInProgress RideStatus = "IN_PROGRESS"
	RideCompleted  RideStatus = "COMPLETED"
	RideCancelled  RideStatus = "CANCELLED"
)

var (
	ErrInvalidRideStatus       = errors.New("invalid ride status")
	ErrInvalidStatusTransition = errors.New("invalid ride status transition")
	ErrPassengerRequired       = errors.New("passenger id is required")
)

func ParseRideStatus(s string) (RideStatus, error) {
	status := RideStatus(strings.ToUpper(strings.TrimSpace(s)))
	if status.Valid() {
		return status, nil
	}
	return "", ErrInvalidRideStatus
}

func (s RideStatus) Valid() bool {
	switch s {
	case RideRequested, RideMatched, RideEnRoute, RideArrived, RideInProgress, RideCompleted, RideCancelled:
		return true
	default:
		return false
	}
}

// Terminal reports whether no further transition is possible.
func (s RideStatus) Terminal() bool {
	return s == RideCompleted || s == RideCancelled
}

// CanTransitionTo reports whether a ride may move from s to next.
func (s RideStatus) CanTransitionTo(next RideStatus) bool {
	switch s {
	case RideRequested:
		return next == RideMatched || next == RideCancelled
	case RideMatched:
		return next == RideEnRoute || next == RideArrived || next == RideCancelled
	case RideEnRoute:
		return next == RideArrived || next == RideCancelled
	case RideArrived:
		return next == RideInProgress || next == RideCancelled
	case RideInProgress:
		return next == RideCompleted || next == RideCancelled
	default:
		return false
	}
}

// Ride is stored in the "rides" collection.
type Ride struct {
	ID            string      `json:"-"`
	PassengerID   string      `json:"passenger_id"`
	DriverID      string      `json:"driver_id,omitempty"`
	VehicleType   VehicleType `json:"vehicle_type"`
	Status        RideStatus  `json:"status"`
	Pickup        Location    `json:"pickup"`
	Destination   Location    `json:"destination"`
	EstimatedFare float64     `json:"estimated_fare,omitempty"`
	FinalFare     float64     `json:"final_fare,omitempty"`
	RequestedAt   time.Time   `json:"requested_at"`
	CompletedAt   *time.Time  `json:"completed_at,omitempty"`
	CancelReason  string      `json:"cancel_reason,omitempty"`
}

// NewRide returns a ride in REQUESTED state.
func NewRide(passengerID string, vt VehicleType, pickup, destination Location) (*Ride, error) {
	r := &Ride{
		PassengerID: strings.TrimSpace(passengerID),
		VehicleType: vt,
		Status:      RideRequested,
		Pickup:      pickup,
		Destination: destination,
		RequestedAt: time.Now().UTC(),
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Ride) Validate() error {
	if r.PassengerID == "" {
		return ErrPassengerRequired
	}
	if !r.VehicleType.Valid() {
		return ErrInvalidVehicleType
	}
	if !r.Status.Valid() {
		return ErrInvalidRideStatus
	}
	if err := r.Pickup.Validate(); err != nil {
		return err
	}
	return r.Destination.Validate()
}

// Transition moves the ride to next, stamping CompletedAt on completion.
func (r *Ride) Transition(next RideStatus) error {
	if !r.Status.CanTransitionTo(next) {
		return ErrInvalidStatusTransition
	}
	r.Status = next
	if next == RideCompleted {
		now := time.Now().UTC()
		r.CompletedAt = &now
	}
	return nil
}
