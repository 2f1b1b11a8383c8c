package models

import (
	"errors"
	"strings"
	"time"
)

// DriverStatus is the operational state of a driver.
type DriverStatus string

const (
	DriverStatusOffline   DriverStatus = "OFFLINE"
	DriverStatusAvailable DriverStatus = "AVAILABLE"
	DriverStatusBusy      DriverStatus = "BUSY"
	DriverStatusEnRoute   DriverStatus = "EN_ROUTE"
)

var (
	ErrInvalidDriverStatus = errors.New("invalid driver status")
	ErrUserIDRequired      = errors.New("user id is required")
	ErrLicenseRequired     = errors.New("license number is required")
)

// ParseDriverStatus normalizes (uppercases+trims) and validates a driver status string.
func ParseDriverStatus(s string) (DriverStatus, error) {
	status := DriverStatus(strings.ToUpper(strings.TrimSpace(s)))
	if status.Valid() {
		return status, nil
	}
	return "", ErrInvalidDriverStatus
}

func (s DriverStatus) Valid() bool {
	switch s {
	case DriverStatusOffline, DriverStatusAvailable, DriverStatusBusy, DriverStatusEnRoute:
		return true
	default:
		return false
	}
}

func (s DriverStatus) String() string { return string(s) }

type Vehicle struct {
	Plate string `json:"plate"`
	Make  string `json:"make,omitempty"`
	Model string `json:"model,omitempty"`
	Color string `json:"color,omitempty"`
	Year  int    `json:"year,omitempty"`
}

// Driver is stored in the "drivers" collection, keyed by the driver's user id.
type Driver struct {
	ID            string       `json:"-"`
	UserID        string       `json:"user_id"`
	LicenseNumber string       `json:"license_number"`
	VehicleType   VehicleType  `json:"vehicle_type"`
	Vehicle       Vehicle      `json:"vehicle"`
	Status        DriverStatus `json:"status"`
	Verified      bool         `json:"verified"`
	Rating        float64      `json:"rating"`
	TotalRides    int          `json:"total_rides"`
	Location      *Coordinate  `json:"location,omitempty"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// NewDriver returns an offline, unverified driver.
func NewDriver(userID, licenseNumber string, vt VehicleType, v Vehicle) (*Driver, error) {
	d := &Driver{
		ID:            strings.TrimSpace(userID),
		UserID:        strings.TrimSpace(userID),
		LicenseNumber: strings.TrimSpace(licenseNumber),
		VehicleType:   vt,
		Vehicle:       v,
		Status:        DriverStatusOffline,
		Rating:        5.0,
		UpdatedAt:     time.Now().UTC(),
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Driver) Validate() error {
	if d.UserID == "" {
		return ErrUserIDRequired
	}
	if d.LicenseNumber == "" {
		return ErrLicenseRequired
	}
	if !d.VehicleType.Valid() {
		return ErrInvalidVehicleType
	}
	if !d.Status.Valid() {
		return ErrInvalidDriverStatus
	}
	if d.Location != nil {
		return d.Location.Validate()
	}
	return nil
}
