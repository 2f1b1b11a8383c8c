package models

import "errors"

var (
	ErrInvalidLatitude  = errors.New("latitude must be between -90 and 90")
	ErrInvalidLongitude = errors.New("longitude must be between -180 and 180")
)

type Coordinate struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

func (c Coordinate) Validate() error {
	if c.Latitude < -90 || c.Latitude > 90 {
		return ErrInvalidLatitude
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return ErrInvalidLongitude
	}
	return nil
}

// Location is a coordinate with its human-readable address.
type Location struct {
	Coordinate
	Address string `json:"address,omitempty"`
}
