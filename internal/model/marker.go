// Package model holds the domain types for marker events produced from
// inbound chat messages.
package model

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	geom "github.com/peterstace/simplefeatures/geom"
)

// Validation errors for marker construction.
var (
	ErrLatitudeOutOfRange  = errors.New("latitude out of range")
	ErrLongitudeOutOfRange = errors.New("longitude out of range")
	ErrEmptyLabel          = errors.New("label cannot be empty")
)

// Affiliation is the friend/hostile classification encoded into the CoT
// type code.
type Affiliation string

const (
	AffiliationHostile  Affiliation = "h"
	AffiliationFriendly Affiliation = "f"
	AffiliationNeutral  Affiliation = "n"
	AffiliationUnknown  Affiliation = "u"
)

// MarkerEvent is one validated map marker. Instances are immutable after
// construction and consumed exactly once by the encoder.
type MarkerEvent struct {
	// Position holds lon/lat (WGS84) in XY and altitude in Z.
	Position geom.Point

	// Label is the free-text description, also the symbology lookup key.
	Label string

	Affiliation Affiliation

	// EventID uniquely identifies this marker to TAK consumers.
	EventID string
}

// NewMarkerEvent validates the coordinates and label and builds a marker
// with a fresh event ID. The chat grammar carries no affiliation, so it
// always defaults to unknown.
func NewMarkerEvent(lat, lon float64, label string) (MarkerEvent, error) {
	// Inverted comparisons so NaN fails the range check too.
	if !(lat >= -90 && lat <= 90) {
		return MarkerEvent{}, fmt.Errorf("%w: %f", ErrLatitudeOutOfRange, lat)
	}
	if !(lon >= -180 && lon <= 180) {
		return MarkerEvent{}, fmt.Errorf("%w: %f", ErrLongitudeOutOfRange, lon)
	}
	if label == "" {
		return MarkerEvent{}, ErrEmptyLabel
	}

	point, err := geom.NewPoint(geom.Coordinates{
		XY:   geom.XY{X: lon, Y: lat},
		Z:    0,
		Type: geom.DimXYZ,
	})
	if err != nil {
		return MarkerEvent{}, fmt.Errorf("building position: %w", err)
	}

	return MarkerEvent{
		Position:    point,
		Label:       label,
		Affiliation: AffiliationUnknown,
		EventID:     fmt.Sprintf("Signal-Bot-%s", uuid.NewString()),
	}, nil
}

// Lat returns the WGS84 latitude.
func (e MarkerEvent) Lat() float64 {
	coords, _ := e.Position.Coordinates()
	return coords.XY.Y
}

// Lon returns the WGS84 longitude.
func (e MarkerEvent) Lon() float64 {
	coords, _ := e.Position.Coordinates()
	return coords.XY.X
}

// TypeCode composes the full CoT type string, e.g. "a-u-G-U-C-F-M" for an
// unknown-affiliation tank.
func (e MarkerEvent) TypeCode() string {
	return fmt.Sprintf("a-%s-%s", e.Affiliation, CategoryCode(e.Label))
}
