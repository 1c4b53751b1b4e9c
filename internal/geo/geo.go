// Package geo transforms projected input coordinates to WGS84.
//
// Operators normally type plain lat/lon, but some workflows paste grid
// coordinates from mapping tools (e.g. EPSG:3857 web mercator). When an
// input projection is configured, the two numeric tokens of a chat command
// are read as easting/northing in that system and reprojected before
// validation.
package geo

import (
	"errors"
	"fmt"
	"math"

	"github.com/wroge/wgs84"
)

// WGS84Code is the EPSG code for plain lat/lon input (no reprojection).
const WGS84Code = 4326

// ErrUnknownEPSG is returned when the configured code has no known
// transformation to WGS84.
var ErrUnknownEPSG = errors.New("unknown EPSG code")

// Projector reprojects easting/northing pairs from a fixed source EPSG
// code to WGS84 lat/lon.
type Projector struct {
	code      int
	transform wgs84.Func
}

// NewProjector creates a projector for the given source EPSG code.
// Returns nil for 4326 input, which needs no reprojection.
func NewProjector(epsgCode int) (*Projector, error) {
	if epsgCode == WGS84Code {
		return nil, nil
	}

	epsg := wgs84.EPSG()
	if epsg.Code(epsgCode) == nil {
		return nil, fmt.Errorf("%w: %d", ErrUnknownEPSG, epsgCode)
	}

	return &Projector{
		code:      epsgCode,
		transform: epsg.Transform(epsgCode, WGS84Code),
	}, nil
}

// Code returns the source EPSG code.
func (p *Projector) Code() int {
	return p.code
}

// ToWGS84 converts an easting/northing pair to lat/lon degrees.
func (p *Projector) ToWGS84(easting, northing float64) (lat, lon float64, err error) {
	x, y, _ := p.transform(easting, northing, 0)
	if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
		return 0, 0, fmt.Errorf("cannot reproject (%f, %f) from EPSG:%d", easting, northing, p.code)
	}
	return y, x, nil
}
