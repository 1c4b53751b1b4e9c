// Package cot encodes marker events as Cursor-on-Target XML point events.
package cot

import (
	"encoding/xml"
	"errors"
	"fmt"
	"time"

	"github.com/sigtak/bridge/internal/model"
)

// CoT schema constants.
const (
	eventVersion = "2.0"

	// howHumanEntered marks the event as a human-entered estimated position.
	howHumanEntered = "h-g-i-g-o"

	timeFormat = "2006-01-02T15:04:05.000Z"

	xmlHeader = `<?xml version="1.0" encoding="UTF-8"?>`
)

// Encoding defaults.
const (
	DefaultStale         = 120 * time.Second
	DefaultCircularError = 50.0
	DefaultLinearError   = 9999999.0
)

// ErrMissingEventID is returned when a marker has no identifier to encode.
var ErrMissingEventID = errors.New("marker event has no event ID")

type cotEvent struct {
	XMLName xml.Name  `xml:"event"`
	Version string    `xml:"version,attr"`
	Type    string    `xml:"type,attr"`
	UID     string    `xml:"uid,attr"`
	How     string    `xml:"how,attr"`
	Time    string    `xml:"time,attr"`
	Start   string    `xml:"start,attr"`
	Stale   string    `xml:"stale,attr"`
	Point   cotPoint  `xml:"point"`
	Detail  cotDetail `xml:"detail"`
}

type cotPoint struct {
	Lat float64 `xml:"lat,attr"`
	Lon float64 `xml:"lon,attr"`
	HAE float64 `xml:"hae,attr"`
	CE  float64 `xml:"ce,attr"`
	LE  float64 `xml:"le,attr"`
}

type cotDetail struct {
	Contact cotContact `xml:"contact"`
}

type cotContact struct {
	Callsign string `xml:"callsign,attr"`
}

// Option overrides an encoding default.
type Option func(*settings)

type settings struct {
	altitude      float64
	stale         time.Duration
	circularError float64
	linearError   float64
	now           func() time.Time
}

// WithAltitude sets the height above ellipsoid in meters.
func WithAltitude(hae float64) Option {
	return func(s *settings) { s.altitude = hae }
}

// WithStale sets how long consumers should keep the marker alive.
func WithStale(d time.Duration) Option {
	return func(s *settings) { s.stale = d }
}

// WithCircularError sets the 2D accuracy estimate in meters.
func WithCircularError(ce float64) Option {
	return func(s *settings) { s.circularError = ce }
}

// WithLinearError sets the vertical accuracy estimate in meters.
func WithLinearError(le float64) Option {
	return func(s *settings) { s.linearError = le }
}

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *settings) { s.now = now }
}

// Encode renders a marker event as a complete CoT XML document.
func Encode(ev model.MarkerEvent, opts ...Option) ([]byte, error) {
	if ev.EventID == "" {
		return nil, ErrMissingEventID
	}

	s := settings{
		altitude:      0,
		stale:         DefaultStale,
		circularError: DefaultCircularError,
		linearError:   DefaultLinearError,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(&s)
	}

	now := s.now().UTC()

	doc := cotEvent{
		Version: eventVersion,
		Type:    ev.TypeCode(),
		UID:     ev.EventID,
		How:     howHumanEntered,
		Time:    now.Format(timeFormat),
		Start:   now.Format(timeFormat),
		Stale:   now.Add(s.stale).Format(timeFormat),
		Point: cotPoint{
			Lat: ev.Lat(),
			Lon: ev.Lon(),
			HAE: s.altitude,
			CE:  s.circularError,
			LE:  s.linearError,
		},
		Detail: cotDetail{
			Contact: cotContact{Callsign: ev.Label},
		},
	}

	body, err := xml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshalling cot event: %w", err)
	}

	return append([]byte(xmlHeader), body...), nil
}
