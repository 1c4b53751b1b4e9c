// Package parser turns inbound chat text into validated marker events.
package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/sigtak/bridge/internal/geo"
	"github.com/sigtak/bridge/internal/model"
)

// Parsing errors for marker text.
var (
	ErrBadTokenCount  = errors.New("expected 'lat lon label'")
	ErrBadCoordinates = errors.New("invalid coordinates")
)

// Parser converts chat text into marker events. The optional projector
// transforms projected input coordinates to WGS84 before validation.
type Parser struct {
	projector *geo.Projector
}

// New creates a parser. projector may be nil when input is already WGS84.
func New(projector *geo.Projector) *Parser {
	return &Parser{projector: projector}
}

// ParseMarkerText parses "<lat> <lon> <label...>" into a MarkerEvent.
// The label is the remainder of the line and may contain whitespace.
func (p *Parser) ParseMarkerText(text string) (model.MarkerEvent, error) {
	parts := splitN(text, 3)
	if len(parts) != 3 {
		return model.MarkerEvent{}, fmt.Errorf("%w, got: %q", ErrBadTokenCount, text)
	}

	lat, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return model.MarkerEvent{}, fmt.Errorf("%w: %v", ErrBadCoordinates, err)
	}
	lon, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return model.MarkerEvent{}, fmt.Errorf("%w: %v", ErrBadCoordinates, err)
	}

	if p.projector != nil {
		lat, lon, err = p.projector.ToWGS84(lat, lon)
		if err != nil {
			return model.MarkerEvent{}, fmt.Errorf("%w: %v", ErrBadCoordinates, err)
		}
	}

	return model.NewMarkerEvent(lat, lon, parts[2])
}

// splitN splits s on runs of whitespace into at most n tokens. The final
// token is the untouched remainder of the line, minus surrounding
// whitespace, so labels keep their internal spacing.
func splitN(s string, n int) []string {
	s = strings.TrimSpace(s)
	var parts []string
	for len(parts) < n-1 {
		i := strings.IndexFunc(s, unicode.IsSpace)
		if i < 0 {
			break
		}
		parts = append(parts, s[:i])
		s = strings.TrimLeftFunc(s[i:], unicode.IsSpace)
	}
	if s != "" {
		parts = append(parts, s)
	}
	return parts
}
