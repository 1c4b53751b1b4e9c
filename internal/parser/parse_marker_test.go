package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sigtak/bridge/internal/geo"
	"github.com/sigtak/bridge/internal/model"
)

func TestParseMarkerText(t *testing.T) {
	p := New(nil)

	tests := []struct {
		name    string
		input   string
		check   func(t *testing.T, ev model.MarkerEvent)
		wantErr error
	}{
		{
			name:  "simple marker",
			input: "48.5 39.8 tank",
			check: func(t *testing.T, ev model.MarkerEvent) {
				assert.Equal(t, 48.5, ev.Lat())
				assert.Equal(t, 39.8, ev.Lon())
				assert.Equal(t, "tank", ev.Label)
			},
		},
		{
			name:  "label with spaces",
			input: "10.0 -20.5 supply truck convoy",
			check: func(t *testing.T, ev model.MarkerEvent) {
				assert.Equal(t, "supply truck convoy", ev.Label)
			},
		},
		{
			name:  "negative coordinates",
			input: "-33.86 151.21 infantry",
			check: func(t *testing.T, ev model.MarkerEvent) {
				assert.Equal(t, -33.86, ev.Lat())
				assert.Equal(t, 151.21, ev.Lon())
			},
		},
		{
			name:  "surrounding whitespace",
			input: "  48.5   39.8   tank  ",
			check: func(t *testing.T, ev model.MarkerEvent) {
				assert.Equal(t, 48.5, ev.Lat())
				assert.Equal(t, "tank", ev.Label)
			},
		},
		{
			name:  "scientific notation",
			input: "4.85e1 39.8 radar",
			check: func(t *testing.T, ev model.MarkerEvent) {
				assert.Equal(t, 48.5, ev.Lat())
			},
		},
		{
			name:    "too few tokens",
			input:   "48.5 39.8",
			wantErr: ErrBadTokenCount,
		},
		{
			name:    "empty string",
			input:   "",
			wantErr: ErrBadTokenCount,
		},
		{
			name:    "non-numeric latitude",
			input:   "north 39.8 tank",
			wantErr: ErrBadCoordinates,
		},
		{
			name:    "non-numeric longitude",
			input:   "48.5 east tank",
			wantErr: ErrBadCoordinates,
		},
		{
			name:    "latitude out of range",
			input:   "91.0 39.8 tank",
			wantErr: model.ErrLatitudeOutOfRange,
		},
		{
			name:    "longitude out of range",
			input:   "48.5 181.0 tank",
			wantErr: model.ErrLongitudeOutOfRange,
		},
		{
			// ParseFloat accepts "NaN", so the range check must reject it.
			name:    "NaN latitude",
			input:   "NaN 39.8 tank",
			wantErr: model.ErrLatitudeOutOfRange,
		},
		{
			name:    "infinite longitude",
			input:   "48.5 +Inf tank",
			wantErr: model.ErrLongitudeOutOfRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := p.ParseMarkerText(tt.input)

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			if tt.check != nil {
				tt.check(t, ev)
			}
		})
	}
}

func TestParseMarkerText_Projected(t *testing.T) {
	projector, err := geo.NewProjector(3857)
	require.NoError(t, err)
	p := New(projector)

	// Easting/northing in web mercator instead of lat/lon.
	ev, err := p.ParseMarkerText("261600.0 6250566.0 tank")
	require.NoError(t, err)
	assert.InDelta(t, 48.85, ev.Lat(), 0.01)
	assert.InDelta(t, 2.35, ev.Lon(), 0.01)
}

func TestSplitN(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "three tokens", input: "a b c", want: []string{"a", "b", "c"}},
		{name: "remainder keeps internal spacing", input: "a b c  d", want: []string{"a", "b", "c  d"}},
		{name: "two tokens", input: "a b", want: []string{"a", "b"}},
		{name: "tabs", input: "a\tb\tc", want: []string{"a", "b", "c"}},
		{name: "empty", input: "", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, splitN(tt.input, 3))
		})
	}
}
