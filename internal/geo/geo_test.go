package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProjector(t *testing.T) {
	t.Run("4326 needs no projector", func(t *testing.T) {
		p, err := NewProjector(4326)
		require.NoError(t, err)
		assert.Nil(t, p)
	})

	t.Run("3857 is supported", func(t *testing.T) {
		p, err := NewProjector(3857)
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, 3857, p.Code())
	})

	t.Run("unknown code fails", func(t *testing.T) {
		_, err := NewProjector(999999)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnknownEPSG)
	})
}

func TestProjector_ToWGS84(t *testing.T) {
	p, err := NewProjector(3857)
	require.NoError(t, err)

	t.Run("origin", func(t *testing.T) {
		lat, lon, err := p.ToWGS84(0, 0)
		require.NoError(t, err)
		assert.InDelta(t, 0, lat, 1e-6)
		assert.InDelta(t, 0, lon, 1e-6)
	})

	t.Run("known point", func(t *testing.T) {
		// Web mercator coordinates for roughly (48.85 N, 2.35 E).
		lat, lon, err := p.ToWGS84(261600.0, 6250566.0)
		require.NoError(t, err)
		assert.InDelta(t, 48.85, lat, 0.01)
		assert.InDelta(t, 2.35, lon, 0.01)
	})
}
