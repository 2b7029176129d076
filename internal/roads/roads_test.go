package roads

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectionParsesEmbeddedData(t *testing.T) {
	fc, err := Collection()
	require.NoError(t, err)
	require.NotNil(t, fc)

	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 1)

	road := fc.Features[0]
	assert.Equal(t, "Feature", road.Type)
	assert.Equal(t, "Transalpina (DN67C)", road.Properties.Name)
	assert.Equal(t, 67, road.Properties.ID)
	assert.Equal(t, "LineString", road.Geometry.Type)
	assert.GreaterOrEqual(t, len(road.Geometry.Coordinates), 2)

	// Coordinates are [lon, lat] pairs inside the road region.
	for _, coord := range road.Geometry.Coordinates {
		require.Len(t, coord, 2)
		assert.InDelta(t, 23.6, coord[0], 0.3)
		assert.InDelta(t, 45.35, coord[1], 0.2)
	}
}

func TestRawIsNonEmpty(t *testing.T) {
	assert.NotEmpty(t, Raw())
}
