package tracts

import (
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTractShapefile writes a shapefile with two square tracts side by side.
func writeTractShapefile(t *testing.T, dir string) {
	t.Helper()

	w, err := shp.Create(filepath.Join(dir, "tl_2024_24_tract.shp"), shp.POLYGON)
	require.NoError(t, err)

	w.SetFields([]shp.Field{ //nolint:errcheck
		shp.StringField("GEOID", 20),
		shp.StringField("STATEFP", 2),
		shp.StringField("COUNTYFP", 3),
	})

	squares := []struct {
		geoid          string
		state, county  string
		minLng, minLat float64
	}{
		{"24021750600", "24", "021", -77.45, 39.40},
		{"24021750700", "24", "021", -77.40, 39.40},
	}

	for row, sq := range squares {
		ring := []shp.Point{
			{X: sq.minLng, Y: sq.minLat},
			{X: sq.minLng + 0.05, Y: sq.minLat},
			{X: sq.minLng + 0.05, Y: sq.minLat + 0.05},
			{X: sq.minLng, Y: sq.minLat + 0.05},
			{X: sq.minLng, Y: sq.minLat},
		}
		poly := shp.Polygon(*shp.NewPolyLine([][]shp.Point{ring}))
		w.Write(&poly)
		w.WriteAttribute(row, 0, sq.geoid)  //nolint:errcheck
		w.WriteAttribute(row, 1, sq.state)  //nolint:errcheck
		w.WriteAttribute(row, 2, sq.county) //nolint:errcheck
	}

	w.Close()
}

func TestLoadDir_AndLookup(t *testing.T) {
	dir := t.TempDir()
	writeTractShapefile(t, dir)

	idx, err := LoadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, idx.Len())

	geoid, county, ok := idx.Lookup(39.42, -77.43)
	require.True(t, ok)
	assert.Equal(t, "24021750600", geoid)
	assert.Equal(t, "24021", county)

	geoid, _, ok = idx.Lookup(39.42, -77.38)
	require.True(t, ok)
	assert.Equal(t, "24021750700", geoid)

	// Ocean point matches nothing.
	_, _, ok = idx.Lookup(30.0, -60.0)
	assert.False(t, ok)
}

func TestLoadDir_EmptyDir(t *testing.T) {
	_, err := LoadDir(t.TempDir())
	assert.ErrorContains(t, err, "no .shp files")
}

func TestLoadDir_MissingDir(t *testing.T) {
	_, err := LoadDir("/nonexistent/tracts")
	assert.Error(t, err)
}
