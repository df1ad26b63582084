// Package tracts builds an in-memory census tract index from TIGER/Line
// shapefiles. It lets tract assignment run entirely offline when the Census
// geocoder is slow or unreachable.
package tracts

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
	"go.uber.org/zap"
)

type tractShape struct {
	geoid      string
	countyFIPS string
	minX, minY float64
	maxX, maxY float64
	// exterior rings only; TIGER tract holes are rare and a hole hit
	// misassigns to a neighbor the geocoder path would also blur.
	rings [][]float64
}

// Index answers point-in-tract queries from loaded shapefiles.
type Index struct {
	tracts []tractShape
}

// LoadDir loads every .shp file in dir into one index.
func LoadDir(dir string) (*Index, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, eris.Wrapf(err, "tracts: read dir %s", dir)
	}

	idx := &Index{}
	loaded := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".shp") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if err := idx.loadShapefile(path); err != nil {
			return nil, err
		}
		loaded++
	}
	if loaded == 0 {
		return nil, eris.Errorf("tracts: no .shp files in %s", dir)
	}

	zap.L().Info("tract index loaded",
		zap.Int("shapefiles", loaded),
		zap.Int("tracts", len(idx.tracts)))
	return idx, nil
}

func (x *Index) loadShapefile(path string) error {
	reader, err := shp.Open(path)
	if err != nil {
		return eris.Wrapf(err, "tracts: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	geoidIdx := fieldIndex(reader, "GEOID")
	stateIdx := fieldIndex(reader, "STATEFP")
	countyIdx := fieldIndex(reader, "COUNTYFP")
	if geoidIdx < 0 {
		return eris.Errorf("tracts: GEOID field not found in %s", path)
	}

	for reader.Next() {
		_, shape := reader.Shape()
		poly, ok := shape.(*shp.Polygon)
		if !ok || poly.NumParts == 0 || len(poly.Points) == 0 {
			continue
		}

		geoid := strings.TrimSpace(reader.Attribute(geoidIdx))
		if geoid == "" {
			continue
		}

		t := tractShape{
			geoid: geoid,
			minX:  poly.Box.MinX,
			minY:  poly.Box.MinY,
			maxX:  poly.Box.MaxX,
			maxY:  poly.Box.MaxY,
			rings: polygonRings(poly),
		}
		if stateIdx >= 0 && countyIdx >= 0 {
			t.countyFIPS = strings.TrimSpace(reader.Attribute(stateIdx)) +
				strings.TrimSpace(reader.Attribute(countyIdx))
		} else if len(geoid) >= 5 {
			t.countyFIPS = geoid[:5]
		}
		x.tracts = append(x.tracts, t)
	}
	return nil
}

// Len reports how many tracts the index holds.
func (x *Index) Len() int {
	return len(x.tracts)
}

// Lookup returns the GEOID and county FIPS of the tract containing the
// point, or ok=false when no tract matches.
func (x *Index) Lookup(lat, lng float64) (geoid, countyFIPS string, ok bool) {
	for i := range x.tracts {
		t := &x.tracts[i]
		if lng < t.minX || lng > t.maxX || lat < t.minY || lat > t.maxY {
			continue
		}
		for _, ring := range t.rings {
			if xy.IsPointInRing(geom.XY, geom.Coord{lng, lat}, ring) {
				return t.geoid, t.countyFIPS, true
			}
		}
	}
	return "", "", false
}

// polygonRings splits a shapefile polygon into flat coordinate rings.
func polygonRings(p *shp.Polygon) [][]float64 {
	rings := make([][]float64, 0, p.NumParts)
	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		end := int32(len(p.Points))
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		}

		flat := make([]float64, 0, (end-start)*2)
		for j := start; j < end; j++ {
			flat = append(flat, p.Points[j].X, p.Points[j].Y)
		}
		if len(flat) >= 8 { // a closed triangle at minimum
			rings = append(rings, flat)
		}
	}
	return rings
}

// fieldIndex returns the index of a named field, or -1 if absent.
func fieldIndex(reader *shp.Reader, name string) int {
	for i, f := range reader.Fields() {
		if strings.EqualFold(strings.TrimRight(f.String(), "\x00"), name) {
			return i
		}
	}
	return -1
}
