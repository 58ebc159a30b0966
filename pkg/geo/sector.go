package geo

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Sector is a named, fixed volume of airspace with a polygon footprint and
// an altitude band. Sectors are loaded once at startup and immutable for
// the lifetime of the process.
type Sector struct {
	Name      string
	Polygon   Polygon
	FloorFt   float64
	CeilingFt float64
	Frequency float64
}

// containsAltitude reports whether altitudeFt falls within [FloorFt, CeilingFt].
func (s Sector) containsAltitude(altitudeFt float64) bool {
	return altitudeFt >= s.FloorFt && altitudeFt <= s.CeilingFt
}

// sectorFile is the on-disk feature-collection layout for named sectors.
type sectorFile struct {
	Sectors []sectorFeature `json:"sectors"`
}

type sectorFeature struct {
	Name      string       `json:"name"`
	FloorFt   float64      `json:"floor_ft"`
	CeilingFt float64      `json:"ceiling_ft"`
	Frequency float64      `json:"frequency"`
	Polygon   []coordPair  `json:"polygon"`
}

type coordPair struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// LoadSectors reads a named-sector feature collection from path and returns
// the validated sectors, sorted by name ascending so downstream consumers
// get a deterministic iteration order for free.
func LoadSectors(path string) ([]Sector, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("geo: failed to read sectors file: %w", err)
	}

	var sf sectorFile
	if err := json.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("geo: failed to parse sectors file: %w", err)
	}

	if len(sf.Sectors) == 0 {
		return nil, fmt.Errorf("geo: sectors file defines no sectors")
	}

	seen := make(map[string]bool, len(sf.Sectors))
	sectors := make([]Sector, 0, len(sf.Sectors))
	for _, feat := range sf.Sectors {
		if feat.Name == "" {
			return nil, fmt.Errorf("geo: sector with empty name")
		}
		if seen[feat.Name] {
			return nil, fmt.Errorf("geo: duplicate sector name %q", feat.Name)
		}
		seen[feat.Name] = true

		if feat.CeilingFt < feat.FloorFt {
			return nil, fmt.Errorf("geo: sector %q has ceiling below floor", feat.Name)
		}

		vertices := make([]Point, len(feat.Polygon))
		for i, c := range feat.Polygon {
			vertices[i] = Point{Latitude: c.Lat, Longitude: c.Lon}
		}
		poly, err := NewPolygon(vertices)
		if err != nil {
			return nil, fmt.Errorf("geo: sector %q: %w", feat.Name, err)
		}

		sectors = append(sectors, Sector{
			Name:      feat.Name,
			Polygon:   poly,
			FloorFt:   feat.FloorFt,
			CeilingFt: feat.CeilingFt,
			Frequency: feat.Frequency,
		})
	}

	sort.Slice(sectors, func(i, j int) bool { return sectors[i].Name < sectors[j].Name })

	return sectors, nil
}
