// Package geo answers point-in-polygon containment and named-sector
// membership queries against a fixed boundary and a set of fixed sectors,
// both loaded once at process startup.
package geo

import "sort"

// Index exposes containment and sector-membership queries over a boundary
// polygon and a set of named sectors. It is built once at startup and is
// safe for concurrent read-only use thereafter.
type Index struct {
	boundary Polygon
	sectors  []Sector
}

// NewIndex builds an Index from an already-loaded boundary and sector set.
func NewIndex(boundary Polygon, sectors []Sector) *Index {
	sorted := make([]Sector, len(sectors))
	copy(sorted, sectors)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	return &Index{boundary: boundary, sectors: sorted}
}

// Contains reports whether (lat, lon) lies inside the outer boundary
// polygon. Boundary points are treated as inside.
func (idx *Index) Contains(lat, lon float64) bool {
	return idx.boundary.Contains(lat, lon)
}

// SectorsAt returns the names of the sectors whose polygon contains
// (lat, lon) and whose altitude band includes altitudeFt, in deterministic
// sector-name-ascending order.
func (idx *Index) SectorsAt(lat, lon, altitudeFt float64) []string {
	var names []string
	for _, s := range idx.sectors {
		if !s.containsAltitude(altitudeFt) {
			continue
		}
		if s.Polygon.Contains(lat, lon) {
			names = append(names, s.Name)
		}
	}
	return names
}

// Sector returns the sector with the given name and whether it was found.
func (idx *Index) Sector(name string) (Sector, bool) {
	for _, s := range idx.sectors {
		if s.Name == name {
			return s, true
		}
	}
	return Sector{}, false
}

// SectorNames returns every loaded sector's name, ascending.
func (idx *Index) SectorNames() []string {
	names := make([]string, len(idx.sectors))
	for i, s := range idx.sectors {
		names[i] = s.Name
	}
	return names
}
