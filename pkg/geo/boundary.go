package geo

import (
	"encoding/json"
	"fmt"
	"os"
)

// boundaryFile tolerates either a bare coordinate list or a GeoJSON-like
// wrapper.
type boundaryFile struct {
	Boundary []coordPair `json:"boundary"`
}

// LoadBoundary reads the single outer boundary polygon from path.
func LoadBoundary(path string) (Polygon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Polygon{}, fmt.Errorf("geo: failed to read boundary file: %w", err)
	}

	vertices, err := parseBoundaryVertices(data)
	if err != nil {
		return Polygon{}, err
	}

	poly, err := NewPolygon(vertices)
	if err != nil {
		return Polygon{}, fmt.Errorf("geo: boundary: %w", err)
	}
	return poly, nil
}

// parseBoundaryVertices accepts either {"boundary": [{"lat":..,"lon":..}]}
// or a plain top-level [{"lat":..,"lon":..}] coordinate list.
func parseBoundaryVertices(data []byte) ([]Point, error) {
	var wrapped boundaryFile
	if err := json.Unmarshal(data, &wrapped); err == nil && len(wrapped.Boundary) > 0 {
		return toPoints(wrapped.Boundary), nil
	}

	var bare []coordPair
	if err := json.Unmarshal(data, &bare); err != nil {
		return nil, fmt.Errorf("geo: failed to parse boundary file: %w", err)
	}
	if len(bare) == 0 {
		return nil, fmt.Errorf("geo: boundary file defines no vertices")
	}
	return toPoints(bare), nil
}

func toPoints(pairs []coordPair) []Point {
	points := make([]Point, len(pairs))
	for i, c := range pairs {
		points[i] = Point{Latitude: c.Lat, Longitude: c.Lon}
	}
	return points
}
