package geo

import "testing"

// TestNewPolygon validates construction and vertex checks.
func TestNewPolygon(t *testing.T) {
	t.Run("Valid square", func(t *testing.T) {
		_, err := NewPolygon([]Point{
			{Latitude: 0, Longitude: 0},
			{Latitude: 0, Longitude: 1},
			{Latitude: 1, Longitude: 1},
			{Latitude: 1, Longitude: 0},
		})
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
	})

	t.Run("Too few vertices", func(t *testing.T) {
		_, err := NewPolygon([]Point{{Latitude: 0, Longitude: 0}, {Latitude: 1, Longitude: 1}})
		if err == nil {
			t.Fatal("expected error for 2-vertex polygon")
		}
	})

	t.Run("Latitude out of range", func(t *testing.T) {
		_, err := NewPolygon([]Point{
			{Latitude: 0, Longitude: 0},
			{Latitude: 95, Longitude: 1},
			{Latitude: 1, Longitude: 1},
		})
		if err == nil {
			t.Fatal("expected error for out-of-range latitude")
		}
	})

	t.Run("Antimeridian crossing rejected", func(t *testing.T) {
		_, err := NewPolygon([]Point{
			{Latitude: 10, Longitude: 170},
			{Latitude: 10, Longitude: -170},
			{Latitude: 20, Longitude: -170},
			{Latitude: 20, Longitude: 170},
		})
		if err == nil {
			t.Fatal("expected error for antimeridian-crossing polygon")
		}
	})

	t.Run("Self-intersecting bowtie rejected", func(t *testing.T) {
		_, err := NewPolygon([]Point{
			{Latitude: 0, Longitude: 0},
			{Latitude: 1, Longitude: 1},
			{Latitude: 0, Longitude: 1},
			{Latitude: 1, Longitude: 0},
		})
		if err == nil {
			t.Fatal("expected error for self-intersecting polygon")
		}
	})
}

// TestPolygonContains exercises containment including boundary inclusivity.
func TestPolygonContains(t *testing.T) {
	square, err := NewPolygon([]Point{
		{Latitude: 0, Longitude: 0},
		{Latitude: 0, Longitude: 10},
		{Latitude: 10, Longitude: 10},
		{Latitude: 10, Longitude: 0},
	})
	if err != nil {
		t.Fatalf("failed to build test polygon: %v", err)
	}

	cases := []struct {
		name     string
		lat, lon float64
		want     bool
	}{
		{"center", 5, 5, true},
		{"on vertex", 0, 0, true},
		{"on edge", 0, 5, true},
		{"outside", 20, 20, false},
		{"just outside bbox", -0.001, 5, false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := square.Contains(c.lat, c.lon); got != c.want {
				t.Errorf("Contains(%v, %v) = %v, want %v", c.lat, c.lon, got, c.want)
			}
		})
	}
}
