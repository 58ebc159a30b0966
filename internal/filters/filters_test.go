package filters

import (
	"testing"

	"github.com/unklstewy/atc-ingest/pkg/geo"
	"github.com/unklstewy/atc-ingest/pkg/network"
)

func testIndex(t *testing.T) *geo.Index {
	t.Helper()
	boundary, err := geo.NewPolygon([]geo.Point{
		{Latitude: -35, Longitude: 149},
		{Latitude: -35, Longitude: 153},
		{Latitude: -31, Longitude: 153},
		{Latitude: -31, Longitude: 149},
	})
	if err != nil {
		t.Fatalf("build boundary: %v", err)
	}
	return geo.NewIndex(boundary, nil)
}

func baseFlight() network.FlightSample {
	return network.FlightSample{
		Callsign:      "QFA123",
		PilotID:       1001,
		DepartureICAO: "YSSY",
		ArrivalICAO:   "YMML",
		Latitude:      -33.0,
		Longitude:     151.0,
		HasPosition:   true,
	}
}

func TestFlightPlanValidatorRejectsIncompletePlan(t *testing.T) {
	p := New(testIndex(t))
	f := baseFlight()
	f.ArrivalICAO = ""

	result := p.Apply(&network.Snapshot{Flights: []network.FlightSample{f}})
	if len(result.Flights) != 0 {
		t.Fatalf("expected flight with missing arrival ICAO to be rejected, got %d", len(result.Flights))
	}
}

func TestGeographicFilterRejectsOutsideBoundaryAndMissingPosition(t *testing.T) {
	p := New(testIndex(t))

	outside := baseFlight()
	outside.Latitude, outside.Longitude = 10, 10

	noPosition := baseFlight()
	noPosition.HasPosition = false

	inside := baseFlight()

	result := p.Apply(&network.Snapshot{Flights: []network.FlightSample{outside, noPosition, inside}})
	if len(result.Flights) != 1 {
		t.Fatalf("expected exactly 1 surviving flight, got %d", len(result.Flights))
	}
	if result.Flights[0].Callsign != inside.Callsign {
		t.Fatalf("unexpected surviving flight: %+v", result.Flights[0])
	}
}

func TestGeographicFilterRetainsPositionlessControllers(t *testing.T) {
	p := New(testIndex(t))

	c := network.ControllerSample{Callsign: "SY_TWR", HasPosition: false}

	result := p.Apply(&network.Snapshot{Controllers: []network.ControllerSample{c}})
	if len(result.Controllers) != 1 {
		t.Fatalf("expected position-less controller to be retained, got %d", len(result.Controllers))
	}
}

func TestGeographicFilterRejectsControllerOutsideBoundary(t *testing.T) {
	p := New(testIndex(t))

	c := network.ControllerSample{Callsign: "LAX_TWR", HasPosition: true, Latitude: 33.9, Longitude: -118.4}

	result := p.Apply(&network.Snapshot{Controllers: []network.ControllerSample{c}})
	if len(result.Controllers) != 0 {
		t.Fatalf("expected out-of-boundary controller to be rejected, got %d", len(result.Controllers))
	}
}

func TestCallsignPatternFilter(t *testing.T) {
	p := New(testIndex(t))

	cases := []struct {
		callsign string
		rejected bool
	}{
		{"SY_ATIS", true},
		{"SYDNEY_INFO", true},
		{"AUSMET01", true},
		{"VOLMET_AU", true},
		{"SIGMET99", true},
		{"TEST123", true},
		{"TRAINING1", true},
		{"DEMOFLT", true},
		{"MAINT01", true},
		{"SYS_ADMIN", true},
		{"ADMIN_TWR", true},
		{"QFA123", false},
		{"test_lower", true},
	}

	for _, c := range cases {
		f := baseFlight()
		f.Callsign = c.callsign
		result := p.Apply(&network.Snapshot{Flights: []network.FlightSample{f}})
		rejected := len(result.Flights) == 0
		if rejected != c.rejected {
			t.Errorf("callsign %q: expected rejected=%v, got %v", c.callsign, c.rejected, rejected)
		}
	}
}

func TestFilterOrderRunsAllThreeStages(t *testing.T) {
	p := New(testIndex(t))

	// Fails FlightPlanValidator only.
	noPlan := baseFlight()
	noPlan.DepartureICAO = ""

	// Fails GeographicFilter only.
	outside := baseFlight()
	outside.Callsign = "VOZ2"
	outside.Latitude, outside.Longitude = 0, 0

	// Fails CallsignPatternFilter only.
	testFlight := baseFlight()
	testFlight.Callsign = "TEST1"

	// Passes everything.
	good := baseFlight()
	good.Callsign = "JST3"

	result := p.Apply(&network.Snapshot{
		Flights: []network.FlightSample{noPlan, outside, testFlight, good},
	})

	if len(result.Flights) != 1 || result.Flights[0].Callsign != "JST3" {
		t.Fatalf("expected only JST3 to survive, got %+v", result.Flights)
	}
}
