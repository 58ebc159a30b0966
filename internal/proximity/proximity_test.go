package proximity

import (
	"math"
	"testing"
	"time"

	"github.com/unklstewy/atc-ingest/pkg/controller"
	"github.com/unklstewy/atc-ingest/pkg/network"
)

// nmOffset returns a longitude delta that is approximately distanceNM away
// along the test fixture's latitude (-33.95 degrees), where one degree of
// longitude spans 60*cos(latitude) nm; close enough for threshold tests.
func nmOffset(distanceNM float64) float64 {
	return distanceNM / (60.0 * math.Cos(-33.95*math.Pi/180))
}

func TestPairEmitsWithinRangeOnly(t *testing.T) {
	d := New(controller.New(nil))
	now := time.Now()

	twr := network.ControllerSample{
		Callsign: "SY_TWR", FacilityCode: 2, HasPosition: true,
		Latitude: -33.95, Longitude: 151.18,
	}

	flightA := network.FlightSample{Callsign: "QFA1", PilotID: 1, HasPosition: true, Latitude: -33.95, Longitude: 151.18 + nmOffset(8)}
	flightB := network.FlightSample{Callsign: "QFA2", PilotID: 2, HasPosition: true, Latitude: -33.95, Longitude: 151.18 + nmOffset(14.9)}
	flightC := network.FlightSample{Callsign: "QFA3", PilotID: 3, HasPosition: true, Latitude: -33.95, Longitude: 151.18 + nmOffset(20)}

	interactions := d.Pair(
		[]network.FlightSample{flightA, flightB, flightC},
		[]network.ControllerSample{twr},
		now,
	)

	if len(interactions) != 2 {
		t.Fatalf("expected 2 interactions within 15nm tower range, got %d: %+v", len(interactions), interactions)
	}
	for _, i := range interactions {
		if i.ControllerType != string(controller.Tower) {
			t.Errorf("expected controller_type tower, got %s", i.ControllerType)
		}
		if i.ProximityNM != 15 {
			t.Errorf("expected proximity_nm 15, got %f", i.ProximityNM)
		}
		if i.FlightCallsign == flightC.Callsign {
			t.Errorf("flight C at 20nm should not have paired")
		}
	}
}

func TestPairSkipsPositionlessControllers(t *testing.T) {
	d := New(controller.New(nil))
	c := network.ControllerSample{Callsign: "SY_TWR", HasPosition: false}
	f := network.FlightSample{Callsign: "QFA1", PilotID: 1, HasPosition: true, Latitude: -33.95, Longitude: 151.18}

	interactions := d.Pair([]network.FlightSample{f}, []network.ControllerSample{c}, time.Now())
	if len(interactions) != 0 {
		t.Fatalf("expected no interactions for position-less controller, got %d", len(interactions))
	}
}

func TestPairSkipsPositionlessFlights(t *testing.T) {
	d := New(controller.New(nil))
	c := network.ControllerSample{Callsign: "SY_TWR", FacilityCode: 2, HasPosition: true, Latitude: -33.95, Longitude: 151.18}
	f := network.FlightSample{Callsign: "QFA1", PilotID: 1, HasPosition: false}

	interactions := d.Pair([]network.FlightSample{f}, []network.ControllerSample{c}, time.Now())
	if len(interactions) != 0 {
		t.Fatalf("expected no interactions for position-less flight, got %d", len(interactions))
	}
}
