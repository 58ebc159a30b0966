// Package proximity pairs flights and controllers by great-circle distance
// against each controller's classified range.
package proximity

import (
	"time"

	"github.com/unklstewy/atc-ingest/internal/db"
	"github.com/unklstewy/atc-ingest/pkg/controller"
	"github.com/unklstewy/atc-ingest/pkg/coordinates"
	"github.com/unklstewy/atc-ingest/pkg/network"
)

// Detector pairs flights and controllers once per tick.
type Detector struct {
	classifier *controller.Classifier
}

// New builds a Detector against a configured ControllerClassifier.
func New(classifier *controller.Classifier) *Detector {
	return &Detector{classifier: classifier}
}

// Pair implements pair(flights, controllers) -> list<Interaction>.
// Controllers without a position are skipped entirely; the one-pass
// controller-outer loop produces the same set of pairs a flight-outer loop
// would, so there is exactly one computation per tick.
func (d *Detector) Pair(flights []network.FlightSample, controllers []network.ControllerSample, observedAt time.Time) []db.Interaction {
	var interactions []db.Interaction

	for _, c := range controllers {
		if !c.HasPosition {
			continue
		}

		ctype, proximityNM := d.classifier.Classify(c.Callsign, c.FacilityCode)
		controllerPos := coordinates.Geographic{Latitude: c.Latitude, Longitude: c.Longitude}

		for _, f := range flights {
			if !f.HasPosition {
				continue
			}
			flightPos := coordinates.Geographic{Latitude: f.Latitude, Longitude: f.Longitude}
			distance := coordinates.DistanceNauticalMiles(controllerPos, flightPos)
			if distance > proximityNM {
				continue
			}

			interactions = append(interactions, db.Interaction{
				FlightCallsign:     f.Callsign,
				FlightPilotID:      f.PilotID,
				ControllerCallsign: c.Callsign,
				ControllerType:     string(ctype),
				DistanceNM:         distance,
				ProximityNM:        proximityNM,
				ObservedAt:         observedAt,
			})
		}
	}

	return interactions
}
