// Package filters applies the accept/reject pipeline every FlightSample and
// ControllerSample passes through before any state change.
package filters

import (
	"strings"

	"github.com/unklstewy/atc-ingest/pkg/geo"
	"github.com/unklstewy/atc-ingest/pkg/network"
)

// exclusionSubstrings match anywhere in the callsign, case-insensitive.
var exclusionSubstrings = []string{"ATIS", "INFO", "MET", "VOLMET", "SIGMET"}

// exclusionPrefixes match the start of the callsign, case-insensitive.
var exclusionPrefixes = []string{"TEST", "TRAINING", "DEMO", "MAINT", "SYS", "ADMIN"}

// Pipeline runs the three always-on filters in order: FlightPlanValidator,
// GeographicFilter, CallsignPatternFilter.
type Pipeline struct {
	index *geo.Index
}

// New builds a Pipeline against a loaded GeoIndex.
func New(index *geo.Index) *Pipeline {
	return &Pipeline{index: index}
}

// Result is the outcome of filtering one snapshot.
type Result struct {
	Flights      []network.FlightSample
	Controllers  []network.ControllerSample
	Transceivers []network.TransceiverSample
}

// Apply runs every sample in snap through the pipeline. Transceivers pass
// through unfiltered: the Fetcher already dropped those whose owner is
// absent from the snapshot, and transceivers whose owner is rejected here
// are kept.
func (p *Pipeline) Apply(snap *network.Snapshot) Result {
	return Result{
		Flights:      p.filterFlights(snap.Flights),
		Controllers:  p.filterControllers(snap.Controllers),
		Transceivers: snap.Transceivers,
	}
}

func (p *Pipeline) filterFlights(samples []network.FlightSample) []network.FlightSample {
	kept := make([]network.FlightSample, 0, len(samples))
	for _, s := range samples {
		if !hasFlightPlan(s) {
			continue
		}
		if !p.insideBoundary(s) {
			continue
		}
		if matchesExclusionPattern(s.Callsign) {
			continue
		}
		kept = append(kept, s)
	}
	return kept
}

func (p *Pipeline) filterControllers(samples []network.ControllerSample) []network.ControllerSample {
	kept := make([]network.ControllerSample, 0, len(samples))
	for _, s := range samples {
		if !p.controllerInsideBoundary(s) {
			continue
		}
		if matchesExclusionPattern(s.Callsign) {
			continue
		}
		kept = append(kept, s)
	}
	return kept
}

// hasFlightPlan is the FlightPlanValidator: non-negotiable, cannot be
// disabled, because summarization depends on both ICAOs being present.
func hasFlightPlan(s network.FlightSample) bool {
	return s.DepartureICAO != "" && s.ArrivalICAO != ""
}

// insideBoundary is the GeographicFilter applied to flights. A flight with
// no position is rejected outright.
func (p *Pipeline) insideBoundary(s network.FlightSample) bool {
	if !s.HasPosition {
		return false
	}
	return p.index.Contains(s.Latitude, s.Longitude)
}

// controllerInsideBoundary is the GeographicFilter applied to controllers.
// Position-less controllers (ATIS relays, unmanned positions) are
// operationally valid and retained rather than rejected.
func (p *Pipeline) controllerInsideBoundary(s network.ControllerSample) bool {
	if !s.HasPosition {
		return true
	}
	return p.index.Contains(s.Latitude, s.Longitude)
}

// matchesExclusionPattern is the CallsignPatternFilter.
func matchesExclusionPattern(callsign string) bool {
	upper := strings.ToUpper(callsign)
	for _, sub := range exclusionSubstrings {
		if strings.Contains(upper, sub) {
			return true
		}
	}
	for _, prefix := range exclusionPrefixes {
		if strings.HasPrefix(upper, prefix) {
			return true
		}
	}
	return false
}
