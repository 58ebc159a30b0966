// Package sector implements the in-memory, per-aircraft state machine that
// turns a stream of FlightSample positions into sector occupancy entries
// and exits.
package sector

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/unklstewy/atc-ingest/internal/db"
	"github.com/unklstewy/atc-ingest/pkg/geo"
	"github.com/unklstewy/atc-ingest/pkg/network"
)

// belowSpeedThresholdTicks is the number of consecutive below-30kt ticks
// required before a continuing occupancy is speed-gate closed.
const belowSpeedThresholdTicks = 2

// entrySpeedThresholdKts is the minimum groundspeed required to admit a
// candidate sector entry.
const entrySpeedThresholdKts = 60.0

// exitSpeedThresholdKts is the groundspeed below which the below-30kt
// counter advances for a continuing occupancy.
const exitSpeedThresholdKts = 30.0

// AircraftKey identifies one aircraft's tracked state.
type AircraftKey struct {
	Callsign string
	PilotID  int64
}

// aircraftState is the per-aircraft record SectorTracker maintains between
// ticks. Touched only by the ingestion loop, so it needs no locking.
type aircraftState struct {
	openSectors map[string]*trackedOccupancy
	lastSample  network.FlightSample
}

type trackedOccupancy struct {
	entryAt          network.FlightSample
	below30ktCounter int
}

// Tracker owns the in-memory sector occupancy map and the repository used
// to persist entries and exits.
type Tracker struct {
	index *geo.Index
	repo  *db.SectorRepository
	state map[AircraftKey]*aircraftState
}

// New builds a Tracker against a loaded GeoIndex and the Store's sector
// primitives.
func New(index *geo.Index, repo *db.SectorRepository) *Tracker {
	return &Tracker{
		index: index,
		repo:  repo,
		state: make(map[AircraftKey]*aircraftState),
	}
}

// Seed reconstructs in-memory state from currently-open occupancy rows,
// called once at startup so a process restart does not lose open sectors.
func (t *Tracker) Seed(ctx context.Context) error {
	rows, err := t.repo.SeedOpenSectors(ctx)
	if err != nil {
		return fmt.Errorf("seed open sectors: %w", err)
	}

	for _, row := range rows {
		key := AircraftKey{Callsign: row.Callsign, PilotID: row.PilotID}
		st, ok := t.state[key]
		if !ok {
			st = &aircraftState{openSectors: make(map[string]*trackedOccupancy)}
			t.state[key] = st
		}
		st.openSectors[row.SectorName] = &trackedOccupancy{
			entryAt: network.FlightSample{
				ObservedAt: row.EntryAt,
				Latitude:   row.EntryLat,
				Longitude:  row.EntryLon,
				Altitude:   row.EntryAltitudeFt,
			},
		}
	}
	return nil
}

// Remove drops an aircraft's in-memory state, called by Cleanup once its
// open sectors have been closed.
func (t *Tracker) Remove(key AircraftKey) {
	delete(t.state, key)
}

// Update runs the per-tick sector entry/exit algorithm for every sample,
// persisting entries and exits through the Store. Failures for individual
// aircraft are collected and returned together; one aircraft's write
// failure does not stop the others from being processed.
func (t *Tracker) Update(ctx context.Context, samples []network.FlightSample) error {
	var errs []error
	for _, s := range samples {
		if err := t.updateOne(ctx, s); err != nil {
			errs = append(errs, fmt.Errorf("%s/%d: %w", s.Callsign, s.PilotID, err))
		}
	}
	return errors.Join(errs...)
}

func (t *Tracker) updateOne(ctx context.Context, s network.FlightSample) error {
	key := AircraftKey{Callsign: s.Callsign, PilotID: s.PilotID}
	st, ok := t.state[key]
	if !ok {
		st = &aircraftState{openSectors: make(map[string]*trackedOccupancy)}
		t.state[key] = st
	}

	current := t.index.SectorsAt(s.Latitude, s.Longitude, s.Altitude)
	currentSet := toSet(current)
	prev := openSectorNames(st.openSectors)

	if err := t.admitEntries(ctx, key, st, s, diff(current, prev)); err != nil {
		return err
	}

	continuing := intersect(prev, currentSet, current)
	updateBelowSpeedCounters(st, continuing, s.GroundSpeed)

	if err := t.closeSectors(ctx, key, st, s, diff(prev, current)); err != nil {
		return err
	}

	var speedGated []string
	for _, name := range continuing {
		if occ, ok := st.openSectors[name]; ok && occ.below30ktCounter >= belowSpeedThresholdTicks {
			speedGated = append(speedGated, name)
		}
	}
	if err := t.closeSectors(ctx, key, st, s, speedGated); err != nil {
		return err
	}

	st.lastSample = s
	return nil
}

// admitEntries applies the entry rule to each candidate in deterministic
// sector_name order.
func (t *Tracker) admitEntries(ctx context.Context, key AircraftKey, st *aircraftState, s network.FlightSample, candidates []string) error {
	for _, name := range candidates {
		if s.GroundSpeed == nil {
			continue // deferred to next tick
		}
		if *s.GroundSpeed < entrySpeedThresholdKts {
			continue
		}

		st.openSectors[name] = &trackedOccupancy{entryAt: s}

		if err := t.repo.OpenSector(ctx, db.SectorEntry{
			Callsign:        key.Callsign,
			PilotID:         key.PilotID,
			SectorName:      name,
			EntryAt:         s.ObservedAt,
			EntryLat:        s.Latitude,
			EntryLon:        s.Longitude,
			EntryAltitudeFt: s.Altitude,
		}); err != nil {
			return fmt.Errorf("open sector %s: %w", name, err)
		}
	}
	return nil
}

func (t *Tracker) closeSectors(ctx context.Context, key AircraftKey, st *aircraftState, s network.FlightSample, names []string) error {
	for _, name := range names {
		occ, ok := st.openSectors[name]
		if !ok {
			continue
		}
		if err := t.repo.CloseSector(ctx, db.SectorExit{
			Callsign:       key.Callsign,
			PilotID:        key.PilotID,
			SectorName:     name,
			EntryAt:        occ.entryAt.ObservedAt,
			ExitAt:         s.ObservedAt,
			ExitLat:        s.Latitude,
			ExitLon:        s.Longitude,
			ExitAltitudeFt: s.Altitude,
		}); err != nil {
			return fmt.Errorf("close sector %s: %w", name, err)
		}
		delete(st.openSectors, name)
	}
	return nil
}

func updateBelowSpeedCounters(st *aircraftState, continuing []string, groundSpeed *float64) {
	for _, name := range continuing {
		occ, ok := st.openSectors[name]
		if !ok {
			continue
		}
		if groundSpeed == nil || *groundSpeed >= exitSpeedThresholdKts {
			occ.below30ktCounter = 0
		} else {
			occ.below30ktCounter++
		}
	}
}

func openSectorNames(m map[string]*trackedOccupancy) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func toSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}

// diff returns the elements of a not present in b, preserving a's order.
func diff(a, b []string) []string {
	bSet := toSet(b)
	var result []string
	for _, name := range a {
		if !bSet[name] {
			result = append(result, name)
		}
	}
	return result
}

// intersect returns the sector names present in both prev and current,
// in current's (ascending) order.
func intersect(prev []string, currentSet map[string]bool, current []string) []string {
	prevSet := toSet(prev)
	var result []string
	for _, name := range current {
		if prevSet[name] {
			result = append(result, name)
		}
	}
	return result
}
