package sector

import "testing"

func ptr(f float64) *float64 { return &f }

func TestDiff(t *testing.T) {
	got := diff([]string{"A", "B", "C"}, []string{"B"})
	want := []string{"A", "C"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("diff() = %v, want %v", got, want)
	}
}

func TestIntersect(t *testing.T) {
	prev := []string{"A", "B"}
	current := []string{"B", "C"}
	got := intersect(prev, toSet(current), current)
	if len(got) != 1 || got[0] != "B" {
		t.Fatalf("intersect() = %v, want [B]", got)
	}
}

func TestUpdateBelowSpeedCounters(t *testing.T) {
	st := &aircraftState{openSectors: map[string]*trackedOccupancy{
		"S_A": {},
	}}

	updateBelowSpeedCounters(st, []string{"S_A"}, ptr(25))
	if st.openSectors["S_A"].below30ktCounter != 1 {
		t.Fatalf("expected counter 1 after first slow tick, got %d", st.openSectors["S_A"].below30ktCounter)
	}

	updateBelowSpeedCounters(st, []string{"S_A"}, ptr(20))
	if st.openSectors["S_A"].below30ktCounter != 2 {
		t.Fatalf("expected counter 2 after second slow tick, got %d", st.openSectors["S_A"].below30ktCounter)
	}

	updateBelowSpeedCounters(st, []string{"S_A"}, ptr(250))
	if st.openSectors["S_A"].below30ktCounter != 0 {
		t.Fatalf("expected counter reset to 0 above threshold, got %d", st.openSectors["S_A"].below30ktCounter)
	}

	updateBelowSpeedCounters(st, []string{"S_A"}, nil)
	if st.openSectors["S_A"].below30ktCounter != 0 {
		t.Fatalf("expected counter reset to 0 on missing groundspeed, got %d", st.openSectors["S_A"].below30ktCounter)
	}
}

func TestOpenSectorNamesSortedAscending(t *testing.T) {
	m := map[string]*trackedOccupancy{"S_C": {}, "S_A": {}, "S_B": {}}
	got := openSectorNames(m)
	want := []string{"S_A", "S_B", "S_C"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("openSectorNames() = %v, want %v", got, want)
		}
	}
}
