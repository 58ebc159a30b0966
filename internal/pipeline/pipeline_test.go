package pipeline

import (
	"testing"

	"github.com/unklstewy/atc-ingest/pkg/controller"
	"github.com/unklstewy/atc-ingest/pkg/network"
)

func TestClassifyControllersClassifiesEachOnce(t *testing.T) {
	o := &Orchestrator{classifier: controller.New(nil)}

	samples := []network.ControllerSample{
		{Callsign: "SY_TWR", FacilityCode: 2},
		{Callsign: "SY_GND", FacilityCode: 1},
		{Callsign: "ML_CTR", FacilityCode: 4},
	}

	types := o.classifyControllers(samples)

	if types["SY_TWR"] != controller.Tower {
		t.Errorf("expected SY_TWR classified tower, got %s", types["SY_TWR"])
	}
	if types["SY_GND"] != controller.Ground {
		t.Errorf("expected SY_GND classified ground, got %s", types["SY_GND"])
	}
	if types["ML_CTR"] != controller.Center {
		t.Errorf("expected ML_CTR classified center, got %s", types["ML_CTR"])
	}
	if len(types) != 3 {
		t.Errorf("expected 3 classified entries, got %d", len(types))
	}
}
