// pkg/sim/controller_test.go
// Copyright(c) 2025 AirControlX contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"testing"
)

func newTestController(t *testing.T, s *Scheduler, rm *RunwayManager) *Controller {
	t.Helper()
	ctrl, err := NewController(s, rm, nil)
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}
	return ctrl
}

func TestControllerRequiresComponents(t *testing.T) {
	if _, err := NewController(nil, NewRunwayManager(), nil); err != ErrNoScheduler {
		t.Errorf("expected ErrNoScheduler, got %v", err)
	}
	if _, err := NewController(NewScheduler(), nil, nil); err != ErrNoRunwayManager {
		t.Errorf("expected ErrNoRunwayManager, got %v", err)
	}
}

// A cargo arrival from the north must land on the flexible runway, not A,
// even with A free.
func TestCargoPrefersFlexibleRunway(t *testing.T) {
	tab := []*Aircraft{NewAircraft(0, "FedEx", Cargo)} // index 0: North arrival
	s := NewScheduler()
	rm := NewRunwayManager()
	s.EnrollArrival(tab, 0)

	newTestController(t, s, rm).AssignRunways(tab)

	rwy, ok := tab[0].RunwayAssigned()
	if !ok {
		t.Fatalf("cargo arrival not assigned")
	}
	if rwy != RunwayC {
		t.Errorf("cargo arrival on %s, expected RWY-C", rwy)
	}
	if rm.IsFree(RunwayC) {
		t.Errorf("RWY-C still free after assignment")
	}
	if !rm.IsFree(RunwayA) {
		t.Errorf("RWY-A occupied; cargo should have bypassed it")
	}
}

// Two departures, one with an emergency: the emergency gets runway B in
// the first pass and the other stays queued.
func TestEmergencyPreemptsDepartureQueue(t *testing.T) {
	tab := []*Aircraft{
		nil,
		NewAircraft(1, "PIA", Commercial), // East departure
		nil,
		NewAircraft(3, "PIA", Commercial), // West departure
	}
	s := NewScheduler()
	rm := NewRunwayManager()
	s.EnrollDeparture(tab, 3)
	s.EnrollDeparture(tab, 1)
	tab[1].DeclareEmergency(2)

	newTestController(t, s, rm).AssignRunways(tab)

	rwy, ok := tab[1].RunwayAssigned()
	if !ok || rwy != RunwayB {
		t.Fatalf("emergency departure assignment: %s, %v", rwy, ok)
	}
	if _, ok := tab[3].RunwayAssigned(); ok {
		t.Errorf("non-emergency departure was also assigned")
	}
	if _, dep := s.QueueLengths(); dep != 1 {
		t.Errorf("departure queue length %d, expected 1", dep)
	}
}

// An emergency arrival with A occupied falls through to the flexible
// runway.
func TestEmergencyFallsBackToFlexible(t *testing.T) {
	tab := []*Aircraft{NewAircraft(0, "PIA", Commercial)}
	s := NewScheduler()
	rm := NewRunwayManager()
	rm.Occupy(RunwayA)
	s.EnrollArrival(tab, 0)
	tab[0].DeclareEmergency(1)

	newTestController(t, s, rm).AssignRunways(tab)

	rwy, ok := tab[0].RunwayAssigned()
	if !ok || rwy != RunwayC {
		t.Errorf("emergency fallback: %s, %v; expected RWY-C", rwy, ok)
	}
}

// With every runway occupied, an emergency returns to its queue with its
// stamp intact and the pass assigns nothing.
func TestEmergencyReturnsWhenNoRunwayFree(t *testing.T) {
	tab := []*Aircraft{NewAircraft(0, "PIA", Commercial)}
	s := NewScheduler()
	rm := NewRunwayManager()
	rm.Occupy(RunwayA)
	rm.Occupy(RunwayB)
	rm.Occupy(RunwayC)
	s.EnrollArrival(tab, 0)
	tab[0].DeclareEmergency(3)
	stamp := tab[0].QueueEntry()

	newTestController(t, s, rm).AssignRunways(tab)

	if _, ok := tab[0].RunwayAssigned(); ok {
		t.Fatalf("assigned with all runways occupied")
	}
	if arr, _ := s.QueueLengths(); arr != 1 {
		t.Errorf("emergency not returned to queue")
	}
	if !tab[0].QueueEntry().Equal(stamp) {
		t.Errorf("returned emergency was re-stamped")
	}
}

// A non-cargo arrival head keeps its position when the cargo check peeks
// at it, and directional routing then serves it on runway A.
func TestDirectionalRouting(t *testing.T) {
	tab := []*Aircraft{
		NewAircraft(0, "PIA", Commercial),     // North arrival
		NewAircraft(1, "AirBlue", Commercial), // East departure
	}
	s := NewScheduler()
	rm := NewRunwayManager()
	s.EnrollArrival(tab, 0)
	s.EnrollDeparture(tab, 1)

	ctrl := newTestController(t, s, rm)

	// Pass 1: the arrival head is not cargo, so C is skipped and A wins.
	ctrl.AssignRunways(tab)
	if rwy, ok := tab[0].RunwayAssigned(); !ok || rwy != RunwayA {
		t.Fatalf("arrival routing: %s, %v; expected RWY-A", rwy, ok)
	}

	// Pass 2: the departure goes to B.
	ctrl.AssignRunways(tab)
	if rwy, ok := tab[1].RunwayAssigned(); !ok || rwy != RunwayB {
		t.Fatalf("departure routing: %s, %v; expected RWY-B", rwy, ok)
	}
}

// With A and B occupied, a waiting arrival overflows onto C.
func TestOverflowToFlexible(t *testing.T) {
	tab := []*Aircraft{NewAircraft(0, "PIA", Commercial)}
	s := NewScheduler()
	rm := NewRunwayManager()
	rm.Occupy(RunwayA)
	rm.Occupy(RunwayB)
	s.EnrollArrival(tab, 0)

	newTestController(t, s, rm).AssignRunways(tab)

	if rwy, ok := tab[0].RunwayAssigned(); !ok || rwy != RunwayC {
		t.Errorf("overflow: %s, %v; expected RWY-C", rwy, ok)
	}
}

// One pass grants at most one runway.
func TestOneGrantPerPass(t *testing.T) {
	tab := []*Aircraft{
		NewAircraft(0, "PIA", Commercial),
		NewAircraft(1, "PIA", Commercial),
		NewAircraft(2, "AirBlue", Commercial),
	}
	s := NewScheduler()
	rm := NewRunwayManager()
	s.EnrollArrival(tab, 0)
	s.EnrollArrival(tab, 2)
	s.EnrollDeparture(tab, 1)

	newTestController(t, s, rm).AssignRunways(tab)

	granted := 0
	for _, ac := range tab {
		if _, ok := ac.RunwayAssigned(); ok {
			granted++
		}
	}
	if granted != 1 {
		t.Errorf("%d grants in one pass", granted)
	}
}

func TestRunwayMutualExclusion(t *testing.T) {
	rm := NewRunwayManager()
	if !rm.Occupy(RunwayA) {
		t.Fatalf("fresh runway not occupiable")
	}
	if rm.Occupy(RunwayA) {
		t.Errorf("occupied runway occupied again")
	}
	rm.Release(RunwayA)
	if rm.Turns(RunwayA) != 1 {
		t.Errorf("turn counter %d after one release", rm.Turns(RunwayA))
	}
	if !rm.Occupy(RunwayA) {
		t.Errorf("released runway not occupiable")
	}
}
