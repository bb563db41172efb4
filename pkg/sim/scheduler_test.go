// pkg/sim/scheduler_test.go
// Copyright(c) 2025 AirControlX contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"sync"
	"testing"
	"time"
)

// makeTable builds an aircraft table where each entry's class comes from
// classes[i]; indices are chosen so every aircraft is an arrival unless
// the test wants otherwise.
func makeTable(classes ...Class) []*Aircraft {
	tab := make([]*Aircraft, len(classes))
	for i, c := range classes {
		tab[i] = NewAircraft(i, "PIA", c)
	}
	return tab
}

func assertSorted(t *testing.T, tab []*Aircraft, q []int) {
	t.Helper()
	now := time.Now()
	for i := 1; i < len(q); i++ {
		if tab[q[i-1]].PriorityScore(now) < tab[q[i]].PriorityScore(now) {
			t.Errorf("queue not sorted at %d: %d < %d", i,
				tab[q[i-1]].PriorityScore(now), tab[q[i]].PriorityScore(now))
		}
	}
}

func TestEnrollSortsByClass(t *testing.T) {
	// Indices 0,2,4,6 are all arrivals.
	tab := makeTable(Commercial, Commercial, Cargo, Commercial, Military, Commercial, Medical)
	s := NewScheduler()
	for _, idx := range []int{0, 2, 4, 6} {
		s.EnrollArrival(tab, idx)
	}

	q := s.arrivalQueue()
	if len(q) != 4 {
		t.Fatalf("queue length %d", len(q))
	}
	assertSorted(t, tab, q)

	// Class bias alone should order Medical > Military > Cargo >
	// Commercial when ages are effectively equal.
	expected := []int{6, 4, 2, 0}
	for i, idx := range expected {
		if q[i] != idx {
			t.Fatalf("position %d: aircraft %d, expected %d (queue %v)", i, q[i], idx, q)
		}
	}
}

func TestFCFSWithinClass(t *testing.T) {
	tab := makeTable(Commercial, Commercial, Commercial, Commercial, Commercial)
	s := NewScheduler()
	for _, idx := range []int{0, 2, 4} {
		s.EnrollArrival(tab, idx)
	}

	// Re-stamp so aircraft 4 is oldest, then 0, then 2, and re-sort the
	// way an enrollment would.
	now := time.Now()
	tab[4].stampQueueEntry(now.Add(-30 * time.Second))
	tab[0].stampQueueEntry(now.Add(-20 * time.Second))
	tab[2].stampQueueEntry(now.Add(-10 * time.Second))
	s.arrMu.Lock()
	sortByPriority(tab, s.arrivals)
	s.arrMu.Unlock()

	for _, expected := range []int{4, 0, 2} {
		idx, ok := s.TakeNextArrival()
		if !ok {
			t.Fatalf("queue exhausted early")
		}
		if idx != expected {
			t.Errorf("took %d, expected %d", idx, expected)
		}
	}
}

func TestQueueMembership(t *testing.T) {
	tab := makeTable(Commercial, Commercial, Commercial)
	s := NewScheduler()
	before := time.Now()
	s.EnrollArrival(tab, 0)
	s.EnrollArrival(tab, 2)

	if stamp := tab[0].QueueEntry(); stamp.Before(before.Add(-time.Second)) || stamp.After(time.Now()) {
		t.Errorf("queue-entry stamp %v out of range", stamp)
	}

	// An aircraft is in at most one queue.
	for _, idx := range s.arrivalQueue() {
		for _, didx := range s.departureQueue() {
			if idx == didx {
				t.Errorf("aircraft %d in both queues", idx)
			}
		}
	}
}

func TestTakeEmergencyScansArrivalsFirst(t *testing.T) {
	tab := makeTable(Commercial, Commercial, Commercial, Commercial)
	s := NewScheduler()
	s.EnrollArrival(tab, 0)
	s.EnrollArrival(tab, 2)
	s.EnrollDeparture(tab, 1)
	s.EnrollDeparture(tab, 3)

	tab[2].DeclareEmergency(1)
	tab[3].DeclareEmergency(3)

	// Peek must not mutate.
	idx, ok := s.PeekEmergency(tab)
	if !ok || idx != 2 {
		t.Fatalf("PeekEmergency = %d, %v; expected arrival 2", idx, ok)
	}
	if arr, dep := s.QueueLengths(); arr != 2 || dep != 2 {
		t.Fatalf("peek mutated queues: %d/%d", arr, dep)
	}

	// The arrival-queue emergency wins even though the departure's level
	// is higher, because the arrival scan runs first.
	idx, ok = s.TakeEmergency(tab)
	if !ok || idx != 2 {
		t.Fatalf("TakeEmergency = %d, %v; expected arrival 2", idx, ok)
	}
	if arr, _ := s.QueueLengths(); arr != 1 {
		t.Errorf("arrival queue length %d after take", arr)
	}

	// Next scan finds the departure emergency.
	idx, ok = s.TakeEmergency(tab)
	if !ok || idx != 3 {
		t.Fatalf("TakeEmergency = %d, %v; expected departure 3", idx, ok)
	}

	if _, ok := s.TakeEmergency(tab); ok {
		t.Errorf("TakeEmergency found something in emergency-free queues")
	}
}

func TestRequeuePreservesStamp(t *testing.T) {
	tab := makeTable(Commercial)
	s := NewScheduler()
	s.EnrollArrival(tab, 0)
	stamp := tab[0].QueueEntry()

	idx, ok := s.TakeNextArrival()
	if !ok || idx != 0 {
		t.Fatalf("TakeNextArrival = %d, %v", idx, ok)
	}
	s.Requeue(tab, 0)

	if got := tab[0].QueueEntry(); !got.Equal(stamp) {
		t.Errorf("requeue re-stamped the aircraft: %v vs %v", got, stamp)
	}
	if arr, _ := s.QueueLengths(); arr != 1 {
		t.Errorf("arrival queue length %d after requeue", arr)
	}
}

func TestTakeArrivalIfPeeksWithoutPopping(t *testing.T) {
	tab := makeTable(Commercial, Commercial, Cargo)
	s := NewScheduler()
	s.EnrollArrival(tab, 0)

	stamp := tab[0].QueueEntry()
	if _, ok := s.TakeArrivalIf(tab, func(ac *Aircraft) bool { return ac.Class == Cargo }); ok {
		t.Fatalf("predicate rejected head but it was taken")
	}
	if arr, _ := s.QueueLengths(); arr != 1 {
		t.Fatalf("rejected head left the queue")
	}
	if got := tab[0].QueueEntry(); !got.Equal(stamp) {
		t.Errorf("rejected head was re-stamped")
	}

	if idx, ok := s.TakeArrivalIf(tab, func(ac *Aircraft) bool { return ac.Class == Commercial }); !ok || idx != 0 {
		t.Errorf("matching head not taken: %d, %v", idx, ok)
	}
}

func TestWithdraw(t *testing.T) {
	tab := makeTable(Commercial, Commercial)
	s := NewScheduler()
	s.EnrollArrival(tab, 0)
	s.EnrollDeparture(tab, 1)

	if !s.Withdraw(0) {
		t.Errorf("Withdraw missed a queued arrival")
	}
	if !s.Withdraw(1) {
		t.Errorf("Withdraw missed a queued departure")
	}
	if s.Withdraw(0) {
		t.Errorf("Withdraw found an aircraft twice")
	}
	if arr, dep := s.QueueLengths(); arr != 0 || dep != 0 {
		t.Errorf("queues not empty after withdrawals: %d/%d", arr, dep)
	}
}

func TestEstimateWait(t *testing.T) {
	tab := makeTable(Medical, Commercial, Cargo, Commercial, Commercial)
	s := NewScheduler()
	s.EnrollArrival(tab, 4) // Commercial
	s.EnrollArrival(tab, 2) // Cargo, sorts above
	s.EnrollArrival(tab, 0) // Medical, sorts to head

	if wait, ok := s.EstimateWait(0); !ok || wait != 0 {
		t.Errorf("head wait %v, %v", wait, ok)
	}
	if wait, ok := s.EstimateWait(2); !ok || wait != 2*time.Minute {
		t.Errorf("position-1 wait %v, %v", wait, ok)
	}
	if wait, ok := s.EstimateWait(4); !ok || wait != 4*time.Minute {
		t.Errorf("position-2 wait %v, %v", wait, ok)
	}
	if _, ok := s.EstimateWait(1); ok {
		t.Errorf("EstimateWait found an unqueued aircraft")
	}
}

// TestConcurrentEnrollments enrolls twenty aircraft in parallel and
// checks that the queues absorb all of them exactly once and stay
// sorted.
func TestConcurrentEnrollments(t *testing.T) {
	classes := make([]Class, 20)
	for i := range classes {
		classes[i] = Class(i % 4)
	}
	tab := makeTable(classes...)
	s := NewScheduler()

	var wg sync.WaitGroup
	for i := range tab {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			if tab[idx].Direction.IsArrival() {
				s.EnrollArrival(tab, idx)
			} else {
				s.EnrollDeparture(tab, idx)
			}
		}(i)
	}
	wg.Wait()

	arr, dep := s.QueueLengths()
	if arr+dep != 20 {
		t.Fatalf("queues hold %d aircraft, expected 20", arr+dep)
	}

	seen := make(map[int]bool)
	for _, q := range [][]int{s.arrivalQueue(), s.departureQueue()} {
		assertSorted(t, tab, q)
		for _, idx := range q {
			if seen[idx] {
				t.Errorf("aircraft %d appears twice", idx)
			}
			seen[idx] = true
		}
	}
	if len(s.ActiveFlights()) != 20 {
		t.Errorf("active list holds %d, expected 20", len(s.ActiveFlights()))
	}
}
