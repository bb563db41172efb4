// pkg/sim/scheduler.go
// Copyright(c) 2025 AirControlX contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"sort"
	"sync"
	"time"

	"github.com/wajih-rathore/AirControlX/pkg/util"
)

// slotCost is the per-queue-position cost used for wait estimates.
const slotCost = 2 * time.Minute

// Scheduler holds the arrival and departure queues.  It stores aircraft
// indices rather than pointers; the aircraft table is owned by the World
// and passed into every operation that needs to resolve one.  The two
// queues are protected by independent locks and no operation ever holds
// both at once: the emergency scan takes the arrival lock first and only
// after releasing it moves on to the departure lock.
type Scheduler struct {
	arrMu    sync.Mutex
	arrivals []int

	depMu      sync.Mutex
	departures []int

	// Every aircraft ever enrolled, in enrollment order; appended to and
	// never removed from during a run.  External collaborators read it
	// through ActiveFlights.
	activeMu sync.Mutex
	active   []int
}

func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// EnrollArrival stamps the aircraft's queue-entry time, inserts it into
// the arrival queue, and re-sorts the queue by descending priority.
func (s *Scheduler) EnrollArrival(tab []*Aircraft, idx int) {
	tab[idx].stampQueueEntry(time.Now())

	s.arrMu.Lock()
	s.arrivals = append(s.arrivals, idx)
	sortByPriority(tab, s.arrivals)
	s.arrMu.Unlock()

	s.noteActive(idx)
}

// EnrollDeparture is EnrollArrival for the departure queue.
func (s *Scheduler) EnrollDeparture(tab []*Aircraft, idx int) {
	tab[idx].stampQueueEntry(time.Now())

	s.depMu.Lock()
	s.departures = append(s.departures, idx)
	sortByPriority(tab, s.departures)
	s.depMu.Unlock()

	s.noteActive(idx)
}

// Requeue puts an aircraft back into the queue for its flow without
// touching its queue-entry stamp, so a bumped flight keeps its FCFS age.
func (s *Scheduler) Requeue(tab []*Aircraft, idx int) {
	if tab[idx].Direction.IsArrival() {
		s.arrMu.Lock()
		s.arrivals = append(s.arrivals, idx)
		sortByPriority(tab, s.arrivals)
		s.arrMu.Unlock()
	} else {
		s.depMu.Lock()
		s.departures = append(s.departures, idx)
		sortByPriority(tab, s.departures)
		s.depMu.Unlock()
	}
}

func (s *Scheduler) noteActive(idx int) {
	s.activeMu.Lock()
	defer s.activeMu.Unlock()
	for _, a := range s.active {
		if a == idx {
			return
		}
	}
	s.active = append(s.active, idx)
}

// sortByPriority sorts the queue by non-increasing priority score.  Scores
// are computed against a single instant so the ordering is consistent
// within one sort.  Caller holds the queue's lock.
func sortByPriority(tab []*Aircraft, q []int) {
	now := time.Now()
	sort.SliceStable(q, func(i, j int) bool {
		return tab[q[i]].PriorityScore(now) > tab[q[j]].PriorityScore(now)
	})
}

// TakeNextArrival removes and returns the highest-priority arrival, or
// ok=false if the queue is empty.
func (s *Scheduler) TakeNextArrival() (int, bool) {
	s.arrMu.Lock()
	defer s.arrMu.Unlock()
	if len(s.arrivals) == 0 {
		return 0, false
	}
	idx := s.arrivals[0]
	s.arrivals = util.DeleteSliceElement(s.arrivals, 0)
	return idx, true
}

func (s *Scheduler) TakeNextDeparture() (int, bool) {
	s.depMu.Lock()
	defer s.depMu.Unlock()
	if len(s.departures) == 0 {
		return 0, false
	}
	idx := s.departures[0]
	s.departures = util.DeleteSliceElement(s.departures, 0)
	return idx, true
}

// TakeArrivalIf pops the arrival-queue head only if pred accepts it; a
// rejected head is left in place, stamp and position untouched.  This is
// the peek-don't-pop discipline the allocator uses for cargo and
// directional routing.
func (s *Scheduler) TakeArrivalIf(tab []*Aircraft, pred func(*Aircraft) bool) (int, bool) {
	s.arrMu.Lock()
	defer s.arrMu.Unlock()
	if len(s.arrivals) == 0 || !pred(tab[s.arrivals[0]]) {
		return 0, false
	}
	idx := s.arrivals[0]
	s.arrivals = util.DeleteSliceElement(s.arrivals, 0)
	return idx, true
}

func (s *Scheduler) TakeDepartureIf(tab []*Aircraft, pred func(*Aircraft) bool) (int, bool) {
	s.depMu.Lock()
	defer s.depMu.Unlock()
	if len(s.departures) == 0 || !pred(tab[s.departures[0]]) {
		return 0, false
	}
	idx := s.departures[0]
	s.departures = util.DeleteSliceElement(s.departures, 0)
	return idx, true
}

// PeekEmergency returns the highest-priority aircraft with a declared
// emergency from either queue without removing it.  The arrival queue is
// scanned first; the departure lock is only taken after the arrival lock
// has been released.
func (s *Scheduler) PeekEmergency(tab []*Aircraft) (int, bool) {
	if idx, ok := scanEmergency(tab, &s.arrMu, &s.arrivals, false); ok {
		return idx, true
	}
	return scanEmergency(tab, &s.depMu, &s.departures, false)
}

// TakeEmergency is PeekEmergency but removes the found entry from its
// queue.
func (s *Scheduler) TakeEmergency(tab []*Aircraft) (int, bool) {
	if idx, ok := scanEmergency(tab, &s.arrMu, &s.arrivals, true); ok {
		return idx, true
	}
	return scanEmergency(tab, &s.depMu, &s.departures, true)
}

func scanEmergency(tab []*Aircraft, mu *sync.Mutex, q *[]int, take bool) (int, bool) {
	mu.Lock()
	defer mu.Unlock()

	now := time.Now()
	best, bestScore := -1, 0
	for i, idx := range *q {
		if tab[idx].Emergency() > 0 {
			if score := tab[idx].PriorityScore(now); score > bestScore {
				best, bestScore = i, score
			}
		}
	}
	if best < 0 {
		return 0, false
	}

	idx := (*q)[best]
	if take {
		*q = util.DeleteSliceElement(*q, best)
	}
	return idx, true
}

// Withdraw removes an aircraft from whichever queue holds it; used by the
// timeout path so an aborted flight cannot later be granted a runway it
// will never release.  Returns false if the aircraft was in neither queue.
func (s *Scheduler) Withdraw(idx int) bool {
	s.arrMu.Lock()
	for i, a := range s.arrivals {
		if a == idx {
			s.arrivals = util.DeleteSliceElement(s.arrivals, i)
			s.arrMu.Unlock()
			return true
		}
	}
	s.arrMu.Unlock()

	s.depMu.Lock()
	defer s.depMu.Unlock()
	for i, a := range s.departures {
		if a == idx {
			s.departures = util.DeleteSliceElement(s.departures, i)
			return true
		}
	}
	return false
}

// EstimateWait returns the expected wait for a queued aircraft: its
// position times the fixed per-slot cost.  ok is false if the aircraft is
// in neither queue.
func (s *Scheduler) EstimateWait(idx int) (time.Duration, bool) {
	s.arrMu.Lock()
	for pos, a := range s.arrivals {
		if a == idx {
			s.arrMu.Unlock()
			return time.Duration(pos) * slotCost, true
		}
	}
	s.arrMu.Unlock()

	s.depMu.Lock()
	defer s.depMu.Unlock()
	for pos, a := range s.departures {
		if a == idx {
			return time.Duration(pos) * slotCost, true
		}
	}
	return 0, false
}

// ActiveFlights returns a copy of the indices of every aircraft that has
// ever been enrolled.
func (s *Scheduler) ActiveFlights() []int {
	s.activeMu.Lock()
	defer s.activeMu.Unlock()
	return util.DuplicateSlice(s.active)
}

// QueueLengths reports the current sizes of the two queues.
func (s *Scheduler) QueueLengths() (arrivals, departures int) {
	s.arrMu.Lock()
	arrivals = len(s.arrivals)
	s.arrMu.Unlock()

	s.depMu.Lock()
	departures = len(s.departures)
	s.depMu.Unlock()
	return
}

// arrivalQueue and departureQueue return snapshots for tests and the
// status report.
func (s *Scheduler) arrivalQueue() []int {
	s.arrMu.Lock()
	defer s.arrMu.Unlock()
	return util.DuplicateSlice(s.arrivals)
}

func (s *Scheduler) departureQueue() []int {
	s.depMu.Lock()
	defer s.depMu.Unlock()
	return util.DuplicateSlice(s.departures)
}
