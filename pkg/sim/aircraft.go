// pkg/sim/aircraft.go
// Copyright(c) 2025 AirControlX contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"strconv"
	"sync"
	"time"

	"github.com/wajih-rathore/AirControlX/pkg/rand"
	"github.com/wajih-rathore/AirControlX/pkg/util"
)

type Class int

const (
	Commercial Class = iota
	Cargo
	Military
	Medical
	EmergencyClass
)

func (c Class) String() string {
	return [...]string{"Commercial", "Cargo", "Military", "Medical", "Emergency"}[c]
}

// PriorityBias returns the class term of the scheduling priority score.
func (c Class) PriorityBias() int {
	switch c {
	case Medical:
		return 1000
	case Military:
		return 800
	case Cargo:
		return 600
	default:
		return 400
	}
}

type Direction int

const (
	North Direction = iota
	South
	East
	West
)

func (d Direction) String() string {
	return [...]string{"North", "South", "East", "West"}[d]
}

// IsArrival reports whether the direction belongs to the arrival flows;
// North/South traffic lands, East/West traffic departs.
func (d Direction) IsArrival() bool {
	return d == North || d == South
}

// EmergencyChance returns the per-tick percent probability of an aircraft
// on this flow declaring an emergency.
func (d Direction) EmergencyChance() int {
	switch d {
	case North: // international arrivals
		return 10
	case South: // domestic arrivals
		return 5
	case East: // international departures
		return 15
	default: // West, domestic departures
		return 20
	}
}

type Phase int

const (
	Holding Phase = iota
	Approach
	Landing
	Taxi
	AtGate
	TakeoffRoll
	Climb
	Cruise
)

func (p Phase) String() string {
	return [...]string{"Holding", "Approach", "Landing", "Taxi", "AtGate",
		"TakeoffRoll", "Climb", "Cruise"}[p]
}

// SpeedBand is a phase's legal (min, max) speed range in km/h.  Which of
// the two bounds the radar actually enforces varies by phase; see
// exceedsLimits in radar.go.
type SpeedBand struct {
	Min, Max int
}

// LegalBand gives the enforced band for each phase.  The sampling range
// the state engine draws from is separate (see resampleSpeed); for most
// phases they coincide.
func (p Phase) LegalBand() SpeedBand {
	switch p {
	case Holding:
		return SpeedBand{400, 600}
	case Approach:
		return SpeedBand{240, 290}
	case Landing:
		return SpeedBand{30, 240}
	case Taxi:
		return SpeedBand{15, 30}
	case AtGate:
		return SpeedBand{0, 5}
	case TakeoffRoll:
		return SpeedBand{0, 290}
	case Climb:
		return SpeedBand{250, 463}
	default: // Cruise
		return SpeedBand{800, 900}
	}
}

// Aircraft is one simulated flight.  Its mutable state is written by the
// flight task that owns it and read concurrently by the radar and the ATC
// controller, so everything below mu goes through the accessors.
type Aircraft struct {
	Index        int
	FlightNumber string
	Airline      string
	Class        Class
	Direction    Direction

	mu              sync.Mutex
	phase           Phase
	speed           int
	emergency       int
	latentViolation bool
	activeViolation bool
	queueEntry      time.Time
	runwayAssigned  bool
	runway          RunwayID
	active          bool
}

// NewAircraft builds an aircraft for the given global index.  Flow and
// direction are deterministic from the index: even indices arrive
// (alternating North/South), odd indices depart (alternating East/West).
func NewAircraft(index int, airline string, class Class) *Aircraft {
	ac := &Aircraft{
		Index:        index,
		FlightNumber: airline + "-" + strconv.Itoa(index),
		Airline:      airline,
		Class:        class,
	}

	if index%2 == 0 {
		ac.Direction = util.Select(index%4 == 0, North, South)
		ac.phase = Holding
	} else {
		ac.Direction = util.Select(index%4 == 1, East, West)
		ac.phase = AtGate
	}
	return ac
}

func (ac *Aircraft) Phase() Phase {
	ac.mu.Lock()
	defer ac.mu.Unlock()
	return ac.phase
}

func (ac *Aircraft) Speed() int {
	ac.mu.Lock()
	defer ac.mu.Unlock()
	return ac.speed
}

func (ac *Aircraft) Emergency() int {
	ac.mu.Lock()
	defer ac.mu.Unlock()
	return ac.emergency
}

// DeclareEmergency sets the emergency level; levels are sticky, so once an
// aircraft has declared one, later declarations are ignored.
func (ac *Aircraft) DeclareEmergency(level int) {
	ac.mu.Lock()
	defer ac.mu.Unlock()
	if ac.emergency == 0 {
		ac.emergency = level
	}
}

func (ac *Aircraft) Active() bool {
	ac.mu.Lock()
	defer ac.mu.Unlock()
	return ac.active
}

func (ac *Aircraft) setActive(a bool) {
	ac.mu.Lock()
	defer ac.mu.Unlock()
	ac.active = a
}

func (ac *Aircraft) ActiveViolation() bool {
	ac.mu.Lock()
	defer ac.mu.Unlock()
	return ac.activeViolation
}

// LatentViolation reports the advisory self-check flag; only the radar's
// active flag drives reporting.
func (ac *Aircraft) LatentViolation() bool {
	ac.mu.Lock()
	defer ac.mu.Unlock()
	return ac.latentViolation
}

// markViolation latches the active-violation flag, returning false if it
// was already set.  The radar uses the return value to guarantee a single
// frame per violation.
func (ac *Aircraft) markViolation() bool {
	ac.mu.Lock()
	defer ac.mu.Unlock()
	if ac.activeViolation {
		return false
	}
	ac.activeViolation = true
	return true
}

// ClearViolation re-arms violation reporting.  Nothing in the simulator
// process calls it: no stream carries payment confirmations back to the
// simulator, so a reported aircraft stays latched for the rest of its
// flight.
func (ac *Aircraft) ClearViolation() {
	ac.mu.Lock()
	defer ac.mu.Unlock()
	ac.activeViolation = false
}

func (ac *Aircraft) RunwayAssigned() (RunwayID, bool) {
	ac.mu.Lock()
	defer ac.mu.Unlock()
	return ac.runway, ac.runwayAssigned
}

func (ac *Aircraft) grantRunway(id RunwayID) {
	ac.mu.Lock()
	defer ac.mu.Unlock()
	ac.runwayAssigned = true
	ac.runway = id
}

func (ac *Aircraft) releaseRunway() {
	ac.mu.Lock()
	defer ac.mu.Unlock()
	ac.runwayAssigned = false
}

func (ac *Aircraft) stampQueueEntry(t time.Time) {
	ac.mu.Lock()
	defer ac.mu.Unlock()
	ac.queueEntry = t
}

func (ac *Aircraft) QueueEntry() time.Time {
	ac.mu.Lock()
	defer ac.mu.Unlock()
	return ac.queueEntry
}

// PriorityScore computes the scheduling priority at the given instant;
// larger is served first.  Emergencies dominate, then class, then age in
// the queue (which gives FCFS within a class).
func (ac *Aircraft) PriorityScore(now time.Time) int {
	ac.mu.Lock()
	defer ac.mu.Unlock()

	score := 0
	if ac.emergency > 0 {
		score += 10000 * ac.emergency
	}
	score += ac.Class.PriorityBias()
	if !ac.queueEntry.IsZero() {
		score += int(now.Sub(ac.queueEntry).Seconds())
	}
	return score
}

// sample returns phase and speed under one lock acquisition so the radar
// never pairs a speed with the wrong phase's band.
func (ac *Aircraft) sample() (Phase, int) {
	ac.mu.Lock()
	defer ac.mu.Unlock()
	return ac.phase, ac.speed
}

func (ac *Aircraft) setPhase(p Phase) {
	ac.mu.Lock()
	defer ac.mu.Unlock()
	ac.phase = p
}

// Tick advances one simulation step: resample the speed for the current
// phase, run the advisory self-check, and roll for an emergency.
func (ac *Aircraft) Tick() {
	ac.mu.Lock()
	defer ac.mu.Unlock()

	ac.resampleSpeed()
	band := ac.phase.LegalBand()
	ac.latentViolation = ac.speed < band.Min || ac.speed > band.Max

	if ac.emergency == 0 && rand.Intn(100) < ac.Direction.EmergencyChance() {
		ac.emergency = 1 + rand.Intn(3)
	}
}

// resampleSpeed draws the phase speed; Landing decelerates monotonically
// toward the 30 km/h floor and TakeoffRoll accelerates toward the 290 km/h
// cap, everything else samples its band uniformly.  Caller holds ac.mu.
func (ac *Aircraft) resampleSpeed() {
	switch ac.phase {
	case Holding:
		ac.speed = rand.IntnRange(400, 600)
	case Approach:
		ac.speed = rand.IntnRange(240, 290)
	case Landing:
		ac.speed = max(30, ac.speed-20)
	case Taxi:
		ac.speed = rand.IntnRange(15, 30)
	case AtGate:
		ac.speed = rand.IntnRange(0, 5)
	case TakeoffRoll:
		ac.speed = min(290, ac.speed+15)
	case Climb:
		ac.speed = rand.IntnRange(250, 463)
	case Cruise:
		ac.speed = rand.IntnRange(800, 900)
	}
}

// Status is the plain-data snapshot the core exposes to external
// collaborators (display, portals); it carries no behavior.
type Status struct {
	FlightNumber    string
	Airline         string
	Class           string
	Direction       string
	Phase           string
	Speed           int
	Emergency       int
	LatentViolation bool
	ActiveViolation bool
	RunwayAssigned  bool
	Active          bool
}

func (ac *Aircraft) Status() Status {
	ac.mu.Lock()
	defer ac.mu.Unlock()
	return Status{
		FlightNumber:    ac.FlightNumber,
		Airline:         ac.Airline,
		Class:           ac.Class.String(),
		Direction:       ac.Direction.String(),
		Phase:           ac.phase.String(),
		Speed:           ac.speed,
		Emergency:       ac.emergency,
		LatentViolation: ac.latentViolation,
		ActiveViolation: ac.activeViolation,
		RunwayAssigned:  ac.runwayAssigned,
		Active:          ac.active,
	}
}
