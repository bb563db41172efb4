// pkg/sim/controller.go
// Copyright(c) 2025 AirControlX contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"log/slog"

	"github.com/wajih-rathore/AirControlX/pkg/log"
)

// Controller is the ATC task's allocator.  It is the only mutator of
// runway occupancy on the assignment side; one AssignRunways call is one
// allocator pass.
type Controller struct {
	sched   *Scheduler
	runways *RunwayManager
	lg      *log.Logger

	passes int
}

func NewController(sched *Scheduler, runways *RunwayManager, lg *log.Logger) (*Controller, error) {
	if sched == nil {
		return nil, ErrNoScheduler
	}
	if runways == nil {
		return nil, ErrNoRunwayManager
	}
	return &Controller{sched: sched, runways: runways, lg: lg}, nil
}

// AssignRunways runs one allocator pass over the queues: emergencies
// first, then the cargo preference for the flexible runway, then
// directional routing, then overflow.  At most one aircraft is granted a
// runway per pass.
func (c *Controller) AssignRunways(tab []*Aircraft) {
	c.passes++

	// Emergencies preempt everything.  If no compatible runway is free
	// the emergency goes back into its queue, stamp intact, and the pass
	// ends so nothing can jump ahead of it.
	if idx, ok := c.sched.TakeEmergency(tab); ok {
		ac := tab[idx]
		switch {
		case ac.Direction.IsArrival() && c.runways.IsFree(RunwayA):
			c.grant(ac, RunwayA, "emergency arrival")
		case !ac.Direction.IsArrival() && c.runways.IsFree(RunwayB):
			c.grant(ac, RunwayB, "emergency departure")
		case c.runways.IsFree(RunwayC):
			c.grant(ac, RunwayC, "flexible emergency")
		default:
			c.sched.Requeue(tab, idx)
		}
		return
	}

	// Cargo flights get first claim on the flexible runway.  Only the
	// queue heads are considered, and a non-cargo head is peeked, not
	// popped, so its position and stamp are undisturbed.
	isCargo := func(ac *Aircraft) bool { return ac.Class == Cargo }
	if c.runways.IsFree(RunwayC) {
		if idx, ok := c.sched.TakeArrivalIf(tab, isCargo); ok {
			c.grant(tab[idx], RunwayC, "cargo arrival")
			return
		}
		if idx, ok := c.sched.TakeDepartureIf(tab, isCargo); ok {
			c.grant(tab[idx], RunwayC, "cargo departure")
			return
		}
	}

	// Directional routing: arrivals from the north/south onto A,
	// departures to the east/west onto B.
	if c.runways.IsFree(RunwayA) {
		if idx, ok := c.sched.TakeArrivalIf(tab, func(ac *Aircraft) bool {
			return ac.Direction.IsArrival()
		}); ok {
			c.grant(tab[idx], RunwayA, "arrival N/S")
			return
		}
	}
	if c.runways.IsFree(RunwayB) {
		if idx, ok := c.sched.TakeDepartureIf(tab, func(ac *Aircraft) bool {
			return !ac.Direction.IsArrival()
		}); ok {
			c.grant(tab[idx], RunwayB, "departure E/W")
			return
		}
	}

	// Overflow: any remaining head onto C, arrivals preferred.
	if c.runways.IsFree(RunwayC) {
		if idx, ok := c.sched.TakeNextArrival(); ok {
			c.grant(tab[idx], RunwayC, "arrival overflow")
			return
		}
		if idx, ok := c.sched.TakeNextDeparture(); ok {
			c.grant(tab[idx], RunwayC, "departure overflow")
			return
		}
	}
}

func (c *Controller) grant(ac *Aircraft, id RunwayID, why string) {
	if !c.runways.Occupy(id) {
		// Occupancy is only ever set from this task, so a free runway
		// cannot be taken out from under us mid-pass.
		c.lg.Error("runway occupied at grant", slog.String("runway", id.String()),
			slog.String("flight", ac.FlightNumber))
		return
	}
	ac.grantRunway(id)
	c.lg.Info("runway assigned",
		slog.String("flight", ac.FlightNumber),
		slog.String("runway", id.String()),
		slog.String("reason", why),
		slog.Int("emergency", ac.Emergency()))
}

// Passes returns how many allocator passes have run; the driver uses it
// for the periodic status report.
func (c *Controller) Passes() int {
	return c.passes
}
