// pkg/sim/sim.go
// Copyright(c) 2025 AirControlX contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/wajih-rathore/AirControlX/pkg/log"
	"github.com/wajih-rathore/AirControlX/pkg/util"

	"github.com/shirou/gopsutil/v3/cpu"
	"golang.org/x/sync/errgroup"
)

// statusReportPasses is how many allocator passes elapse between runway
// status reports in the log.
const statusReportPasses = 20

// fleet is the fixed set of airlines and their aircraft counts.
var fleet = []struct {
	airline string
	class   Class
	count   int
}{
	{"PIA", Commercial, 4},
	{"AirBlue", Commercial, 4},
	{"FedEx", Cargo, 2},
	{"PakistanAirforce", Military, 1},
	{"BlueDart", Cargo, 2},
	{"AghaKhanAir", Medical, 1},
}

// World is one simulation run's state: the aircraft table (the arena that
// scheduler indices resolve against), the scheduler, and the runways.  It
// is built by the driver and threaded explicitly into every component.
type World struct {
	Config   Config
	Aircraft []*Aircraft
	Sched    *Scheduler
	Runways  *RunwayManager

	lg *log.Logger
}

func NewWorld(cfg Config, lg *log.Logger) (*World, error) {
	var e util.ErrorLogger
	cfg.Validate(&e)
	if e.HaveErrors() {
		e.PrintErrors(lg)
		return nil, errors.New(e.String())
	}

	w := &World{
		Config:  cfg,
		Sched:   NewScheduler(),
		Runways: NewRunwayManager(),
		lg:      lg,
	}

	index := 0
	for _, f := range fleet {
		for i := 0; i < f.count; i++ {
			w.Aircraft = append(w.Aircraft, NewAircraft(index, f.airline, f.class))
			index++
		}
	}
	return w, nil
}

// Statuses returns plain-data snapshots of every aircraft for external
// collaborators.
func (w *World) Statuses() []Status {
	return util.MapSlice(w.Aircraft, func(ac *Aircraft) Status { return ac.Status() })
}

// Run drives the simulation: one task per aircraft, the ATC allocator
// task, and the radar task, all run until the configured duration elapses
// or ctx is cancelled.  Detected violations are written to the violations
// stream.
func (w *World) Run(ctx context.Context, violations io.Writer) error {
	if violations == nil {
		return ErrNoViolationStream
	}

	ctrl, err := NewController(w.Sched, w.Runways, w.lg)
	if err != nil {
		return err
	}
	radar := NewRadar(w.Sched, violations, w.lg)

	ctx, cancel := context.WithTimeout(ctx, w.Config.Duration)
	defer cancel()

	eg := &errgroup.Group{}

	eg.Go(func() error { w.runATC(ctx, ctrl); return nil })
	eg.Go(func() error { w.runRadar(ctx, radar); return nil })
	for _, ac := range w.Aircraft {
		ac := ac
		eg.Go(func() error { w.fly(ctx, ac); return nil })
	}

	return eg.Wait()
}

func (w *World) runATC(ctx context.Context, ctrl *Controller) {
	w.lg.Info("ATC controller active")
	ticker := time.NewTicker(w.Config.ATCInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ctrl.AssignRunways(w.Aircraft)
			if ctrl.Passes()%statusReportPasses == 0 {
				usage, _ := cpu.Percent(0, false)
				arr, dep := w.Sched.QueueLengths()
				w.lg.Info(w.Runways.StatusReport(),
					slog.Int("arrival_queue", arr),
					slog.Int("departure_queue", dep),
					slog.Any("cpu", usage))
			}
		}
	}
}

func (w *World) runRadar(ctx context.Context, radar *Radar) {
	w.lg.Info("radar active")
	ticker := time.NewTicker(w.Config.RadarInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			radar.Sweep(w.Aircraft)
		}
	}
}

// fly is one aircraft's task.  It enrolls in the appropriate queue, polls
// for a runway grant under the configured timeout, then walks the phase
// sequence for its flow and releases the runway at the terminal ground
// state.
func (w *World) fly(ctx context.Context, ac *Aircraft) {
	defer func() {
		if r := recover(); r != nil {
			w.lg.Error("flight task panicked", slog.String("flight", ac.FlightNumber),
				slog.Any("panic", r))
		}
	}()

	ac.setActive(true)
	defer ac.setActive(false)

	lg := w.lg.With(slog.String("flight", ac.FlightNumber))
	arrival := ac.Direction.IsArrival()

	if arrival {
		w.Sched.EnrollArrival(w.Aircraft, ac.Index)
		lg.Info("entered arrival queue", slog.String("direction", ac.Direction.String()))
	} else {
		w.Sched.EnrollDeparture(w.Aircraft, ac.Index)
		lg.Info("entered departure queue", slog.String("direction", ac.Direction.String()))
	}

	if !w.awaitRunway(ctx, ac, lg) {
		return
	}
	rwy, _ := ac.RunwayAssigned()
	lg.Info("runway granted", slog.String("runway", rwy.String()))

	if arrival {
		w.dwellPhase(ac, Approach, w.Config.ApproachTime)
		w.dwellPhase(ac, Landing, w.Config.LandingTime)
		w.dwellPhase(ac, Taxi, w.Config.TaxiTime)
		ac.setPhase(AtGate)
		ac.Tick()
		lg.Info("arrived at gate")
	} else {
		w.dwellPhase(ac, Taxi, w.Config.TaxiTime)
		w.dwellPhase(ac, TakeoffRoll, w.Config.TakeoffTime)
		w.dwellPhase(ac, Climb, w.Config.ClimbTime)
		ac.setPhase(Cruise)
		ac.Tick()
		lg.Info("reached cruise")
	}

	ac.releaseRunway()
	w.Runways.Release(rwy)
	lg.Info("runway released", slog.String("runway", rwy.String()))
}

// awaitRunway polls the runway-assignment flag once per tick, resampling
// speed and emergencies along the way.  Returns false if the aircraft
// timed out or the run ended; a timed-out aircraft is withdrawn from its
// queue and its sequence aborts.
func (w *World) awaitRunway(ctx context.Context, ac *Aircraft, lg *log.Logger) bool {
	deadline := time.Now().Add(w.Config.RunwayTimeout)
	ticker := time.NewTicker(w.Config.TickInterval)
	defer ticker.Stop()

	ticks := 0
	for {
		if _, ok := ac.RunwayAssigned(); ok {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
			ac.Tick()
			ticks++
			if ticks%5 == 0 {
				if wait, ok := w.Sched.EstimateWait(ac.Index); ok {
					lg.Info("still queued", slog.Duration("estimated_wait", wait))
				}
			}
			if time.Now().After(deadline) {
				if !w.Sched.Withdraw(ac.Index) {
					// The allocator took us off the queue; if the grant
					// landed, carry on.
					if _, ok := ac.RunwayAssigned(); ok {
						return true
					}
				}
				lg.Warn("timed out waiting for runway")
				return false
			}
		}
	}
}

// dwellPhase enters the phase and holds it for the dwell, resampling on
// every tick.
func (w *World) dwellPhase(ac *Aircraft, p Phase, dwell time.Duration) {
	ac.setPhase(p)
	ac.Tick()

	end := time.Now().Add(dwell)
	ticker := time.NewTicker(w.Config.TickInterval)
	defer ticker.Stop()
	for time.Now().Before(end) {
		<-ticker.C
		ac.Tick()
	}
}
