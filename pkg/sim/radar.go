// pkg/sim/radar.go
// Copyright(c) 2025 AirControlX contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"io"
	"log/slog"

	"github.com/wajih-rathore/AirControlX/pkg/log"
	"github.com/wajih-rathore/AirControlX/pkg/wire"
)

// Radar samples every active flight at a fixed cadence and reports speed
// violations to the AVN generator over the violation stream.
type Radar struct {
	sched *Scheduler
	out   io.Writer
	lg    *log.Logger
}

func NewRadar(sched *Scheduler, out io.Writer, lg *log.Logger) *Radar {
	return &Radar{sched: sched, out: out, lg: lg}
}

// exceedsLimits applies the phase-specific violation rule.  Approach and
// Cruise enforce both bounds; AtGate flags anything over 10 km/h; the
// remaining phases only enforce the upper bound.
func exceedsLimits(p Phase, speed int) bool {
	band := p.LegalBand()
	switch p {
	case Approach, Cruise:
		return speed < band.Min || speed > band.Max
	case AtGate:
		return speed > 10
	default:
		return speed > band.Max
	}
}

// Sweep performs one radar pass over the active-flights list.  An
// aircraft whose active-violation flag is already set is immune from
// re-reporting until ClearViolation resets the flag.  Returns the number
// of frames emitted.
func (r *Radar) Sweep(tab []*Aircraft) int {
	emitted := 0
	for _, idx := range r.sched.ActiveFlights() {
		ac := tab[idx]
		if !ac.Active() {
			continue
		}

		// Snapshot phase and speed together so the band matches the
		// sampled value.
		phase, speed := ac.sample()
		if !exceedsLimits(phase, speed) {
			continue
		}
		if !ac.markViolation() {
			continue
		}

		band := phase.LegalBand()
		rec := wire.ViolationRecord{
			FlightNumber: ac.FlightNumber,
			Airline:      ac.Airline,
			Speed:        int32(speed),
			MinAllowed:   int32(band.Min),
			MaxAllowed:   int32(band.Max),
		}
		if err := wire.WriteViolation(r.out, rec); err != nil {
			// The generator is expected to outlive the run; a failed
			// write drops the frame rather than retrying.
			r.lg.Error("dropping violation frame", slog.Any("error", err),
				slog.String("flight", ac.FlightNumber))
			continue
		}
		emitted++
		r.lg.Info("violation reported",
			slog.String("flight", ac.FlightNumber),
			slog.String("phase", phase.String()),
			slog.Int("speed", speed),
			slog.Int("min", band.Min),
			slog.Int("max", band.Max))
	}
	return emitted
}
