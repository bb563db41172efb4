// pkg/sim/sim_test.go
// Copyright(c) 2025 AirControlX contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/wajih-rathore/AirControlX/pkg/wire"
)

// testConfig shrinks every interval so a full sequence takes tens of
// milliseconds.
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Duration = time.Second
	cfg.RunwayTimeout = 150 * time.Millisecond
	cfg.TickInterval = 10 * time.Millisecond
	cfg.ATCInterval = 10 * time.Millisecond
	cfg.RadarInterval = 10 * time.Millisecond
	cfg.ApproachTime = 20 * time.Millisecond
	cfg.LandingTime = 20 * time.Millisecond
	cfg.TaxiTime = 20 * time.Millisecond
	cfg.TakeoffTime = 20 * time.Millisecond
	cfg.ClimbTime = 20 * time.Millisecond
	return cfg
}

func TestNewWorldFleet(t *testing.T) {
	w, err := NewWorld(testConfig(), nil)
	if err != nil {
		t.Fatalf("NewWorld: %v", err)
	}
	if len(w.Aircraft) != 14 {
		t.Fatalf("fleet size %d, expected 14", len(w.Aircraft))
	}
	for i, ac := range w.Aircraft {
		if ac.Index != i {
			t.Errorf("aircraft %d has index %d", i, ac.Index)
		}
	}
	// Spot-check the airline blocks.
	if w.Aircraft[0].Airline != "PIA" || w.Aircraft[8].Airline != "FedEx" ||
		w.Aircraft[10].Airline != "PakistanAirforce" || w.Aircraft[13].Airline != "AghaKhanAir" {
		t.Errorf("unexpected fleet layout")
	}
}

func TestNewWorldRejectsBadConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Duration = 0
	if _, err := NewWorld(cfg, nil); err == nil {
		t.Errorf("zero duration accepted")
	}

	cfg = testConfig()
	cfg.PortalAddr = ""
	if _, err := NewWorld(cfg, nil); err == nil {
		t.Errorf("empty portal address accepted")
	}
}

func TestRunRequiresViolationStream(t *testing.T) {
	w, err := NewWorld(testConfig(), nil)
	if err != nil {
		t.Fatalf("NewWorld: %v", err)
	}
	if err := w.Run(context.Background(), nil); err != ErrNoViolationStream {
		t.Errorf("expected ErrNoViolationStream, got %v", err)
	}
}

// A queued aircraft with every runway occupied aborts after the timeout
// without ever being granted one, and leaves the queues consistent.
func TestRunwayTimeout(t *testing.T) {
	cfg := testConfig()
	w := &World{
		Config:  cfg,
		Sched:   NewScheduler(),
		Runways: NewRunwayManager(),
	}
	w.Aircraft = []*Aircraft{NewAircraft(0, "PIA", Commercial)}
	w.Runways.Occupy(RunwayA)
	w.Runways.Occupy(RunwayB)
	w.Runways.Occupy(RunwayC)

	start := time.Now()
	w.fly(context.Background(), w.Aircraft[0])
	elapsed := time.Since(start)

	if _, ok := w.Aircraft[0].RunwayAssigned(); ok {
		t.Errorf("timed-out aircraft holds a runway")
	}
	if w.Aircraft[0].Active() {
		t.Errorf("timed-out aircraft still active")
	}
	if arr, dep := w.Sched.QueueLengths(); arr != 0 || dep != 0 {
		t.Errorf("queues inconsistent after timeout: %d/%d", arr, dep)
	}
	if elapsed < cfg.RunwayTimeout {
		t.Errorf("aborted after %v, before the %v timeout", elapsed, cfg.RunwayTimeout)
	}
}

// syncWriter makes a bytes.Buffer safe for the radar goroutine to write
// while the test waits on it.
type syncWriter struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (w *syncWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Write(p)
}

func (w *syncWriter) bytes() []byte {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]byte(nil), w.buf.Bytes()...)
}

// TestRunSmoke drives a whole shortened simulation and checks the global
// invariants at the end: everyone lands or aborts, every runway is
// released, and the violation stream holds whole frames.
func TestRunSmoke(t *testing.T) {
	cfg := testConfig()
	cfg.Duration = 2 * time.Second
	cfg.RunwayTimeout = time.Second

	w, err := NewWorld(cfg, nil)
	if err != nil {
		t.Fatalf("NewWorld: %v", err)
	}

	out := &syncWriter{}
	if err := w.Run(context.Background(), out); err != nil {
		t.Fatalf("Run: %v", err)
	}

	for _, ac := range w.Aircraft {
		if ac.Active() {
			t.Errorf("%s still active after the run", ac.FlightNumber)
		}
	}
	for id := RunwayA; id < numRunways; id++ {
		if !w.Runways.IsFree(id) {
			t.Errorf("%s still occupied after the run", id)
		}
	}

	// The stream must contain only whole frames.
	data := out.bytes()
	if len(data)%wire.ViolationFrameLen != 0 {
		t.Fatalf("violation stream length %d is not frame-aligned", len(data))
	}
	r := bytes.NewReader(data)
	for {
		rec, err := wire.ReadViolation(r)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("decoding stream: %v", err)
		}
		if rec.FlightNumber == "" || rec.Airline == "" {
			t.Errorf("frame with empty identity: %+v", rec)
		}
	}
}
