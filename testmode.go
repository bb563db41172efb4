// testmode.go
// Copyright(c) 2025 AirControlX contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

import (
	"fmt"
	"io"
	"time"

	"github.com/wajih-rathore/AirControlX/pkg/log"
	"github.com/wajih-rathore/AirControlX/pkg/wire"
)

// sendTestViolations pushes a handful of canned violation frames through
// the pipeline so the notice/payment processes can be exercised without a
// full simulation run.
func sendTestViolations(w io.Writer, lg *log.Logger) {
	cases := []wire.ViolationRecord{
		// Commercial aircraft over the Holding ceiling.
		{FlightNumber: "PIA-123", Airline: "PIA", Speed: 650, MinAllowed: 400, MaxAllowed: 600},
		// Cargo aircraft above the Approach band.
		{FlightNumber: "FedEx-456", Airline: "FedEx", Speed: 300, MinAllowed: 240, MaxAllowed: 290},
		// Military flight too fast on the taxiway.
		{FlightNumber: "PakistanAirforce-789", Airline: "PakistanAirforce", Speed: 35, MinAllowed: 15, MaxAllowed: 30},
	}

	fmt.Println("Sending test violations to the AVN generator...")
	for i, rec := range cases {
		if err := wire.WriteViolation(w, rec); err != nil {
			lg.Errorf("test violation %d failed: %v", i+1, err)
			continue
		}
		lg.Infof("test violation sent: %s at %d km/h", rec.FlightNumber, rec.Speed)
		time.Sleep(500 * time.Millisecond)
	}
}
