// pkg/avn/notice.go
// Copyright(c) 2025 AirControlX contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package avn implements the Airspace Violation Notice generator: it turns
// violation frames from the radar into notices, forwards them to the
// airline portal, and applies payment confirmations from the payment
// service.
package avn

import (
	"fmt"
	"time"

	"github.com/wajih-rathore/AirControlX/pkg/wire"
)

const (
	// serviceFeePercent is the administrative surcharge on every fine.
	serviceFeePercent = 15
	// dueOffset is how long an airline has to pay a notice.
	dueOffset = 3 * 24 * time.Hour

	commercialFine = 500_000
	heavyFine      = 700_000
)

// Notice is one issued violation notice.
type Notice struct {
	ID           string
	FlightNumber string
	Airline      string
	AircraftType string
	Speed        int
	MinAllowed   int
	MaxAllowed   int
	Issued       time.Time
	Due          time.Time
	Fine         int
	ServiceFee   int
	Total        int
	Paid         bool
}

// classify maps an airline to its aircraft-type string and fine amount.
// The violation frame doesn't carry the class, so like the fine schedule
// it is derived from the operating airline.
func classify(airline string) (string, int) {
	switch airline {
	case "PIA", "AirBlue":
		return "Commercial", commercialFine
	case "FedEx", "BlueDart":
		return "Cargo", heavyFine
	case "PakistanAirforce", "AghaKhanAir":
		return "Emergency", heavyFine
	default:
		return "Commercial", commercialFine
	}
}

// newNotice builds a notice for the violation; the caller assigns the
// unique ID.
func newNotice(rec wire.ViolationRecord, now time.Time) *Notice {
	actype, fine := classify(rec.Airline)
	fee := fine * serviceFeePercent / 100
	return &Notice{
		FlightNumber: rec.FlightNumber,
		Airline:      rec.Airline,
		AircraftType: actype,
		Speed:        int(rec.Speed),
		MinAllowed:   int(rec.MinAllowed),
		MaxAllowed:   int(rec.MaxAllowed),
		Issued:       now,
		Due:          now.Add(dueOffset),
		Fine:         fine,
		ServiceFee:   fee,
		Total:        fine + fee,
	}
}

// noticeID formats an id from the issue date and a four-digit suffix:
// AVN-YYYYMMDD-XXXX.
func noticeID(t time.Time, suffix int) string {
	return fmt.Sprintf("AVN-%s-%04d", t.Format("20060102"), suffix)
}

// summary converts the notice to the frame forwarded on the notice
// stream.
func (n *Notice) summary() wire.PaymentRecord {
	rec := wire.PaymentRecord{
		NoticeID:     n.ID,
		FlightNumber: n.FlightNumber,
		AircraftType: n.AircraftType,
		AmountDue:    int32(n.Total),
		Paid:         n.Paid,
	}
	if n.Paid {
		rec.AmountPaid = int32(n.Total)
	}
	return rec
}
