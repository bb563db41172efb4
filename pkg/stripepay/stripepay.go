// pkg/stripepay/stripepay.go
// Copyright(c) 2025 AirControlX contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package stripepay implements the payment-service process: it queues
// payment requests from the airline portal and, on operator approval,
// emits payment-confirmation frames back to the AVN generator.
package stripepay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/wajih-rathore/AirControlX/pkg/log"
	"github.com/wajih-rathore/AirControlX/pkg/rand"
	"github.com/wajih-rathore/AirControlX/pkg/util"
	"github.com/wajih-rathore/AirControlX/pkg/wire"
)

var ErrInvalidIndex = errors.New("Invalid pending-payment index")

// PendingPayment is one queued payment request awaiting approval.
type PendingPayment struct {
	NoticeID      string `json:"notice_id"`
	FlightNumber  string `json:"flight_number"`
	AircraftType  string `json:"aircraft_type"`
	AmountDue     int    `json:"amount_due"`
	AmountOffered int    `json:"amount_offered"`
}

// Service is the payment-service process state.
type Service struct {
	lg *log.Logger

	mu      sync.Mutex
	pending []PendingPayment
	history []PendingPayment

	confirmations io.Writer
}

func New(lg *log.Logger, confirmations io.Writer) *Service {
	return &Service{lg: lg, confirmations: confirmations}
}

// Run consumes the payment-request stream until ctx is cancelled or the
// portal closes its end.
func (s *Service) Run(ctx context.Context, requests io.Reader) error {
	ch := make(chan wire.PaymentRecord)
	go func() {
		defer close(ch)
		for {
			rec, err := wire.ReadPayment(requests)
			if err != nil {
				if err == wire.ErrShortFrame {
					s.lg.Error("partial frame on request stream, discarded")
					continue
				}
				if err == io.EOF {
					s.lg.Info("request stream closed by portal")
				} else {
					s.lg.Error("request stream read failed", slog.Any("error", err))
				}
				return
			}
			ch <- rec
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case rec, ok := <-ch:
			if !ok {
				return nil
			}
			s.enqueue(rec)
		}
	}
}

func (s *Service) enqueue(rec wire.PaymentRecord) {
	p := PendingPayment{
		NoticeID:      rec.NoticeID,
		FlightNumber:  rec.FlightNumber,
		AircraftType:  rec.AircraftType,
		AmountDue:     int(rec.AmountDue),
		AmountOffered: int(rec.AmountPaid),
	}
	s.mu.Lock()
	s.pending = append(s.pending, p)
	n := len(s.pending)
	s.mu.Unlock()

	s.lg.Info("payment request queued", slog.String("id", p.NoticeID),
		slog.Int("amount", p.AmountOffered), slog.Int("pending", n))
}

// transactionID formats a settlement reference: TXPAY-YYYYMMDD-XXXXXX.
func transactionID(t time.Time) string {
	return fmt.Sprintf("TXPAY-%s-%06d", t.Format("20060102"), 100000+rand.Intn(900000))
}

// Approve settles the pending payment at the given 1-based index: the
// request moves to the history and a confirmation frame with the paid
// flag set goes back to the AVN generator.
func (s *Service) Approve(index int) (PendingPayment, error) {
	s.mu.Lock()
	if index < 1 || index > len(s.pending) {
		s.mu.Unlock()
		return PendingPayment{}, ErrInvalidIndex
	}
	p := s.pending[index-1]
	s.pending = util.DeleteSliceElement(s.pending, index-1)
	s.history = append(s.history, p)
	s.mu.Unlock()

	txid := transactionID(time.Now())
	s.lg.Info("payment approved", slog.String("id", p.NoticeID),
		slog.String("transaction", txid), slog.Int("amount", p.AmountOffered))

	conf := wire.PaymentRecord{
		NoticeID:     p.NoticeID,
		FlightNumber: p.FlightNumber,
		AircraftType: p.AircraftType,
		AmountDue:    int32(p.AmountDue),
		AmountPaid:   int32(p.AmountOffered),
		Paid:         true,
	}
	if err := wire.WritePayment(s.confirmations, conf); err != nil {
		s.lg.Error("sending confirmation failed", slog.Any("error", err),
			slog.String("id", p.NoticeID))
		return p, err
	}
	return p, nil
}

// Pending returns a copy of the queued payment requests.
func (s *Service) Pending() []PendingPayment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return util.DuplicateSlice(s.pending)
}

// History returns a copy of the approved payments.
func (s *Service) History() []PendingPayment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return util.DuplicateSlice(s.history)
}
