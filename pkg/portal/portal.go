// pkg/portal/portal.go
// Copyright(c) 2025 AirControlX contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package portal implements the airline-facing portal process: it tracks
// the notices forwarded by the AVN generator, manages airline accounts,
// and turns operator pay requests into payment-request frames for the
// payment service.
package portal

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/wajih-rathore/AirControlX/pkg/log"
	"github.com/wajih-rathore/AirControlX/pkg/util"
	"github.com/wajih-rathore/AirControlX/pkg/wire"
)

var (
	ErrUnknownNotice     = errors.New("No notice with that ID")
	ErrAlreadyPaid       = errors.New("Notice is already paid")
	ErrUnknownAirline    = errors.New("No account for that airline")
	ErrInsufficientFunds = errors.New("Insufficient account balance")
	ErrInvalidAmount     = errors.New("Deposit amount must be positive")
)

// Account is one airline's ledger.
type Account struct {
	Balance    int `json:"balance"`
	TotalFines int `json:"total_fines"`
	TotalPaid  int `json:"total_paid"`
}

// NoticeRecord is the portal's view of a notice; it only ever holds what
// arrived on the notice stream.
type NoticeRecord struct {
	ID           string `json:"id"`
	FlightNumber string `json:"flight_number"`
	AircraftType string `json:"aircraft_type"`
	Airline      string `json:"airline"`
	Total        int    `json:"total"`
	Paid         bool   `json:"paid"`
}

// initialBalances seeds the accounts; each airline keeps funds on deposit
// against potential violations.
var initialBalances = map[string]int{
	"PIA":              1_000_000,
	"AirBlue":          800_000,
	"FedEx":            1_500_000,
	"PakistanAirforce": 2_000_000,
	"BlueDart":         1_200_000,
	"AghaKhanAir":      1_500_000,
}

// Portal holds the notice list and the accounts.  The two have separate
// locks; when both are needed the notices lock is always taken first.
type Portal struct {
	lg *log.Logger

	noticesMu sync.Mutex
	notices   []*NoticeRecord

	accountsMu sync.Mutex
	accounts   map[string]*Account

	payments io.Writer
}

func New(lg *log.Logger, payments io.Writer) *Portal {
	p := &Portal{
		lg:       lg,
		accounts: make(map[string]*Account),
		payments: payments,
	}
	for airline, balance := range initialBalances {
		p.accounts[airline] = &Account{Balance: balance}
	}
	return p
}

// Run consumes the notice stream until ctx is cancelled or the generator
// closes its end.
func (p *Portal) Run(ctx context.Context, notices io.Reader) error {
	ch := make(chan wire.PaymentRecord)
	go func() {
		defer close(ch)
		for {
			rec, err := wire.ReadPayment(notices)
			if err != nil {
				if err == wire.ErrShortFrame {
					p.lg.Error("partial frame on notice stream, discarded")
					continue
				}
				if err == io.EOF {
					p.lg.Info("notice stream closed by generator")
				} else {
					p.lg.Error("notice stream read failed", slog.Any("error", err))
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
			p.applyUpdate(rec)
		}
	}
}

// airlineFromFlight recovers the airline from a "<airline>-<index>"
// flight number.
func airlineFromFlight(flight string) string {
	if i := strings.LastIndex(flight, "-"); i > 0 {
		return flight[:i]
	}
	return flight
}

// applyUpdate merges one notice-stream frame: insert an unseen notice,
// or flip a known one to paid and credit the airline's payment total.
func (p *Portal) applyUpdate(rec wire.PaymentRecord) {
	airline := airlineFromFlight(rec.FlightNumber)

	p.noticesMu.Lock()
	defer p.noticesMu.Unlock()

	for _, n := range p.notices {
		if n.ID != rec.NoticeID {
			continue
		}
		wasPaid := n.Paid
		n.Paid = rec.Paid
		if !wasPaid && rec.Paid {
			p.accountsMu.Lock()
			if acct, ok := p.accounts[n.Airline]; ok {
				acct.TotalPaid += n.Total
			}
			p.accountsMu.Unlock()
			p.lg.Info("notice marked paid", slog.String("id", n.ID),
				slog.String("airline", n.Airline))
		}
		return
	}

	n := &NoticeRecord{
		ID:           rec.NoticeID,
		FlightNumber: rec.FlightNumber,
		AircraftType: rec.AircraftType,
		Airline:      airline,
		Total:        int(rec.AmountDue),
		Paid:         rec.Paid,
	}
	p.notices = append(p.notices, n)

	if !rec.Paid {
		p.accountsMu.Lock()
		if acct, ok := p.accounts[airline]; ok {
			acct.TotalFines += n.Total
		}
		p.accountsMu.Unlock()
	}
	p.lg.Info("notice received", slog.String("id", n.ID),
		slog.String("airline", airline), slog.Int("total", n.Total),
		slog.Bool("paid", n.Paid))
}

// PayNotice debits the owning airline's account and emits a
// payment-request frame for the payment service to approve.  The balance
// check and the debit happen under the accounts lock; the locks are taken
// in the fixed notices-then-accounts order.
func (p *Portal) PayNotice(id string) error {
	p.noticesMu.Lock()
	var target *NoticeRecord
	for _, n := range p.notices {
		if n.ID == id {
			target = n
			break
		}
	}
	if target == nil {
		p.noticesMu.Unlock()
		return ErrUnknownNotice
	}
	if target.Paid {
		p.noticesMu.Unlock()
		return ErrAlreadyPaid
	}
	amount, airline := target.Total, target.Airline
	flight, actype := target.FlightNumber, target.AircraftType
	p.noticesMu.Unlock()

	p.accountsMu.Lock()
	acct, ok := p.accounts[airline]
	if !ok {
		p.accountsMu.Unlock()
		return ErrUnknownAirline
	}
	if acct.Balance < amount {
		p.accountsMu.Unlock()
		return ErrInsufficientFunds
	}
	acct.Balance -= amount
	balance := acct.Balance
	p.accountsMu.Unlock()

	p.lg.Info("payment requested", slog.String("id", id),
		slog.String("airline", airline), slog.Int("amount", amount),
		slog.Int("balance", balance))

	req := wire.PaymentRecord{
		NoticeID:     id,
		FlightNumber: flight,
		AircraftType: actype,
		AmountDue:    int32(amount),
		AmountPaid:   int32(amount),
	}
	if err := wire.WritePayment(p.payments, req); err != nil {
		p.lg.Error("sending payment request failed", slog.Any("error", err),
			slog.String("id", id))
		return err
	}
	return nil
}

// Deposit adds funds to an airline's account.
func (p *Portal) Deposit(airline string, amount int) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	p.accountsMu.Lock()
	defer p.accountsMu.Unlock()
	acct, ok := p.accounts[airline]
	if !ok {
		return ErrUnknownAirline
	}
	acct.Balance += amount
	p.lg.Info("deposit", slog.String("airline", airline), slog.Int("amount", amount),
		slog.Int("balance", acct.Balance))
	return nil
}

// Notices returns a copy of the notice list, optionally filtered by
// airline and paid status.
func (p *Portal) Notices(airline string, paid *bool) []NoticeRecord {
	p.noticesMu.Lock()
	all := util.MapSlice(p.notices, func(n *NoticeRecord) NoticeRecord { return *n })
	p.noticesMu.Unlock()

	return util.FilterSlice(all, func(n NoticeRecord) bool {
		if airline != "" && n.Airline != airline {
			return false
		}
		if paid != nil && n.Paid != *paid {
			return false
		}
		return true
	})
}

// Balances returns a copy of every account, keyed by airline.
func (p *Portal) Balances() map[string]Account {
	p.accountsMu.Lock()
	defer p.accountsMu.Unlock()
	out := make(map[string]Account, len(p.accounts))
	for airline, acct := range p.accounts {
		out[airline] = *acct
	}
	return out
}

// Balance returns one airline's account.
func (p *Portal) Balance(airline string) (Account, error) {
	p.accountsMu.Lock()
	defer p.accountsMu.Unlock()
	if acct, ok := p.accounts[airline]; ok {
		return *acct, nil
	}
	return Account{}, ErrUnknownAirline
}
