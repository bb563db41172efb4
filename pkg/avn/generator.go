// pkg/avn/generator.go
// Copyright(c) 2025 AirControlX contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package avn

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/wajih-rathore/AirControlX/pkg/log"
	"github.com/wajih-rathore/AirControlX/pkg/rand"
	"github.com/wajih-rathore/AirControlX/pkg/util"
	"github.com/wajih-rathore/AirControlX/pkg/wire"

	lru "github.com/hashicorp/golang-lru/v2"
)

// pollInterval bounds the multiplexed wait on the two input streams so
// the run flag is checked at least this often.
const pollInterval = 500 * time.Millisecond

// recentIDCacheSize bounds the cache of recently issued notice ids used
// to detect suffix collisions.
const recentIDCacheSize = 4096

var ErrUnknownNotice = errors.New("No notice with that ID")

// Generator is the notice-generator process state.  It owns the notice
// list; the portal and payment service only ever see frames derived from
// it.
type Generator struct {
	lg *log.Logger

	mu      sync.Mutex
	notices []*Notice

	recentIDs *lru.Cache[string, struct{}]
	lock      *ProcessLock
}

// New builds a Generator.  Opening the cross-process lock is mandatory:
// if it cannot be created the generator refuses to start rather than
// flipping paid flags unguarded.
func New(lg *log.Logger, lockPath string) (*Generator, error) {
	plock, err := OpenProcessLock(lockPath)
	if err != nil {
		return nil, err
	}
	cache, err := lru.New[string, struct{}](recentIDCacheSize)
	if err != nil {
		return nil, err
	}
	return &Generator{lg: lg, recentIDs: cache, lock: plock}, nil
}

// Run multiplexes the violation stream and the payment-confirmation
// stream, forwarding notice updates to the portal stream, until ctx is
// cancelled or both input streams hit EOF.
func (g *Generator) Run(ctx context.Context, violations, confirmations io.Reader, portal io.Writer) error {
	defer g.lock.Close()

	vch := make(chan wire.ViolationRecord)
	cch := make(chan wire.PaymentRecord)

	go func() {
		defer close(vch)
		for {
			rec, err := wire.ReadViolation(violations)
			if err != nil {
				g.logStreamError("violation", err)
				if err == wire.ErrShortFrame {
					continue
				}
				return
			}
			vch <- rec
		}
	}()

	go func() {
		defer close(cch)
		for {
			rec, err := wire.ReadPayment(confirmations)
			if err != nil {
				g.logStreamError("confirmation", err)
				if err == wire.ErrShortFrame {
					continue
				}
				return
			}
			cch <- rec
		}
	}()

	timer := time.NewTimer(pollInterval)
	defer timer.Stop()

	for vch != nil || cch != nil {
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(pollInterval)

		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
			// Bounded wait elapsed; loop to re-check the run state.
		case rec, ok := <-vch:
			if !ok {
				vch = nil
				continue
			}
			g.handleViolation(rec, portal)
		case rec, ok := <-cch:
			if !ok {
				cch = nil
				continue
			}
			g.handleConfirmation(rec, portal)
		}
	}
	g.lg.Info("both input streams closed, exiting")
	return nil
}

func (g *Generator) logStreamError(stream string, err error) {
	if err == io.EOF {
		g.lg.Info("stream closed by peer", slog.String("stream", stream))
	} else {
		g.lg.Error("stream read failed", slog.String("stream", stream), slog.Any("error", err))
	}
}

// handleViolation issues a notice for the violation and forwards a
// summary to the portal.
func (g *Generator) handleViolation(rec wire.ViolationRecord, portal io.Writer) {
	n := newNotice(rec, time.Now())

	g.mu.Lock()
	n.ID = g.uniqueID(n.Issued)
	g.notices = append(g.notices, n)
	g.mu.Unlock()

	g.lg.Info("notice issued",
		slog.String("id", n.ID),
		slog.String("flight", n.FlightNumber),
		slog.String("airline", n.Airline),
		slog.String("type", n.AircraftType),
		slog.Int("speed", n.Speed),
		slog.Int("min", n.MinAllowed),
		slog.Int("max", n.MaxAllowed),
		slog.Int("total", n.Total),
		slog.Time("due", n.Due))

	if err := wire.WritePayment(portal, n.summary()); err != nil {
		g.lg.Error("forwarding notice to portal failed", slog.Any("error", err),
			slog.String("id", n.ID))
	}
}

// uniqueID draws date-plus-random-suffix ids until one misses the
// recently-issued cache, so a suffix collision issues a fresh id instead
// of silently overwriting an existing notice.  Caller holds g.mu.
func (g *Generator) uniqueID(issued time.Time) string {
	for {
		id := noticeID(issued, 1000+rand.Intn(9000))
		if !g.recentIDs.Contains(id) {
			g.recentIDs.Add(id, struct{}{})
			return id
		}
	}
}

// handleConfirmation applies a payment confirmation: under the
// cross-process lock and then the local lock, find the notice, flip its
// paid flag, and forward the updated summary to the portal.
func (g *Generator) handleConfirmation(rec wire.PaymentRecord, portal io.Writer) {
	if err := g.lock.Acquire(); err != nil {
		g.lg.Error("acquiring process lock failed", slog.Any("error", err))
		return
	}
	defer g.lock.Release()

	g.mu.Lock()
	n := g.findLocked(rec.NoticeID)
	if n == nil {
		g.mu.Unlock()
		g.lg.Warn("confirmation for unknown notice, dropped",
			slog.String("id", rec.NoticeID))
		return
	}
	if n.Paid {
		g.mu.Unlock()
		g.lg.Warn("duplicate confirmation ignored", slog.String("id", rec.NoticeID))
		return
	}
	n.Paid = true
	summary := n.summary()
	g.mu.Unlock()

	g.lg.Info("notice paid", slog.String("id", rec.NoticeID),
		slog.Int("amount", int(rec.AmountPaid)))

	if err := wire.WritePayment(portal, summary); err != nil {
		g.lg.Error("forwarding paid notice to portal failed", slog.Any("error", err),
			slog.String("id", rec.NoticeID))
	}
}

func (g *Generator) findLocked(id string) *Notice {
	for _, n := range g.notices {
		if n.ID == id {
			return n
		}
	}
	return nil
}

// Notices returns copies of all issued notices.
func (g *Generator) Notices() []Notice {
	g.mu.Lock()
	defer g.mu.Unlock()
	return util.MapSlice(g.notices, func(n *Notice) Notice { return *n })
}

// ByAirline returns copies of the notices issued against one airline.
func (g *Generator) ByAirline(airline string) []Notice {
	return util.FilterSlice(g.Notices(), func(n Notice) bool { return n.Airline == airline })
}

// Find returns the notice with the given id.
func (g *Generator) Find(id string) (Notice, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if n := g.findLocked(id); n != nil {
		return *n, nil
	}
	return Notice{}, ErrUnknownNotice
}
