// proc.go
// Copyright(c) 2025 AirControlX contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wajih-rathore/AirControlX/pkg/avn"
	"github.com/wajih-rathore/AirControlX/pkg/log"
	"github.com/wajih-rathore/AirControlX/pkg/portal"
	"github.com/wajih-rathore/AirControlX/pkg/sim"
	"github.com/wajih-rathore/AirControlX/pkg/stripepay"
)

// child is one spawned collaborator process.
type child struct {
	role string
	cmd  *exec.Cmd
}

// spawnChild re-execs this binary with the given role; the stream pipe
// ends land in the child as fds 3, 4, ...
func spawnChild(role string, files []*os.File) (*child, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, err
	}
	cmd := exec.Command(exe, "-role", role)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.ExtraFiles = files
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return &child{role: role, cmd: cmd}, nil
}

// terminateAll signals every child and waits for them to exit, killing
// stragglers after a grace period.
func terminateAll(children []*child, lg *log.Logger) {
	for _, c := range children {
		c.cmd.Process.Signal(syscall.SIGTERM)
	}
	for _, c := range children {
		done := make(chan error, 1)
		go func() { done <- c.cmd.Wait() }()
		select {
		case err := <-done:
			if err != nil {
				lg.Infof("%s exited: %v", c.role, err)
			}
		case <-time.After(2 * time.Second):
			lg.Warnf("%s did not exit, killing", c.role)
			c.cmd.Process.Kill()
			<-done
		}
	}
}

// inheritedStream opens one of the pipe ends passed down by the parent
// and verifies it is actually usable; a child with a bad stream endpoint
// refuses to run.
func inheritedStream(fd uintptr, name string) (*os.File, error) {
	f := os.NewFile(fd, name)
	if f == nil {
		return nil, fmt.Errorf("%s: no inherited descriptor %d", name, fd)
	}
	if _, err := f.Stat(); err != nil {
		return nil, fmt.Errorf("%s: invalid stream endpoint: %w", name, err)
	}
	return f, nil
}

func runAVNGenerator(cfg sim.Config) int {
	lg := log.New("avngen", cfg.LogLevel, cfg.LogDir)

	violations, err := inheritedStream(3, "violations")
	if err != nil {
		lg.Errorf("%v", err)
		return 1
	}
	confirmations, err := inheritedStream(4, "confirmations")
	if err != nil {
		lg.Errorf("%v", err)
		return 1
	}
	noticeOut, err := inheritedStream(5, "notices")
	if err != nil {
		lg.Errorf("%v", err)
		return 1
	}

	gen, err := avn.New(lg, avn.DefaultLockPath)
	if err != nil {
		lg.Errorf("refusing to start: %v", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := gen.Run(ctx, violations, confirmations, noticeOut); err != nil {
		lg.Errorf("generator failed: %v", err)
		return 1
	}
	lg.Info("AVN generator exiting")
	return 0
}

func runPortal(cfg sim.Config) int {
	lg := log.New("portal", cfg.LogLevel, cfg.LogDir)

	notices, err := inheritedStream(3, "notices")
	if err != nil {
		lg.Errorf("%v", err)
		return 1
	}
	payments, err := inheritedStream(4, "payments")
	if err != nil {
		lg.Errorf("%v", err)
		return 1
	}

	p := portal.New(lg, payments)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, cfg.PortalAddr, portal.NewRouter(p), lg, func(ctx context.Context) error {
		return p.Run(ctx, notices)
	}); err != nil {
		lg.Errorf("portal failed: %v", err)
		return 1
	}
	lg.Info("airline portal exiting")
	return 0
}

func runStripePay(cfg sim.Config) int {
	lg := log.New("stripepay", cfg.LogLevel, cfg.LogDir)

	requests, err := inheritedStream(3, "requests")
	if err != nil {
		lg.Errorf("%v", err)
		return 1
	}
	confirmations, err := inheritedStream(4, "confirmations")
	if err != nil {
		lg.Errorf("%v", err)
		return 1
	}

	s := stripepay.New(lg, confirmations)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, cfg.StripePayAddr, stripepay.NewRouter(s), lg, func(ctx context.Context) error {
		return s.Run(ctx, requests)
	}); err != nil {
		lg.Errorf("payment service failed: %v", err)
		return 1
	}
	lg.Info("payment service exiting")
	return 0
}

// serve runs a child's stream loop alongside its operator HTTP API and
// shuts the server down when the loop or the context ends.
func serve(ctx context.Context, addr string, handler http.Handler, lg *log.Logger,
	run func(context.Context) error) error {
	srv := &http.Server{Addr: addr, Handler: handler}

	// The stream loop ending (EOF from the peer) should bring the HTTP
	// server down too, so everything hangs off one cancelable context.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	eg := &errgroup.Group{}
	eg.Go(func() error {
		lg.Infof("operator API listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	eg.Go(func() error { defer cancel(); return run(ctx) })
	eg.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
		return nil
	})
	return eg.Wait()
}
