// main.go
// Copyright(c) 2025 AirControlX contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// AirControlX: a concurrent air-traffic-control simulator.  The parent
// process runs the simulation (flight tasks, ATC allocator, radar) and
// re-execs itself for the three collaborating processes: the AVN
// generator, the airline portal, and the payment service.  The processes
// are connected by four unidirectional pipes carrying fixed-width frames.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/wajih-rathore/AirControlX/pkg/log"
	"github.com/wajih-rathore/AirControlX/pkg/sim"
)

func main() {
	role := flag.String("role", "", "internal: child process role (avngen, portal, stripepay)")
	testMode := flag.Bool("test", false, "emit canned violation frames and exit")
	flag.Parse()

	// Load environment variables; a missing .env just means defaults.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: error loading .env file: %v\n", err)
	}
	cfg := sim.ConfigFromEnv()

	var code int
	switch *role {
	case "":
		code = runSimulator(cfg, *testMode)
	case "avngen":
		code = runAVNGenerator(cfg)
	case "portal":
		code = runPortal(cfg)
	case "stripepay":
		code = runStripePay(cfg)
	default:
		fmt.Fprintf(os.Stderr, "%s: unknown role\n", *role)
		code = 1
	}
	os.Exit(code)
}

// runSimulator is the parent process: it wires up the pipes, spawns the
// three children, and drives the simulation.
func runSimulator(cfg sim.Config, testMode bool) int {
	lg := log.New("atcs", cfg.LogLevel, cfg.LogDir)

	// The four streams of the pipeline.
	violationR, violationW, err := os.Pipe()
	if err != nil {
		lg.Errorf("pipe: %v", err)
		return 1
	}
	noticeR, noticeW, err := os.Pipe()
	if err != nil {
		lg.Errorf("pipe: %v", err)
		return 1
	}
	payReqR, payReqW, err := os.Pipe()
	if err != nil {
		lg.Errorf("pipe: %v", err)
		return 1
	}
	payConfR, payConfW, err := os.Pipe()
	if err != nil {
		lg.Errorf("pipe: %v", err)
		return 1
	}

	children := []*child{}
	spawn := func(role string, files ...*os.File) bool {
		c, err := spawnChild(role, files)
		if err != nil {
			lg.Errorf("spawning %s failed: %v", role, err)
			return false
		}
		lg.Infof("%s process started (pid %d)", role, c.cmd.Process.Pid)
		children = append(children, c)
		return true
	}

	// avngen reads violations (3) and confirmations (4), writes notices (5).
	// portal reads notices (3), writes payment requests (4).
	// stripepay reads payment requests (3), writes confirmations (4).
	ok := spawn("avngen", violationR, payConfR, noticeW) &&
		spawn("portal", noticeR, payReqW) &&
		spawn("stripepay", payReqR, payConfW)

	// The children hold their own copies of the descriptors now; close
	// ours so EOF propagates when they exit.
	for _, f := range []*os.File{violationR, payConfR, noticeW, noticeR, payReqW, payReqR, payConfW} {
		f.Close()
	}

	if !ok {
		violationW.Close()
		terminateAll(children, lg)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	code := 0
	if testMode {
		fmt.Println("Running in test mode")
		sendTestViolations(violationW, lg)
		// Give the pipeline a moment to process before tearing down.
		time.Sleep(3 * time.Second)
	} else {
		world, err := sim.NewWorld(cfg, lg)
		if err != nil {
			lg.Errorf("world construction failed: %v", err)
			code = 1
		} else if err := world.Run(ctx, violationW); err != nil {
			lg.Errorf("simulation failed: %v", err)
			code = 1
		}
	}

	// Closing the violation stream tells the generator the run is over;
	// the termination signal covers the rest.
	violationW.Close()
	terminateAll(children, lg)
	lg.Info("simulator exiting")
	return code
}
