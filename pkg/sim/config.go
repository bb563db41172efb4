// pkg/sim/config.go
// Copyright(c) 2025 AirControlX contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"os"
	"strconv"
	"time"

	"github.com/wajih-rathore/AirControlX/pkg/util"
)

// Config collects the tunables of one simulation run.  It is built by the
// driver and threaded explicitly into the components; there is no
// process-wide configuration state.
type Config struct {
	// Duration is the wall-clock length of the simulation.
	Duration time.Duration
	// RunwayTimeout is how long a queued aircraft waits for a runway
	// before aborting its sequence.
	RunwayTimeout time.Duration
	// TickInterval is the flight state engine's resampling period.
	TickInterval time.Duration
	// ATCInterval is the cadence of allocator passes.
	ATCInterval time.Duration
	// RadarInterval is the cadence of radar sweeps.
	RadarInterval time.Duration

	// Phase dwells.
	ApproachTime time.Duration
	LandingTime  time.Duration
	TaxiTime     time.Duration
	TakeoffTime  time.Duration
	ClimbTime    time.Duration

	PortalAddr    string
	StripePayAddr string
	LogLevel      string
	LogDir        string
}

func DefaultConfig() Config {
	return Config{
		Duration:      300 * time.Second,
		RunwayTimeout: 30 * time.Second,
		TickInterval:  time.Second,
		ATCInterval:   time.Second,
		RadarInterval: 500 * time.Millisecond,
		ApproachTime:  3 * time.Second,
		LandingTime:   2 * time.Second,
		TaxiTime:      2 * time.Second,
		TakeoffTime:   2 * time.Second,
		ClimbTime:     2 * time.Second,
		PortalAddr:    ":8081",
		StripePayAddr: ":8082",
		LogLevel:      "info",
		LogDir:        "",
	}
}

// ConfigFromEnv starts from the defaults and overrides from the
// environment (the driver loads .env via godotenv before calling this).
func ConfigFromEnv() Config {
	c := DefaultConfig()
	c.Duration = envSeconds("SIM_DURATION", c.Duration)
	c.RunwayTimeout = envSeconds("RUNWAY_TIMEOUT", c.RunwayTimeout)
	c.ATCInterval = envSeconds("ATC_INTERVAL", c.ATCInterval)
	c.RadarInterval = envMillis("RADAR_INTERVAL_MS", c.RadarInterval)
	if v := os.Getenv("PORTAL_ADDR"); v != "" {
		c.PortalAddr = v
	}
	if v := os.Getenv("STRIPEPAY_ADDR"); v != "" {
		c.StripePayAddr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("LOG_DIR"); v != "" {
		c.LogDir = v
	}
	return c
}

func envSeconds(key string, dflt time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return dflt
}

func envMillis(key string, dflt time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return dflt
}

// Validate accumulates configuration errors; the driver refuses to run if
// any are found.
func (c *Config) Validate(e *util.ErrorLogger) {
	e.Push("Config")
	defer e.Pop()

	for _, d := range []struct {
		name string
		v    time.Duration
	}{
		{"Duration", c.Duration},
		{"RunwayTimeout", c.RunwayTimeout},
		{"TickInterval", c.TickInterval},
		{"ATCInterval", c.ATCInterval},
		{"RadarInterval", c.RadarInterval},
		{"ApproachTime", c.ApproachTime},
		{"LandingTime", c.LandingTime},
		{"TaxiTime", c.TaxiTime},
		{"TakeoffTime", c.TakeoffTime},
		{"ClimbTime", c.ClimbTime},
	} {
		if d.v <= 0 {
			e.ErrorString("%s must be positive", d.name)
		}
	}
	if c.PortalAddr == "" {
		e.ErrorString("PortalAddr is empty")
	}
	if c.StripePayAddr == "" {
		e.ErrorString("StripePayAddr is empty")
	}
}
