// pkg/sim/errors.go
// Copyright(c) 2025 AirControlX contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"errors"
)

var (
	ErrNoRunwayManager      = errors.New("No runway manager available")
	ErrNoScheduler          = errors.New("No scheduler available")
	ErrInvalidAircraftIndex = errors.New("Invalid aircraft index")
	ErrRunwayTimeout        = errors.New("Timed out waiting for runway")
	ErrNoViolationStream    = errors.New("No violation stream configured")
)
