// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Eilik CFW Project

package config

import "fmt"

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	id := cfg.Emulator.Identity
	if len(id.DeviceID) > 16 {
		return fmt.Errorf("identity: device_id %q exceeds 16 bytes", id.DeviceID)
	}
	if len(id.FirmwareVersion) > 8 {
		return fmt.Errorf("identity: firmware_version %q exceeds 8 bytes", id.FirmwareVersion)
	}
	if len(id.CFWVersion) > 16 {
		return fmt.Errorf("identity: cfw_version %q exceeds 16 bytes", id.CFWVersion)
	}
	for i := 0; i < len(id.DeviceID); i++ {
		if id.DeviceID[i] > 0x7F {
			return fmt.Errorf("identity: device_id must contain ASCII characters only")
		}
	}

	s := cfg.Emulator.Safety
	if s.PositionMin != nil && s.PositionMax != nil && *s.PositionMin >= *s.PositionMax {
		return fmt.Errorf("safety: position_min %d must be below position_max %d",
			*s.PositionMin, *s.PositionMax)
	}
	if s.TempMin != nil && s.TempMax != nil && *s.TempMin >= *s.TempMax {
		return fmt.Errorf("safety: temp_min %g must be below temp_max %g", *s.TempMin, *s.TempMax)
	}
	if s.VoltMin != nil && s.VoltMax != nil && *s.VoltMin >= *s.VoltMax {
		return fmt.Errorf("safety: volt_min %g must be below volt_max %g", *s.VoltMin, *s.VoltMax)
	}
	if s.VoltMin != nil && *s.VoltMin < 0 {
		return fmt.Errorf("safety: volt_min must not be negative")
	}

	sim := cfg.Emulator.Sim
	if sim.SpeedFactor < 0 || sim.HeatPerMs < 0 || sim.CoolPerMs < 0 {
		return fmt.Errorf("sim: rates must not be negative")
	}
	if sim.TickMs < 0 {
		return fmt.Errorf("sim: tick_ms must not be negative")
	}

	b := cfg.Emulator.Behavior
	if b.CuriousAfterMs < 0 || b.SleepyAfterMs < 0 {
		return fmt.Errorf("behavior: timeouts must not be negative")
	}
	if b.CuriousAfterMs > 0 && b.SleepyAfterMs > 0 && b.SleepyAfterMs <= b.CuriousAfterMs {
		return fmt.Errorf("behavior: sleepy_after_ms %d must exceed curious_after_ms %d",
			b.SleepyAfterMs, b.CuriousAfterMs)
	}

	if cfg.Emulator.LogDepth < 0 {
		return fmt.Errorf("log_depth must not be negative")
	}
	if cfg.Serve.Baud < 0 {
		return fmt.Errorf("serve: baud must not be negative")
	}
	return nil
}
