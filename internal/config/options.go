// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Eilik CFW Project

package config

import (
	"github.com/eilik-cfw/eilikemu/pkg/emulator"
)

// DeviceOptions translates a validated configuration into emulator options.
// Only fields the file actually sets produce options; everything else keeps
// the stock defaults.
func DeviceOptions(cfg *Config) []emulator.Option {
	var opts []emulator.Option

	if id := identityFrom(cfg.Emulator.Identity); id != nil {
		opts = append(opts, emulator.WithIdentity(*id))
	}
	if limits := limitsFrom(cfg.Emulator.Safety); limits != nil {
		opts = append(opts, emulator.WithLimits(*limits))
	}
	if rates := ratesFrom(cfg.Emulator.Sim); rates != nil {
		opts = append(opts, emulator.WithSimRates(*rates))
	}
	if cfg.Emulator.LogDepth > 0 {
		opts = append(opts, emulator.WithLogCapacity(cfg.Emulator.LogDepth))
	}

	b := cfg.Emulator.Behavior
	if b.CuriousAfterMs > 0 || b.SleepyAfterMs > 0 {
		timeouts := emulator.DefaultBehaviorTimeouts()
		if b.CuriousAfterMs > 0 {
			timeouts.CuriousAfterMs = float64(b.CuriousAfterMs)
		}
		if b.SleepyAfterMs > 0 {
			timeouts.SleepyAfterMs = float64(b.SleepyAfterMs)
		}
		opts = append(opts, emulator.WithBehaviorTimeouts(timeouts))
	}
	return opts
}

func identityFrom(c IdentityConfig) *emulator.Identity {
	if c == (IdentityConfig{}) {
		return nil
	}
	id := emulator.DefaultIdentity()
	if c.DeviceID != "" {
		id.DeviceID = c.DeviceID
	}
	if c.FirmwareVersion != "" {
		id.FirmwareVersion = c.FirmwareVersion
	}
	if c.HardwareRev != 0 {
		id.HardwareRev = c.HardwareRev
	}
	if c.CFWVersion != "" {
		id.CFWVersion = c.CFWVersion
	}
	return &id
}

func limitsFrom(c SafetyConfig) *emulator.Limits {
	if c == (SafetyConfig{}) {
		return nil
	}
	limits := emulator.DefaultLimits()
	if c.PositionMin != nil {
		limits.PositionMin = *c.PositionMin
	}
	if c.PositionMax != nil {
		limits.PositionMax = *c.PositionMax
	}
	if c.TempMin != nil {
		limits.TempMin = *c.TempMin
	}
	if c.TempMax != nil {
		limits.TempMax = *c.TempMax
	}
	if c.VoltMin != nil {
		limits.VoltMin = *c.VoltMin
	}
	if c.VoltMax != nil {
		limits.VoltMax = *c.VoltMax
	}
	return &limits
}

func ratesFrom(c SimConfig) *emulator.SimRates {
	if c == (SimConfig{}) {
		return nil
	}
	rates := emulator.DefaultSimRates()
	if c.SpeedFactor > 0 {
		rates.SpeedFactor = c.SpeedFactor
	}
	if c.HeatPerMs > 0 {
		rates.HeatPerMs = c.HeatPerMs
	}
	if c.CoolPerMs > 0 {
		rates.CoolPerMs = c.CoolPerMs
	}
	if c.AmbientTemp > 0 {
		rates.AmbientTemp = c.AmbientTemp
	}
	if c.NominalVolts > 0 {
		rates.NominalVolts = c.NominalVolts
	}
	return &rates
}
