// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Eilik CFW Project

package emulator

import "fmt"

// Limits holds the configurable safety bounds enforced before any servo
// mutation. Defaults match the stock firmware ranges.
type Limits struct {
	PositionMin uint16
	PositionMax uint16
	TempMin     float64 // Celsius
	TempMax     float64
	VoltMin     float64 // Volts
	VoltMax     float64
}

// DefaultLimits returns the stock safety limits.
func DefaultLimits() Limits {
	return Limits{
		PositionMin: 0,
		PositionMax: 1000,
		TempMin:     20,
		TempMax:     80,
		VoltMin:     4.8,
		VoltMax:     5.2,
	}
}

// SafetyViolation reports a rejected mutation: the offending field, the
// proposed value, and the configured bound it crossed.
type SafetyViolation struct {
	Field string
	Value float64
	Min   float64
	Max   float64
}

func (e *SafetyViolation) Error() string {
	return fmt.Sprintf("safety violation: %s=%g outside [%g, %g]", e.Field, e.Value, e.Min, e.Max)
}

// Target is a proposed servo mutation, checked as a unit: either every field
// is within bounds and the write happens, or nothing changes.
type Target struct {
	Position uint16
	Speed    uint8
	Torque   uint8
}

// Validate checks a proposed target against the limits. Pure; never mutates.
func Validate(t Target, limits Limits) *SafetyViolation {
	if t.Position < limits.PositionMin || t.Position > limits.PositionMax {
		return &SafetyViolation{
			Field: "position",
			Value: float64(t.Position),
			Min:   float64(limits.PositionMin),
			Max:   float64(limits.PositionMax),
		}
	}
	if t.Speed > 100 {
		return &SafetyViolation{Field: "speed", Value: float64(t.Speed), Min: 0, Max: 100}
	}
	if t.Torque > 100 {
		return &SafetyViolation{Field: "torque", Value: float64(t.Torque), Min: 0, Max: 100}
	}
	return nil
}

// ValidateLimits checks that a candidate limits set is itself coherent:
// every min strictly below its max. Used by CFW_SET_SAFETY before
// installing new limits.
func ValidateLimits(l Limits) *SafetyViolation {
	if l.PositionMin >= l.PositionMax {
		return &SafetyViolation{
			Field: "position_limits",
			Value: float64(l.PositionMin),
			Min:   float64(l.PositionMin),
			Max:   float64(l.PositionMax),
		}
	}
	if l.TempMin >= l.TempMax {
		return &SafetyViolation{Field: "temperature_limits", Value: l.TempMin, Min: l.TempMin, Max: l.TempMax}
	}
	if l.VoltMin >= l.VoltMax {
		return &SafetyViolation{Field: "voltage_limits", Value: l.VoltMin, Min: l.VoltMin, Max: l.VoltMax}
	}
	return nil
}
