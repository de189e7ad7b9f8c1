// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Eilik CFW Project

package emulator

import "math"

// NumServos is the number of servos in the motor-control unit.
const NumServos = 8

// Curve selects the interpolation applied to a servo move.
type Curve uint8

const (
	CurveLinear Curve = iota
	CurveEaseInOut
)

// SimRates holds the deterministic simulation constants. Temperature and
// voltage are pure functions of elapsed time and motion state so tests are
// reproducible.
type SimRates struct {
	// SpeedFactor converts speed units to position units per millisecond.
	// At the default 0.01, speed 100 covers the full 0-1000 range in one
	// second.
	SpeedFactor float64

	HeatPerMs    float64 // temperature rise while a move is active
	CoolPerMs    float64 // decay toward ambient at rest
	SagPerMs     float64 // voltage drop under load
	RecoverPerMs float64 // voltage recovery at rest

	AmbientTemp  float64
	NominalVolts float64
	LoadedVolts  float64 // sag floor while moving
}

// DefaultSimRates returns the stock simulation constants.
func DefaultSimRates() SimRates {
	return SimRates{
		SpeedFactor:  0.01,
		HeatPerMs:    0.002,
		CoolPerMs:    0.001,
		SagPerMs:     0.0005,
		RecoverPerMs: 0.0002,
		AmbientTemp:  25.0,
		NominalVolts: 5.0,
		LoadedVolts:  4.9,
	}
}

// Servo models one simulated actuator. Position advances toward the target
// along the configured curve; temperature and voltage drift toward
// load-dependent equilibria.
type Servo struct {
	ID          uint8
	Target      uint16
	Speed       uint8
	Torque      uint8
	Temperature float64
	Voltage     float64
	Curve       Curve
	Status      uint8

	position float64

	// Active motion segment. Position is evaluated as a curve over the
	// segment so a move never overshoots its target.
	moving      bool
	segStart    float64
	segDuration float64 // ms
	segElapsed  float64
}

func newServo(id uint8) Servo {
	return Servo{
		ID:          id,
		position:    500,
		Target:      500,
		Speed:       50,
		Torque:      100,
		Temperature: 25.0,
		Voltage:     5.0,
		Curve:       CurveLinear,
	}
}

// Position returns the current position rounded to wire resolution.
func (s *Servo) Position() uint16 {
	return uint16(math.Round(s.position))
}

// Moving returns true while a motion segment is active.
func (s *Servo) Moving() bool {
	return s.moving
}

// setTarget installs a validated target and starts a motion segment.
// Callers must run Validate first; this method assumes the target is safe.
func (s *Servo) setTarget(t Target, curve Curve, rates SimRates) {
	s.Target = t.Position
	s.Speed = t.Speed
	s.Torque = t.Torque
	s.Curve = curve

	distance := math.Abs(float64(t.Position) - s.position)
	if distance == 0 || t.Speed == 0 {
		s.moving = false
		return
	}

	rate := float64(t.Speed) * rates.SpeedFactor
	s.moving = true
	s.segStart = s.position
	s.segDuration = distance / rate
	s.segElapsed = 0
}

// home recenters the servo instantly and cancels any in-flight motion.
func (s *Servo) home() {
	s.position = 500
	s.Target = 500
	s.moving = false
}

// tick advances the simulation by elapsedMs. Position interpolates along the
// active segment, temperature and voltage drift deterministically, and all
// three are clamped to the configured bounds.
func (s *Servo) tick(elapsedMs float64, rates SimRates, limits Limits) {
	if s.moving {
		s.segElapsed += elapsedMs
		t := s.segElapsed / s.segDuration
		if t >= 1 {
			s.position = float64(s.Target)
			s.moving = false
		} else {
			if s.Curve == CurveEaseInOut {
				t = smoothstep(t)
			}
			s.position = s.segStart + (float64(s.Target)-s.segStart)*t
		}
	}

	if s.moving {
		s.Temperature += rates.HeatPerMs * elapsedMs
		s.Voltage = stepToward(s.Voltage, rates.LoadedVolts, rates.SagPerMs*elapsedMs)
	} else {
		s.Temperature = stepToward(s.Temperature, rates.AmbientTemp, rates.CoolPerMs*elapsedMs)
		s.Voltage = stepToward(s.Voltage, rates.NominalVolts, rates.RecoverPerMs*elapsedMs)
	}

	s.position = clamp(s.position, float64(limits.PositionMin), float64(limits.PositionMax))
	s.Temperature = clamp(s.Temperature, limits.TempMin, limits.TempMax)
	s.Voltage = clamp(s.Voltage, limits.VoltMin, limits.VoltMax)
}

// smoothstep is the ease-in-out interpolation curve: 3t² - 2t³.
func smoothstep(t float64) float64 {
	return t * t * (3 - 2*t)
}

// stepToward moves v linearly toward target by at most step, never
// overshooting.
func stepToward(v, target, step float64) float64 {
	if v < target {
		return math.Min(v+step, target)
	}
	return math.Max(v-step, target)
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
