// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Eilik CFW Project

package emulator

import (
	"sort"

	"github.com/eilik-cfw/eilikemu/pkg/protocol"
)

// Built-in animation names.
const (
	AnimWave    = "wave"
	AnimDance   = "dance"
	AnimStretch = "stretch"
)

// builtinAnimations returns the stock animation set. Waypoint positions and
// timings come from the factory firmware's animation tables.
func builtinAnimations() map[string]protocol.AnimationDef {
	return map[string]protocol.AnimationDef{
		AnimWave: {
			Name: AnimWave,
			Waypoints: []protocol.Waypoint{
				{Servo: 0, Position: 800, Speed: 50, HoldMs: 1000},
				{Servo: 0, Position: 200, Speed: 50, HoldMs: 1000},
				{Servo: 0, Position: 500, Speed: 50, HoldMs: 0},
			},
		},
		AnimDance: {
			Name: AnimDance,
			Waypoints: []protocol.Waypoint{
				{Servo: 0, Position: 700, Speed: 60, HoldMs: 500},
				{Servo: 1, Position: 300, Speed: 60, HoldMs: 500},
				{Servo: 2, Position: 600, Speed: 60, HoldMs: 500},
				{Servo: 3, Position: 400, Speed: 60, HoldMs: 500},
				{Servo: 0, Position: 300, Speed: 60, HoldMs: 500},
				{Servo: 1, Position: 700, Speed: 60, HoldMs: 500},
				{Servo: 2, Position: 400, Speed: 60, HoldMs: 500},
				{Servo: 3, Position: 600, Speed: 60, HoldMs: 500},
				{Servo: 0, Position: 500, Speed: 60, HoldMs: 0},
				{Servo: 1, Position: 500, Speed: 60, HoldMs: 0},
				{Servo: 2, Position: 500, Speed: 60, HoldMs: 0},
				{Servo: 3, Position: 500, Speed: 60, HoldMs: 0},
			},
		},
		AnimStretch: {
			Name: AnimStretch,
			Waypoints: []protocol.Waypoint{
				{Servo: 0, Position: 900, Speed: 40, HoldMs: 0},
				{Servo: 1, Position: 100, Speed: 40, HoldMs: 1500},
				{Servo: 0, Position: 500, Speed: 40, HoldMs: 0},
				{Servo: 1, Position: 500, Speed: 40, HoldMs: 0},
				{Servo: 2, Position: 900, Speed: 40, HoldMs: 0},
				{Servo: 3, Position: 100, Speed: 40, HoldMs: 1500},
				{Servo: 2, Position: 500, Speed: 40, HoldMs: 0},
				{Servo: 3, Position: 500, Speed: 40, HoldMs: 0},
			},
		},
	}
}

// targetFunc issues one validated servo move. Returns a violation when the
// waypoint is rejected by the safety monitor.
type targetFunc func(servo uint8, t Target, curve Curve) *SafetyViolation

// animationPlayer steps through an animation's waypoints across ticks.
// Playback never blocks command dispatch: each tick issues due waypoints and
// then yields, so long animations interleave with incoming commands.
type animationPlayer struct {
	defs map[string]protocol.AnimationDef

	active        *protocol.AnimationDef
	index         int
	holdRemaining float64 // ms
}

func newAnimationPlayer() *animationPlayer {
	return &animationPlayer{defs: builtinAnimations()}
}

// register adds or replaces a named animation definition.
func (a *animationPlayer) register(def protocol.AnimationDef) {
	a.defs[def.Name] = def
}

// lookup returns the definition for a name, if known.
func (a *animationPlayer) lookup(name string) (protocol.AnimationDef, bool) {
	def, ok := a.defs[name]
	return def, ok
}

// names returns all known animation names, sorted.
func (a *animationPlayer) names() []string {
	out := make([]string, 0, len(a.defs))
	for name := range a.defs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// play starts (or restarts) playback of a known definition.
func (a *animationPlayer) play(def protocol.AnimationDef) {
	a.active = &def
	a.index = 0
	a.holdRemaining = 0
}

// stop cancels playback.
func (a *animationPlayer) stop() {
	a.active = nil
}

// playing reports whether an animation is in progress and its name.
func (a *animationPlayer) playing() (string, bool) {
	if a.active == nil {
		return "", false
	}
	return a.active.Name, true
}

// tick advances playback by elapsedMs, issuing every waypoint whose hold has
// expired. Returns (done, violation): done is true when the animation
// finished this tick, and a non-nil violation means a waypoint was rejected
// and playback aborted.
func (a *animationPlayer) tick(elapsedMs float64, issue targetFunc) (bool, *SafetyViolation) {
	if a.active == nil {
		return false, nil
	}

	a.holdRemaining -= elapsedMs
	for a.holdRemaining <= 0 {
		if a.index >= len(a.active.Waypoints) {
			a.active = nil
			return true, nil
		}

		wp := a.active.Waypoints[a.index]
		a.index++

		target := Target{Position: wp.Position, Speed: wp.Speed, Torque: 100}
		if v := issue(wp.Servo, target, CurveLinear); v != nil {
			a.active = nil
			return false, v
		}
		a.holdRemaining += float64(wp.HoldMs)
	}
	return false, nil
}
