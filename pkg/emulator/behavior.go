// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Eilik CFW Project

package emulator

// Behavior is the autonomous high-level mode the device falls into when no
// commands arrive.
type Behavior uint8

const (
	BehaviorIdle Behavior = iota
	BehaviorCurious
	BehaviorSleepy
)

// String returns the behavior name.
func (b Behavior) String() string {
	switch b {
	case BehaviorIdle:
		return "idle"
	case BehaviorCurious:
		return "curious"
	case BehaviorSleepy:
		return "sleepy"
	default:
		return "unknown"
	}
}

// BehaviorTimeouts configures the idle-timeout transitions, in milliseconds
// of simulated time without input.
type BehaviorTimeouts struct {
	CuriousAfterMs float64
	SleepyAfterMs  float64
}

// DefaultBehaviorTimeouts returns the stock transition timing.
func DefaultBehaviorTimeouts() BehaviorTimeouts {
	return BehaviorTimeouts{
		CuriousAfterMs: 30_000,
		SleepyAfterMs:  120_000,
	}
}

// behaviorEngine is the timer-driven behavior state machine. Transitions are
// purely a function of time since the last command: Idle moves to Curious
// after the first timeout and on to Sleepy after the second; any command
// returns to Idle. No randomness, so transitions are fully testable.
type behaviorEngine struct {
	current    Behavior
	timeouts   BehaviorTimeouts
	sinceInput float64 // ms
}

func newBehaviorEngine(timeouts BehaviorTimeouts) *behaviorEngine {
	return &behaviorEngine{timeouts: timeouts}
}

// noteCommand registers inbound activity. Returns true if the behavior
// changed back to Idle.
func (b *behaviorEngine) noteCommand() bool {
	b.sinceInput = 0
	if b.current != BehaviorIdle {
		b.current = BehaviorIdle
		return true
	}
	return false
}

// set forces a behavior and restarts the idle timer.
func (b *behaviorEngine) set(behavior Behavior) {
	b.current = behavior
	b.sinceInput = 0
}

// tick advances the idle timer. Returns (next, true) when a transition fired
// this tick.
func (b *behaviorEngine) tick(elapsedMs float64) (Behavior, bool) {
	b.sinceInput += elapsedMs

	switch b.current {
	case BehaviorIdle:
		if b.sinceInput >= b.timeouts.CuriousAfterMs {
			b.current = BehaviorCurious
			return BehaviorCurious, true
		}
	case BehaviorCurious:
		if b.sinceInput >= b.timeouts.SleepyAfterMs {
			b.current = BehaviorSleepy
			return BehaviorSleepy, true
		}
	}
	return b.current, false
}
