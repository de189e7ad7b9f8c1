// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Eilik CFW Project

package emulator

import (
	"fmt"
	"testing"
	"time"

	"github.com/eilik-cfw/eilikemu/pkg/protocol"
)

// ============================================================
// Log Buffer Tests
// ============================================================

func TestLogBuffer_EvictsOldestWhenFull(t *testing.T) {
	l := NewLogBuffer(3)
	for i := 0; i < 5; i++ {
		l.Record(LogEntry{Severity: SeverityInfo, Message: fmt.Sprintf("entry %d", i)})
	}

	if l.Len() != 3 {
		t.Fatalf("expected 3 retained entries, got %d", l.Len())
	}
	snapshot := l.Snapshot(0)
	expected := []string{"entry 2", "entry 3", "entry 4"}
	for i, msg := range expected {
		if snapshot[i].Message != msg {
			t.Errorf("entry %d: expected %q, got %q", i, msg, snapshot[i].Message)
		}
	}
}

func TestLogBuffer_SnapshotMax(t *testing.T) {
	l := NewLogBuffer(10)
	for i := 0; i < 6; i++ {
		l.Record(LogEntry{Message: fmt.Sprintf("entry %d", i)})
	}

	snapshot := l.Snapshot(2)
	if len(snapshot) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(snapshot))
	}
	// Most recent entries, oldest first
	if snapshot[0].Message != "entry 4" || snapshot[1].Message != "entry 5" {
		t.Errorf("unexpected snapshot: %q, %q", snapshot[0].Message, snapshot[1].Message)
	}

	if got := l.Snapshot(100); len(got) != 6 {
		t.Errorf("max beyond length should return everything: got %d", len(got))
	}
}

func TestLogBuffer_Clear(t *testing.T) {
	l := NewLogBuffer(4)
	l.Record(LogEntry{Message: "one"})
	l.Record(LogEntry{Message: "two"})
	l.Clear()

	if l.Len() != 0 {
		t.Errorf("expected empty buffer after clear, got %d", l.Len())
	}
	l.Record(LogEntry{Message: "three"})
	if snapshot := l.Snapshot(0); len(snapshot) != 1 || snapshot[0].Message != "three" {
		t.Errorf("buffer unusable after clear: %+v", snapshot)
	}
}

func TestLogBuffer_DefaultCapacity(t *testing.T) {
	l := NewLogBuffer(0)
	if l.Capacity() != DefaultLogCapacity {
		t.Errorf("expected default capacity %d, got %d", DefaultLogCapacity, l.Capacity())
	}
}

func TestSeverity_Names(t *testing.T) {
	tests := []struct {
		severity Severity
		expected string
	}{
		{SeverityDebug, "DEBUG"},
		{SeverityInfo, "INFO"},
		{SeverityWarning, "WARNING"},
		{SeverityError, "ERROR"},
	}
	for _, tt := range tests {
		if name := tt.severity.String(); name != tt.expected {
			t.Errorf("expected %s, got %s", tt.expected, name)
		}
	}
}

// ============================================================
// Performance Counter Tests
// ============================================================

func TestPerfCounters_ObserveAndAverage(t *testing.T) {
	p := NewPerfCounters()
	p.Observe(protocol.CmdServoControl, 100*time.Microsecond)
	p.Observe(protocol.CmdServoControl, 300*time.Microsecond)
	p.Observe(protocol.CmdDeviceInfo, 50*time.Microsecond)

	stats := p.Snapshot()
	if len(stats) != 2 {
		t.Fatalf("expected 2 counters, got %d", len(stats))
	}
	// Snapshot is ordered by opcode
	if stats[0].Command != protocol.CmdDeviceInfo || stats[1].Command != protocol.CmdServoControl {
		t.Errorf("unexpected snapshot order: %+v", stats)
	}
	if stats[1].Count != 2 {
		t.Errorf("expected 2 observations, got %d", stats[1].Count)
	}
	if avg := stats[1].Average(); avg != 200*time.Microsecond {
		t.Errorf("expected 200µs average, got %v", avg)
	}
}

func TestPerfCounters_SnapshotIsCopy(t *testing.T) {
	p := NewPerfCounters()
	p.Observe(protocol.CmdReset, time.Millisecond)

	stats := p.Snapshot()
	stats[0].Count = 999

	if p.Snapshot()[0].Count != 1 {
		t.Error("mutating a snapshot must not affect live counters")
	}
}

func TestPerfCounters_Reset(t *testing.T) {
	p := NewPerfCounters()
	p.Observe(protocol.CmdReset, time.Millisecond)
	p.Reset()
	if len(p.Snapshot()) != 0 {
		t.Error("expected empty counters after reset")
	}
}

func TestPerfStat_AverageEmpty(t *testing.T) {
	var stat PerfStat
	if avg := stat.Average(); avg != 0 {
		t.Errorf("average of zero observations should be 0, got %v", avg)
	}
}
