// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Eilik CFW Project

package emulator

import (
	"sort"
	"time"
)

// Severity classifies debug log entries.
type Severity uint8

const (
	SeverityDebug Severity = iota
	SeverityInfo
	SeverityWarning
	SeverityError
)

// String returns the severity name used on the wire and in CLI output.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "DEBUG"
	case SeverityInfo:
		return "INFO"
	case SeverityWarning:
		return "WARNING"
	case SeverityError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// LogEntry is one record in the device's bounded debug log.
type LogEntry struct {
	Time     time.Time
	Severity Severity
	Message  string
}

// DefaultLogCapacity is the stock debug log depth.
const DefaultLogCapacity = 256

// LogBuffer is a bounded ring of log entries. When full, the oldest entry is
// evicted first.
type LogBuffer struct {
	entries  []LogEntry
	capacity int
	head     int // index of oldest entry
	count    int
}

// NewLogBuffer creates a log buffer holding up to capacity entries.
func NewLogBuffer(capacity int) *LogBuffer {
	if capacity <= 0 {
		capacity = DefaultLogCapacity
	}
	return &LogBuffer{
		entries:  make([]LogEntry, capacity),
		capacity: capacity,
	}
}

// Record appends an entry, evicting the oldest if the buffer is full.
func (l *LogBuffer) Record(entry LogEntry) {
	if l.count < l.capacity {
		l.entries[(l.head+l.count)%l.capacity] = entry
		l.count++
		return
	}
	l.entries[l.head] = entry
	l.head = (l.head + 1) % l.capacity
}

// Len returns the number of retained entries.
func (l *LogBuffer) Len() int {
	return l.count
}

// Capacity returns the fixed buffer capacity.
func (l *LogBuffer) Capacity() int {
	return l.capacity
}

// Snapshot returns an immutable copy of up to max entries, oldest first.
// max of 0 returns everything retained.
func (l *LogBuffer) Snapshot(max int) []LogEntry {
	n := l.count
	if max > 0 && max < n {
		n = max
	}
	out := make([]LogEntry, n)
	// Most recent n entries, preserving order
	start := l.count - n
	for i := 0; i < n; i++ {
		out[i] = l.entries[(l.head+start+i)%l.capacity]
	}
	return out
}

// Clear empties the buffer.
func (l *LogBuffer) Clear() {
	l.head = 0
	l.count = 0
}

// PerfStat is the per-command slice of the performance counters.
type PerfStat struct {
	Command uint8
	Count   uint64
	Total   time.Duration
}

// Average returns the mean handling latency for the command.
func (p PerfStat) Average() time.Duration {
	if p.Count == 0 {
		return 0
	}
	return p.Total / time.Duration(p.Count)
}

// PerfCounters tracks per-command invocation counts and cumulative handling
// latency. Counters are monotonic until explicitly cleared.
type PerfCounters struct {
	stats map[uint8]*PerfStat
}

// NewPerfCounters creates an empty counter set.
func NewPerfCounters() *PerfCounters {
	return &PerfCounters{stats: make(map[uint8]*PerfStat)}
}

// Observe records one successful invocation of a command.
func (p *PerfCounters) Observe(command uint8, elapsed time.Duration) {
	stat, ok := p.stats[command]
	if !ok {
		stat = &PerfStat{Command: command}
		p.stats[command] = stat
	}
	stat.Count++
	stat.Total += elapsed
}

// Snapshot returns a copy of all counters, ordered by opcode.
func (p *PerfCounters) Snapshot() []PerfStat {
	out := make([]PerfStat, 0, len(p.stats))
	for _, stat := range p.stats {
		out = append(out, *stat)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Command < out[j].Command })
	return out
}

// Reset zeroes all counters.
func (p *PerfCounters) Reset() {
	p.stats = make(map[uint8]*PerfStat)
}
