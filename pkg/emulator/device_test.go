// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Eilik CFW Project

package emulator

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"
	"time"

	"github.com/eilik-cfw/eilikemu/pkg/protocol"
)

// fakeClock is a manually advanced wall clock for deterministic timestamps.
type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.now = c.now.Add(10 * time.Microsecond)
	return c.now
}

func newTestDevice(opts ...Option) *Device {
	clock := newFakeClock()
	return NewDevice(append([]Option{WithClock(clock.Now)}, opts...)...)
}

// expectStatus runs one command and checks the response status.
func expectStatus(t *testing.T, d *Device, req *protocol.Packet, status uint8) *protocol.Packet {
	t.Helper()
	resp := d.Handle(req)
	if resp == nil {
		t.Fatal("Handle returned nil response")
	}
	if !resp.IsResponse() {
		t.Fatalf("response missing response flag: 0x%02X", resp.Command())
	}
	if resp.Command() != req.Command()|protocol.ResponseFlag {
		t.Fatalf("response opcode mismatch: request 0x%02X, response 0x%02X",
			req.Command(), resp.Command())
	}
	if resp.Status() != status {
		t.Fatalf("expected status %s, got %s",
			protocol.StatusName(status), protocol.StatusName(resp.Status()))
	}
	return resp
}

// ============================================================
// Identity Tests
// ============================================================

func TestDevice_DeviceInfo(t *testing.T) {
	d := newTestDevice()
	resp := expectStatus(t, d, protocol.NewDeviceInfoRequest(), protocol.StatusOK)

	data := resp.Data()
	if len(data) != 28 {
		t.Fatalf("expected 28 data bytes, got %d", len(data))
	}
	if !bytes.HasPrefix(data[0:16], []byte("EILIK_EMU_001")) {
		t.Errorf("unexpected device id: %q", data[0:16])
	}
	if !bytes.HasPrefix(data[16:24], []byte("1.0.0")) {
		t.Errorf("unexpected firmware version: %q", data[16:24])
	}
	if hw := binary.LittleEndian.Uint16(data[24:26]); hw != 0x0100 {
		t.Errorf("expected hardware rev 0x0100, got 0x%04X", hw)
	}
}

func TestDevice_CFWInfo(t *testing.T) {
	d := newTestDevice()
	resp := expectStatus(t, d, protocol.NewCFWInfoRequest(), protocol.StatusOK)

	data := resp.Data()
	if len(data) != 22 {
		t.Fatalf("expected 22 data bytes, got %d", len(data))
	}
	if string(data[0:4]) != protocol.CFWMagic {
		t.Errorf("expected magic %q, got %q", protocol.CFWMagic, data[0:4])
	}
	if !bytes.HasPrefix(data[4:20], []byte("CFW-1.0.0")) {
		t.Errorf("unexpected CFW version: %q", data[4:20])
	}
}

func TestDevice_UnknownCommand(t *testing.T) {
	d := newTestDevice()
	expectStatus(t, d, protocol.NewPacket(0x7F, nil), protocol.StatusUnknownCommand)
}

// ============================================================
// Servo Control Tests
// ============================================================

func TestDevice_ServoMoveRoundTrip(t *testing.T) {
	d := newTestDevice()
	expectStatus(t, d, protocol.NewServoPosition(0, 750, 50), protocol.StatusOK)

	// Speed 50 is 0.5 units/ms; 250 units takes 500ms
	for i := 0; i < 60; i++ {
		d.Tick(10)
	}

	resp := expectStatus(t, d, protocol.NewServoStatusRequest(0), protocol.StatusOK)
	block := resp.Data()
	if len(block) != protocol.ServoStatusSize {
		t.Fatalf("expected %d-byte status block, got %d", protocol.ServoStatusSize, len(block))
	}
	if block[0] != 0 {
		t.Errorf("expected servo id 0, got %d", block[0])
	}
	if pos := binary.LittleEndian.Uint16(block[2:4]); pos != 750 {
		t.Errorf("expected position 750, got %d", pos)
	}
	if target := binary.LittleEndian.Uint16(block[4:6]); target != 750 {
		t.Errorf("expected target 750, got %d", target)
	}
}

func TestDevice_ServoSafetyViolationLeavesStateUnchanged(t *testing.T) {
	d := newTestDevice()
	expectStatus(t, d, protocol.NewServoPosition(2, 1001, 50), protocol.StatusSafetyViolation)

	s, _ := d.Servo(2)
	if s.Target != 500 || s.Position() != 500 {
		t.Errorf("rejected move mutated servo: target %d position %d", s.Target, s.Position())
	}
	if s.Moving() {
		t.Error("rejected move started motion")
	}
}

func TestDevice_ServoSetSpeed(t *testing.T) {
	d := newTestDevice()
	expectStatus(t, d, protocol.NewServoSpeed(1, 80), protocol.StatusOK)
	s, _ := d.Servo(1)
	if s.Speed != 80 {
		t.Errorf("expected speed 80, got %d", s.Speed)
	}

	expectStatus(t, d, protocol.NewServoSpeed(1, 101), protocol.StatusSafetyViolation)
	s, _ = d.Servo(1)
	if s.Speed != 80 {
		t.Errorf("rejected speed write mutated servo: %d", s.Speed)
	}
}

func TestDevice_ServoControlInvalidPayloads(t *testing.T) {
	d := newTestDevice()
	tests := []struct {
		name    string
		payload []byte
	}{
		{"empty", nil},
		{"servo out of range", []byte{NumServos, protocol.ServoReadStatus}},
		{"unknown subcommand", []byte{0, 0x7F}},
		{"truncated position", []byte{0, protocol.ServoSetPosition, 0xF4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectStatus(t, d, protocol.NewPacket(protocol.CmdServoControl, tt.payload),
				protocol.StatusInvalidPayload)
		})
	}
}

func TestDevice_ParameterBank(t *testing.T) {
	d := newTestDevice()
	expectStatus(t, d, protocol.NewParameterWrite(5, 300, 60, 90), protocol.StatusOK)

	resp := expectStatus(t, d, protocol.NewParameterRead(protocol.ParamAddrServoBank), protocol.StatusOK)
	data := resp.Data()
	if len(data) != NumServos*protocol.ServoStatusSize {
		t.Fatalf("expected %d bytes, got %d", NumServos*protocol.ServoStatusSize, len(data))
	}

	block := data[5*protocol.ServoStatusSize : 6*protocol.ServoStatusSize]
	if block[0] != 5 {
		t.Errorf("expected servo id 5, got %d", block[0])
	}
	if target := binary.LittleEndian.Uint16(block[4:6]); target != 300 {
		t.Errorf("expected target 300, got %d", target)
	}
	if block[6] != 60 || block[7] != 90 {
		t.Errorf("expected speed 60 torque 90, got %d %d", block[6], block[7])
	}

	expectStatus(t, d, protocol.NewParameterRead(0x0042), protocol.StatusInvalidPayload)
}

func TestDevice_SensorRead(t *testing.T) {
	d := newTestDevice()
	resp := expectStatus(t, d, protocol.NewSensorRead(), protocol.StatusOK)

	data := resp.Data()
	if len(data) != NumServos*protocol.SensorReadingSize {
		t.Fatalf("expected %d bytes, got %d", NumServos*protocol.SensorReadingSize, len(data))
	}
	for i := 0; i < NumServos; i++ {
		entry := data[i*protocol.SensorReadingSize : (i+1)*protocol.SensorReadingSize]
		if entry[0] != uint8(i) {
			t.Errorf("entry %d: expected id %d, got %d", i, i, entry[0])
		}
		if entry[1] != 25 {
			t.Errorf("entry %d: expected 25C at rest, got %d", i, entry[1])
		}
		volts := math.Float32frombits(binary.LittleEndian.Uint32(entry[2:6]))
		if volts != 5.0 {
			t.Errorf("entry %d: expected 5.0V at rest, got %f", i, volts)
		}
	}
}

func TestDevice_Calibration(t *testing.T) {
	d := newTestDevice()
	expectStatus(t, d, protocol.NewServoPosition(0, 900, 100), protocol.StatusOK)
	d.Tick(100)

	expectStatus(t, d, protocol.NewCalibration(), protocol.StatusOK)
	s, _ := d.Servo(0)
	if s.Position() != 500 || s.Moving() {
		t.Errorf("calibration should home servos: position %d moving %v", s.Position(), s.Moving())
	}
}

// ============================================================
// Firmware Update Tests
// ============================================================

func TestDevice_UpdateFlow(t *testing.T) {
	d := newTestDevice()
	image := []byte{0x01, 0x02, 0x03, 0x04}

	resp := expectStatus(t, d, protocol.NewFirmwareUpdate(4, 0x0A), protocol.StatusOK)
	if len(resp.Data()) != 16 {
		t.Fatalf("expected 16-byte session id, got %d bytes", len(resp.Data()))
	}
	if d.Mode() != ModeBootloader {
		t.Fatalf("expected bootloader mode, got %s", d.Mode())
	}

	// The session owns the channel: everything but FLASH_WRITE and RESET
	// is refused
	expectStatus(t, d, protocol.NewServoPosition(0, 600, 50), protocol.StatusUpdateInProgress)
	expectStatus(t, d, protocol.NewDeviceInfoRequest(), protocol.StatusUpdateInProgress)

	expectStatus(t, d, protocol.NewFlashWrite(0, image[:2]), protocol.StatusOK)
	expectStatus(t, d, protocol.NewFlashWrite(2, image[2:]), protocol.StatusOK)

	if d.Session().State != UpdateComplete {
		t.Fatalf("expected complete session, got %s", d.Session().State)
	}
	if d.Mode() != ModeNormal {
		t.Errorf("expected normal mode after completion, got %s", d.Mode())
	}

	// Channel released
	expectStatus(t, d, protocol.NewServoPosition(0, 600, 50), protocol.StatusOK)
}

func TestDevice_UpdateChecksumMismatch(t *testing.T) {
	d := newTestDevice()
	expectStatus(t, d, protocol.NewFirmwareUpdate(2, 0xFF), protocol.StatusOK)
	expectStatus(t, d, protocol.NewFlashWrite(0, []byte{0x01, 0x02}), protocol.StatusCRCMismatch)

	if d.Session().State != UpdateAborted {
		t.Errorf("expected aborted session, got %s", d.Session().State)
	}
	// Mode stays bootloader until an explicit reset
	if d.Mode() != ModeBootloader {
		t.Errorf("expected bootloader mode after failed update, got %s", d.Mode())
	}
	expectStatus(t, d, protocol.NewReset(), protocol.StatusOK)
	if d.Mode() != ModeNormal {
		t.Errorf("expected normal mode after reset, got %s", d.Mode())
	}
}

func TestDevice_UpdateOutOfOrderChunk(t *testing.T) {
	d := newTestDevice()
	expectStatus(t, d, protocol.NewFirmwareUpdate(8, 0x00), protocol.StatusOK)
	expectStatus(t, d, protocol.NewFlashWrite(0, []byte{1, 2, 3, 4}), protocol.StatusOK)
	expectStatus(t, d, protocol.NewFlashWrite(8, []byte{5, 6, 7, 8}), protocol.StatusInvalidPayload)

	if d.Session().State != UpdateAborted {
		t.Errorf("expected aborted session, got %s", d.Session().State)
	}
}

func TestDevice_FlashWriteWithoutSession(t *testing.T) {
	d := newTestDevice()
	expectStatus(t, d, protocol.NewFlashWrite(0, []byte{1}), protocol.StatusWrongMode)
}

func TestDevice_ResetAbortsSession(t *testing.T) {
	d := newTestDevice()
	expectStatus(t, d, protocol.NewFirmwareUpdate(8, 0x00), protocol.StatusOK)
	expectStatus(t, d, protocol.NewReset(), protocol.StatusOK)

	if d.Session() != nil {
		t.Error("reset should discard the update session")
	}
	expectStatus(t, d, protocol.NewServoPosition(0, 600, 50), protocol.StatusOK)
}

// ============================================================
// Mode Gating Tests
// ============================================================

func TestDevice_BootloaderModeGating(t *testing.T) {
	d := newTestDevice()
	expectStatus(t, d, protocol.NewBootloaderMode(), protocol.StatusOK)
	if d.Mode() != ModeBootloader {
		t.Fatalf("expected bootloader mode, got %s", d.Mode())
	}

	// Motion and CFW behavior commands are refused
	expectStatus(t, d, protocol.NewServoPosition(0, 600, 50), protocol.StatusWrongMode)
	expectStatus(t, d, protocol.NewSensorRead(), protocol.StatusWrongMode)
	expectStatus(t, d, protocol.NewPlayAnimation("wave"), protocol.StatusWrongMode)
	expectStatus(t, d, protocol.NewCustomMove(0, 600, 50, protocol.CurveLinear), protocol.StatusWrongMode)

	// Identity and reset remain available
	expectStatus(t, d, protocol.NewDeviceInfoRequest(), protocol.StatusOK)
	expectStatus(t, d, protocol.NewReset(), protocol.StatusOK)
	if d.Mode() != ModeNormal {
		t.Errorf("expected normal mode after reset, got %s", d.Mode())
	}
}

// ============================================================
// Reset Semantics Tests
// ============================================================

func TestDevice_ResetPreservesLogAndCounters(t *testing.T) {
	d := newTestDevice()
	expectStatus(t, d, protocol.NewServoPosition(0, 900, 100), protocol.StatusOK)
	expectStatus(t, d, protocol.NewSetSafety(100, 900, 20, 80, 4.8, 5.2), protocol.StatusOK)
	d.Tick(100)

	logLen := d.DebugLog().Len()
	if logLen == 0 {
		t.Fatal("expected log entries before reset")
	}

	expectStatus(t, d, protocol.NewReset(), protocol.StatusOK)

	if d.DebugLog().Len() <= logLen {
		t.Error("reset should append to the log, not clear it")
	}
	if len(d.Perf().Snapshot()) == 0 {
		t.Error("reset should preserve performance counters")
	}
	s, _ := d.Servo(0)
	if s.Position() != 500 {
		t.Errorf("reset should recenter servos, got %d", s.Position())
	}
	if d.Limits() != DefaultLimits() {
		t.Errorf("reset should restore default limits, got %+v", d.Limits())
	}
}

func TestDevice_ClearLogClearsBoth(t *testing.T) {
	d := newTestDevice()
	expectStatus(t, d, protocol.NewServoPosition(0, 600, 50), protocol.StatusOK)
	expectStatus(t, d, protocol.NewClearLog(), protocol.StatusOK)

	if d.DebugLog().Len() != 0 {
		t.Error("clear log should empty the debug log")
	}
	if len(d.Perf().Snapshot()) != 0 {
		t.Error("clear log should reset performance counters")
	}
}

// ============================================================
// Safety Limit Tests
// ============================================================

func TestDevice_SetSafetyNarrowsLimits(t *testing.T) {
	d := newTestDevice()
	expectStatus(t, d, protocol.NewSetSafety(200, 800, 20, 80, 4.8, 5.2), protocol.StatusOK)

	limits := d.Limits()
	if limits.PositionMin != 200 || limits.PositionMax != 800 {
		t.Fatalf("limits not installed: %+v", limits)
	}

	expectStatus(t, d, protocol.NewServoPosition(0, 900, 50), protocol.StatusSafetyViolation)
	expectStatus(t, d, protocol.NewServoPosition(0, 700, 50), protocol.StatusOK)
}

func TestDevice_SetSafetyIncoherentRejected(t *testing.T) {
	d := newTestDevice()
	before := d.Limits()
	expectStatus(t, d, protocol.NewSetSafety(800, 200, 20, 80, 4.8, 5.2), protocol.StatusSafetyViolation)
	if d.Limits() != before {
		t.Error("rejected limits were installed")
	}
}

// ============================================================
// Animation Tests
// ============================================================

func TestDevice_RegisterAndPlayAnimation(t *testing.T) {
	d := newTestDevice()
	def := protocol.AnimationDef{
		Name: "nod",
		Waypoints: []protocol.Waypoint{
			{Servo: 1, Position: 700, Speed: 100, HoldMs: 100},
			{Servo: 1, Position: 500, Speed: 100, HoldMs: 0},
		},
	}
	req, err := protocol.NewSetAnimation(def)
	if err != nil {
		t.Fatalf("build packet: %v", err)
	}
	expectStatus(t, d, req, protocol.StatusOK)
	expectStatus(t, d, protocol.NewPlayAnimation("nod"), protocol.StatusOK)

	// First waypoint is issued on the next tick
	d.Tick(1)
	s, _ := d.Servo(1)
	if s.Target != 700 {
		t.Fatalf("expected target 700 from first waypoint, got %d", s.Target)
	}

	// Hold expires, second waypoint issues, animation completes
	d.Tick(200)
	s, _ = d.Servo(1)
	if s.Target != 500 {
		t.Errorf("expected target 500 from second waypoint, got %d", s.Target)
	}
	if _, playing := d.player.playing(); playing {
		t.Error("animation should have completed")
	}
}

func TestDevice_PlayUnknownAnimation(t *testing.T) {
	d := newTestDevice()
	expectStatus(t, d, protocol.NewPlayAnimation("moonwalk"), protocol.StatusInvalidPayload)
}

func TestDevice_BuiltinAnimationsKnown(t *testing.T) {
	d := newTestDevice()
	for _, name := range []string{AnimWave, AnimDance, AnimStretch} {
		expectStatus(t, d, protocol.NewPlayAnimation(name), protocol.StatusOK)
	}
}

func TestDevice_SetAnimationUnsafeWaypointRejected(t *testing.T) {
	d := newTestDevice()
	def := protocol.AnimationDef{
		Name:      "lunge",
		Waypoints: []protocol.Waypoint{{Servo: 0, Position: 2000, Speed: 50}},
	}
	req, err := protocol.NewSetAnimation(def)
	if err != nil {
		t.Fatalf("build packet: %v", err)
	}
	expectStatus(t, d, req, protocol.StatusSafetyViolation)
	expectStatus(t, d, protocol.NewPlayAnimation("lunge"), protocol.StatusInvalidPayload)
}

func TestDevice_SetAnimationMalformedCBOR(t *testing.T) {
	d := newTestDevice()
	req := protocol.NewPacket(protocol.CmdCFWSetAnimation, []byte{0xFF, 0x13, 0x37})
	expectStatus(t, d, req, protocol.StatusInvalidPayload)
}

func TestDevice_CustomMoveEaseCurve(t *testing.T) {
	d := newTestDevice()
	expectStatus(t, d, protocol.NewCustomMove(2, 800, 60, protocol.CurveEaseInOut), protocol.StatusOK)
	s, _ := d.Servo(2)
	if s.Curve != CurveEaseInOut {
		t.Errorf("expected ease curve, got %d", s.Curve)
	}

	expectStatus(t, d, protocol.NewCustomMove(2, 800, 60, 0x7F), protocol.StatusInvalidPayload)
}

// ============================================================
// Behavior Tests
// ============================================================

func TestDevice_BehaviorTimers(t *testing.T) {
	d := newTestDevice()
	if d.Behavior() != BehaviorIdle {
		t.Fatalf("expected idle at start, got %s", d.Behavior())
	}

	d.Tick(30_000)
	if d.Behavior() != BehaviorCurious {
		t.Fatalf("expected curious after 30s idle, got %s", d.Behavior())
	}
	if name, playing := d.player.playing(); !playing || name != AnimWave {
		t.Errorf("curious should play the wave animation, playing=%v name=%q", playing, name)
	}

	d.Tick(90_000)
	if d.Behavior() != BehaviorSleepy {
		t.Fatalf("expected sleepy after 120s idle, got %s", d.Behavior())
	}

	// Any command returns the device to idle
	expectStatus(t, d, protocol.NewSensorRead(), protocol.StatusOK)
	if d.Behavior() != BehaviorIdle {
		t.Errorf("expected idle after command, got %s", d.Behavior())
	}
}

func TestDevice_BehaviorTimersConfigurable(t *testing.T) {
	d := newTestDevice(WithBehaviorTimeouts(BehaviorTimeouts{
		CuriousAfterMs: 100,
		SleepyAfterMs:  200,
	}))
	d.Tick(100)
	if d.Behavior() != BehaviorCurious {
		t.Fatalf("expected curious, got %s", d.Behavior())
	}
	d.Tick(100)
	if d.Behavior() != BehaviorSleepy {
		t.Fatalf("expected sleepy, got %s", d.Behavior())
	}
}

func TestDevice_SetBehavior(t *testing.T) {
	d := newTestDevice()
	expectStatus(t, d, protocol.NewSetBehavior(protocol.BehaviorSleepy), protocol.StatusOK)
	if d.Behavior() != BehaviorSleepy {
		t.Errorf("expected sleepy, got %s", d.Behavior())
	}
	if name, playing := d.player.playing(); !playing || name != AnimStretch {
		t.Errorf("sleepy should play the stretch animation, playing=%v name=%q", playing, name)
	}

	expectStatus(t, d, protocol.NewSetBehavior(0x07), protocol.StatusInvalidPayload)
}

// ============================================================
// Debug Log and Performance Tests
// ============================================================

func TestDevice_GetLogRoundTrip(t *testing.T) {
	d := newTestDevice()
	expectStatus(t, d, protocol.NewDebugMode(true), protocol.StatusOK)
	expectStatus(t, d, protocol.NewServoPosition(0, 600, 50), protocol.StatusOK)

	resp := expectStatus(t, d, protocol.NewGetLog(10), protocol.StatusOK)
	records, err := protocol.DecodeLogRecords(resp.Data())
	if err != nil {
		t.Fatalf("decode log records: %v", err)
	}
	if len(records) == 0 {
		t.Fatal("expected log records")
	}
	for _, rec := range records {
		if rec.UnixMs == 0 || rec.Severity == "" || rec.Message == "" {
			t.Errorf("incomplete record: %+v", rec)
		}
	}
}

func TestDevice_VerboseModeAddsEntries(t *testing.T) {
	d := newTestDevice()
	expectStatus(t, d, protocol.NewSensorRead(), protocol.StatusOK)
	quiet := d.DebugLog().Len()

	expectStatus(t, d, protocol.NewDebugMode(true), protocol.StatusOK)
	expectStatus(t, d, protocol.NewSensorRead(), protocol.StatusOK)
	if d.DebugLog().Len() <= quiet {
		t.Error("verbose mode should record per-command entries")
	}
}

func TestDevice_PerformanceReport(t *testing.T) {
	d := newTestDevice()
	expectStatus(t, d, protocol.NewSensorRead(), protocol.StatusOK)
	expectStatus(t, d, protocol.NewSensorRead(), protocol.StatusOK)
	expectStatus(t, d, protocol.NewDeviceInfoRequest(), protocol.StatusOK)

	resp := expectStatus(t, d, protocol.NewPerformanceRequest(), protocol.StatusOK)
	data := resp.Data()
	if len(data) < 1 {
		t.Fatal("empty performance payload")
	}
	count := int(data[0])
	if len(data) != 1+count*9 {
		t.Fatalf("expected %d bytes for %d entries, got %d", 1+count*9, count, len(data))
	}

	found := false
	for i := 0; i < count; i++ {
		entry := data[1+i*9 : 1+(i+1)*9]
		if entry[0] == protocol.CmdSensorRead {
			found = true
			if n := binary.LittleEndian.Uint32(entry[1:5]); n != 2 {
				t.Errorf("expected 2 SENSOR_READ observations, got %d", n)
			}
		}
	}
	if !found {
		t.Error("SENSOR_READ missing from performance report")
	}
}

func TestDevice_RejectedCommandsNotCounted(t *testing.T) {
	d := newTestDevice()
	expectStatus(t, d, protocol.NewServoPosition(0, 1001, 50), protocol.StatusSafetyViolation)

	for _, stat := range d.Perf().Snapshot() {
		if stat.Command == protocol.CmdServoControl {
			t.Error("rejected command must not increment its counter")
		}
	}
}
