// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Eilik CFW Project

// Package emulator implements a software model of the Eilik motor-control
// unit: eight simulated servos behind the serial protocol, with the custom
// firmware's extended command set layered on top. The emulator is fully
// deterministic; time only advances through Tick, so tests control the clock.
package emulator

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/eilik-cfw/eilikemu/pkg/protocol"
	"go.uber.org/zap"
)

// Mode is the device operating mode.
type Mode uint8

const (
	ModeNormal Mode = iota
	ModeBootloader
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeNormal:
		return "normal"
	case ModeBootloader:
		return "bootloader"
	default:
		return "unknown"
	}
}

// Identity is the device's reported identification.
type Identity struct {
	DeviceID        string // up to 16 bytes on the wire
	FirmwareVersion string // up to 8 bytes
	HardwareRev     uint16
	Flags           uint16
	CFWVersion      string // up to 16 bytes
	CFWFlags        uint16
}

// DefaultIdentity returns the stock emulator identity.
func DefaultIdentity() Identity {
	return Identity{
		DeviceID:        "EILIK_EMU_001",
		FirmwareVersion: "1.0.0",
		HardwareRev:     0x0100,
		Flags:           0x0001,
		CFWVersion:      "CFW-1.0.0",
		CFWFlags:        0x0001,
	}
}

// Device is the emulated motor-control unit. It is not safe for concurrent
// use; the serve loop owns it and feeds it commands and ticks from a single
// goroutine.
type Device struct {
	identity Identity
	mode     Mode

	servos [NumServos]Servo
	limits Limits
	rates  SimRates

	session  *UpdateSession
	player   *animationPlayer
	behavior *behaviorEngine

	debugLog *LogBuffer
	perf     *PerfCounters
	verbose  bool

	logCapacity int
	timeouts    BehaviorTimeouts

	logger *zap.Logger
	clock  func() time.Time
}

// Option configures a Device.
type Option func(*Device)

// WithLogger sets the structured logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(d *Device) { d.logger = logger }
}

// WithIdentity overrides the reported device identity.
func WithIdentity(id Identity) Option {
	return func(d *Device) { d.identity = id }
}

// WithLimits overrides the initial safety limits.
func WithLimits(limits Limits) Option {
	return func(d *Device) { d.limits = limits }
}

// WithSimRates overrides the simulation constants.
func WithSimRates(rates SimRates) Option {
	return func(d *Device) { d.rates = rates }
}

// WithLogCapacity sets the debug log depth.
func WithLogCapacity(capacity int) Option {
	return func(d *Device) { d.logCapacity = capacity }
}

// WithBehaviorTimeouts overrides the idle-behavior transition timing.
func WithBehaviorTimeouts(timeouts BehaviorTimeouts) Option {
	return func(d *Device) { d.timeouts = timeouts }
}

// WithClock overrides the wall clock used for log timestamps and latency
// measurement. Tests install a fake clock here.
func WithClock(clock func() time.Time) Option {
	return func(d *Device) { d.clock = clock }
}

// NewDevice creates an emulated device in normal mode with all servos at
// center.
func NewDevice(opts ...Option) *Device {
	d := &Device{
		identity:    DefaultIdentity(),
		limits:      DefaultLimits(),
		rates:       DefaultSimRates(),
		logCapacity: DefaultLogCapacity,
		timeouts:    DefaultBehaviorTimeouts(),
		logger:      zap.NewNop(),
		clock:       time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	for i := range d.servos {
		d.servos[i] = newServo(uint8(i))
	}
	d.player = newAnimationPlayer()
	d.behavior = newBehaviorEngine(d.timeouts)
	d.debugLog = NewLogBuffer(d.logCapacity)
	d.perf = NewPerfCounters()
	return d
}

// Mode returns the current operating mode.
func (d *Device) Mode() Mode {
	return d.mode
}

// Behavior returns the current autonomous behavior.
func (d *Device) Behavior() Behavior {
	return d.behavior.current
}

// Limits returns the active safety limits.
func (d *Device) Limits() Limits {
	return d.limits
}

// Servo returns a copy of one servo's state.
func (d *Device) Servo(id uint8) (Servo, bool) {
	if int(id) >= NumServos {
		return Servo{}, false
	}
	return d.servos[id], true
}

// Session returns the current update session, if any.
func (d *Device) Session() *UpdateSession {
	return d.session
}

// DebugLog returns the device's bounded debug log.
func (d *Device) DebugLog() *LogBuffer {
	return d.debugLog
}

// Perf returns the device's performance counters.
func (d *Device) Perf() *PerfCounters {
	return d.perf
}

// Tick advances simulated time by elapsedMs: servo physics, animation
// playback, and idle-behavior transitions.
func (d *Device) Tick(elapsedMs float64) {
	for i := range d.servos {
		d.servos[i].tick(elapsedMs, d.rates, d.limits)
	}

	done, violation := d.player.tick(elapsedMs, d.applyTarget)
	if violation != nil {
		d.record(SeverityWarning, fmt.Sprintf("animation aborted: %v", violation))
		d.logger.Warn("animation aborted", zap.Error(violation))
	}
	if done {
		d.record(SeverityDebug, "animation complete")
	}

	if next, changed := d.behavior.tick(elapsedMs); changed {
		d.record(SeverityInfo, fmt.Sprintf("behavior -> %s", next))
		d.logger.Info("behavior transition", zap.Stringer("behavior", next))
		d.playBehaviorAnimation(next)
	}
}

// playBehaviorAnimation queues the animation associated with an autonomous
// behavior, if it has one.
func (d *Device) playBehaviorAnimation(b Behavior) {
	var name string
	switch b {
	case BehaviorCurious:
		name = AnimWave
	case BehaviorSleepy:
		name = AnimStretch
	default:
		return
	}
	if def, ok := d.player.lookup(name); ok {
		d.player.play(def)
	}
}

// applyTarget validates and installs one servo move. The safety check runs
// before any mutation, so a rejected move leaves the servo untouched.
func (d *Device) applyTarget(servo uint8, t Target, curve Curve) *SafetyViolation {
	if int(servo) >= NumServos {
		return &SafetyViolation{Field: "servo", Value: float64(servo), Min: 0, Max: NumServos - 1}
	}
	if v := Validate(t, d.limits); v != nil {
		return v
	}
	d.servos[servo].setTarget(t, curve, d.rates)
	return nil
}

// Handle processes one decoded request packet and always produces a response.
// Errors become status codes; nothing escapes as a Go error.
func (d *Device) Handle(req *protocol.Packet) *protocol.Packet {
	start := d.clock()
	cmd := req.Command()

	d.behavior.noteCommand()

	resp := d.dispatch(cmd, req.Payload())

	elapsed := d.clock().Sub(start)
	status := resp.Status()
	if status == protocol.StatusOK {
		d.perf.Observe(cmd, elapsed)
		if d.verbose {
			d.record(SeverityDebug, fmt.Sprintf("%s ok", protocol.CommandName(cmd)))
		}
		d.logger.Debug("command handled",
			zap.String("command", protocol.CommandName(cmd)),
			zap.Duration("elapsed", elapsed))
	} else {
		d.record(SeverityWarning, fmt.Sprintf("%s rejected: %s",
			protocol.CommandName(cmd), protocol.StatusName(status)))
		d.logger.Warn("command rejected",
			zap.String("command", protocol.CommandName(cmd)),
			zap.String("status", protocol.StatusName(status)))
	}
	return resp
}

// dispatch routes one command through the mode and session gates to its
// handler.
func (d *Device) dispatch(cmd uint8, payload []byte) *protocol.Packet {
	// An active update session owns the command channel.
	if d.session != nil && d.session.Active() {
		switch cmd {
		case protocol.CmdFlashWrite, protocol.CmdReset:
		default:
			return protocol.NewResponse(cmd, protocol.StatusUpdateInProgress, nil)
		}
	}

	if d.mode == ModeBootloader && normalModeOnly(cmd) {
		return protocol.NewResponse(cmd, protocol.StatusWrongMode, nil)
	}

	switch cmd {
	case protocol.CmdDeviceInfo:
		return d.handleDeviceInfo(cmd)
	case protocol.CmdFirmwareUpdate:
		return d.handleFirmwareUpdate(cmd, payload)
	case protocol.CmdParameterRead:
		return d.handleParameterRead(cmd, payload)
	case protocol.CmdParameterWrite:
		return d.handleParameterWrite(cmd, payload)
	case protocol.CmdServoControl:
		return d.handleServoControl(cmd, payload)
	case protocol.CmdSensorRead:
		return d.handleSensorRead(cmd)
	case protocol.CmdCalibration:
		return d.handleCalibration(cmd)
	case protocol.CmdReset:
		return d.handleReset(cmd)
	case protocol.CmdBootloaderMode:
		return d.handleBootloaderMode(cmd)
	case protocol.CmdFlashWrite:
		return d.handleFlashWrite(cmd, payload)
	case protocol.CmdCFWGetInfo:
		return d.handleCFWInfo(cmd)
	case protocol.CmdCFWSetAnimation:
		return d.handleSetAnimation(cmd, payload)
	case protocol.CmdCFWPlayAnimation:
		return d.handlePlayAnimation(cmd, payload)
	case protocol.CmdCFWSetBehavior:
		return d.handleSetBehavior(cmd, payload)
	case protocol.CmdCFWDebugMode:
		return d.handleDebugMode(cmd, payload)
	case protocol.CmdCFWGetPerformance:
		return d.handlePerformance(cmd)
	case protocol.CmdCFWSetSafety:
		return d.handleSetSafety(cmd, payload)
	case protocol.CmdCFWCustomMove:
		return d.handleCustomMove(cmd, payload)
	case protocol.CmdCFWGetLog:
		return d.handleGetLog(cmd, payload)
	case protocol.CmdCFWClearLog:
		return d.handleClearLog(cmd)
	default:
		return protocol.NewResponse(cmd, protocol.StatusUnknownCommand, nil)
	}
}

// normalModeOnly reports whether a command is refused in bootloader mode.
// Only the update path, identity queries, and reset remain available there.
func normalModeOnly(cmd uint8) bool {
	switch cmd {
	case protocol.CmdParameterRead, protocol.CmdParameterWrite,
		protocol.CmdServoControl, protocol.CmdSensorRead, protocol.CmdCalibration,
		protocol.CmdCFWSetAnimation, protocol.CmdCFWPlayAnimation,
		protocol.CmdCFWSetBehavior, protocol.CmdCFWSetSafety,
		protocol.CmdCFWCustomMove:
		return true
	}
	return false
}

func (d *Device) handleDeviceInfo(cmd uint8) *protocol.Packet {
	data := make([]byte, 0, 28)
	data = append(data, padBytes(d.identity.DeviceID, 16)...)
	data = append(data, padBytes(d.identity.FirmwareVersion, 8)...)
	data = binary.LittleEndian.AppendUint16(data, d.identity.HardwareRev)
	data = binary.LittleEndian.AppendUint16(data, d.identity.Flags)
	return protocol.NewResponse(cmd, protocol.StatusOK, data)
}

func (d *Device) handleFirmwareUpdate(cmd uint8, payload []byte) *protocol.Packet {
	if len(payload) != 5 {
		return protocol.NewResponse(cmd, protocol.StatusInvalidPayload, nil)
	}
	size := binary.LittleEndian.Uint32(payload[0:4])
	checksum := payload[4]
	if size == 0 {
		return protocol.NewResponse(cmd, protocol.StatusInvalidPayload, nil)
	}

	d.session = newUpdateSession(size, checksum)
	d.mode = ModeBootloader
	d.record(SeverityInfo, fmt.Sprintf("update session %s: %d bytes", d.session.ID, size))
	d.logger.Info("update session started",
		zap.Stringer("session", d.session.ID),
		zap.Uint32("size", size))

	return protocol.NewResponse(cmd, protocol.StatusOK, d.session.ID[:])
}

func (d *Device) handleParameterRead(cmd uint8, payload []byte) *protocol.Packet {
	if len(payload) != 2 {
		return protocol.NewResponse(cmd, protocol.StatusInvalidPayload, nil)
	}
	addr := binary.LittleEndian.Uint16(payload)
	if addr != protocol.ParamAddrServoBank {
		return protocol.NewResponse(cmd, protocol.StatusInvalidPayload, nil)
	}

	data := make([]byte, 0, NumServos*protocol.ServoStatusSize)
	for i := range d.servos {
		data = append(data, servoStatusBlock(&d.servos[i])...)
	}
	return protocol.NewResponse(cmd, protocol.StatusOK, data)
}

func (d *Device) handleParameterWrite(cmd uint8, payload []byte) *protocol.Packet {
	if len(payload) != 7 {
		return protocol.NewResponse(cmd, protocol.StatusInvalidPayload, nil)
	}
	addr := binary.LittleEndian.Uint16(payload[0:2])
	if addr != protocol.ParamAddrServoBank {
		return protocol.NewResponse(cmd, protocol.StatusInvalidPayload, nil)
	}
	servo := payload[2]
	target := Target{
		Position: binary.LittleEndian.Uint16(payload[3:5]),
		Speed:    payload[5],
		Torque:   payload[6],
	}
	if v := d.applyTarget(servo, target, CurveLinear); v != nil {
		return protocol.NewResponse(cmd, protocol.StatusSafetyViolation, nil)
	}
	return protocol.NewResponse(cmd, protocol.StatusOK, nil)
}

func (d *Device) handleServoControl(cmd uint8, payload []byte) *protocol.Packet {
	if len(payload) < 2 {
		return protocol.NewResponse(cmd, protocol.StatusInvalidPayload, nil)
	}
	servo := payload[0]
	if int(servo) >= NumServos {
		return protocol.NewResponse(cmd, protocol.StatusInvalidPayload, nil)
	}

	switch payload[1] {
	case protocol.ServoSetPosition:
		if len(payload) != 5 {
			return protocol.NewResponse(cmd, protocol.StatusInvalidPayload, nil)
		}
		target := Target{
			Position: binary.LittleEndian.Uint16(payload[2:4]),
			Speed:    payload[4],
			Torque:   d.servos[servo].Torque,
		}
		if v := d.applyTarget(servo, target, CurveLinear); v != nil {
			return protocol.NewResponse(cmd, protocol.StatusSafetyViolation, nil)
		}
		return protocol.NewResponse(cmd, protocol.StatusOK, nil)

	case protocol.ServoSetSpeed:
		if len(payload) != 3 {
			return protocol.NewResponse(cmd, protocol.StatusInvalidPayload, nil)
		}
		speed := payload[2]
		if speed > 100 {
			return protocol.NewResponse(cmd, protocol.StatusSafetyViolation, nil)
		}
		d.servos[servo].Speed = speed
		return protocol.NewResponse(cmd, protocol.StatusOK, nil)

	case protocol.ServoReadStatus:
		return protocol.NewResponse(cmd, protocol.StatusOK, servoStatusBlock(&d.servos[servo]))

	default:
		return protocol.NewResponse(cmd, protocol.StatusInvalidPayload, nil)
	}
}

func (d *Device) handleSensorRead(cmd uint8) *protocol.Packet {
	data := make([]byte, 0, NumServos*protocol.SensorReadingSize)
	for i := range d.servos {
		s := &d.servos[i]
		data = append(data, s.ID, uint8(math.Round(s.Temperature)))
		data = binary.LittleEndian.AppendUint32(data, math.Float32bits(float32(s.Voltage)))
	}
	return protocol.NewResponse(cmd, protocol.StatusOK, data)
}

func (d *Device) handleCalibration(cmd uint8) *protocol.Packet {
	d.player.stop()
	for i := range d.servos {
		d.servos[i].home()
	}
	d.record(SeverityInfo, "calibration: all servos homed")
	return protocol.NewResponse(cmd, protocol.StatusOK, nil)
}

// handleReset reinitializes the device. The debug log and performance
// counters survive a reset so post-mortem state remains readable; only
// CFW_CLEAR_LOG discards them.
func (d *Device) handleReset(cmd uint8) *protocol.Packet {
	if d.session != nil {
		d.session.Abort()
		d.session = nil
	}
	d.mode = ModeNormal
	d.limits = DefaultLimits()
	d.verbose = false
	for i := range d.servos {
		d.servos[i] = newServo(uint8(i))
	}
	d.player = newAnimationPlayer()
	d.behavior = newBehaviorEngine(d.timeouts)

	d.record(SeverityInfo, "device reset")
	d.logger.Info("device reset")
	return protocol.NewResponse(cmd, protocol.StatusOK, nil)
}

func (d *Device) handleBootloaderMode(cmd uint8) *protocol.Packet {
	d.mode = ModeBootloader
	d.player.stop()
	d.record(SeverityInfo, "entered bootloader mode")
	return protocol.NewResponse(cmd, protocol.StatusOK, nil)
}

func (d *Device) handleFlashWrite(cmd uint8, payload []byte) *protocol.Packet {
	if d.session == nil || !d.session.Active() {
		return protocol.NewResponse(cmd, protocol.StatusWrongMode, nil)
	}
	if len(payload) < 5 {
		return protocol.NewResponse(cmd, protocol.StatusInvalidPayload, nil)
	}
	offset := binary.LittleEndian.Uint32(payload[0:4])
	chunk := payload[4:]

	if err := d.session.Append(offset, chunk); err != nil {
		d.record(SeverityError, fmt.Sprintf("flash write failed: %v", err))
		d.logger.Error("flash write failed", zap.Error(err))
		return protocol.NewResponse(cmd, protocol.StatusInvalidPayload, nil)
	}

	if d.session.State == UpdateVerifying {
		if err := d.session.Verify(); err != nil {
			d.record(SeverityError, fmt.Sprintf("image verify failed: %v", err))
			d.logger.Error("image verify failed", zap.Error(err))
			return protocol.NewResponse(cmd, protocol.StatusCRCMismatch, nil)
		}
		flashMs := d.session.Commit()
		d.mode = ModeNormal
		d.record(SeverityInfo, fmt.Sprintf("update %s complete (%.0fms flash)", d.session.ID, flashMs))
		d.logger.Info("update complete",
			zap.Stringer("session", d.session.ID),
			zap.Float64("flash_ms", flashMs))
	}
	return protocol.NewResponse(cmd, protocol.StatusOK, nil)
}

func (d *Device) handleCFWInfo(cmd uint8) *protocol.Packet {
	data := make([]byte, 0, 22)
	data = append(data, []byte(protocol.CFWMagic)...)
	data = append(data, padBytes(d.identity.CFWVersion, 16)...)
	data = binary.LittleEndian.AppendUint16(data, d.identity.CFWFlags)
	return protocol.NewResponse(cmd, protocol.StatusOK, data)
}

func (d *Device) handleSetAnimation(cmd uint8, payload []byte) *protocol.Packet {
	def, err := protocol.DecodeAnimationDef(payload)
	if err != nil {
		return protocol.NewResponse(cmd, protocol.StatusInvalidPayload, nil)
	}
	if len(def.Waypoints) == 0 {
		return protocol.NewResponse(cmd, protocol.StatusInvalidPayload, nil)
	}

	// Every waypoint is vetted up front so a registered animation can never
	// smuggle an unsafe move past the monitor.
	for _, wp := range def.Waypoints {
		if int(wp.Servo) >= NumServos {
			return protocol.NewResponse(cmd, protocol.StatusInvalidPayload, nil)
		}
		t := Target{Position: wp.Position, Speed: wp.Speed, Torque: 100}
		if v := Validate(t, d.limits); v != nil {
			return protocol.NewResponse(cmd, protocol.StatusSafetyViolation, nil)
		}
	}

	d.player.register(def)
	d.record(SeverityInfo, fmt.Sprintf("animation %q registered (%d waypoints)", def.Name, len(def.Waypoints)))
	return protocol.NewResponse(cmd, protocol.StatusOK, nil)
}

func (d *Device) handlePlayAnimation(cmd uint8, payload []byte) *protocol.Packet {
	name := string(payload)
	def, ok := d.player.lookup(name)
	if !ok {
		d.record(SeverityWarning, fmt.Sprintf("unknown animation %q (known: %v)", name, d.player.names()))
		return protocol.NewResponse(cmd, protocol.StatusInvalidPayload, nil)
	}
	d.player.play(def)
	d.record(SeverityInfo, fmt.Sprintf("playing animation %q", name))
	return protocol.NewResponse(cmd, protocol.StatusOK, nil)
}

func (d *Device) handleSetBehavior(cmd uint8, payload []byte) *protocol.Packet {
	if len(payload) != 1 {
		return protocol.NewResponse(cmd, protocol.StatusInvalidPayload, nil)
	}
	if payload[0] > uint8(BehaviorSleepy) {
		return protocol.NewResponse(cmd, protocol.StatusInvalidPayload, nil)
	}
	b := Behavior(payload[0])
	d.behavior.set(b)
	d.playBehaviorAnimation(b)
	d.record(SeverityInfo, fmt.Sprintf("behavior set to %s", b))
	return protocol.NewResponse(cmd, protocol.StatusOK, nil)
}

func (d *Device) handleDebugMode(cmd uint8, payload []byte) *protocol.Packet {
	if len(payload) != 1 {
		return protocol.NewResponse(cmd, protocol.StatusInvalidPayload, nil)
	}
	d.verbose = payload[0] != 0
	d.record(SeverityInfo, fmt.Sprintf("verbose debug %v", d.verbose))
	return protocol.NewResponse(cmd, protocol.StatusOK, nil)
}

func (d *Device) handlePerformance(cmd uint8) *protocol.Packet {
	stats := d.perf.Snapshot()
	data := make([]byte, 0, 1+len(stats)*9)
	data = append(data, uint8(len(stats)))
	for _, stat := range stats {
		data = append(data, stat.Command)
		data = binary.LittleEndian.AppendUint32(data, uint32(stat.Count))
		data = binary.LittleEndian.AppendUint32(data, uint32(stat.Average().Microseconds()))
	}
	return protocol.NewResponse(cmd, protocol.StatusOK, data)
}

func (d *Device) handleSetSafety(cmd uint8, payload []byte) *protocol.Packet {
	if len(payload) != 8 {
		return protocol.NewResponse(cmd, protocol.StatusInvalidPayload, nil)
	}
	limits := Limits{
		PositionMin: binary.LittleEndian.Uint16(payload[0:2]),
		PositionMax: binary.LittleEndian.Uint16(payload[2:4]),
		TempMin:     float64(payload[4]),
		TempMax:     float64(payload[5]),
		VoltMin:     float64(payload[6]) / 10,
		VoltMax:     float64(payload[7]) / 10,
	}
	if v := ValidateLimits(limits); v != nil {
		return protocol.NewResponse(cmd, protocol.StatusSafetyViolation, nil)
	}
	d.limits = limits
	d.record(SeverityInfo, fmt.Sprintf("safety limits set: pos [%d, %d]", limits.PositionMin, limits.PositionMax))
	d.logger.Info("safety limits installed",
		zap.Uint16("pos_min", limits.PositionMin),
		zap.Uint16("pos_max", limits.PositionMax))
	return protocol.NewResponse(cmd, protocol.StatusOK, nil)
}

func (d *Device) handleCustomMove(cmd uint8, payload []byte) *protocol.Packet {
	if len(payload) != 5 {
		return protocol.NewResponse(cmd, protocol.StatusInvalidPayload, nil)
	}
	servo := payload[0]
	if int(servo) >= NumServos {
		return protocol.NewResponse(cmd, protocol.StatusInvalidPayload, nil)
	}
	curve := CurveLinear
	switch payload[4] {
	case protocol.CurveLinear:
	case protocol.CurveEaseInOut:
		curve = CurveEaseInOut
	default:
		return protocol.NewResponse(cmd, protocol.StatusInvalidPayload, nil)
	}
	target := Target{
		Position: binary.LittleEndian.Uint16(payload[1:3]),
		Speed:    payload[3],
		Torque:   d.servos[servo].Torque,
	}
	if v := d.applyTarget(servo, target, curve); v != nil {
		return protocol.NewResponse(cmd, protocol.StatusSafetyViolation, nil)
	}
	return protocol.NewResponse(cmd, protocol.StatusOK, nil)
}

func (d *Device) handleGetLog(cmd uint8, payload []byte) *protocol.Packet {
	max := 0
	if len(payload) >= 1 {
		max = int(payload[0])
	}
	entries := d.debugLog.Snapshot(max)
	records := make([]protocol.LogRecord, len(entries))
	for i, entry := range entries {
		records[i] = protocol.LogRecord{
			UnixMs:   entry.Time.UnixMilli(),
			Severity: entry.Severity.String(),
			Message:  entry.Message,
		}
	}

	// A single frame carries at most MaxPayloadSize bytes after the status
	// byte. Drop oldest records until the snapshot fits.
	for {
		data, err := protocol.EncodeLogRecords(records)
		if err != nil {
			return protocol.NewResponse(cmd, protocol.StatusInvalidPayload, nil)
		}
		if len(data) <= protocol.MaxPayloadSize-1 {
			return protocol.NewResponse(cmd, protocol.StatusOK, data)
		}
		records = records[1:]
	}
}

func (d *Device) handleClearLog(cmd uint8) *protocol.Packet {
	d.debugLog.Clear()
	d.perf.Reset()
	return protocol.NewResponse(cmd, protocol.StatusOK, nil)
}

// record appends to the device-internal debug log (the one CFW_GET_LOG
// reads), not the host-side structured logger.
func (d *Device) record(severity Severity, message string) {
	d.debugLog.Record(LogEntry{Time: d.clock(), Severity: severity, Message: message})
}

// servoStatusBlock serializes one servo's wire status block.
func servoStatusBlock(s *Servo) []byte {
	block := make([]byte, 0, protocol.ServoStatusSize)
	block = append(block, s.ID, s.Status)
	block = binary.LittleEndian.AppendUint16(block, s.Position())
	block = binary.LittleEndian.AppendUint16(block, s.Target)
	block = append(block, s.Speed, s.Torque,
		uint8(math.Round(s.Temperature)), uint8(math.Round(s.Voltage*10)))
	return block
}

// padBytes returns s as a fixed-width field, truncated or zero-padded to n.
func padBytes(s string, n int) []byte {
	out := make([]byte, n)
	copy(out, s)
	return out
}
