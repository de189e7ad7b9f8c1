// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Eilik CFW Project

package protocol

import (
	"encoding/binary"
	"math"
)

// Command builder functions create Packet structs ready for encoding.
// These are convenience wrappers around NewPacket that ensure correct
// payload layout for each opcode. Multi-byte fields are little-endian.

// NewDeviceInfoRequest creates a DEVICE_INFO packet (0x01).
func NewDeviceInfoRequest() *Packet {
	return NewPacket(CmdDeviceInfo, nil)
}

// NewFirmwareUpdate creates a FIRMWARE_UPDATE packet (0x02) announcing a
// staged transfer of totalSize bytes with the given additive image checksum.
func NewFirmwareUpdate(totalSize uint32, imageChecksum uint8) *Packet {
	payload := make([]byte, 5)
	binary.LittleEndian.PutUint32(payload[0:4], totalSize)
	payload[4] = imageChecksum
	return NewPacket(CmdFirmwareUpdate, payload)
}

// NewParameterRead creates a PARAMETER_READ packet (0x03) for a bank address.
// Address ParamAddrServoBank returns the full servo status bank.
func NewParameterRead(addr uint16) *Packet {
	payload := make([]byte, 2)
	binary.LittleEndian.PutUint16(payload, addr)
	return NewPacket(CmdParameterRead, payload)
}

// NewParameterWrite creates a PARAMETER_WRITE packet (0x04) setting a servo's
// target position, speed, and torque in one write.
func NewParameterWrite(servo uint8, target uint16, speed, torque uint8) *Packet {
	payload := make([]byte, 7)
	binary.LittleEndian.PutUint16(payload[0:2], ParamAddrServoBank)
	payload[2] = servo
	binary.LittleEndian.PutUint16(payload[3:5], target)
	payload[5] = speed
	payload[6] = torque
	return NewPacket(CmdParameterWrite, payload)
}

// NewServoPosition creates a SERVO_CONTROL packet (0x05) moving a servo to
// the given position at the given speed.
func NewServoPosition(servo uint8, position uint16, speed uint8) *Packet {
	payload := make([]byte, 5)
	payload[0] = servo
	payload[1] = ServoSetPosition
	binary.LittleEndian.PutUint16(payload[2:4], position)
	payload[4] = speed
	return NewPacket(CmdServoControl, payload)
}

// NewServoSpeed creates a SERVO_CONTROL packet (0x05) setting a servo's speed
// without starting a move.
func NewServoSpeed(servo uint8, speed uint8) *Packet {
	return NewPacket(CmdServoControl, []byte{servo, ServoSetSpeed, speed})
}

// NewServoStatusRequest creates a SERVO_CONTROL packet (0x05) reading one
// servo's status block.
func NewServoStatusRequest(servo uint8) *Packet {
	return NewPacket(CmdServoControl, []byte{servo, ServoReadStatus})
}

// NewSensorRead creates a SENSOR_READ packet (0x06).
func NewSensorRead() *Packet {
	return NewPacket(CmdSensorRead, nil)
}

// NewCalibration creates a CALIBRATION packet (0x07). The device re-homes
// all servos to center and cancels any in-flight motion.
func NewCalibration() *Packet {
	return NewPacket(CmdCalibration, nil)
}

// NewReset creates a RESET packet (0x08).
func NewReset() *Packet {
	return NewPacket(CmdReset, nil)
}

// NewBootloaderMode creates a BOOTLOADER_MODE packet (0x09).
func NewBootloaderMode() *Packet {
	return NewPacket(CmdBootloaderMode, nil)
}

// NewFlashWrite creates a FLASH_WRITE packet (0x0A) carrying one firmware
// chunk. Offset must equal the number of bytes already staged; the device
// rejects gaps and duplicates.
func NewFlashWrite(offset uint32, chunk []byte) *Packet {
	payload := make([]byte, 4+len(chunk))
	binary.LittleEndian.PutUint32(payload[0:4], offset)
	copy(payload[4:], chunk)
	return NewPacket(CmdFlashWrite, payload)
}

// NewCFWInfoRequest creates a CFW_GET_INFO packet (0x10).
func NewCFWInfoRequest() *Packet {
	return NewPacket(CmdCFWGetInfo, nil)
}

// NewSetAnimation creates a CFW_SET_ANIMATION packet (0x11) registering a
// custom animation definition.
func NewSetAnimation(def AnimationDef) (*Packet, error) {
	data, err := EncodeAnimationDef(def)
	if err != nil {
		return nil, err
	}
	return NewPacket(CmdCFWSetAnimation, data), nil
}

// NewPlayAnimation creates a CFW_PLAY_ANIMATION packet (0x12) starting
// playback of a named animation (built-in or previously registered).
func NewPlayAnimation(name string) *Packet {
	return NewPacket(CmdCFWPlayAnimation, []byte(name))
}

// NewSetBehavior creates a CFW_SET_BEHAVIOR packet (0x13).
// Behavior values: BehaviorIdle (0), BehaviorCurious (1), BehaviorSleepy (2).
func NewSetBehavior(behavior uint8) *Packet {
	return NewPacket(CmdCFWSetBehavior, []byte{behavior})
}

// NewDebugMode creates a CFW_DEBUG_MODE packet (0x14) toggling verbose log
// emission. Does not alter physical behavior.
func NewDebugMode(verbose bool) *Packet {
	b := byte(0)
	if verbose {
		b = 1
	}
	return NewPacket(CmdCFWDebugMode, []byte{b})
}

// NewPerformanceRequest creates a CFW_GET_PERFORMANCE packet (0x15).
func NewPerformanceRequest() *Packet {
	return NewPacket(CmdCFWGetPerformance, nil)
}

// NewSetSafety creates a CFW_SET_SAFETY packet (0x16) installing new safety
// limits. Voltages are carried as tenths of a volt.
func NewSetSafety(posMin, posMax uint16, tempMin, tempMax uint8, voltMin, voltMax float64) *Packet {
	payload := make([]byte, 8)
	binary.LittleEndian.PutUint16(payload[0:2], posMin)
	binary.LittleEndian.PutUint16(payload[2:4], posMax)
	payload[4] = tempMin
	payload[5] = tempMax
	payload[6] = uint8(math.Round(voltMin * 10))
	payload[7] = uint8(math.Round(voltMax * 10))
	return NewPacket(CmdCFWSetSafety, payload)
}

// NewCustomMove creates a CFW_CUSTOM_MOVE packet (0x17): a servo move with an
// explicit interpolation curve (CurveLinear or CurveEaseInOut).
func NewCustomMove(servo uint8, position uint16, speed uint8, curve uint8) *Packet {
	payload := make([]byte, 5)
	payload[0] = servo
	binary.LittleEndian.PutUint16(payload[1:3], position)
	payload[3] = speed
	payload[4] = curve
	return NewPacket(CmdCFWCustomMove, payload)
}

// NewGetLog creates a CFW_GET_LOG packet (0x18) requesting up to max entries.
// max of 0 requests everything the device retains.
func NewGetLog(max uint8) *Packet {
	return NewPacket(CmdCFWGetLog, []byte{max})
}

// NewClearLog creates a CFW_CLEAR_LOG packet (0x19). Clears the debug log
// and resets the performance counters.
func NewClearLog() *Packet {
	return NewPacket(CmdCFWClearLog, nil)
}
