// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Eilik CFW Project

// Package protocol provides a Go implementation of the Eilik serial protocol.
//
// The protocol is a binary request/response framing used between a host and
// the robot's motor-control unit. This package provides packet
// encoding/decoding, checksum validation, command builders, and payload
// formatting. The framing was reconstructed from captured traffic; the
// additive checksum is an assumption that must be confirmed against real
// hardware.
package protocol

// Protocol framing bytes
const (
	SyncByte1 = 0xAA
	SyncByte2 = 0x55
)

// Packet size limits
const (
	MaxPayloadSize = 255
	HeaderSize     = 4 // sync(2) + command(1) + length(1)
	OverheadSize   = 5 // header + checksum
)

// ResponseFlag is set on the command byte of every response packet.
// A reply to SERVO_CONTROL (0x05) arrives as 0x85.
const ResponseFlag = 0x80

// Base commands (host -> device) 0x01-0x0A
const (
	CmdDeviceInfo     = 0x01
	CmdFirmwareUpdate = 0x02
	CmdParameterRead  = 0x03
	CmdParameterWrite = 0x04
	CmdServoControl   = 0x05
	CmdSensorRead     = 0x06
	CmdCalibration    = 0x07
	CmdReset          = 0x08
	CmdBootloaderMode = 0x09
	CmdFlashWrite     = 0x0A
)

// Extended CFW commands (host -> device) 0x10-0x19
const (
	CmdCFWGetInfo        = 0x10
	CmdCFWSetAnimation   = 0x11
	CmdCFWPlayAnimation  = 0x12
	CmdCFWSetBehavior    = 0x13
	CmdCFWDebugMode      = 0x14
	CmdCFWGetPerformance = 0x15
	CmdCFWSetSafety      = 0x16
	CmdCFWCustomMove     = 0x17
	CmdCFWGetLog         = 0x18
	CmdCFWClearLog       = 0x19
)

// Status codes. Every response payload begins with one of these.
const (
	StatusOK               = 0x00
	StatusUnknownCommand   = 0x01
	StatusWrongMode        = 0x02
	StatusSafetyViolation  = 0x03
	StatusCRCMismatch      = 0x04
	StatusUpdateInProgress = 0x05
	StatusInvalidPayload   = 0x06
)

// SERVO_CONTROL sub-commands
const (
	ServoSetPosition = 0x01
	ServoSetSpeed    = 0x02
	ServoReadStatus  = 0x03
)

// Parameter bank addresses for PARAMETER_READ/PARAMETER_WRITE
const (
	ParamAddrServoBank = 0x0000
)

// Interpolation curves for CFW_CUSTOM_MOVE
const (
	CurveLinear    = 0x00
	CurveEaseInOut = 0x01
)

// Behavior identifiers for CFW_SET_BEHAVIOR
const (
	BehaviorIdle    = 0x00
	BehaviorCurious = 0x01
	BehaviorSleepy  = 0x02
)

// Decoder states (internal)
const (
	stateSync1 = iota
	stateSync2
	stateCommand
	stateLength
	statePayload
	stateChecksum
)

// ServoStatusSize is the wire size of one servo status block:
// id(1) + status(1) + position(2) + target(2) + speed(1) + torque(1) +
// temperature(1) + voltage*10(1).
const ServoStatusSize = 10

// SensorReadingSize is the wire size of one SENSOR_READ entry:
// id(1) + temperature(1) + voltage float32 bits(4).
const SensorReadingSize = 6

// CFWMagic identifies custom firmware in CFW_GET_INFO responses.
const CFWMagic = "CFW_"

// CommandName returns a human-readable name for a command opcode.
// The ResponseFlag bit is ignored.
func CommandName(cmd uint8) string {
	switch cmd &^ ResponseFlag {
	case CmdDeviceInfo:
		return "DEVICE_INFO"
	case CmdFirmwareUpdate:
		return "FIRMWARE_UPDATE"
	case CmdParameterRead:
		return "PARAMETER_READ"
	case CmdParameterWrite:
		return "PARAMETER_WRITE"
	case CmdServoControl:
		return "SERVO_CONTROL"
	case CmdSensorRead:
		return "SENSOR_READ"
	case CmdCalibration:
		return "CALIBRATION"
	case CmdReset:
		return "RESET"
	case CmdBootloaderMode:
		return "BOOTLOADER_MODE"
	case CmdFlashWrite:
		return "FLASH_WRITE"
	case CmdCFWGetInfo:
		return "CFW_GET_INFO"
	case CmdCFWSetAnimation:
		return "CFW_SET_ANIMATION"
	case CmdCFWPlayAnimation:
		return "CFW_PLAY_ANIMATION"
	case CmdCFWSetBehavior:
		return "CFW_SET_BEHAVIOR"
	case CmdCFWDebugMode:
		return "CFW_DEBUG_MODE"
	case CmdCFWGetPerformance:
		return "CFW_GET_PERFORMANCE"
	case CmdCFWSetSafety:
		return "CFW_SET_SAFETY"
	case CmdCFWCustomMove:
		return "CFW_CUSTOM_MOVE"
	case CmdCFWGetLog:
		return "CFW_GET_LOG"
	case CmdCFWClearLog:
		return "CFW_CLEAR_LOG"
	default:
		return "UNKNOWN"
	}
}

// StatusName returns a human-readable name for a response status code.
func StatusName(status uint8) string {
	switch status {
	case StatusOK:
		return "OK"
	case StatusUnknownCommand:
		return "UNKNOWN_COMMAND"
	case StatusWrongMode:
		return "WRONG_MODE"
	case StatusSafetyViolation:
		return "SAFETY_VIOLATION"
	case StatusCRCMismatch:
		return "CRC_MISMATCH"
	case StatusUpdateInProgress:
		return "UPDATE_IN_PROGRESS"
	case StatusInvalidPayload:
		return "INVALID_PAYLOAD"
	default:
		return "UNKNOWN"
	}
}
