// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Eilik CFW Project

package protocol

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// FormatPacket returns a human-readable, multi-line representation of a
// packet for CLI display.
func FormatPacket(p *Packet) string {
	var b strings.Builder

	timestamp := p.Timestamp().Format("15:04:05.000")
	direction := "->"
	if p.IsResponse() {
		direction = "<-"
	}
	fmt.Fprintf(&b, "[%s] %s %s (0x%02X) len=%d\n",
		timestamp, direction, CommandName(p.Command()), p.Command(), p.Length())

	if p.IsResponse() {
		fmt.Fprintf(&b, "  Status: %s\n", StatusName(p.Status()))
		formatResponseData(&b, p)
	} else {
		formatRequestPayload(&b, p)
	}

	return b.String()
}

func formatRequestPayload(b *strings.Builder, p *Packet) {
	payload := p.Payload()

	switch p.Command() {
	case CmdFirmwareUpdate:
		if len(payload) >= 5 {
			size := binary.LittleEndian.Uint32(payload[0:4])
			fmt.Fprintf(b, "  Image: %d bytes, checksum 0x%02X\n", size, payload[4])
		}

	case CmdServoControl:
		if len(payload) >= 2 {
			switch payload[1] {
			case ServoSetPosition:
				if len(payload) >= 4 {
					pos := binary.LittleEndian.Uint16(payload[2:4])
					fmt.Fprintf(b, "  Servo %d: set position %d\n", payload[0], pos)
				}
			case ServoSetSpeed:
				if len(payload) >= 3 {
					fmt.Fprintf(b, "  Servo %d: set speed %d\n", payload[0], payload[2])
				}
			case ServoReadStatus:
				fmt.Fprintf(b, "  Servo %d: read status\n", payload[0])
			}
		}

	case CmdFlashWrite:
		if len(payload) >= 4 {
			offset := binary.LittleEndian.Uint32(payload[0:4])
			fmt.Fprintf(b, "  Chunk: offset %d, %d bytes\n", offset, len(payload)-4)
		}

	case CmdCFWPlayAnimation:
		fmt.Fprintf(b, "  Animation: %q\n", string(payload))

	case CmdCFWCustomMove:
		if len(payload) >= 5 {
			pos := binary.LittleEndian.Uint16(payload[1:3])
			curve := "linear"
			if payload[4] == CurveEaseInOut {
				curve = "ease-in-out"
			}
			fmt.Fprintf(b, "  Servo %d: move to %d, speed %d, %s\n", payload[0], pos, payload[3], curve)
		}

	default:
		if len(payload) > 0 {
			fmt.Fprintf(b, "  Payload: % X\n", payload)
		}
	}
}

func formatResponseData(b *strings.Builder, p *Packet) {
	data := p.Data()
	if p.Status() != StatusOK || len(data) == 0 {
		return
	}

	switch p.Command() &^ ResponseFlag {
	case CmdDeviceInfo:
		if len(data) >= 28 {
			id := strings.TrimRight(string(data[0:16]), "\x00")
			fw := strings.TrimRight(string(data[16:24]), "\x00")
			hw := binary.LittleEndian.Uint16(data[24:26])
			fmt.Fprintf(b, "  Device: %s, firmware %s, hardware 0x%04X\n", id, fw, hw)
		}

	case CmdSensorRead:
		for off := 0; off+SensorReadingSize <= len(data); off += SensorReadingSize {
			volts := math.Float32frombits(binary.LittleEndian.Uint32(data[off+2 : off+6]))
			fmt.Fprintf(b, "  Servo %d: %d°C %.2fV\n", data[off], data[off+1], volts)
		}

	case CmdServoControl, CmdParameterRead:
		for off := 0; off+ServoStatusSize <= len(data); off += ServoStatusSize {
			pos := binary.LittleEndian.Uint16(data[off+2 : off+4])
			target := binary.LittleEndian.Uint16(data[off+4 : off+6])
			fmt.Fprintf(b, "  Servo %d: pos=%d target=%d speed=%d torque=%d %d°C %.1fV\n",
				data[off], pos, target, data[off+6], data[off+7], data[off+8],
				float64(data[off+9])/10)
		}

	case CmdCFWGetInfo:
		if len(data) >= 22 {
			version := strings.TrimRight(string(data[4:20]), "\x00")
			fmt.Fprintf(b, "  CFW %s (magic %q, flags 0x%04X)\n",
				version, string(data[0:4]), binary.LittleEndian.Uint16(data[20:22]))
		}

	case CmdCFWGetPerformance:
		// First byte is the entry count
		for off := 1; off+9 <= len(data); off += 9 {
			count := binary.LittleEndian.Uint32(data[off+1 : off+5])
			avgUs := binary.LittleEndian.Uint32(data[off+5 : off+9])
			fmt.Fprintf(b, "  %s: %d calls, avg %dµs\n", CommandName(data[off]), count, avgUs)
		}

	case CmdCFWGetLog:
		records, err := DecodeLogRecords(data)
		if err != nil {
			fmt.Fprintf(b, "  Log: %v\n", err)
			return
		}
		for _, r := range records {
			fmt.Fprintf(b, "  [%s] %s\n", r.Severity, r.Message)
		}

	default:
		fmt.Fprintf(b, "  Data: % X\n", data)
	}
}
