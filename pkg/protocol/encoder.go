// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Eilik CFW Project

package protocol

import "fmt"

// Encode encodes a packet to wire format:
// sync(2) + command(1) + length(1) + payload + checksum(1).
func Encode(p *Packet) ([]byte, error) {
	if len(p.payload) > MaxPayloadSize {
		return nil, fmt.Errorf("payload too large: %d bytes (max %d)", len(p.payload), MaxPayloadSize)
	}

	frame := make([]byte, 0, OverheadSize+len(p.payload))
	frame = append(frame, SyncByte1, SyncByte2, p.command, uint8(len(p.payload)))
	frame = append(frame, p.payload...)
	frame = append(frame, Checksum(p.command, p.payload))
	return frame, nil
}

// MustEncode encodes a packet and panics on error. Intended for packets
// built by the command constructors, whose payloads are always in range.
func MustEncode(p *Packet) []byte {
	data, err := Encode(p)
	if err != nil {
		panic(fmt.Sprintf("protocol: encode error: %v", err))
	}
	return data
}
