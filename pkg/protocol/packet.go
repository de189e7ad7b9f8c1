// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Eilik CFW Project

package protocol

import "time"

// Packet represents a decoded Eilik protocol packet
type Packet struct {
	command   uint8
	payload   []byte
	checksum  uint8
	timestamp time.Time
}

// NewPacket creates a new packet with the given command and payload.
// The checksum is computed automatically.
func NewPacket(command uint8, payload []byte) *Packet {
	return &Packet{
		command:   command,
		payload:   payload,
		checksum:  Checksum(command, payload),
		timestamp: time.Now(),
	}
}

// NewResponse creates a response packet for the given request opcode.
// The status byte is prepended to the command-specific data.
func NewResponse(requestCmd uint8, status uint8, data []byte) *Packet {
	payload := make([]byte, 0, 1+len(data))
	payload = append(payload, status)
	payload = append(payload, data...)
	return NewPacket(requestCmd|ResponseFlag, payload)
}

// Command returns the packet's command opcode
func (p *Packet) Command() uint8 {
	return p.command
}

// Payload returns the packet's payload bytes
func (p *Packet) Payload() []byte {
	return p.payload
}

// Length returns the packet's payload length
func (p *Packet) Length() uint8 {
	return uint8(len(p.payload))
}

// Checksum returns the packet's checksum value
func (p *Packet) Checksum() uint8 {
	return p.checksum
}

// Timestamp returns the packet's decode timestamp
func (p *Packet) Timestamp() time.Time {
	return p.timestamp
}

// IsResponse returns true if the packet carries the response flag
func (p *Packet) IsResponse() bool {
	return p.command&ResponseFlag != 0
}

// Status returns the status byte of a response packet.
// Returns StatusInvalidPayload for an empty response payload.
func (p *Packet) Status() uint8 {
	if len(p.payload) == 0 {
		return StatusInvalidPayload
	}
	return p.payload[0]
}

// Data returns the command-specific data of a response packet,
// i.e. the payload without the leading status byte.
func (p *Packet) Data() []byte {
	if len(p.payload) == 0 {
		return nil
	}
	return p.payload[1:]
}
