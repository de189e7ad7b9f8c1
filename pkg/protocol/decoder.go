// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Eilik CFW Project

package protocol

import "time"

// Decoder implements the Eilik protocol packet decoder state machine.
// Bytes arriving before a valid sync marker are discarded as line noise and
// counted, so a desynchronized serial stream recovers at the next frame.
type Decoder struct {
	state   int
	packet  *Packet
	skipped uint64
}

// NewDecoder creates a new protocol decoder
func NewDecoder() *Decoder {
	return &Decoder{state: stateSync1}
}

// Reset resets the decoder state to scanning for a sync marker
func (d *Decoder) Reset() {
	d.state = stateSync1
	d.packet = nil
}

// SkippedBytes returns the number of noise bytes discarded while scanning
// for sync markers.
func (d *Decoder) SkippedBytes() uint64 {
	return d.skipped
}

// DecodeByte processes a single byte through the decoder state machine.
// Returns a completed packet, or nil if the packet is incomplete.
// Returns an error if checksum validation fails.
func (d *Decoder) DecodeByte(b byte) (*Packet, error) {
	switch d.state {
	case stateSync1:
		if b == SyncByte1 {
			d.state = stateSync2
		} else {
			d.skipped++
		}
		return nil, nil

	case stateSync2:
		if b == SyncByte2 {
			d.state = stateCommand
			return nil, nil
		}
		// 0xAA followed by another 0xAA is still a candidate marker start
		if b != SyncByte1 {
			d.skipped += 2
			d.state = stateSync1
		} else {
			d.skipped++
		}
		return nil, nil

	case stateCommand:
		d.packet = &Packet{command: b}
		d.state = stateLength
		return nil, nil

	case stateLength:
		if b == 0 {
			d.packet.payload = nil
			d.state = stateChecksum
		} else {
			d.packet.payload = make([]byte, 0, b)
			d.state = statePayload
		}
		return nil, nil

	case statePayload:
		d.packet.payload = append(d.packet.payload, b)
		if len(d.packet.payload) == cap(d.packet.payload) {
			d.state = stateChecksum
		}
		return nil, nil

	case stateChecksum:
		packet := d.packet
		d.Reset()

		expected := Checksum(packet.command, packet.payload)
		if b != expected {
			return nil, &ChecksumError{
				Command:  packet.command,
				Expected: expected,
				Actual:   b,
			}
		}

		packet.checksum = b
		packet.timestamp = time.Now()
		return packet, nil

	default:
		d.Reset()
		return nil, nil
	}
}

// Decode extracts the first complete packet from buf.
// Returns the packet and the number of bytes consumed, including any noise
// discarded before the sync marker.
//
// Returns ErrIncomplete when buf ends mid-frame; the caller should buffer
// the remaining bytes and retry with more input (consumed counts only the
// noise that can be discarded). A *ChecksumError consumes the bad frame so
// decoding can resume at the next marker.
func Decode(buf []byte) (*Packet, int, error) {
	// Scan for the sync marker
	start := 0
	for {
		for start < len(buf) && buf[start] != SyncByte1 {
			start++
		}
		if start+1 >= len(buf) {
			return nil, start, ErrIncomplete
		}
		if buf[start+1] == SyncByte2 {
			break
		}
		start++
	}

	if start+HeaderSize > len(buf) {
		return nil, start, ErrIncomplete
	}

	command := buf[start+2]
	length := int(buf[start+3])
	frameEnd := start + HeaderSize + length + 1

	if frameEnd > len(buf) {
		return nil, start, ErrIncomplete
	}

	payload := buf[start+HeaderSize : start+HeaderSize+length]
	expected := Checksum(command, payload)
	if buf[frameEnd-1] != expected {
		return nil, frameEnd, &ChecksumError{
			Command:  command,
			Expected: expected,
			Actual:   buf[frameEnd-1],
		}
	}

	packet := &Packet{
		command:   command,
		payload:   append([]byte(nil), payload...),
		checksum:  expected,
		timestamp: time.Now(),
	}
	return packet, frameEnd, nil
}
