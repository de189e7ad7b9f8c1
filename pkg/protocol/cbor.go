// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Eilik CFW Project

package protocol

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Structured payloads (animation definitions, log snapshots) are carried as
// compact CBOR arrays inside the frame payload. Fixed-width fields elsewhere
// in the protocol stay raw little-endian bytes.

// Waypoint is one step of an animation definition.
type Waypoint struct {
	_        struct{} `cbor:",toarray"`
	Servo    uint8
	Position uint16
	Speed    uint8
	HoldMs   uint32
}

// AnimationDef is a named ordered sequence of waypoints, as carried in a
// CFW_SET_ANIMATION payload.
type AnimationDef struct {
	_         struct{} `cbor:",toarray"`
	Name      string
	Waypoints []Waypoint
}

// LogRecord is one debug log entry in a CFW_GET_LOG response.
type LogRecord struct {
	_        struct{} `cbor:",toarray"`
	UnixMs   int64
	Severity string
	Message  string
}

// EncodeAnimationDef encodes an animation definition to CBOR.
func EncodeAnimationDef(def AnimationDef) ([]byte, error) {
	data, err := cbor.Marshal(def)
	if err != nil {
		return nil, fmt.Errorf("encode animation definition: %w", err)
	}
	return data, nil
}

// DecodeAnimationDef decodes a CFW_SET_ANIMATION payload.
func DecodeAnimationDef(data []byte) (AnimationDef, error) {
	var def AnimationDef
	if err := cbor.Unmarshal(data, &def); err != nil {
		return AnimationDef{}, fmt.Errorf("decode animation definition: %w", err)
	}
	if def.Name == "" {
		return AnimationDef{}, fmt.Errorf("animation definition has no name")
	}
	return def, nil
}

// EncodeLogRecords encodes a log snapshot to CBOR.
func EncodeLogRecords(records []LogRecord) ([]byte, error) {
	data, err := cbor.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("encode log snapshot: %w", err)
	}
	return data, nil
}

// DecodeLogRecords decodes the data section of a CFW_GET_LOG response.
func DecodeLogRecords(data []byte) ([]LogRecord, error) {
	var records []LogRecord
	if err := cbor.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode log snapshot: %w", err)
	}
	return records, nil
}
