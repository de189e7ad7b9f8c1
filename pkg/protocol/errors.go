// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Eilik CFW Project

package protocol

import (
	"errors"
	"fmt"
)

// ErrIncomplete is returned by Decode when the buffer ends before the frame
// declared by the length byte is fully available. The caller should keep the
// bytes and retry once more input arrives; this is not a protocol error.
var ErrIncomplete = errors.New("incomplete frame")

// ChecksumError indicates a frame whose checksum byte does not match the
// computed sum. The frame is dropped and decoding resumes at the next sync
// marker.
type ChecksumError struct {
	Command  uint8
	Expected uint8
	Actual   uint8
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("checksum mismatch on %s: expected 0x%02X, got 0x%02X",
		CommandName(e.Command), e.Expected, e.Actual)
}
