// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Eilik CFW Project

package emulator

import (
	"errors"
	"fmt"

	"github.com/eilik-cfw/eilikemu/pkg/protocol"
	"github.com/google/uuid"
)

// UpdateState is the firmware update session state machine.
type UpdateState uint8

const (
	UpdateIdle UpdateState = iota
	UpdateReceiving
	UpdateVerifying
	UpdateFlashing
	UpdateComplete
	UpdateAborted
)

// String returns the state name.
func (s UpdateState) String() string {
	switch s {
	case UpdateIdle:
		return "idle"
	case UpdateReceiving:
		return "receiving"
	case UpdateVerifying:
		return "verifying"
	case UpdateFlashing:
		return "flashing"
	case UpdateComplete:
		return "complete"
	case UpdateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Update session errors. The dispatcher maps these to response status codes.
var (
	ErrChunkOutOfOrder = errors.New("flash chunk offset out of order")
	ErrChunkOverflow   = errors.New("flash chunk exceeds declared image size")
	ErrImageChecksum   = errors.New("firmware image checksum mismatch")
)

// UpdateSession is the staging area for one firmware image transfer. Chunks
// must arrive strictly in order; there are no resume semantics. The session
// never persists across device resets.
type UpdateSession struct {
	ID           uuid.UUID
	State        UpdateState
	ExpectedSize uint32
	DeclaredSum  uint8

	received   []byte
	runningSum uint8
}

// newUpdateSession starts a session in the Receiving state for an image of
// the declared size and additive checksum.
func newUpdateSession(size uint32, checksum uint8) *UpdateSession {
	return &UpdateSession{
		ID:           uuid.New(),
		State:        UpdateReceiving,
		ExpectedSize: size,
		DeclaredSum:  checksum,
		received:     make([]byte, 0, size),
	}
}

// Received returns the number of staged bytes.
func (u *UpdateSession) Received() uint32 {
	return uint32(len(u.received))
}

// Active reports whether the session holds the command channel: any command
// other than FLASH_WRITE or a reset is rejected while true.
func (u *UpdateSession) Active() bool {
	return u.State == UpdateReceiving || u.State == UpdateVerifying || u.State == UpdateFlashing
}

// Append stages one chunk. The offset must equal the byte count already
// received; a gap, duplicate, or overflow aborts the session. When the final
// chunk lands the session moves to Verifying.
func (u *UpdateSession) Append(offset uint32, chunk []byte) error {
	if u.State != UpdateReceiving {
		return fmt.Errorf("append in state %s", u.State)
	}
	if offset != u.Received() {
		u.State = UpdateAborted
		return fmt.Errorf("%w: got %d, expected %d", ErrChunkOutOfOrder, offset, u.Received())
	}
	if u.Received()+uint32(len(chunk)) > u.ExpectedSize {
		u.State = UpdateAborted
		return fmt.Errorf("%w: %d+%d > %d", ErrChunkOverflow, offset, len(chunk), u.ExpectedSize)
	}

	u.received = append(u.received, chunk...)
	u.runningSum += protocol.SumBytes(chunk)

	if u.Received() == u.ExpectedSize {
		u.State = UpdateVerifying
	}
	return nil
}

// Verify checks the running checksum against the declared image checksum.
// On success the session advances to Flashing; on mismatch it aborts.
func (u *UpdateSession) Verify() error {
	if u.State != UpdateVerifying {
		return fmt.Errorf("verify in state %s", u.State)
	}
	if u.runningSum != u.DeclaredSum {
		u.State = UpdateAborted
		return fmt.Errorf("%w: computed 0x%02X, declared 0x%02X",
			ErrImageChecksum, u.runningSum, u.DeclaredSum)
	}
	u.State = UpdateFlashing
	return nil
}

// Commit simulates the flash write and completes the session. Returns the
// simulated write duration in milliseconds for logging; no real flash
// hardware exists, so the transition itself is immediate.
func (u *UpdateSession) Commit() float64 {
	u.State = UpdateComplete
	// 1ms per 64-byte row, matching typical embedded flash page timing
	return float64(u.ExpectedSize/64+1) * 1.0
}

// Abort moves any non-terminal session to Aborted. Nothing staged is
// considered committed.
func (u *UpdateSession) Abort() {
	if u.State != UpdateComplete {
		u.State = UpdateAborted
	}
}
