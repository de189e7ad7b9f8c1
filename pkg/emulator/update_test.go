// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Eilik CFW Project

package emulator

import (
	"errors"
	"testing"

	"github.com/eilik-cfw/eilikemu/pkg/protocol"
)

// ============================================================
// Update Session Tests
// ============================================================

func TestUpdateSession_HappyPath(t *testing.T) {
	// Four image bytes 01 02 03 04, additive checksum 0x0A
	image := []byte{0x01, 0x02, 0x03, 0x04}
	s := newUpdateSession(4, 0x0A)

	if s.State != UpdateReceiving {
		t.Fatalf("new session should be receiving, got %s", s.State)
	}
	if !s.Active() {
		t.Fatal("receiving session should be active")
	}

	if err := s.Append(0, image[:2]); err != nil {
		t.Fatalf("first chunk: %v", err)
	}
	if s.Received() != 2 {
		t.Errorf("expected 2 bytes received, got %d", s.Received())
	}
	if err := s.Append(2, image[2:]); err != nil {
		t.Fatalf("final chunk: %v", err)
	}
	if s.State != UpdateVerifying {
		t.Errorf("expected verifying after final chunk, got %s", s.State)
	}

	if err := s.Verify(); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if s.State != UpdateFlashing {
		t.Errorf("expected flashing after verify, got %s", s.State)
	}

	if ms := s.Commit(); ms <= 0 {
		t.Errorf("expected positive flash duration, got %f", ms)
	}
	if s.State != UpdateComplete {
		t.Errorf("expected complete after commit, got %s", s.State)
	}
	if s.Active() {
		t.Error("complete session should not be active")
	}
}

func TestUpdateSession_OutOfOrderChunkAborts(t *testing.T) {
	s := newUpdateSession(8, 0x00)
	if err := s.Append(0, []byte{1, 2, 3, 4}); err != nil {
		t.Fatalf("first chunk: %v", err)
	}

	err := s.Append(8, []byte{5, 6, 7, 8}) // gap: expected offset 4
	if !errors.Is(err, ErrChunkOutOfOrder) {
		t.Fatalf("expected ErrChunkOutOfOrder, got %v", err)
	}
	if s.State != UpdateAborted {
		t.Errorf("expected aborted session, got %s", s.State)
	}
}

func TestUpdateSession_DuplicateChunkAborts(t *testing.T) {
	s := newUpdateSession(8, 0x00)
	if err := s.Append(0, []byte{1, 2, 3, 4}); err != nil {
		t.Fatalf("first chunk: %v", err)
	}
	if err := s.Append(0, []byte{1, 2, 3, 4}); !errors.Is(err, ErrChunkOutOfOrder) {
		t.Fatalf("expected ErrChunkOutOfOrder for duplicate, got %v", err)
	}
}

func TestUpdateSession_OverflowAborts(t *testing.T) {
	s := newUpdateSession(4, 0x00)
	err := s.Append(0, []byte{1, 2, 3, 4, 5})
	if !errors.Is(err, ErrChunkOverflow) {
		t.Fatalf("expected ErrChunkOverflow, got %v", err)
	}
	if s.State != UpdateAborted {
		t.Errorf("expected aborted session, got %s", s.State)
	}
}

func TestUpdateSession_ChecksumMismatchAborts(t *testing.T) {
	image := []byte{0x01, 0x02, 0x03, 0x04}
	s := newUpdateSession(4, 0xFF) // wrong declared checksum

	if err := s.Append(0, image); err != nil {
		t.Fatalf("append: %v", err)
	}
	err := s.Verify()
	if !errors.Is(err, ErrImageChecksum) {
		t.Fatalf("expected ErrImageChecksum, got %v", err)
	}
	if s.State != UpdateAborted {
		t.Errorf("expected aborted session, got %s", s.State)
	}
	if s.Active() {
		t.Error("aborted session should not be active")
	}
}

func TestUpdateSession_RunningSumMatchesSumBytes(t *testing.T) {
	image := []byte{0xDE, 0xAD, 0xBE, 0xEF, 0x00, 0x42}
	s := newUpdateSession(uint32(len(image)), protocol.SumBytes(image))

	// Deliver in uneven chunks; the running sum must match the whole image
	if err := s.Append(0, image[:1]); err != nil {
		t.Fatalf("chunk 1: %v", err)
	}
	if err := s.Append(1, image[1:4]); err != nil {
		t.Fatalf("chunk 2: %v", err)
	}
	if err := s.Append(4, image[4:]); err != nil {
		t.Fatalf("chunk 3: %v", err)
	}
	if err := s.Verify(); err != nil {
		t.Errorf("verify with chunked sum: %v", err)
	}
}

func TestUpdateSession_UniqueIDs(t *testing.T) {
	a := newUpdateSession(4, 0)
	b := newUpdateSession(4, 0)
	if a.ID == b.ID {
		t.Error("sessions should have distinct IDs")
	}
}
