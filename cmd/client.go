// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Eilik CFW Project

package cmd

import (
	"fmt"
	"time"

	"github.com/eilik-cfw/eilikemu/pkg/protocol"
)

// exchange writes one request frame and waits for the matching response,
// discarding unrelated traffic, until the timeout expires.
func exchange(conn Connection, req *protocol.Packet, timeout time.Duration) (*protocol.Packet, error) {
	frame, err := protocol.Encode(req)
	if err != nil {
		return nil, err
	}
	if _, err := conn.Write(frame); err != nil {
		return nil, fmt.Errorf("write request: %v", err)
	}
	return awaitResponse(conn, req.Command()|protocol.ResponseFlag, timeout)
}

// awaitResponse decodes inbound bytes until a packet with the wanted opcode
// arrives or the timeout expires.
func awaitResponse(conn Connection, wantCmd uint8, timeout time.Duration) (*protocol.Packet, error) {
	type result struct {
		packet *protocol.Packet
		err    error
	}
	resultChan := make(chan result, 1)

	go func() {
		decoder := protocol.NewDecoder()
		buf := make([]byte, 128)
		for {
			n, err := conn.Read(buf)
			if err != nil {
				resultChan <- result{err: err}
				return
			}
			for i := 0; i < n; i++ {
				packet, decodeErr := decoder.DecodeByte(buf[i])
				if decodeErr != nil {
					// Corrupt frame; keep scanning for the response
					continue
				}
				if packet != nil && packet.Command() == wantCmd {
					resultChan <- result{packet: packet}
					return
				}
			}
		}
	}()

	select {
	case res := <-resultChan:
		if res.err != nil {
			return nil, fmt.Errorf("read response: %v", res.err)
		}
		return res.packet, nil
	case <-time.After(timeout):
		return nil, fmt.Errorf("timeout waiting for %s response", protocol.CommandName(wantCmd))
	}
}

// checkStatus converts a non-OK response status into an error.
func checkStatus(resp *protocol.Packet) error {
	if resp.Status() != protocol.StatusOK {
		return fmt.Errorf("device returned %s", protocol.StatusName(resp.Status()))
	}
	return nil
}
