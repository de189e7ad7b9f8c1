// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Eilik CFW Project

package protocol

// Checksum computes the frame checksum: the sum of the command byte, the
// length byte, and every payload byte, modulo 256. The sync marker is not
// included.
func Checksum(command uint8, payload []byte) uint8 {
	sum := uint32(command) + uint32(len(payload))
	for _, b := range payload {
		sum += uint32(b)
	}
	return uint8(sum)
}

// SumBytes computes the additive checksum of a byte slice, modulo 256.
// Firmware images staged through FIRMWARE_UPDATE/FLASH_WRITE are verified
// with this sum.
func SumBytes(data []byte) uint8 {
	var sum uint32
	for _, b := range data {
		sum += uint32(b)
	}
	return uint8(sum)
}
