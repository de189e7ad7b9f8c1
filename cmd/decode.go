// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Eilik CFW Project

package cmd

import (
	"fmt"
	"log"

	"github.com/eilik-cfw/eilikemu/pkg/protocol"
	"github.com/spf13/cobra"
)

var decodeCmd = &cobra.Command{
	Use:   "decode",
	Short: "Display decoded packet traffic in human-readable format",
	Long: `Continuously decode and display Eilik protocol packets as they arrive.

Each packet is shown with timestamp, opcode name, and decoded payload fields.
Corrupt frames are reported and skipped; the decoder resynchronizes at the
next frame marker.

Supports both serial and WebSocket connections.`,
	RunE: runDecode,
}

func init() {
	rootCmd.AddCommand(decodeCmd)
}

func runDecode(cmd *cobra.Command, args []string) error {
	// Open connection (serial or WebSocket)
	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	fmt.Printf("Eilikemu - Packet Decoder\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	decoder := protocol.NewDecoder()
	buf := make([]byte, 128)

	for {
		n, err := conn.Read(buf)
		if err != nil {
			// For WebSocket connections, a read error usually means
			// the connection is permanently closed - exit gracefully
			if err == ErrConnectionClosed {
				log.Printf("Connection closed")
				return nil
			}
			log.Printf("Read error: %v", err)
			continue
		}

		for i := 0; i < n; i++ {
			packet, err := decoder.DecodeByte(buf[i])
			if err != nil {
				fmt.Printf("[ERROR] %v\n", err)
				continue
			}
			if packet != nil {
				fmt.Print(protocol.FormatPacket(packet))
			}
		}
	}
}
