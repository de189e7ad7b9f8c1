// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Eilik CFW Project

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/eilik-cfw/eilikemu/pkg/protocol"
	"github.com/spf13/cobra"
)

var (
	flashChunkSize int
	flashTimeout   int
)

var flashCmd = &cobra.Command{
	Use:   "flash <image>",
	Short: "Upload a firmware image to the device",
	Long: `Upload a firmware image using the staged transfer protocol.

The upload sequence:
  1. FIRMWARE_UPDATE announces the image size and additive checksum;
     the device enters bootloader mode and opens an update session
  2. FLASH_WRITE delivers the image in strictly ordered chunks
  3. The device verifies the checksum on the final chunk and, on match,
     commits the image and returns to normal mode

Any rejected chunk aborts the session; re-run the command to start over.
There are no resume semantics.

Supports both serial and WebSocket connections.`,
	Args: cobra.ExactArgs(1),
	RunE: runFlash,
}

func init() {
	rootCmd.AddCommand(flashCmd)
	flashCmd.Flags().IntVar(&flashChunkSize, "chunk-size", 128, "Chunk payload size in bytes (max 251)")
	flashCmd.Flags().IntVar(&flashTimeout, "timeout", 5, "Per-command response timeout in seconds")
}

func runFlash(cmd *cobra.Command, args []string) error {
	if flashChunkSize < 1 || flashChunkSize > protocol.MaxPayloadSize-4 {
		return fmt.Errorf("chunk size must be between 1 and %d", protocol.MaxPayloadSize-4)
	}

	image, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read image: %v", err)
	}
	if len(image) == 0 {
		return fmt.Errorf("image %s is empty", args[0])
	}

	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	timeout := time.Duration(flashTimeout) * time.Second
	checksum := protocol.SumBytes(image)

	fmt.Printf("Eilikemu - Firmware Upload\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Image: %s (%d bytes, checksum 0x%02X)\n\n", args[0], len(image), checksum)

	// Announce the transfer
	resp, err := exchange(conn, protocol.NewFirmwareUpdate(uint32(len(image)), checksum), timeout)
	if err != nil {
		return fmt.Errorf("start session: %v", err)
	}
	if err := checkStatus(resp); err != nil {
		return fmt.Errorf("start session: %v", err)
	}
	fmt.Printf("Session open (id % X)\n", resp.Data())

	// Stream ordered chunks
	start := time.Now()
	for offset := 0; offset < len(image); offset += flashChunkSize {
		end := offset + flashChunkSize
		if end > len(image) {
			end = len(image)
		}

		resp, err := exchange(conn, protocol.NewFlashWrite(uint32(offset), image[offset:end]), timeout)
		if err != nil {
			return fmt.Errorf("chunk at offset %d: %v", offset, err)
		}
		if resp.Status() == protocol.StatusCRCMismatch {
			return fmt.Errorf("device rejected image: checksum mismatch")
		}
		if err := checkStatus(resp); err != nil {
			return fmt.Errorf("chunk at offset %d: %v", offset, err)
		}

		fmt.Printf("\r%d / %d bytes (%.0f%%)", end, len(image),
			float64(end)/float64(len(image))*100)
	}

	fmt.Printf("\nUpload complete in %v\n", time.Since(start).Round(time.Millisecond))
	return nil
}
