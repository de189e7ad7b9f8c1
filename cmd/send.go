// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Eilik CFW Project

package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/eilik-cfw/eilikemu/pkg/protocol"
	"github.com/spf13/cobra"
)

var sendTimeout int

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send a single command and display the response",
	Long: `Send one protocol command to the device and wait for its response.

Each subcommand builds the request payload, transmits the frame, and decodes
the reply. A non-OK response status is reported as an error.

Supports both serial and WebSocket connections.`,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.PersistentFlags().IntVar(&sendTimeout, "timeout", 5, "Response timeout in seconds")

	sendCmd.AddCommand(
		&cobra.Command{
			Use:   "info",
			Short: "Query device identity",
			RunE: func(cmd *cobra.Command, args []string) error {
				return sendOne(protocol.NewDeviceInfoRequest())
			},
		},
		&cobra.Command{
			Use:   "cfw-info",
			Short: "Query custom firmware identity",
			RunE: func(cmd *cobra.Command, args []string) error {
				return sendOne(protocol.NewCFWInfoRequest())
			},
		},
		&cobra.Command{
			Use:   "servo <id> <position> [speed]",
			Short: "Move a servo to a position",
			Args:  cobra.RangeArgs(2, 3),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseUint(args[0], 8)
				if err != nil {
					return fmt.Errorf("servo id: %v", err)
				}
				position, err := parseUint(args[1], 16)
				if err != nil {
					return fmt.Errorf("position: %v", err)
				}
				speed := uint64(50)
				if len(args) == 3 {
					if speed, err = parseUint(args[2], 8); err != nil {
						return fmt.Errorf("speed: %v", err)
					}
				}
				return sendOne(protocol.NewServoPosition(uint8(id), uint16(position), uint8(speed)))
			},
		},
		&cobra.Command{
			Use:   "status <id>",
			Short: "Read one servo's status block",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseUint(args[0], 8)
				if err != nil {
					return fmt.Errorf("servo id: %v", err)
				}
				return sendOne(protocol.NewServoStatusRequest(uint8(id)))
			},
		},
		&cobra.Command{
			Use:   "sensors",
			Short: "Read temperature and voltage from all servos",
			RunE: func(cmd *cobra.Command, args []string) error {
				return sendOne(protocol.NewSensorRead())
			},
		},
		&cobra.Command{
			Use:   "calibrate",
			Short: "Home all servos to center",
			RunE: func(cmd *cobra.Command, args []string) error {
				return sendOne(protocol.NewCalibration())
			},
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Reset the device",
			RunE: func(cmd *cobra.Command, args []string) error {
				return sendOne(protocol.NewReset())
			},
		},
		&cobra.Command{
			Use:   "play <animation>",
			Short: "Play a named animation",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return sendOne(protocol.NewPlayAnimation(args[0]))
			},
		},
		&cobra.Command{
			Use:   "behavior <idle|curious|sleepy>",
			Short: "Force an autonomous behavior",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				var b uint8
				switch args[0] {
				case "idle":
					b = protocol.BehaviorIdle
				case "curious":
					b = protocol.BehaviorCurious
				case "sleepy":
					b = protocol.BehaviorSleepy
				default:
					return fmt.Errorf("unknown behavior %q", args[0])
				}
				return sendOne(protocol.NewSetBehavior(b))
			},
		},
		&cobra.Command{
			Use:   "perf",
			Short: "Read the device's performance counters",
			RunE: func(cmd *cobra.Command, args []string) error {
				return sendOne(protocol.NewPerformanceRequest())
			},
		},
		&cobra.Command{
			Use:   "log [max]",
			Short: "Read the device's debug log",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				max := uint64(0)
				if len(args) == 1 {
					var err error
					if max, err = parseUint(args[0], 8); err != nil {
						return fmt.Errorf("max entries: %v", err)
					}
				}
				return sendOne(protocol.NewGetLog(uint8(max)))
			},
		},
		&cobra.Command{
			Use:   "clear-log",
			Short: "Clear the debug log and performance counters",
			RunE: func(cmd *cobra.Command, args []string) error {
				return sendOne(protocol.NewClearLog())
			},
		},
	)
}

func parseUint(s string, bits int) (uint64, error) {
	return strconv.ParseUint(s, 0, bits)
}

// sendOne performs a single request/response exchange and prints both sides.
func sendOne(req *protocol.Packet) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	fmt.Printf("Connection: %s\n\n", connInfo)
	fmt.Print(protocol.FormatPacket(req))

	resp, err := exchange(conn, req, time.Duration(sendTimeout)*time.Second)
	if err != nil {
		return err
	}
	fmt.Print(protocol.FormatPacket(resp))
	return checkStatus(resp)
}
