// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Eilik CFW Project
//
// Eilikemu - Eilik Serial Protocol Tool and Device Emulator
//
// A CLI tool for emulating the Eilik robot's motor-control unit and for
// monitoring, decoding, and exercising its serial protocol.

package main

import (
	"os"

	"github.com/eilik-cfw/eilikemu/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
