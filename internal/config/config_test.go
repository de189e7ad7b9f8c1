// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Eilik CFW Project

package config

import (
	"strings"
	"testing"
)

func TestParse_FullDocument(t *testing.T) {
	doc := `
emulator:
  identity:
    device_id: EILIK_BENCH_07
    firmware_version: 1.2.0
    hardware_rev: 0x0101
    cfw_version: CFW-1.1.0
  safety:
    position_min: 100
    position_max: 900
    temp_max: 70
  sim:
    speed_factor: 0.02
    tick_ms: 5
  behavior:
    curious_after_ms: 10000
    sleepy_after_ms: 60000
  log_depth: 128
serve:
  port: /dev/ttyUSB0
  baud: 115200
  listen: "127.0.0.1:8765"
  log_level: debug
`
	cfg, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("validate error: %v", err)
	}

	if cfg.Emulator.Identity.DeviceID != "EILIK_BENCH_07" {
		t.Errorf("unexpected device_id: %q", cfg.Emulator.Identity.DeviceID)
	}
	if cfg.Emulator.Identity.HardwareRev != 0x0101 {
		t.Errorf("unexpected hardware_rev: 0x%04X", cfg.Emulator.Identity.HardwareRev)
	}
	if cfg.Emulator.Safety.PositionMax == nil || *cfg.Emulator.Safety.PositionMax != 900 {
		t.Error("position_max not parsed")
	}
	if cfg.Emulator.Safety.VoltMin != nil {
		t.Error("unset volt_min should stay nil")
	}
	if cfg.Serve.Baud != 115200 {
		t.Errorf("unexpected baud: %d", cfg.Serve.Baud)
	}
}

func TestParse_EmptyDocument(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("empty document should parse: %v", err)
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("empty config should validate: %v", err)
	}
	if len(DeviceOptions(cfg)) != 0 {
		t.Error("empty config should produce no overrides")
	}
}

func TestParse_UnknownKeyRejected(t *testing.T) {
	_, err := Parse([]byte("emulator:\n  identityy:\n    device_id: X\n"))
	if err == nil {
		t.Fatal("expected error for unknown key")
	}
	if !strings.Contains(err.Error(), "parse config") {
		t.Errorf("unexpected error text: %v", err)
	}
}

func TestValidate_Rejections(t *testing.T) {
	u16 := func(v uint16) *uint16 { return &v }
	f64 := func(v float64) *float64 { return &v }

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{
			name: "device id too long",
			mutate: func(c *Config) {
				c.Emulator.Identity.DeviceID = "THIS_NAME_IS_FAR_TOO_LONG"
			},
		},
		{
			name: "inverted position range",
			mutate: func(c *Config) {
				c.Emulator.Safety.PositionMin = u16(900)
				c.Emulator.Safety.PositionMax = u16(100)
			},
		},
		{
			name: "inverted voltage range",
			mutate: func(c *Config) {
				c.Emulator.Safety.VoltMin = f64(5.2)
				c.Emulator.Safety.VoltMax = f64(4.8)
			},
		},
		{
			name: "negative sim rate",
			mutate: func(c *Config) {
				c.Emulator.Sim.HeatPerMs = -1
			},
		},
		{
			name: "sleepy before curious",
			mutate: func(c *Config) {
				c.Emulator.Behavior.CuriousAfterMs = 60000
				c.Emulator.Behavior.SleepyAfterMs = 30000
			},
		},
		{
			name: "negative log depth",
			mutate: func(c *Config) {
				c.Emulator.LogDepth = -1
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg Config
			tt.mutate(&cfg)
			if err := Validate(&cfg); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestDeviceOptions_PartialOverrides(t *testing.T) {
	doc := `
emulator:
  safety:
    position_max: 800
`
	cfg, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	opts := DeviceOptions(cfg)
	if len(opts) != 1 {
		t.Fatalf("expected exactly one override option, got %d", len(opts))
	}
}
