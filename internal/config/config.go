// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Eilik CFW Project

// Package config loads and validates the emulator configuration file.
// Every field is optional; zero values fall back to the stock firmware
// defaults so an empty file is a valid configuration.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Emulator EmulatorConfig `yaml:"emulator"`
	Serve    ServeConfig    `yaml:"serve"`
}

type EmulatorConfig struct {
	Identity IdentityConfig `yaml:"identity"`
	Safety   SafetyConfig   `yaml:"safety"`
	Sim      SimConfig      `yaml:"sim"`
	Behavior BehaviorConfig `yaml:"behavior"`
	LogDepth int            `yaml:"log_depth"`
}

// ---- IDENTITY ----

type IdentityConfig struct {
	DeviceID        string `yaml:"device_id"`
	FirmwareVersion string `yaml:"firmware_version"`
	HardwareRev     uint16 `yaml:"hardware_rev"`
	CFWVersion      string `yaml:"cfw_version"`
}

// ---- SAFETY LIMITS ----

type SafetyConfig struct {
	PositionMin *uint16  `yaml:"position_min"`
	PositionMax *uint16  `yaml:"position_max"`
	TempMin     *float64 `yaml:"temp_min"`
	TempMax     *float64 `yaml:"temp_max"`
	VoltMin     *float64 `yaml:"volt_min"`
	VoltMax     *float64 `yaml:"volt_max"`
}

// ---- SIMULATION ----

type SimConfig struct {
	SpeedFactor  float64 `yaml:"speed_factor"`
	HeatPerMs    float64 `yaml:"heat_per_ms"`
	CoolPerMs    float64 `yaml:"cool_per_ms"`
	TickMs       int     `yaml:"tick_ms"`
	AmbientTemp  float64 `yaml:"ambient_temp"`
	NominalVolts float64 `yaml:"nominal_volts"`
}

// ---- BEHAVIOR ----

type BehaviorConfig struct {
	CuriousAfterMs int `yaml:"curious_after_ms"`
	SleepyAfterMs  int `yaml:"sleepy_after_ms"`
}

// ---- SERVE ----

type ServeConfig struct {
	Port     string `yaml:"port"`      // serial device path
	Baud     int    `yaml:"baud"`      // serial baud rate
	Listen   string `yaml:"listen"`    // websocket listen address
	LogLevel string `yaml:"log_level"` // zap level name
}

// Load reads and parses a configuration file. The file is parsed strictly:
// unknown keys are an error, catching typos early.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse parses configuration bytes. An empty document yields a zero Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}
