// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package config loads the YAML configuration of the drv2605l command.
package config

import (
	"bytes"
	"fmt"
	"os"

	"github.com/GermanBionicSystems/haptics/drv2605l"
	"gopkg.in/yaml.v3"
)

// Config describes the actuator wiring and the heartbeat to play.
type Config struct {
	// Bus is the I²C bus name passed to i2creg.Open. Empty selects the
	// default bus.
	Bus string `yaml:"bus"`
	// Strategy is "cooperative" or "blocking".
	Strategy string `yaml:"strategy"`
	// Motor is "lra" or "erm".
	Motor string `yaml:"motor"`

	// Voltages in millivolts. 0 keeps the chip value.
	RatedVoltageMV     uint16 `yaml:"rated_voltage_mv"`
	OverdriveVoltageMV uint16 `yaml:"overdrive_voltage_mv"`

	Heartbeat HeartbeatConfig `yaml:"heartbeat"`
}

// HeartbeatConfig is the YAML form of drv2605l.HeartbeatPattern.
type HeartbeatConfig struct {
	BPM         int   `yaml:"bpm"`
	S1Amplitude uint8 `yaml:"s1_amplitude"`
	S2Amplitude uint8 `yaml:"s2_amplitude"`
}

// Strategies and motors accepted in the file.
const (
	StrategyCooperative = "cooperative"
	StrategyBlocking    = "blocking"
	MotorLRA            = "lra"
	MotorERM            = "erm"
)

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Strategy: StrategyCooperative,
		Motor:    MotorLRA,
		Heartbeat: HeartbeatConfig{
			BPM:         drv2605l.DefaultHeartbeat.BPM,
			S1Amplitude: drv2605l.DefaultHeartbeat.S1Amplitude,
			S2Amplitude: drv2605l.DefaultHeartbeat.S2Amplitude,
		},
	}
}

// Load reads path over Default. Unknown keys are rejected.
//
// The result is not validated, call Validate once flags are applied.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Opts returns the driver options described by c.
func (c *Config) Opts() drv2605l.Opts {
	o := drv2605l.DefaultOpts
	if c.Motor == MotorERM {
		o.MotorType = drv2605l.ERM
	}
	if c.Strategy == StrategyBlocking {
		o.Waiter = drv2605l.Blocking
	}
	return o
}

// Pattern returns the heartbeat described by c.
func (c *Config) Pattern() drv2605l.HeartbeatPattern {
	return drv2605l.HeartbeatPattern{
		BPM:         c.Heartbeat.BPM,
		S1Amplitude: c.Heartbeat.S1Amplitude,
		S2Amplitude: c.Heartbeat.S2Amplitude,
	}
}
