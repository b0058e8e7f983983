// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package config

import (
	"errors"
	"fmt"
)

// maxVoltageMV is the full scale of the voltage registers.
const maxVoltageMV = 5600

// Validate checks cfg without modifying it.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config: missing")
	}
	switch cfg.Strategy {
	case StrategyCooperative, StrategyBlocking:
	default:
		return fmt.Errorf("config: strategy %q must be %q or %q", cfg.Strategy, StrategyCooperative, StrategyBlocking)
	}
	switch cfg.Motor {
	case MotorLRA, MotorERM:
	default:
		return fmt.Errorf("config: motor %q must be %q or %q", cfg.Motor, MotorLRA, MotorERM)
	}
	if cfg.RatedVoltageMV > maxVoltageMV {
		return fmt.Errorf("config: rated_voltage_mv %d above %d", cfg.RatedVoltageMV, maxVoltageMV)
	}
	if cfg.OverdriveVoltageMV > maxVoltageMV {
		return fmt.Errorf("config: overdrive_voltage_mv %d above %d", cfg.OverdriveVoltageMV, maxVoltageMV)
	}
	if err := cfg.Pattern().Validate(); err != nil {
		return fmt.Errorf("config: heartbeat: %w", err)
	}
	return nil
}
