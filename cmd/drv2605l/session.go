// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/GermanBionicSystems/haptics/drv2605l"
	"github.com/GermanBionicSystems/haptics/drv2605l/drv2605ltest"
	"github.com/GermanBionicSystems/haptics/internal/config"
	"github.com/GermanBionicSystems/haptics/rtpmeter"
	"github.com/urfave/cli"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// session is an opened device for the duration of one command.
type session struct {
	cfg   *config.Config
	dev   *drv2605l.Dev
	bus   i2c.BusCloser
	meter *rtpmeter.Dev
}

// loadConfig reads the configuration file, if any, then applies the global
// flags over it.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg := config.Default()
	if path := c.GlobalString("config"); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	}
	if c.GlobalIsSet("bus") {
		cfg.Bus = c.GlobalString("bus")
	}
	if c.GlobalBool("blocking") {
		cfg.Strategy = config.StrategyBlocking
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (r *runner) open(c *cli.Context) (*session, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	s := &session{cfg: cfg}
	if c.GlobalBool("simulate") {
		sim := drv2605ltest.New(drv2605l.IDDRV2605L)
		sim.GoPolls = 3
		// About 4V.
		sim.SetRegister(drv2605l.RegVBATMonitor, 0xB6)
		s.meter = rtpmeter.New(&rtpmeter.Opts{W: r.meter})
		sim.OnRTP = func(a byte) {
			if err := s.meter.Show(a); err != nil {
				slog.Debug("rtpmeter", "error", err)
			}
		}
		s.bus = sim
	} else {
		if _, err := host.Init(); err != nil {
			return nil, err
		}
		if s.bus, err = i2creg.Open(cfg.Bus); err != nil {
			return nil, fmt.Errorf("failed to open I²C: %w", err)
		}
	}
	opts := cfg.Opts()
	if s.dev, err = drv2605l.NewI2C(s.bus, &opts); err != nil {
		_ = s.bus.Close()
		return nil, err
	}
	slog.Debug("opened", "device", s.dev, "motor", opts.MotorType, "strategy", opts.Waiter)
	return s, nil
}

// setup initializes the chip and applies the configured voltages.
func (s *session) setup() error {
	if err := s.dev.Init(); err != nil {
		return err
	}
	if v := s.cfg.RatedVoltageMV; v != 0 {
		if err := s.dev.SetRatedVoltage(v); err != nil {
			return err
		}
	}
	if v := s.cfg.OverdriveVoltageMV; v != 0 {
		if err := s.dev.SetOverdriveVoltage(v); err != nil {
			return err
		}
	}
	slog.Debug("initialized", "motor", s.dev.MotorType(), "rated_mv", s.cfg.RatedVoltageMV, "overdrive_mv", s.cfg.OverdriveVoltageMV)
	return nil
}

// Close releases the bus. It does not halt the device, so an effect started
// by the command keeps playing.
func (s *session) Close() error {
	var errs []error
	if s.meter != nil {
		errs = append(errs, s.meter.Halt())
	}
	errs = append(errs, s.bus.Close())
	return errors.Join(errs...)
}
