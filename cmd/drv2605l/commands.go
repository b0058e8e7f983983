// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/GermanBionicSystems/haptics/drv2605l"
	"github.com/GermanBionicSystems/haptics/heartbeatplot"
	"github.com/urfave/cli"
)

// runner holds what the commands share.
type runner struct {
	ctx context.Context
	out io.Writer
	// meter receives the simulated RTP bar. nil is stdout.
	meter io.Writer
}

const playPoll = 10 * time.Millisecond

var patternFlags = []cli.Flag{
	cli.IntFlag{
		Name:  "bpm",
		Usage: "heart rate, overrides the configuration",
	},
	cli.IntFlag{
		Name:  "s1",
		Usage: "S1 amplitude, overrides the configuration",
	},
	cli.IntFlag{
		Name:  "s2",
		Usage: "S2 amplitude, overrides the configuration",
	},
}

func (r *runner) commands() []cli.Command {
	return []cli.Command{
		{
			Name:   "info",
			Usage:  "print the chip identity and status",
			Action: r.withDevice(false, r.info),
		},
		{
			Name:   "init",
			Usage:  "reset the chip and apply the configuration",
			Action: r.withDevice(true, func(*cli.Context, *session) error { return nil }),
		},
		{
			Name:      "play",
			Usage:     "play up to 8 library effects; durations such as 200ms insert pauses",
			ArgsUsage: "EFFECT|PAUSE...",
			Action:    r.withDevice(true, r.play),
		},
		{
			Name:   "stop",
			Usage:  "stop playback and zero the RTP input",
			Action: r.withDevice(false, r.stop),
		},
		{
			Name:   "calibrate",
			Usage:  "run the actuator auto-calibration",
			Action: r.withDevice(true, r.calibrate),
		},
		{
			Name:  "heartbeat",
			Usage: "play a heartbeat",
			Subcommands: []cli.Command{
				{
					Name:   "builtin",
					Usage:  "one lub-dub made of library effects",
					Action: r.withDevice(true, r.heartbeatBuiltin),
				},
				{
					Name:   "double",
					Usage:  "the double click library effect",
					Action: r.withDevice(true, r.heartbeatDouble),
				},
				{
					Name:  "custom",
					Usage: "a real-time playback heartbeat, until interrupted",
					Flags: append([]cli.Flag{
						cli.DurationFlag{
							Name:  "duration, d",
							Usage: "stop after this long, 0 runs until interrupted",
						},
					}, patternFlags...),
					Action: r.withDevice(true, r.heartbeatCustom),
				},
			},
		},
		{
			Name:   "effects",
			Usage:  "list the library effects",
			Action: r.effects,
		},
		{
			Name:      "plot",
			Usage:     "draw the custom heartbeat envelope to a PNG file",
			ArgsUsage: "FILE",
			Flags: append([]cli.Flag{
				cli.IntFlag{Name: "width", Value: heartbeatplot.DefaultOpts.Width, Usage: "image width"},
				cli.IntFlag{Name: "height", Value: heartbeatplot.DefaultOpts.Height, Usage: "image height"},
				cli.IntFlag{Name: "cycles", Value: heartbeatplot.DefaultOpts.Cycles, Usage: "number of heartbeats drawn"},
			}, patternFlags...),
			Action: r.plot,
		},
		{
			Name:   "regs",
			Usage:  "dump all registers",
			Action: r.withDevice(false, r.regs),
		},
	}
}

// withDevice opens the device around f. When setup is true the chip is
// initialized first.
func (r *runner) withDevice(setup bool, f func(*cli.Context, *session) error) func(*cli.Context) error {
	return func(c *cli.Context) error {
		s, err := r.open(c)
		if err != nil {
			return err
		}
		defer func() {
			if err := s.Close(); err != nil {
				slog.Warn("close", "error", err)
			}
		}()
		if setup {
			if err := s.setup(); err != nil {
				return err
			}
		}
		return f(c, s)
	}
}

func (r *runner) info(c *cli.Context, s *session) error {
	id, err := s.dev.DeviceID()
	if err != nil {
		return err
	}
	mode, err := s.dev.Mode()
	if err != nil {
		return err
	}
	standby, err := s.dev.Standby()
	if err != nil {
		return err
	}
	vbat, err := s.dev.BatteryVoltage()
	if err != nil {
		return err
	}
	period, err := s.dev.LRAPeriod()
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "device:     %s\n", s.dev)
	fmt.Fprintf(r.out, "id:         %d (%s)\n", id, chipName(id))
	fmt.Fprintf(r.out, "mode:       %s\n", mode)
	fmt.Fprintf(r.out, "standby:    %t\n", standby)
	fmt.Fprintf(r.out, "vbat:       %s\n", vbat)
	fmt.Fprintf(r.out, "lra period: %s\n", period)
	return nil
}

func chipName(id uint8) string {
	switch id {
	case drv2605l.IDDRV2605:
		return "DRV2605"
	case drv2605l.IDDRV2604:
		return "DRV2604"
	case drv2605l.IDDRV2604L:
		return "DRV2604L"
	case drv2605l.IDDRV2605L:
		return "DRV2605L"
	default:
		return "unknown"
	}
}

// parseSequence converts effect numbers and pauses to waveform slot values.
func parseSequence(args []string) ([]byte, error) {
	if len(args) == 0 {
		return nil, errors.New("at least one effect is required")
	}
	if len(args) > drv2605l.SlotCount {
		return nil, fmt.Errorf("at most %d effects and pauses, got %d", drv2605l.SlotCount, len(args))
	}
	out := make([]byte, 0, len(args))
	for _, a := range args {
		if strings.HasSuffix(a, "s") {
			d, err := time.ParseDuration(a)
			if err != nil {
				return nil, err
			}
			v, err := drv2605l.WaitSlot(d)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
			continue
		}
		n, err := strconv.ParseUint(a, 0, 8)
		if err != nil {
			return nil, fmt.Errorf("invalid effect %q", a)
		}
		e := drv2605l.Effect(n)
		if !e.Valid() {
			return nil, fmt.Errorf("invalid effect %d, must be 1..%d", n, drv2605l.MaxEffect)
		}
		out = append(out, drv2605l.EffectSlot(e))
	}
	return out, nil
}

func (r *runner) play(c *cli.Context, s *session) error {
	seq, err := parseSequence(c.Args())
	if err != nil {
		return err
	}
	if err := s.dev.PlaySequence(seq...); err != nil {
		return err
	}
	slog.Info("playing", "slots", len(seq))
	return r.waitDone(s.dev)
}

// waitDone polls the GO bit until the chip is done or the command is
// interrupted, in which case playback is stopped.
func (r *runner) waitDone(d *drv2605l.Dev) error {
	t := time.NewTicker(playPoll)
	defer t.Stop()
	for {
		playing, err := d.IsPlaying()
		if err != nil {
			return err
		}
		if !playing {
			return nil
		}
		select {
		case <-r.ctx.Done():
			return d.Halt()
		case <-t.C:
		}
	}
}

func (r *runner) stop(c *cli.Context, s *session) error {
	return s.dev.Halt()
}

func (r *runner) calibrate(c *cli.Context, s *session) error {
	start := time.Now()
	if err := s.dev.AutoCalibrate(r.ctx); err != nil {
		return err
	}
	cal, err := s.dev.CalibrationResult()
	if err != nil {
		return err
	}
	slog.Info("calibrated", "duration", time.Since(start).Round(time.Millisecond))
	fmt.Fprintf(r.out, "compensation:  0x%02X\n", cal.Compensation)
	fmt.Fprintf(r.out, "back-emf:      0x%02X\n", cal.BackEMF)
	fmt.Fprintf(r.out, "back-emf gain: %d\n", cal.BackEMFGain)
	return nil
}

func (r *runner) heartbeatBuiltin(c *cli.Context, s *session) error {
	if err := s.dev.PlayHeartbeatBuiltin(); err != nil {
		return err
	}
	return r.waitDone(s.dev)
}

func (r *runner) heartbeatDouble(c *cli.Context, s *session) error {
	if err := s.dev.PlayDoubleClickHeartbeat(); err != nil {
		return err
	}
	return r.waitDone(s.dev)
}

// pattern returns the configured heartbeat with the command flags applied.
func pattern(c *cli.Context, base drv2605l.HeartbeatPattern) (drv2605l.HeartbeatPattern, error) {
	p := base
	if c.IsSet("bpm") {
		p.BPM = c.Int("bpm")
	}
	for _, f := range []struct {
		name string
		dst  *byte
	}{{"s1", &p.S1Amplitude}, {"s2", &p.S2Amplitude}} {
		if !c.IsSet(f.name) {
			continue
		}
		v := c.Int(f.name)
		if v < 0 || v > 0xFF {
			return p, fmt.Errorf("--%s %d out of range", f.name, v)
		}
		*f.dst = byte(v)
	}
	return p, p.Validate()
}

func (r *runner) heartbeatCustom(c *cli.Context, s *session) error {
	p, err := pattern(c, s.cfg.Pattern())
	if err != nil {
		return err
	}
	ctx := r.ctx
	if d := c.Duration("duration"); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}
	t := p.Timing()
	slog.Info("heartbeat", "bpm", p.BPM, "cycle", t.Cycle, "systole", t.Systole, "diastole", t.Diastole)
	err = s.dev.PlayCustomHeartbeat(ctx, p)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}
	if err2 := s.dev.Halt(); err == nil {
		err = err2
	}
	return err
}

func (r *runner) effects(c *cli.Context) error {
	for e := drv2605l.Effect(1); e <= drv2605l.MaxEffect; e++ {
		fmt.Fprintf(r.out, "%3d  %s\n", e, e)
	}
	return nil
}

func (r *runner) plot(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return errors.New("an output file is required")
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	p, err := pattern(c, cfg.Pattern())
	if err != nil {
		return err
	}
	opts := heartbeatplot.Opts{Width: c.Int("width"), Height: c.Int("height"), Cycles: c.Int("cycles")}
	if err := heartbeatplot.SavePNG(path, p, &opts); err != nil {
		return err
	}
	slog.Info("plotted", "path", path, "bpm", p.BPM)
	return nil
}

func (r *runner) regs(c *cli.Context, s *session) error {
	for i := 0; i < drv2605l.RegisterCount; i++ {
		reg := drv2605l.Register(i)
		v, err := s.dev.ReadRegister(reg)
		if err != nil {
			return err
		}
		fmt.Fprintf(r.out, "0x%02X %-28s 0x%02X\n", i, reg, v)
	}
	return nil
}
