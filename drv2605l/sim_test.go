// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package drv2605l_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/GermanBionicSystems/haptics/drv2605l"
	"github.com/GermanBionicSystems/haptics/drv2605l/drv2605ltest"
)

// fast does not pause but still honors cancellation.
var fast = drv2605l.WaiterFunc(func(ctx context.Context, d time.Duration) error {
	return ctx.Err()
})

func newSimDev(t *testing.T, sim *drv2605ltest.Sim, motor drv2605l.MotorType) *drv2605l.Dev {
	dev, err := drv2605l.NewI2C(sim, &drv2605l.Opts{MotorType: motor, Waiter: fast})
	if err != nil {
		t.Fatal(err)
	}
	if err := dev.Init(); err != nil {
		t.Fatal(err)
	}
	return dev
}

func TestSimInit(t *testing.T) {
	sim := drv2605ltest.New(drv2605l.IDDRV2605L)
	sim.SetRegister(drv2605l.RegRatedVoltage, 0x11)
	dev := newSimDev(t, sim, drv2605l.ERM)

	if got := sim.Register(drv2605l.RegMode); got != 0 {
		t.Fatalf("expected out of standby, mode=0x%02X", got)
	}
	if got := sim.Register(drv2605l.RegFeedbackControl); got != 0x00 {
		t.Fatalf("feedback 0x%02X", got)
	}
	if got := sim.Register(drv2605l.RegLibrarySelection); got != byte(drv2605l.LibraryB) {
		t.Fatalf("library %d", got)
	}
	if got := sim.Register(drv2605l.RegRatedVoltage); got != 0x3E {
		t.Fatalf("reset did not restore the rated voltage: 0x%02X", got)
	}
	id, err := dev.DeviceID()
	if err != nil {
		t.Fatal(err)
	}
	if id != drv2605l.IDDRV2605L {
		t.Fatalf("wanted id %d, got %d", drv2605l.IDDRV2605L, id)
	}
}

func TestSimAutoCalibrate(t *testing.T) {
	for _, test := range []struct {
		name      string
		polls     int
		fails     bool
		expectErr error
	}{
		{"success", 3, false, nil},
		{"diagnostic", 3, true, drv2605l.ErrCalibrationFailed},
		{"timeout", -1, false, drv2605l.ErrCalibrationTimeout},
	} {
		t.Run(test.name, func(t *testing.T) {
			sim := drv2605ltest.New(drv2605l.IDDRV2605L)
			dev := newSimDev(t, sim, drv2605l.LRA)
			sim.GoPolls = test.polls
			sim.CalibrationFails = test.fails

			err := dev.AutoCalibrate(context.Background())
			if !errors.Is(err, test.expectErr) {
				t.Fatalf("expected error: %v, got: %v", test.expectErr, err)
			}
			if test.expectErr != nil {
				return
			}
			c, err := dev.CalibrationResult()
			if err != nil {
				t.Fatal(err)
			}
			if c.Compensation != drv2605ltest.CalibratedCompensation || c.BackEMF != drv2605ltest.CalibratedBackEMF || c.BackEMFGain != drv2605ltest.CalibratedBackEMFGain {
				t.Fatalf("unexpected calibration %+v", c)
			}
		})
	}
}

func TestSimPlayWaveform(t *testing.T) {
	sim := drv2605ltest.New(drv2605l.IDDRV2605L)
	dev := newSimDev(t, sim, drv2605l.LRA)
	sim.GoPolls = 2

	if err := dev.PlayWaveform(drv2605l.TripleClick100); err != nil {
		t.Fatal(err)
	}
	if got := sim.Register(drv2605l.RegWaveformSequencer1); got != byte(drv2605l.TripleClick100) {
		t.Fatalf("slot 0 holds %d", got)
	}
	for i := 0; i < 3; i++ {
		playing, err := dev.IsPlaying()
		if err != nil {
			t.Fatal(err)
		}
		if want := i < 2; playing != want {
			t.Fatalf("poll %d: wanted playing=%t", i, want)
		}
	}
}

func TestSimStartCustomHeartbeat(t *testing.T) {
	sim := drv2605ltest.New(drv2605l.IDDRV2605L)
	amplitudes := make(chan byte, 64)
	sim.OnRTP = func(a byte) {
		select {
		case amplitudes <- a:
		default:
		}
	}
	dev := newSimDev(t, sim, drv2605l.LRA)

	if err := dev.StartCustomHeartbeat(drv2605l.DefaultHeartbeat); err != nil {
		t.Fatal(err)
	}
	if err := dev.StartCustomHeartbeat(drv2605l.DefaultHeartbeat); err == nil {
		t.Fatal("expected an error starting a second heartbeat")
	}
	want := []byte{0x60, 0x30, 0, 0x38, 0}
	for i, w := range want {
		select {
		case a := <-amplitudes:
			if a != w {
				t.Fatalf("step %d: wanted amplitude 0x%02X, got 0x%02X", i, w, a)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("heartbeat did not run")
		}
	}
	if err := dev.Halt(); err != nil {
		t.Fatal(err)
	}
	if got := sim.Register(drv2605l.RegRTPInput); got != 0 {
		t.Fatalf("RTP input left at 0x%02X", got)
	}
	if got := sim.Register(drv2605l.RegGo); got != 0 {
		t.Fatalf("GO left at 0x%02X", got)
	}

	// The device is usable again once halted.
	if err := dev.StartCustomHeartbeat(drv2605l.HeartbeatPattern{BPM: 100, S1Amplitude: 0x20, S2Amplitude: 0x10}); err != nil {
		t.Fatal(err)
	}
	if err := dev.Halt(); err != nil {
		t.Fatal(err)
	}
}

func TestSimStandbySuppressesRTP(t *testing.T) {
	sim := drv2605ltest.New(drv2605l.IDDRV2605L)
	var seen []byte
	sim.OnRTP = func(a byte) { seen = append(seen, a) }
	dev := newSimDev(t, sim, drv2605l.LRA)

	if err := dev.EnterStandby(); err != nil {
		t.Fatal(err)
	}
	if err := dev.PlayRTP(0x50); err != nil {
		t.Fatal(err)
	}
	if len(seen) != 0 {
		t.Fatalf("RTP observed in standby: %v", seen)
	}
	if err := dev.ExitStandby(); err != nil {
		t.Fatal(err)
	}
	if err := dev.PlayRTP(0x50); err != nil {
		t.Fatal(err)
	}
	if len(seen) != 1 || seen[0] != 0x50 {
		t.Fatalf("unexpected RTP %v", seen)
	}
}
