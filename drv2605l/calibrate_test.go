// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package drv2605l

import (
	"context"
	"errors"
	"testing"
	"time"

	"periph.io/x/conn/v3/i2c/i2ctest"
)

// calibrationOps returns the transactions of AutoCalibrate where the GO bit
// reads set busy times before clearing. busy < 0 never clears.
func calibrationOps(busy int, status byte) []i2ctest.IO {
	ops := []i2ctest.IO{
		read(RegMode, 0x00),
		write(RegMode, 0x07),
		write(RegGo, 1),
	}
	if busy < 0 {
		for i := 0; i < calibrationPolls; i++ {
			ops = append(ops, read(RegGo, 1))
		}
		return ops
	}
	for i := 0; i < busy; i++ {
		ops = append(ops, read(RegGo, 1))
	}
	return append(ops, read(RegGo, 0), read(RegStatus, status))
}

func TestAutoCalibrate(t *testing.T) {
	for _, test := range []struct {
		name      string
		ops       []i2ctest.IO
		waits     int
		expectErr error
	}{
		{
			name:  "immediate",
			ops:   calibrationOps(0, 0xE0),
			waits: 0,
		},
		{
			name:  "after 3 polls",
			ops:   calibrationOps(3, 0xE0),
			waits: 3,
		},
		{
			name:      "diagnostic failure",
			ops:       calibrationOps(5, 0xE8),
			waits:     5,
			expectErr: ErrCalibrationFailed,
		},
		{
			name:      "never completes",
			ops:       calibrationOps(-1, 0),
			waits:     100,
			expectErr: ErrCalibrationTimeout,
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			b := newPlayback(test.ops)
			w := &waitRecorder{}
			dev := newTestDev(b, w)

			err := dev.AutoCalibrate(context.Background())
			if !errors.Is(err, test.expectErr) {
				t.Fatalf("expected error: %v, got: %v", test.expectErr, err)
			}
			if err := b.Close(); err != nil {
				t.Fatal(err)
			}
			if len(w.waits) != test.waits {
				t.Fatalf("wanted %d waits, got %d", test.waits, len(w.waits))
			}
			for _, d := range w.waits {
				if d != 10*time.Millisecond {
					t.Fatalf("unexpected poll interval %s", d)
				}
			}
		})
	}
}

func TestAutoCalibrateErrorKinds(t *testing.T) {
	if !errors.Is(ErrCalibrationTimeout, ErrCalibrationFailed) {
		t.Fatal("a timeout must be a calibration failure")
	}

	b := newPlayback(calibrationOps(1, 0xE8))
	defer b.Close()
	dev := newTestDev(b, nil)
	if err := dev.AutoCalibrate(context.Background()); errors.Is(err, ErrCalibrationTimeout) {
		t.Fatalf("a diagnostic failure is not a timeout: %v", err)
	}
}

func TestAutoCalibrateCancelled(t *testing.T) {
	b := newPlayback(calibrationOps(2, 0)[:5])
	w := &waitRecorder{limit: 2}
	dev := newTestDev(b, w)

	if err := dev.AutoCalibrate(context.Background()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestCalibrationResult(t *testing.T) {
	b := newPlayback([]i2ctest.IO{
		read(RegAutoCalibCompResult, 0x0D),
		read(RegAutoCalibBackEMF, 0x8A),
		read(RegFeedbackControl, 0xB6),
	})
	defer b.Close()
	dev := newTestDev(b, nil)

	c, err := dev.CalibrationResult()
	if err != nil {
		t.Fatal(err)
	}
	if want := (Calibration{Compensation: 0x0D, BackEMF: 0x8A, BackEMFGain: 2}); c != want {
		t.Fatalf("wanted %+v, got %+v", want, c)
	}
}
