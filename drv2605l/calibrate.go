// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package drv2605l

import (
	"context"
	"time"
)

const (
	calibrationPolls        = 100
	calibrationPollInterval = 10 * time.Millisecond
)

// Calibration holds the values computed by the last auto-calibration.
type Calibration struct {
	// Compensation is the auto-calibration compensation coefficient.
	Compensation byte
	// BackEMF is the auto-calibration back-EMF result.
	BackEMF byte
	// BackEMFGain is the 2 bit back-EMF gain selected by the calibration.
	BackEMFGain byte
}

// AutoCalibrate runs the chip's auto-calibration for the actuator and waits
// for it to finish.
//
// The rated and overdrive voltages should be set beforehand. Completion is
// polled 100 times, 10ms apart. If the GO bit is still set after the last poll
// ErrCalibrationTimeout is returned; if the chip reports a diagnostic failure
// ErrCalibrationFailed is returned. The chip is left in ModeAutoCalibration.
func (d *Dev) AutoCalibrate(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.setMode(ModeAutoCalibration); err != nil {
		return err
	}
	if err := d.writeReg(RegGo, goBit); err != nil {
		return err
	}
	for i := 0; i < calibrationPolls; i++ {
		playing, err := d.isPlaying()
		if err != nil {
			return err
		}
		if !playing {
			status, err := d.readReg(RegStatus)
			if err != nil {
				return err
			}
			if status&statusDiag != 0 {
				return ErrCalibrationFailed
			}
			return nil
		}
		if err := d.wait.Wait(ctx, calibrationPollInterval); err != nil {
			return err
		}
	}
	return ErrCalibrationTimeout
}

// CalibrationResult reads back the values computed by the last
// auto-calibration, so they can be stored and restored with WriteRegister
// instead of calibrating at every power up.
func (d *Dev) CalibrationResult() (Calibration, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var c Calibration
	var err error
	if c.Compensation, err = d.readReg(RegAutoCalibCompResult); err != nil {
		return Calibration{}, err
	}
	if c.BackEMF, err = d.readReg(RegAutoCalibBackEMF); err != nil {
		return Calibration{}, err
	}
	fb, err := d.readReg(RegFeedbackControl)
	if err != nil {
		return Calibration{}, err
	}
	c.BackEMFGain = fb & bemfGainMask
	return c, nil
}
