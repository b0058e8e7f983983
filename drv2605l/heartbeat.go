// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package drv2605l

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Heart rate bounds accepted by HeartbeatPattern.Validate.
const (
	MinBPM = 40
	MaxBPM = 160
)

// Fixed parts of a real-time heartbeat cycle. The S1 beat is a full amplitude
// pulse followed by a half amplitude tail; S2 is a single shorter pulse.
const (
	s1Pulse = 50 * time.Millisecond
	s1Tail  = 30 * time.Millisecond
	s2Pulse = 40 * time.Millisecond
)

// HeartbeatPattern describes a heartbeat rendered with real-time playback.
type HeartbeatPattern struct {
	// BPM is the heart rate in beats per minute.
	BPM int
	// S1Amplitude is the RTP amplitude of the first heart sound.
	S1Amplitude byte
	// S2Amplitude is the RTP amplitude of the second heart sound.
	S2Amplitude byte
}

// DefaultHeartbeat is a resting heart rate with a strong S1 and a softer S2.
var DefaultHeartbeat = HeartbeatPattern{
	BPM:         70,
	S1Amplitude: 0x60,
	S2Amplitude: 0x38,
}

// HeartbeatTiming is the split of one heartbeat cycle.
type HeartbeatTiming struct {
	Cycle    time.Duration
	Systole  time.Duration
	Diastole time.Duration
}

// Timing returns the cycle length and its systole/diastole split. Systole is
// 40% of the cycle, truncated to the millisecond. It is zero if BPM is not
// positive.
func (p HeartbeatPattern) Timing() HeartbeatTiming {
	if p.BPM <= 0 {
		return HeartbeatTiming{}
	}
	cycle := 60000 / p.BPM
	systole := cycle * 2 / 5
	return HeartbeatTiming{
		Cycle:    time.Duration(cycle) * time.Millisecond,
		Systole:  time.Duration(systole) * time.Millisecond,
		Diastole: time.Duration(cycle-systole) * time.Millisecond,
	}
}

// Validate returns ErrInvalidParameter if the pattern can't be played: the
// heart rate must be within MinBPM and MaxBPM, so that both rest periods of
// the cycle are positive.
func (p HeartbeatPattern) Validate() error {
	if p.BPM < MinBPM || p.BPM > MaxBPM {
		return fmt.Errorf("%w: %d bpm outside %d..%d", ErrInvalidParameter, p.BPM, MinBPM, MaxBPM)
	}
	t := p.Timing()
	if t.Systole <= s1Pulse+s1Tail || t.Diastole <= s2Pulse {
		return fmt.Errorf("%w: %d bpm cycle too short", ErrInvalidParameter, p.BPM)
	}
	return nil
}

// Step is one amplitude held for a duration.
type Step struct {
	Amplitude byte
	Hold      time.Duration
}

// Steps returns the five RTP steps of one heartbeat cycle: S1 pulse, S1 tail,
// systolic rest, S2 pulse and diastolic rest.
func (p HeartbeatPattern) Steps() ([]Step, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	t := p.Timing()
	return []Step{
		{p.S1Amplitude, s1Pulse},
		{p.S1Amplitude / 2, s1Tail},
		{0, t.Systole - s1Pulse - s1Tail},
		{p.S2Amplitude, s2Pulse},
		{0, t.Diastole - s2Pulse},
	}, nil
}

// builtinHeartbeat is a lub-dub from library effects: a strong click, 10ms,
// a softer click and a 520ms pause before the sequence ends.
var builtinHeartbeat = [...]byte{
	byte(StrongClick100),
	waitFlag | 1,
	byte(StrongClick60),
	waitFlag | 52,
	0,
}

// PlayHeartbeatBuiltin plays one heartbeat made of library effects. It returns
// once the sequence is written and started; the chip plays it on its own.
func (d *Dev) PlayHeartbeatBuiltin() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.playSequence(builtinHeartbeat[:])
}

// PlayDoubleClickHeartbeat plays the library double click effect, a cheap
// approximation of a heartbeat.
func (d *Dev) PlayDoubleClickHeartbeat() error {
	return d.PlayWaveform(DoubleClick100)
}

// PlayCustomHeartbeat renders p continuously with real-time playback until ctx
// is done, Halt is called or a transaction fails. It returns ctx.Err() when
// cancelled and context.Canceled when halted.
//
// The device is held for the whole run; other operations wait until it
// returns. The actuator keeps the last written amplitude after cancellation,
// call Halt or SetRTPInput(0) to silence it.
func (d *Dev) PlayCustomHeartbeat(ctx context.Context, p HeartbeatPattern) error {
	steps, err := p.Steps()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	d.mu.Lock()
	defer d.mu.Unlock()
	d.hbMu.Lock()
	d.fgCancel = cancel
	d.hbMu.Unlock()
	defer func() {
		d.hbMu.Lock()
		d.fgCancel = nil
		d.hbMu.Unlock()
	}()
	if err := d.setMode(ModeRealTimePlayback); err != nil {
		return err
	}
	return d.rtpLoop(ctx, steps)
}

// rtpLoop streams steps to the RTP input until ctx is done or a write fails.
// The chip must already be in ModeRealTimePlayback.
func (d *Dev) rtpLoop(ctx context.Context, steps []Step) error {
	for {
		for _, s := range steps {
			if err := d.writeReg(RegRTPInput, s.Amplitude); err != nil {
				return err
			}
			if err := d.wait.Wait(ctx, s.Hold); err != nil {
				return err
			}
		}
	}
}

// StartCustomHeartbeat switches the chip to real-time playback and renders p
// in the background. Call Halt to stop it.
//
// The mode change is done before returning, and the device lock is then kept
// by the background run, so operations issued afterward wait until it ends.
// If a transaction fails the run ends on its own; HeartbeatErr returns the
// error and a new run can be started.
func (d *Dev) StartCustomHeartbeat(p HeartbeatPattern) error {
	steps, err := p.Steps()
	if err != nil {
		return err
	}
	d.hbMu.Lock()
	if d.cancel != nil {
		d.hbMu.Unlock()
		return errors.New("drv2605l: heartbeat already running")
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	d.cancel, d.done, d.hbErr = cancel, done, nil
	d.hbMu.Unlock()

	d.mu.Lock()
	if err := d.setMode(ModeRealTimePlayback); err != nil {
		d.mu.Unlock()
		d.endHeartbeat(done, nil)
		return err
	}
	// The goroutine owns d.mu from here and releases it when the loop ends.
	go func() {
		err := d.rtpLoop(ctx, steps)
		d.mu.Unlock()
		if errors.Is(err, context.Canceled) {
			err = nil
		}
		d.endHeartbeat(done, err)
	}()
	return nil
}

// HeartbeatErr returns the error that ended the last background heartbeat,
// if any. It is reset by StartCustomHeartbeat and Halt.
func (d *Dev) HeartbeatErr() error {
	d.hbMu.Lock()
	defer d.hbMu.Unlock()
	return d.hbErr
}

// endHeartbeat releases the background run identified by done, unless Halt
// already did, and records err.
func (d *Dev) endHeartbeat(done chan struct{}, err error) {
	d.hbMu.Lock()
	if err != nil {
		d.hbErr = err
	}
	if d.done == done {
		d.cancel()
		d.cancel, d.done = nil, nil
	}
	d.hbMu.Unlock()
	close(done)
}

// stopHeartbeat cancels the background heartbeat and a running
// PlayCustomHeartbeat, if any. It returns the error that ended the background
// heartbeat early.
func (d *Dev) stopHeartbeat() error {
	d.hbMu.Lock()
	cancel, done := d.cancel, d.done
	d.cancel, d.done = nil, nil
	if d.fgCancel != nil {
		d.fgCancel()
	}
	d.hbMu.Unlock()
	if cancel != nil {
		cancel()
		<-done
	}
	d.hbMu.Lock()
	defer d.hbMu.Unlock()
	err := d.hbErr
	d.hbErr = nil
	return err
}
