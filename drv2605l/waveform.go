// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package drv2605l

import (
	"fmt"
	"time"
)

// SlotCount is the number of waveform sequencer slots.
const SlotCount = 8

// waitUnit is the duration of one unit of a sequencer wait slot.
const waitUnit = 10 * time.Millisecond

// MaxSlotWait is the longest pause a single sequencer slot can encode.
const MaxSlotWait = 127 * waitUnit

// EffectSlot returns the sequencer slot value that plays e.
func EffectSlot(e Effect) byte {
	return byte(e) &^ waitFlag
}

// WaitSlot returns the sequencer slot value that pauses playback for w,
// truncated to 10ms units.
func WaitSlot(w time.Duration) (byte, error) {
	if w < 0 || w > MaxSlotWait {
		return 0, fmt.Errorf("%w: wait %s out of range", ErrInvalidParameter, w)
	}
	return waitFlag | byte(w/waitUnit), nil
}

// SetWaveform writes value to sequencer slot 0 to 7. value is an effect id, a
// wait from WaitSlot or 0 to end the sequence.
func (d *Dev) SetWaveform(slot, value uint8) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.setWaveform(slot, value)
}

func (d *Dev) setWaveform(slot, value uint8) error {
	if slot >= SlotCount {
		return fmt.Errorf("%w: slot %d", ErrInvalidParameter, slot)
	}
	return d.writeReg(RegWaveformSequencer1+Register(slot), value)
}

// ClearWaveformSequence writes 0 to the eight slots in order. A failure leaves
// the sequence partially cleared.
func (d *Dev) ClearWaveformSequence() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.clearWaveformSequence()
}

func (d *Dev) clearWaveformSequence() error {
	for i := uint8(0); i < SlotCount; i++ {
		if err := d.setWaveform(i, 0); err != nil {
			return err
		}
	}
	return nil
}

// PlayWaveform plays the single effect e from the selected library.
//
// The chip only reads the sequence when GO is asserted, so the sequence is
// written first: internal trigger mode, cleared slots, e in slot 0, a
// terminator in slot 1 and then GO.
func (d *Dev) PlayWaveform(e Effect) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.setMode(ModeInternalTrigger); err != nil {
		return err
	}
	if err := d.clearWaveformSequence(); err != nil {
		return err
	}
	if err := d.setWaveform(0, byte(e)); err != nil {
		return err
	}
	if err := d.setWaveform(1, 0); err != nil {
		return err
	}
	return d.writeReg(RegGo, goBit)
}

// PlaySequence plays up to eight slot values in order, like PlayWaveform does
// for a single effect. Slots after the given values are left cleared.
//
// Example:
//
//	w, _ := drv2605l.WaitSlot(200 * time.Millisecond)
//	err := dev.PlaySequence(byte(drv2605l.StrongClick100), w, byte(drv2605l.StrongClick100))
func (d *Dev) PlaySequence(values ...byte) error {
	if len(values) > SlotCount {
		return fmt.Errorf("%w: %d slots", ErrInvalidParameter, len(values))
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.playSequence(values)
}

func (d *Dev) playSequence(values []byte) error {
	if err := d.setMode(ModeInternalTrigger); err != nil {
		return err
	}
	if err := d.clearWaveformSequence(); err != nil {
		return err
	}
	for i, v := range values {
		if err := d.setWaveform(uint8(i), v); err != nil {
			return err
		}
	}
	return d.writeReg(RegGo, goBit)
}

// Go asserts the GO bit, starting the sequence or calibration for the
// current mode.
func (d *Dev) Go() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writeReg(RegGo, goBit)
}

// Stop clears the GO bit. The chip may finish the current waveform before it
// stops.
func (d *Dev) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writeReg(RegGo, 0)
}

// IsPlaying reports whether the GO bit is still set, meaning playback or
// calibration is in progress.
func (d *Dev) IsPlaying() (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.isPlaying()
}

func (d *Dev) isPlaying() (bool, error) {
	v, err := d.readReg(RegGo)
	return v&goBit != 0, err
}
