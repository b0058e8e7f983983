// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package drv2605l

import (
	"errors"
	"testing"
	"time"

	"periph.io/x/conn/v3/i2c/i2ctest"
)

func clearOps() []i2ctest.IO {
	ops := make([]i2ctest.IO, 0, SlotCount)
	for i := 0; i < SlotCount; i++ {
		ops = append(ops, write(RegWaveformSequencer1+Register(i), 0))
	}
	return ops
}

func TestSetWaveform(t *testing.T) {
	for _, test := range []struct {
		name      string
		slot      uint8
		value     uint8
		ops       []i2ctest.IO
		expectErr error
	}{
		{
			name:  "first slot",
			slot:  0,
			value: byte(StrongClick100),
			ops:   []i2ctest.IO{write(0x04, 0x01)},
		},
		{
			name:  "last slot",
			slot:  7,
			value: 0x81,
			ops:   []i2ctest.IO{write(0x0B, 0x81)},
		},
		{
			name:      "slot 8",
			slot:      8,
			value:     1,
			expectErr: ErrInvalidParameter,
		},
		{
			name:      "slot 255",
			slot:      255,
			value:     1,
			expectErr: ErrInvalidParameter,
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			b := newPlayback(test.ops)
			dev := newTestDev(b, nil)

			err := dev.SetWaveform(test.slot, test.value)
			if !errors.Is(err, test.expectErr) {
				t.Fatalf("expected error: %v, got: %v", test.expectErr, err)
			}
			if err := b.Close(); err != nil {
				t.Fatal(err)
			}
			if b.Count != len(test.ops) {
				t.Fatalf("wanted %d transactions, got %d", len(test.ops), b.Count)
			}
		})
	}
}

func TestClearWaveformSequence(t *testing.T) {
	b := newPlayback(clearOps())
	dev := newTestDev(b, nil)
	if err := dev.ClearWaveformSequence(); err != nil {
		t.Fatal(err)
	}
	if err := b.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestClearWaveformSequencePartial(t *testing.T) {
	f := &failConn{ok: 3, err: errBus}
	dev := &Dev{c: f, wait: Blocking}
	if err := dev.ClearWaveformSequence(); err != errBus {
		t.Fatalf("expected %v, got: %v", errBus, err)
	}
	if f.n != 4 {
		t.Fatalf("expected the clear to stop at the first failure, got %d transactions", f.n)
	}
}

func TestPlayWaveform(t *testing.T) {
	ops := []i2ctest.IO{
		read(RegMode, 0x45),
		write(RegMode, 0x40),
	}
	ops = append(ops, clearOps()...)
	ops = append(ops,
		write(RegWaveformSequencer1, byte(SharpClick100)),
		write(RegWaveformSequencer2, 0),
		write(RegGo, 1),
	)
	b := newPlayback(ops)
	dev := newTestDev(b, nil)
	if err := dev.PlayWaveform(SharpClick100); err != nil {
		t.Fatal(err)
	}
	if err := b.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestPlaySequence(t *testing.T) {
	ops := []i2ctest.IO{
		read(RegMode, 0x00),
		write(RegMode, 0x00),
	}
	ops = append(ops, clearOps()...)
	ops = append(ops,
		write(RegWaveformSequencer1, 1),
		write(RegWaveformSequencer2, 0x94),
		write(RegWaveformSequencer3, 14),
		write(RegGo, 1),
	)
	b := newPlayback(ops)
	dev := newTestDev(b, nil)
	if err := dev.PlaySequence(1, 0x94, 14); err != nil {
		t.Fatal(err)
	}
	if err := b.Close(); err != nil {
		t.Fatal(err)
	}

	b = newPlayback(nil)
	dev = newTestDev(b, nil)
	if err := dev.PlaySequence(1, 2, 3, 4, 5, 6, 7, 8, 9); !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter, got: %v", err)
	}
	if b.Count != 0 {
		t.Fatalf("expected no transaction, got %d", b.Count)
	}
}

func TestGoStopIsPlaying(t *testing.T) {
	b := newPlayback([]i2ctest.IO{
		write(RegGo, 1),
		read(RegGo, 1),
		write(RegGo, 0),
		read(RegGo, 0),
	})
	defer b.Close()
	dev := newTestDev(b, nil)

	if err := dev.Go(); err != nil {
		t.Fatal(err)
	}
	if playing, err := dev.IsPlaying(); err != nil || !playing {
		t.Fatalf("expected playing, got %t, %v", playing, err)
	}
	if err := dev.Stop(); err != nil {
		t.Fatal(err)
	}
	if playing, err := dev.IsPlaying(); err != nil || playing {
		t.Fatalf("expected stopped, got %t, %v", playing, err)
	}
}

func TestSlotEncoding(t *testing.T) {
	for _, test := range []struct {
		wait      time.Duration
		want      byte
		expectErr error
	}{
		{0, 0x80, nil},
		{10 * time.Millisecond, 0x81, nil},
		{15 * time.Millisecond, 0x81, nil},
		{520 * time.Millisecond, 0xB4, nil},
		{1270 * time.Millisecond, 0xFF, nil},
		{1280 * time.Millisecond, 0, ErrInvalidParameter},
		{-time.Millisecond, 0, ErrInvalidParameter},
	} {
		got, err := WaitSlot(test.wait)
		if !errors.Is(err, test.expectErr) {
			t.Fatalf("%s: expected error: %v, got: %v", test.wait, test.expectErr, err)
		}
		if got != test.want {
			t.Fatalf("%s: wanted 0x%02X, got 0x%02X", test.wait, test.want, got)
		}
	}
	if got := EffectSlot(MaxEffect); got != 123 {
		t.Fatalf("wanted 123, got %d", got)
	}
	if got := EffectSlot(Effect(0xFF)); got&waitFlag != 0 {
		t.Fatalf("effect slot 0x%02X has the wait flag set", got)
	}
}
