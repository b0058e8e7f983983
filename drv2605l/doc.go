// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package drv2605l controls a Texas Instruments DRV2605L haptic driver for ERM
// and LRA actuators over I²C.
//
// The driver covers mode control, the 8 slot waveform sequencer with the ROM
// effect libraries, auto-calibration, real-time playback and a heartbeat
// renderer built on top of them. The DRV2604, DRV2604L and DRV2605 share the
// register map and work too, minus the ROM libraries on the DRV2604 parts.
//
// # Execution strategies
//
// The timed pauses between transactions go through a Waiter. Blocking sleeps
// the calling goroutine, Cooperative waits on a timer and returns early when
// the context passed to the long running operations is cancelled. Both issue
// exactly the same register transactions.
//
// # Errors
//
// Bus errors are returned unmodified. Operations made of several writes are not
// transactional: after any error call Init to bring the chip back to a known
// state.
//
// # Datasheet
//
// https://www.ti.com/lit/ds/symlink/drv2605l.pdf
package drv2605l
