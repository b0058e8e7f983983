// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package drv2605l

import (
	"context"
	"time"
)

// Waiter realizes the timed pauses the driver inserts between register
// transactions: the reset settle delay, the calibration poll interval and the
// heartbeat cadence.
//
// The register transactions issued by the driver are the same whichever
// Waiter is used. Only the behavior of a pause differs.
type Waiter interface {
	// Wait pauses for d. It returns a non-nil error if ctx is done, in which
	// case the running operation is aborted.
	Wait(ctx context.Context, d time.Duration) error
}

// WaiterFunc adapts a function to the Waiter interface.
type WaiterFunc func(ctx context.Context, d time.Duration) error

// Wait implements Waiter.
func (f WaiterFunc) Wait(ctx context.Context, d time.Duration) error {
	return f(ctx, d)
}

// Blocking halts the calling goroutine for the whole pause.
//
// A cancelled context is only noticed before and after each pause, so
// aborting a running heartbeat can take up to one cadence step.
var Blocking Waiter = blocking{}

// Cooperative parks the calling goroutine on a timer and returns as soon as
// the context is done, leaving the scheduler free to run other goroutines.
var Cooperative Waiter = cooperative{}

var sleep = time.Sleep

type blocking struct{}

func (blocking) String() string {
	return "blocking"
}

func (blocking) Wait(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	sleep(d)
	return ctx.Err()
}

type cooperative struct{}

func (cooperative) String() string {
	return "cooperative"
}

func (cooperative) Wait(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
