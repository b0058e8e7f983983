// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package drv2605l

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestBlocking(t *testing.T) {
	var slept []time.Duration
	defer func(f func(time.Duration)) { sleep = f }(sleep)
	sleep = func(d time.Duration) { slept = append(slept, d) }

	if err := Blocking.Wait(context.Background(), 10*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	if len(slept) != 1 || slept[0] != 10*time.Millisecond {
		t.Fatalf("unexpected sleeps %v", slept)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Blocking.Wait(ctx, time.Second); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got: %v", err)
	}
	if len(slept) != 1 {
		t.Fatal("slept with a cancelled context")
	}

	// Cancellation during the sleep is reported once it returns.
	ctx, cancel = context.WithCancel(context.Background())
	sleep = func(time.Duration) { cancel() }
	if err := Blocking.Wait(ctx, time.Second); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got: %v", err)
	}
}

func TestCooperative(t *testing.T) {
	if err := Cooperative.Wait(context.Background(), time.Millisecond); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Cooperative.Wait(ctx, 0); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got: %v", err)
	}

	ctx, cancel = context.WithCancel(context.Background())
	go func() {
		time.Sleep(time.Millisecond)
		cancel()
	}()
	start := time.Now()
	if err := Cooperative.Wait(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got: %v", err)
	}
	if d := time.Since(start); d > time.Second {
		t.Fatalf("cancellation took %s", d)
	}
}

func TestWaiterFunc(t *testing.T) {
	var got time.Duration
	w := WaiterFunc(func(ctx context.Context, d time.Duration) error {
		got = d
		return nil
	})
	if err := w.Wait(context.Background(), 3*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	if got != 3*time.Millisecond {
		t.Fatalf("wanted 3ms, got %s", got)
	}
}

func TestStrategyString(t *testing.T) {
	for w, want := range map[Waiter]string{Blocking: "blocking", Cooperative: "cooperative"} {
		if s := w.(fmt.Stringer).String(); s != want {
			t.Fatalf("wanted %q, got %q", want, s)
		}
	}
	if DefaultOpts.Waiter != Cooperative {
		t.Fatal("cooperative is the default strategy")
	}
}
