// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// drv2605l plays effects and heartbeats on a DRV2605L haptic driver.
//
// With --simulate the chip is simulated and real-time playback is shown as
// a bar in the terminal.
package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := newApp(&runner{ctx: ctx, out: os.Stdout})
	if err := app.Run(os.Args); err != nil {
		slog.Error("drv2605l failed", "error", err)
		stop()
		os.Exit(1)
	}
}

func newApp(r *runner) *cli.App {
	app := cli.NewApp()
	app.Name = "drv2605l"
	app.Usage = "drive a DRV2605L haptic controller"
	app.Version = "1.0.0"
	app.Writer = r.out
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config, c",
			Usage: "YAML configuration file",
		},
		cli.StringFlag{
			Name:  "bus",
			Usage: "I²C bus name, overrides the configuration",
		},
		cli.BoolFlag{
			Name:  "simulate",
			Usage: "use a simulated chip instead of the I²C bus",
		},
		cli.BoolFlag{
			Name:  "blocking",
			Usage: "use the blocking execution strategy",
		},
		cli.BoolFlag{
			Name:  "verbose, v",
			Usage: "log debug messages",
		},
	}
	app.Before = func(c *cli.Context) error {
		setupLogging(os.Stderr, c.GlobalBool("verbose"))
		return nil
	}
	app.Commands = r.commands()
	return app
}

func setupLogging(w io.Writer, verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}
