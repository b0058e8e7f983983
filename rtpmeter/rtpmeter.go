// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package rtpmeter shows real-time playback amplitudes as a bar in the
// terminal using ANSI color codes.
//
// Useful to watch a heartbeat pattern without an actuator attached, for
// example with drv2605ltest.Sim.OnRTP.
package rtpmeter

import (
	"bytes"
	"fmt"
	"image/color"
	"io"
	"sync"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"periph.io/x/conn/v3"
)

// Opts represents the options available for the meter.
type Opts struct {
	// Width is the number of cells of the bar. Defaults to 32.
	Width int
	// Palette defaults to ansi256.Default.
	Palette *ansi256.Palette
	// W defaults to a colorable stdout.
	W io.Writer

	_ struct{}
}

// Dev is a bar meter that outputs to the console.
type Dev struct {
	mu      sync.Mutex
	w       io.Writer
	width   int
	palette ansi256.Palette
	buf     bytes.Buffer
}

// New returns a Dev that displays at the console.
func New(opts *Opts) *Dev {
	if opts == nil {
		opts = &Opts{}
	}
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	w := opts.W
	if w == nil {
		w = colorable.NewColorableStdout()
	}
	width := opts.Width
	if width <= 0 {
		width = 32
	}
	return &Dev{w: w, width: width, palette: *p}
}

func (d *Dev) String() string {
	return "RTPMeter"
}

// Halt implements conn.Resource.
//
// It resets the terminal attributes and moves to the next line.
func (d *Dev) Halt() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, err := d.w.Write([]byte("\n\033[0m"))
	return err
}

// Show redraws the bar for amplitude.
//
// amplitude uses the default signed RTP format: 0x7F is full scale forward
// drive and values with the high bit set are negative drive, shown by
// magnitude.
func (d *Dev) Show(amplitude byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	lit := litCells(amplitude, d.width)
	d.buf.Reset()
	_, _ = d.buf.WriteString("\r\033[0m")
	for i := 0; i < d.width; i++ {
		c := off
		if i < lit {
			c = cellColor(i, d.width)
		}
		_, _ = io.WriteString(&d.buf, d.palette.Block(c))
	}
	_, _ = fmt.Fprintf(&d.buf, "\033[0m 0x%02X", amplitude)
	_, err := d.buf.WriteTo(d.w)
	return err
}

var off = color.NRGBA{0x20, 0x20, 0x20, 255}

// litCells returns the number of cells of a bar of width cells lit at
// amplitude.
func litCells(amplitude byte, width int) int {
	m := int(int8(amplitude))
	if m < 0 {
		m = -m
	}
	n := (m*width + 126) / 127
	if n > width {
		n = width
	}
	return n
}

// cellColor fades from green at the start of the bar to red at its end.
func cellColor(i, width int) color.NRGBA {
	if width <= 1 {
		return color.NRGBA{0, 255, 0, 255}
	}
	r := byte(255 * i / (width - 1))
	return color.NRGBA{r, 255 - r, 0, 255}
}

var _ conn.Resource = &Dev{}
