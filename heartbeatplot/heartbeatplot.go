// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package heartbeatplot draws the amplitude envelope of a
// drv2605l.HeartbeatPattern, as it is streamed to the RTP input register.
package heartbeatplot

import (
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/GermanBionicSystems/haptics/drv2605l"
	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

// Opts represents the options available to render a pattern.
type Opts struct {
	// Width and Height of the image in pixels. Default to 640x240.
	Width  int
	Height int
	// Cycles is the number of heartbeats drawn. Defaults to 2.
	Cycles int
	// FontSize of the caption in points. Defaults to 14.
	FontSize float64

	_ struct{}
}

// DefaultOpts is the recommended default options.
var DefaultOpts = Opts{Width: 640, Height: 240, Cycles: 2, FontSize: 14}

// Render draws p.
//
// It returns drv2605l.ErrInvalidParameter if p is not a playable pattern.
func Render(p drv2605l.HeartbeatPattern, opts *Opts) (image.Image, error) {
	steps, err := p.Steps()
	if err != nil {
		return nil, err
	}
	o := withDefaults(opts)
	face, err := captionFace(o.FontSize)
	if err != nil {
		return nil, err
	}
	l := newLayout(o, p.Timing().Cycle)

	dc := gg.NewContext(o.Width, o.Height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	// Zero line and one tick per cycle.
	dc.SetRGB(0.6, 0.6, 0.6)
	dc.SetLineWidth(1)
	dc.DrawLine(l.x(0), l.y(0), l.x(l.total), l.y(0))
	for c := 0; c <= o.Cycles; c++ {
		x := l.x(time.Duration(c) * p.Timing().Cycle)
		dc.DrawLine(x, l.y(0), x, l.y(0)+4)
	}
	dc.Stroke()

	dc.SetRGB(0.8, 0.1, 0.1)
	dc.SetLineWidth(2)
	dc.MoveTo(l.x(0), l.y(0))
	var t time.Duration
	for c := 0; c < o.Cycles; c++ {
		for _, s := range steps {
			dc.LineTo(l.x(t), l.y(s.Amplitude))
			t += s.Hold
			dc.LineTo(l.x(t), l.y(s.Amplitude))
		}
	}
	dc.Stroke()

	dc.SetFontFace(face)
	dc.SetRGB(0, 0, 0)
	dc.DrawString(fmt.Sprintf("%d bpm  S1 0x%02X  S2 0x%02X  cycle %s", p.BPM, p.S1Amplitude, p.S2Amplitude, p.Timing().Cycle), l.left, l.top-6)
	return dc.Image(), nil
}

// SavePNG renders p and writes it to path.
func SavePNG(path string, p drv2605l.HeartbeatPattern, opts *Opts) error {
	img, err := Render(p, opts)
	if err != nil {
		return err
	}
	return gg.SavePNG(path, img)
}

//

func withDefaults(opts *Opts) Opts {
	o := DefaultOpts
	if opts == nil {
		return o
	}
	if opts.Width > 0 {
		o.Width = opts.Width
	}
	if opts.Height > 0 {
		o.Height = opts.Height
	}
	if opts.Cycles > 0 {
		o.Cycles = opts.Cycles
	}
	if opts.FontSize > 0 {
		o.FontSize = opts.FontSize
	}
	return o
}

const margin = 16

// layout maps time and amplitude to pixel coordinates.
type layout struct {
	left, top, width, height float64
	total                    time.Duration
}

func newLayout(o Opts, cycle time.Duration) layout {
	top := margin + o.FontSize*1.5
	return layout{
		left:   margin,
		top:    top,
		width:  float64(o.Width) - 2*margin,
		height: float64(o.Height) - top - margin,
		total:  time.Duration(o.Cycles) * cycle,
	}
}

func (l *layout) x(t time.Duration) float64 {
	return l.left + l.width*float64(t)/float64(l.total)
}

// y places 0x7F, full scale in the signed RTP format, at the top.
func (l *layout) y(amplitude byte) float64 {
	m := int(int8(amplitude))
	if m < 0 {
		m = -m
	}
	if m > 127 {
		m = 127
	}
	return l.top + l.height*(1-float64(m)/127)
}

var (
	fontOnce sync.Once
	goFont   *truetype.Font
	fontErr  error
)

func captionFace(size float64) (font.Face, error) {
	fontOnce.Do(func() {
		goFont, fontErr = truetype.Parse(goregular.TTF)
	})
	if fontErr != nil {
		return nil, fontErr
	}
	return truetype.NewFace(goFont, &truetype.Options{Size: size}), nil
}
