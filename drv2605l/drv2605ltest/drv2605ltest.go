// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package drv2605ltest implements a simulated DRV2605L as an i2c.Bus, so code
// using the drv2605l package can be exercised without hardware.
//
// The simulation works at the register level: it keeps the register file,
// applies the reset bit, self-clears the GO bit after a configurable number of
// polls and produces auto-calibration results. It does not model the
// actuator.
package drv2605ltest

import (
	"errors"
	"fmt"
	"sync"

	"github.com/GermanBionicSystems/haptics/drv2605l"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2ctest"
	"periph.io/x/conn/v3/physic"
)

// Auto-calibration results written by the simulation.
const (
	CalibratedCompensation byte = 0x0D
	CalibratedBackEMF      byte = 0x8A
	CalibratedBackEMFGain  byte = 0x02
)

// defaults is the register file after power up or reset, per the datasheet,
// without the device id bits of the status register.
var defaults = [drv2605l.RegisterCount]byte{
	drv2605l.RegMode:                  0x40,
	drv2605l.RegLibrarySelection:      0x01,
	drv2605l.RegWaveformSequencer1:    0x01,
	drv2605l.RegAudioToVibeMinInput:   0x19,
	drv2605l.RegAudioToVibeMaxInput:   0xFF,
	drv2605l.RegAudioToVibeMinOutput:  0x19,
	drv2605l.RegAudioToVibeMaxOutput:  0xFF,
	drv2605l.RegAudioToVibeControl:    0x05,
	drv2605l.RegRatedVoltage:          0x3E,
	drv2605l.RegOverdriveClampVoltage: 0x8C,
	drv2605l.RegAutoCalibCompResult:   0x0C,
	drv2605l.RegAutoCalibBackEMF:      0x6C,
	drv2605l.RegFeedbackControl:       0x36,
	drv2605l.RegControl1:              0x93,
	drv2605l.RegControl2:              0xF5,
	drv2605l.RegControl3:              0xA0,
	drv2605l.RegControl4:              0x20,
	drv2605l.RegControl5:              0x80,
	drv2605l.RegLRAOpenLoopPeriod:     0x33,
}

const (
	modeMask    = 0x07
	modeStandby = 0x40
	modeReset   = 0x80
	statusDiag  = 0x08
)

// Sim is a simulated DRV2605L. The zero value is not usable, use New.
type Sim struct {
	// GoPolls is the number of reads of the GO register that still report the
	// bit set after it was asserted. 0 completes immediately, a negative value
	// never completes.
	GoPolls int
	// CalibrationFails makes auto-calibration complete with the diagnostic
	// bit of the status register set.
	CalibrationFails bool
	// OnRTP, if set, is called with every amplitude written to the RTP input
	// register while the chip is in real-time playback mode and out of
	// standby. It must not call back into the Sim.
	OnRTP func(amplitude byte)

	mu     sync.Mutex
	id     byte
	regs   [drv2605l.RegisterCount]byte
	goLeft int
	ops    []i2ctest.IO
}

// New returns a simulated chip reporting id, such as drv2605l.IDDRV2605L, in
// its status register.
func New(id uint8) *Sim {
	s := &Sim{id: id}
	s.reset()
	return s
}

func (s *Sim) String() string {
	return "drv2605ltest.Sim"
}

// Tx implements i2c.Bus.
func (s *Sim) Tx(addr uint16, w, r []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops = append(s.ops, i2ctest.IO{Addr: addr, W: append([]byte(nil), w...)})
	if addr != drv2605l.I2CAddr {
		return fmt.Errorf("drv2605ltest: no device at address 0x%02X", addr)
	}
	if len(w) == 0 {
		return errors.New("drv2605ltest: missing register address")
	}
	reg := int(w[0])
	if reg+max(len(w)-1, len(r)) > drv2605l.RegisterCount {
		return fmt.Errorf("drv2605ltest: register 0x%02X out of range", reg)
	}
	if len(r) != 0 {
		for i := range r {
			r[i] = s.read(drv2605l.Register(reg + i))
		}
		s.ops[len(s.ops)-1].R = append([]byte(nil), r...)
		return nil
	}
	for i, v := range w[1:] {
		s.write(drv2605l.Register(reg+i), v)
	}
	return nil
}

// SetSpeed implements i2c.Bus.
func (s *Sim) SetSpeed(f physic.Frequency) error {
	return nil
}

// Close implements i2c.BusCloser.
func (s *Sim) Close() error {
	return nil
}

// Register returns the current value of r without simulating a bus read.
func (s *Sim) Register(r drv2605l.Register) byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.regs[r]
}

// SetRegister changes r without simulating a bus write, for example to
// present a status value or a VBAT sample.
func (s *Sim) SetRegister(r drv2605l.Register, v byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.regs[r] = v
}

// Ops returns a copy of the transactions received so far.
func (s *Sim) Ops() []i2ctest.IO {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]i2ctest.IO(nil), s.ops...)
}

func (s *Sim) reset() {
	s.regs = defaults
	s.regs[drv2605l.RegStatus] = s.id << 5
	s.goLeft = 0
}

func (s *Sim) read(r drv2605l.Register) byte {
	if r == drv2605l.RegGo && s.regs[r]&1 != 0 {
		switch {
		case s.goLeft == 0:
			s.complete()
		case s.goLeft > 0:
			s.goLeft--
		}
	}
	return s.regs[r]
}

func (s *Sim) write(r drv2605l.Register, v byte) {
	switch r {
	case drv2605l.RegStatus:
		// Read only.
	case drv2605l.RegMode:
		if v&modeReset != 0 {
			s.reset()
			return
		}
		s.regs[r] = v
	case drv2605l.RegGo:
		s.regs[r] = v & 1
		if v&1 != 0 {
			s.goLeft = s.GoPolls
			if s.goLeft == 0 {
				s.complete()
			}
		}
	case drv2605l.RegRTPInput:
		s.regs[r] = v
		mode := s.regs[drv2605l.RegMode]
		if s.OnRTP != nil && mode&modeStandby == 0 && drv2605l.Mode(mode&modeMask) == drv2605l.ModeRealTimePlayback {
			s.OnRTP(v)
		}
	default:
		s.regs[r] = v
	}
}

// complete ends the current GO cycle.
func (s *Sim) complete() {
	s.regs[drv2605l.RegGo] = 0
	if drv2605l.Mode(s.regs[drv2605l.RegMode]&modeMask) != drv2605l.ModeAutoCalibration {
		return
	}
	if s.CalibrationFails {
		s.regs[drv2605l.RegStatus] |= statusDiag
		return
	}
	s.regs[drv2605l.RegStatus] &^= statusDiag
	s.regs[drv2605l.RegAutoCalibCompResult] = CalibratedCompensation
	s.regs[drv2605l.RegAutoCalibBackEMF] = CalibratedBackEMF
	s.regs[drv2605l.RegFeedbackControl] = s.regs[drv2605l.RegFeedbackControl]&^0x03 | CalibratedBackEMFGain
}

var _ i2c.BusCloser = &Sim{}
