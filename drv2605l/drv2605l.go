// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package drv2605l

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

// I2CAddr is the fixed 7-bit I²C address of the DRV2605L.
const I2CAddr uint16 = 0x5A

// Device identifiers reported in bits 5-7 of the status register.
const (
	IDDRV2605  uint8 = 3
	IDDRV2604  uint8 = 4
	IDDRV2604L uint8 = 6
	IDDRV2605L uint8 = 7
)

// resetSettle is how long the chip needs after a reset before it accepts
// register transactions again.
const resetSettle = 2 * time.Millisecond

var (
	// ErrInvalidParameter is returned when an argument is rejected before any
	// bus transaction is issued.
	ErrInvalidParameter = errors.New("drv2605l: invalid parameter")

	// ErrCalibrationFailed is returned when auto-calibration does not succeed.
	ErrCalibrationFailed = errors.New("drv2605l: calibration failed")

	// ErrCalibrationTimeout is returned when the GO bit is still set after the
	// calibration poll budget is exhausted. It wraps ErrCalibrationFailed.
	ErrCalibrationTimeout = fmt.Errorf("%w: timeout", ErrCalibrationFailed)
)

// Mode is the operating mode held in the low 3 bits of the mode register.
type Mode uint8

const (
	ModeInternalTrigger      Mode = 0
	ModeExternalTriggerEdge  Mode = 1
	ModeExternalTriggerLevel Mode = 2
	ModePWMOrAnalogInput     Mode = 3
	ModeAudioToVibe          Mode = 4
	ModeRealTimePlayback     Mode = 5
	ModeDiagnostics          Mode = 6
	ModeAutoCalibration      Mode = 7
)

func (m Mode) String() string {
	switch m {
	case ModeInternalTrigger:
		return "InternalTrigger"
	case ModeExternalTriggerEdge:
		return "ExternalTriggerEdge"
	case ModeExternalTriggerLevel:
		return "ExternalTriggerLevel"
	case ModePWMOrAnalogInput:
		return "PWMOrAnalogInput"
	case ModeAudioToVibe:
		return "AudioToVibe"
	case ModeRealTimePlayback:
		return "RealTimePlayback"
	case ModeDiagnostics:
		return "Diagnostics"
	case ModeAutoCalibration:
		return "AutoCalibration"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

// MotorType is the actuator technology driven by the chip.
type MotorType uint8

const (
	// ERM is an eccentric rotating mass motor.
	ERM MotorType = iota
	// LRA is a linear resonant actuator.
	LRA
)

func (t MotorType) String() string {
	switch t {
	case ERM:
		return "ERM"
	case LRA:
		return "LRA"
	default:
		return fmt.Sprintf("MotorType(%d)", uint8(t))
	}
}

// Library selects one of the on-chip waveform libraries. The values are passed
// to the chip as is.
type Library uint8

const (
	LibraryEmpty Library = 0
	LibraryA     Library = 1
	LibraryB     Library = 2
	LibraryC     Library = 3
	LibraryD     Library = 4
	LibraryE     Library = 5
	LibraryLRA   Library = 6
	LibraryF     Library = 7
)

// Opts holds the configuration options for the device.
type Opts struct {
	// MotorType is applied by Init. Default is LRA.
	MotorType MotorType
	// Waiter realizes the pauses between transactions. Default is Cooperative.
	Waiter Waiter
}

// DefaultOpts holds the default configuration options for the device.
var DefaultOpts = Opts{
	MotorType: LRA,
	Waiter:    Cooperative,
}

// Dev is a handle to a DRV2605L haptic driver.
//
// Every exported method runs its whole register transaction sequence while
// holding the device lock, so operations issued from different goroutines
// never interleave on the bus.
type Dev struct {
	c      conn.Conn
	wait   Waiter
	motor  MotorType
	mu     sync.Mutex
	hbMu   sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	hbErr  error

	// fgCancel stops a running PlayCustomHeartbeat.
	fgCancel context.CancelFunc
}

// NewI2C returns a handle to the DRV2605L on bus b. No transaction is issued;
// call Init before use. The Opts can be nil.
func NewI2C(b i2c.Bus, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	switch opts.MotorType {
	case ERM, LRA:
	default:
		return nil, fmt.Errorf("%w: motor type %s", ErrInvalidParameter, opts.MotorType)
	}
	w := opts.Waiter
	if w == nil {
		w = Cooperative
	}
	return &Dev{
		c:     &i2c.Dev{Bus: b, Addr: I2CAddr},
		wait:  w,
		motor: opts.MotorType,
	}, nil
}

// String implements conn.Resource.
func (d *Dev) String() string {
	return fmt.Sprintf("DRV2605L{%s}", d.c)
}

// Halt stops a heartbeat started with StartCustomHeartbeat or running in
// PlayCustomHeartbeat, zeroes the real-time playback input and clears the GO
// bit. It returns the error that ended a background heartbeat, if any.
//
// Other long operations, such as AutoCalibrate, are waited for.
//
// Halt implements conn.Resource.
func (d *Dev) Halt() error {
	err := d.stopHeartbeat()
	d.mu.Lock()
	defer d.mu.Unlock()
	if err2 := d.writeReg(RegRTPInput, 0); err2 != nil {
		return err2
	}
	if err2 := d.writeReg(RegGo, 0); err2 != nil {
		return err2
	}
	return err
}

// Init resets the chip, waits for it to settle, takes it out of standby and
// applies the feedback and library configuration of the current motor type.
//
// Init is not transactional. On error the chip is in an unknown state and
// Init should be called again.
func (d *Dev) Init() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.writeReg(RegMode, modeReset); err != nil {
		return err
	}
	if err := d.wait.Wait(context.Background(), resetSettle); err != nil {
		return err
	}
	if err := d.writeReg(RegMode, 0); err != nil {
		return err
	}
	return d.applyMotorType()
}

// Reset sets the reset bit of the mode register.
//
// The chip ignores transactions for about 2ms afterwards; the caller must
// wait before issuing the next one. Init does this itself.
func (d *Dev) Reset() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writeReg(RegMode, modeReset)
}

// ExitStandby clears the standby bit. The whole mode register is written.
func (d *Dev) ExitStandby() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writeReg(RegMode, 0)
}

// EnterStandby sets the standby bit. The whole mode register is written.
func (d *Dev) EnterStandby() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writeReg(RegMode, modeStandby)
}

// SetMode changes the operating mode. The standby, reset and reserved bits of
// the mode register are preserved.
func (d *Dev) SetMode(m Mode) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.setMode(m)
}

func (d *Dev) setMode(m Mode) error {
	cur, err := d.readReg(RegMode)
	if err != nil {
		return err
	}
	return d.writeReg(RegMode, cur&^modeMask|byte(m)&modeMask)
}

// Mode reads the current operating mode.
func (d *Dev) Mode() (Mode, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, err := d.readReg(RegMode)
	return Mode(v & modeMask), err
}

// Standby reports whether the chip is in standby.
func (d *Dev) Standby() (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, err := d.readReg(RegMode)
	return v&modeStandby != 0, err
}

// SetLibrary selects the waveform library used by the sequencer.
func (d *Dev) SetLibrary(l Library) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writeReg(RegLibrarySelection, byte(l))
}

// MotorType returns the motor type last set with SetMotorType or Opts.
func (d *Dev) MotorType() MotorType {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.motor
}

// SetMotorType configures the feedback control and library selection
// registers for t. LRA uses the LRA library, ERM uses library B.
//
// The two registers are written one after the other. If the second write
// fails the chip is left half configured and Init should be called.
func (d *Dev) SetMotorType(t MotorType) error {
	switch t {
	case ERM, LRA:
	default:
		return fmt.Errorf("%w: motor type %s", ErrInvalidParameter, t)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.motor = t
	return d.applyMotorType()
}

func (d *Dev) applyMotorType() error {
	feedback, lib := feedbackERM, LibraryB
	if d.motor == LRA {
		feedback, lib = feedbackLRA, LibraryLRA
	}
	if err := d.writeReg(RegFeedbackControl, feedback); err != nil {
		return err
	}
	return d.writeReg(RegLibrarySelection, byte(lib))
}

// SetRatedVoltage writes the rated voltage register from a value in
// millivolts, scaled on a 5.6V full range and truncated.
func (d *Dev) SetRatedVoltage(mv uint16) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writeReg(RegRatedVoltage, voltageToReg(mv))
}

// SetOverdriveVoltage writes the overdrive clamp voltage register from a value
// in millivolts, scaled like SetRatedVoltage.
func (d *Dev) SetOverdriveVoltage(mv uint16) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writeReg(RegOverdriveClampVoltage, voltageToReg(mv))
}

// voltageToReg returns floor(mv*255/5600). Inputs above 5600mV do not fit the
// register and wrap.
func voltageToReg(mv uint16) byte {
	return byte(uint32(mv) * 255 / 5600)
}

// DeviceID returns the chip identifier from bits 5-7 of the status register.
// See the ID* constants.
func (d *Dev) DeviceID() (uint8, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, err := d.readReg(RegStatus)
	if err != nil {
		return 0, err
	}
	return (v >> statusIDPos) & statusIDMask, nil
}

// BatteryVoltage returns the supply voltage last sampled by the chip. The
// chip only refreshes the value while it is actively driving the actuator.
func (d *Dev) BatteryVoltage() (physic.ElectricPotential, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, err := d.readReg(RegVBATMonitor)
	if err != nil {
		return 0, err
	}
	return physic.ElectricPotential(v) * 5600 * physic.MilliVolt / 255, nil
}

// LRAPeriod returns the measured LRA resonance period. Only meaningful while
// an LRA is being driven in closed loop.
func (d *Dev) LRAPeriod() (time.Duration, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, err := d.readReg(RegLRAResonancePeriod)
	if err != nil {
		return 0, err
	}
	return time.Duration(v) * 98460 * time.Nanosecond, nil
}

// SetRTPInput writes the real-time playback amplitude. It only drives the
// actuator once the chip is in ModeRealTimePlayback.
func (d *Dev) SetRTPInput(value byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writeReg(RegRTPInput, value)
}

// PlayRTP switches to real-time playback and writes value as the amplitude.
func (d *Dev) PlayRTP(value byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.setMode(ModeRealTimePlayback); err != nil {
		return err
	}
	return d.writeReg(RegRTPInput, value)
}

// ReadRegister reads any register.
func (d *Dev) ReadRegister(r Register) (byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.readReg(r)
}

// WriteRegister writes any register.
func (d *Dev) WriteRegister(r Register, value byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writeReg(r, value)
}

var _ conn.Resource = &Dev{}
