// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package drv2605l

import "fmt"

// Register is the address of a DRV2605L register.
type Register uint8

const (
	RegStatus                Register = 0x00
	RegMode                  Register = 0x01
	RegRTPInput              Register = 0x02
	RegLibrarySelection      Register = 0x03
	RegWaveformSequencer1    Register = 0x04
	RegWaveformSequencer2    Register = 0x05
	RegWaveformSequencer3    Register = 0x06
	RegWaveformSequencer4    Register = 0x07
	RegWaveformSequencer5    Register = 0x08
	RegWaveformSequencer6    Register = 0x09
	RegWaveformSequencer7    Register = 0x0A
	RegWaveformSequencer8    Register = 0x0B
	RegGo                    Register = 0x0C
	RegOverdriveTimeOffset   Register = 0x0D
	RegSustainTimeOffsetPos  Register = 0x0E
	RegSustainTimeOffsetNeg  Register = 0x0F
	RegBrakeTimeOffset       Register = 0x10
	RegAudioToVibeControl    Register = 0x11
	RegAudioToVibeMinInput   Register = 0x12
	RegAudioToVibeMaxInput   Register = 0x13
	RegAudioToVibeMinOutput  Register = 0x14
	RegAudioToVibeMaxOutput  Register = 0x15
	RegRatedVoltage          Register = 0x16
	RegOverdriveClampVoltage Register = 0x17
	RegAutoCalibCompResult   Register = 0x18
	RegAutoCalibBackEMF      Register = 0x19
	RegFeedbackControl       Register = 0x1A
	RegControl1              Register = 0x1B
	RegControl2              Register = 0x1C
	RegControl3              Register = 0x1D
	RegControl4              Register = 0x1E
	RegControl5              Register = 0x1F
	RegLRAOpenLoopPeriod     Register = 0x20
	RegVBATMonitor           Register = 0x21
	RegLRAResonancePeriod    Register = 0x22

	// RegisterCount is the number of addressable registers, 0x00 to 0x22.
	RegisterCount = int(RegLRAResonancePeriod) + 1
)

var registerNames = [RegisterCount]string{
	"STATUS",
	"MODE",
	"RTP_INPUT",
	"LIBRARY_SELECTION",
	"WAVEFORM_SEQUENCER_1",
	"WAVEFORM_SEQUENCER_2",
	"WAVEFORM_SEQUENCER_3",
	"WAVEFORM_SEQUENCER_4",
	"WAVEFORM_SEQUENCER_5",
	"WAVEFORM_SEQUENCER_6",
	"WAVEFORM_SEQUENCER_7",
	"WAVEFORM_SEQUENCER_8",
	"GO",
	"OVERDRIVE_TIME_OFFSET",
	"SUSTAIN_TIME_OFFSET_POS",
	"SUSTAIN_TIME_OFFSET_NEG",
	"BRAKE_TIME_OFFSET",
	"AUDIO_TO_VIBE_CONTROL",
	"AUDIO_TO_VIBE_MIN_INPUT",
	"AUDIO_TO_VIBE_MAX_INPUT",
	"AUDIO_TO_VIBE_MIN_OUTPUT",
	"AUDIO_TO_VIBE_MAX_OUTPUT",
	"RATED_VOLTAGE",
	"OVERDRIVE_CLAMP_VOLTAGE",
	"AUTO_CALIB_COMP_RESULT",
	"AUTO_CALIB_BACK_EMF_RESULT",
	"FEEDBACK_CONTROL",
	"CONTROL1",
	"CONTROL2",
	"CONTROL3",
	"CONTROL4",
	"CONTROL5",
	"LRA_OPEN_LOOP_PERIOD",
	"VBAT_MONITOR",
	"LRA_RESONANCE_PERIOD",
}

func (r Register) String() string {
	if int(r) < RegisterCount {
		return registerNames[r]
	}
	return fmt.Sprintf("Register(0x%02X)", uint8(r))
}

// Bit fields.
const (
	modeMask     byte = 0x07
	modeStandby  byte = 1 << 6
	modeReset    byte = 1 << 7
	goBit        byte = 0x01
	statusDiag   byte = 1 << 3
	statusIDMask byte = 0x07
	statusIDPos       = 5
	waitFlag     byte = 0x80
	bemfGainMask byte = 0x03

	feedbackLRA byte = 0x80
	feedbackERM byte = 0x00
)

// readReg reads a single register with one write-then-read transaction.
func (d *Dev) readReg(reg Register) (byte, error) {
	var buf [1]byte
	if err := d.c.Tx([]byte{byte(reg)}, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

// writeReg writes value to a single register.
func (d *Dev) writeReg(reg Register, value byte) error {
	return d.c.Tx([]byte{byte(reg), value}, nil)
}
