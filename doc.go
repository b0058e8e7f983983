// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package haptics is a container for the DRV2605L haptic driver and its
// tools.
//
// See drv2605l for the driver, drv2605l/drv2605ltest for a simulated chip,
// rtpmeter and heartbeatplot to visualize real-time playback, and
// cmd/drv2605l for a command line front end.
package haptics
