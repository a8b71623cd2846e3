// OpenLager firmware
// https://github.com/d-ronin/openlager
//
// Copyright (c) The OpenLager Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package tick implements the monotonic tick counter shared by every
// timeout in the system. The counter is advanced once per period by the
// SysTick interrupt handler installed by the board package (250Hz, 4ms per
// tick, in both the application and the bootloader) and read everywhere
// else as a plain value, exactly as described in the top level design:
// "any timeout is expressed as deadline = now + delta and tested by
// now < deadline".
package tick

import "sync/atomic"

// counter is written only by Tock (the timer ISR) and read by every other
// goroutine via Now; the single word is the entire synchronization
// contract, mirroring how the serial ring's indices rely on atomic
// load/store rather than a lock.
var counter uint32

// Tock advances the tick counter by one. It is called from the SysTick
// interrupt handler and must not block.
func Tock() {
	atomic.AddUint32(&counter, 1)
}

// Now returns the current tick count.
func Now() uint32 {
	return atomic.LoadUint32(&counter)
}

// Deadline is a tick count to compare against with Expired. Subtraction on
// wrapped uint32 values is well defined in Go, so a deadline up to 2^31
// ticks away from "now" (~2.5 days at 250Hz) compares correctly across a
// counter wraparound, which is the only wraparound tolerance the design
// requires ("wraparound is acceptable within any single timeout window").
type Deadline uint32

// After returns the deadline delta ticks from now.
func After(delta uint32) Deadline {
	return Deadline(Now() + delta)
}

// Expired reports whether the deadline has passed.
func (d Deadline) Expired() bool {
	return int32(Now()-uint32(d)) >= 0
}

// Busyloop polls fn until it reports true or timeout ticks elapse, without
// sleeping. It reports whether fn returned true before the timeout. The SD
// driver's card-busy poll and the board's clock bring-up use it; the
// indicator's Morse timing and the serial ring consumer use After and
// Expired directly, and the SD driver's command/response polling is
// bounded by an iteration count instead.
func Busyloop(fn func() bool, timeout uint32) bool {
	deadline := After(timeout)

	for {
		if fn() {
			return true
		}

		if deadline.Expired() {
			return false
		}
	}
}
