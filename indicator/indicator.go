// OpenLager firmware
// https://github.com/d-ronin/openlager
//
// Copyright (c) The OpenLager Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

//go:build tamago || staticcheck

// Package indicator drives a single GPIO with Morse-encoded diagnostic
// strings, for a board with no display and no host console: a blinking LED
// is the device's entire user-facing error reporting surface. It is used
// both before and after higher level subsystems (the tick counter, the SD
// card, the filesystem) come up, and from panic paths that may run with
// most of the system already wedged, so it depends on nothing but the GPIO
// pin and the tick counter.
//
// The morse.go table in this package carries no build constraint, so its
// encoding can be exercised by host tests independent of real GPIO
// hardware.
package indicator

import (
	"github.com/d-ronin/openlager/soc/stm32/gpio"
	"github.com/d-ronin/openlager/tick"
)

// Default symbol timing, in ticks at the 250Hz system tick (4ms/tick):
// a 9-tick dot is 36ms, matching the original firmware's time_per_dot.
const DefaultDotTicks = 9

// LED is a single Morse-code capable indicator.
type LED struct {
	pin      *gpio.Pin
	activeHi bool
	dotTicks uint32
}

// New creates an indicator driving pin, configuring it as an output.
// activeHigh reflects the board's wiring: true if driving the pin high
// lights the LED.
func New(pin *gpio.Pin, activeHigh bool) *LED {
	pin.Out()

	l := &LED{
		pin:      pin,
		activeHi: activeHigh,
		dotTicks: DefaultDotTicks,
	}

	l.Set(false)

	return l
}

// Set drives the indicator on or off.
func (l *LED) Set(on bool) {
	l.pin.Set(on == l.activeHi)
}

// Toggle inverts the indicator.
func (l *LED) Toggle() {
	l.pin.Toggle()
}

// element is one unit of Morse timing: on for `on` dots, then off for
// `gap` dots.
func (l *LED) element(on int, gap int) {
	deadline := tick.After(uint32(on) * l.dotTicks)
	l.Set(true)

	for !deadline.Expired() {
	}

	l.Set(false)

	deadline = tick.After(uint32(gap) * l.dotTicks)
	for !deadline.Expired() {
	}
}

// SendMorse blocks until str has been fully signalled: one dot is
// dotTicks ticks, a dash is three dots, the gap between symbols within a
// letter is one dot, the gap between letters is three dots, and the gap
// between words (a space in str) is seven dots. It busy-waits on the tick
// counter rather than sleeping, because it must work from contexts that
// run before the scheduler-like parts of the system exist and from
// pre-clock error paths.
func (l *LED) SendMorse(str string) {
	for _, r := range str {
		if r == ' ' {
			l.gap(7)
			continue
		}

		symbols, ok := morse[r]
		if !ok {
			continue
		}

		for j, sym := range symbols {
			gap := 1
			if j == len(symbols)-1 {
				gap = 3
			}

			switch sym {
			case '.':
				l.element(1, gap)
			case '-':
				l.element(3, gap)
			}
		}
	}
}

// gap busy-waits for n dot durations with the indicator off, used for the
// inter-word pause.
func (l *LED) gap(n int) {
	l.Set(false)
	deadline := tick.After(uint32(n) * l.dotTicks)
	for !deadline.Expired() {
	}
}

// Panic signals str forever, separated by two spaces, and never returns.
// It is the single sink every fatal condition in the tree routes through,
// so that the diagnostic message is the only thing that varies between a
// config parse failure, a flash program failure, and a filesystem error.
func (l *LED) Panic(str string) {
	for {
		l.SendMorse(str)
		l.SendMorse("  ")
	}
}
