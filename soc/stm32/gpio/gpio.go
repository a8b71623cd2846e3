// OpenLager firmware
// https://github.com/d-ronin/openlager
//
// Copyright (c) The OpenLager Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

//go:build tamago || staticcheck

// Package gpio implements helpers for GPIO pin configuration on the
// reference STM32F4-class microcontroller, following the same
// register-triplet layout (mode, output data, input data) that every
// Cortex-M GPIO block exposes.
//
// This package is only meant to be used with `GOOS=tamago GOARCH=arm`.
package gpio

import (
	"github.com/d-ronin/openlager/internal/reg"
)

// GPIOx register offsets, relative to a port's base address, common to the
// STM32F4 GPIO block layout.
const (
	MODER = 0x00
	IDR   = 0x10
	ODR   = 0x14
	BSRR  = 0x18
	AFRL  = 0x20
	AFRH  = 0x24

	MODE_IN  = 0b00
	MODE_OUT = 0b01
	MODE_AF  = 0b10
)

// Port represents one GPIO port (PA, PB, ...).
type Port struct {
	// Base is the port's register base address.
	Base uint32
}

// Pin is a single GPIO line, owned exclusively by whichever component
// initializes it (the indicator LED, the SD driver's detect line, ...).
// Once created it is never destroyed, matching the data model's "ownership
// of one GPIO pin ... created once during setup; never destroyed".
type Pin struct {
	base uint32
	num  int
}

// Init returns a handle to pin num of the port. It does not touch the
// port's registers; Out, In or AF configure the pin.
func (p *Port) Init(num int) *Pin {
	pin := &Pin{base: p.Base, num: num}
	return pin
}

// Out configures the pin as output.
func (p *Pin) Out() {
	reg.SetN(p.base+MODER, p.num*2, 0b11, MODE_OUT)
}

// In configures the pin as input.
func (p *Pin) In() {
	reg.SetN(p.base+MODER, p.num*2, 0b11, MODE_IN)
}

// AF configures the pin for alternate function af (0-15), routing it to a
// peripheral (USART, SDIO, ...) instead of plain GPIO I/O. The AFRL/AFRH
// split mirrors the STM32F4 reference manual: pins 0-7 select in AFRL,
// pins 8-15 in AFRH, four bits per pin either way.
func (p *Pin) AF(af int) {
	reg.SetN(p.base+MODER, p.num*2, 0b11, MODE_AF)

	if p.num < 8 {
		reg.SetN(p.base+AFRL, p.num*4, 0b1111, uint32(af))
	} else {
		reg.SetN(p.base+AFRH, (p.num-8)*4, 0b1111, uint32(af))
	}
}

// High drives the pin high using the atomic bit-set register (BSRR), so a
// concurrent access to a sibling pin on the same port can never race with
// this write.
func (p *Pin) High() {
	reg.Write(p.base+BSRR, 1<<uint(p.num))
}

// Low drives the pin low via the BSRR reset half (bits [31:16]).
func (p *Pin) Low() {
	reg.Write(p.base+BSRR, 1<<uint(p.num+16))
}

// Set drives the pin according to high.
func (p *Pin) Set(high bool) {
	if high {
		p.High()
	} else {
		p.Low()
	}
}

// Toggle inverts the pin's output level.
func (p *Pin) Toggle() {
	p.Set(!p.Value())
}

// Value returns the pin's current input level.
func (p *Pin) Value() bool {
	return reg.Get(p.base+IDR, p.num, 1) == 1
}
