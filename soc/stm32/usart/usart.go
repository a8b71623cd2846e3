// OpenLager firmware
// https://github.com/d-ronin/openlager
//
// Copyright (c) The OpenLager Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

//go:build tamago || staticcheck

// Package usart implements a driver for the STM32F4 USART controller,
// configured for a fixed 8N1 frame and an interrupt-driven receiver: the
// serial ring buffer (package ring) is fed entirely from the RXNE interrupt
// handler, never from a polled Rx call, so that no incoming byte is lost
// while the main loop is busy writing a block to the SD card.
//
// This package is only meant to be used with `GOOS=tamago GOARCH=arm`.
package usart

import (
	"github.com/d-ronin/openlager/bits"
	"github.com/d-ronin/openlager/internal/reg"
)

// USARTx register offsets, common to the STM32F4 USART1/2/3/... blocks.
const (
	SR   = 0x00
	DR   = 0x04
	BRR  = 0x08
	CR1  = 0x0c
	CR2  = 0x10
	CR3  = 0x14
	GTPR = 0x18

	SR_TXE  = 7
	SR_RXNE = 5
	SR_ORE  = 3
	SR_FE   = 1
	SR_PE   = 0

	CR1_UE    = 13
	CR1_M     = 12
	CR1_TE    = 3
	CR1_RE    = 2
	CR1_RXNEIE = 5

	CR2_STOP = 12
)

// DefaultBaudrate is used when Baudrate is left unset.
const DefaultBaudrate = 115200

// USART represents a serial port instance.
type USART struct {
	// Base is the peripheral's register base address.
	Base uint32
	// Clock returns the peripheral clock frequency in Hz feeding this
	// USART instance (APB1 or APB2 depending on which port it is).
	Clock func() uint32
	// Baudrate is the configured line rate; it defaults to 115200 when
	// left at zero, matching the loader/app consoles.
	Baudrate uint32

	// OnRx is invoked from the receive interrupt handler with each byte
	// as it arrives. It must not block: the design's ring buffer Push is
	// the only thing this is ever wired to, and Push is lock-free and
	// allocation-free for exactly this reason.
	OnRx func(byte)

	sr  uint32
	dr  uint32
	brr uint32
	cr1 uint32
	cr2 uint32
	cr3 uint32
}

// Init configures and enables the USART for 8N1 operation with the receive
// interrupt enabled.
func (hw *USART) Init() {
	if hw.Base == 0 || hw.Clock == nil {
		panic("invalid USART controller instance")
	}

	if hw.Baudrate == 0 {
		hw.Baudrate = DefaultBaudrate
	}

	hw.sr = hw.Base + SR
	hw.dr = hw.Base + DR
	hw.brr = hw.Base + BRR
	hw.cr1 = hw.Base + CR1
	hw.cr2 = hw.Base + CR2
	hw.cr3 = hw.Base + CR3

	// disable before reconfiguring
	reg.Write(hw.cr1, 0)
	reg.Write(hw.cr2, 0)
	reg.Write(hw.cr3, 0)

	// USARTDIV = Clock / (16 * baudrate), programmed as a 12.4 fixed
	// point value in BRR (mantissa in bits [15:4], fraction in [3:0]).
	div := (hw.Clock()*25)/(4*hw.Baudrate)
	mantissa := div / 100
	fraction := ((div - mantissa*100) * 16) / 100
	reg.Write(hw.brr, (mantissa<<4)|(fraction&0xf))

	var cr1 uint32
	bits.Set(&cr1, CR1_TE)
	bits.Set(&cr1, CR1_RE)
	bits.Set(&cr1, CR1_RXNEIE)
	bits.Set(&cr1, CR1_UE)
	reg.Write(hw.cr1, cr1)
}

func (hw *USART) txEmpty() bool {
	return reg.Get(hw.sr, SR_TXE, 1) == 1
}

func (hw *USART) rxReady() bool {
	return reg.Get(hw.sr, SR_RXNE, 1) == 1
}

// Tx transmits a single character, blocking until the transmit data
// register is free.
func (hw *USART) Tx(c byte) {
	for !hw.txEmpty() {
	}
	reg.Write(hw.dr, uint32(c))
}

// Write sends buf a byte at a time.
func (hw *USART) Write(buf []byte) (n int, _ error) {
	for n = 0; n < len(buf); n++ {
		hw.Tx(buf[n])
	}
	return
}

// HandleIRQ services the USART interrupt: on a pending RXNE it drains the
// single-byte receive register and forwards the byte to OnRx, clearing
// overrun/framing/parity errors along the way rather than latching them,
// since the ring buffer has no way to represent a corrupted byte, only a
// missing one.
func (hw *USART) HandleIRQ() {
	if !hw.rxReady() {
		return
	}

	sr := reg.Read(hw.sr)
	dr := reg.Read(hw.dr)

	c := byte(dr & 0xff)

	if sr&(1<<SR_ORE|1<<SR_FE|1<<SR_PE) != 0 {
		// Reading SR then DR (already done above) clears ORE/FE/PE on
		// real hardware; nothing further to do but drop the byte.
		return
	}

	if hw.OnRx != nil {
		hw.OnRx(c)
	}
}
