// OpenLager firmware
// https://github.com/d-ronin/openlager
//
// Copyright (c) The OpenLager Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

//go:build tamago || staticcheck

// Package flash implements the minimal STM32F4 embedded flash controller
// operations the bootloader needs: unlock, sector erase, and word
// program. There is no wear levelling, no read-while-write, and no
// multi-bank support here — the bootloader only ever erases and
// reprograms a single fixed application sector.
package flash

import (
	"errors"

	"github.com/d-ronin/openlager/internal/reg"
)

// Flash controller register offsets, relative to Base.
const (
	ACR  = 0x00
	KEYR = 0x04
	SR   = 0x0c
	CR   = 0x10

	CR_PG    = 0
	CR_SER   = 1
	CR_SNB   = 3
	CR_STRT  = 16
	CR_LOCK  = 31

	SR_EOP    = 0
	SR_WRPERR = 4
	SR_PGAERR = 5
	SR_PGPERR = 6
	SR_PGSERR = 7
	SR_BSY    = 16

	errMask = 1<<SR_WRPERR | 1<<SR_PGAERR | 1<<SR_PGPERR | 1<<SR_PGSERR

	key1 = 0x45670123
	key2 = 0xCDEF89AB
)

// ErrFailed is returned by EraseSector and ProgramWord when the
// controller reports an error flag after the operation completes.
var ErrFailed = errors.New("flash: operation failed")

// Controller drives one STM32F4 embedded flash controller instance.
type Controller struct {
	// Base is the FLASH peripheral's register base address.
	Base uint32
}

func (c *Controller) keyr() uint32 { return c.Base + KEYR }
func (c *Controller) sr() uint32   { return c.Base + SR }
func (c *Controller) cr() uint32   { return c.Base + CR }

// Unlock clears the controller's write-protection lock so Erase/Program
// calls take effect. It is idempotent: calling it when already unlocked
// is harmless.
func (c *Controller) Unlock() {
	if reg.Get(c.cr(), CR_LOCK, 1) == 0 {
		return
	}

	reg.Write(c.keyr(), key1)
	reg.Write(c.keyr(), key2)
}

// Lock re-asserts the write-protection lock.
func (c *Controller) Lock() {
	reg.Set(c.cr(), CR_LOCK)
}

func (c *Controller) waitIdle() {
	reg.Wait(c.sr(), SR_BSY, 1, 0)
}

// EraseSector erases sector n (the reference layout's sector numbering,
// not a byte address) and reports ErrFailed if the controller signals a
// write-protect or programming error.
func (c *Controller) EraseSector(n int) error {
	c.waitIdle()

	var cr uint32
	cr = reg.Read(c.cr())
	cr |= 1 << CR_SER
	cr &^= 0b1111 << CR_SNB
	cr |= uint32(n) << CR_SNB
	reg.Write(c.cr(), cr)

	reg.Set(c.cr(), CR_STRT)
	c.waitIdle()

	reg.Clear(c.cr(), CR_SER)

	sr := reg.Read(c.sr())
	reg.Write(c.sr(), sr) // clear flags (write-1-to-clear)

	if sr&errMask != 0 {
		return ErrFailed
	}

	return nil
}

// ProgramWord writes one 32-bit word to addr, which must fall within an
// already-erased region. It reports ErrFailed if the controller signals
// an error after the write completes.
func (c *Controller) ProgramWord(addr uint32, w uint32) error {
	c.waitIdle()

	// Word (x32) parallelism: PSIZE field, bits [9:8] of CR, left at its
	// reset value of 0 (x8) is wrong for a 32-bit store; this firmware
	// always runs at full VDD so x32 (0b10) is safe and fastest.
	const psizeX32 = 0b10
	cr := reg.Read(c.cr())
	cr &^= 0b11 << 8
	cr |= psizeX32 << 8
	cr |= 1 << CR_PG
	reg.Write(c.cr(), cr)

	reg.Write(addr, w)

	c.waitIdle()
	reg.Clear(c.cr(), CR_PG)

	sr := reg.Read(c.sr())
	reg.Write(c.sr(), sr)

	if sr&errMask != 0 {
		return ErrFailed
	}

	if reg.Read(addr) != w {
		return ErrFailed
	}

	return nil
}
