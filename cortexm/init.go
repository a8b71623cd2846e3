// OpenLager firmware
// https://github.com/d-ronin/openlager
//
// Copyright (c) The OpenLager Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

//go:build tamago || staticcheck

// Package cortexm implements the Cortex-M startup/reset boundary (C9):
// the handful of steps expressible in Go over memory-mapped registers
// between the forked runtime's assembly reset trampoline and the first
// line of main. bss-clear, data-copy and the no-prologue reset entry
// point itself remain the trampoline's responsibility, exactly as the
// upstream runtime's own arm.Init contains no bss/data copy code either —
// that is a runtime concern upstream of any SoC tree.
package cortexm

import (
	_ "unsafe"

	"github.com/d-ronin/openlager/internal/reg"
)

// System Control Block registers, relative to SCBBase.
const (
	SCBBase = 0xE000ED00

	VTOR  = 0x08
	CPACR = 0x88
)

// Floating-point unit registers, relative to FPUBase.
const (
	FPUBase = 0xE000EF30

	FPCCR  = 0x04
	FPDSCR = 0x0c

	FPCCR_LSPEN = 30
	FPCCR_ASPEN = 31

	FPDSCR_DN = 25 // default NaN mode
	FPDSCR_FZ = 24 // flush-to-zero mode
)

// cpacrFull gives both floating point coprocessors (CP10, CP11) full
// access, privileged and user mode, as a 4-bit field at CPACR[23:20].
const cpacrFull = 0b1111

// Init takes care of the lower level initialization triggered before
// runtime setup (pre World start): configuring the FPU for lazy stacking
// and default NaN/flush-to-zero behaviour. The vector table pointer is
// deliberately not touched here: SetVectorTable depends on a flash
// address the board package computes from Go constants, and Go globals
// are not yet guaranteed initialized this early, so that step waits for
// SetVectorTable to be called explicitly once World has started.
//
//go:linkname Init runtime.hwinit0
func Init() {
	reg.SetN(SCBBase+CPACR, 20, 0b1111, cpacrFull)

	reg.Set(FPUBase+FPCCR, FPCCR_LSPEN)
	reg.Set(FPUBase+FPCCR, FPCCR_ASPEN)

	reg.Set(FPUBase+FPDSCR, FPDSCR_DN)
	reg.Set(FPUBase+FPDSCR, FPDSCR_FZ)
}

// SetVectorTable programs SCB->VTOR with addr, the flash address the
// linker placed the vector table at. It must run before any interrupt
// (SysTick, USART RX) is enabled, but unlike Init it is safe to call
// after World start, from the board package's hwinit (post-World-start)
// hook.
func SetVectorTable(addr uint32) {
	reg.Write(SCBBase+VTOR, addr)
}
