// OpenLager firmware
// https://github.com/d-ronin/openlager
//
// Copyright (c) The OpenLager Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

//go:build tamago || staticcheck

package openlager

import (
	"github.com/d-ronin/openlager/internal/reg"
	"github.com/d-ronin/openlager/tick"
)

// SysTick registers, part of the Cortex-M system control space.
const (
	systickBase = 0xE000E010

	SYST_CSR   = 0x00
	SYST_RVR   = 0x04
	SYST_CVR   = 0x08

	CSR_ENABLE    = 0
	CSR_TICKINT   = 1
	CSR_CLKSOURCE = 2
)

// TickHz is the system tick frequency, matching the rate the tick package
// assumes every timeout is expressed against (4ms/tick).
const TickHz = 250

// initSysTick programs SysTick to fire at TickHz against whatever clock
// tree is currently active and enables its interrupt.
func initSysTick() {
	reload := systemClockHz/TickHz - 1

	reg.Write(systickBase+SYST_RVR, reload)
	reg.Write(systickBase+SYST_CVR, 0)
	reg.SetN(systickBase+SYST_CSR, 0, 0b111, 1<<CSR_ENABLE|1<<CSR_TICKINT|1<<CSR_CLKSOURCE)
}

// SysTick_Handler is the name the vendor startup file's weak vector table
// expects for the SysTick exception; the linker-provided vector table
// (outside Go's reach, like the teacher's own reset trampoline) resolves
// it by that name.
func SysTick_Handler() {
	tick.Tock()
}
