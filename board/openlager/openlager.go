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
	_ "unsafe"

	"github.com/d-ronin/openlager/cortexm"
	"github.com/d-ronin/openlager/indicator"
)

// VectorTableAddress and LoaderVectorTableAddress are the flash addresses
// the application and loader linker scripts place their respective
// vector tables at, matching the reference sector layout: the loader
// occupies sectors 0-3 starting at the bottom of flash, the application
// starts at AppSector (sector 4).
const (
	VectorTableAddress       = 0x08010000
	LoaderVectorTableAddress = 0x08000000
)

// InitApp brings up the application's clock tree, pins, and peripheral
// instances. It is linked as the board-level hardware init hook, run
// after cortexm.Init (runtime.hwinit0) and after World start, so unlike
// cortexm.Init it can safely touch package-level Go variables.
//
//go:linkname InitApp runtime.hwinit
func InitApp() {
	cortexm.SetVectorTable(VectorTableAddress)

	initAppClocks()
	initPins()
	initSysTick()

	LED = indicator.New(ledPin, false)

	UART1.OnRx = nil // set by cmd/openlager once the ring buffer exists
	UART1.Init()

	SD.Init()

	if OscillatorFailed {
		LED.SendMorse("XOSC ")
	}
}

// InitLoader brings up the bootloader's minimal 16MHz clock tree and the
// peripherals it needs: the indicator and the SD card. The system clock
// stays on the HSI (the PLL only clocks SDIO) and the USART is not
// initialized, keeping the update path's dependency surface as small as
// possible.
func InitLoader() {
	cortexm.SetVectorTable(LoaderVectorTableAddress)

	initLoaderClocks()
	initPins()
	initSysTick()

	LED = indicator.New(ledPin, false)

	SD.Init()
}
