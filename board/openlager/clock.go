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

// RCC register offsets.
const (
	rccBase = 0x40023800

	RCC_CR      = 0x00
	RCC_PLLCFGR = 0x04
	RCC_CFGR    = 0x08
	RCC_AHB1ENR = 0x30
	RCC_APB1ENR = 0x40
	RCC_APB2ENR = 0x44

	CR_HSEON  = 16
	CR_HSERDY = 17
	CR_PLLON  = 24
	CR_PLLRDY = 25

	CFGR_SW    = 0
	CFGR_SWS   = 2
	CFGR_HPRE  = 4
	CFGR_PPRE1 = 10
	CFGR_PPRE2 = 13

	SW_PLL = 0b10

	AHB1ENR_GPIOAEN = 0
	AHB1ENR_GPIOBEN = 1
	AHB1ENR_GPIOCEN = 2
	AHB1ENR_GPIODEN = 3

	APB2ENR_USART1EN = 4
	APB2ENR_SDIOEN   = 11
	APB2ENR_SYSCFGEN = 14
)

// FLASH (embedded flash controller) ACR register, for wait-state latency.
const (
	flashACR = 0x40023c00

	ACR_LATENCY = 0
)

// hseStartupAttempts bounds the HSE-ready poll: the reference design falls
// back to the internal RC oscillator (and flags osc_err) rather than hang
// forever waiting for a crystal that may not be populated.
const hseStartupAttempts = 100000

// systemClockHz tracks which clock tree is currently active, so
// apb1ClockHz/apb2ClockHz (and so the USART baud rate divisor) stay
// correct whether this is the application or the loader build.
var systemClockHz uint32 = LoaderSysClockHz

// OscillatorFailed is set by initClocks when the external oscillator never
// became ready and the PLL had to fall back to the internal RC source.
// main blinks "XOSC " (non-fatal) when this is set, matching the
// original firmware's osc_err flag.
var OscillatorFailed bool

// AppSysClockHz and LoaderSysClockHz are the two clock trees this board
// ever runs at: the application runs the PLL up to 96MHz for full SD
// throughput, while the loader's system clock deliberately stays on the
// 16MHz HSI, "just run from 16MHz RC osc, no wait states" as the original
// bootloader puts it, to keep the update path simple and robust. The
// loader runs the PLL only to clock the SD peripheral.
const (
	AppSysClockHz    = 96000000
	LoaderSysClockHz = 16000000
)

// initAppClocks brings the PLL up to 96MHz from HSE (falling back to HSI
// on a missing/failed crystal), programs the bus dividers, and enables
// the GPIO/USART1/SDIO peripheral clocks the application needs. It
// mirrors openlager.c's startup sequence instruction for instruction.
func initAppClocks() {
	reg.Set(rccBase+RCC_CR, CR_HSEON)

	// SysTick is not running yet, so this poll is bounded by an
	// iteration count rather than a tick deadline.
	hseReady := false
	for i := 0; i < hseStartupAttempts; i++ {
		if reg.Get(rccBase+RCC_CR, CR_HSERDY, 1) == 1 {
			hseReady = true
			break
		}
	}

	// PLLM=8 (/8 = 2MHz from either a 16MHz HSI or the board's 16MHz
	// HSE crystal), PLLN=96 (*96 = 192MHz VCO), PLLP=2 (/2 = 96MHz
	// SYSCLK, a slight underclock for margin), PLLQ=5 (/5 = 38.4MHz
	// feeding SDIO, under the 48MHz peripheral maximum).
	const (
		pllm = 8
		plln = 96
		pllp = 2 // encoded as (pllp/2 - 1) = 0 in PLLCFGR
		pllq = 5
	)

	var pllSrcHSE uint32
	if hseReady {
		pllSrcHSE = 1
	} else {
		OscillatorFailed = true
	}

	pllcfgr := uint32(pllm) | uint32(plln)<<6 | uint32((pllp/2)-1)<<16 | pllSrcHSE<<22 | uint32(pllq)<<24
	reg.Write(rccBase+RCC_PLLCFGR, pllcfgr)

	reg.Set(rccBase+RCC_CR, CR_PLLON)

	// 3 wait states are required above 90MHz at the reference board's
	// operating voltage.
	reg.SetN(flashACR, ACR_LATENCY, 0b1111, 3)

	tick.Busyloop(func() bool {
		return reg.Get(rccBase+RCC_CR, CR_PLLRDY, 1) == 1
	}, hseStartupAttempts)

	reg.SetN(rccBase+RCC_CFGR, CFGR_HPRE, 0b1111, 0)  // AHB = SYSCLK/1 = 96MHz
	reg.SetN(rccBase+RCC_CFGR, CFGR_PPRE1, 0b111, 0b100) // APB1 = AHB/2 = 48MHz
	reg.SetN(rccBase+RCC_CFGR, CFGR_PPRE2, 0b111, 0)     // APB2 = AHB/1 = 96MHz

	reg.SetN(rccBase+RCC_CFGR, CFGR_SW, 0b11, SW_PLL)

	tick.Busyloop(func() bool {
		return reg.Get(rccBase+RCC_CFGR, CFGR_SWS, 0b11) == SW_PLL
	}, hseStartupAttempts)

	systemClockHz = AppSysClockHz

	enableAppPeripheralClocks()
}

// initLoaderClocks keeps the bootloader's system clock on the 16MHz HSI,
// so the update path has the smallest possible number of things that can
// go wrong before it can blink a diagnostic. The PLL is started from the
// HSI only for its 38.4MHz SDIO output; SYSCLK is never switched to it.
func initLoaderClocks() {
	// PLLM=8, PLLN=96, PLLQ=5, PLLSRC=HSI: 2MHz in, 192MHz VCO, 38.4MHz
	// to SDIO.
	reg.Write(rccBase+RCC_PLLCFGR, uint32(8)|uint32(96)<<6|uint32(5)<<24)
	reg.Set(rccBase+RCC_CR, CR_PLLON)
	reg.Wait(rccBase+RCC_CR, CR_PLLRDY, 1, 1)

	enableAppPeripheralClocks()
}

func enableAppPeripheralClocks() {
	reg.SetN(rccBase+RCC_AHB1ENR, 0, 0b1111, 1<<AHB1ENR_GPIOAEN|1<<AHB1ENR_GPIOBEN|1<<AHB1ENR_GPIOCEN|1<<AHB1ENR_GPIODEN)
	reg.Set(rccBase+RCC_APB2ENR, APB2ENR_USART1EN)
	reg.Set(rccBase+RCC_APB2ENR, APB2ENR_SDIOEN)
	reg.Set(rccBase+RCC_APB2ENR, APB2ENR_SYSCFGEN)
}

// apb1ClockHz and apb2ClockHz report the current peripheral bus
// frequencies, used by the USART driver's baud rate divisor math.
func apb1ClockHz() uint32 {
	if systemClockHz == AppSysClockHz {
		return AppSysClockHz / 2
	}
	return LoaderSysClockHz
}

func apb2ClockHz() uint32 {
	return systemClockHz
}
