// OpenLager firmware
// https://github.com/d-ronin/openlager
//
// Copyright (c) The OpenLager Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

//go:build tamago || staticcheck

// Package openlager provides the board-level wiring for the reference
// STM32F4 OpenLager hardware: pin mapping, clock bring-up, and the
// package-level peripheral instances (indicator, USART, SDIO, flash) the
// application and loader builds both start from. It is the equivalent of
// the teacher's board/f-secure/usbarmory/mark-two package, adapted from a
// USB armory's iMX6 peripherals to this board's STM32F4 ones.
package openlager

import (
	"github.com/d-ronin/openlager/indicator"
	"github.com/d-ronin/openlager/soc/stm32/flash"
	"github.com/d-ronin/openlager/soc/stm32/gpio"
	"github.com/d-ronin/openlager/soc/stm32/sdio"
	"github.com/d-ronin/openlager/soc/stm32/usart"
)

// GPIO port base addresses, STM32F4 AHB1 memory map.
const (
	GPIOA = 0x40020000
	GPIOB = 0x40020400
	GPIOC = 0x40020800
	GPIOD = 0x40020c00
)

var (
	portA = &gpio.Port{Base: GPIOA}
	portB = &gpio.Port{Base: GPIOB}
	portC = &gpio.Port{Base: GPIOC}
	portD = &gpio.Port{Base: GPIOD}
)

// Peripheral base addresses, STM32F4 APB2 memory map.
const (
	USART1Base = 0x40011000
	SDIOBase   = 0x40012c00
	FlashBase  = 0x40023c00
)

// Alternate function selectors, STM32F4 reference manual AF table.
const (
	afUSART1 = 7
	afSDIO   = 12
)

// Reference pin assignments. The LED matches the original firmware's "LED
// on PB9" comment; USART1 and SDIO use their most common STM32F4 Discovery
// board routing (USART1 on PA9/PA10, SDIO on its dedicated PC8-12/PD2
// lines) since the original schematic is not part of this distillation.
var (
	ledPin = portB.Init(9)

	usart1TxPin = portA.Init(9)
	usart1RxPin = portA.Init(10)

	sdD0Pin  = portC.Init(8)
	sdD1Pin  = portC.Init(9)
	sdD2Pin  = portC.Init(10)
	sdD3Pin  = portC.Init(11)
	sdCKPin  = portC.Init(12)
	sdCMDPin = portD.Init(2)
)

// LED is the board's single diagnostic indicator, active-low to match the
// original firmware's led_init_pin(..., false) inverted polarity.
var LED *indicator.LED

// UART1 is the application's serial console and log source, feeding the
// ring buffer via OnRx.
var UART1 = &usart.USART{
	Base:  USART1Base,
	Clock: apb2ClockHz,
}

// SD is the SD/MMC driver instance backing the filesystem.
var SD = &sdio.Driver{
	Base:  SDIOBase,
	Clock: func() uint32 { return 38400000 },
}

// Flash is the embedded flash controller instance the loader reprograms
// the application sector through.
var Flash = &flash.Controller{Base: FlashBase}

func initPins() {
	ledPin.Out()

	usart1TxPin.AF(afUSART1)
	usart1RxPin.AF(afUSART1)

	sdD0Pin.AF(afSDIO)
	sdD1Pin.AF(afSDIO)
	sdD2Pin.AF(afSDIO)
	sdD3Pin.AF(afSDIO)
	sdCKPin.AF(afSDIO)
	sdCMDPin.AF(afSDIO)
}
