// OpenLager firmware
// https://github.com/d-ronin/openlager
//
// Copyright (c) The OpenLager Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

//go:build tamago || staticcheck

package openlager

// USART1_IRQHandler services the application's serial receive interrupt.
// Like SysTick_Handler, the name matches what the vendor startup file's
// weak vector table expects.
func USART1_IRQHandler() {
	UART1.HandleIRQ()
}
