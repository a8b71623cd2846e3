// OpenLager firmware
// https://github.com/d-ronin/openlager
//
// Copyright (c) The OpenLager Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

//go:build tamago || staticcheck

package cortexm

// handOff is defined in handoff_arm.s: it loads the stack pointer from
// initialSP and branches to resetVector. It does not reset any peripheral
// or bus; peripherals keep the state the bootloader left them in. It never
// returns, so it cannot be written in Go — by the time it runs there is no
// valid Go stack to return to.
func handOff(initialSP, resetVector uint32)

// HandOff is the bootloader's final step: it discards the running Go
// program entirely and starts executing the application image's reset
// handler with the image's initial stack pointer. initialSP and
// resetVector are the first two words of that image's vector table, as
// read by InitialSP and ResetVector.
//
// Like the teacher's own vfp_enable/read_cpsr assembly stubs, this is the
// one boundary in the tree that cannot be meaningfully unit tested: there
// is no "after" state to assert on from Go once it runs.
func HandOff(initialSP, resetVector uint32) {
	handOff(initialSP, resetVector)
}
