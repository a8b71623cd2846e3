// OpenLager firmware
// https://github.com/d-ronin/openlager
//
// Copyright (c) The OpenLager Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package bootloader implements the image-update engine (C8): comparing
// a candidate firmware image against what's currently in flash, erasing
// and reprogramming only when they differ, and handing off to the
// application either way.
//
// image.go's validation and comparison logic carries no build constraint
// so it is exercised directly by host tests; the flash programming and
// the final handoff, in bootloader.go, require real hardware.
package bootloader

import "encoding/binary"

// ImageMinBytes and ImageMaxBytes bound a candidate lager.bin: too short
// to contain a vector table is obviously corrupt, and 64KiB is comfortably
// larger than this firmware has ever been while still fitting a stack
// buffer.
const (
	ImageMinBytes = 500
	ImageMaxBytes = 64 * 1024
)

// ValidImageLength reports whether n is an acceptable candidate image
// size: at least ImageMinBytes, a multiple of 4 (every flash word program
// is whole-word), and no larger than ImageMaxBytes.
func ValidImageLength(n int) bool {
	return n >= ImageMinBytes && n <= ImageMaxBytes && n%4 == 0
}

// Identical reports whether image matches current word for word. Both
// slices must be the same length; a length mismatch is never "identical"
// even if one is a prefix of the other.
func Identical(image, current []byte) bool {
	if len(image) != len(current) {
		return false
	}

	for i := 0; i+4 <= len(image); i += 4 {
		if binary.LittleEndian.Uint32(image[i:]) != binary.LittleEndian.Uint32(current[i:]) {
			return false
		}
	}

	return true
}

// InitialSP and ResetVector read the first two words of image, the
// Cortex-M vector table's stack pointer and reset handler entries that
// HandOff branches to.
func InitialSP(image []byte) uint32 {
	return binary.LittleEndian.Uint32(image[0:4])
}

func ResetVector(image []byte) uint32 {
	return binary.LittleEndian.Uint32(image[4:8])
}
