// OpenLager firmware
// https://github.com/d-ronin/openlager
//
// Copyright (c) The OpenLager Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

//go:build tamago || staticcheck

package bootloader

import (
	"io"
	"unsafe"

	"github.com/d-ronin/openlager/fs"
	"github.com/d-ronin/openlager/indicator"
	"github.com/d-ronin/openlager/soc/stm32/flash"
)

// ImageFile is the name the loader looks for on the card.
const ImageFile = "lager.bin"

// AppSector is the flash sector the application lives in, in the
// reference memory layout: sector 4 of an STM32F4's sector map, which
// happens to be exactly ImageMaxBytes (64KiB) long.
const AppSector = 4

// AppFlashBase is the first address of AppSector, and so the address the
// candidate image is compared against and reprogrammed into.
const AppFlashBase = 0x08010000

// SDInit is satisfied by the SD/MMC driver's card detection sequence.
type SDInit interface {
	Detect() error
}

// Run implements the bootloader's full update sequence: initialise the
// card, mount the filesystem, read a candidate image, and reprogram flash
// only if it differs from what's already there. Every failure short of a
// flash program/erase error degrades to handing off to whatever
// application is already flashed, on the theory that a flaky SD card must
// never brick the device. It returns the (initialSP, resetVector) pair
// HandOff should branch to; the caller is expected to call HandOff
// immediately since nothing after Run returns is meaningful once the
// handoff addresses are read from either the updated or the existing
// application image.
func Run(card SDInit, filesystem fs.FS, fc *flash.Controller, led *indicator.LED) (initialSP, resetVector uint32) {
	current := flashImage(AppFlashBase, ImageMaxBytes)

	if err := card.Detect(); err != nil {
		led.SendMorse("CARD")
		return InitialSP(current), ResetVector(current)
	}

	if !filesystem.Exists(ImageFile) {
		return InitialSP(current), ResetVector(current)
	}

	f, err := filesystem.Open(ImageFile)
	if err != nil {
		led.SendMorse("DATA")
		return InitialSP(current), ResetVector(current)
	}

	reader, ok := f.(fs.Reader)
	if !ok {
		led.SendMorse("DATA")
		return InitialSP(current), ResetVector(current)
	}

	var buf [ImageMaxBytes]byte
	n, err := readFull(reader, buf[:])
	if err != nil {
		led.SendMorse("DATA")
		return InitialSP(current), ResetVector(current)
	}

	image := buf[:n]

	if !ValidImageLength(len(image)) {
		led.SendMorse("TRUNC")
		return InitialSP(current), ResetVector(current)
	}

	if Identical(image, current[:len(image)]) {
		return InitialSP(current), ResetVector(current)
	}

	fc.Unlock()

	if err := fc.EraseSector(AppSector); err != nil {
		fc.Lock()
		led.Panic("FERR")
	}

	for i := 0; i+4 <= len(image); i += 4 {
		word := uint32(image[i]) | uint32(image[i+1])<<8 | uint32(image[i+2])<<16 | uint32(image[i+3])<<24
		if err := fc.ProgramWord(AppFlashBase+uint32(i), word); err != nil {
			fc.Lock()
			led.Panic("FERR")
		}
	}

	fc.Lock()

	return InitialSP(image), ResetVector(image)
}

// flashImage reads length bytes starting at base directly out of the
// memory-mapped flash address space, for comparison against a candidate
// image and as the fallback handoff target when no update applies.
func flashImage(base uint32, length int) []byte {
	buf := make([]byte, length)
	src := (*[ImageMaxBytes]byte)(unsafe.Pointer(uintptr(base)))
	copy(buf, src[:length])
	return buf
}

// readFull reads from r until it is exhausted or buf is full, returning
// the number of bytes read. A candidate image smaller than buf is the
// expected case (ends in io.EOF, not an error here); any other read error
// is surfaced so the caller can fall through to handoff.
func readFull(r fs.Reader, buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		m, err := r.Read(buf[n:])
		n += m
		if err == io.EOF {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		if m == 0 {
			return n, nil
		}
	}
	return n, nil
}
