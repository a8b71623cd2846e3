// OpenLager firmware
// https://github.com/d-ronin/openlager
//
// Copyright (c) The OpenLager Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package sdio

import "testing"

// buildCSDv2 packs a CSD version 2.0 (SDHC/SDXC) register with the given
// C_SIZE into the four 32-bit words this package reads responses into:
// csd[0] = bits[127:96] ... csd[3] = bits[31:0].
func buildCSDv2(cSize uint32) [4]uint32 {
	var csd [4]uint32

	setField := func(hi, lo int, v uint32) {
		for b := lo; b <= hi; b++ {
			if v&1 != 0 {
				word := 3 - b/32
				csd[word] |= 1 << uint(b%32)
			}
			v >>= 1
		}
	}

	setField(127, 126, 0b01) // CSD_STRUCTURE = 1 (version 2.0)
	setField(69, 48, cSize)

	return csd
}

func TestParseCSDBlocksHighCapacity(t *testing.T) {
	// A 32GB-class card: C_SIZE such that (C_SIZE+1)*1024 sectors is a
	// round, recognizable number.
	const cSize = 60000
	csd := buildCSDv2(cSize)

	blocks := parseCSDBlocks(csd, true)
	want := uint32(cSize+1) * 1024

	if blocks != want {
		t.Fatalf("parseCSDBlocks = %d, want %d", blocks, want)
	}
}

func TestParseCSDBlocksStandardCapacity(t *testing.T) {
	var csd [4]uint32

	setField := func(hi, lo int, v uint32) {
		for b := lo; b <= hi; b++ {
			if v&1 != 0 {
				word := 3 - b/32
				csd[word] |= 1 << uint(b%32)
			}
			v >>= 1
		}
	}

	// CSD 1.0 fields for a well known layout: READ_BL_LEN=9 (512 bytes),
	// C_SIZE=1023, C_SIZE_MULT=7 -> (1023+1)*(1<<(7+2)) = 1024*512 =
	// 524288 512-byte sectors worth of raw capacity computed the CSD 1.0
	// way.
	setField(127, 126, 0b00) // CSD_STRUCTURE = 0 (version 1.0)
	setField(83, 80, 9)      // READ_BL_LEN
	setField(73, 62, 1023)   // C_SIZE
	setField(49, 47, 7)      // C_SIZE_MULT

	blocks := parseCSDBlocks(csd, false)

	blockLen := uint32(1) << 9
	mult := uint32(1) << (7 + 2)
	wantRawBlocks := (uint32(1023) + 1) * mult
	want := wantRawBlocks * blockLen / BlockSize

	if blocks != want {
		t.Fatalf("parseCSDBlocks = %d, want %d", blocks, want)
	}
}
