// OpenLager firmware
// https://github.com/d-ronin/openlager
//
// Copyright (c) The OpenLager Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// CSD capacity parsing carries no build constraint, unlike the rest of
// this package, so it can be exercised directly by host tests against
// known-good CSD dumps without a real card attached.
package sdio

// BlockSize is the fixed transfer unit this driver supports.
const BlockSize = 512

// wordsPerBlock is BlockSize worth of little-endian 32-bit FIFO words.
const wordsPerBlock = BlockSize / 4

// parseCSDBlocks extracts a sector count from a raw CSD response,
// handling both CSD version 1.0 (standard capacity) and version 2.0+
// (SDHC/SDXC) layouts.
func parseCSDBlocks(csd [4]uint32, highCap bool) uint32 {
	// csd[0] holds CSD bits [127:96], csd[3] holds bits [31:0] (the CRC7
	// byte and reserved bits), matching the order R2 responses are read
	// out in by command().
	csdBit := func(bit int) uint32 {
		word := csd[3-bit/32]
		return (word >> uint(bit%32)) & 1
	}
	csdField := func(hi, lo int) uint32 {
		var v uint32
		for b := lo; b <= hi; b++ {
			v |= csdBit(b) << uint(b-lo)
		}
		return v
	}

	if highCap {
		cSize := csdField(69, 48)
		return (cSize + 1) * 1024
	}

	cSize := csdField(73, 62)
	cSizeMult := csdField(49, 47)
	readBlLen := csdField(83, 80)

	blockLen := uint32(1) << readBlLen
	mult := uint32(1) << (cSizeMult + 2)
	blocks := (cSize + 1) * mult

	return blocks * blockLen / BlockSize
}
