// OpenLager firmware
// https://github.com/d-ronin/openlager
//
// Copyright (c) The OpenLager Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

//go:build tamago || staticcheck

package sdio

import (
	"encoding/binary"

	"github.com/d-ronin/openlager/bits"
	"github.com/d-ronin/openlager/internal/reg"
)

// maxWriteBatch mirrors diskio's batching cap: a single multi-block write
// command covers at most this many sectors, so one CRC failure costs at
// most that much retried work.
const maxWriteBatch = 12

func (d *Driver) blockAddr(sector uint32) uint32 {
	if d.Card.HighCap {
		return sector
	}
	return sector * BlockSize
}

func (d *Driver) programData(bytes uint32, dtdirRead bool) {
	reg.Write(d.dtimer, 0xFFFFFFFF)
	reg.Write(d.dlen, bytes)

	var dctrl uint32
	bits.SetN(&dctrl, DCTRL_DBLOCKSZ, 0xf, 9) // 2^9 = 512
	bits.SetTo(&dctrl, DCTRL_DTDIR, dtdirRead)
	bits.Set(&dctrl, DCTRL_DTEN)
	reg.Write(d.dctrl, dctrl)
}

// ReadSector implements diskio.Device: a single 512-byte PIO block read,
// per 4.3.3.
func (d *Driver) ReadSector(sector uint32, buf []byte) error {
	if len(buf) != BlockSize {
		return ErrTransferFailed
	}

	if err := d.waitNotBusy(); err != nil {
		return err
	}

	d.programData(BlockSize, true)

	if _, err := d.command(17, d.blockAddr(sector), r1); err != nil {
		return ErrTransferFailed
	}

	const doneMask = uint32(1 << STA_DATAEND)

	words := 0
	for words < wordsPerBlock {
		sta := reg.Read(d.sta)

		if sta&errMask != 0 {
			reg.Write(d.icr, clearAll)
			return ErrTransferFailed
		}

		if sta&(1<<STA_RXDAVL) != 0 {
			w := reg.Read(d.fifo)
			binary.LittleEndian.PutUint32(buf[words*4:], w)
			words++
			continue
		}

		if sta&doneMask != 0 {
			break
		}
	}

	reg.Write(d.icr, clearAll)

	if words != wordsPerBlock {
		return ErrTransferFailed
	}

	return nil
}

// WriteSectors implements diskio.Device: a PIO multi-block write of up to
// count sectors in one command, per 4.3.4/4.3.5. count must not exceed
// maxWriteBatch; diskio.Disk never asks for more than that.
func (d *Driver) WriteSectors(sector uint32, buf []byte, count int) error {
	if count < 1 || count > maxWriteBatch || len(buf) != count*BlockSize {
		return ErrTransferFailed
	}

	if err := d.waitNotBusy(); err != nil {
		return err
	}

	d.programData(uint32(len(buf)), false)

	index := uint32(24) // WRITE_BLOCK
	if count > 1 {
		index = 25 // WRITE_MULTIPLE_BLOCK
	}

	if _, err := d.command(index, d.blockAddr(sector), r1); err != nil {
		return ErrTransferFailed
	}

	totalWords := count * wordsPerBlock
	words := 0

	for words < totalWords {
		sta := reg.Read(d.sta)

		if sta&errMask != 0 {
			reg.Write(d.icr, clearAll)
			return ErrTransferFailed
		}

		if sta&(1<<STA_TXFIFOF) == 0 {
			w := binary.LittleEndian.Uint32(buf[words*4:])
			reg.Write(d.fifo, w)
			words++
		}
	}

	const doneMask = uint32(1 << STA_DATAEND)

	ok := false
	for i := 0; i < cmdPollLimit; i++ {
		sta := reg.Read(d.sta)
		if sta&errMask != 0 {
			break
		}
		if sta&doneMask != 0 {
			ok = true
			break
		}
	}

	reg.Write(d.icr, clearAll)

	if !ok {
		return ErrTransferFailed
	}

	if count > 1 {
		if _, err := d.command(12, 0, r1); err != nil {
			return ErrTransferFailed
		}
	}

	return nil
}
