// OpenLager firmware
// https://github.com/d-ronin/openlager
//
// Copyright (c) The OpenLager Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package diskio implements the block device shim (C4) between the
// filesystem layer and the SD card driver: per-sector read retry, batched
// multi-sector write with its own retry, and a single fixed drive number.
// It is a direct port of the FatFs diskio.c skeleton this firmware has
// always shipped, with sd_read/sd_write replaced by the Device interface
// so the retry and batching policy can be tested without real hardware.
package diskio

import "errors"

// SectorSize is the fixed block size every Device implementation and
// every caller of Disk operates in.
const SectorSize = 512

// maxWriteBatch caps how many sectors are written in a single Device
// transaction: large enough to meaningfully beat one-sector-at-a-time
// throughput, small enough that a CRC error near the end of a write
// doesn't waste too much wire time redoing it.
const maxWriteBatch = 12

// maxRetries is the number of retries attempted after an initial failure,
// for both reads and writes, matching the original skeleton's retries = 3.
const maxRetries = 3

// ErrIO is returned when a sector operation still fails after all
// retries.
var ErrIO = errors.New("diskio: I/O error")

// Device is the block-level operation the SD/MMC driver provides. Sector
// addresses are absolute LBAs; ReadSector always transfers exactly one
// sector, WriteSectors transfers count contiguous sectors starting at
// sector in a single transaction.
type Device interface {
	ReadSector(sector uint32, buf []byte) error
	WriteSectors(sector uint32, buf []byte, count int) error
}

// Disk adapts a Device to the fixed single-drive diskio contract.
type Disk struct {
	dev Device
}

// New wraps dev.
func New(dev Device) *Disk {
	return &Disk{dev: dev}
}

// ReadSectors reads len(buf)/SectorSize sectors starting at sector into
// buf, one sector at a time, retrying each sector up to maxRetries times
// before giving up on the whole call.
func (d *Disk) ReadSectors(sector uint32, buf []byte) error {
	if len(buf)%SectorSize != 0 {
		return ErrIO
	}

	count := len(buf) / SectorSize

	for i := 0; i < count; i++ {
		chunk := buf[i*SectorSize : (i+1)*SectorSize]

		var err error
		for attempt := 0; attempt <= maxRetries; attempt++ {
			if err = d.dev.ReadSector(sector+uint32(i), chunk); err == nil {
				break
			}
		}
		if err != nil {
			return ErrIO
		}
	}

	return nil
}

// WriteSectors writes len(buf)/SectorSize sectors starting at sector from
// buf, in batches of up to maxWriteBatch sectors, retrying each batch up
// to maxRetries times before giving up on the whole call.
func (d *Disk) WriteSectors(sector uint32, buf []byte) error {
	if len(buf)%SectorSize != 0 {
		return ErrIO
	}

	count := len(buf) / SectorSize

	for i := 0; i < count; {
		batch := maxWriteBatch
		if left := count - i; batch > left {
			batch = left
		}

		chunk := buf[i*SectorSize : (i+batch)*SectorSize]

		var err error
		for attempt := 0; attempt <= maxRetries; attempt++ {
			if err = d.dev.WriteSectors(sector+uint32(i), chunk, batch); err == nil {
				break
			}
		}
		if err != nil {
			return ErrIO
		}

		i += batch
	}

	return nil
}

// Sync is the diskio CTRL_SYNC ioctl: the design treats it as a no-op
// success, since every Device write call in this tree is already
// synchronous — there is no write-behind cache below this layer to flush.
func (d *Disk) Sync() error {
	return nil
}
