// OpenLager firmware
// https://github.com/d-ronin/openlager
//
// Copyright (c) The OpenLager Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package ring implements the single-producer/single-consumer byte ring
// buffer sitting between the serial receive interrupt and the logger loop.
// The producer (Push) runs on the USART's RXNE interrupt and must never
// block; the consumer (Pull) runs in the main loop and hands back
// contiguous, alignment-rounded chunks sized for efficient SD card writes.
//
// The two sides communicate through a pair of plain uint32 indices
// published with sync/atomic: no mutex is used because the hardware this
// runs on has exactly one interrupt priority level above the main loop, so
// a lock could only ever be uncontended or deadlocked, never contended.
package ring

import (
	"sync/atomic"

	"github.com/d-ronin/openlager/tick"
)

// Buffer is a fixed-size byte ring. The zero value is not usable; create
// one with New.
type Buffer struct {
	buf []byte
	n   uint32

	write uint32 // published by Push, observed by Pull
	read  uint32 // published by Pull's release step, observed by Push

	spill uint32 // bytes dropped because the buffer was full

	staged     uint32 // next_read_index computed by the previous Pull
	hasStaged  bool
}

// New creates a ring over buf, which the Buffer takes ownership of. len(buf)
// is the ring's capacity; one slot is always left empty to disambiguate
// full from empty, so the buffer holds at most len(buf)-1 bytes at once.
func New(buf []byte) *Buffer {
	if len(buf) < 2 {
		panic("ring: buffer too small")
	}

	return &Buffer{
		buf: buf,
		n:   uint32(len(buf)),
	}
}

// Push stores one byte, as the sole action of the receive interrupt
// handler. It reports false, and increments the spill counter, if the
// buffer is full — the byte is then dropped rather than overwriting unread
// data.
func (b *Buffer) Push(c byte) bool {
	w := atomic.LoadUint32(&b.write)
	wp := (w + 1) % b.n
	r := atomic.LoadUint32(&b.read)

	if wp == r {
		atomic.AddUint32(&b.spill, 1)
		return false
	}

	b.buf[w] = c
	atomic.StoreUint32(&b.write, wp)

	return true
}

// Spill returns the number of bytes dropped so far because the buffer was
// full when Push was called.
func (b *Buffer) Spill() uint32 {
	return atomic.LoadUint32(&b.spill)
}

// Chunk is a contiguous slice of unread ring data. It is valid only until
// the next call to Pull, which may release it back to the producer.
type Chunk struct {
	Data []byte
}

// Pull implements the five-step consumer contract: it releases the
// previously returned chunk, waits (bounded by timeout ticks) for enough
// contiguous data to accumulate, rounds the result down to a multiple of
// align when that does not throw away everything, caps it at maxReturn,
// and stages the new read index without publishing it until the following
// call.
//
// It reports false, with a zero-length Chunk, if no data at all was
// available when the deadline passed.
func (b *Buffer) Pull(timeout uint32, align uint32, minChunk uint32, maxReturn uint32) (Chunk, bool) {
	// 1. Release: hand the previous chunk's span back to the producer.
	if b.hasStaged {
		atomic.StoreUint32(&b.read, b.staged)
		b.hasStaged = false
	}

	r := atomic.LoadUint32(&b.read)

	// 2. Wait-until-progress.
	var available uint32

	deadline := tick.After(timeout)
	for {
		w := atomic.LoadUint32(&b.write)

		if w < r {
			// unread region wraps: the contiguous tail to the end of
			// the buffer is available without waiting any longer.
			available = b.n - r
			break
		}

		available = w - r

		if available >= minChunk {
			break
		}

		if deadline.Expired() {
			break
		}
	}

	if available == 0 {
		b.staged = r
		b.hasStaged = true
		return Chunk{}, false
	}

	// 3. Alignment fixup.
	if align > 0 {
		unalign := r % align
		if available+unalign >= align {
			available -= (available + unalign) % align
		}
	}

	// 4. Cap.
	if maxReturn > 0 && available > maxReturn {
		available = maxReturn
	}

	// 5. Stage the next read index; publish happens on the next call.
	b.staged = (r + available) % b.n
	b.hasStaged = true

	return Chunk{Data: b.buf[r : r+available]}, available > 0
}
