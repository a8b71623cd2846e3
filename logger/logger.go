// OpenLager firmware
// https://github.com/d-ronin/openlager
//
// Copyright (c) The OpenLager Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

//go:build tamago || staticcheck

package logger

import (
	"github.com/d-ronin/openlager/fs"
	"github.com/d-ronin/openlager/indicator"
	"github.com/d-ronin/openlager/ring"
)

// Config holds the chunk-consumer parameters and preallocation size the
// main loop uses; the zero value is not meaningful, use DefaultConfig.
type Config struct {
	// Timeout is the chunk consumer's wait budget, in ticks.
	Timeout uint32
	// Align is the preferred chunk alignment, in bytes.
	Align uint32
	// MinChunk is the minimum contiguous run the consumer waits for
	// before giving up early.
	MinChunk uint32
	// MaxReturn caps how much of the ring a single chunk may claim.
	MaxReturn uint32
	// PreallocBytes, if non-zero, is the size the log file is expanded
	// to immediately after creation.
	PreallocBytes int64
}

// DefaultConfig matches the design's stated defaults: a 200ms timeout (at
// 250Hz, 50 ticks), 512-byte alignment, a 2560-byte minimum preferred
// chunk, and a 40KiB cap per chunk.
var DefaultConfig = Config{
	Timeout:   50,
	Align:     512,
	MinChunk:  2560,
	MaxReturn: 40 * 1024,
}

// Open creates the next available logNNN.txt file on filesystem and, if
// cfg.PreallocBytes is set, expands it immediately. It panics with "FULL"
// if every name up to log999.txt already exists, since that means the
// card is either full of old logs or badly corrupted, and with "CRET" if
// the filesystem refuses to create the new file.
func Open(filesystem fs.FS, cfg Config) fs.File {
	name, ok := NextName(filesystem.Exists)
	if !ok {
		panic("FULL")
	}

	f, err := filesystem.Create(name)
	if err != nil {
		panic("CRET")
	}

	if cfg.PreallocBytes > 0 {
		// Best-effort: a failure here just means less contiguous
		// allocation, not a lost log.
		filesystem.Preallocate(f, cfg.PreallocBytes)
	}

	return f
}

// Run drains rb into f forever, lighting led during every I/O operation.
// It never returns: the only way out is one of the panics below, each
// routed through led so the failure is visible without a console. A write
// error or short write blinks "WERR"; a sync error blinks "SERR", so the
// two failure classes are distinguishable without a console.
//
// Any interval in which the serial stream falls idle — the consumer's
// deadline expiring with nothing new to return — triggers a filesystem
// sync instead of a write, so the card catches up with whatever was
// written right before the pause.
func Run(rb *ring.Buffer, f fs.File, led *indicator.LED, cfg Config) {
	for {
		chunk, ok := rb.Pull(cfg.Timeout, cfg.Align, cfg.MinChunk, cfg.MaxReturn)

		led.Set(true)

		if !ok || len(chunk.Data) == 0 {
			if err := f.Sync(); err != nil {
				led.Panic("SERR")
			}

			led.Set(false)
			continue
		}

		n, err := f.Write(chunk.Data)

		led.Set(false)

		if err != nil || n != len(chunk.Data) {
			led.Panic("WERR")
		}
	}
}
