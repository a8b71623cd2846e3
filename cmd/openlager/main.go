// OpenLager firmware
// https://github.com/d-ronin/openlager
//
// Copyright (c) The OpenLager Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

//go:build tamago || staticcheck

// Command openlager is the application: it logs bytes arriving on the
// serial console to a file on the SD card forever, after applying the
// on-card JSON config and announcing itself over the indicator LED.
package main

import (
	"github.com/d-ronin/openlager/board/openlager"
	"github.com/d-ronin/openlager/config"
	"github.com/d-ronin/openlager/diskio"
	"github.com/d-ronin/openlager/fs"
	"github.com/d-ronin/openlager/logger"
	"github.com/d-ronin/openlager/ring"
)

// ringSize is the serial ring buffer's backing storage, sized well above
// the logger's own max chunk (40KiB) so a slow card write can absorb a
// burst of incoming serial traffic without the ISR spilling bytes.
const ringSize = 128 * 1024

// FS is the filesystem the logger writes to. diskio.New(openlager.SD)
// gives the block-level read/write/retry/batching the card needs; the
// FAT-level directory and allocation semantics above that are outside
// this module's scope (see the filesystem Non-goal), so production
// firmware links in a real fs.FS implementation here. This placeholder
// keeps every other component's wiring demonstrable without one.
var FS fs.FS = fs.NewMemFS()

func main() {
	// config.Load and logger.Open report fatal conditions as a Go panic
	// carrying the Morse diagnostic; hand it to the indicator so it blinks
	// like every other fatal condition.
	defer func() {
		if r := recover(); r != nil {
			if msg, ok := r.(string); ok {
				openlager.LED.Panic(msg)
			}
			panic(r)
		}
	}()

	_ = diskio.New(openlager.SD)

	cfg := config.Load(FS)

	openlager.UART1.Baudrate = uint32(cfg.BaudRate)
	openlager.UART1.Init()

	if cfg.StartupMorse != "" {
		openlager.LED.SendMorse(cfg.StartupMorse)
	}

	rb := ring.New(make([]byte, ringSize))
	openlager.UART1.OnRx = func(c byte) {
		rb.Push(c)
	}

	logCfg := logger.DefaultConfig
	logCfg.PreallocBytes = cfg.PreallocBytes

	f := logger.Open(FS, logCfg)

	logger.Run(rb, f, openlager.LED, logCfg)
}
