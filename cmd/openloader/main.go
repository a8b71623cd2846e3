// OpenLager firmware
// https://github.com/d-ronin/openlager
//
// Copyright (c) The OpenLager Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

//go:build tamago || staticcheck

// Command openloader is the bootloader: it runs from an early flash
// region, checks the SD card for a newer application image, reprograms
// flash if one is present and different, and hands off to whatever
// application ends up in flash either way.
package main

import (
	"github.com/d-ronin/openlager/board/openlager"
	"github.com/d-ronin/openlager/bootloader"
	"github.com/d-ronin/openlager/cortexm"
	"github.com/d-ronin/openlager/fs"
)

// FS is the filesystem the bootloader reads lager.bin from. See the
// matching note in cmd/openlager/main.go: the FAT-level implementation
// is outside this module's scope and is expected to be supplied by
// production firmware.
var FS fs.FS = fs.NewMemFS()

func main() {
	openlager.InitLoader()

	initialSP, resetVector := bootloader.Run(openlager.SD, FS, openlager.Flash, openlager.LED)

	cortexm.HandOff(initialSP, resetVector)
}
