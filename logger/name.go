// OpenLager firmware
// https://github.com/d-ronin/openlager
//
// Copyright (c) The OpenLager Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package logger implements the main logging loop (C6): it owns the serial
// ring buffer's consumer side and drives the filesystem File it writes
// chunks to.
package logger

import "fmt"

// maxLogIndex is one past the last representable three-digit index; once
// log000.txt through log999.txt all exist, NextName has nowhere left to
// go and the caller must treat that as fatal.
const maxLogIndex = 1000

// NextName finds the lowest-numbered "logNNN.txt" name, NNN from 000, for
// which exists reports false. It reports ok=false if every name up to
// log999.txt is already taken, the three-digit field's ripple carry having
// overflowed.
func NextName(exists func(string) bool) (name string, ok bool) {
	for n := 0; n < maxLogIndex; n++ {
		candidate := fmt.Sprintf("log%03d.txt", n)
		if !exists(candidate) {
			return candidate, true
		}
	}

	return "", false
}
