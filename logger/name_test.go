// OpenLager firmware
// https://github.com/d-ronin/openlager
//
// Copyright (c) The OpenLager Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package logger

import (
	"fmt"
	"testing"
)

func TestNextNameFirstFreeSlot(t *testing.T) {
	taken := map[string]bool{
		"log000.txt": true,
		"log001.txt": true,
		"log002.txt": true,
	}

	name, ok := NextName(func(n string) bool { return taken[n] })
	if !ok {
		t.Fatal("NextName reported overflow with free slots available")
	}
	if name != "log003.txt" {
		t.Fatalf("NextName = %q, want log003.txt", name)
	}
}

func TestNextNameEmptyFilesystem(t *testing.T) {
	name, ok := NextName(func(string) bool { return false })
	if !ok || name != "log000.txt" {
		t.Fatalf("NextName = %q, %v; want log000.txt, true", name, ok)
	}
}

func TestNextNameRippleCarry(t *testing.T) {
	// log009.txt free, but everything below it taken: nails down that
	// the search doesn't stop at a single-digit boundary.
	taken := map[string]bool{}
	for n := 0; n < 9; n++ {
		taken[fmt.Sprintf("log%03d.txt", n)] = true
	}

	name, ok := NextName(func(n string) bool { return taken[n] })
	if !ok || name != "log009.txt" {
		t.Fatalf("NextName = %q, %v; want log009.txt, true", name, ok)
	}
}

func TestNextNameOverflow(t *testing.T) {
	_, ok := NextName(func(string) bool { return true })
	if ok {
		t.Fatal("NextName reported success when every index is taken")
	}
}
