// OpenLager firmware
// https://github.com/d-ronin/openlager
//
// Copyright (c) The OpenLager Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package indicator

import "testing"

func TestMorseCoversDiagnosticAlphabet(t *testing.T) {
	// Every diagnostic string panics/blinks in this tree (CARD, DATA, TRUNC,
	// FERR, XOSC, FULL, CRET, WERR, SERR, CONF, ?SPI?, plus the ten
	// digits) must be encodable, or the panic path silently drops
	// characters.
	want := "CARDDATATRUNCFERRXOSCFULLCRETWERRSERRCONF?SPI?0123456789?"

	for _, r := range want {
		if _, ok := morse[r]; !ok {
			t.Errorf("morse table missing entry for %q", r)
		}
	}
}

func TestMorseOnlyDotsAndDashes(t *testing.T) {
	for r, symbols := range morse {
		for _, s := range symbols {
			if s != '.' && s != '-' {
				t.Errorf("morse[%q] contains non dot/dash symbol %q", r, s)
			}
		}
	}
}

func TestMorseSpaceNotInTable(t *testing.T) {
	// The inter-word gap is handled directly by SendMorse; if space ever
	// ends up in the table it would be double-spaced.
	if _, ok := morse[' ']; ok {
		t.Fatal("space must not be a morse table entry")
	}
}
