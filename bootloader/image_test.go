// OpenLager firmware
// https://github.com/d-ronin/openlager
//
// Copyright (c) The OpenLager Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package bootloader

import "testing"

func TestValidImageLength(t *testing.T) {
	cases := []struct {
		n    int
		want bool
	}{
		{0, false},
		{499, false},
		{500, true},
		{501, false}, // not a multiple of 4
		{504, true},
		{ImageMaxBytes, true},
		{ImageMaxBytes + 4, false},
	}

	for _, c := range cases {
		if got := ValidImageLength(c.n); got != c.want {
			t.Errorf("ValidImageLength(%d) = %v, want %v", c.n, got, c.want)
		}
	}
}

func TestIdenticalDetectsMatch(t *testing.T) {
	a := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	b := []byte{1, 2, 3, 4, 5, 6, 7, 8}

	if !Identical(a, b) {
		t.Fatal("Identical reported a mismatch for equal buffers")
	}
}

func TestIdenticalDetectsDifference(t *testing.T) {
	a := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	b := []byte{1, 2, 3, 4, 5, 6, 7, 9}

	if Identical(a, b) {
		t.Fatal("Identical reported a match for differing buffers")
	}
}

func TestIdenticalDetectsLengthMismatch(t *testing.T) {
	a := []byte{1, 2, 3, 4}
	b := []byte{1, 2, 3, 4, 5, 6, 7, 8}

	if Identical(a, b) {
		t.Fatal("Identical reported a match for different-length buffers")
	}
}

func TestInitialSPAndResetVector(t *testing.T) {
	image := make([]byte, 500)
	image[0], image[1], image[2], image[3] = 0x00, 0x00, 0x02, 0x20 // 0x20020000
	image[4], image[5], image[6], image[7] = 0x09, 0x00, 0x00, 0x08 // 0x08000009

	if got := InitialSP(image); got != 0x20020000 {
		t.Fatalf("InitialSP = %#x, want 0x20020000", got)
	}
	if got := ResetVector(image); got != 0x08000009 {
		t.Fatalf("ResetVector = %#x, want 0x08000009", got)
	}
}
