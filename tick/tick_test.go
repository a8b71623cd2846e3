// OpenLager firmware
// https://github.com/d-ronin/openlager
//
// Copyright (c) The OpenLager Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package tick

import "testing"

func TestDeadlineExpired(t *testing.T) {
	counter = 100

	d := After(10)
	if d.Expired() {
		t.Fatal("deadline reported expired immediately")
	}

	counter = 109
	if d.Expired() {
		t.Fatal("deadline reported expired one tick early")
	}

	counter = 110
	if !d.Expired() {
		t.Fatal("deadline did not expire on time")
	}

	counter = 200
	if !d.Expired() {
		t.Fatal("deadline did not stay expired")
	}
}

func TestDeadlineWraparound(t *testing.T) {
	counter = 0xFFFFFFF0

	d := After(32)
	counter = 0xFFFFFFF0
	if d.Expired() {
		t.Fatal("deadline expired before counter advanced")
	}

	counter = 15 // wrapped past 0
	if d.Expired() {
		t.Fatal("deadline expired early across wraparound")
	}

	counter = 16
	if !d.Expired() {
		t.Fatal("deadline did not expire across wraparound")
	}
}

func TestBusyloopSucceeds(t *testing.T) {
	counter = 0
	calls := 0

	ok := Busyloop(func() bool {
		calls++
		return calls == 3
	}, 1000)

	if !ok {
		t.Fatal("Busyloop reported failure for a condition that became true")
	}
	if calls != 3 {
		t.Fatalf("fn called %d times, want 3", calls)
	}
}

func TestBusyloopTimesOut(t *testing.T) {
	counter = 0

	ok := Busyloop(func() bool {
		counter++
		return false
	}, 5)

	if ok {
		t.Fatal("Busyloop reported success for a condition that never became true")
	}
}
