// OpenLager firmware
// https://github.com/d-ronin/openlager
//
// Copyright (c) The OpenLager Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package diskio

import (
	"errors"
	"testing"
)

type fakeDevice struct {
	sectors map[uint32][]byte

	failReadsRemaining  map[uint32]int
	failWritesRemaining int

	readCalls  int
	writeCalls []int // batch sizes passed to WriteSectors
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{
		sectors:            make(map[uint32][]byte),
		failReadsRemaining: make(map[uint32]int),
	}
}

func (f *fakeDevice) ReadSector(sector uint32, buf []byte) error {
	f.readCalls++

	if f.failReadsRemaining[sector] > 0 {
		f.failReadsRemaining[sector]--
		return errors.New("simulated read failure")
	}

	data, ok := f.sectors[sector]
	if !ok {
		data = make([]byte, SectorSize)
	}
	copy(buf, data)

	return nil
}

func (f *fakeDevice) WriteSectors(sector uint32, buf []byte, count int) error {
	f.writeCalls = append(f.writeCalls, count)

	if f.failWritesRemaining > 0 {
		f.failWritesRemaining--
		return errors.New("simulated write failure")
	}

	for i := 0; i < count; i++ {
		data := make([]byte, SectorSize)
		copy(data, buf[i*SectorSize:(i+1)*SectorSize])
		f.sectors[sector+uint32(i)] = data
	}

	return nil
}

func TestReadWriteRoundTrip(t *testing.T) {
	dev := newFakeDevice()
	d := New(dev)

	want := make([]byte, 3*SectorSize)
	for i := range want {
		want[i] = byte(i)
	}

	if err := d.WriteSectors(10, want); err != nil {
		t.Fatalf("WriteSectors: %v", err)
	}

	got := make([]byte, 3*SectorSize)
	if err := d.ReadSectors(10, got); err != nil {
		t.Fatalf("ReadSectors: %v", err)
	}

	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("byte %d = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestReadRetriesThenSucceeds(t *testing.T) {
	dev := newFakeDevice()
	dev.failReadsRemaining[5] = 3 // fails 3 times, succeeds on the 4th try
	d := New(dev)

	buf := make([]byte, SectorSize)
	if err := d.ReadSectors(5, buf); err != nil {
		t.Fatalf("ReadSectors: %v", err)
	}
}

func TestReadFailsAfterMaxRetries(t *testing.T) {
	dev := newFakeDevice()
	dev.failReadsRemaining[5] = 4 // one more failure than retries tolerate
	d := New(dev)

	buf := make([]byte, SectorSize)
	if err := d.ReadSectors(5, buf); err != ErrIO {
		t.Fatalf("ReadSectors error = %v, want ErrIO", err)
	}
}

func TestWriteBatchesAtTwelveSectors(t *testing.T) {
	dev := newFakeDevice()
	d := New(dev)

	buf := make([]byte, 20*SectorSize)
	if err := d.WriteSectors(0, buf); err != nil {
		t.Fatalf("WriteSectors: %v", err)
	}

	if len(dev.writeCalls) != 2 {
		t.Fatalf("write batches = %v, want 2 calls", dev.writeCalls)
	}
	if dev.writeCalls[0] != 12 || dev.writeCalls[1] != 8 {
		t.Fatalf("write batch sizes = %v, want [12 8]", dev.writeCalls)
	}
}

func TestWriteFailsAfterMaxRetries(t *testing.T) {
	dev := newFakeDevice()
	dev.failWritesRemaining = 4
	d := New(dev)

	buf := make([]byte, SectorSize)
	if err := d.WriteSectors(0, buf); err != ErrIO {
		t.Fatalf("WriteSectors error = %v, want ErrIO", err)
	}
}

func TestSyncIsNoop(t *testing.T) {
	d := New(newFakeDevice())
	if err := d.Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}
}
