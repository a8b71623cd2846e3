// OpenLager firmware
// https://github.com/d-ronin/openlager
//
// Copyright (c) The OpenLager Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package ring

import "testing"

func fill(t *testing.T, b *Buffer, data []byte) {
	t.Helper()
	for _, c := range data {
		if !b.Push(c) {
			t.Fatalf("Push dropped byte %q unexpectedly", c)
		}
	}
}

func TestPushPullRoundTrip(t *testing.T) {
	b := New(make([]byte, 16))

	fill(t, b, []byte("hello world"))

	chunk, ok := b.Pull(0, 0, 0, 0)
	if !ok {
		t.Fatal("Pull reported no data after Push")
	}
	if string(chunk.Data) != "hello world" {
		t.Fatalf("Pull returned %q, want %q", chunk.Data, "hello world")
	}
}

func TestPullReleasesPreviousChunkOnNextCall(t *testing.T) {
	b := New(make([]byte, 8))

	fill(t, b, []byte{1, 2, 3})

	first, ok := b.Pull(0, 0, 0, 2)
	if !ok || len(first.Data) != 2 {
		t.Fatalf("first Pull = %v, %v; want 2 bytes, true", first, ok)
	}

	// The first chunk is released only by the next Pull call; the producer
	// still has room after the unread byte 3 for one more byte.
	if !b.Push(4) {
		t.Fatal("Push failed with room in the unreleased tail")
	}

	second, ok := b.Pull(0, 0, 0, 0)
	if !ok {
		t.Fatal("second Pull reported no data")
	}
	if string(second.Data) != "\x03\x04" {
		t.Fatalf("second Pull = %v, want [3 4]", second.Data)
	}
}

func TestPushDropsOnFullBuffer(t *testing.T) {
	b := New(make([]byte, 4)) // holds at most 3 bytes

	if !b.Push(1) || !b.Push(2) || !b.Push(3) {
		t.Fatal("expected first three pushes to succeed")
	}

	if b.Push(4) {
		t.Fatal("expected Push to report full buffer")
	}
	if b.Spill() != 1 {
		t.Fatalf("Spill() = %d, want 1", b.Spill())
	}
}

func TestPullTimesOutWithPartialData(t *testing.T) {
	b := New(make([]byte, 64))

	fill(t, b, []byte{1, 2, 3})

	// minChunk is larger than what's available and timeout is 0, so the
	// deadline is already due on the first sample: Pull must return the
	// partial data immediately rather than spinning for minChunk to
	// arrive.
	chunk, ok := b.Pull(0, 0, 16, 0)
	if !ok {
		t.Fatal("Pull reported no data for a non-empty buffer")
	}
	if len(chunk.Data) != 3 {
		t.Fatalf("len(chunk.Data) = %d, want 3", len(chunk.Data))
	}
}

func TestPullAlignmentFixup(t *testing.T) {
	b := New(make([]byte, 32))

	fill(t, b, []byte{1, 2, 3, 4, 5, 6, 7})

	// align=4, 7 available, unalign=0: rounds down to 4.
	chunk, ok := b.Pull(0, 4, 0, 0)
	if !ok || len(chunk.Data) != 4 {
		t.Fatalf("Pull(align=4) = %v, %v; want 4 bytes, true", chunk, ok)
	}

	// Read index is now 4 (unalign=0); 3 bytes remain (5,6,7) plus 2 more
	// pushed (8,9) for 5 available. 5+0 >= 4, so it rounds down to 4
	// rather than returning all 5.
	fill(t, b, []byte{8, 9})

	chunk, ok = b.Pull(0, 4, 0, 0)
	if !ok || len(chunk.Data) != 4 {
		t.Fatalf("Pull(align=4, second) = %v, %v; want 4 bytes, true", chunk, ok)
	}
	if string(chunk.Data) != "\x05\x06\x07\x08" {
		t.Fatalf("Pull(align=4, second) data = %v, want [5 6 7 8]", chunk.Data)
	}

	// Read index is now 8 (unalign=0); only the single byte 9 remains.
	// 1+0 < 4, so it is returned unaligned rather than withheld.
	chunk, ok = b.Pull(0, 4, 0, 0)
	if !ok || len(chunk.Data) != 1 {
		t.Fatalf("Pull(align=4, remainder) = %v, %v; want 1 byte, true", chunk, ok)
	}
}

func TestPullCapsAtMaxReturn(t *testing.T) {
	b := New(make([]byte, 32))
	fill(t, b, []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10})

	chunk, ok := b.Pull(0, 0, 0, 3)
	if !ok || len(chunk.Data) != 3 {
		t.Fatalf("Pull(maxReturn=3) = %v, %v; want 3 bytes, true", chunk, ok)
	}
}

func TestPullEmptyBufferTimesOut(t *testing.T) {
	b := New(make([]byte, 16))

	chunk, ok := b.Pull(0, 0, 1, 0)
	if ok {
		t.Fatalf("Pull on empty buffer reported data: %v", chunk)
	}
}
