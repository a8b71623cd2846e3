// OpenLager firmware
// https://github.com/d-ronin/openlager
//
// Copyright (c) The OpenLager Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package fs defines the narrow filesystem boundary the logger loop and
// the bootloader need: enough of a FatFs-shaped surface (exists, create,
// append, sync, preallocate) to drive the diskio shim underneath, and
// nothing else. This module has no implementation backed by package
// diskio: both commands default to MemFS, which the host tests also use.
package fs

import "errors"

// ErrNotExist is returned by Open when the named file does not exist.
var ErrNotExist = errors.New("fs: file does not exist")

// File is an open, append-only log or image file.
type File interface {
	// Write appends p to the file. Short writes are reported as the
	// actual byte count written plus a non-nil error, matching the
	// io.Writer contract; the caller (the logger loop) treats any short
	// write as fatal.
	Write(p []byte) (n int, err error)

	// Sync flushes any buffered data and directory metadata to the
	// storage medium.
	Sync() error
}

// FS is the filesystem operations the logger loop and the bootloader
// require.
type FS interface {
	// Exists reports whether name is present in the filesystem root.
	Exists(name string) bool

	// Create creates name, truncating it if it already exists, and
	// opens it for appending.
	Create(name string) (File, error)

	// Open opens an existing file for reading. It reports ErrNotExist if
	// name is absent.
	Open(name string) (File, error)

	// Preallocate expands f to at least size bytes without necessarily
	// zeroing or writing the expanded region, so that a card's free
	// space allocator can place the file contiguously. Implementations
	// that cannot support this silently do nothing: preallocation is an
	// optimization, not a correctness requirement.
	Preallocate(f File, size int64) error
}

// Reader is satisfied by a File opened with Open; the bootloader uses it
// to read a candidate firmware image without needing Write or Sync.
type Reader interface {
	Read(p []byte) (n int, err error)
}
