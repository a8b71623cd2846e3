// OpenLager firmware
// https://github.com/d-ronin/openlager
//
// Copyright (c) The OpenLager Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package fs

import "io"

// MemFS is an in-memory FS. The config loader's host tests use it, since
// they cannot exercise a real SD card from a host test binary, and both
// commands use it as their default FS in place of a FAT implementation.
type MemFS struct {
	files map[string]*memFile

	// FailPreallocate, when set, makes Preallocate return this error
	// instead of succeeding, to exercise the logger's "preallocation is
	// best-effort" tolerance.
	FailPreallocate error
}

// NewMemFS creates an empty in-memory filesystem.
func NewMemFS() *MemFS {
	return &MemFS{files: make(map[string]*memFile)}
}

type memFile struct {
	data []byte
	// ShortWrite, when positive, caps every Write to at most this many
	// bytes, to exercise the logger's and bootloader's short-write
	// handling.
	ShortWrite int
	// FailWrite, when set, is returned by every subsequent Write.
	FailWrite error
	// Syncs counts calls to Sync.
	Syncs int
}

func (f *memFile) Write(p []byte) (int, error) {
	if f.FailWrite != nil {
		return 0, f.FailWrite
	}

	n := len(p)
	if f.ShortWrite > 0 && n > f.ShortWrite {
		n = f.ShortWrite
	}

	f.data = append(f.data, p[:n]...)

	if n < len(p) {
		return n, io.ErrShortWrite
	}

	return n, nil
}

func (f *memFile) Read(p []byte) (int, error) {
	n := copy(p, f.data)
	if n < len(p) {
		f.data = nil
		return n, nil
	}
	f.data = f.data[n:]
	return n, nil
}

func (f *memFile) Sync() error {
	f.Syncs++
	return nil
}

// Exists implements FS.
func (m *MemFS) Exists(name string) bool {
	_, ok := m.files[name]
	return ok
}

// Create implements FS.
func (m *MemFS) Create(name string) (File, error) {
	f := &memFile{}
	m.files[name] = f
	return f, nil
}

// Open implements FS.
func (m *MemFS) Open(name string) (File, error) {
	f, ok := m.files[name]
	if !ok {
		return nil, ErrNotExist
	}
	return f, nil
}

// Preallocate implements FS.
func (m *MemFS) Preallocate(f File, size int64) error {
	if m.FailPreallocate != nil {
		return m.FailPreallocate
	}

	mf := f.(*memFile)
	if int64(len(mf.data)) < size {
		mf.data = append(mf.data, make([]byte, size-int64(len(mf.data)))...)
	}

	return nil
}

// Data returns the current contents of name, for test assertions.
func (m *MemFS) Data(name string) []byte {
	f, ok := m.files[name]
	if !ok {
		return nil
	}
	return f.data
}

// SetShortWrite configures name (which must already exist) to truncate
// every Write to at most n bytes.
func (m *MemFS) SetShortWrite(name string, n int) {
	m.files[name].ShortWrite = n
}

// SetFailWrite configures name (which must already exist) to fail every
// subsequent Write with err.
func (m *MemFS) SetFailWrite(name string, err error) {
	m.files[name].FailWrite = err
}
