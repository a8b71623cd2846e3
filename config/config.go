// OpenLager firmware
// https://github.com/d-ronin/openlager
//
// Copyright (c) The OpenLager Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package config implements the JSON config file loader (C7): on startup
// it creates lager.cfg with compiled-in defaults if absent, then
// reads and parses whatever is on the card — including a file a previous
// firmware version, or a user, may have hand edited.
//
// Parsing is built directly on the flat token stream from package jsmn
// rather than a general JSON library: the config format is a single flat
// object of scalar options, and the design specifically calls for
// unrecognized keys (including whole nested objects/arrays) to be skipped
// by child count rather than decoded, something encoding/json's
// reflection-based Unmarshal has no hook for.
package config

import (
	"io"
	"strings"

	"github.com/d-ronin/openlager/fs"
	"github.com/d-ronin/openlager/internal/jsmn"
)

// FileName is the config file's name at the filesystem root.
const FileName = "lager.cfg"

// MaxFileBytes bounds how much of the config file is read into memory.
const MaxFileBytes = 4096

// DefaultJSON is written verbatim to FileName the first time the device
// boots with no config file present.
const DefaultJSON = `{
	"startupMorse": "",
	"useSPI": false,
	"baudRate": 115200,
	"preallocBytes": 1048576,
	"preallocGrow": true
}
`

// Config holds the recognized options, after parsing and validation.
type Config struct {
	StartupMorse  string
	BaudRate      int64
	PreallocBytes int64
	PreallocGrow  bool
}

// Default matches the compiled-in DefaultJSON, for callers that need a
// value before or instead of loading the file (e.g. the loader, which
// does not parse the config at all).
var Default = Config{
	BaudRate:      115200,
	PreallocBytes: 1048576,
	PreallocGrow:  true,
}

// Parse decodes data (the raw bytes of lager.cfg) into a Config,
// starting from Default so that a file which omits a recognized key keeps
// that key's default. It panics with "CONF" if the top-level value is not
// an object or if a recognized key's value has the wrong kind, and with
// "?SPI?" if useSPI is true (reserved for a future revision that doesn't
// exist yet).
func Parse(data []byte) Config {
	tokens, err := jsmn.Parse(data)
	if err != nil {
		panic("CONF")
	}

	if len(tokens) == 0 || tokens[0].Kind != jsmn.Object {
		panic("CONF")
	}

	cfg := Default

	i := 1
	for c := 0; c < tokens[0].Children; c++ {
		key := tokens[i]
		if key.Kind != jsmn.String {
			panic("CONF")
		}
		i++

		value := tokens[i]
		name := strings.ToLower(key.Text(data))

		switch name {
		case "startupmorse":
			if value.Kind != jsmn.String {
				panic("CONF")
			}
			cfg.StartupMorse = value.Text(data)
			i++

		case "usespi":
			if value.Kind != jsmn.Primitive {
				panic("CONF")
			}
			if parseBool(value.Text(data)) {
				panic("?SPI?")
			}
			i++

		case "baudrate":
			if value.Kind != jsmn.Primitive {
				panic("CONF")
			}
			cfg.BaudRate = parseInt(value.Text(data))
			i++

		case "preallocbytes":
			if value.Kind != jsmn.Primitive {
				panic("CONF")
			}
			cfg.PreallocBytes = parseInt(value.Text(data))
			i++

		case "preallocgrow":
			if value.Kind != jsmn.Primitive {
				panic("CONF")
			}
			cfg.PreallocGrow = parseBool(value.Text(data))
			i++

		default:
			// Unrecognized key: skip its value (which may be a nested
			// object or array of arbitrary depth) without interpreting
			// it at all.
			i = jsmn.Skip(tokens, i)
		}
	}

	return cfg
}

// Load ensures FileName exists on filesystem (creating it with DefaultJSON
// if not), then reads and parses it. A filesystem error creating or
// reading the file is fatal, same as a parse error: a device that cannot
// get a config one way or another cannot safely start logging.
func Load(filesystem fs.FS) Config {
	if !filesystem.Exists(FileName) {
		f, err := filesystem.Create(FileName)
		if err != nil {
			panic("CONF")
		}

		if n, err := f.Write([]byte(DefaultJSON)); err != nil || n != len(DefaultJSON) {
			panic("CONF")
		}

		if err := f.Sync(); err != nil {
			panic("CONF")
		}
	}

	f, err := filesystem.Open(FileName)
	if err != nil {
		panic("CONF")
	}

	r, ok := f.(fs.Reader)
	if !ok {
		panic("CONF")
	}

	buf := make([]byte, MaxFileBytes)
	n, err := r.Read(buf)
	if err != nil && err != io.EOF {
		panic("CONF")
	}

	return Parse(buf[:n])
}

// parseInt implements the design's integer grammar: an optional leading
// '-' followed by one or more decimal digits. Any other character is a
// config file corruption and is fatal.
func parseInt(text string) int64 {
	if text == "" {
		panic("CONF")
	}

	neg := false
	i := 0
	if text[0] == '-' {
		neg = true
		i = 1
	}

	if i == len(text) {
		panic("CONF")
	}

	var v int64
	for ; i < len(text); i++ {
		c := text[i]
		if c < '0' || c > '9' {
			panic("CONF")
		}
		v = v*10 + int64(c-'0')
	}

	if neg {
		v = -v
	}

	return v
}

// parseBool implements the design's boolean grammar: only the leading
// character is examined, case-insensitively, against 't' or 'f'.
func parseBool(text string) bool {
	if text == "" {
		panic("CONF")
	}

	switch text[0] {
	case 't', 'T':
		return true
	case 'f', 'F':
		return false
	default:
		panic("CONF")
	}
}
