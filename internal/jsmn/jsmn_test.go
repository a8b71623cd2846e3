// OpenLager firmware
// https://github.com/d-ronin/openlager
//
// Copyright (c) The OpenLager Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package jsmn

import "testing"

func TestParseFlatObject(t *testing.T) {
	data := []byte(`{"baudRate": 115200, "useSPI": false}`)

	tokens, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if len(tokens) != 5 {
		t.Fatalf("len(tokens) = %d, want 5 (object, key, value, key, value)", len(tokens))
	}

	obj := tokens[0]
	if obj.Kind != Object || obj.Children != 2 {
		t.Fatalf("tokens[0] = %+v, want Object with 2 children", obj)
	}

	if got := tokens[1].Text(data); got != "baudRate" {
		t.Fatalf("tokens[1].Text = %q, want baudRate", got)
	}
	if got := tokens[2].Text(data); got != "115200" {
		t.Fatalf("tokens[2].Text = %q, want 115200", got)
	}
	if tokens[2].Kind != Primitive {
		t.Fatalf("tokens[2].Kind = %v, want Primitive", tokens[2].Kind)
	}

	if got := tokens[3].Text(data); got != "useSPI" {
		t.Fatalf("tokens[3].Text = %q, want useSPI", got)
	}
	if got := tokens[4].Text(data); got != "false" {
		t.Fatalf("tokens[4].Text = %q, want false", got)
	}
}

func TestParseNestedSkip(t *testing.T) {
	data := []byte(`{"ignored": {"a": 1, "b": [1, 2, 3]}, "baudRate": 9600}`)

	tokens, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	// tokens[0] object, tokens[1] "ignored" key, tokens[2] nested object
	if tokens[1].Text(data) != "ignored" {
		t.Fatalf("tokens[1] = %q, want ignored", tokens[1].Text(data))
	}
	if tokens[2].Kind != Object {
		t.Fatalf("tokens[2].Kind = %v, want Object", tokens[2].Kind)
	}

	next := Skip(tokens, 2)

	if tokens[next].Text(data) != "baudRate" {
		t.Fatalf("Skip landed on %q, want baudRate", tokens[next].Text(data))
	}
}

func TestParseTopLevelArray(t *testing.T) {
	tokens, err := Parse([]byte(`[1, 2, 3]`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if tokens[0].Kind != Array || tokens[0].Children != 3 {
		t.Fatalf("tokens[0] = %+v, want Array with 3 children", tokens[0])
	}
}

func TestParseStringEscapes(t *testing.T) {
	tokens, err := Parse([]byte(`"hello \"world\""`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if tokens[0].Kind != String {
		t.Fatalf("tokens[0].Kind = %v, want String", tokens[0].Kind)
	}
}

func TestParseMalformedMissingColon(t *testing.T) {
	_, err := Parse([]byte(`{"baudRate" 9600}`))
	if err == nil {
		t.Fatal("Parse accepted an object missing ':'")
	}
}

func TestParseUnterminatedObject(t *testing.T) {
	_, err := Parse([]byte(`{"baudRate": 9600`))
	if err == nil {
		t.Fatal("Parse accepted an unterminated object")
	}
}

func TestParseEmptyInput(t *testing.T) {
	_, err := Parse(nil)
	if err == nil {
		t.Fatal("Parse accepted empty input")
	}
}
