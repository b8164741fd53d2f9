package graph

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripper_PreservesLineStructure(t *testing.T) {
	src := []byte("code // comment\nmore /* block\nstill */ after\nx = \"str\"\n")
	out := NewStripper().Strip(src)

	require.Equal(t, len(src), len(out))
	assert.Equal(t, strings.Count(string(src), "\n"), strings.Count(string(out), "\n"))
	assert.NotContains(t, string(out), "comment")
	assert.NotContains(t, string(out), "block")
	assert.NotContains(t, string(out), "str")
	assert.Contains(t, string(out), "code")
	assert.Contains(t, string(out), "after")
}

func TestStripper_HashComments(t *testing.T) {
	src := []byte("def f():\n    pass  # trailing note\n")
	out := string(NewStripper().Strip(src))
	assert.NotContains(t, out, "trailing")
	assert.Contains(t, out, "pass")
}

func TestStripper_TripleQuotes(t *testing.T) {
	src := []byte("x = \"\"\"doc\nimport fake\n\"\"\"\nimport real\n")
	out := string(NewStripper().Strip(src))
	assert.NotContains(t, out, "fake")
	assert.Contains(t, out, "import real")
}

func TestStripper_EscapedQuote(t *testing.T) {
	src := []byte(`s = "a\"b"; t = 1` + "\n")
	out := string(NewStripper().Strip(src))
	assert.Contains(t, out, "t = 1")
}

func TestScanImports_TypeScript(t *testing.T) {
	src := []byte(`import { a } from './util';
import * as b from '../lib/helpers';
import 'reflect-metadata';
export { c } from './types';
const d = require('./legacy');
// import { nope } from './commented';
`)
	edges, targets := ScanImports("src/app", "src/app.ts", src, ImportsRelative, NewStripper())

	var got []string
	for _, e := range edges {
		assert.Equal(t, "mod:src/app", e.From)
		assert.Equal(t, EdgeImport, e.Type)
		assert.Equal(t, ProvHeuristic, e.Provenance)
		assert.InDelta(t, 0.9, e.Confidence, 0.001)
		got = append(got, e.To)
	}
	assert.ElementsMatch(t, []string{"mod:src/util", "mod:lib/helpers", "mod:src/types", "mod:src/legacy"}, got)
	assert.NotContains(t, targets, "src/commented")
	// Bare specifier excluded in relative mode.
	assert.NotContains(t, targets, "reflect-metadata")
}

func TestScanImports_AllModeIncludesBare(t *testing.T) {
	src := []byte("import React from 'react';\nimport { x } from './x';\n")
	_, targets := ScanImports("src/app", "src/app.tsx", src, ImportsAll, NewStripper())
	assert.ElementsMatch(t, []string{"react", "src/x"}, targets)
}

func TestScanImports_OffMode(t *testing.T) {
	src := []byte("import { x } from './x';\n")
	edges, targets := ScanImports("src/app", "src/app.ts", src, ImportsOff, NewStripper())
	assert.Empty(t, edges)
	assert.Empty(t, targets)
}

func TestScanImports_PythonRelative(t *testing.T) {
	src := []byte(`from . import sibling
from .util import helper
from ..shared.base import Base
import os
`)
	_, targets := ScanImports("pkg/sub/mod", "pkg/sub/mod.py", src, ImportsRelative, NewStripper())
	assert.ElementsMatch(t, []string{"pkg/sub/__init__", "pkg/sub/util", "pkg/shared/base"}, targets)
}

func TestScanImports_PythonAllMode(t *testing.T) {
	src := []byte("import os, json\nfrom collections import OrderedDict\n")
	_, targets := ScanImports("pkg/mod", "pkg/mod.py", src, ImportsAll, NewStripper())
	assert.ElementsMatch(t, []string{"os", "json", "collections"}, targets)
}

func TestScanImports_Ruby(t *testing.T) {
	src := []byte("require_relative 'helpers/math'\nrequire 'json'\n")
	_, targets := ScanImports("lib/calc", "lib/calc.rb", src, ImportsRelative, NewStripper())
	assert.Equal(t, []string{"lib/helpers/math"}, targets)
}

func TestScanImports_GoBlock(t *testing.T) {
	src := []byte(`package main

import (
	"fmt"
	x "strings"
)

import "os"
`)
	_, targets := ScanImports("cmd/main", "cmd/main.go", src, ImportsAll, NewStripper())
	assert.ElementsMatch(t, []string{"fmt", "strings", "os"}, targets)
}

func TestScanImports_SelfAndDuplicate(t *testing.T) {
	src := []byte("import { a } from './app';\nimport { b } from './x';\nimport { c } from './x';\n")
	edges, targets := ScanImports("src/app", "src/app.ts", src, ImportsRelative, NewStripper())
	// Self-import dropped, duplicate collapsed.
	assert.Len(t, edges, 1)
	assert.Equal(t, []string{"src/x"}, targets)
}

func TestScanImports_LabelStableAcrossSpelling(t *testing.T) {
	a := []byte("import { x } from './a/b';\n")
	b := []byte("import { x } from './a/./b';\n")
	_, ta := ScanImports("app", "app.ts", a, ImportsRelative, NewStripper())
	_, tb := ScanImports("app", "app.ts", b, ImportsRelative, NewStripper())
	assert.Equal(t, ta, tb)
}

func TestGhostNodesFor(t *testing.T) {
	ghosts := GhostNodesFor("src/app", []string{"src/util", "src/app", "lib/x"})
	require.Len(t, ghosts, 2)
	for _, g := range ghosts {
		assert.True(t, g.Ghost())
	}
}

func TestSnippetOf_Truncation(t *testing.T) {
	text := []byte("l0\nl1\nl2\nl3\nl4")
	s := snippetOf(text, 1, 2)
	assert.Equal(t, "l1\nl2\n… (+2 lines)", s)

	full := snippetOf(text, 3, 10)
	assert.Equal(t, "l3\nl4", full)

	assert.Equal(t, "", snippetOf(text, 99, 2))
}

func TestLineOf(t *testing.T) {
	text := []byte("a\nb\nc")
	assert.Equal(t, 0, lineOf(text, 0))
	assert.Equal(t, 1, lineOf(text, 2))
	assert.Equal(t, 2, lineOf(text, 4))
}
