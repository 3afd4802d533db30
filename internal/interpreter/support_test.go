// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package interpreter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestColumnize(t *testing.T) {
	assert.Equal(t, "", columnize(nil, 79))
	assert.Equal(t, "help\n", columnize([]string{"help"}, 79))
	assert.Equal(t, "a  b  c\n", columnize([]string{"a", "b", "c"}, 79))
	assert.Equal(t, "aaaa  cc\nbb\n", columnize([]string{"aaaa", "bb", "cc"}, 8))
	assert.Equal(t, "wide\nwider\n", columnize([]string{"wide", "wider"}, 3), "one column when nothing fits")
	assert.Equal(t, "ホスト  quit\n", columnize([]string{"ホスト", "quit"}, 79), "wide runes count two cells")
}

func TestSuggestCommand(t *testing.T) {
	commands := []string{"hosts", "select", "class", "help", "quit"}

	tests := []struct {
		input string
		want  string
	}{
		{"hsots", "hosts"},
		{"selct", "select"},
		{"hepl", "help"},
		{"q", ""},
		{"hosts", ""},
		{"xyzzy", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, suggestCommand(tt.input, commands), tt.input)
	}
}

func TestLevenshteinDistance(t *testing.T) {
	assert.Equal(t, 0, levenshteinDistance("", ""))
	assert.Equal(t, 3, levenshteinDistance("", "abc"))
	assert.Equal(t, 1, levenshteinDistance("host", "hosts"))
	assert.Equal(t, 3, levenshteinDistance("kitten", "sitting"))
	assert.Equal(t, 1, levenshteinDistance("ホスト", "ホスド"))
}

func TestArgsAccessors(t *testing.T) {
	args := Args{"invoke", "start", Args{nil}, 3}

	assert.Equal(t, 4, args.Len())
	assert.Equal(t, "start", args.String(1))
	assert.Equal(t, "3", args.String(3))
	assert.Equal(t, "", args.String(9))
	assert.True(t, args.Present(2))
	assert.False(t, args.Group(2).Present(0))
	assert.Nil(t, args.Group(1))

	n, ok := args.Int(3)
	assert.True(t, ok)
	assert.Equal(t, 3, n)
	_, ok = args.Int(1)
	assert.False(t, ok)

	assert.Equal(t, []string{"start"}, args.Strings(1)[:1])
	assert.Nil(t, args.Strings(10))
}

func TestIsInputError(t *testing.T) {
	assert.True(t, IsInputError(&InvalidArgumentError{Reason: "x"}))
	assert.True(t, IsInputError(&InvalidCommandError{Line: "x"}))
	assert.False(t, IsInputError(assert.AnError))
	assert.Equal(t, "Invalid command: 'x'", (&InvalidCommandError{Line: "x"}).Error())
}
