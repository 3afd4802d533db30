// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package interpreter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder returns a HandlerFunc that stores the arguments of its last call.
func recorder(got *Args) HandlerFunc {
	return func(_ context.Context, args Args) error {
		*got = args
		return nil
	}
}

func TestCommandKeywordOnly(t *testing.T) {
	var got Args
	h := Command("foo").Bind(recorder(&got), "")

	require.NoError(t, h.Call(context.Background(), ""))
	assert.Equal(t, Args{"foo"}, got)
	assert.Equal(t, "foo", h.String())
	assert.Equal(t, "foo", h.Name())
}

func TestCommandParameter(t *testing.T) {
	var got Args
	h := Command("foo", "PARAM").Bind(recorder(&got), "")

	require.NoError(t, h.Call(context.Background(), "bar"))
	assert.Equal(t, Args{"foo", "bar"}, got)

	err := h.Call(context.Background(), "")
	var cmdErr *InvalidCommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, "Missing arguments: 'PARAM'", err.Error())

	err = h.Call(context.Background(), "bar baz")
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, "Excess arguments: 'baz'", err.Error())
}

func TestCommandOptional(t *testing.T) {
	var got Args
	h := Command("foo", Optional("bar", "PARAM1"), "PARAM2").Bind(recorder(&got), "")
	assert.Equal(t, "foo (bar PARAM1) PARAM2", h.String())

	require.NoError(t, h.Call(context.Background(), "wibble"))
	assert.Equal(t, Args{"foo", Args{nil, nil}, "wibble"}, got)
	assert.False(t, got.Group(1).Present(0))

	require.NoError(t, h.Call(context.Background(), "bar baz blarg"))
	assert.Equal(t, Args{"foo", Args{"bar", "baz"}, "blarg"}, got)
	assert.Equal(t, "baz", got.Group(1).String(1))
}

func TestCommandTrailingOptional(t *testing.T) {
	var got Args
	h := Command("foo", Optional("bar", "PARAM")).Bind(recorder(&got), "")

	require.NoError(t, h.Call(context.Background(), ""))
	assert.Equal(t, Args{"foo", Args{nil, nil}}, got)

	// a partial block is not consumed, so its tokens are left over
	err := h.Call(context.Background(), "bar")
	require.Error(t, err)
	assert.Equal(t, "Excess arguments: 'bar'", err.Error())
}

func TestCommandRepeated(t *testing.T) {
	var got Args
	h := Command("foo", "bar", Repeated("PARAMS")).Bind(recorder(&got), "")
	assert.Equal(t, "foo bar [PARAMS]", h.String())

	err := h.Call(context.Background(), "bar")
	var argErr *InvalidArgumentError
	require.ErrorAs(t, err, &argErr)
	assert.Contains(t, err.Error(), "empty variadic argument list")

	require.NoError(t, h.Call(context.Background(), "bar baz blarg"))
	assert.Equal(t, Args{"foo", "bar", "baz", "blarg"}, got)
	assert.Equal(t, []string{"baz", "blarg"}, got.Strings(2))
}

func TestCommandRepeatedIsGreedy(t *testing.T) {
	// the list swallows the keyword after it
	h := Command("foo", Repeated("PARAMS"), "end").Bind(nil, "")

	_, err := h.Match("a b end")
	require.Error(t, err)
	assert.Equal(t, "Missing arguments: 'end'", err.Error())
}

func TestCommandDeclarationPanics(t *testing.T) {
	assert.Panics(t, func() { Command() })
	assert.Panics(t, func() { Command("PARAM") })
	assert.Panics(t, func() { Command(Optional("foo")) })
}

func TestMatchIsRepeatable(t *testing.T) {
	h := Command("invoke", "METHOD", Optional(Repeated("ARGS"))).Bind(nil, "")

	first, err := h.Match("start a=1 b=2")
	require.NoError(t, err)
	second, err := h.Match("start a=1 b=2")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, Args{"invoke", "start", Args{"a=1", "b=2"}}, first)

	c1 := h.Complete("", "invoke start ", 13, 13)
	c2 := h.Complete("", "invoke start ", 13, 13)
	assert.Equal(t, c1, c2)
}

func TestRenderedGrammarMatches(t *testing.T) {
	// substituting a value for every parameter in the rendering must match
	h := Command("select", "host", Int("port"), Optional("as", "NAME")).Bind(nil, "")
	assert.Equal(t, "select host PORT (as NAME)", h.String())

	_, err := h.Match("host 8080 as primary")
	require.NoError(t, err)
}

func TestHandlerComplete(t *testing.T) {
	tests := []struct {
		name    string
		grammar *Grammar
		line    string
		want    []string
	}{
		{"keyword", Command("foo", "bar"), "foo b", []string{"bar "}},
		{"nothing left", Command("foo", "bar"), "foo bar ", nil},
		{"wrong prefix", Command("foo", "bar"), "foo x", nil},
		{"choice", Command("select", "host", Choice("host", "alpha", "beta")), "select host a", []string{"alpha "}},
		{"optional or skip", Command("class", Optional("package", "PACKAGE"), "CLASS"), "class ", []string{"package ", ""}},
		{"inside optional", Command("class", Optional("package", "PACKAGE"), "CLASS"), "class package ", []string{""}},
		{"invalid int", Command("wait", Int("SECONDS")), "wait x", nil},
		{"valid int", Command("wait", Int("SECONDS")), "wait 5", []string{""}},
		{"repeated cycle", Command("set", Repeated("key", Int("V"))), "set key 1 k", []string{"key "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := tt.grammar.Bind(nil, "")
			begin := len(tt.line)
			for begin > 0 && tt.line[begin-1] != ' ' {
				begin--
			}
			got := h.Complete(tt.line[begin:], tt.line, begin, len(tt.line))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHandlerHelp(t *testing.T) {
	h := Command("class", Optional("package", "PACKAGE"), "CLASS").Bind(nil, `Select a class.

        The package defaults to org.matahariproject.
          Indented example.
    `)

	want := "> class (package PACKAGE) CLASS\n\n" +
		"Select a class.\n\n" +
		"The package defaults to org.matahariproject.\n" +
		"  Indented example."
	assert.Equal(t, want, h.Help())

	assert.Equal(t, "> quit", Command("quit").Bind(nil, "").Help())
}

func TestTrimDoc(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"single line", "  List hosts.  ", "List hosts."},
		{"leading blank", "\n    First.\n    Second.\n", "First.\nSecond."},
		{"tabs", "Summary.\n\tBody.\n\t\tMore.", "Summary.\nBody.\n        More."},
		{"no indent", "Summary.\nBody.", "Summary.\nBody."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, trimDoc(tt.in))
		})
	}
}
