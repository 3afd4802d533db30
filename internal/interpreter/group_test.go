// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package interpreter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupNoMemberMatches(t *testing.T) {
	fooBar := Command("foo", "bar").Bind(nil, "")
	fooBaz := Command("foo", "baz").Bind(nil, "")

	cmd, err := Combine(fooBar, fooBaz)
	require.NoError(t, err)
	group, ok := cmd.(*CommandGroupHandler)
	require.True(t, ok)

	err = group.Call(context.Background(), "quux")
	var cmdErr *InvalidCommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, "foo quux", cmdErr.Line)
	require.Len(t, cmdErr.Candidates, 2)
	assert.Same(t, fooBar, cmdErr.Candidates[0].Command)
	assert.Same(t, fooBaz, cmdErr.Candidates[1].Command)

	want := "Invalid command: 'foo quux'\n" +
		"Candidates:\n" +
		"  foo bar\n" +
		"    Invalid keyword 'quux' (expected 'bar')\n" +
		"  foo baz\n" +
		"    Invalid keyword 'quux' (expected 'baz')"
	assert.Equal(t, want, err.Error())
}

func TestGroupFirstMatchWins(t *testing.T) {
	var calls []string
	track := func(name string) HandlerFunc {
		return func(context.Context, Args) error {
			calls = append(calls, name)
			return nil
		}
	}

	group, err := NewGroup(
		Command("clear", "host").Bind(track("host"), ""),
		Command("clear", "class").Bind(track("class"), ""),
		Command("clear", "PARAM").Bind(track("any"), ""),
	)
	require.NoError(t, err)

	require.NoError(t, group.Call(context.Background(), "class"))
	require.NoError(t, group.Call(context.Background(), "host"))
	require.NoError(t, group.Call(context.Background(), "subscriptions"))
	assert.Equal(t, []string{"class", "host", "any"}, calls, "only the accepting member runs")
}

func TestGroupCandidatesWithoutReason(t *testing.T) {
	clearHost := Command("clear", "host").Bind(nil, "")
	clearAll := Command("clear").Bind(nil, "")

	group, err := NewGroup(clearHost, clearAll)
	require.NoError(t, err)

	err = group.Call(context.Background(), "host extra")
	var cmdErr *InvalidCommandError
	require.ErrorAs(t, err, &cmdErr)
	require.Len(t, cmdErr.Candidates, 2)
	assert.NoError(t, cmdErr.Candidates[0].Err, "missing or excess arguments give no specific reason")
	assert.NoError(t, cmdErr.Candidates[1].Err)
}

func TestGroupNestedCandidatesFlatten(t *testing.T) {
	inner, err := NewGroup(
		Command("foo", "a").Bind(nil, ""),
		Command("foo", "b").Bind(nil, ""),
	)
	require.NoError(t, err)
	outer := &CommandGroupHandler{name: "foo", members: []Dispatcher{inner, Command("foo", "c").Bind(nil, "")}}

	err = outer.Call(context.Background(), "z")
	var cmdErr *InvalidCommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Len(t, cmdErr.Candidates, 3)
}

func TestGroupPropagatesCallbackErrors(t *testing.T) {
	boom := assert.AnError
	group, err := NewGroup(
		Command("run", "a").Bind(func(context.Context, Args) error { return boom }, ""),
		Command("run", "b").Bind(nil, ""),
	)
	require.NoError(t, err)

	assert.ErrorIs(t, group.Call(context.Background(), "a"), boom)
}

func TestCombine(t *testing.T) {
	a := Command("foo", "a").Bind(nil, "")
	b := Command("foo", "b").Bind(nil, "")
	other := Command("bar").Bind(nil, "")

	got, err := Combine(nil, a)
	require.NoError(t, err)
	assert.Same(t, a, got)

	got, err = Combine(a, nil)
	require.NoError(t, err)
	assert.Same(t, a, got)

	_, err = Combine(a, other)
	assert.Error(t, err)

	ab, err := Combine(a, b)
	require.NoError(t, err)
	group := ab.(*CommandGroupHandler)

	c := Command("foo", "c").Bind(nil, "")
	abc, err := Combine(group, c)
	require.NoError(t, err)
	assert.Len(t, group.Members(), 2, "combine copies")
	assert.Len(t, abc.(*CommandGroupHandler).Members(), 3)

	require.NoError(t, group.Add(c))
	assert.Len(t, group.Members(), 3, "add extends in place")
	require.NoError(t, group.Add(c))
	assert.Len(t, group.Members(), 3, "duplicates are skipped")
	assert.Error(t, group.Add(other))
}

func TestGroupRenderingAndHelp(t *testing.T) {
	group, err := NewGroup(
		Command("clear", "host").Bind(nil, "Forget the selected host."),
		Command("clear", "class").Bind(nil, "Forget the selected class."),
	)
	require.NoError(t, err)

	assert.Equal(t, "clear", group.Name())
	assert.Equal(t, "clear host | clear class", group.String())
	assert.Equal(t, "> clear host\n\nForget the selected host.\n\n> clear class\n\nForget the selected class.", group.Help())
	assert.Equal(t, []string{"host ", "class "}, group.Complete("", "clear ", 6, 6))
}

func TestNewGroupEmpty(t *testing.T) {
	_, err := NewGroup()
	assert.Error(t, err)
}

func TestTypedNilCommandsAreIgnored(t *testing.T) {
	var missing *CommandHandler
	var noGroup *CommandGroupHandler
	a := Command("foo", "a").Bind(nil, "")

	got, err := Combine(missing, a)
	require.NoError(t, err)
	assert.Same(t, a, got)

	got, err = Combine(a, noGroup)
	require.NoError(t, err)
	assert.Same(t, a, got)

	got, err = Combine(missing, noGroup)
	require.NoError(t, err)
	assert.Nil(t, got)

	group, err := NewGroup(missing, a)
	require.NoError(t, err)
	require.NoError(t, group.Add(missing, noGroup))
	assert.Len(t, group.Members(), 1)

	_, err = NewGroup(missing)
	assert.Error(t, err)

	m := NewMode("test", missing, a)
	assert.Equal(t, []string{"foo"}, m.Names())
}
