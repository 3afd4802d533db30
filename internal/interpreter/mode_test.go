// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package interpreter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModeGroupsSharedKeywords(t *testing.T) {
	m := NewMode("root",
		Command("clear", "host").Bind(nil, ""),
		Command("hosts").Bind(nil, ""),
	)
	m.Add(Command("clear", "class").Bind(nil, ""), nil)

	assert.Equal(t, []string{"clear", "hosts"}, m.Names())

	cmd, ok := m.Lookup("clear")
	require.True(t, ok)
	group, ok := cmd.(*CommandGroupHandler)
	require.True(t, ok)
	assert.Len(t, group.Members(), 2)

	_, ok = m.Lookup("missing")
	assert.False(t, ok)
	assert.Len(t, m.Commands(), 2)
}

func TestModeActivation(t *testing.T) {
	m := NewMode("root")
	first := &Interpreter{}
	second := &Interpreter{}

	assert.Nil(t, m.Interpreter())
	m.Activate(first)
	assert.Same(t, first, m.Interpreter())

	m.Deactivate(second)
	assert.Same(t, first, m.Interpreter(), "stale deactivation is ignored")

	m.Deactivate(first)
	assert.Nil(t, m.Interpreter())
}

func TestModePrompt(t *testing.T) {
	m := NewMode("filtered")
	assert.Equal(t, "", m.Prompt())

	host := "alpha"
	m.SetPrompt(func() string { return "[" + host + "]" })
	assert.Equal(t, "[alpha]", m.Prompt())
	host = "beta"
	assert.Equal(t, "[beta]", m.Prompt())
}
