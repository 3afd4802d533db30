// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package interpreter

import (
	"fmt"
	"sort"
)

// Mode is a named set of commands, keyed by leading keyword, that forms one
// state of an Interpreter. Commands sharing a keyword are grouped
// automatically.
type Mode struct {
	name     string
	commands map[string]Dispatcher
	prompt   func() string
	interp   *Interpreter
}

// NewMode returns a mode holding cmds.
func NewMode(name string, cmds ...Dispatcher) *Mode {
	m := &Mode{name: name, commands: make(map[string]Dispatcher)}
	m.Add(cmds...)
	return m
}

// Name returns the mode name.
func (m *Mode) Name() string { return m.name }

// Add registers cmds, combining each with any command already registered
// under the same keyword.
func (m *Mode) Add(cmds ...Dispatcher) {
	for _, c := range cmds {
		if isNil(c) {
			continue
		}
		merged, err := Combine(m.commands[c.Name()], c)
		if err != nil {
			// keys are names, so this is unreachable
			panic(fmt.Sprintf("interpreter: mode %s: %v", m.name, err))
		}
		m.commands[c.Name()] = merged
	}
}

// Lookup returns the command registered for keyword.
func (m *Mode) Lookup(keyword string) (Dispatcher, bool) {
	c, ok := m.commands[keyword]
	return c, ok
}

// Names returns the registered keywords, sorted.
func (m *Mode) Names() []string {
	names := make([]string, 0, len(m.commands))
	for n := range m.commands {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Commands returns the registered commands ordered by keyword.
func (m *Mode) Commands() []Dispatcher {
	out := make([]Dispatcher, 0, len(m.commands))
	for _, n := range m.Names() {
		out = append(out, m.commands[n])
	}
	return out
}

// SetPrompt installs the function computing the prompt suffix.
func (m *Mode) SetPrompt(fn func() string) { m.prompt = fn }

// Prompt returns the mode's prompt suffix, empty by default.
func (m *Mode) Prompt() string {
	if m.prompt == nil {
		return ""
	}
	return m.prompt()
}

// Interpreter returns the interpreter the mode is active in, or nil.
func (m *Mode) Interpreter() *Interpreter { return m.interp }

// Activate attaches the mode to i.
func (m *Mode) Activate(i *Interpreter) { m.interp = i }

// Deactivate detaches the mode, but only from the interpreter it is
// currently attached to.
func (m *Mode) Deactivate(i *Interpreter) {
	if m.interp == i {
		m.interp = nil
	}
}
