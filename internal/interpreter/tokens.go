// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package interpreter

import (
	"slices"
	"strings"
)

// tokens is the remaining input of a line being matched. Arguments consume
// from the front.
type tokens struct {
	items []string
}

func newTokens(line string) *tokens {
	return &tokens{items: strings.Fields(line)}
}

func (t *tokens) empty() bool {
	return len(t.items) == 0
}

func (t *tokens) len() int {
	return len(t.items)
}

func (t *tokens) peek() string {
	return t.items[0]
}

func (t *tokens) pop() string {
	tok := t.items[0]
	t.items = t.items[1:]
	return tok
}

// clone returns an independent copy for trial matching.
func (t *tokens) clone() *tokens {
	return &tokens{items: slices.Clone(t.items)}
}

// commit adopts the state of a successful trial.
func (t *tokens) commit(trial *tokens) {
	t.items = trial.items
}

func (t *tokens) remaining() []string {
	return slices.Clone(t.items)
}
