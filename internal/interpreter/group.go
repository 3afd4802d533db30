// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package interpreter

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
)

// CommandGroupHandler dispatches a line to the first of several commands
// sharing a leading keyword that accepts it, for example "clear host" and
// "clear class".
type CommandGroupHandler struct {
	name    string
	members []Dispatcher
}

// NewGroup returns a group of cmds, which must all share a name.
func NewGroup(cmds ...Dispatcher) (*CommandGroupHandler, error) {
	cmds = slices.DeleteFunc(slices.Clone(cmds), isNil)
	if len(cmds) == 0 {
		return nil, errors.New("interpreter: empty command group")
	}
	g := &CommandGroupHandler{name: cmds[0].Name()}
	if err := g.Add(cmds...); err != nil {
		return nil, err
	}
	return g, nil
}

// Name returns the shared keyword.
func (g *CommandGroupHandler) Name() string { return g.name }

// Members returns the handlers in the order they are tried.
func (g *CommandGroupHandler) Members() []Dispatcher { return slices.Clone(g.members) }

// Add extends the group in place. Nested groups are flattened and members
// already present are skipped.
func (g *CommandGroupHandler) Add(cmds ...Dispatcher) error {
	for _, c := range cmds {
		if isNil(c) {
			continue
		}
		if c.Name() != g.name {
			return fmt.Errorf("interpreter: cannot group %q with %q", c.Name(), g.name)
		}
		for _, m := range membersOf(c) {
			if !slices.Contains(g.members, m) {
				g.members = append(g.members, m)
			}
		}
	}
	return nil
}

func (g *CommandGroupHandler) String() string {
	parts := make([]string, len(g.members))
	for i, m := range g.members {
		parts[i] = m.String()
	}
	return strings.Join(parts, " | ")
}

// Help joins the help of every member.
func (g *CommandGroupHandler) Help() string {
	parts := make([]string, len(g.members))
	for i, m := range g.members {
		parts[i] = m.Help()
	}
	return strings.Join(parts, "\n\n")
}

// Call runs the callback of the first member accepting line. Members are
// only matched, never invoked, until one accepts.
func (g *CommandGroupHandler) Call(ctx context.Context, line string) error {
	h, args, err := g.resolve(line)
	if err != nil {
		return err
	}
	return h.fn(ctx, args)
}

func (g *CommandGroupHandler) resolve(line string) (*CommandHandler, Args, error) {
	var candidates []Candidate
	for _, m := range g.members {
		h, args, err := m.resolve(line)
		if err == nil {
			return h, args, nil
		}

		var cmdErr *InvalidCommandError
		var argErr *InvalidArgumentError
		switch {
		case errors.As(err, &cmdErr):
			if len(cmdErr.Candidates) > 0 {
				candidates = append(candidates, cmdErr.Candidates...)
			} else {
				candidates = append(candidates, Candidate{Command: m})
			}
		case errors.As(err, &argErr):
			candidates = append(candidates, Candidate{Command: m, Err: err})
		default:
			return nil, nil, err
		}
	}
	return nil, nil, &InvalidCommandError{
		Line:       strings.TrimSpace(g.name + " " + line),
		Candidates: candidates,
	}
}

// Complete returns the union of every member's completions.
func (g *CommandGroupHandler) Complete(text, line string, begin, end int) []string {
	var out []string
	for _, m := range g.members {
		out = appendUnique(out, m.Complete(text, line, begin, end)...)
	}
	return out
}

// Combine merges two commands sharing a leading keyword into a group. A nil
// operand is the identity. Neither operand is modified.
func Combine(a, b Dispatcher) (Dispatcher, error) {
	switch {
	case isNil(a) && isNil(b):
		return nil, nil
	case isNil(a):
		return b, nil
	case isNil(b):
		return a, nil
	case a.Name() != b.Name():
		return nil, fmt.Errorf("interpreter: cannot combine %q with %q", a.Name(), b.Name())
	}
	g := &CommandGroupHandler{name: a.Name()}
	if err := g.Add(a, b); err != nil {
		return nil, err
	}
	return g, nil
}

// isNil also reports typed nil pointers held in the interface.
func isNil(c Dispatcher) bool {
	switch v := c.(type) {
	case nil:
		return true
	case *CommandHandler:
		return v == nil
	case *CommandGroupHandler:
		return v == nil
	}
	return false
}

func membersOf(c Dispatcher) []Dispatcher {
	if g, ok := c.(*CommandGroupHandler); ok {
		return g.members
	}
	return []Dispatcher{c}
}
