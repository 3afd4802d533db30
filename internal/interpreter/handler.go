// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package interpreter

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

// =============================================================================
// DISPATCHER
// =============================================================================

// Dispatcher is a unit the interpreter can dispatch a line to: a single
// *CommandHandler or a *CommandGroupHandler of handlers sharing a leading
// keyword.
type Dispatcher interface {
	fmt.Stringer

	// Name returns the leading keyword.
	Name() string

	// Help returns the usage text shown by "help <name>".
	Help() string

	// Call matches line (without the leading keyword) and runs the
	// callback of the matching grammar.
	Call(ctx context.Context, line string) error

	// Complete returns completions for text, the word being edited, which
	// spans line[begin:end]. line includes the leading keyword.
	Complete(text, line string, begin, end int) []string

	// resolve finds the handler matching line and its collated arguments
	// without invoking anything.
	resolve(line string) (*CommandHandler, Args, error)
}

var (
	_ Dispatcher = (*CommandHandler)(nil)
	_ Dispatcher = (*CommandGroupHandler)(nil)
)

// HandlerFunc is the callback bound to a grammar. args[0] is the leading
// keyword.
type HandlerFunc func(ctx context.Context, args Args) error

// =============================================================================
// GRAMMAR
// =============================================================================

// Grammar is a parsed command declaration that is not yet bound to a
// callback.
type Grammar struct {
	args []Argument
}

// Command parses a command declaration. The first element must be a
// keyword string; the rest may be keyword strings, upper-case placeholder
// strings, Validators, or Arguments built with Optional, Repeated and Param.
//
// Command panics on a malformed declaration.
func Command(spec ...any) *Grammar {
	if len(spec) == 0 {
		panic("interpreter: empty command declaration")
	}
	args := parseArgs(spec)
	if _, ok := args[0].(*Keyword); !ok {
		panic(fmt.Sprintf("interpreter: command must start with a keyword, got %s", args[0]))
	}
	return &Grammar{args: args}
}

// Name returns the leading keyword.
func (g *Grammar) Name() string { return g.args[0].String() }

// Args returns the declared arguments, leading keyword first.
func (g *Grammar) Args() []Argument { return slices.Clone(g.args) }

func (g *Grammar) String() string { return joinArgs(g.args) }

// Bind returns a handler running fn for lines matching the grammar. doc is
// the help text; it is trimmed the way Go doc comments are.
func (g *Grammar) Bind(fn HandlerFunc, doc string) *CommandHandler {
	return &CommandHandler{
		grammar: g,
		fn:      fn,
		doc:     trimDoc(doc),
		graph:   NewArgGraph(g.args),
	}
}

// =============================================================================
// COMMAND HANDLER
// =============================================================================

// CommandHandler is a grammar bound to a callback.
type CommandHandler struct {
	grammar *Grammar
	fn      HandlerFunc
	doc     string
	graph   *ArgGraph
}

// Name returns the leading keyword.
func (h *CommandHandler) Name() string { return h.grammar.Name() }

// Args returns the declared arguments.
func (h *CommandHandler) Args() []Argument { return h.grammar.Args() }

// Graph returns the completion graph.
func (h *CommandHandler) Graph() *ArgGraph { return h.graph }

func (h *CommandHandler) String() string { return h.grammar.String() }

// Help renders the grammar followed by the documentation.
func (h *CommandHandler) Help() string {
	if h.doc == "" {
		return "> " + h.String()
	}
	return "> " + h.String() + "\n\n" + h.doc
}

// Match collates line against the grammar without running the callback.
func (h *CommandHandler) Match(line string) (Args, error) {
	ts := newTokens(line)
	ts.items = append([]string{h.Name()}, ts.items...)
	return h.collate(ts)
}

// Call matches line and runs the callback.
func (h *CommandHandler) Call(ctx context.Context, line string) error {
	args, err := h.Match(line)
	if err != nil {
		return err
	}
	return h.fn(ctx, args)
}

func (h *CommandHandler) resolve(line string) (*CommandHandler, Args, error) {
	args, err := h.Match(line)
	if err != nil {
		return nil, nil, err
	}
	return h, args, nil
}

func (h *CommandHandler) collate(ts *tokens) (Args, error) {
	line := strings.Join(ts.remaining(), " ")

	var out Args
	for i, a := range h.grammar.args {
		vals, complete, err := a.match(ts)
		if err != nil {
			return nil, err
		}
		out = append(out, vals...)
		if !complete {
			return nil, &InvalidCommandError{
				Line:   line,
				Reason: fmt.Sprintf("Missing arguments: '%s'", joinArgs(h.grammar.args[i:])),
			}
		}
	}

	if !ts.empty() {
		return nil, &InvalidCommandError{
			Line:   line,
			Reason: fmt.Sprintf("Excess arguments: '%s'", strings.Join(ts.remaining(), " ")),
		}
	}
	return out, nil
}

// Complete returns the suggestions for the word line[begin:end] over every
// path through the grammar that accepts the words typed before it.
func (h *CommandHandler) Complete(text, line string, begin, end int) []string {
	begin = min(max(begin, 0), len(line))
	words := strings.Fields(line[:begin])
	words = append(words, text)

	var out []string
	for path := range h.graph.Paths(len(words)) {
		if len(path) < len(words) {
			continue
		}
		var last []string
		ok := true
		for i, w := range words {
			last = path[i].Complete(w)
			if len(last) == 0 {
				ok = false
				break
			}
		}
		if ok {
			out = appendUnique(out, last...)
		}
	}
	return out
}

func appendUnique(dst []string, items ...string) []string {
	for _, s := range items {
		if !slices.Contains(dst, s) {
			dst = append(dst, s)
		}
	}
	return dst
}

// =============================================================================
// DOC TRIMMING
// =============================================================================

// trimDoc removes the indentation shared by every line after the first and
// any leading or trailing blank lines. Tabs count as eight columns.
func trimDoc(doc string) string {
	if doc == "" {
		return ""
	}
	lines := strings.Split(strings.ReplaceAll(doc, "\t", "        "), "\n")

	indent := -1
	for _, l := range lines[1:] {
		stripped := strings.TrimLeft(l, " ")
		if stripped == "" {
			continue
		}
		if n := len(l) - len(stripped); indent < 0 || n < indent {
			indent = n
		}
	}

	out := []string{strings.TrimSpace(lines[0])}
	for _, l := range lines[1:] {
		if indent > 0 && len(l) >= indent {
			l = l[indent:]
		}
		out = append(out, strings.TrimRight(l, " "))
	}

	for len(out) > 0 && out[0] == "" {
		out = out[1:]
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return strings.Join(out, "\n")
}
