// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package interpreter

import (
	"fmt"
	"strings"
)

// =============================================================================
// ARGUMENT
// =============================================================================

// Argument is one node of a command grammar: *Keyword, *Parameter,
// *OptionalArguments or *RepeatedArguments.
type Argument interface {
	fmt.Stringer

	// Complete returns the suggestions for fragment at this position. An
	// empty result means the fragment cannot be valid here.
	Complete(fragment string) []string

	// match consumes tokens from the front of ts and returns the values to
	// pass to the callback. complete is false when the input ran out before
	// the argument was satisfied.
	match(ts *tokens) (values []any, complete bool, err error)
}

// matchAll matches args in order, stopping at the first incomplete one.
func matchAll(args []Argument, ts *tokens) ([]any, bool, error) {
	var out []any
	for _, a := range args {
		vals, complete, err := a.match(ts)
		if err != nil {
			return nil, false, err
		}
		out = append(out, vals...)
		if !complete {
			return out, false, nil
		}
	}
	return out, true, nil
}

func joinArgs(args []Argument) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	return strings.Join(parts, " ")
}

// =============================================================================
// KEYWORD
// =============================================================================

// Keyword matches one literal token, compared case-sensitively.
type Keyword struct {
	text string
}

// NewKeyword returns a Keyword matching text.
func NewKeyword(text string) *Keyword {
	return &Keyword{text: text}
}

// Text returns the literal.
func (k *Keyword) Text() string { return k.text }

func (k *Keyword) String() string { return k.text }

func (k *Keyword) Complete(fragment string) []string {
	if strings.HasPrefix(k.text, fragment) {
		return []string{k.text + " "}
	}
	return nil
}

func (k *Keyword) match(ts *tokens) ([]any, bool, error) {
	if ts.empty() {
		return nil, false, nil
	}
	if tok := ts.peek(); tok != k.text {
		return nil, false, &InvalidArgumentError{Value: tok, Expected: k.text}
	}
	return []any{ts.pop()}, true, nil
}

// =============================================================================
// PARAMETER
// =============================================================================

// Parameter matches one user-supplied token, converted by its Validator
// when it has one.
type Parameter struct {
	placeholder string
	validator   Validator
}

// Param returns a Parameter typed by v.
func Param(v Validator) *Parameter {
	return &Parameter{validator: v}
}

// Placeholder returns an untyped Parameter displayed as name.
func Placeholder(name string) *Parameter {
	return &Parameter{placeholder: name}
}

// Name returns the validator name or the placeholder text.
func (p *Parameter) Name() string {
	if p.validator != nil {
		return p.validator.Name()
	}
	return p.placeholder
}

func (p *Parameter) String() string { return strings.ToUpper(p.Name()) }

func (p *Parameter) Complete(fragment string) []string {
	if c, ok := p.validator.(Completer); ok {
		return c.Complete(fragment)
	}
	if p.validator == nil || fragment == "" {
		return []string{""}
	}
	if _, err := p.validator.Validate(fragment); err != nil {
		return nil
	}
	return []string{""}
}

func (p *Parameter) match(ts *tokens) ([]any, bool, error) {
	if ts.empty() {
		return nil, false, nil
	}
	tok := ts.pop()
	if p.validator == nil {
		return []any{tok}, true, nil
	}
	v, err := p.validator.Validate(tok)
	if err != nil {
		return nil, false, &InvalidArgumentError{Value: tok, Param: p.String(), Err: err}
	}
	return []any{v}, true, nil
}

// =============================================================================
// OPTIONAL ARGUMENTS
// =============================================================================

// OptionalArguments is a block of arguments that may be omitted as a
// whole. It never fails: when its children cannot all be matched it yields
// a group of nils and consumes nothing.
type OptionalArguments struct {
	children []Argument
}

// Optional declares an optional block. Elements are parsed like the
// arguments of Command.
func Optional(spec ...any) *OptionalArguments {
	return &OptionalArguments{children: parseArgs(spec)}
}

// Children returns the block's arguments.
func (o *OptionalArguments) Children() []Argument { return o.children }

func (o *OptionalArguments) String() string { return "(" + joinArgs(o.children) + ")" }

func (o *OptionalArguments) Complete(fragment string) []string {
	if len(o.children) == 0 {
		return nil
	}
	return o.children[0].Complete(fragment)
}

// trial is the outcome of matching a block against a copy of the input.
type trial struct {
	ok     bool
	values Args
	rest   *tokens
}

func (o *OptionalArguments) attempt(ts *tokens) trial {
	rest := ts.clone()
	vals, complete, err := matchAll(o.children, rest)
	if err != nil || !complete {
		return trial{}
	}
	return trial{ok: true, values: vals, rest: rest}
}

func (o *OptionalArguments) match(ts *tokens) ([]any, bool, error) {
	t := o.attempt(ts)
	if !t.ok {
		return []any{make(Args, len(o.children))}, true, nil
	}
	ts.commit(t.rest)
	return []any{t.values}, true, nil
}

// =============================================================================
// REPEATED ARGUMENTS
// =============================================================================

// RepeatedArguments is a list of arguments repeated until the input is
// exhausted. At least one repetition is required.
type RepeatedArguments struct {
	children []Argument
}

// Repeated declares a repeated list. Elements are parsed like the
// arguments of Command.
func Repeated(spec ...any) *RepeatedArguments {
	return &RepeatedArguments{children: parseArgs(spec)}
}

// Children returns the repeated arguments.
func (r *RepeatedArguments) Children() []Argument { return r.children }

func (r *RepeatedArguments) String() string { return "[" + joinArgs(r.children) + "]" }

func (r *RepeatedArguments) Complete(fragment string) []string {
	if len(r.children) == 0 {
		return nil
	}
	return r.children[0].Complete(fragment)
}

func (r *RepeatedArguments) match(ts *tokens) ([]any, bool, error) {
	if ts.empty() {
		return nil, false, &InvalidArgumentError{
			Reason: fmt.Sprintf("Invalid arguments: empty variadic argument list '%s'", r),
		}
	}

	var out []any
	for !ts.empty() {
		before := ts.len()
		vals, complete, err := matchAll(r.children, ts)
		if err != nil {
			return nil, false, err
		}
		out = append(out, vals...)
		if !complete {
			return out, false, nil
		}
		// a repetition that consumes nothing would never terminate
		if ts.len() == before {
			break
		}
	}
	return out, true, nil
}

// =============================================================================
// DECLARATION PARSING
// =============================================================================

func parseArgs(spec []any) []Argument {
	args := make([]Argument, 0, len(spec))
	for _, s := range spec {
		args = append(args, parseArg(s))
	}
	return args
}

func parseArg(spec any) Argument {
	switch v := spec.(type) {
	case Argument:
		return v
	case Validator:
		return Param(v)
	case string:
		if v == "" || strings.ContainsAny(v, " \t") {
			panic(fmt.Sprintf("interpreter: invalid argument declaration %q", v))
		}
		if strings.ToUpper(v) == v {
			return Placeholder(v)
		}
		return NewKeyword(v)
	default:
		panic(fmt.Sprintf("interpreter: unsupported argument declaration %T", spec))
	}
}
