// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package interpreter

import (
	"fmt"
	"strconv"
	"strings"
)

// =============================================================================
// VALIDATOR INTERFACES
// =============================================================================

// Validator converts and checks the token bound to a Parameter. The name is
// used, upper-cased, as the parameter's display name.
type Validator interface {
	Name() string
	Validate(token string) (any, error)
}

// Completer is implemented by validators that can suggest values.
// Suggestions that complete a whole token should end with a space.
type Completer interface {
	Complete(fragment string) []string
}

// =============================================================================
// BUILT-IN VALIDATORS
// =============================================================================

type funcValidator struct {
	name string
	fn   func(string) (any, error)
}

func (v funcValidator) Name() string                       { return v.name }
func (v funcValidator) Validate(token string) (any, error) { return v.fn(token) }

// Func returns a Validator backed by fn.
func Func(name string, fn func(token string) (any, error)) Validator {
	return funcValidator{name: name, fn: fn}
}

// Int returns a Validator accepting base-10 integers.
func Int(name string) Validator {
	return Func(name, func(token string) (any, error) {
		n, err := strconv.Atoi(token)
		if err != nil {
			return nil, fmt.Errorf("not an integer")
		}
		return n, nil
	})
}

type choiceValidator struct {
	name   string
	values func() []string
}

// Choice returns a Validator accepting exactly one of values, with
// completion over them.
func Choice(name string, values ...string) Validator {
	return ChoiceFunc(name, func() []string { return values })
}

// ChoiceFunc is like Choice but asks values for the allowed set on every
// use, so the set can change at runtime.
func ChoiceFunc(name string, values func() []string) Validator {
	return choiceValidator{name: name, values: values}
}

func (v choiceValidator) Name() string { return v.name }

func (v choiceValidator) Validate(token string) (any, error) {
	allowed := v.values()
	for _, a := range allowed {
		if a == token {
			return token, nil
		}
	}
	if len(allowed) == 0 {
		return nil, fmt.Errorf("no values available")
	}
	return nil, fmt.Errorf("must be one of: %s", strings.Join(allowed, ", "))
}

func (v choiceValidator) Complete(fragment string) []string {
	var out []string
	for _, a := range v.values() {
		if strings.HasPrefix(a, fragment) {
			out = append(out, a+" ")
		}
	}
	return out
}
