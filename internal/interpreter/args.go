// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package interpreter

import "fmt"

// Args holds the collated values passed to a HandlerFunc, positionally
// aligned with the grammar. Position 0 is the command keyword. An optional
// block occupies one position holding an Args group.
type Args []any

// Len returns the number of values.
func (a Args) Len() int { return len(a) }

// Value returns the value at i, or nil when i is out of range.
func (a Args) Value(i int) any {
	if i < 0 || i >= len(a) {
		return nil
	}
	return a[i]
}

// Present reports whether position i holds a value.
func (a Args) Present(i int) bool {
	return a.Value(i) != nil
}

// String returns the value at i as a string, or "" when absent.
func (a Args) String(i int) string {
	switch v := a.Value(i).(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// Int returns the value at i when it is an int.
func (a Args) Int(i int) (int, bool) {
	n, ok := a.Value(i).(int)
	return n, ok
}

// Group returns the optional block at i, or nil.
func (a Args) Group(i int) Args {
	g, _ := a.Value(i).(Args)
	return g
}

// Strings returns the values from position from onwards as strings.
func (a Args) Strings(from int) []string {
	if from < 0 || from >= len(a) {
		return nil
	}
	out := make([]string, 0, len(a)-from)
	for i := from; i < len(a); i++ {
		out = append(out, a.String(i))
	}
	return out
}
