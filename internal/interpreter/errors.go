// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package interpreter

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// SENTINELS
// =============================================================================

var (
	// ErrExit may be returned by a HandlerFunc to end the interpreter loop.
	ErrExit = errors.New("exit")

	// ErrInterrupted is returned by a LineReader when the user aborts the
	// line being edited (Ctrl-C).
	ErrInterrupted = errors.New("interrupted")
)

// =============================================================================
// ARGUMENT ERRORS
// =============================================================================

// InvalidArgumentError reports a single argument that could not be matched:
// a keyword mismatch, a value rejected by a validator, or an empty variadic
// list.
type InvalidArgumentError struct {
	Value    string // Offending token
	Expected string // Expected keyword literal, for keyword mismatches
	Param    string // Parameter display name, for rejected values
	Reason   string // Used when neither Expected nor Param applies
	Err      error  // Validator error, if any
}

func (e *InvalidArgumentError) Error() string {
	switch {
	case e.Expected != "":
		return fmt.Sprintf("Invalid keyword '%s' (expected '%s')", e.Value, e.Expected)
	case e.Param != "" && e.Err != nil:
		return fmt.Sprintf("Invalid value '%s' for %s: %v", e.Value, e.Param, e.Err)
	case e.Param != "":
		return fmt.Sprintf("Invalid value '%s' for %s", e.Value, e.Param)
	default:
		return e.Reason
	}
}

func (e *InvalidArgumentError) Unwrap() error {
	return e.Err
}

// =============================================================================
// COMMAND ERRORS
// =============================================================================

// Candidate is one grammar that was tried, and rejected, while resolving a
// command line. Err is nil when the candidate gave no specific reason.
type Candidate struct {
	Command Dispatcher
	Err     error
}

// InvalidCommandError reports a line that matches no grammar: missing or
// excess arguments, or every member of a command group failing.
type InvalidCommandError struct {
	Line       string
	Reason     string
	Candidates []Candidate
}

func (e *InvalidCommandError) Error() string {
	var b strings.Builder
	switch {
	case e.Reason != "":
		b.WriteString(e.Reason)
	case e.Line != "":
		fmt.Fprintf(&b, "Invalid command: '%s'", e.Line)
	default:
		b.WriteString("Invalid command")
	}

	if len(e.Candidates) > 0 {
		b.WriteString("\nCandidates:")
		for _, c := range e.Candidates {
			b.WriteString("\n  ")
			b.WriteString(c.Command.String())
			if c.Err != nil {
				b.WriteString("\n    ")
				b.WriteString(c.Err.Error())
			}
		}
	}
	return b.String()
}

// =============================================================================
// HELPERS
// =============================================================================

// IsInputError reports whether err was caused by the user's input rather
// than by a command callback.
func IsInputError(err error) bool {
	var argErr *InvalidArgumentError
	var cmdErr *InvalidCommandError
	return errors.As(err, &argErr) || errors.As(err, &cmdErr)
}
