// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// terminal.go - Terminal detection for the mhsh CLI.
//
// This file decides between the interactive shell and script mode, and
// whether output is colored:
// - Interactive terminals get line editing, colors and the banner
// - Piped input is run as a script
// - NO_COLOR and FORCE_COLOR are honored

package cli

import (
	"os"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// =============================================================================
// TTY DETECTION
// =============================================================================

// IsTTY returns true if stdin is a terminal.
// Use this to determine if interactive prompts are possible.
func IsTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// IsStdoutTTY returns true if stdout is a terminal.
func IsStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// =============================================================================
// TERMINAL WIDTH DETECTION
// =============================================================================

const (
	// DefaultTerminalWidth is the fallback width when detection fails
	DefaultTerminalWidth = 80

	// MinTerminalWidth is the narrowest layout we produce
	MinTerminalWidth = 40
)

// GetTerminalWidth returns the current terminal width.
// Returns DefaultTerminalWidth (80) if width cannot be determined.
func GetTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return DefaultTerminalWidth
	}
	return max(width, MinTerminalWidth)
}

// =============================================================================
// COLOR OUTPUT CONTROL
// =============================================================================

// ColorsEnabled reports whether colored output should be used for the
// configured mode ("auto", "always" or "never").
// See https://no-color.org/ for the NO_COLOR specification.
func ColorsEnabled(mode string) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}

	// NO_COLOR takes precedence (any non-empty value disables colors)
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	// FORCE_COLOR overrides TTY detection
	if os.Getenv("FORCE_COLOR") != "" {
		return true
	}
	return IsStdoutTTY()
}

// GetColorProfile returns the termenv color profile for the color mode.
// Returns Ascii (no colors) when colors are disabled.
func GetColorProfile(mode string) termenv.Profile {
	if !ColorsEnabled(mode) {
		return termenv.Ascii
	}
	// Let termenv auto-detect the best profile for this terminal
	if p := termenv.ColorProfile(); p != termenv.Ascii {
		return p
	}
	return termenv.ANSI256
}
