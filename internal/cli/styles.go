// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// styles.go - Shared styles for the mhsh CLI.
//
// Color handling:
// - ApplyColorProfile must run before rendering, once the color mode is known
// - Colors are disabled for non-TTY output unless forced

package cli

import (
	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// SHARED STYLES
// =============================================================================

var (
	// TitleStyle is used for headers
	// Color: Cyan (#39)
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")) // Cyan

	// KeyStyle is used for configuration keys
	// Color: Light gray (#245)
	KeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")) // Light gray

	// ValueStyle is used for configuration values
	// Color: Green (#82)
	ValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("82")) // Green

	// SuccessStyle is used for success messages
	// Color: Green (#42)
	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")). // Green
			Bold(true)

	// ErrorStyle is used for command errors inside the shell
	// Color: Red (#196)
	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // Red

	// DimStyle is used for secondary information and hints
	// Color: Dim gray (#242)
	DimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("242")) // Dim gray
)

// ApplyColorProfile configures lipgloss for the color mode.
func ApplyColorProfile(mode string) {
	lipgloss.SetColorProfile(GetColorProfile(mode))
}

// errorStyle returns the style for shell errors, or nil to print them
// plain.
func errorStyle(mode string) *lipgloss.Style {
	if !ColorsEnabled(mode) {
		return nil
	}
	return &ErrorStyle
}
