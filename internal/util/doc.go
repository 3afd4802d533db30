// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by the mhsh packages.
//
// # Key Functions
//
// File Operations:
//   - AtomicWriteFile: Crash-safe file writing with fsync
//   - AtomicWriteFunc: The same, streaming from a writer callback
//
// Display Width:
//   - StringWidth, TruncateWidth, PadRight: column-aware string layout
//
// # Usage
//
//	// Write files atomically to prevent data loss
//	err := util.AtomicWriteFile(path, data, 0600)
//
//	// Fit a value into a table cell
//	cell := util.PadRight(util.TruncateWidth(value, 30), 30)
package util
