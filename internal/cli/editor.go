// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// editor.go - Line editing and persistent history for the interactive shell.
//
// USABILITY: Supports arrow keys for history navigation, line editing and
// tab completion of commands and their arguments.

package cli

import (
	"bytes"
	"errors"
	"os"
	"strings"

	"github.com/peterh/liner"

	"github.com/jeranaias/mhsh/internal/interpreter"
	"github.com/jeranaias/mhsh/internal/util"
)

// LineEditor is an interpreter.LineReader backed by liner.
type LineEditor struct {
	line        *liner.State
	historyFile string
	limit       int
}

// NewLineEditor creates a line editor and loads history from historyFile.
// An empty historyFile disables persistence; limit caps the saved lines.
func NewLineEditor(historyFile string, limit int) *LineEditor {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	line.SetTabCompletionStyle(liner.TabPrints)

	e := &LineEditor{
		line:        line,
		historyFile: historyFile,
		limit:       limit,
	}
	e.LoadHistory()
	return e
}

// SetCompleter installs the tab completion function.
func (e *LineEditor) SetCompleter(fn liner.WordCompleter) {
	e.line.SetWordCompleter(fn)
}

// Prompt implements interpreter.LineReader.
func (e *LineEditor) Prompt(prompt string) (string, error) {
	input, err := e.line.Prompt(prompt)
	switch {
	case errors.Is(err, liner.ErrPromptAborted):
		return "", interpreter.ErrInterrupted
	case err != nil:
		return "", err
	}
	return input, nil
}

// AppendHistory implements interpreter.LineReader.
func (e *LineEditor) AppendHistory(line string) {
	e.line.AppendHistory(line)
}

// LoadHistory loads command history from file.
func (e *LineEditor) LoadHistory() {
	if e.historyFile == "" {
		return
	}
	if f, err := os.Open(e.historyFile); err == nil {
		e.line.ReadHistory(f)
		f.Close()
	}
}

// SaveHistory persists the newest history lines with secure permissions
// (0600 - owner read/write only).
func (e *LineEditor) SaveHistory() error {
	if e.historyFile == "" || e.limit == 0 {
		return nil
	}
	var buf bytes.Buffer
	if _, err := e.line.WriteHistory(&buf); err != nil {
		return err
	}
	data := trimHistory(buf.Bytes(), e.limit)
	return util.AtomicWriteFileWithDir(e.historyFile, data, 0600, 0700)
}

// Close saves history and restores the terminal.
func (e *LineEditor) Close() error {
	saveErr := e.SaveHistory()
	if err := e.line.Close(); err != nil {
		return err
	}
	return saveErr
}

// trimHistory keeps the last limit lines of a history dump.
func trimHistory(data []byte, limit int) []byte {
	lines := strings.SplitAfter(string(data), "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	if limit > 0 && len(lines) > limit {
		lines = lines[len(lines)-limit:]
	}
	return []byte(strings.Join(lines, ""))
}
