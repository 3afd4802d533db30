// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package interpreter

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// LineReader supplies interactive input lines. Prompt returns io.EOF at end
// of input and ErrInterrupted when the user aborts the line.
type LineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(line string)
}

// bufferedReader reads lines from a plain stream, without line editing.
type bufferedReader struct {
	in  *bufio.Reader
	out io.Writer
}

// NewReader returns a LineReader reading from r and printing prompts to w.
// It has no history and no completion.
func NewReader(r io.Reader, w io.Writer) LineReader {
	return &bufferedReader{in: bufio.NewReader(r), out: w}
}

func (b *bufferedReader) Prompt(prompt string) (string, error) {
	fmt.Fprint(b.out, prompt)
	line, err := b.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (b *bufferedReader) AppendHistory(string) {}
