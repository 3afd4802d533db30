// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package interpreter

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedReader replays canned prompt results.
type scriptedReader struct {
	steps   []step
	prompts []string
	history []string
}

type step struct {
	line string
	err  error
}

func (r *scriptedReader) Prompt(prompt string) (string, error) {
	r.prompts = append(r.prompts, prompt)
	if len(r.steps) == 0 {
		return "", io.EOF
	}
	s := r.steps[0]
	r.steps = r.steps[1:]
	return s.line, s.err
}

func (r *scriptedReader) AppendHistory(line string) {
	r.history = append(r.history, line)
}

type fixture struct {
	interp *Interpreter
	out    *bytes.Buffer
	calls  []Args
	root   *Mode
	other  *Mode
}

func newFixture(t *testing.T, reader LineReader) *fixture {
	t.Helper()
	f := &fixture{out: &bytes.Buffer{}}
	record := func(_ context.Context, args Args) error {
		f.calls = append(f.calls, args)
		return nil
	}

	f.other = NewMode("other", Command("back").Bind(func(context.Context, Args) error {
		f.other.Interpreter().SetMode(f.root)
		return nil
	}, "Return to the root mode."))
	f.other.SetPrompt(func() string { return "[other]" })

	f.root = NewMode("root",
		Command("hosts").Bind(record, "List hosts."),
		Command("select", "host", Choice("host", "alpha", "beta")).Bind(record, "Select a host."),
		Command("class", Optional("package", "PACKAGE"), "CLASS").Bind(record, "Select a class."),
		Command("foo", "bar").Bind(record, ""),
		Command("foo", "baz").Bind(record, ""),
		Command("switch").Bind(func(context.Context, Args) error {
			f.root.Interpreter().SetMode(f.other)
			return nil
		}, "Switch modes."),
		Command("quit").Bind(func(context.Context, Args) error { return ErrExit }, "Leave the shell."),
		Command("boom").Bind(func(context.Context, Args) error { panic("boom") }, ""),
		Command("fail").Bind(func(context.Context, Args) error { return errors.New("first\nsecond") }, ""),
	)

	opts := []Option{WithOutput(f.out), WithWidth(40)}
	if reader != nil {
		opts = append(opts, WithReader(reader))
	}
	f.interp = New("mhsh", f.root, opts...)
	return f
}

func TestInterpreterPromptAndModes(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	assert.Equal(t, "mhsh> ", f.interp.Prompt())
	assert.Same(t, f.interp, f.root.Interpreter())

	assert.False(t, f.interp.OneCmd(ctx, "switch"))
	assert.Same(t, f.other, f.interp.Mode())
	assert.Equal(t, "mhsh[other]> ", f.interp.Prompt())
	assert.Nil(t, f.root.Interpreter())

	// the root commands are gone with the mode
	f.interp.OneCmd(ctx, "hosts")
	assert.Contains(t, f.out.String(), "*** Unknown syntax: hosts")

	f.interp.OneCmd(ctx, "back")
	assert.Same(t, f.root, f.interp.Mode())
	assert.Equal(t, "mhsh> ", f.interp.Prompt())
}

func TestInterpreterDispatch(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	assert.False(t, f.interp.OneCmd(ctx, "  select   host beta "))
	assert.False(t, f.interp.OneCmd(ctx, "class package org.example Service"))
	assert.False(t, f.interp.OneCmd(ctx, ""))
	require.Len(t, f.calls, 2)
	assert.Equal(t, Args{"select", "host", "beta"}, f.calls[0])
	assert.Equal(t, Args{"class", Args{"package", "org.example"}, "Service"}, f.calls[1])
	assert.Empty(t, f.out.String())
}

func TestInterpreterErrorOutput(t *testing.T) {
	tests := []struct {
		name string
		line string
		want string
	}{
		{"missing", "select host", "% Missing arguments: 'HOST'\n\n"},
		{"invalid value", "select host gamma", "% Invalid value 'gamma' for HOST: must be one of: alpha, beta\n\n"},
		{"multi-line", "fail", "% first\n% second\n\n"},
		{"panic", "boom", "% boom\n\n"},
		{"group", "foo quux", "% Invalid command: 'foo quux'\n" +
			"% Candidates:\n" +
			"%   foo bar\n" +
			"%     Invalid keyword 'quux' (expected 'bar')\n" +
			"%   foo baz\n" +
			"%     Invalid keyword 'quux' (expected 'baz')\n\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			assert.False(t, f.interp.OneCmd(context.Background(), tt.line), "errors never stop the loop")
			assert.Equal(t, tt.want, f.out.String())
		})
	}
}

func TestInterpreterUnknownSuggests(t *testing.T) {
	f := newFixture(t, nil)
	f.interp.OneCmd(context.Background(), "hostz")
	assert.Equal(t, "*** Unknown syntax: hostz\nDid you mean \"hosts\"?\n", f.out.String())
}

func TestInterpreterExit(t *testing.T) {
	f := newFixture(t, nil)
	assert.True(t, f.interp.OneCmd(context.Background(), "quit"))
	assert.True(t, f.interp.OneCmd(context.Background(), "EOF"))
}

func TestInterpreterCancelledCommand(t *testing.T) {
	f := newFixture(t, nil)
	f.root.Add(Command("wait").Bind(func(ctx context.Context, _ Args) error {
		<-ctx.Done()
		return ctx.Err()
	}, ""))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, f.interp.OneCmd(ctx, "wait"))
	assert.Equal(t, "\n", f.out.String())
}

func TestInterpreterHelp(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	f.interp.OneCmd(ctx, "help")
	assert.Equal(t, "\nCommands:\n=========\n"+
		"boom   fail  help   quit    switch\n"+
		"class  foo   hosts  select\n"+
		"\n", f.out.String())

	f.out.Reset()
	f.interp.OneCmd(ctx, "help hosts")
	assert.Equal(t, "> hosts\n\nList hosts.\n", f.out.String())

	f.out.Reset()
	f.interp.OneCmd(ctx, "help help")
	assert.Equal(t, "Type \"help <topic>\" for help on commands\n", f.out.String())

	f.out.Reset()
	f.interp.OneCmd(ctx, "help nope")
	assert.Equal(t, "*** No help on nope\n", f.out.String())
}

func TestInterpreterRunScript(t *testing.T) {
	f := newFixture(t, nil)
	script := strings.Join([]string{
		"# select a host",
		"select host alpha",
		"",
		"   # indented comment",
		"hosts",
		"quit",
		"hosts",
	}, "\n")

	require.NoError(t, f.interp.RunScript(context.Background(), strings.NewReader(script)))
	require.Len(t, f.calls, 2, "quit stops the script")
	assert.Equal(t, Args{"select", "host", "alpha"}, f.calls[0])
	assert.Equal(t, Args{"hosts"}, f.calls[1])
}

func TestInterpreterRun(t *testing.T) {
	reader := &scriptedReader{steps: []step{
		{line: "hosts"},
		{err: ErrInterrupted},
		{line: "   "},
		{line: "switch"},
		{line: "back"},
	}}
	f := newFixture(t, reader)

	require.NoError(t, f.interp.Run(context.Background()))
	assert.Equal(t, []string{"mhsh> ", "mhsh> ", "mhsh> ", "mhsh> ", "mhsh[other]> ", "mhsh> "}, reader.prompts)
	assert.Equal(t, []string{"hosts", "switch", "back"}, reader.history)
	assert.Len(t, f.calls, 1)
	assert.Equal(t, "\n\n", f.out.String(), "one newline for ^C, one for EOF")
}

func TestInterpreterRunStopsOnExit(t *testing.T) {
	reader := &scriptedReader{steps: []step{{line: "quit"}, {line: "hosts"}}}
	f := newFixture(t, reader)

	require.NoError(t, f.interp.Run(context.Background()))
	assert.Empty(t, f.calls)
	assert.Len(t, reader.steps, 1)
}

func TestInterpreterRunReaderError(t *testing.T) {
	broken := errors.New("terminal gone")
	f := newFixture(t, &scriptedReader{steps: []step{{err: broken}}})
	assert.ErrorIs(t, f.interp.Run(context.Background()), broken)
}

func TestInterpreterComplete(t *testing.T) {
	f := newFixture(t, nil)

	tests := []struct {
		line string
		head string
		want []string
	}{
		{"ho", "", []string{"hosts "}},
		{"s", "", []string{"select ", "switch "}},
		{"help ho", "help ", []string{"hosts"}},
		{"help hosts x", "help hosts ", nil},
		{"select host a", "select host ", []string{"alpha "}},
		{"class ", "class ", []string{"package "}},
		{"foo ", "foo ", []string{"bar ", "baz "}},
		{"nope x", "nope ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			head, got, tail := f.interp.Complete(tt.line, len(tt.line))
			assert.Equal(t, tt.head, head)
			assert.Equal(t, tt.want, got)
			assert.Empty(t, tail)
		})
	}

	head, got, tail := f.interp.Complete("select ho extra", 9)
	assert.Equal(t, "select ", head)
	assert.Equal(t, []string{"host "}, got)
	assert.Equal(t, " extra", tail)
}

func TestNewReader(t *testing.T) {
	var out bytes.Buffer
	r := NewReader(strings.NewReader("hosts\r\nquit"), &out)

	line, err := r.Prompt("> ")
	require.NoError(t, err)
	assert.Equal(t, "hosts", line)

	line, err = r.Prompt("> ")
	require.NoError(t, err)
	assert.Equal(t, "quit", line)

	_, err = r.Prompt("> ")
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "> > > ", out.String())
}

// blockingReader hands out lines sent on its channel, like a terminal.
type blockingReader struct {
	lines chan string
	calls atomic.Int32
}

func (r *blockingReader) Prompt(string) (string, error) {
	r.calls.Add(1)
	line, ok := <-r.lines
	if !ok {
		return "", io.EOF
	}
	return line, nil
}

func (r *blockingReader) AppendHistory(string) {}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// interruptible returns an interpreter fed by a blockingReader whose
// interrupts come from the returned channel.
func interruptible(mode *Mode) (*Interpreter, *blockingReader, *lockedBuffer, chan os.Signal) {
	reader := &blockingReader{lines: make(chan string)}
	out := &lockedBuffer{}
	interp := New("mhsh", mode, WithOutput(out), WithReader(reader))
	sigs := make(chan os.Signal, 1)
	interp.signals = func() (<-chan os.Signal, func()) { return sigs, func() {} }
	return interp, reader, out, sigs
}

func runAsync(ctx context.Context, interp *Interpreter) <-chan error {
	errc := make(chan error, 1)
	go func() { errc <- interp.Run(ctx) }()
	return errc
}

func waitRun(t *testing.T, errc <-chan error) error {
	t.Helper()
	select {
	case err := <-errc:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
		return nil
	}
}

func quitMode(cmds ...Dispatcher) *Mode {
	quit := Command("quit").Bind(func(context.Context, Args) error { return ErrExit }, "")
	return NewMode("root", append(cmds, quit)...)
}

func TestInterpreterRunInterruptAtPrompt(t *testing.T) {
	interp, reader, out, sigs := interruptible(quitMode())
	errc := runAsync(context.Background(), interp)

	require.Eventually(t, func() bool { return reader.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	sigs <- os.Interrupt
	require.Eventually(t, func() bool { return out.String() == "\nmhsh> " }, time.Second, 5*time.Millisecond)

	reader.lines <- "quit"
	require.NoError(t, waitRun(t, errc))
	assert.EqualValues(t, 1, reader.calls.Load(), "the abandoned read serves the next prompt")
}

func TestInterpreterRunInterruptCancelsCommand(t *testing.T) {
	started := make(chan struct{})
	wait := Command("wait").Bind(func(ctx context.Context, _ Args) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}, "")
	interp, reader, out, sigs := interruptible(quitMode(wait))
	errc := runAsync(context.Background(), interp)

	reader.lines <- "wait"
	<-started
	sigs <- os.Interrupt

	reader.lines <- "quit"
	require.NoError(t, waitRun(t, errc))
	assert.Equal(t, "\n", out.String(), "the command is cancelled, the loop goes on")
	assert.EqualValues(t, 2, reader.calls.Load())
}

func TestInterpreterRunContextCancelledAtPrompt(t *testing.T) {
	interp, reader, _, _ := interruptible(quitMode())
	ctx, cancel := context.WithCancel(context.Background())
	errc := runAsync(ctx, interp)

	require.Eventually(t, func() bool { return reader.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	assert.ErrorIs(t, waitRun(t, errc), context.Canceled)
}
