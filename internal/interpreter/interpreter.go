// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package interpreter

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/mhsh/internal/logging"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	helpCommand  = "help"
	eofCommand   = "EOF"
	docHeader    = "Commands:"
	defaultWidth = 80
)

// =============================================================================
// INTERPRETER
// =============================================================================

// Interpreter is a read-eval-print loop dispatching lines to the commands
// of its current Mode.
type Interpreter struct {
	name   string
	mode   *Mode
	prompt string

	out      io.Writer
	reader   LineReader
	log      logging.Logger
	errStyle *lipgloss.Style
	width    int

	mu      sync.Mutex
	cancel  context.CancelFunc
	signals func() (<-chan os.Signal, func())
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithOutput sets where command output and errors are written.
func WithOutput(w io.Writer) Option {
	return func(i *Interpreter) { i.out = w }
}

// WithReader sets the source of interactive lines.
func WithReader(r LineReader) Option {
	return func(i *Interpreter) { i.reader = r }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(i *Interpreter) { i.log = l }
}

// WithErrorStyle renders error messages with style. nil prints them plain.
func WithErrorStyle(style *lipgloss.Style) Option {
	return func(i *Interpreter) { i.errStyle = style }
}

// WithWidth sets the terminal width used to lay out the help listing.
func WithWidth(width int) Option {
	return func(i *Interpreter) {
		if width > 0 {
			i.width = width
		}
	}
}

// New returns an interpreter named name, starting in mode.
func New(name string, mode *Mode, opts ...Option) *Interpreter {
	i := &Interpreter{
		name:    name,
		out:     os.Stdout,
		log:     logging.Nop(),
		width:   defaultWidth,
		signals: osInterrupts,
	}
	for _, opt := range opts {
		opt(i)
	}
	if i.reader == nil {
		i.reader = NewReader(os.Stdin, i.out)
	}
	if mode == nil {
		mode = NewMode("default")
	}
	i.SetMode(mode)
	return i
}

// Name returns the prompt prefix.
func (i *Interpreter) Name() string { return i.name }

// Mode returns the active mode.
func (i *Interpreter) Mode() *Mode { return i.mode }

// Prompt returns the current prompt.
func (i *Interpreter) Prompt() string { return i.prompt }

// Output returns the writer commands should print to.
func (i *Interpreter) Output() io.Writer { return i.out }

// SetMode switches the active mode and recomputes the prompt.
func (i *Interpreter) SetMode(mode *Mode) {
	if i.mode != nil {
		i.mode.Deactivate(i)
	}
	i.mode = mode
	mode.Activate(i)
	i.prompt = i.name + mode.Prompt() + "> "
	i.log.Debug("mode changed", "mode", mode.Name())
}

// =============================================================================
// DISPATCH
// =============================================================================

// OneCmd runs a single line. Errors are reported on the output and never
// returned. It reports whether the interpreter should stop.
func (i *Interpreter) OneCmd(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	keyword, rest := splitWord(line)

	switch keyword {
	case helpCommand:
		i.help(rest)
		return false
	case eofCommand:
		fmt.Fprintln(i.out)
		return true
	}

	cmd, ok := i.mode.Lookup(keyword)
	if !ok {
		i.unknown(line)
		return false
	}

	i.log.Debug("dispatch", "mode", i.mode.Name(), "command", keyword)
	err := i.dispatch(ctx, cmd, rest)
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrExit):
		return true
	case errors.Is(err, context.Canceled) && ctx.Err() != nil:
		fmt.Fprintln(i.out)
		return false
	}

	if !IsInputError(err) {
		i.log.Warn("command failed", "command", keyword, "error", err)
	}
	i.printError(err)
	return false
}

// splitWord splits the first whitespace-separated word off line.
func splitWord(line string) (word, rest string) {
	line = strings.TrimSpace(line)
	n := strings.IndexAny(line, " \t")
	if n < 0 {
		return line, ""
	}
	return line[:n], strings.TrimSpace(line[n:])
}

func (i *Interpreter) dispatch(ctx context.Context, cmd Dispatcher, line string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			i.log.Error("command panicked", "command", cmd.Name(), "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("%v", r)
		}
	}()
	return cmd.Call(ctx, line)
}

func (i *Interpreter) printError(err error) {
	lines := strings.Split(err.Error(), "\n")
	for n, l := range lines {
		lines[n] = "% " + l
	}
	msg := strings.Join(lines, "\n")
	if i.errStyle != nil {
		msg = i.errStyle.Render(msg)
	}
	fmt.Fprint(i.out, msg+"\n\n")
}

func (i *Interpreter) unknown(line string) {
	fmt.Fprintf(i.out, "*** Unknown syntax: %s\n", line)
	keyword, _ := splitWord(line)
	if s := suggestCommand(keyword, append(i.mode.Names(), helpCommand)); s != "" {
		fmt.Fprintf(i.out, "Did you mean %q?\n", s)
	}
}

// =============================================================================
// LOOPS
// =============================================================================

// Run reads and dispatches lines until end of input, a callback returning
// ErrExit, or ctx being cancelled. An interrupt while a command runs
// cancels that command only; at the prompt it abandons the line.
func (i *Interpreter) Run(ctx context.Context) error {
	sigs, stop := i.signals()
	defer stop()

	idle := make(chan struct{}, 1)
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case <-sigs:
				if !i.interrupt() {
					select {
					case idle <- struct{}{}:
					default:
					}
				}
			case <-done:
				return
			}
		}
	}()

	var pending chan promptResult
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		// a read abandoned by an interrupt stays pending for the next prompt
		if pending == nil {
			pending = make(chan promptResult, 1)
			go func(ch chan<- promptResult, prompt string) {
				line, err := i.reader.Prompt(prompt)
				ch <- promptResult{line, err}
			}(pending, i.prompt)
		}

		var res promptResult
		select {
		case res = <-pending:
			pending = nil
		case <-idle:
			fmt.Fprint(i.out, "\n"+i.prompt)
			continue
		case <-ctx.Done():
			return ctx.Err()
		}

		line, err := res.line, res.err
		switch {
		case errors.Is(err, ErrInterrupted):
			fmt.Fprintln(i.out)
			continue
		case errors.Is(err, io.EOF):
			fmt.Fprintln(i.out)
			return nil
		case err != nil:
			return err
		}

		if strings.TrimSpace(line) != "" {
			i.reader.AppendHistory(line)
		}
		if i.runLine(ctx, line) {
			return nil
		}
	}
}

type promptResult struct {
	line string
	err  error
}

// osInterrupts delivers SIGINT while the loop runs.
func osInterrupts() (<-chan os.Signal, func()) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	return c, func() { signal.Stop(c) }
}

func (i *Interpreter) runLine(ctx context.Context, line string) bool {
	cmdCtx, cancel := context.WithCancel(ctx)
	i.mu.Lock()
	i.cancel = cancel
	i.mu.Unlock()

	defer func() {
		i.mu.Lock()
		i.cancel = nil
		i.mu.Unlock()
		cancel()
	}()
	return i.OneCmd(cmdCtx, line)
}

// interrupt cancels the running command, reporting false when there is none.
func (i *Interpreter) interrupt() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.cancel == nil {
		return false
	}
	i.cancel()
	i.cancel = nil
	return true
}

// RunScript dispatches every line of r, skipping comments starting with
// "#". It stops early if a command returns ErrExit.
func (i *Interpreter) RunScript(ctx context.Context, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if i.OneCmd(ctx, line) {
			return nil
		}
	}
	return scanner.Err()
}

// =============================================================================
// HELP
// =============================================================================

func (i *Interpreter) help(topic string) {
	if topic == "" {
		fmt.Fprintln(i.out)
		i.printTopics(docHeader, append(i.mode.Names(), helpCommand))
		return
	}
	if topic == helpCommand {
		fmt.Fprintln(i.out, `Type "help <topic>" for help on commands`)
		return
	}
	cmd, ok := i.mode.Lookup(topic)
	if !ok {
		fmt.Fprintf(i.out, "*** No help on %s\n", topic)
		return
	}
	fmt.Fprintln(i.out, cmd.Help())
}

func (i *Interpreter) printTopics(header string, names []string) {
	if len(names) == 0 {
		return
	}
	fmt.Fprintln(i.out, header)
	fmt.Fprintln(i.out, strings.Repeat("=", len(header)))
	fmt.Fprint(i.out, columnize(sortedUnique(names), i.width-1))
	fmt.Fprintln(i.out)
}

// =============================================================================
// COMPLETION
// =============================================================================

// Complete returns completions for the word ending at pos, in the shape of
// liner's WordCompleter: the text before the word, the candidate words and
// the text after pos.
func (i *Interpreter) Complete(line string, pos int) (head string, completions []string, tail string) {
	pos = min(max(pos, 0), len(line))
	before, tail := line[:pos], line[pos:]
	begin := strings.LastIndexAny(before, " \t") + 1
	head, text := before[:begin], before[begin:]

	trimmed := strings.TrimLeft(before, " \t")
	offset := len(before) - len(trimmed)

	var out []string
	if strings.TrimSpace(head) == "" {
		out = i.completeNames(text, " ")
	} else {
		keyword, _ := splitWord(trimmed)
		if keyword == helpCommand {
			out = i.completeHelp(text, trimmed[:begin-offset])
		} else if cmd, ok := i.mode.Lookup(keyword); ok {
			out = cmd.Complete(text, trimmed, begin-offset, pos-offset)
		}
	}

	for _, c := range out {
		if c != "" {
			completions = append(completions, c)
		}
	}
	return head, completions, tail
}

func (i *Interpreter) completeNames(text, suffix string) []string {
	var out []string
	for _, n := range sortedUnique(append(i.mode.Names(), helpCommand)) {
		if strings.HasPrefix(n, text) {
			out = append(out, n+suffix)
		}
	}
	return out
}

// completeHelp completes a single topic name; head is the line before text.
func (i *Interpreter) completeHelp(text, head string) []string {
	if len(strings.Fields(head)) > 1 {
		return nil
	}
	return i.completeNames(text, "")
}
