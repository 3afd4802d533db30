// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package shell

import (
	"context"
	"io"
	"os"

	"github.com/jeranaias/mhsh/internal/broker"
	"github.com/jeranaias/mhsh/internal/interpreter"
	"github.com/jeranaias/mhsh/internal/logging"
)

// Mode names.
const (
	ModeRoot          = "root"
	ModeFiltered      = "filtered"
	ModeClass         = "class"
	ModeFilteredClass = "filtered-class"
)

// classRef identifies the selected class.
type classRef struct {
	pkg  string
	name string
}

func (c classRef) String() string { return c.pkg + ":" + c.name }

// Shell holds the selection state shared by the mhsh modes.
type Shell struct {
	mgr    *broker.Manager
	format Format
	width  int
	out    io.Writer
	log    logging.Logger

	host  *broker.Host
	class *classRef

	root          *interpreter.Mode
	filtered      *interpreter.Mode
	classMode     *interpreter.Mode
	filteredClass *interpreter.Mode
}

// Option configures a Shell.
type Option func(*Shell)

// WithFormat sets the output format for listings and results.
func WithFormat(f Format) Option {
	return func(s *Shell) { s.format = f }
}

// WithWidth truncates text output to width columns. Zero disables
// truncation.
func WithWidth(width int) Option {
	return func(s *Shell) { s.width = max(width, 0) }
}

// WithOutput sets the writer used when a command runs outside an
// interpreter.
func WithOutput(w io.Writer) Option {
	return func(s *Shell) { s.out = w }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(s *Shell) { s.log = l }
}

// New returns a shell over mgr with its modes built.
func New(mgr *broker.Manager, opts ...Option) *Shell {
	s := &Shell{
		mgr:    mgr,
		format: FormatText,
		out:    os.Stdout,
		log:    logging.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.root = s.newMode(ModeRoot, nil, s.rootCommands)
	s.filtered = s.newMode(ModeFiltered, s.hostPrompt, s.rootCommands, s.hostCommands)
	s.classMode = s.newMode(ModeClass, s.classPrompt, s.rootCommands, s.classCommands)
	s.filteredClass = s.newMode(ModeFilteredClass, func() string {
		return s.hostPrompt() + s.classPrompt()
	}, s.rootCommands, s.hostCommands, s.classCommands)
	return s
}

// NewInterpreter returns an interpreter named name starting in the root
// mode.
func (s *Shell) NewInterpreter(name string, opts ...interpreter.Option) *interpreter.Interpreter {
	return interpreter.New(name, s.modeFor(), opts...)
}

// Root returns the root mode.
func (s *Shell) Root() *interpreter.Mode { return s.root }

// Host returns the selected host.
func (s *Shell) Host() (broker.Host, bool) {
	if s.host == nil {
		return broker.Host{}, false
	}
	return *s.host, true
}

// Class returns the selected package and class.
func (s *Shell) Class() (pkg, class string, ok bool) {
	if s.class == nil {
		return "", "", false
	}
	return s.class.pkg, s.class.name, true
}

// =============================================================================
// MODES
// =============================================================================

type commandSet func(m *interpreter.Mode) []interpreter.Dispatcher

func (s *Shell) newMode(name string, prompt func() string, sets ...commandSet) *interpreter.Mode {
	m := interpreter.NewMode(name)
	for _, set := range sets {
		m.Add(set(m)...)
	}
	m.SetPrompt(prompt)
	return m
}

func (s *Shell) hostPrompt() string {
	if s.host == nil {
		return ""
	}
	return "[" + s.host.Hostname + "]"
}

func (s *Shell) classPrompt() string {
	if s.class == nil {
		return ""
	}
	return "(" + s.class.String() + ")"
}

// modeFor returns the mode matching the current selection.
func (s *Shell) modeFor() *interpreter.Mode {
	switch {
	case s.host != nil && s.class != nil:
		return s.filteredClass
	case s.host != nil:
		return s.filtered
	case s.class != nil:
		return s.classMode
	default:
		return s.root
	}
}

// transition moves the interpreter running from to the mode matching the
// selection. The prompt is recomputed even when the mode is unchanged.
func (s *Shell) transition(from *interpreter.Mode) {
	i := from.Interpreter()
	if i == nil {
		return
	}
	next := s.modeFor()
	s.log.Debug("transition", "from", from.Name(), "to", next.Name())
	i.SetMode(next)
}

func (s *Shell) writer(m *interpreter.Mode) io.Writer {
	if i := m.Interpreter(); i != nil {
		return i.Output()
	}
	return s.out
}

// lookupContext bounds queries made outside a command, during completion
// and validation.
func (s *Shell) lookupContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.mgr.Timeout())
}

// scope returns the agents on the selected host, or nil for every agent.
func (s *Shell) scope(ctx context.Context) ([]broker.Agent, error) {
	if s.host == nil {
		return nil, nil
	}
	return s.mgr.Agents(ctx, *s.host)
}
