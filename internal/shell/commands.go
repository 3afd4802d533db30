// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package shell

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jeranaias/mhsh/internal/broker"
	"github.com/jeranaias/mhsh/internal/interpreter"
)

// =============================================================================
// COMMAND SETS
// =============================================================================

func (s *Shell) rootCommands(m *interpreter.Mode) []interpreter.Dispatcher {
	return []interpreter.Dispatcher{
		interpreter.Command("hosts").Bind(func(ctx context.Context, _ interpreter.Args) error {
			return s.listHosts(ctx, m)
		}, "List the hosts running an agent."),

		interpreter.Command("select", "host", interpreter.Param(s.hostValidator())).Bind(
			func(ctx context.Context, args interpreter.Args) error {
				return s.selectHost(ctx, m, args.String(2))
			}, "Restrict the shell to a single host."),

		interpreter.Command("class", interpreter.Optional("package", "PACKAGE"), interpreter.Param(classValidator{s})).Bind(
			func(ctx context.Context, args interpreter.Args) error {
				return s.selectClass(ctx, m, args.Group(1).String(1), args.String(2))
			}, `Select the class of objects to work with.

The package defaults to `+broker.DefaultPackage+`.`),

		interpreter.Command("quit").Bind(func(context.Context, interpreter.Args) error {
			return interpreter.ErrExit
		}, "Exit the shell."),
	}
}

func (s *Shell) hostCommands(m *interpreter.Mode) []interpreter.Dispatcher {
	return []interpreter.Dispatcher{
		interpreter.Command("agents").Bind(func(ctx context.Context, _ interpreter.Args) error {
			return s.listAgents(ctx, m)
		}, "List the agents running on the selected host."),

		interpreter.Command("clear", "host").Bind(func(context.Context, interpreter.Args) error {
			s.host = nil
			s.transition(m)
			return nil
		}, "Stop restricting the shell to a host."),
	}
}

func (s *Shell) classCommands(m *interpreter.Mode) []interpreter.Dispatcher {
	return []interpreter.Dispatcher{
		interpreter.Command("list").Bind(func(ctx context.Context, _ interpreter.Args) error {
			return s.listObjects(ctx, m)
		}, "List the objects of the selected class and their properties."),

		interpreter.Command("invoke", "METHOD", interpreter.Optional(interpreter.Repeated("ARGS"))).Bind(
			func(ctx context.Context, args interpreter.Args) error {
				var raw []string
				for _, a := range args.Group(2).Strings(0) {
					if a != "" {
						raw = append(raw, a)
					}
				}
				return s.invoke(ctx, m, args.String(1), raw)
			}, `Invoke a method on every selected object.

Arguments are given as KEY=VALUE.`),

		interpreter.Command("clear", "class").Bind(func(context.Context, interpreter.Args) error {
			s.class = nil
			s.transition(m)
			return nil
		}, "Deselect the class."),
	}
}

// =============================================================================
// VALIDATORS
// =============================================================================

func (s *Shell) hostValidator() interpreter.Validator {
	return interpreter.ChoiceFunc("host", s.hostnames)
}

func (s *Shell) hostnames() []string {
	ctx, cancel := s.lookupContext()
	defer cancel()
	hosts, err := s.mgr.Hosts(ctx)
	if err != nil {
		s.log.Warn("host lookup failed", "error", err)
		return nil
	}
	names := make([]string, len(hosts))
	for i, h := range hosts {
		names[i] = h.Hostname
	}
	return names
}

// classValidator accepts any class name and completes the classes known
// in the current scope.
type classValidator struct{ s *Shell }

func (classValidator) Name() string { return "class" }

func (classValidator) Validate(token string) (any, error) { return token, nil }

func (v classValidator) Complete(fragment string) []string {
	ctx, cancel := v.s.lookupContext()
	defer cancel()
	agents, err := v.s.scope(ctx)
	if err != nil {
		return nil
	}
	classes, err := v.s.mgr.Classes(ctx, "", agents...)
	if err != nil {
		v.s.log.Warn("class lookup failed", "error", err)
		return nil
	}
	var out []string
	for _, c := range classes {
		if strings.HasPrefix(c, fragment) {
			out = append(out, c+" ")
		}
	}
	return out
}

// =============================================================================
// HANDLERS
// =============================================================================

func (s *Shell) listHosts(ctx context.Context, m *interpreter.Mode) error {
	hosts, err := s.mgr.Hosts(ctx)
	if err != nil {
		return err
	}
	return s.renderHosts(s.writer(m), hosts)
}

func (s *Shell) listAgents(ctx context.Context, m *interpreter.Mode) error {
	agents, err := s.scope(ctx)
	if err != nil {
		return err
	}
	return s.renderAgents(s.writer(m), agents)
}

func (s *Shell) selectHost(ctx context.Context, m *interpreter.Mode, name string) error {
	hosts, err := s.mgr.Hosts(ctx)
	if err != nil {
		return err
	}
	for _, h := range hosts {
		if h.Hostname == name {
			s.host = &h
			s.transition(m)
			return nil
		}
	}
	return fmt.Errorf("Host '%s' is no longer available", name)
}

func (s *Shell) selectClass(ctx context.Context, m *interpreter.Mode, pkg, class string) error {
	if pkg == "" {
		pkg = broker.DefaultPackage
	}
	ref := classRef{pkg: pkg, name: class}

	objs, err := s.objects(ctx, ref)
	if err != nil {
		return err
	}
	if len(objs) == 0 {
		return fmt.Errorf("No objects of class '%s'", ref)
	}
	s.class = &ref
	s.transition(m)
	return nil
}

// objects returns the objects of ref within the selected host, if any.
func (s *Shell) objects(ctx context.Context, ref classRef) ([]broker.Object, error) {
	agents, err := s.scope(ctx)
	if err != nil {
		return nil, err
	}
	if s.host != nil && len(agents) == 0 {
		return nil, nil
	}
	return s.mgr.Get(ctx, ref.name, ref.pkg, agents...)
}

func (s *Shell) listObjects(ctx context.Context, m *interpreter.Mode) error {
	objs, err := s.objects(ctx, *s.class)
	if err != nil {
		return err
	}
	views := make([]objectView, len(objs))
	for i, o := range objs {
		views[i] = newObjectView(o)
		views[i].Properties = o.Properties
	}
	return s.renderObjects(s.writer(m), views)
}

func (s *Shell) invoke(ctx context.Context, m *interpreter.Mode, method string, raw []string) error {
	args, err := parseInvokeArgs(raw)
	if err != nil {
		return err
	}
	objs, err := s.objects(ctx, *s.class)
	if err != nil {
		return err
	}
	if len(objs) == 0 {
		return fmt.Errorf("No objects of class '%s'", s.class)
	}

	s.log.Info("invoke", "method", method, "class", s.class.String(), "objects", len(objs))
	results := s.mgr.Invoke(ctx, objs, method, args)
	if err := ctx.Err(); err != nil {
		return err
	}

	views := make([]objectView, len(results))
	for i, r := range results {
		views[i] = newObjectView(r.Object)
		views[i].Result = r.Values
		if r.Err != nil {
			views[i].Error = r.Err.Error()
		}
	}
	return s.renderObjects(s.writer(m), views)
}

// parseInvokeArgs converts KEY=VALUE tokens into method arguments. Values
// that are integers or true/false are passed as such.
func parseInvokeArgs(tokens []string) (map[string]any, error) {
	args := make(map[string]any, len(tokens))
	for _, t := range tokens {
		key, value, ok := strings.Cut(t, "=")
		if !ok || key == "" {
			return nil, &interpreter.InvalidArgumentError{
				Value:  t,
				Reason: fmt.Sprintf("Invalid argument '%s' (expected KEY=VALUE)", t),
			}
		}
		args[key] = parseScalar(value)
	}
	return args, nil
}

func parseScalar(v string) any {
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	switch v {
	case "true":
		return true
	case "false":
		return false
	}
	return v
}
