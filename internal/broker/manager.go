// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package broker

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"
	"golang.org/x/sync/errgroup"

	"github.com/jeranaias/mhsh/internal/logging"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// DefaultTimeout bounds a single Invoke.
	DefaultTimeout = 10 * time.Second

	// DefaultMaxParallel bounds the number of outstanding calls in Invoke.
	DefaultMaxParallel = 16
)

// =============================================================================
// MANAGER
// =============================================================================

// Manager answers the shell's questions about hosts, agents and objects on
// top of a Transport.
type Manager struct {
	transport   Transport
	timeout     time.Duration
	maxParallel int
	log         logging.Logger
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithTimeout sets how long Invoke waits for answers.
func WithTimeout(d time.Duration) ManagerOption {
	return func(m *Manager) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// WithMaxParallel bounds concurrent calls during Invoke.
func WithMaxParallel(n int) ManagerOption {
	return func(m *Manager) {
		if n > 0 {
			m.maxParallel = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) ManagerOption {
	return func(m *Manager) { m.log = l }
}

// NewManager returns a manager using t.
func NewManager(t Transport, opts ...ManagerOption) *Manager {
	m := &Manager{
		transport:   t,
		timeout:     DefaultTimeout,
		maxParallel: DefaultMaxParallel,
		log:         logging.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Timeout returns the invocation timeout.
func (m *Manager) Timeout() time.Duration { return m.timeout }

// Close closes the underlying transport.
func (m *Manager) Close() error {
	return m.transport.Close()
}

// =============================================================================
// QUERIES
// =============================================================================

// agentProperties are the properties of an Agent object that identify its
// host.
type agentProperties struct {
	UUID     string `mapstructure:"uuid"`
	Hostname string `mapstructure:"hostname"`
}

func (m *Manager) agentObjects(ctx context.Context, host uuid.UUID) ([]Agent, error) {
	objs, err := m.transport.Objects(ctx, Query{Class: AgentClass, Package: DefaultPackage, Host: host})
	if err != nil {
		return nil, fmt.Errorf("query agents: %w", err)
	}
	agents := make([]Agent, 0, len(objs))
	for _, o := range objs {
		var props agentProperties
		if err := mapstructure.Decode(o.Properties, &props); err != nil {
			m.log.Warn("skipping malformed agent object", "agent", o.Agent.Key, "error", err)
			continue
		}
		a := o.Agent
		if props.Hostname != "" {
			a.Host.Hostname = props.Hostname
		}
		if props.UUID != "" {
			id, err := uuid.Parse(props.UUID)
			if err != nil {
				m.log.Warn("skipping agent with invalid host uuid", "agent", o.Agent.Key, "uuid", props.UUID)
				continue
			}
			a.Host.UUID = id
		}
		agents = append(agents, a)
	}
	return agents, nil
}

// Hosts returns the hosts that have an active agent, sorted by hostname.
func (m *Manager) Hosts(ctx context.Context) ([]Host, error) {
	agents, err := m.agentObjects(ctx, uuid.Nil)
	if err != nil {
		return nil, err
	}
	seen := make(map[uuid.UUID]bool)
	var hosts []Host
	for _, a := range agents {
		if seen[a.Host.UUID] {
			continue
		}
		seen[a.Host.UUID] = true
		hosts = append(hosts, a.Host)
	}
	slices.SortFunc(hosts, func(a, b Host) int {
		return cmp.Or(cmp.Compare(a.Hostname, b.Hostname), cmp.Compare(a.UUID.String(), b.UUID.String()))
	})
	return hosts, nil
}

// Agents returns the active agents, restricted to hosts when any are
// given, sorted by key.
func (m *Manager) Agents(ctx context.Context, hosts ...Host) ([]Agent, error) {
	var agents []Agent
	if len(hosts) == 0 {
		all, err := m.agentObjects(ctx, uuid.Nil)
		if err != nil {
			return nil, err
		}
		agents = all
	}
	for _, h := range hosts {
		found, err := m.agentObjects(ctx, h.UUID)
		if err != nil {
			return nil, err
		}
		agents = append(agents, found...)
	}

	seen := make(map[string]bool)
	out := agents[:0]
	for _, a := range agents {
		if !seen[a.Key] {
			seen[a.Key] = true
			out = append(out, a)
		}
	}
	slices.SortFunc(out, func(a, b Agent) int { return cmp.Compare(a.Key, b.Key) })
	return out, nil
}

// Get returns the objects of class in pkg, restricted to agents when any
// are given. An empty pkg means DefaultPackage.
func (m *Manager) Get(ctx context.Context, class, pkg string, agents ...Agent) ([]Object, error) {
	if pkg == "" {
		pkg = DefaultPackage
	}
	if len(agents) == 0 {
		objs, err := m.transport.Objects(ctx, Query{Class: class, Package: pkg})
		if err != nil {
			return nil, fmt.Errorf("query %s:%s: %w", pkg, class, err)
		}
		return objs, nil
	}

	var out []Object
	for _, a := range agents {
		objs, err := m.transport.Objects(ctx, Query{Class: class, Package: pkg, Agent: a.Key})
		if err != nil {
			return nil, fmt.Errorf("query %s:%s on %s: %w", pkg, class, a.Key, err)
		}
		out = append(out, objs...)
	}
	return out, nil
}

// Classes returns the distinct classes published in pkg, or in every
// package when pkg is empty, excluding the agents' own Agent objects.
func (m *Manager) Classes(ctx context.Context, pkg string, agents ...Agent) ([]string, error) {
	queries := []Query{{Package: pkg}}
	if len(agents) > 0 {
		queries = queries[:0]
		for _, a := range agents {
			queries = append(queries, Query{Package: pkg, Agent: a.Key})
		}
	}

	seen := make(map[string]bool)
	var out []string
	for _, q := range queries {
		objs, err := m.transport.Objects(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("query classes: %w", err)
		}
		for _, o := range objs {
			if o.Class == AgentClass && o.Package == DefaultPackage {
				continue
			}
			if !seen[o.Class] {
				seen[o.Class] = true
				out = append(out, o.Class)
			}
		}
	}
	slices.Sort(out)
	return out, nil
}

// =============================================================================
// INVOCATION
// =============================================================================

// Invoke calls method on every object concurrently and waits at most the
// manager timeout. There is one result per object, in the order of objs;
// objects that failed or did not answer in time carry an error.
func (m *Manager) Invoke(ctx context.Context, objs []Object, method string, args map[string]any) []Result {
	results := make([]Result, len(objs))
	if len(objs) == 0 {
		return results
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	var g errgroup.Group
	g.SetLimit(m.maxParallel)

	start := time.Now()
	for i, obj := range objs {
		results[i].Object = obj
		g.Go(func() error {
			values, err := m.call(ctx, obj, method, args)
			results[i].Values = values
			results[i].Err = err
			return nil
		})
	}
	_ = g.Wait()

	m.log.Debug("invoke finished", "method", method, "objects", len(objs), "duration", time.Since(start))
	return results
}

// call runs one transport call, giving up when ctx is done even if the
// transport does not.
func (m *Manager) call(ctx context.Context, obj Object, method string, args map[string]any) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, timeoutError(ctx, err)
	}

	type answer struct {
		values map[string]any
		err    error
	}
	ch := make(chan answer, 1)
	go func() {
		values, err := m.transport.Call(ctx, obj, method, args)
		ch <- answer{values, err}
	}()

	select {
	case a := <-ch:
		if a.err != nil && ctx.Err() != nil {
			return nil, timeoutError(ctx, a.err)
		}
		return a.values, a.err
	case <-ctx.Done():
		return nil, timeoutError(ctx, ctx.Err())
	}
}

func timeoutError(ctx context.Context, err error) error {
	if ctx.Err() == context.DeadlineExceeded {
		return ErrTimeout
	}
	return err
}
