// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package broker

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/google/uuid"

	"github.com/jeranaias/mhsh/internal/config"
)

// MethodFunc implements a method of a static object.
type MethodFunc func(ctx context.Context, obj Object, args map[string]any) (map[string]any, error)

// Static is an in-memory Transport serving a fixed inventory of hosts and
// objects. It is safe for concurrent use.
type Static struct {
	mu      sync.RWMutex
	objects []Object
	methods map[string]map[string]MethodFunc // object ID -> method -> impl
	nextID  int
	closed  bool
}

// NewStatic returns an empty static transport.
func NewStatic() *Static {
	return &Static{methods: make(map[string]map[string]MethodFunc)}
}

// NewStaticFromInventory builds a static transport from configured
// inventory. Hosts without a UUID get one derived from the hostname, so the
// identity is stable across runs.
func NewStaticFromInventory(inv []config.InventoryHost) (*Static, error) {
	s := NewStatic()
	for _, h := range inv {
		id := uuid.NewSHA1(uuid.NameSpaceDNS, []byte(h.Hostname))
		if h.UUID != "" {
			parsed, err := uuid.Parse(h.UUID)
			if err != nil {
				return nil, fmt.Errorf("inventory host %s: invalid uuid %q: %w", h.Hostname, h.UUID, err)
			}
			id = parsed
		}
		agent := s.AddHost(Host{UUID: id, Hostname: h.Hostname})

		for _, o := range h.Objects {
			obj := s.AddObject(agent, o.Class, o.Package, o.Properties)
			for method, values := range o.Methods {
				s.Handle(obj, method, Reply(values))
			}
		}
	}
	return s, nil
}

// Reply returns a MethodFunc answering every call with a copy of values.
func Reply(values map[string]any) MethodFunc {
	return func(context.Context, Object, map[string]any) (map[string]any, error) {
		return maps.Clone(values), nil
	}
}

// AddHost registers a host with a single agent and publishes its Agent
// object. The agent key is derived from the host UUID.
func (s *Static) AddHost(h Host) Agent {
	agent := Agent{Key: "agent-" + h.UUID.String(), Host: h}
	s.AddObject(agent, AgentClass, DefaultPackage, map[string]any{
		"uuid":     h.UUID.String(),
		"hostname": h.Hostname,
	})
	return agent
}

// AddObject publishes an object owned by agent. An empty pkg means
// DefaultPackage.
func (s *Static) AddObject(agent Agent, class, pkg string, props map[string]any) Object {
	if pkg == "" {
		pkg = DefaultPackage
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	obj := Object{
		ID:         fmt.Sprintf("%s/%d", agent.Key, s.nextID),
		Class:      class,
		Package:    pkg,
		Agent:      agent,
		Properties: maps.Clone(props),
	}
	s.objects = append(s.objects, obj)
	return obj
}

// Handle installs fn as the implementation of method on obj.
func (s *Static) Handle(obj Object, method string, fn MethodFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.methods[obj.ID] == nil {
		s.methods[obj.ID] = make(map[string]MethodFunc)
	}
	s.methods[obj.ID][method] = fn
}

// Objects implements Transport.
func (s *Static) Objects(ctx context.Context, q Query) ([]Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	var out []Object
	for _, o := range s.objects {
		if q.Matches(o) {
			o.Properties = maps.Clone(o.Properties)
			out = append(out, o)
		}
	}
	return out, nil
}

// Call implements Transport.
func (s *Static) Call(ctx context.Context, obj Object, method string, args map[string]any) (map[string]any, error) {
	s.mu.RLock()
	closed := s.closed
	fn := s.methods[obj.ID][method]
	s.mu.RUnlock()

	switch {
	case closed:
		return nil, ErrClosed
	case fn == nil:
		return nil, fmt.Errorf("%s on %s: %w", method, obj, ErrNoSuchMethod)
	}
	return fn(ctx, obj, args)
}

// Close implements Transport.
func (s *Static) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
