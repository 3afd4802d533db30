// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package broker

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// DefaultPackage is the schema package every agent publishes under.
const DefaultPackage = "org.matahariproject"

// AgentClass is the class of the object each agent publishes to announce
// itself and its host.
const AgentClass = "Agent"

var (
	// ErrNoSuchMethod is returned by a transport for a method the object
	// does not implement.
	ErrNoSuchMethod = errors.New("no such method")

	// ErrTimeout marks an object that did not answer before the deadline.
	ErrTimeout = errors.New("timed out waiting for response")

	// ErrClosed is returned by a transport after Close.
	ErrClosed = errors.New("transport closed")
)

// Host is a machine running one or more agents. Hosts are identified by
// UUID; the hostname is informational.
type Host struct {
	UUID     uuid.UUID
	Hostname string
}

func (h Host) String() string { return h.Hostname }

// Agent is a single agent process, identified by its routing key.
type Agent struct {
	Key  string
	Host Host
}

func (a Agent) String() string { return a.Key }

// Object is a management object published by an agent.
type Object struct {
	ID         string
	Class      string
	Package    string
	Agent      Agent
	Properties map[string]any
}

func (o Object) String() string {
	return fmt.Sprintf("%s:%s@%s", o.Package, o.Class, o.Agent.Host.Hostname)
}

// Result is the outcome of invoking a method on one object.
type Result struct {
	Object Object
	Values map[string]any
	Err    error
}

// Query selects objects. Empty fields match anything.
type Query struct {
	Class   string
	Package string
	// Host restricts the query to objects whose agent runs on this host.
	Host uuid.UUID
	// Agent restricts the query to objects published by this agent key.
	Agent string
}

// Matches reports whether o satisfies q.
func (q Query) Matches(o Object) bool {
	switch {
	case q.Class != "" && q.Class != o.Class:
		return false
	case q.Package != "" && q.Package != o.Package:
		return false
	case q.Host != uuid.Nil && q.Host != o.Agent.Host.UUID:
		return false
	case q.Agent != "" && q.Agent != o.Agent.Key:
		return false
	}
	return true
}

// Transport is the connection to the agents.
type Transport interface {
	// Objects returns the objects matching q.
	Objects(ctx context.Context, q Query) ([]Object, error)
	// Call invokes method on obj. Implementations must return when ctx is
	// done.
	Call(ctx context.Context, obj Object, method string, args map[string]any) (map[string]any, error)
	Close() error
}
