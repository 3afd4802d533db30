// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package broker provides access to the management agents that mhsh drives.
//
// A Transport answers object queries and method calls. The Manager layers
// the shell's view on top of it: hosts running agents, the agents on a set
// of hosts, the objects of a class published by those agents, and
// concurrent method invocation across many objects.
//
// # Usage
//
//	st, err := broker.NewStaticFromInventory(cfg.Inventory)
//	mgr := broker.NewManager(st, broker.WithTimeout(cfg.Timeout()))
//	hosts, err := mgr.Hosts(ctx)
//	objs, err := mgr.Get(ctx, "Network", "", agents...)
//	for _, r := range mgr.Invoke(ctx, objs, "list", nil) { ... }
package broker
