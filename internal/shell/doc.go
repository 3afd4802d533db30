// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package shell implements the mhsh modes on top of the interpreter.
//
// The shell moves between four modes as the user narrows the scope:
//
//	root            hosts, select host HOST, class (package PACKAGE) CLASS, quit
//	filtered        root + agents, clear host             prompt: mhsh[host]>
//	class           root + list, invoke, clear class      prompt: mhsh(pkg:Class)>
//	filtered-class  all of the above                      prompt: mhsh[host](pkg:Class)>
//
// In filtered-class mode "clear host" and "clear class" share a keyword and
// are resolved as a command group.
package shell
