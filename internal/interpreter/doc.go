// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package interpreter provides a modal command interpreter driven by a
// declarative command grammar.
//
// A command is declared as an ordered list of arguments: fixed keywords,
// parameters (optionally typed by a Validator), optional argument blocks and
// repeated argument lists. The same declaration is used to match an input
// line, to render usage text and to drive tab completion.
//
// # Key Types
//
//   - Grammar: a parsed command declaration, built by Command()
//   - CommandHandler: a Grammar bound to a HandlerFunc
//   - CommandGroupHandler: several handlers sharing a leading keyword
//   - Dispatcher: either of the two, as stored in a Mode
//   - ArgGraph: the successor graph used for completion
//   - Mode: a named set of commands, swappable at runtime
//   - Interpreter: the read-eval-print loop
//
// # Declaring Commands
//
// Plain lower-case strings are keywords, all-upper-case strings are
// parameter placeholders:
//
//	cls := interpreter.Command("class",
//	    interpreter.Optional("package", "PACKAGE"),
//	    "CLASS",
//	).Bind(func(ctx context.Context, args interpreter.Args) error {
//	    pkg := args.Group(1)
//	    fmt.Println(pkg.String(1), args.String(2))
//	    return nil
//	}, `Select a class of objects to act on.`)
//
// Optional blocks reach the callback as a single Args group holding nil for
// every omitted child. Repeated lists are flattened into the positional
// arguments.
//
// # Running
//
//	shell := interpreter.New("mhsh", interpreter.NewMode("root", cls))
//	err := shell.Run(ctx)
package interpreter
