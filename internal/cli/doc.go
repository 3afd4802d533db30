// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the mhsh command line.
//
// Usage:
//
//	mhsh [flags]                 Start the interactive shell
//	mhsh --script FILE           Run the commands in FILE
//	mhsh < FILE                  Same, when stdin is not a terminal
//	mhsh config show|get|set|keys|path
//	mhsh version
//
// Flags:
//
//	--config PATH     Configuration file (default ~/.mhsh/config.toml)
//	--broker HOST     Broker host
//	--port N          Broker port
//	--ssl             Connect with amqps
//	--script FILE     Run FILE instead of prompting
//	--output FORMAT   text, json or yaml
//	--log-level LVL   Enable logging at LVL (debug, info, warn, error)
//
// Exit codes follow the constants in errors.go: 2 for usage errors, 3 for
// configuration errors, 5 when the broker cannot be reached.
package cli
