// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for mhsh.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - BrokerConfig: Broker address, credentials and invocation limits
//   - ShellConfig: Prompt name, history and color settings
//   - InventoryHost: Hosts and objects served without a live broker
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Command-line flags (applied by the cli package)
//   - Environment variables (MHSH_*)
//   - ~/.mhsh/config.toml
//   - ~/.mhsh/config.json
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.BrokerURL(), cfg.Timeout())
//
// A static inventory lets the shell run without a broker:
//
//	[broker]
//	static = true
//
//	[[inventory]]
//	hostname = "alpha"
//
//	[[inventory.objects]]
//	class = "Network"
//	[inventory.objects.methods.list]
//	iface_map = ["lo", "eth0"]
package config
