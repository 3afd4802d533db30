// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	clog "github.com/charmbracelet/log"
	"github.com/stretchr/testify/require"
)

func TestInitDisabledReturnsNop(t *testing.T) {
	l, err := Init(DefaultConfig())
	require.NoError(t, err)
	require.IsType(t, noopLogger{}, l)
	require.NoError(t, l.Shutdown())
}

func TestInitWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "mhsh.log")
	l, err := Init(Config{Enabled: true, Level: "debug", File: path, Format: "json"})
	require.NoError(t, err)

	l.With("mode", "root").Debug("dispatch", "command", "hosts")
	require.NoError(t, l.Shutdown())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &entry))
	require.Equal(t, "dispatch", entry["msg"])
	require.Equal(t, "root", entry["mode"])
	require.Equal(t, "hosts", entry["command"])

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "warn")

	l.Info("hidden")
	l.Warn("shown")

	out := buf.String()
	require.NotContains(t, out, "hidden")
	require.Contains(t, out, "shown")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want clog.Level
	}{
		{"debug", clog.DebugLevel},
		{"INFO", clog.InfoLevel},
		{"warning", clog.WarnLevel},
		{"error", clog.ErrorLevel},
		{"bogus", clog.InfoLevel},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, parseLevel(tt.in), tt.in)
	}
}

func TestValidLevelAndFormat(t *testing.T) {
	require.True(t, ValidLevel("Debug"))
	require.False(t, ValidLevel("trace"))
	require.True(t, ValidFormat(""))
	require.True(t, ValidFormat("logfmt"))
	require.False(t, ValidFormat(strings.Repeat("x", 3)))
}
