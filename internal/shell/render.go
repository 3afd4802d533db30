// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package shell

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jeranaias/mhsh/internal/broker"
	"github.com/jeranaias/mhsh/internal/util"
)

// Format selects how listings and results are printed.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a format name.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, json or yaml)", name)
	}
}

// =============================================================================
// VIEWS
// =============================================================================

type hostView struct {
	Hostname string `json:"hostname" yaml:"hostname"`
	UUID     string `json:"uuid" yaml:"uuid"`
}

type agentView struct {
	Key  string `json:"key" yaml:"key"`
	Host string `json:"host" yaml:"host"`
}

type objectView struct {
	Host       string         `json:"host" yaml:"host"`
	Agent      string         `json:"agent" yaml:"agent"`
	Package    string         `json:"package" yaml:"package"`
	Class      string         `json:"class" yaml:"class"`
	Properties map[string]any `json:"properties,omitempty" yaml:"properties,omitempty"`
	Result     map[string]any `json:"result,omitempty" yaml:"result,omitempty"`
	Error      string         `json:"error,omitempty" yaml:"error,omitempty"`
}

func newObjectView(o broker.Object) objectView {
	return objectView{
		Host:    o.Agent.Host.Hostname,
		Agent:   o.Agent.Key,
		Package: o.Package,
		Class:   o.Class,
	}
}

// =============================================================================
// RENDERING
// =============================================================================

func (s *Shell) encode(w io.Writer, v any) (bool, error) {
	switch s.format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return true, enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return true, err
		}
		return true, enc.Close()
	}
	return false, nil
}

func (s *Shell) renderHosts(w io.Writer, hosts []broker.Host) error {
	views := make([]hostView, len(hosts))
	for i, h := range hosts {
		views[i] = hostView{Hostname: h.Hostname, UUID: h.UUID.String()}
	}
	if done, err := s.encode(w, views); done {
		return err
	}

	width := 0
	for _, v := range views {
		width = max(width, util.StringWidth(v.Hostname))
	}
	for _, v := range views {
		fmt.Fprintf(w, "%s  %s\n", util.PadRight(v.Hostname, width), v.UUID)
	}
	return nil
}

func (s *Shell) renderAgents(w io.Writer, agents []broker.Agent) error {
	views := make([]agentView, len(agents))
	for i, a := range agents {
		views[i] = agentView{Key: a.Key, Host: a.Host.Hostname}
	}
	if done, err := s.encode(w, views); done {
		return err
	}
	for _, v := range views {
		fmt.Fprintln(w, v.Key)
	}
	return nil
}

// renderObjects prints one block per object: a header line followed by
// its sorted values, or its error.
func (s *Shell) renderObjects(w io.Writer, views []objectView) error {
	if done, err := s.encode(w, views); done {
		return err
	}

	for _, v := range views {
		fmt.Fprintf(w, "%s %s:%s\n", v.Host, v.Package, v.Class)
		if v.Error != "" {
			fmt.Fprintf(w, "  error: %s\n", v.Error)
			continue
		}
		values := v.Properties
		if v.Result != nil {
			values = v.Result
		}
		s.renderValues(w, values)
	}
	return nil
}

func (s *Shell) renderValues(w io.Writer, values map[string]any) {
	keys := make([]string, 0, len(values))
	width := 0
	for k := range values {
		keys = append(keys, k)
		width = max(width, util.StringWidth(k))
	}
	slices.Sort(keys)

	for _, k := range keys {
		value := util.SingleLine(fmt.Sprint(values[k]))
		if s.width > 0 {
			// "  " + key + ": "
			value = util.TruncateWidth(value, max(s.width-width-4, 10))
		}
		fmt.Fprintf(w, "  %s %s\n", util.PadRight(k+":", width+1), value)
	}
}
