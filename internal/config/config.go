// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for mhsh.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// Configuration file locations (in order of precedence):
//   - ~/.mhsh/config.toml
//   - ~/.mhsh/config.json
//   - Built-in defaults
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"

	"github.com/jeranaias/mhsh/internal/util"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// DefaultBrokerHost is the broker contacted when none is configured.
	DefaultBrokerHost = "localhost"
	// DefaultBrokerPort is the Matahari broker port.
	DefaultBrokerPort = 49000
	// DefaultTimeoutSecs bounds how long a method invocation waits for replies.
	DefaultTimeoutSecs = 10
	// DefaultMaxParallel bounds concurrent method calls.
	DefaultMaxParallel = 16
	// DefaultHistoryLimit is the number of history lines kept.
	DefaultHistoryLimit = 1000
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete mhsh configuration.
type Config struct {
	Shell   ShellConfig   `toml:"shell" json:"shell"`
	Broker  BrokerConfig  `toml:"broker" json:"broker"`
	Logging LoggingConfig `toml:"logging" json:"logging"`
	Output  OutputConfig  `toml:"output" json:"output"`

	// Inventory seeds the static transport used when no broker is reachable
	// or when Broker.Static is set.
	Inventory []InventoryHost `toml:"inventory" json:"inventory"`
}

// ShellConfig contains interactive shell settings.
type ShellConfig struct {
	// Name is the prompt prefix
	Name string `toml:"name" json:"name"`
	// HistoryFile is the line history path (empty = ~/.mhsh/history)
	HistoryFile string `toml:"history_file" json:"history_file"`
	// HistoryLimit caps the number of remembered lines
	HistoryLimit int `toml:"history_limit" json:"history_limit"`
	// Color is "auto", "always" or "never"
	Color string `toml:"color" json:"color"`
}

// BrokerConfig contains the broker connection settings.
type BrokerConfig struct {
	Host string `toml:"host" json:"host"`
	Port int    `toml:"port" json:"port"`
	SSL  bool   `toml:"ssl" json:"ssl"`

	Username string `toml:"username" json:"username"`
	Password string `toml:"password" json:"password"`

	// TimeoutSecs bounds a method invocation
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`
	// MaxParallel bounds the number of objects called at once
	MaxParallel int `toml:"max_parallel" json:"max_parallel"`
	// Static serves the [[inventory]] tables instead of a live broker
	Static bool `toml:"static" json:"static"`
}

// LoggingConfig contains diagnostic logging settings.
type LoggingConfig struct {
	Enabled bool   `toml:"enabled" json:"enabled"`
	Level   string `toml:"level" json:"level"`
	// File is the log path (empty = stderr)
	File   string `toml:"file" json:"file"`
	Format string `toml:"format" json:"format"`
}

// OutputConfig controls how method results are printed.
type OutputConfig struct {
	// Format is "text", "json" or "yaml"
	Format string `toml:"format" json:"format"`
}

// InventoryHost is a host served by the static transport.
type InventoryHost struct {
	Hostname string `toml:"hostname" json:"hostname"`
	// UUID is derived from the hostname when empty
	UUID    string            `toml:"uuid" json:"uuid"`
	Objects []InventoryObject `toml:"objects" json:"objects"`
}

// InventoryObject is a management object published by a static host.
type InventoryObject struct {
	Class      string         `toml:"class" json:"class"`
	Package    string         `toml:"package" json:"package"`
	Properties map[string]any `toml:"properties" json:"properties"`
	// Methods maps a method name to the values it returns
	Methods map[string]map[string]any `toml:"methods" json:"methods"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Shell: ShellConfig{
			Name:         "mhsh",
			HistoryLimit: DefaultHistoryLimit,
			Color:        "auto",
		},
		Broker: BrokerConfig{
			Host:        DefaultBrokerHost,
			Port:        DefaultBrokerPort,
			TimeoutSecs: DefaultTimeoutSecs,
			MaxParallel: DefaultMaxParallel,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Output: OutputConfig{
			Format: "text",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the mhsh configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".mhsh"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// ensureSecurePermissions checks and fixes permissions on config files.
// Config files may hold the broker password, so they are kept at 0600.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode&0077 != 0 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// expandHome replaces a leading "~/" with the user's home directory.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	var loadErr error

	for _, candidate := range []func() (string, error){ConfigPathTOML, ConfigPathJSON} {
		path, err := candidate()
		if err != nil {
			continue
		}
		if _, statErr := os.Stat(path); statErr != nil {
			continue
		}
		cfg, err := LoadFromPath(path)
		if err == nil {
			return cfg, nil
		}
		loadErr = err
		break
	}

	cfg := Default()
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	// Return defaults (with any load error for informational purposes)
	return cfg, loadErr
}

// LoadTOML decodes a TOML file over cfg.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown configuration keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

// LoadJSON decodes a JSON file over cfg.
func LoadJSON(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// LoadFromPath loads configuration from a specific file path with full
// validation. Files ending in .json are read as JSON, anything else as TOML.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	if err := EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes the configuration to a TOML file with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString("# mhsh configuration file\n")
	buf.WriteString("# Generated by mhsh - edit with care\n\n")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveJSON writes the configuration to a JSON file with 0600 permissions.
func SaveJSON(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

var (
	validColors        = []string{"auto", "always", "never"}
	validLogLevels     = []string{"debug", "info", "warn", "warning", "error"}
	validLogFormats    = []string{"text", "logfmt", "json"}
	validOutputFormats = []string{"text", "json", "yaml"}
)

func oneOf(value string, valid []string) bool {
	for _, v := range valid {
		if strings.EqualFold(value, v) {
			return true
		}
	}
	return false
}

// Validate validates the configuration and returns any errors as
// ValidateErrors.
func (c *Config) Validate() error {
	var errs ValidateErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	// Shell
	if strings.TrimSpace(c.Shell.Name) == "" {
		add("shell.name", "must not be empty")
	}
	if c.Shell.HistoryLimit < 0 {
		add("shell.history_limit", "must not be negative, got %d", c.Shell.HistoryLimit)
	}
	if !oneOf(c.Shell.Color, validColors) {
		add("shell.color", "invalid value '%s', must be one of: %s", c.Shell.Color, strings.Join(validColors, ", "))
	}

	// Broker
	if !c.Broker.Static {
		if strings.TrimSpace(c.Broker.Host) == "" {
			add("broker.host", "must not be empty")
		} else if strings.ContainsAny(c.Broker.Host, "/ ") {
			add("broker.host", "invalid host '%s'", c.Broker.Host)
		}
	}
	if c.Broker.Port < 1 || c.Broker.Port > 65535 {
		add("broker.port", "must be between 1 and 65535, got %d", c.Broker.Port)
	}
	if c.Broker.TimeoutSecs < 1 || c.Broker.TimeoutSecs > 3600 {
		add("broker.timeout_secs", "must be between 1 and 3600, got %d", c.Broker.TimeoutSecs)
	}
	if c.Broker.MaxParallel < 1 {
		add("broker.max_parallel", "must be at least 1, got %d", c.Broker.MaxParallel)
	}

	// Logging
	if !oneOf(c.Logging.Level, validLogLevels) {
		add("logging.level", "invalid level '%s', must be one of: debug, info, warn, error", c.Logging.Level)
	}
	if !oneOf(c.Logging.Format, validLogFormats) {
		add("logging.format", "invalid format '%s', must be one of: %s", c.Logging.Format, strings.Join(validLogFormats, ", "))
	}

	// Output
	if !oneOf(c.Output.Format, validOutputFormats) {
		add("output.format", "invalid format '%s', must be one of: %s", c.Output.Format, strings.Join(validOutputFormats, ", "))
	}

	// Inventory
	seen := make(map[string]bool)
	for i, h := range c.Inventory {
		field := fmt.Sprintf("inventory[%d]", i)
		if strings.TrimSpace(h.Hostname) == "" {
			add(field+".hostname", "must not be empty")
		} else if seen[h.Hostname] {
			add(field+".hostname", "duplicate host '%s'", h.Hostname)
		}
		seen[h.Hostname] = true
		if h.UUID != "" {
			if _, err := uuid.Parse(h.UUID); err != nil {
				add(field+".uuid", "invalid UUID '%s'", h.UUID)
			}
		}
		for j, o := range h.Objects {
			if strings.TrimSpace(o.Class) == "" {
				add(fmt.Sprintf("%s.objects[%d].class", field, j), "must not be empty")
			}
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults fills in zero values and normalizes enumerations.
func (c *Config) SetDefaults() {
	d := Default()

	if c.Shell.Name == "" {
		c.Shell.Name = d.Shell.Name
	}
	if c.Shell.Color == "" {
		c.Shell.Color = d.Shell.Color
	}
	c.Shell.Color = strings.ToLower(c.Shell.Color)

	if c.Broker.Host == "" {
		c.Broker.Host = d.Broker.Host
	}
	if c.Broker.Port == 0 {
		c.Broker.Port = d.Broker.Port
	}
	if c.Broker.TimeoutSecs == 0 {
		c.Broker.TimeoutSecs = d.Broker.TimeoutSecs
	}
	if c.Broker.MaxParallel == 0 {
		c.Broker.MaxParallel = d.Broker.MaxParallel
	}

	if c.Logging.Level == "" {
		c.Logging.Level = d.Logging.Level
	}
	if c.Logging.Format == "" {
		c.Logging.Format = d.Logging.Format
	}
	c.Logging.Level = strings.ToLower(c.Logging.Level)
	c.Logging.Format = strings.ToLower(c.Logging.Format)

	if c.Output.Format == "" {
		c.Output.Format = d.Output.Format
	}
	c.Output.Format = strings.ToLower(c.Output.Format)
}

// =============================================================================
// DERIVED SETTINGS
// =============================================================================

// BrokerURL returns the broker address, amqp:// or amqps:// depending on
// Broker.SSL. The password is never included.
func (c *Config) BrokerURL() string {
	scheme := "amqp"
	if c.Broker.SSL {
		scheme = "amqps"
	}
	host := c.Broker.Host
	if c.Broker.Username != "" {
		host = c.Broker.Username + "@" + host
	}
	return fmt.Sprintf("%s://%s:%d", scheme, host, c.Broker.Port)
}

// Timeout returns the method invocation timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Broker.TimeoutSecs) * time.Second
}

// HistoryPath returns the line history file.
func (c *Config) HistoryPath() (string, error) {
	if c.Shell.HistoryFile != "" {
		return expandHome(c.Shell.HistoryFile), nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history"), nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - MHSH_BROKER: overrides broker.host
//   - MHSH_PORT: overrides broker.port
//   - MHSH_SSL: set to "1" or "true" to connect with amqps
//   - MHSH_TIMEOUT: overrides broker.timeout_secs
//   - MHSH_BROKER_USER: overrides broker.username
//   - MHSH_BROKER_PASSWORD: overrides broker.password
//   - MHSH_LOG_LEVEL: overrides logging.level and enables logging
//   - MHSH_OUTPUT: overrides output.format
func (c *Config) ApplyEnvOverrides() {
	if host := os.Getenv("MHSH_BROKER"); host != "" {
		c.Broker.Host = host
	}

	if port := os.Getenv("MHSH_PORT"); port != "" {
		if n, err := strconv.Atoi(port); err == nil {
			c.Broker.Port = n
		}
	}

	if ssl := os.Getenv("MHSH_SSL"); ssl != "" {
		c.Broker.SSL = ssl == "1" || strings.ToLower(ssl) == "true"
	}

	if timeout := os.Getenv("MHSH_TIMEOUT"); timeout != "" {
		if n, err := strconv.Atoi(timeout); err == nil {
			c.Broker.TimeoutSecs = n
		}
	}

	if user := os.Getenv("MHSH_BROKER_USER"); user != "" {
		c.Broker.Username = user
	}
	if password := os.Getenv("MHSH_BROKER_PASSWORD"); password != "" {
		c.Broker.Password = password
	}

	if level := os.Getenv("MHSH_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
		c.Logging.Enabled = true
	}

	if format := os.Getenv("MHSH_OUTPUT"); format != "" {
		c.Output.Format = format
	}
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "broker.port").
func (c *Config) Get(key string) (any, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value using dot notation (e.g., "broker.port").
// String values are converted to the field's type.
func (c *Config) Set(key string, value any) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

func (c *Config) lookup(key string) (reflect.Value, error) {
	if key == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)
		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})
		if !field.IsValid() {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			if field.Kind() == reflect.Struct || field.Kind() == reflect.Slice {
				return reflect.Value{}, fmt.Errorf("field '%s' is not a setting", key)
			}
			return field, nil
		}
		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

// normalizeFieldName converts a snake_case or kebab-case name to its Go field equivalent.
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var result strings.Builder
	for _, part := range parts {
		if len(part) > 0 {
			result.WriteString(strings.ToUpper(string(part[0])))
			result.WriteString(strings.ToLower(part[1:]))
		}
	}
	return result.String()
}

// setFieldValue sets a reflect.Value from an interface{} value with type conversion.
func setFieldValue(field reflect.Value, value any) error {
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Bool:
			boolVal, err := strconv.ParseBool(strings.ToLower(strVal))
			if err != nil {
				boolVal = strings.EqualFold(strVal, "yes")
			}
			field.SetBool(boolVal)
			return nil
		}
	}

	val := reflect.ValueOf(value)
	if !val.IsValid() {
		return fmt.Errorf("cannot assign nil to %s", field.Type())
	}
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// GetAllKeys returns every scalar configuration key in dot notation.
func GetAllKeys() []string {
	var keys []string
	collectKeys(reflect.TypeOf(Config{}), "", &keys)
	sort.Strings(keys)
	return keys
}

func collectKeys(t reflect.Type, prefix string, keys *[]string) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name, _, _ := strings.Cut(f.Tag.Get("toml"), ",")
		if name == "" || name == "-" {
			continue
		}
		switch f.Type.Kind() {
		case reflect.Struct:
			collectKeys(f.Type, prefix+name+".", keys)
		case reflect.Slice, reflect.Map:
			// tables, not settings
		default:
			*keys = append(*keys, prefix+name)
		}
	}
}

// Clone creates a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	if c.Inventory != nil {
		data, err := json.Marshal(c.Inventory)
		if err == nil {
			clone.Inventory = nil
			_ = json.Unmarshal(data, &clone.Inventory)
		}
	}
	return &clone
}

// String returns a JSON rendering of the config with the broker password
// redacted.
func (c *Config) String() string {
	safe := c.Clone()
	if safe.Broker.Password != "" {
		safe.Broker.Password = "[REDACTED]"
	}
	data, _ := json.MarshalIndent(safe, "", "  ")
	return string(data)
}
