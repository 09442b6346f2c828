// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

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
	"github.com/ilyakaznacheev/cleanenv"

	"github.com/jeranaias/tokenmeter/internal/util"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete tokenmeter configuration.
type Config struct {
	// Model is the model whose context window the footer measures against.
	Model string `toml:"model" json:"model" env:"TOKENMETER_MODEL"`

	UI     UIConfig     `toml:"ui" json:"ui"`
	Memory MemoryConfig `toml:"memory" json:"memory"`
	Log    LogConfig    `toml:"log" json:"log"`

	// Models adds or overrides context window sizes by model ID.
	Models map[string]int64 `toml:"models,omitempty" json:"models,omitempty"`
}

// UIConfig contains display settings.
type UIConfig struct {
	Footer        FooterConfig        `toml:"footer" json:"footer"`
	Accessibility AccessibilityConfig `toml:"accessibility" json:"accessibility"`

	// ShowMemoryUsage shows the process heap next to the footer.
	ShowMemoryUsage bool `toml:"show_memory_usage" json:"show_memory_usage" env:"TOKENMETER_SHOW_MEMORY_USAGE"`
	// ShowContextStats opens the stats panel on start.
	ShowContextStats bool `toml:"show_context_stats" json:"show_context_stats" env:"TOKENMETER_SHOW_CONTEXT_STATS"`
}

// FooterConfig controls the context usage segment.
type FooterConfig struct {
	// ShowTokenCounts switches from "% context left" to explicit counts.
	ShowTokenCounts bool `toml:"show_token_counts" json:"show_token_counts" env:"TOKENMETER_SHOW_TOKEN_COUNTS"`
}

// AccessibilityConfig contains screen reader settings.
type AccessibilityConfig struct {
	// ScreenReader appends full integers to abbreviated counts and selects
	// the plain line interface.
	ScreenReader bool `toml:"screen_reader" json:"screen_reader" env:"TOKENMETER_SCREEN_READER"`
}

// MemoryConfig contains saved memory settings.
type MemoryConfig struct {
	// DBPath is the SQLite database (empty = ~/.tokenmeter/memory.db).
	DBPath string `toml:"db_path" json:"db_path" env:"TOKENMETER_MEMORY_DB"`
	// RefreshIntervalMs is the minimum gap between memory refreshes.
	RefreshIntervalMs int `toml:"refresh_interval_ms" json:"refresh_interval_ms" env:"TOKENMETER_MEMORY_REFRESH_INTERVAL_MS"`
	// RefreshTimeoutMs bounds a single refresh.
	RefreshTimeoutMs int `toml:"refresh_timeout_ms" json:"refresh_timeout_ms" env:"TOKENMETER_MEMORY_REFRESH_TIMEOUT_MS"`
}

// RefreshInterval returns RefreshIntervalMs as a duration.
func (m MemoryConfig) RefreshInterval() time.Duration {
	return time.Duration(m.RefreshIntervalMs) * time.Millisecond
}

// RefreshTimeout returns RefreshTimeoutMs as a duration.
func (m MemoryConfig) RefreshTimeout() time.Duration {
	return time.Duration(m.RefreshTimeoutMs) * time.Millisecond
}

// LogConfig contains logging settings.
type LogConfig struct {
	// File is the JSON log file (empty = ~/.tokenmeter/tokenmeter.log).
	File string `toml:"file" json:"file" env:"TOKENMETER_LOG_FILE"`
	// Debug enables debug level logging.
	Debug bool `toml:"debug" json:"debug" env:"TOKENMETER_DEBUG"`
}

// Default values.
const (
	DefaultModel             = "gemini-2.5-pro"
	DefaultRefreshIntervalMs = 500
	DefaultRefreshTimeoutMs  = 10_000
)

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Model: DefaultModel,
		Memory: MemoryConfig{
			RefreshIntervalMs: DefaultRefreshIntervalMs,
			RefreshTimeoutMs:  DefaultRefreshTimeoutMs,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the tokenmeter configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".tokenmeter"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	return inConfigDir("config.toml")
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	return inConfigDir("config.json")
}

// DefaultPath returns the config file Load would read: the TOML file, or
// the JSON file when only that one exists.
func DefaultPath() (string, error) {
	tomlPath, err := ConfigPathTOML()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(tomlPath); err == nil {
		return tomlPath, nil
	}
	jsonPath, err := ConfigPathJSON()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(jsonPath); err == nil {
		return jsonPath, nil
	}
	return tomlPath, nil
}

// MemoryDBPath resolves the memory database location.
func (c *Config) MemoryDBPath() (string, error) {
	if c.Memory.DBPath != "" {
		return c.Memory.DBPath, nil
	}
	return inConfigDir("memory.db")
}

// LogFilePath resolves the log file location.
func (c *Config) LogFilePath() (string, error) {
	if c.Log.File != "" {
		return c.Log.File, nil
	}
	return inConfigDir("tokenmeter.log")
}

func inConfigDir(name string) (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load reads the default config file, trying TOML then JSON, and falls back
// to defaults when neither exists. Environment overrides are applied last.
func Load() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return LoadDefaults()
	}
	if _, statErr := os.Stat(path); statErr != nil {
		return LoadDefaults()
	}
	return LoadFromPath(path)
}

// LoadDefaults returns the built-in configuration with environment
// overrides applied.
func LoadDefaults() (*Config, error) {
	return finish(Default())
}

// LoadFromPath loads configuration from a specific file. Files ending in
// .json are decoded as JSON, everything else as TOML.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	var err error
	if strings.HasSuffix(strings.ToLower(path), ".json") {
		err = LoadJSON(cfg, path)
	} else {
		err = LoadTOML(cfg, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}
	return finish(cfg)
}

// LoadTOML decodes a TOML file over cfg.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadJSON decodes a JSON file over cfg.
func LoadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

func finish(cfg *Config) (*Config, error) {
	if err := cfg.ApplyEnvOverrides(); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save writes cfg to path atomically. The format follows the extension.
func Save(cfg *Config, path string) error {
	var data []byte
	if strings.HasSuffix(strings.ToLower(path), ".json") {
		encoded, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
		data = append(encoded, '\n')
	} else {
		var buf bytes.Buffer
		buf.WriteString("# tokenmeter configuration file\n\n")
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
		data = buf.Bytes()
	}

	if err := util.AtomicWriteFileWithDir(path, data, 0o600, 0o700); err != nil {
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

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Unwrap lets errors.Is match ErrInvalidConfig.
func (e ValidationErrors) Unwrap() error {
	return ErrInvalidConfig
}

// Validate checks the configuration and returns ValidationErrors on failure.
func (c *Config) Validate() error {
	var errs ValidationErrors

	if strings.TrimSpace(c.Model) == "" {
		errs = append(errs, ValidationError{Field: "model", Message: "must not be empty"})
	}
	if c.Memory.RefreshIntervalMs < 0 {
		errs = append(errs, ValidationError{
			Field:   "memory.refresh_interval_ms",
			Message: fmt.Sprintf("must not be negative, got %d", c.Memory.RefreshIntervalMs),
		})
	}
	if c.Memory.RefreshTimeoutMs < 0 {
		errs = append(errs, ValidationError{
			Field:   "memory.refresh_timeout_ms",
			Message: fmt.Sprintf("must not be negative, got %d", c.Memory.RefreshTimeoutMs),
		})
	}

	ids := make([]string, 0, len(c.Models))
	for id := range c.Models {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if strings.TrimSpace(id) == "" {
			errs = append(errs, ValidationError{Field: "models", Message: "model ID must not be empty"})
			continue
		}
		if limit := c.Models[id]; limit <= 0 {
			errs = append(errs, ValidationError{
				Field:   "models." + id,
				Message: fmt.Sprintf("context limit must be positive, got %d", limit),
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults fills in zero values that have a default.
func (c *Config) SetDefaults() {
	if strings.TrimSpace(c.Model) == "" {
		c.Model = DefaultModel
	}
	if c.Memory.RefreshTimeoutMs == 0 {
		c.Memory.RefreshTimeoutMs = DefaultRefreshTimeoutMs
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies TOKENMETER_* environment variables:
//   - TOKENMETER_MODEL: overrides model
//   - TOKENMETER_SHOW_TOKEN_COUNTS: overrides ui.footer.show_token_counts
//   - TOKENMETER_SCREEN_READER: overrides ui.accessibility.screen_reader
//   - TOKENMETER_SHOW_MEMORY_USAGE, TOKENMETER_SHOW_CONTEXT_STATS: panel toggles
//   - TOKENMETER_MEMORY_DB, TOKENMETER_MEMORY_REFRESH_INTERVAL_MS,
//     TOKENMETER_MEMORY_REFRESH_TIMEOUT_MS: memory settings
//   - TOKENMETER_LOG_FILE, TOKENMETER_DEBUG: logging
//
// Unset variables leave the loaded values alone.
func (c *Config) ApplyEnvOverrides() error {
	if err := cleanenv.ReadEnv(c); err != nil {
		return fmt.Errorf("%w: environment: %v", ErrInvalidConfig, err)
	}
	return nil
}

// EnvDescription lists the supported environment variables.
func EnvDescription() (string, error) {
	header := "Environment variables:"
	return cleanenv.GetDescription(&Config{}, &header)
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation
// (e.g. "ui.footer.show_token_counts").
func (c *Config) Get(key string) (any, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value using dot notation. String values are
// converted to the field's type.
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
	if strings.TrimSpace(key) == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		if v.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a section", strings.Join(parts[:i], "."))
		}
		field, ok := fieldByTag(v, part)
		if !ok {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	if v.Kind() == reflect.Struct || v.Kind() == reflect.Map {
		return reflect.Value{}, fmt.Errorf("field '%s' is a section, not a value", key)
	}
	return v, nil
}

// fieldByTag finds the struct field whose toml tag is name.
func fieldByTag(v reflect.Value, name string) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		tag, _, _ := strings.Cut(t.Field(i).Tag.Get("toml"), ",")
		if tag == name {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

// setFieldValue sets a reflect.Value from value with type conversion.
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
			boolVal, err := strconv.ParseBool(strVal)
			if err != nil {
				return fmt.Errorf("invalid boolean value: %v", err)
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
	if val.Type().ConvertibleTo(field.Type()) && val.Kind() != reflect.String {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// Keys returns every settable key in dot notation.
func Keys() []string {
	var keys []string
	collectKeys(reflect.TypeOf(Config{}), "", &keys)
	return keys
}

func collectKeys(t reflect.Type, prefix string, keys *[]string) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag, _, _ := strings.Cut(f.Tag.Get("toml"), ",")
		if tag == "" || tag == "-" {
			continue
		}
		switch f.Type.Kind() {
		case reflect.Struct:
			collectKeys(f.Type, prefix+tag+".", keys)
		case reflect.Map:
		default:
			*keys = append(*keys, prefix+tag)
		}
	}
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	if c.Models != nil {
		clone.Models = make(map[string]int64, len(c.Models))
		for k, v := range c.Models {
			clone.Models[k] = v
		}
	}
	return &clone
}

// String returns the configuration as TOML.
func (c *Config) String() string {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Sprintf("error encoding config: %v", err)
	}
	return buf.String()
}
