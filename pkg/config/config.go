// Package config reads the lumin.yaml project file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/lemonberrylabs/lumin/pkg/transpiler"
	"gopkg.in/yaml.v3"
)

// FileName is the project file looked up by Find.
const FileName = "lumin.yaml"

// Config is the project configuration.
type Config struct {
	// Indent is the number of spaces per nesting level in emitted code.
	Indent int `yaml:"indent"`

	// Types overrides entries of the built-in type-name table.
	Types map[string]string `yaml:"types"`

	// Sources is the directory scanned for .lum files.
	Sources string `yaml:"sources"`

	// Out is the directory generated .ts files are written to. Empty means
	// next to each source file.
	Out string `yaml:"out"`

	// MaxSourceSize limits a single source file in bytes.
	MaxSourceSize int `yaml:"maxSourceSize"`

	// Dir is the directory the file was loaded from. Relative Sources and
	// Out paths resolve against it.
	Dir string `yaml:"-"`
}

// ConfigError describes an invalid project file.
type ConfigError struct {
	Message  string
	Location string // e.g. "lumin.yaml:3"
}

func (e *ConfigError) Error() string {
	if e.Location != "" {
		return fmt.Sprintf("config error at %s: %s", e.Location, e.Message)
	}
	return fmt.Sprintf("config error: %s", e.Message)
}

// Default returns the configuration used when no project file exists.
func Default() *Config {
	return &Config{
		Indent:        2,
		Sources:       ".",
		MaxSourceSize: transpiler.DefaultMaxSourceSize,
		Dir:           ".",
	}
}

// Parse decodes a project file. Unknown keys are rejected. name is used in
// error locations.
func Parse(name string, data []byte) (*Config, error) {
	cfg := Default()
	if len(bytes.TrimSpace(data)) == 0 {
		return cfg, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, yamlError(name, err)
	}
	if err := cfg.validate(name); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads and parses the project file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg, err := Parse(filepath.Base(path), data)
	if err != nil {
		return nil, err
	}
	cfg.Dir = filepath.Dir(path)
	return cfg, nil
}

// Find loads lumin.yaml from dir, or returns Default rooted at dir when the
// file does not exist.
func Find(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		cfg := Default()
		cfg.Dir = dir
		return cfg, nil
	}
	return Load(path)
}

// SourcesDir returns Sources resolved against the config directory.
func (c *Config) SourcesDir() string {
	return c.resolve(c.Sources)
}

// OutDir returns Out resolved against the config directory, or "" when
// outputs go next to their sources.
func (c *Config) OutDir() string {
	if c.Out == "" {
		return ""
	}
	return c.resolve(c.Out)
}

func (c *Config) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Dir, p)
}

// TranspilerOptions converts the configuration into transpiler options.
func (c *Config) TranspilerOptions() transpiler.Options {
	return transpiler.Options{
		Indent:        c.Indent,
		Types:         c.Types,
		MaxSourceSize: c.MaxSourceSize,
	}
}

func (c *Config) validate(name string) error {
	if c.Indent < 1 || c.Indent > 8 {
		return &ConfigError{Message: fmt.Sprintf("indent must be between 1 and 8, got %d", c.Indent), Location: name}
	}
	if c.MaxSourceSize <= 0 {
		return &ConfigError{Message: "maxSourceSize must be positive", Location: name}
	}
	for from, to := range c.Types {
		if from == "" || to == "" {
			return &ConfigError{Message: fmt.Sprintf("type mapping %q -> %q must name both types", from, to), Location: name}
		}
	}
	return nil
}

func yamlError(name string, err error) error {
	var typeErr *yaml.TypeError
	if errors.As(err, &typeErr) && len(typeErr.Errors) > 0 {
		return &ConfigError{Message: typeErr.Errors[0], Location: name}
	}
	return &ConfigError{Message: fmt.Sprintf("invalid YAML: %v", err), Location: name}
}
