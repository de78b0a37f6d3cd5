// Package config handles ktlight.toml project configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileName is the configuration file looked up in the source root and its
// parents.
const FileName = "ktlight.toml"

// ErrNotFound is returned by FindAndLoad when no configuration file exists.
var ErrNotFound = errors.New("config: " + FileName + " not found")

// Config represents a ktlight.toml file.
type Config struct {
	Source  Source  `toml:"source"`
	Resolve Resolve `toml:"resolve"`
	View    View    `toml:"view"`
	Stubs   Stubs   `toml:"stubs"`
	Log     Log     `toml:"log"`

	// Dir is the directory containing the config file (set at load time).
	Dir string `toml:"-"`
}

// Source configures which files are indexed.
type Source struct {
	Roots       []string `toml:"roots"`
	Exclude     []string `toml:"exclude"`
	MaxFileSize int      `toml:"max-file-size"`
}

// Resolve configures annotation name resolution.
type Resolve struct {
	DefaultImports []string `toml:"default-imports"`
}

// View configures light annotation views.
type View struct {
	MaxDepth int `toml:"max-depth"`
}

// Stubs configures the compiled stub database.
type Stubs struct {
	Path string `toml:"path"`
}

// Log configures commonlog.
type Log struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file,omitempty"`
}

// Default values applied to unset fields.
const (
	DefaultMaxDepth    = 16
	DefaultMaxFileSize = 1_000_000
)

// DefaultImports are the packages Kotlin imports implicitly, plus java.lang.
var DefaultImports = []string{"kotlin", "kotlin.annotation", "kotlin.jvm", "java.lang"}

// Default returns the configuration used when no file is present.
func Default(dir string) *Config {
	c := &Config{Dir: dir}
	c.applyDefaults()
	return c
}

// Load parses the config file in dir.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var c Config
	if err := toml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	c.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}
	c.applyDefaults()
	return &c, nil
}

// FindAndLoad walks up from startDir to find a config file and loads it.
// It returns ErrNotFound when none exists.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, FileName)); err == nil {
			return Load(dir)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, ErrNotFound
		}
		dir = parent
	}
}

// LoadOrDefault is FindAndLoad falling back to Default(startDir).
func LoadOrDefault(startDir string) (*Config, error) {
	c, err := FindAndLoad(startDir)
	if errors.Is(err, ErrNotFound) {
		abs, absErr := filepath.Abs(startDir)
		if absErr != nil {
			return nil, absErr
		}
		return Default(abs), nil
	}
	return c, err
}

func (c *Config) applyDefaults() {
	if len(c.Source.Roots) == 0 {
		c.Source.Roots = []string{"."}
	}
	if c.Source.MaxFileSize <= 0 {
		c.Source.MaxFileSize = DefaultMaxFileSize
	}
	if len(c.Resolve.DefaultImports) == 0 {
		c.Resolve.DefaultImports = append([]string(nil), DefaultImports...)
	}
	if c.View.MaxDepth <= 0 {
		c.View.MaxDepth = DefaultMaxDepth
	}
}

// RootPaths returns absolute paths for the configured source roots.
func (c *Config) RootPaths() []string {
	paths := make([]string, 0, len(c.Source.Roots))
	for _, r := range c.Source.Roots {
		if filepath.IsAbs(r) {
			paths = append(paths, r)
			continue
		}
		paths = append(paths, filepath.Join(c.Dir, r))
	}
	return paths
}

// StubsPath returns the absolute stub database path, or "" if unset.
func (c *Config) StubsPath() string {
	if c.Stubs.Path == "" || filepath.IsAbs(c.Stubs.Path) {
		return c.Stubs.Path
	}
	return filepath.Join(c.Dir, c.Stubs.Path)
}
