// Package config loads refscan configuration from TOML, YAML, or JSON
// files and validates it against an embedded schema.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	koanfjson "github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Config holds all configuration options for refscan.
type Config struct {
	Analysis AnalysisConfig `koanf:"analysis" toml:"analysis"`
	Exclude  ExcludeConfig  `koanf:"exclude" toml:"exclude"`
	Cache    CacheConfig    `koanf:"cache" toml:"cache"`
	Output   OutputConfig   `koanf:"output" toml:"output"`
}

// AnalysisConfig controls which inputs are collected and how the batch
// reacts to malformed files.
type AnalysisConfig struct {
	Archives         bool `koanf:"archives" toml:"archives"`                   // analyze packed archives
	Layouts          bool `koanf:"layouts" toml:"layouts"`                     // fold in layout descriptors
	Stubs            bool `koanf:"stubs" toml:"stubs"`                         // build stub exclusions
	FailFast         bool `koanf:"fail_fast" toml:"fail_fast"`                 // first malformed class file aborts the batch
	StrictSignatures bool `koanf:"strict_signatures" toml:"strict_signatures"` // malformed signatures fail the file
	Workers          int  `koanf:"workers" toml:"workers"`                     // 0 = derived from CPU count

	ArchiveExtensions []string `koanf:"archive_extensions" toml:"archive_extensions"`
	LayoutDirs        []string `koanf:"layout_dirs" toml:"layout_dirs"` // directory basename prefixes holding layouts
	StubDirs          []string `koanf:"stub_dirs" toml:"stub_dirs"`     // directories holding generated sources
}

// ExcludeConfig defines file exclusion patterns for the scanner.
type ExcludeConfig struct {
	Patterns  []string `koanf:"patterns" toml:"patterns"`
	Dirs      []string `koanf:"dirs" toml:"dirs"`
	Gitignore bool     `koanf:"gitignore" toml:"gitignore"`
}

// CacheConfig controls the decode-result cache.
type CacheConfig struct {
	Enabled bool   `koanf:"enabled" toml:"enabled"`
	Dir     string `koanf:"dir" toml:"dir"`
	TTL     int    `koanf:"ttl" toml:"ttl"` // hours
}

// OutputConfig controls report rendering.
type OutputConfig struct {
	Format  string `koanf:"format" toml:"format"` // text, json, markdown, toon
	Color   bool   `koanf:"color" toml:"color"`
	Verbose bool   `koanf:"verbose" toml:"verbose"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			Archives:          true,
			Layouts:           true,
			Stubs:             true,
			ArchiveExtensions: []string{".jar", ".zip"},
			LayoutDirs:        []string{"layout"},
			StubDirs:          []string{"generated", "stubs"},
		},
		Exclude: ExcludeConfig{
			Patterns: []string{
				"*.class.bak",
				"*-sources.jar",
				"*-javadoc.jar",
			},
			Dirs: []string{
				".git",
				".refscan",
				"tmp",
			},
			Gitignore: true,
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     ".refscan/cache",
			TTL:     24,
		},
		Output: OutputConfig{
			Format: "text",
			Color:  true,
		},
	}
}

// Load loads and validates configuration from a file.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = koanfjson.Parser()
	default:
		parser = toml.Parser()
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	if err := validate(k.Raw()); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault tries standard locations and falls back to defaults.
func LoadOrDefault() *Config {
	names := []string{
		"refscan.toml",
		"refscan.yaml",
		"refscan.yml",
		"refscan.json",
		".refscan.toml",
		".refscan.yaml",
		".refscan.yml",
		".refscan.json",
	}
	for _, dir := range []string{".", ".refscan"} {
		for _, name := range names {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				if cfg, err := Load(path); err == nil {
					return cfg
				}
			}
		}
	}
	return DefaultConfig()
}

// ShouldExclude checks if a path should be skipped by the scanner.
func (c *Config) ShouldExclude(path string) bool {
	sep := string(filepath.Separator)
	for _, dir := range c.Exclude.Dirs {
		if strings.Contains(path, sep+dir+sep) || strings.HasPrefix(path, dir+sep) {
			return true
		}
	}
	base := filepath.Base(path)
	for _, pattern := range c.Exclude.Patterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}
	return false
}

// IsArchive reports whether path carries one of the configured archive
// extensions.
func (c *Config) IsArchive(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range c.Analysis.ArchiveExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// schema constrains the loaded config tree. Unknown keys are rejected so
// a typo fails loudly instead of silently meaning defaults.
const schema = `{
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "analysis": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "archives": {"type": "boolean"},
        "layouts": {"type": "boolean"},
        "stubs": {"type": "boolean"},
        "fail_fast": {"type": "boolean"},
        "strict_signatures": {"type": "boolean"},
        "workers": {"type": "integer", "minimum": 0},
        "archive_extensions": {"type": "array", "items": {"type": "string", "pattern": "^\\."}},
        "layout_dirs": {"type": "array", "items": {"type": "string"}},
        "stub_dirs": {"type": "array", "items": {"type": "string"}}
      }
    },
    "exclude": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "patterns": {"type": "array", "items": {"type": "string"}},
        "dirs": {"type": "array", "items": {"type": "string"}},
        "gitignore": {"type": "boolean"}
      }
    },
    "cache": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "enabled": {"type": "boolean"},
        "dir": {"type": "string"},
        "ttl": {"type": "integer", "minimum": 0}
      }
    },
    "output": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "format": {"type": "string", "enum": ["text", "json", "markdown", "toon"]},
        "color": {"type": "boolean"},
        "verbose": {"type": "boolean"}
      }
    }
  }
}`

// validate checks the raw config tree against the embedded schema. The
// tree is round-tripped through JSON so parser-specific value types
// (TOML int64, YAML aliases) become plain JSON values first.
func validate(raw map[string]any) error {
	encoded, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	value, err := jsonschema.UnmarshalJSON(bytes.NewReader(encoded))
	if err != nil {
		return err
	}

	compiler := jsonschema.NewCompiler()
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(schema))
	if err != nil {
		return err
	}
	if err := compiler.AddResource("refscan-config.json", doc); err != nil {
		return err
	}
	compiled, err := compiler.Compile("refscan-config.json")
	if err != nil {
		return err
	}
	return compiled.Validate(value)
}
