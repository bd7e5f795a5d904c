package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/refscan/refscan/internal/cache"
	"github.com/refscan/refscan/internal/output"
	"github.com/refscan/refscan/internal/scanner"
	"github.com/refscan/refscan/pkg/config"
	"github.com/urfave/cli/v2"
)

// getPaths returns paths from positional args, defaulting to ["."]
func getPaths(c *cli.Context) []string {
	if c.Args().Len() > 0 {
		return c.Args().Slice()
	}
	return []string{"."}
}

// loadConfig resolves the effective config: an explicit --config path
// fails loudly if unreadable, otherwise standard locations are tried.
func loadConfig(c *cli.Context) (*config.Config, error) {
	if path := c.String("config"); path != "" {
		return config.Load(path)
	}
	return config.LoadOrDefault(), nil
}

// scanInputs walks each path through the scanner. Explicit file paths
// skip classification and are handed to the analyzer as-is.
func scanInputs(cfg *config.Config, paths []string) ([]string, error) {
	s := scanner.New(cfg)
	var files []string
	for _, path := range paths {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("invalid path %s: %w", path, err)
		}
		info, err := os.Stat(absPath)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, path)
			continue
		}
		result, err := s.ScanDir(absPath)
		if err != nil {
			return nil, fmt.Errorf("failed to scan directory %s: %w", path, err)
		}
		files = append(files, result.Classes...)
		files = append(files, result.Archives...)
		files = append(files, result.Layouts...)
		files = append(files, result.Stubs...)
	}
	return files, nil
}

// newFormatter builds the output formatter from global flags.
func newFormatter(c *cli.Context, cfg *config.Config) (*output.Formatter, error) {
	format := c.String("format")
	if !c.IsSet("format") && cfg.Output.Format != "" {
		format = cfg.Output.Format
	}
	return output.NewFormatter(output.ParseFormat(format), c.String("output"), cfg.Output.Color)
}

// openCache builds the decode cache honoring --no-cache.
func openCache(c *cli.Context, cfg *config.Config) (*cache.Cache, error) {
	enabled := cfg.Cache.Enabled && !c.Bool("no-cache")
	return cache.New(cfg.Cache.Dir, cfg.Cache.TTL, enabled)
}
