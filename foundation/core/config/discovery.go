// File: discovery.go
// Title: Configuration File Discovery Implementation
// Description: Locates a beanval configuration file across a list of
//              directories and formats.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-25
// Modified: 2026-10-15
//
// Change History:
// - 2025-01-25 v0.1.0: Initial implementation of file discovery
// - 2026-10-15 v0.2.0: Defaults point at beanval files, env loading removed

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	bverror "github.com/msto63/beanval/foundation/core/error"
)

// DiscoveryOptions defines options for automatic configuration file discovery
type DiscoveryOptions struct {
	Paths      []string // Directories to search for config files
	Filenames  []string // Base filenames to look for (without extension)
	Extensions []string // File extensions to try
	EnvPrefix  string   // Environment variable prefix for overrides
	Required   bool     // Whether finding a config file is required
}

// DefaultDiscoveryOptions searches the working directory, ./config and the
// user config directory for beanval.toml, beanval.yaml or beanval.yml.
func DefaultDiscoveryOptions() DiscoveryOptions {
	paths := []string{".", "./config"}
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, "beanval"))
	}
	return DiscoveryOptions{
		Paths:      paths,
		Filenames:  []string{"beanval"},
		Extensions: []string{".toml", ".yaml", ".yml"},
		EnvPrefix:  DefaultEnvPrefix,
	}
}

// Discover loads the first configuration file found. When none exists and
// the options do not require one, an empty configuration is returned.
func Discover(options DiscoveryOptions) (*Config, error) {
	candidates := ListPossibleConfigFiles(options)
	for _, configPath := range candidates {
		info, err := os.Stat(configPath)
		if err != nil || info.IsDir() {
			continue
		}
		cfg, err := LoadWithOptions(configPath, LoadOptions{Format: FormatAuto, EnvPrefix: options.EnvPrefix})
		if err != nil {
			return nil, bverror.Wrap(err, fmt.Sprintf("found config file %s but failed to load", configPath)).
				WithOperation("config.Discover").
				WithDetail("configPath", configPath)
		}
		return cfg, nil
	}

	if options.Required {
		return nil, bverror.New(fmt.Sprintf("no configuration file found in paths: %s", strings.Join(candidates, ", "))).
			WithCode(bverror.CodeMissingConfig).
			WithOperation("config.Discover").
			WithDetail("searchPaths", candidates)
	}
	return newConfig(nil, "", FormatTOML, options.EnvPrefix), nil
}

// ListPossibleConfigFiles returns every path Discover would try, in order
func ListPossibleConfigFiles(options DiscoveryOptions) []string {
	if len(options.Paths) == 0 {
		options.Paths = []string{"."}
	}
	if len(options.Extensions) == 0 {
		options.Extensions = []string{".toml", ".yaml", ".yml"}
	}

	var paths []string
	for _, path := range options.Paths {
		for _, filename := range options.Filenames {
			for _, ext := range options.Extensions {
				paths = append(paths, filepath.Join(path, filename+ext))
			}
		}
	}
	return paths
}
