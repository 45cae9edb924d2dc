// File: doc.go
// Title: Configuration Management Package Documentation
// Description: Package config loads validator settings from TOML and YAML
//              files with environment variable overrides.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-25
// Modified: 2026-10-15
//
// Change History:
// - 2025-01-25 v0.1.0: Initial implementation with TOML/YAML support
// - 2026-10-15 v0.2.0: Reduced to the settings the validator consumes

/*
Package config provides configuration loading for beanval.

Files are parsed with BurntSushi/toml or gopkg.in/yaml.v3, chosen by file
extension. Values are addressed with dot notation and every getter first
consults an environment override derived from the key:

	cfg, err := config.Load("beanval.toml")
	if err != nil {
		return err
	}

	// BEANVAL_VALIDATOR_TREAT_MAPS_LIKE_BEANS=true overrides the file
	asBeans := cfg.GetBool("validator.treat_maps_like_beans", false)
	level := cfg.GetString("log.level", "warn")

# Validation

Rules check presence, type and allowed values and fill in defaults:

	result := cfg.Validate(config.ValidationRules{
		"log.level":  {Type: "string", OneOf: []string{"trace", "debug", "info", "warn", "error", "off"}},
		"log.format": {Default: "text"},
	})
	if err := result.Err(); err != nil {
		return err
	}

# Discovery

Discover walks DefaultDiscoveryOptions().Paths looking for beanval.toml,
beanval.yaml or beanval.yml and loads the first match.
*/
package config
