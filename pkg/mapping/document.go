// ============================================================================
// beanval - Bean Validation Engine
// ============================================================================
//
// Package:     mapping
// Description: Bean and group declarations read from YAML or TOML documents
// Author:      Mike Stoffels
// Created:     2026-10-15
// License:     MIT
// ============================================================================

// Package mapping declares groups and beans in YAML or TOML documents
// instead of struct tags. Mapped beans are identified by id and validate
// map[string]interface{} values, which is what decoded JSON, YAML and TOML
// documents look like.
//
// A document:
//
//	groups:
//	  - name: Basic
//	  - name: Complete
//	    extends: [Basic]
//	beans:
//	  - id: customer
//	    properties:
//	      - name: name
//	        validate: mandatory;maxLength:40
//	      - name: address
//	        cascade: true
//	        container: bean
//	        target: address
//	  - id: address
//	    properties:
//	      - name: city
//	        validate: mandatory
package mapping

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/msto63/beanval/foundation/core/config"

	bverror "github.com/msto63/beanval/foundation/core/error"
)

// Document is the root of a mapping file.
type Document struct {
	Groups []GroupSpec `yaml:"groups" toml:"groups"`
	Beans  []BeanSpec  `yaml:"beans" toml:"beans"`
}

// GroupSpec declares a named group. A group either extends other groups
// or stands for a sequence of groups, not both.
type GroupSpec struct {
	Name     string   `yaml:"name" toml:"name"`
	Extends  []string `yaml:"extends" toml:"extends"`
	Sequence []string `yaml:"sequence" toml:"sequence"`
}

// BeanSpec declares a bean. Validate holds bean-level rules in the same
// syntax as the validate struct tag. DefaultSequence may name the bean's
// own id to refer to its Default constraints.
type BeanSpec struct {
	ID              string         `yaml:"id" toml:"id"`
	Validate        string         `yaml:"validate" toml:"validate"`
	Groups          []string       `yaml:"groups" toml:"groups"`
	Message         string         `yaml:"message" toml:"message"`
	DefaultSequence []string       `yaml:"default_sequence" toml:"default_sequence"`
	Properties      []PropertySpec `yaml:"properties" toml:"properties"`
}

// PropertySpec declares one property of a mapped bean.
type PropertySpec struct {
	Name      string   `yaml:"name" toml:"name"`
	Validate  string   `yaml:"validate" toml:"validate"`
	Groups    []string `yaml:"groups" toml:"groups"`
	Message   string   `yaml:"message" toml:"message"`
	Cascade   bool     `yaml:"cascade" toml:"cascade"`
	Container string   `yaml:"container" toml:"container"`
	Target    string   `yaml:"target" toml:"target"`
	// Convert maps a requested group to the group used for the cascaded
	// value.
	Convert map[string]string `yaml:"convert" toml:"convert"`
}

// Parse decodes a document. FormatAuto is not accepted here; use LoadFile
// to detect the format from a file name.
func Parse(content []byte, format config.Format) (*Document, error) {
	doc := &Document{}
	switch format {
	case config.FormatYAML:
		if err := yaml.Unmarshal(content, doc); err != nil {
			return nil, bverror.Wrap(err, "YAML mapping parse error").
				WithCode(bverror.CodeMetadata).
				WithOperation("mapping.Parse")
		}
	case config.FormatTOML:
		if _, err := toml.Decode(string(content), doc); err != nil {
			return nil, bverror.Wrap(err, "TOML mapping parse error").
				WithCode(bverror.CodeMetadata).
				WithOperation("mapping.Parse")
		}
	default:
		return nil, bverror.New(fmt.Sprintf("unsupported mapping format: %s", format)).
			WithCode(bverror.CodeMetadata).
			WithOperation("mapping.Parse")
	}
	return doc, nil
}

// LoadFile reads and decodes the mapping file at path. Files ending in
// .yaml or .yml are YAML, everything else is TOML.
func LoadFile(path string) (*Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, bverror.Wrap(err, "reading mapping file").
			WithCode(bverror.CodeNotFound).
			WithOperation("mapping.LoadFile").
			WithDetail("path", path)
	}
	return Parse(content, FormatOf(path))
}

// FormatOf returns the format implied by a file name.
func FormatOf(path string) config.Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return config.FormatYAML
	default:
		return config.FormatTOML
	}
}
