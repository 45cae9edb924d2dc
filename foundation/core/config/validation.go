// File: validation.go
// Title: Configuration Validation Implementation
// Description: Validates configuration values against declarative rules
//              covering presence, type, allowed values and patterns.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-25
// Modified: 2026-10-15
//
// Change History:
// - 2025-01-25 v0.1.0: Initial implementation of validation
// - 2026-10-15 v0.2.0: OneOf rules, results carry a bverror, struct binding removed

package config

import (
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"time"

	bverror "github.com/msto63/beanval/foundation/core/error"
)

// ValidationRule defines validation criteria for configuration values
type ValidationRule struct {
	Required bool        // Whether the field is required
	Type     string      // Expected type: "string", "int", "bool", "duration", "[]string"
	OneOf    []string    // Allowed values, compared case-insensitively
	Default  interface{} // Default value if not present
	Pattern  string      // Regex pattern for string validation
}

// ValidationRules maps configuration keys to their validation rules
type ValidationRules map[string]ValidationRule

// ValidationResult contains the results of configuration validation
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// Err converts a failed result into a configuration error, or nil.
func (r *ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	return bverror.New("invalid configuration: "+strings.Join(r.Errors, "; ")).
		WithCode(bverror.CodeInvalidConfig).
		WithOperation("config.Validate").
		WithDetail("errors", len(r.Errors))
}

// Validate validates the configuration against the provided rules. Missing
// optional keys receive their rule's default.
func (c *Config) Validate(rules ValidationRules) *ValidationResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	result := &ValidationResult{Valid: true}

	keys := make([]string, 0, len(rules))
	for key := range rules {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if err := c.validateField(key, rules[key]); err != nil {
			result.Valid = false
			result.Errors = append(result.Errors, err.Error())
		}
	}
	return result
}

func (c *Config) validateField(key string, rule ValidationRule) error {
	value := c.getValue(key)
	if envValue := c.getEnvValue(key); envValue != "" {
		value = envValue
	}

	if value == nil {
		if rule.Required {
			return fmt.Errorf("required field '%s' is missing", key)
		}
		if rule.Default != nil {
			c.set(key, rule.Default)
		}
		return nil
	}

	if rule.Type != "" {
		if err := validateType(key, value, rule.Type); err != nil {
			return err
		}
	}

	if len(rule.OneOf) > 0 {
		str := strings.ToLower(fmt.Sprintf("%v", value))
		allowed := false
		for _, candidate := range rule.OneOf {
			if strings.ToLower(candidate) == str {
				allowed = true
				break
			}
		}
		if !allowed {
			return fmt.Errorf("field '%s' value '%v' is not one of %s", key, value, strings.Join(rule.OneOf, ", "))
		}
	}

	if rule.Pattern != "" {
		return validatePattern(key, value, rule.Pattern)
	}
	return nil
}

func validateType(key string, value interface{}, expectedType string) error {
	actualType := reflect.TypeOf(value)

	switch expectedType {
	case "string":
		if actualType.Kind() != reflect.String {
			return fmt.Errorf("field '%s' must be a string, got %s", key, actualType.Kind())
		}

	case "int":
		switch actualType.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		case reflect.Float64:
			if f := value.(float64); f != float64(int64(f)) {
				return fmt.Errorf("field '%s' must be an integer, got float with decimal places", key)
			}
		default:
			return fmt.Errorf("field '%s' must be an integer, got %s", key, actualType.Kind())
		}

	case "bool":
		switch v := value.(type) {
		case bool:
		case string:
			if _, err := parseBoolStrict(v); err != nil {
				return fmt.Errorf("field '%s' must be a boolean, got '%s'", key, v)
			}
		default:
			return fmt.Errorf("field '%s' must be a boolean, got %s", key, actualType.Kind())
		}

	case "duration":
		if s, ok := value.(string); ok {
			if _, err := time.ParseDuration(s); err != nil {
				return fmt.Errorf("field '%s' must be a valid duration string, got '%v'", key, value)
			}
		} else if actualType != reflect.TypeOf(time.Duration(0)) {
			return fmt.Errorf("field '%s' must be a duration, got %s", key, actualType.Kind())
		}

	case "[]string":
		switch value.(type) {
		case []string, []interface{}:
		default:
			return fmt.Errorf("field '%s' must be a slice of strings, got %s", key, actualType.Kind())
		}

	default:
		return fmt.Errorf("unknown validation type: %s", expectedType)
	}

	return nil
}

func parseBoolStrict(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "1", "t", "true":
		return true, nil
	case "0", "f", "false":
		return false, nil
	}
	return false, fmt.Errorf("not a boolean: %s", s)
}

func validatePattern(key string, value interface{}, pattern string) error {
	strValue, ok := value.(string)
	if !ok {
		return fmt.Errorf("field '%s' pattern validation requires string value", key)
	}

	regex, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("invalid regex pattern for field '%s': %w", key, err)
	}

	if !regex.MatchString(strValue) {
		return fmt.Errorf("field '%s' value '%s' does not match pattern '%s'", key, strValue, pattern)
	}
	return nil
}
