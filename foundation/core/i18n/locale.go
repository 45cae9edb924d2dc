// File: locale.go
// Title: Locale Detection and Management Implementation
// Description: Implements locale detection from Accept-Language style
//              preference lists and POSIX locale environment variables.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-25
// Modified: 2026-10-15
//
// Change History:
// - 2025-01-25 v0.1.0: Initial implementation of locale detection
// - 2026-10-15 v0.2.0: Environment detection, display name tables removed

package i18n

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	bverror "github.com/msto63/beanval/foundation/core/error"
)

// LocalePreference represents a locale preference with quality score
type LocalePreference struct {
	Locale  string  // Locale code (e.g., "en", "en-US", "de-DE")
	Quality float64 // Quality score (0.0 - 1.0)
}

// DetectLocale detects the best matching locale from Accept-Language header
func (m *Manager) DetectLocale(acceptLanguage string) string {
	if isBlank(acceptLanguage) {
		return m.defaultLocale
	}

	// Parse Accept-Language header
	preferences := parseAcceptLanguage(acceptLanguage)
	if len(preferences) == 0 {
		return m.defaultLocale
	}

	// Get available locales
	availableLocales := m.GetAvailableLocales()
	
	// Find best match
	bestMatch := m.findBestLocaleMatch(preferences, availableLocales)
	if bestMatch != "" {
		return bestMatch
	}

	return m.defaultLocale
}

// parseAcceptLanguage parses an Accept-Language header into locale preferences
func parseAcceptLanguage(acceptLang string) []LocalePreference {
	var preferences []LocalePreference

	// Split by comma and process each language tag
	parts := strings.Split(acceptLang, ",")
	
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if isBlank(part) {
			continue
		}

		// Parse language tag and quality value
		// Format: "en-US;q=0.9" or "en;q=0.8" or "de"
		var locale string
		var quality float64 = 1.0 // Default quality

		if strings.Contains(part, ";") {
			// Has quality value
			subParts := strings.Split(part, ";")
			locale = strings.TrimSpace(subParts[0])
			
			// Parse quality value
			for _, subPart := range subParts[1:] {
				subPart = strings.TrimSpace(subPart)
				if strings.HasPrefix(subPart, "q=") {
					qValue := strings.TrimPrefix(subPart, "q=")
					if q, err := strconv.ParseFloat(qValue, 64); err == nil {
						quality = q
					}
					break
				}
			}
		} else {
			// No quality value
			locale = part
		}

		if locale != "" {
			preferences = append(preferences, LocalePreference{
				Locale:  locale,
				Quality: quality,
			})
		}
	}

	// Sort by quality (highest first)
	sort.SliceStable(preferences, func(i, j int) bool {
		return preferences[i].Quality > preferences[j].Quality
	})

	return preferences
}

// findBestLocaleMatch finds the best matching locale from available locales
func (m *Manager) findBestLocaleMatch(preferences []LocalePreference, availableLocales []string) string {
	// Create sets for faster lookup
	availableSet := make(map[string]bool, len(availableLocales))
	availableBaseLangs := make(map[string]string) // base language -> full locale
	
	for _, locale := range availableLocales {
		availableSet[locale] = true
		
		// Extract base language (e.g., "en-US" -> "en")
		baseLang := strings.Split(locale, "-")[0]
		if _, exists := availableBaseLangs[baseLang]; !exists {
			availableBaseLangs[baseLang] = locale
		}
	}

	// Try to match preferences in order of quality
	for _, pref := range preferences {
		locale := strings.ToLower(pref.Locale)
		
		// 1. Try exact match
		if availableSet[locale] {
			return locale
		}

		// 2. Try case-insensitive exact match
		for _, available := range availableLocales {
			if strings.EqualFold(locale, available) {
				return available
			}
		}

		// 3. Try base language match (e.g., "en-US" matches "en")
		baseLang := strings.Split(locale, "-")[0]
		if fullLocale, exists := availableBaseLangs[baseLang]; exists {
			return fullLocale
		}

		// 4. Try prefix match (e.g., "en" matches "en-US")
		for _, available := range availableLocales {
			if strings.HasPrefix(strings.ToLower(available), baseLang+"-") {
				return available
			}
		}
	}

	return ""
}

// NormalizeLocale normalizes a locale string to standard format
func NormalizeLocale(locale string) string {
	if isBlank(locale) {
		return ""
	}

	// Convert to lowercase for processing
	locale = strings.ToLower(locale)
	
	// Handle common separators
	locale = strings.ReplaceAll(locale, "_", "-")
	
	// Split into parts
	parts := strings.Split(locale, "-")
	if len(parts) == 0 {
		return ""
	}

	// Language code (lowercase)
	language := parts[0]
	if len(language) != 2 && len(language) != 3 {
		return ""
	}

	// Country code (uppercase if present)
	if len(parts) > 1 && len(parts[1]) == 2 {
		country := strings.ToUpper(parts[1])
		return language + "-" + country
	}

	return language
}

// ValidateLocale validates if a locale string is in valid format
func ValidateLocale(locale string) error {
	if isBlank(locale) {
		return bverror.New("locale cannot be empty").WithCode(bverror.CodeInvalidInput).WithOperation("i18n.ValidateLocale")
	}

	normalized := NormalizeLocale(locale)
	if isBlank(normalized) {
		return bverror.New("invalid locale format").WithCode(bverror.CodeInvalidInput).WithOperation("i18n.ValidateLocale").WithDetail("locale", locale).WithDetail("expected_format", "e.g., 'en', 'en-US'")
	}

	return nil
}

// SplitLocale splits a locale into language and country parts
func SplitLocale(locale string) (language, country string) {
	normalized := NormalizeLocale(locale)
	if isBlank(normalized) {
		return "", ""
	}

	parts := strings.Split(normalized, "-")
	language = parts[0]
	
	if len(parts) > 1 {
		country = parts[1]
	}

	return language, country
}

// ParseLocaleFromFilename extracts locale from a filename
func ParseLocaleFromFilename(filename string) string {
	// Remove file extension
	name := strings.TrimSuffix(filename, filepath.Ext(filename))
	
	// Convert underscores back to hyphens
	locale := strings.ReplaceAll(name, "_", "-")
	
	return NormalizeLocale(locale)
}

// LocaleFromEnvironment returns the locale named by LC_ALL, LC_MESSAGES or
// LANG, normalized. "de_DE.UTF-8" becomes "de-DE". The POSIX locales "C"
// and "POSIX" yield "".
func LocaleFromEnvironment() string {
	for _, name := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		value := os.Getenv(name)
		if value == "" {
			continue
		}
		if i := strings.IndexAny(value, ".@"); i >= 0 {
			value = value[:i]
		}
		if value == "C" || value == "POSIX" {
			return ""
		}
		return NormalizeLocale(value)
	}
	return ""
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
