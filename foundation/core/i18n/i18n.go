// File: i18n.go
// Title: Core Internationalization Implementation
// Description: Implements the i18n Manager which loads message catalogs from
//              TOML and YAML files and renders them as text templates with
//              locale fallback and pluralization.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-25
// Modified: 2026-10-15
//
// Change History:
// - 2025-01-25 v0.1.0: Initial implementation with TOML/YAML support
// - 2025-07-26 v0.1.1: Fixed template cache collision issue in pluralization,
//                       improved cache key uniqueness for plural forms
// - 2026-10-15 v0.2.0: Embedded default catalogs, fs.FS loading, per-call locale,
//                       template cache guarded by its own mutex, language fallback

package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"sync"
	"text/template"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	bverror "github.com/msto63/beanval/foundation/core/error"
)

//go:embed locales/*
var builtinLocales embed.FS

// Options defines configuration options for the i18n manager
type Options struct {
	DefaultLocale   string // Default locale (default "en")
	LocalesDir      string // Directory whose catalogs overlay the built-in ones
	FS              fs.FS  // Alternative source for catalogs, takes precedence over LocalesDir
	DisableBuiltin  bool   // Skip the embedded catalogs
	DisableFallback bool   // Do not fall back to the default locale
}

// TranslationData represents the structure of a translation file
type TranslationData map[string]interface{}

// Manager holds message catalogs for several locales
type Manager struct {
	mu            sync.RWMutex
	defaultLocale string
	currentLocale string
	fallback      bool
	translations  map[string]TranslationData

	tmplMu    sync.Mutex
	templates map[string]*template.Template
}

// New creates a manager, loading the built-in catalogs and then the catalogs
// found in options.FS or options.LocalesDir on top of them.
func New(options Options) (*Manager, error) {
	if strings.TrimSpace(options.DefaultLocale) == "" {
		options.DefaultLocale = "en"
	}

	m := &Manager{
		defaultLocale: options.DefaultLocale,
		currentLocale: options.DefaultLocale,
		fallback:      !options.DisableFallback,
		translations:  make(map[string]TranslationData),
		templates:     make(map[string]*template.Template),
	}

	if !options.DisableBuiltin {
		sub, err := fs.Sub(builtinLocales, "locales")
		if err != nil {
			return nil, bverror.Wrap(err, "failed to open built-in catalogs").
				WithCode(bverror.CodeInternal).
				WithOperation("i18n.New")
		}
		if err := m.loadFS(sub); err != nil {
			return nil, err
		}
	}

	source := options.FS
	if source == nil && options.LocalesDir != "" {
		if info, err := os.Stat(options.LocalesDir); err != nil || !info.IsDir() {
			return nil, bverror.New("locales directory not found").
				WithCode(bverror.CodeNotFound).
				WithOperation("i18n.New").
				WithDetail("directory", options.LocalesDir)
		}
		source = os.DirFS(options.LocalesDir)
	}
	if source != nil {
		if err := m.loadFS(source); err != nil {
			return nil, err
		}
	}

	if _, ok := m.translations[m.defaultLocale]; !ok {
		return nil, bverror.New(fmt.Sprintf("default locale '%s' not found", m.defaultLocale)).
			WithCode(bverror.CodeNotFound).
			WithOperation("i18n.New").
			WithDetail("locale", m.defaultLocale)
	}
	return m, nil
}

// loadFS reads every catalog at the root of fsys. The locale is the file
// name without extension.
func (m *Manager) loadFS(fsys fs.FS) error {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return bverror.Wrap(err, "failed to read locales").
			WithCode(bverror.CodeConfigError).
			WithOperation("i18n.loadFS")
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := strings.ToLower(path.Ext(name))
		if ext != ".toml" && ext != ".yaml" && ext != ".yml" {
			continue
		}
		locale := ParseLocaleFromFilename(name)
		if locale == "" {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return bverror.Wrap(err, "failed to read locale file").
				WithCode(bverror.CodeConfigError).
				WithOperation("i18n.loadFS").
				WithDetail("file", name)
		}
		data, err := parseCatalog(content, ext)
		if err != nil {
			return bverror.Wrap(err, "failed to parse locale file").
				WithCode(bverror.CodeInvalidConfig).
				WithOperation("i18n.loadFS").
				WithDetail("file", name)
		}
		m.AddTranslations(locale, data)
	}
	return nil
}

func parseCatalog(content []byte, ext string) (TranslationData, error) {
	var data map[string]interface{}
	var err error
	if ext == ".toml" {
		err = toml.Unmarshal(content, &data)
	} else {
		err = yaml.Unmarshal(content, &data)
	}
	return data, err
}

// AddTranslations merges data into the catalog of locale. Existing keys are
// overwritten, nested tables are merged.
func (m *Manager) AddTranslations(locale string, data map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing := m.translations[locale]
	if existing == nil {
		existing = make(TranslationData)
		m.translations[locale] = existing
	}
	mergeInto(existing, data)

	m.tmplMu.Lock()
	for key := range m.templates {
		if strings.HasPrefix(key, locale+"|") {
			delete(m.templates, key)
		}
	}
	m.tmplMu.Unlock()
}

func mergeInto(dst, src map[string]interface{}) {
	for k, v := range src {
		if srcMap, ok := asMap(v); ok {
			if dstMap, ok := asMap(dst[k]); ok {
				mergeInto(dstMap, srcMap)
				continue
			}
			copied := make(map[string]interface{}, len(srcMap))
			mergeInto(copied, srcMap)
			dst[k] = copied
			continue
		}
		dst[k] = v
	}
}

func asMap(v interface{}) (map[string]interface{}, bool) {
	switch m := v.(type) {
	case map[string]interface{}:
		return m, true
	case TranslationData:
		return m, true
	}
	return nil, false
}

// T translates a key in the current locale with optional template data
func (m *Manager) T(key string, data ...map[string]interface{}) string {
	translation, _ := m.TryT(key, data...)
	return translation
}

// TryT translates a key in the current locale and reports missing keys
func (m *Manager) TryT(key string, data ...map[string]interface{}) (string, error) {
	return m.TryTIn(m.GetCurrentLocale(), key, data...)
}

// TryTIn translates a key in the given locale, falling back to the default
// locale when enabled.
func (m *Manager) TryTIn(locale, key string, data ...map[string]interface{}) (string, error) {
	m.mu.RLock()
	translation, resolved := m.getTranslation(key, locale)
	m.mu.RUnlock()

	if translation == "" {
		return "", bverror.New("translation not found").
			WithCode(bverror.CodeNotFound).
			WithOperation("i18n.TryT").
			WithDetail("key", key).
			WithDetail("locale", locale)
	}

	if len(data) > 0 && data[0] != nil {
		rendered, err := m.renderTemplate(resolved+"|"+key, translation, data[0])
		if err != nil {
			return translation, bverror.Wrap(err, "template rendering failed").
				WithCode(bverror.CodeInvalidInput).
				WithOperation("i18n.renderTemplate").
				WithDetail("key", key)
		}
		return rendered, nil
	}
	return translation, nil
}

// Plural returns the plural form matching count, rendered with data
func (m *Manager) Plural(key string, count int, data map[string]interface{}) string {
	m.mu.RLock()
	locale := m.currentLocale
	rawValue := getNestedRawValue(m.translations[locale], key)
	if rawValue == nil && m.fallback {
		locale = m.defaultLocale
		rawValue = getNestedRawValue(m.translations[locale], key)
	}
	m.mu.RUnlock()

	if rawValue == nil {
		return fmt.Sprintf("[%s]", key)
	}

	forms := parsePluralForms(rawValue)
	formIndex := pluralFormIndex(count, locale)
	if formIndex >= len(forms) {
		formIndex = len(forms) - 1
	}
	selected := forms[formIndex]

	if data == nil {
		data = map[string]interface{}{}
	}
	if _, ok := data["count"]; !ok {
		data["count"] = count
	}
	rendered, err := m.renderTemplate(fmt.Sprintf("%s|%s_plural_%d", locale, key, formIndex), selected, data)
	if err != nil {
		return selected
	}
	return rendered
}

// getTranslation returns the message and the locale it was found in
func (m *Manager) getTranslation(key, locale string) (string, string) {
	if value := getNestedValue(m.translations[locale], key); value != "" {
		return value, locale
	}
	if language, country := SplitLocale(locale); country != "" {
		if value := getNestedValue(m.translations[language], key); value != "" {
			return value, language
		}
	}
	if m.fallback && locale != m.defaultLocale {
		if value := getNestedValue(m.translations[m.defaultLocale], key); value != "" {
			return value, m.defaultLocale
		}
	}
	return "", ""
}

func getNestedValue(data map[string]interface{}, key string) string {
	switch v := getNestedRawValue(data, key).(type) {
	case nil:
		return ""
	case []interface{}:
		if len(v) > 0 {
			return fmt.Sprintf("%v", v[0])
		}
		return ""
	case map[string]interface{}, TranslationData:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

func getNestedRawValue(data map[string]interface{}, key string) interface{} {
	if data == nil {
		return nil
	}
	keys := strings.Split(key, ".")
	current := data
	for i, k := range keys {
		if i == len(keys)-1 {
			return current[k]
		}
		next, ok := asMap(current[k])
		if !ok {
			return nil
		}
		current = next
	}
	return nil
}

func (m *Manager) renderTemplate(cacheKey, text string, data map[string]interface{}) (string, error) {
	m.tmplMu.Lock()
	tmpl, ok := m.templates[cacheKey]
	if !ok {
		var err error
		tmpl, err = template.New(cacheKey).Parse(text)
		if err != nil {
			m.tmplMu.Unlock()
			return text, fmt.Errorf("template compilation failed: %w", err)
		}
		m.templates[cacheKey] = tmpl
	}
	m.tmplMu.Unlock()

	var result strings.Builder
	if err := tmpl.Execute(&result, data); err != nil {
		return text, fmt.Errorf("template execution failed: %w", err)
	}
	return result.String(), nil
}

func parsePluralForms(value interface{}) []string {
	if arr, ok := value.([]interface{}); ok && len(arr) > 0 {
		forms := make([]string, len(arr))
		for i, v := range arr {
			forms[i] = fmt.Sprintf("%v", v)
		}
		return forms
	}
	return []string{fmt.Sprintf("%v", value)}
}

// pluralFormIndex applies simplified plural rules: French treats zero as
// singular, the other supported languages only one.
func pluralFormIndex(count int, locale string) int {
	if strings.HasPrefix(locale, "fr") {
		if count <= 1 {
			return 0
		}
		return 1
	}
	if count == 1 {
		return 0
	}
	return 1
}

// SetLocale changes the current locale
func (m *Manager) SetLocale(locale string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.translations[locale]; !exists {
		return bverror.New("locale not available").
			WithCode(bverror.CodeNotFound).
			WithOperation("i18n.SetLocale").
			WithDetail("locale", locale)
	}
	m.currentLocale = locale
	return nil
}

// GetCurrentLocale returns the current active locale
func (m *Manager) GetCurrentLocale() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentLocale
}

// GetAvailableLocales returns a sorted list of all loaded locales
func (m *Manager) GetAvailableLocales() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	locales := make([]string, 0, len(m.translations))
	for locale := range m.translations {
		locales = append(locales, locale)
	}
	sort.Strings(locales)
	return locales
}

// HasLocale checks if a locale is available
func (m *Manager) HasLocale(locale string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, exists := m.translations[locale]
	return exists
}

// String provides a readable representation of the manager
func (m *Manager) String() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return fmt.Sprintf("i18n.Manager{defaultLocale: %s, currentLocale: %s, fallback: %t, locales: %d}",
		m.defaultLocale, m.currentLocale, m.fallback, len(m.translations))
}
