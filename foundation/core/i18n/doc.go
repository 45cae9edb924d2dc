// File: doc.go
// Title: Internationalization (i18n) Package Documentation
// Description: Package i18n stores localized message catalogs and renders
//              them as text templates.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-25
// Modified: 2026-10-15
//
// Change History:
// - 2025-01-25 v0.1.0: Initial implementation with TOML/YAML support
// - 2026-10-15 v0.2.0: Embedded constraint message catalogs

/*
Package i18n provides localized message catalogs.

Catalogs are TOML or YAML files named after their locale (en.toml,
de-DE.yaml). English and German catalogs for the built-in constraint kinds
are embedded; files from Options.LocalesDir are merged over them so a
deployment can override single messages:

	m, err := i18n.New(i18n.Options{DefaultLocale: "en", LocalesDir: "./messages"})
	if err != nil {
		return err
	}

	msg, err := m.TryTIn("de", "constraint.maxValue", map[string]interface{}{"max": 10})
	// "muss kleiner oder gleich 10 sein"

Messages are text/template sources. Lookups that miss in the requested locale fall back to the
default locale unless Options.DisableFallback is set.

Plural selects between the forms of an array valued message:

	m.Plural("report.violations", 2, nil) // "2 violations"

DetectLocale matches an Accept-Language style preference list against the
loaded locales and LocaleFromEnvironment reads LC_ALL, LC_MESSAGES and LANG.
*/
package i18n
