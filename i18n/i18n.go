// Package i18n resolves localized strings, addressed by a key and the
// namespace (plugin component) that owns it.
package i18n

import (
	"errors"
	"fmt"
)

// ErrMissingString is returned when a key is not defined in a namespace.
var ErrMissingString = errors.New("i18n: missing string")

// Translator looks up the localized string for key in namespace.
type Translator interface {
	String(key, namespace string) (string, error)
}

// TranslatorFunc is a functional implementation of the Translator interface.
type TranslatorFunc func(key, namespace string) (string, error)

// String implements the i18n.Translator interface.
func (fn TranslatorFunc) String(key, namespace string) (string, error) { return fn(key, namespace) }

// Table is a static Translator, keyed by namespace then by key.
type Table map[string]map[string]string

// String implements the i18n.Translator interface.
func (t Table) String(key, namespace string) (string, error) {
	value, ok := t[namespace][key]
	if !ok {
		return "", missingString(key, namespace)
	}

	return value, nil
}

func missingString(key, namespace string) error {
	return fmt.Errorf("%w, [%s] %s", ErrMissingString, key, namespace)
}
