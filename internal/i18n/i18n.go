// Copyright (c) 2025 Latchkey Authors
// Latchkey - typestate password vault
// This source code is licensed under the MIT license found in the LICENSE file.

// package i18n provides internationalization and localization support for
// Latchkey. It uses the go-i18n library to load and manage translation
// files, allowing the user interface to be displayed in multiple languages.
package i18n

import (
	"embed"
	"io/fs"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// localeFS embeds the YAML translation files from the 'locales' directory
// into the application binary.
//
//go:embed locales/*.yaml
var localeFS embed.FS

// bundle stores all the loaded translation messages from the locale files.
var bundle *i18n.Bundle

// localizer is used to translate messages into a specific language.
var localizer *i18n.Localizer

// currentLang is the language tag the localizer was built for.
var currentLang string

// Init initializes the i18n bundle and sets up the localizer for a specific
// language. It parses all embedded YAML files from the 'locales' directory.
func Init(lang string) {
	bundle = i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("yaml", yaml.Unmarshal)

	files, _ := fs.ReadDir(localeFS, "locales")
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		data, _ := localeFS.ReadFile("locales/" + f.Name())
		bundle.ParseMessageFileBytes(data, f.Name())
	}

	localizer = i18n.NewLocalizer(bundle, lang)
	currentLang = lang
}

// GetLang returns the language tag the localizer is currently using.
func GetLang() string {
	return currentLang
}

// AvailableLocales maps the embedded locale tags to display names.
func AvailableLocales() map[string]string {
	return map[string]string{
		"en": "English",
		"de": "Deutsch",
	}
}

// T is a convenience function to translate a message by its ID. Extra
// arguments are applied with Sprintf-style formatting by the caller's
// message templates. If the i18n system has not been initialized, it
// defaults to English. If a translation for the given ID is not found, it
// returns the ID itself.
func T(messageID string, args ...any) string {
	if localizer == nil {
		Init("en")
	}
	cfg := &i18n.LocalizeConfig{MessageID: messageID}
	if len(args) > 0 {
		data := make(map[string]any, len(args))
		for i, a := range args {
			data[argNames[i%len(argNames)]] = a
		}
		cfg.TemplateData = data
	}
	msg, err := localizer.Localize(cfg)
	if err != nil {
		// If the message ID is not found, go-i18n returns an error.
		// In this case, we return the message ID itself as a fallback.
		return messageID
	}
	return msg
}

// argNames are the template keys positional T arguments bind to, in order.
var argNames = []string{"Arg0", "Arg1", "Arg2", "Arg3"}

// SetLang changes the active language of the localizer.
func SetLang(lang string) {
	Init(lang)
}
