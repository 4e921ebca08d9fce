// Copyright (c) 2025 Latchkey Authors
// Latchkey - typestate password vault
// This source code is licensed under the MIT license found in the LICENSE file.

// i18n-linter checks the locale files for consistency. It scans the Go
// source for i18n.T() calls, compares the used keys against the primary
// locale, and reports keys missing from the secondary locales.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	localesDir    = "internal/i18n/locales"
	primaryLocale = "active.en.yaml"
)

func main() {
	usedKeys, err := findUsedKeys(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "error scanning source: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("found %d translation keys in source\n", len(usedKeys))

	primaryKeys, err := loadKeysFromLocale(filepath.Join(localesDir, primaryLocale))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading %s: %v\n", primaryLocale, err)
		os.Exit(1)
	}

	failed := false

	// Keys used in code but absent from the primary locale are hard errors:
	// T() would fall back to printing the raw key.
	var missing []string
	for key := range usedKeys {
		if _, ok := primaryKeys[key]; !ok {
			missing = append(missing, key)
		}
	}
	sort.Strings(missing)
	for _, key := range missing {
		fmt.Printf("missing from %s: %s\n", primaryLocale, key)
		failed = true
	}

	// Keys in the primary locale that no code references are warnings.
	var orphaned []string
	for key := range primaryKeys {
		if _, ok := usedKeys[key]; !ok {
			orphaned = append(orphaned, key)
		}
	}
	sort.Strings(orphaned)
	for _, key := range orphaned {
		fmt.Printf("orphaned in %s: %s\n", primaryLocale, key)
	}

	// Secondary locales must cover every primary key.
	localeFiles, err := filepath.Glob(filepath.Join(localesDir, "*.yaml"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error listing locales: %v\n", err)
		os.Exit(1)
	}
	for _, file := range localeFiles {
		if filepath.Base(file) == primaryLocale {
			continue
		}
		secondaryKeys, err := loadKeysFromLocale(file)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error loading %s: %v\n", file, err)
			failed = true
			continue
		}
		var behind []string
		for key := range primaryKeys {
			if _, ok := secondaryKeys[key]; !ok {
				behind = append(behind, key)
			}
		}
		sort.Strings(behind)
		for _, key := range behind {
			fmt.Printf("missing from %s: %s\n", filepath.Base(file), key)
			failed = true
		}
	}

	if failed {
		os.Exit(1)
	}
	fmt.Println("all locale files are consistent")
}

// tCallRe matches the first argument of i18n.T("...") calls.
var tCallRe = regexp.MustCompile(`i18n\.T\("([^"]+)"`)

// findUsedKeys scans non-test .go files under root for i18n.T() calls.
func findUsedKeys(root string) (map[string]struct{}, error) {
	keys := make(map[string]struct{})
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() && (info.Name() == "tools" || strings.HasPrefix(info.Name(), "_")) {
			return filepath.SkipDir
		}
		if info.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		for _, match := range tCallRe.FindAllStringSubmatch(string(content), -1) {
			keys[match[1]] = struct{}{}
		}
		return nil
	})
	return keys, err
}

// loadKeysFromLocale flattens a locale YAML file into dotted key paths.
func loadKeysFromLocale(path string) (map[string]struct{}, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var data map[string]interface{}
	if err := yaml.Unmarshal(content, &data); err != nil {
		return nil, err
	}
	keys := make(map[string]struct{})
	flattenYAML("", data, keys)
	return keys, nil
}

func flattenYAML(prefix string, node map[string]interface{}, out map[string]struct{}) {
	for k, v := range node {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if child, ok := v.(map[string]interface{}); ok {
			flattenYAML(key, child, out)
			continue
		}
		out[key] = struct{}{}
	}
}
