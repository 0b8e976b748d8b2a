// Package template resolves {{field}} placeholders against a workflow data context.
package template

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var placeholderRe = regexp.MustCompile(`\{\{\s*([^{}\s]+)\s*\}\}`)

// Placeholders returns the distinct placeholder expressions in order of first use.
func Placeholders(input string) []string {
	matches := placeholderRe.FindAllStringSubmatch(input, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(matches))
	fields := make([]string, 0, len(matches))

	for _, match := range matches {
		if seen[match[1]] {
			continue
		}

		seen[match[1]] = true
		fields = append(fields, match[1])
	}

	return fields
}

// RootField returns the top-level data field an expression reads: "user.name" -> "user".
func RootField(expr string) string {
	root, _, _ := strings.Cut(expr, ".")

	return root
}

// Render substitutes every placeholder found in data. A placeholder whose field is
// absent is replaced by nothing and reported in missing; rendering never fails.
func Render(input string, data map[string]any) (string, []string) {
	var missing []string

	seenMissing := make(map[string]bool)

	rendered := placeholderRe.ReplaceAllStringFunc(input, func(match string) string {
		expr := placeholderRe.FindStringSubmatch(match)[1]

		value, ok := Lookup(data, expr)
		if !ok {
			if !seenMissing[expr] {
				seenMissing[expr] = true
				missing = append(missing, expr)
			}

			return ""
		}

		return stringify(value)
	})

	return rendered, missing
}

// Lookup walks a dotted path through nested objects.
func Lookup(data map[string]any, expr string) (any, bool) {
	var current any = data

	for _, segment := range strings.Split(expr, ".") {
		object, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}

		current, ok = object[segment]
		if !ok {
			return nil, false
		}
	}

	return current, true
}

func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprint(value)
	}

	return string(encoded)
}
