// Package jsonpath evaluates simple JSONPath expressions against parsed API
// responses.
package jsonpath

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tidwall/gjson"
)

// Extract evaluates a JSONPath expression such as $.report.metrics[0].id or
// $.report_suites[*].rsid against body.
func Extract(body gjson.Result, path string) (gjson.Result, error) {
	if !body.Exists() {
		return gjson.Result{}, fmt.Errorf("empty JSON document")
	}

	if strings.TrimSpace(path) == "" {
		return gjson.Result{}, fmt.Errorf("empty JSONPath expression")
	}

	result := body.Get(convertToGjsonPath(path))
	if !result.Exists() {
		return gjson.Result{}, fmt.Errorf("path not found: %s", path)
	}

	return result, nil
}

// ExtractString is Extract for callers that only need the text form. A JSON
// null is returned as "null".
func ExtractString(body gjson.Result, path string) (string, error) {
	result, err := Extract(body, path)
	if err != nil {
		return "", err
	}

	if result.Type == gjson.Null {
		return "null", nil
	}

	return result.String(), nil
}

// ExtractMultiple evaluates several named expressions. Values that could be
// extracted are returned even when others fail.
func ExtractMultiple(body gjson.Result, paths map[string]string) (map[string]gjson.Result, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no JSONPath expressions provided")
	}

	names := make([]string, 0, len(paths))
	for name := range paths {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make(map[string]gjson.Result, len(paths))
	var errors []string

	for _, name := range names {
		value, err := Extract(body, paths[name])
		if err != nil {
			errors = append(errors, fmt.Sprintf("%s: %v", name, err))
			continue
		}
		results[name] = value
	}

	if len(errors) > 0 {
		return results, fmt.Errorf("extraction errors: %s", strings.Join(errors, "; "))
	}

	return results, nil
}

// convertToGjsonPath converts a JSONPath expression to a gjson path.
//
//	$                     -> @this
//	$.users[0].name       -> users.0.name
//	$['report']["data"]   -> report.data
//	$.suites[*].rsid      -> suites.#.rsid
func convertToGjsonPath(path string) string {
	path = strings.TrimSpace(path)
	path = strings.TrimPrefix(path, "$")
	path = strings.TrimPrefix(path, ".")

	if path == "" {
		return "@this"
	}

	var parts []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			parts = append(parts, current.String())
			current.Reset()
		}
	}

	for i := 0; i < len(path); i++ {
		switch c := path[i]; c {
		case '.':
			flush()
		case '[':
			flush()
			end := strings.IndexByte(path[i:], ']')
			if end < 0 {
				current.WriteString(path[i+1:])
				i = len(path)
				continue
			}
			key := strings.Trim(path[i+1:i+end], `'"`)
			if key == "*" {
				key = "#"
			}
			parts = append(parts, key)
			i += end
		default:
			current.WriteByte(c)
		}
	}
	flush()

	return strings.Join(parts, ".")
}
