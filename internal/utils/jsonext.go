package utils

import (
	"encoding/json"
	"strings"
)

// ParseJSONObject parses text as a single JSON object, returning an empty
// map on any failure. Model output is not guaranteed to be JSON; callers
// treat the parsed form as best-effort and keep the raw text regardless.
func ParseJSONObject(text string) map[string]interface{} {
	t := strings.TrimSpace(text)
	if t == "" {
		return map[string]interface{}{}
	}
	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(t), &obj); err != nil || obj == nil {
		return map[string]interface{}{}
	}
	return obj
}

// FirstJSONArray extracts the first complete top-level JSON array from model
// output, tolerating markdown fences and surrounding prose. Returns the raw
// array text and whether one was found.
func FirstJSONArray(text string) (string, bool) {
	t := strings.TrimSpace(text)
	if t == "" {
		return "", false
	}
	// Prefer the contents of a fenced block when present.
	if i := strings.Index(t, "```"); i >= 0 {
		rest := t[i+3:]
		rest = strings.TrimPrefix(rest, "json")
		if j := strings.Index(rest, "```"); j >= 0 {
			if raw, ok := sliceJSONArray(strings.TrimSpace(rest[:j])); ok {
				return raw, true
			}
		}
	}
	return sliceJSONArray(t)
}

// sliceJSONArray scans for a bracket-balanced array, skipping brackets
// inside string literals, and validates the slice before returning it.
func sliceJSONArray(t string) (string, bool) {
	start := strings.Index(t, "[")
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(t); i++ {
		ch := t[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				candidate := t[start : i+1]
				if json.Valid([]byte(candidate)) {
					return candidate, true
				}
				return "", false
			}
		}
	}
	return "", false
}
