// Package strings provides string helpers shared by the domain packages.
package strings

import (
	"strings"
)

// NoteSeparator joins entries of an append-only comment log.
const NoteSeparator = " | "

// DedupeAndTrim removes duplicates and blank entries from a slice, trimming
// whitespace from each element. Order is preserved.
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	return result
}

// AppendNote adds a prefixed note to an existing comment log. A blank note
// leaves the log untouched.
//
//	AppendNote("Agent: low risk", "Manual Approval: ", "docs ok")
//	// "Agent: low risk | Manual Approval: docs ok"
func AppendNote(existing, prefix, note string) string {
	note = strings.TrimSpace(note)
	if note == "" {
		return existing
	}
	entry := prefix + note
	if strings.TrimSpace(existing) == "" {
		return entry
	}
	return existing + NoteSeparator + entry
}

// FirstNonBlank returns the first value that is not blank after trimming.
func FirstNonBlank(values ...string) string {
	for _, v := range values {
		if t := strings.TrimSpace(v); t != "" {
			return t
		}
	}
	return ""
}
