// Copyright (c) 2023-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package playbook

import (
	"regexp"
	"strings"
)

// The normalizers are total functions over decoded JSON values: a non-string
// where a string was expected degrades to the zero value, never an error.
// Partial LLM output should lose the bad element, not the whole response.

var (
	listMarkerRE  = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s*`)
	whitespaceRE  = regexp.MustCompile(`\s+`)
	blankRunsRE   = regexp.MustCompile(`\n{3,}`)
	newlineSplitRE = regexp.MustCompile(`\n+`)
)

const maxSubjectLength = 180

// NormalizeNarrative flattens prose to a single clean line: list markers are
// stripped per line, empty lines dropped, whitespace runs collapsed.
func NormalizeNarrative(value any) string {
	s, ok := value.(string)
	if !ok {
		return ""
	}
	lines := strings.Split(normalizeNewlines(s), "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(listMarkerRE.ReplaceAllString(line, ""))
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.TrimSpace(whitespaceRE.ReplaceAllString(strings.Join(kept, " "), " "))
}

// NormalizeHeading coerces a title or label to one compact line. Unlike
// NormalizeNarrative only the leading marker is stripped, since headings are
// single units rather than lists.
func NormalizeHeading(value any) string {
	s, ok := value.(string)
	if !ok {
		return ""
	}
	s = strings.ReplaceAll(strings.ReplaceAll(s, "\r\n", " "), "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	s = listMarkerRE.ReplaceAllString(s, "")
	return strings.TrimSpace(whitespaceRE.ReplaceAllString(s, " "))
}

// CoerceStringList accepts either an array of strings or a newline-separated
// string and yields normalized non-empty items. Anything else is empty.
func CoerceStringList(value any) []string {
	switch v := value.(type) {
	case []any:
		items := make([]string, 0, len(v))
		for _, item := range v {
			if normalized := NormalizeNarrative(item); normalized != "" {
				items = append(items, normalized)
			}
		}
		return items
	case string:
		parts := newlineSplitRE.Split(normalizeNewlines(v), -1)
		items := make([]string, 0, len(parts))
		for _, part := range parts {
			if normalized := NormalizeNarrative(part); normalized != "" {
				items = append(items, normalized)
			}
		}
		return items
	default:
		return []string{}
	}
}

func NormalizeEmail(value any) string {
	s, ok := value.(string)
	if !ok {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeSubject produces a heading capped at 180 characters, with a
// single ellipsis when truncated.
func NormalizeSubject(value any) string {
	subject := NormalizeHeading(value)
	runes := []rune(subject)
	if len(runes) > maxSubjectLength {
		return string(runes[:maxSubjectLength-3]) + "…"
	}
	return subject
}

// NormalizeMessage cleans an email-body style block while keeping paragraph
// structure: lines are trimmed, runs of blank lines collapse to one.
func NormalizeMessage(value any) string {
	s, ok := value.(string)
	if !ok {
		return ""
	}
	lines := strings.Split(normalizeNewlines(s), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			if len(out) > 0 && out[len(out)-1] != "" {
				out = append(out, "")
			}
			continue
		}
		out = append(out, line)
	}
	joined := blankRunsRE.ReplaceAllString(strings.Join(out, "\n"), "\n\n")
	return strings.TrimSpace(joined)
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
