// Copyright (c) 2023-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package playbook

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/portwarden/portwarden/roster"
)

type ErrorKind string

const (
	// ErrorInvalidJSON means the raw text failed to parse as JSON after
	// fence stripping.
	ErrorInvalidJSON ErrorKind = "INVALID_JSON"
	// ErrorInvalidStructure means the JSON parsed but is not an object.
	ErrorInvalidStructure ErrorKind = "INVALID_STRUCTURE"
	// ErrorMissingFields means a required section ended up empty after
	// per-element sanitization, or the escalation plan could not be
	// resolved.
	ErrorMissingFields ErrorKind = "MISSING_FIELDS"
)

// SanitizeError is a terminal failure for the current generation attempt.
// The caller must not persist anything from the response.
type SanitizeError struct {
	Kind ErrorKind
}

func (e *SanitizeError) Error() string {
	return "playbook sanitization failed: " + string(e.Kind)
}

var (
	openFenceRE  = regexp.MustCompile("(?i)^```json\\s*")
	closeFenceRE = regexp.MustCompile("(?i)```$")
)

// StripJSONFences removes a wrapping markdown ```json fence, if present.
// Schema-constrained responses arrive bare; free-form ones often do not.
func StripJSONFences(raw string) string {
	out := strings.TrimSpace(raw)
	out = openFenceRE.ReplaceAllString(out, "")
	out = closeFenceRE.ReplaceAllString(out, "")
	return strings.TrimSpace(out)
}

// Sanitizer reshapes loosely-typed decoded JSON into the strict playbook
// model, resolving escalation contacts against the injected roster.
type Sanitizer struct {
	roster *roster.Resolver
}

func NewSanitizer(resolver *roster.Resolver) *Sanitizer {
	return &Sanitizer{roster: resolver}
}

// ParsePlaybook decodes the raw LLM text and sanitizes it into a Payload.
// On failure the returned error is a *SanitizeError.
func (s *Sanitizer) ParsePlaybook(raw string) (*Payload, error) {
	cleaned := StripJSONFences(raw)
	var data any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, &SanitizeError{Kind: ErrorInvalidJSON}
	}
	return s.SanitizePlaybookObject(data)
}

// SanitizePlaybookObject sanitizes a decoded JSON value field by field.
// Malformed array elements are dropped silently; a required section that
// collapses to empty fails the whole payload.
func (s *Sanitizer) SanitizePlaybookObject(value any) (*Payload, error) {
	data, ok := value.(map[string]any)
	if !ok {
		return nil, &SanitizeError{Kind: ErrorInvalidStructure}
	}

	payload := &Payload{
		ImportantSafetyNotes: sanitizeStringArray(data["importantSafetyNotes"]),
		ActionSteps:          sanitizeActionSteps(data["actionSteps"]),
		VerificationSteps:    sanitizeStringArray(data["verificationSteps"]),
		Checklists:           sanitizeChecklists(data["checklists"]),
		EscalationPlan:       s.SanitizeEscalationPlan(data["escalationPlan"]),
		AIDescription:        NormalizeNarrative(firstPresent(data, "aiDescription", "summarySynopsis")),
	}

	if len(payload.ImportantSafetyNotes) == 0 ||
		len(payload.ActionSteps) == 0 ||
		len(payload.VerificationSteps) == 0 ||
		len(payload.Checklists) == 0 ||
		payload.EscalationPlan == nil ||
		payload.AIDescription == "" {
		return nil, &SanitizeError{Kind: ErrorMissingFields}
	}

	return payload, nil
}

func sanitizeStringArray(value any) []string {
	arr, ok := value.([]any)
	if !ok {
		return []string{}
	}
	items := make([]string, 0, len(arr))
	for _, item := range arr {
		if normalized := NormalizeNarrative(item); normalized != "" {
			items = append(items, normalized)
		}
	}
	return items
}

func sanitizeActionSteps(value any) []ActionStep {
	arr, ok := value.([]any)
	if !ok {
		return nil
	}
	steps := make([]ActionStep, 0, len(arr))
	for _, raw := range arr {
		entry, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		step := ActionStep{
			StepTitle:        NormalizeHeading(entry["stepTitle"]),
			ExecutionContext: NormalizeNarrative(entry["executionContext"]),
			Procedure:        CoerceStringList(entry["procedure"]),
		}
		// All-or-nothing: a step without a title, context and at least one
		// procedure line is dropped whole.
		if step.StepTitle == "" || step.ExecutionContext == "" || len(step.Procedure) == 0 {
			continue
		}
		if items := CoerceStringList(entry["checklistItems"]); len(items) > 0 {
			step.ChecklistItems = items
		}
		steps = append(steps, step)
	}
	return steps
}

func sanitizeChecklists(value any) []Checklist {
	arr, ok := value.([]any)
	if !ok {
		return nil
	}
	lists := make([]Checklist, 0, len(arr))
	for _, raw := range arr {
		entry, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		list := Checklist{
			Title: NormalizeHeading(entry["title"]),
			Items: CoerceStringList(entry["items"]),
		}
		if list.Title == "" || len(list.Items) == 0 {
			continue
		}
		list.RelatedStep = NormalizeHeading(entry["relatedStep"])
		lists = append(lists, list)
	}
	return lists
}

// firstPresent returns the first value among the aliased keys that exists.
func firstPresent(data map[string]any, keys ...string) any {
	for _, key := range keys {
		if v, ok := data[key]; ok && v != nil {
			return v
		}
	}
	return nil
}
