// Copyright (c) 2023-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package playbook

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portwarden/portwarden/roster"
)

func newTestSanitizer() *Sanitizer {
	return NewSanitizer(roster.DefaultResolver())
}

const fencedPlaybook = "```json\n" +
	`{"importantSafetyNotes":["Wear PPE"],` +
	`"actionSteps":[{"stepTitle":"Check queue","executionContext":"database","procedure":["Run SELECT"]}],` +
	`"verificationSteps":["Confirm queue empty"],` +
	`"checklists":[{"title":"Ready","items":["Verified"]}],` +
	`"escalationPlan":{"category":"EDI/API","primaryContact":{"email":"tom.tan@psa123.com"},"summary":"Resolved"},` +
	`"aiDescription":"Summary"}` + "\n```"

func TestParsePlaybook_FencedValidPayload(t *testing.T) {
	payload, err := newTestSanitizer().ParsePlaybook(fencedPlaybook)
	require.NoError(t, err)

	assert.Equal(t, []string{"Wear PPE"}, payload.ImportantSafetyNotes)
	require.Len(t, payload.ActionSteps, 1)
	assert.Equal(t, "Check queue", payload.ActionSteps[0].StepTitle)
	assert.Equal(t, "database", payload.ActionSteps[0].ExecutionContext)
	assert.Equal(t, []string{"Run SELECT"}, payload.ActionSteps[0].Procedure)
	assert.Equal(t, []string{"Confirm queue empty"}, payload.VerificationSteps)
	require.Len(t, payload.Checklists, 1)
	assert.Equal(t, "Ready", payload.Checklists[0].Title)
	assert.Equal(t, "Summary", payload.AIDescription)

	// Roster resolution by email fills in the canonical code and contact.
	require.NotNil(t, payload.EscalationPlan)
	assert.Equal(t, "EA", payload.EscalationPlan.CategoryCode)
	assert.Equal(t, "Tom Tan", payload.EscalationPlan.PrimaryContact.Name)
}

func TestParsePlaybook_EmptyActionStepsFailsClosed(t *testing.T) {
	var data map[string]any
	require.NoError(t, json.Unmarshal([]byte(StripJSONFences(fencedPlaybook)), &data))
	data["actionSteps"] = []any{}
	raw, err := json.Marshal(data)
	require.NoError(t, err)

	_, err = newTestSanitizer().ParsePlaybook(string(raw))
	var serr *SanitizeError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, ErrorMissingFields, serr.Kind)
}

func TestParsePlaybook_NotJSON(t *testing.T) {
	_, err := newTestSanitizer().ParsePlaybook("not json at all")
	var serr *SanitizeError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, ErrorInvalidJSON, serr.Kind)
}

func TestSanitizePlaybookObject_NonObject(t *testing.T) {
	s := newTestSanitizer()

	for _, value := range []any{nil, "scalar", 12.0, []any{"array"}} {
		_, err := s.SanitizePlaybookObject(value)
		var serr *SanitizeError
		require.ErrorAs(t, err, &serr, "value %v", value)
		assert.Equal(t, ErrorInvalidStructure, serr.Kind)
	}
}

func TestSanitizePlaybookObject_DropsMalformedElements(t *testing.T) {
	raw := `{
		"importantSafetyNotes": ["Keep clear", "", 42],
		"actionSteps": [
			{"stepTitle": "Good step", "executionContext": "shell", "procedure": ["run it"]},
			{"stepTitle": "", "executionContext": "shell", "procedure": ["missing title"]},
			{"stepTitle": "No procedure", "executionContext": "api", "procedure": []},
			"not an object",
			{"stepTitle": "With items", "executionContext": "console", "procedure": "one\ntwo", "checklistItems": ["tick"]}
		],
		"verificationSteps": ["check output"],
		"checklists": [
			{"title": "Ready", "items": ["ok"]},
			{"title": "", "items": ["dropped"]},
			{"title": "No items", "items": []}
		],
		"escalationPlan": {"categoryCode": "EA", "summary": "All good"},
		"aiDescription": "- Bullet description"
	}`

	payload, err := newTestSanitizer().ParsePlaybook(raw)
	require.NoError(t, err)

	assert.Equal(t, []string{"Keep clear"}, payload.ImportantSafetyNotes)

	require.Len(t, payload.ActionSteps, 2)
	assert.Equal(t, "Good step", payload.ActionSteps[0].StepTitle)
	assert.Equal(t, "With items", payload.ActionSteps[1].StepTitle)
	assert.Equal(t, []string{"one", "two"}, payload.ActionSteps[1].Procedure)
	assert.Equal(t, []string{"tick"}, payload.ActionSteps[1].ChecklistItems)

	require.Len(t, payload.Checklists, 1)
	assert.Equal(t, "Ready", payload.Checklists[0].Title)

	assert.Equal(t, "Bullet description", payload.AIDescription)

	// Code-only escalation resolves to the roster entry.
	require.NotNil(t, payload.EscalationPlan)
	assert.Equal(t, "EDI/API", payload.EscalationPlan.Category)
	assert.Equal(t, "tom.tan@psa123.com", payload.EscalationPlan.PrimaryContact.Email)
}

func TestSanitizePlaybookObject_AIDescriptionAlias(t *testing.T) {
	var data map[string]any
	require.NoError(t, json.Unmarshal([]byte(StripJSONFences(fencedPlaybook)), &data))
	delete(data, "aiDescription")
	data["summarySynopsis"] = "Alias description"
	raw, err := json.Marshal(data)
	require.NoError(t, err)

	payload, perr := newTestSanitizer().ParsePlaybook(string(raw))
	require.NoError(t, perr)
	assert.Equal(t, "Alias description", payload.AIDescription)
}

func TestStripJSONFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, StripJSONFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripJSONFences("```JSON {\"a\":1}```"))
	assert.Equal(t, `{"a":1}`, StripJSONFences(`{"a":1}`))
	assert.Equal(t, "", StripJSONFences("   "))
}
