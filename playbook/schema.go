// Copyright (c) 2023-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package playbook

import "github.com/google/jsonschema-go/jsonschema"

// RequestSchema is the strict JSON schema sent with playbook generation
// requests so schema-capable providers constrain their output. The sanitizer
// enforces the non-emptiness rules itself, so the schema stays structural.
func RequestSchema() *jsonschema.Schema {
	stringArray := func() *jsonschema.Schema {
		return &jsonschema.Schema{
			Type:  "array",
			Items: &jsonschema.Schema{Type: "string"},
		}
	}

	contact := func() *jsonschema.Schema {
		return &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"name":  {Type: "string"},
				"email": {Type: "string"},
				"role":  {Type: "string"},
			},
			Required: []string{"email"},
		}
	}

	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"importantSafetyNotes": stringArray(),
			"actionSteps": {
				Type: "array",
				Items: &jsonschema.Schema{
					Type: "object",
					Properties: map[string]*jsonschema.Schema{
						"stepTitle":        {Type: "string"},
						"executionContext": {Type: "string", Description: "Where the action runs: database, API, shell, console."},
						"procedure":        stringArray(),
						"checklistItems":   stringArray(),
					},
					Required: []string{"stepTitle", "executionContext", "procedure"},
				},
			},
			"verificationSteps": stringArray(),
			"checklists": {
				Type: "array",
				Items: &jsonschema.Schema{
					Type: "object",
					Properties: map[string]*jsonschema.Schema{
						"title":       {Type: "string"},
						"items":       stringArray(),
						"relatedStep": {Type: "string"},
					},
					Required: []string{"title", "items"},
				},
			},
			"escalationPlan": {
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"category":           {Type: "string"},
					"categoryCode":       {Type: "string"},
					"likelihood":         {Type: "string", Enum: []any{"likely", "unlikely", "uncertain"}},
					"summary":            {Type: "string"},
					"reasoning":          {Type: "string"},
					"recommendedSubject": {Type: "string"},
					"recommendedMessage": {Type: "string"},
					"primaryContact":     contact(),
					"alternateContacts": {
						Type:  "array",
						Items: contact(),
					},
				},
				Required: []string{"category", "summary", "primaryContact"},
			},
			"aiDescription": {Type: "string"},
		},
		Required: []string{
			"importantSafetyNotes",
			"actionSteps",
			"verificationSteps",
			"checklists",
			"escalationPlan",
			"aiDescription",
		},
	}
}
