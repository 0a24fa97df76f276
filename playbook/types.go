// Copyright (c) 2023-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

// Package playbook turns raw LLM output into the strict remediation playbook
// model. Input is untrusted and malformed at the element level, so the
// sanitizer drops bad entries instead of failing, but an empty required
// section fails the whole payload.
package playbook

import "github.com/portwarden/portwarden/roster"

type Likelihood string

const (
	LikelihoodLikely    Likelihood = "likely"
	LikelihoodUnlikely  Likelihood = "unlikely"
	LikelihoodUncertain Likelihood = "uncertain"
)

// Payload is the canonical successful output of a playbook generation
// request. Every slice field is non-empty after sanitization.
type Payload struct {
	ImportantSafetyNotes []string        `json:"importantSafetyNotes"`
	ActionSteps          []ActionStep    `json:"actionSteps"`
	VerificationSteps    []string        `json:"verificationSteps"`
	Checklists           []Checklist     `json:"checklists"`
	EscalationPlan       *EscalationPlan `json:"escalationPlan"`
	AIDescription        string          `json:"aiDescription"`
}

type ActionStep struct {
	StepTitle        string   `json:"stepTitle"`
	ExecutionContext string   `json:"executionContext"`
	Procedure        []string `json:"procedure"`
	ChecklistItems   []string `json:"checklistItems,omitempty"`
}

type Checklist struct {
	Title string   `json:"title"`
	Items []string `json:"items"`

	// RelatedStep is a name-based back-reference to an ActionStep title.
	// It is lookup-only; nothing enforces that the step exists.
	RelatedStep string `json:"relatedStep,omitempty"`
}

type EscalationPlan struct {
	Category           string           `json:"category"`
	CategoryCode       string           `json:"categoryCode"`
	Likelihood         Likelihood       `json:"likelihood"`
	Summary            string           `json:"summary"`
	Reasoning          string           `json:"reasoning"`
	RecommendedSubject string           `json:"recommendedSubject"`
	RecommendedMessage string           `json:"recommendedMessage"`
	PrimaryContact     roster.Contact   `json:"primaryContact"`
	AlternateContacts  []roster.Contact `json:"alternateContacts,omitempty"`
}
