// Copyright (c) 2023-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

// Package incidents holds the incident records the generation pipeline reads
// its context from and writes its sanitized output to.
package incidents

import (
	"time"

	"github.com/portwarden/portwarden/playbook"
)

const (
	StatusOpen       = "open"
	StatusInProgress = "in-progress"
	StatusResolved   = "resolved"
)

type IngestionField struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type Evidence struct {
	Type          string `json:"type"`
	Source        string `json:"source"`
	Message       string `json:"message"`
	Timestamp     string `json:"timestamp,omitempty"`
	CorrelationID string `json:"correlationId,omitempty"`
	Insight       string `json:"insight,omitempty"`
}

type KnowledgeRef struct {
	Reference string `json:"reference"`
	Title     string `json:"title"`
	Summary   string `json:"summary"`
}

type RecommendedAction struct {
	Label        string `json:"label"`
	Explanation  string `json:"explanation"`
	Cite         string `json:"cite"`
	ArtifactType string `json:"artifactType"`
	Artifact     string `json:"artifact"`
}

type EscalationInfo struct {
	Required bool   `json:"required"`
	Summary  string `json:"summary"`
	Owner    string `json:"owner,omitempty"`
	Team     string `json:"team,omitempty"`
	Channel  string `json:"channel,omitempty"`
	Note     string `json:"escalationNote,omitempty"`
}

// AIArtifacts are the sanitized generation outputs attached to an incident.
// Escalation contact and subject fields are flattened copies of the plan so
// the dashboard can render them without parsing the full JSON document.
type AIArtifacts struct {
	Playbook             *playbook.Payload        `json:"playbook,omitempty"`
	Escalation           *playbook.EscalationPlan `json:"escalation,omitempty"`
	EscalationLikelihood playbook.Likelihood      `json:"escalationLikelihood,omitempty"`
	ContactCategory      string                   `json:"contactCategory,omitempty"`
	ContactCode          string                   `json:"contactCode,omitempty"`
	ContactName          string                   `json:"contactName,omitempty"`
	ContactEmail         string                   `json:"contactEmail,omitempty"`
	ContactRole          string                   `json:"contactRole,omitempty"`
	EscalationSubject    string                   `json:"escalationSubject,omitempty"`
	EscalationMessage    string                   `json:"escalationMessage,omitempty"`
	EscalationReasoning  string                   `json:"escalationReasoning,omitempty"`
	Description          string                   `json:"description,omitempty"`
}

type Incident struct {
	ID                 string              `json:"id"`
	DisplayID          string              `json:"displayId"`
	Title              string              `json:"title"`
	Summary            string              `json:"summary"`
	Channel            string              `json:"channel"`
	Severity           string              `json:"severity"`
	Persona            string              `json:"persona"`
	Status             string              `json:"status"`
	OccurredAt         time.Time           `json:"occurredAt"`
	Ingestion          []IngestionField    `json:"ingestion"`
	CorrelatedEvidence []Evidence          `json:"correlatedEvidence"`
	KnowledgeBase      []KnowledgeRef      `json:"knowledgeBase"`
	RecommendedActions []RecommendedAction `json:"recommendedActions"`
	Escalation         EscalationInfo      `json:"escalation"`
	RagExtract         string              `json:"ragExtract"`
	AI                 AIArtifacts         `json:"ai"`
	ArchivedAt         *time.Time          `json:"archivedAt,omitempty"`
}

// Summary is the trimmed shape the incidents list endpoint returns.
type Summary struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	Severity    string    `json:"severity"`
	CreatedAt   time.Time `json:"created_at"`
}
