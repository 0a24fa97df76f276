// Copyright (c) 2023-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package playbook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeEscalationPlan_RosterOverridesLLMValues(t *testing.T) {
	plan := newTestSanitizer().SanitizeEscalationPlan(map[string]any{
		"category":     "Electronic Data Interchange", // near-miss label
		"categoryCode": "WRONG",
		"summary":      "Partner messages stuck",
		"primaryContact": map[string]any{
			"name":  "Someone Else",
			"email": "Tom.Tan@PSA123.com",
			"role":  "Unknown",
		},
	})

	require.NotNil(t, plan)
	assert.Equal(t, "EDI/API", plan.Category)
	assert.Equal(t, "EA", plan.CategoryCode)
	assert.Equal(t, "Tom Tan", plan.PrimaryContact.Name)
	assert.Equal(t, "tom.tan@psa123.com", plan.PrimaryContact.Email)
	assert.Equal(t, "EDI/API Support Lead", plan.PrimaryContact.Role)
}

func TestSanitizeEscalationPlan_UnresolvedUsesLLMValues(t *testing.T) {
	plan := newTestSanitizer().SanitizeEscalationPlan(map[string]any{
		"category":     "Customs",
		"categoryCode": "CUS",
		"summary":      "Manifest rejected at customs gateway",
		"primaryContact": map[string]any{
			"name":  "Dana Ops",
			"email": "dana.ops@example.com",
		},
	})

	require.NotNil(t, plan)
	assert.Equal(t, "Customs", plan.Category)
	assert.Equal(t, "CUS", plan.CategoryCode)
	assert.Equal(t, "dana.ops@example.com", plan.PrimaryContact.Email)
	assert.Equal(t, "Dana Ops", plan.PrimaryContact.Name)
}

func TestSanitizeEscalationPlan_InvalidWithoutIdentity(t *testing.T) {
	s := newTestSanitizer()

	// No category, no code, no contact email and nothing resolvable.
	assert.Nil(t, s.SanitizeEscalationPlan(map[string]any{
		"summary": "Something happened",
	}))

	// Category present but no code and no contact, unresolvable.
	assert.Nil(t, s.SanitizeEscalationPlan(map[string]any{
		"category": "Customs",
		"summary":  "Something happened",
	}))

	// Not an object at all.
	assert.Nil(t, s.SanitizeEscalationPlan("escalate now"))
	assert.Nil(t, s.SanitizeEscalationPlan(nil))
}

func TestSanitizeEscalationPlan_InvalidWithoutSummary(t *testing.T) {
	plan := newTestSanitizer().SanitizeEscalationPlan(map[string]any{
		"categoryCode":   "EA",
		"primaryContact": map[string]any{"email": "tom.tan@psa123.com"},
	})
	assert.Nil(t, plan)
}

func TestSanitizeEscalationPlan_SummaryFallbacks(t *testing.T) {
	s := newTestSanitizer()

	// Message substitutes for a missing summary.
	plan := s.SanitizeEscalationPlan(map[string]any{
		"categoryCode":       "EA",
		"recommendedMessage": "Queue backlog is growing.\n\nPage on-call.",
	})
	require.NotNil(t, plan)
	assert.Equal(t, "Queue backlog is growing. Page on-call.", plan.Summary)

	// Reasoning is the last resort.
	plan = s.SanitizeEscalationPlan(map[string]any{
		"categoryCode": "EA",
		"reasoning":    "Sustained partner outage",
	})
	require.NotNil(t, plan)
	assert.Equal(t, "Sustained partner outage", plan.Summary)
}

func TestSanitizeEscalationPlan_SubjectAndMessageDefaults(t *testing.T) {
	plan := newTestSanitizer().SanitizeEscalationPlan(map[string]any{
		"category":  "edi/api",
		"summary":   "Partner link down",
		"reasoning": "No heartbeat for 30 minutes",
	})

	require.NotNil(t, plan)
	assert.Equal(t, "Escalation - EDI/API", plan.RecommendedSubject)
	assert.Equal(t, "Partner link down\n\nReasoning: No heartbeat for 30 minutes", plan.RecommendedMessage)
}

func TestSanitizeEscalationPlan_AliasedKeys(t *testing.T) {
	plan := newTestSanitizer().SanitizeEscalationPlan(map[string]any{
		"categoryName":         "EDI/API",
		"escalationLikelihood": "needed",
		"likelihoodReasoning":  "Repeated failures",
		"emailSubject":         "EDI outage",
		"emailBody":            "Please engage on-call.",
		"summary":              "EDI outage ongoing",
	})

	require.NotNil(t, plan)
	assert.Equal(t, LikelihoodLikely, plan.Likelihood)
	assert.Equal(t, "Repeated failures", plan.Reasoning)
	assert.Equal(t, "EDI outage", plan.RecommendedSubject)
	assert.Equal(t, "Please engage on-call.", plan.RecommendedMessage)
}

func TestSanitizeEscalationPlan_AlternateContacts(t *testing.T) {
	plan := newTestSanitizer().SanitizeEscalationPlan(map[string]any{
		"categoryCode": "EA",
		"summary":      "Escalating",
		"alternateContacts": []any{
			map[string]any{"fullName": "Backup One", "address": "Backup.One@psa123.com", "title": "Backup"},
			map[string]any{"name": "No Email"},
			"garbage",
		},
	})

	require.NotNil(t, plan)
	require.Len(t, plan.AlternateContacts, 1)
	assert.Equal(t, "Backup One", plan.AlternateContacts[0].Name)
	assert.Equal(t, "backup.one@psa123.com", plan.AlternateContacts[0].Email)
}

func TestNormalizeLikelihood(t *testing.T) {
	tests := map[any]Likelihood{
		"YES":        LikelihoodLikely,
		"needed":     LikelihoodLikely,
		"Required":   LikelihoodLikely,
		"no":         LikelihoodUnlikely,
		"Not Likely": LikelihoodUnlikely,
		"not_likely": LikelihoodUnlikely,
		"likely":     LikelihoodLikely,
		"unlikely":   LikelihoodUnlikely,
		"uncertain":  LikelihoodUncertain,
		"maybe":      LikelihoodUncertain,
		nil:          LikelihoodUncertain,
		12.0:         LikelihoodUncertain,
	}
	for input, want := range tests {
		assert.Equal(t, want, NormalizeLikelihood(input), "input %v", input)
	}
}
