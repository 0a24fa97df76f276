// Copyright (c) 2023-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package playbook

import (
	"strings"

	"github.com/portwarden/portwarden/roster"
)

// SanitizeEscalationPlan reshapes an LLM-proposed escalation object. When the
// roster resolves the proposed category, code or contact email, the roster
// values override the LLM's: the roster is authoritative, the model is a
// guess. Returns nil when no category, code or contact email can be
// established either way, or when no summary survives.
func (s *Sanitizer) SanitizeEscalationPlan(value any) *EscalationPlan {
	data, ok := value.(map[string]any)
	if !ok {
		return nil
	}

	rawCategory := NormalizeHeading(firstPresent(data, "category", "categoryName"))
	rawCode := NormalizeHeading(firstPresent(data, "categoryCode", "code"))
	summary := NormalizeNarrative(data["summary"])
	reasoning := NormalizeNarrative(firstPresent(data, "reasoning", "likelihoodReasoning"))
	subject := NormalizeSubject(firstPresent(data, "recommendedSubject", "subject", "emailSubject"))
	message := NormalizeMessage(firstPresent(data, "recommendedMessage", "message", "emailBody", "body"))
	primaryContact := sanitizeContact(data["primaryContact"])

	var alternates []roster.Contact
	if rawAlternates, ok := data["alternateContacts"].([]any); ok {
		for _, rawContact := range rawAlternates {
			if contact := sanitizeContact(rawContact); contact != nil {
				alternates = append(alternates, *contact)
			}
		}
	}

	var proposedEmail string
	if primaryContact != nil {
		proposedEmail = primaryContact.Email
	}
	entry := s.roster.Resolve(roster.Query{
		Category: rawCategory,
		Code:     rawCode,
		Email:    proposedEmail,
	})

	category := rawCategory
	code := rawCode
	contact := primaryContact
	if entry != nil {
		category = entry.Category
		code = entry.Code
		rosterContact := entry.PrimaryContact
		contact = &rosterContact
	}

	if category == "" || code == "" || contact == nil || contact.Email == "" {
		return nil
	}

	finalSummary := summary
	if finalSummary == "" {
		finalSummary = NormalizeNarrative(message)
	}
	if finalSummary == "" {
		finalSummary = reasoning
	}
	if finalSummary == "" {
		return nil
	}

	finalSubject := subject
	if finalSubject == "" {
		finalSubject = "Escalation - " + category
	}

	finalMessage := message
	if finalMessage == "" {
		finalMessage = fallbackMessage(finalSummary, reasoning)
	}

	return &EscalationPlan{
		Category:           category,
		CategoryCode:       code,
		Likelihood:         NormalizeLikelihood(firstPresent(data, "escalationLikelihood", "likelihood")),
		Summary:            finalSummary,
		Reasoning:          reasoning,
		RecommendedSubject: finalSubject,
		RecommendedMessage: finalMessage,
		PrimaryContact:     *contact,
		AlternateContacts:  alternates,
	}
}

func sanitizeContact(value any) *roster.Contact {
	data, ok := value.(map[string]any)
	if !ok {
		return nil
	}
	email := NormalizeEmail(firstPresent(data, "email", "address"))
	if email == "" {
		return nil
	}
	return &roster.Contact{
		Name:  NormalizeHeading(firstPresent(data, "name", "fullName")),
		Email: email,
		Role:  NormalizeHeading(firstPresent(data, "role", "title")),
	}
}

// NormalizeLikelihood maps free-text likelihood labels onto the enum.
// Unrecognized input is uncertain, never an error.
func NormalizeLikelihood(value any) Likelihood {
	s, ok := value.(string)
	if !ok {
		return LikelihoodUncertain
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "likely", "yes", "required", "needed":
		return LikelihoodLikely
	case "unlikely", "no", "not likely", "not_likely":
		return LikelihoodUnlikely
	case "uncertain":
		return LikelihoodUncertain
	default:
		return LikelihoodUncertain
	}
}

func fallbackMessage(summary, reasoning string) string {
	if reasoning == "" {
		return summary
	}
	return summary + "\n\nReasoning: " + reasoning
}
