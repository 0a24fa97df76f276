// Copyright (c) 2023-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package generation

import (
	"context"
	"fmt"
	"strings"

	"github.com/portwarden/portwarden/incidents"
	"github.com/portwarden/portwarden/validation"
)

// SystemText is the fixed system prompt for every generation request.
const SystemText = `You are Portwarden AI, a maritime duty officer co-pilot.
- Generate numbered action steps with clear labels
- Call out where each action runs (database, shell, API, console, etc.)
- Reference KB articles using provided IDs [KB-1749]
- Professional tone, operational focus, prioritize safety
- Follow response format instructions exactly when supplied`

const playbookInstruction = `Respond strictly in JSON using these top-level keys:
- importantSafetyNotes: array of safety-critical callouts (strings only).
- actionSteps: ordered array where each object contains stepTitle, executionContext (note exactly where the work runs), procedure (array of concise instructions).
- verificationSteps: array of post-remediation verification instructions.
- checklists: array of objects with title and items (array of checklist bullet strings, include a "Ready to close" list when relevant).
- escalationPlan: object with category, categoryCode, likelihood, summary, reasoning, recommendedSubject, recommendedMessage and primaryContact, or null when no escalation is warranted.
- aiDescription: one-paragraph plain text description of the remediation.
Do not include any markdown or commentary outside the JSON object.`

const escalationInstruction = `Draft escalation summary <180 words: incident snapshot, mitigation, risks, ask, timeline.`

// buildPrompt assembles the compact user prompt for an incident. Knowledge
// base accesses are tracked as a side effect; tracking failures only warn.
func (g *Generator) buildPrompt(ctx context.Context, incident *incidents.Incident, intent Intent, sessionID string) string {
	kbRefs := make([]string, 0, len(incident.KnowledgeBase))
	for _, entry := range incident.KnowledgeBase {
		kbRefs = append(kbRefs, fmt.Sprintf("[%s] %s", entry.Reference, entry.Title))

		if g.tracker != nil {
			if err := g.tracker.TrackArticleAccess(ctx, entry.Title, string(intent)+"_generation", sessionID); err != nil {
				g.log.WithError(err).WithField("article", entry.Title).Warn("failed to track knowledge base access")
			}
		}
	}

	actionLines := make([]string, 0, len(incident.RecommendedActions))
	for i, action := range incident.RecommendedActions {
		actionLines = append(actionLines, fmt.Sprintf("%d. %s (%s): %s", i+1, action.Label, action.Cite, action.Explanation))
	}

	evidenceParts := make([]string, 0, len(incident.CorrelatedEvidence))
	for _, evidence := range incident.CorrelatedEvidence {
		evidenceParts = append(evidenceParts, fmt.Sprintf("%s: %s...", evidence.Source, truncate(evidence.Message, 80)))
	}

	module := validation.ClassifyModule(incident.Summary + " " + incident.Title)

	escalationLine := "No escalation required"
	if incident.Escalation.Required {
		escalationLine = fmt.Sprintf("Escalation: %s (%s)", incident.Escalation.Owner, incident.Escalation.Team)
	}

	intentInstruction := escalationInstruction
	if intent == IntentPlaybook {
		intentInstruction = playbookInstruction
	}

	sections := []string{
		fmt.Sprintf("%s: %s (%s)", incident.DisplayID, incident.Title, incident.Severity),
		"Summary: " + incident.Summary,
		fmt.Sprintf("Channel: %s | Persona: %s", incident.Channel, incident.Persona),
		"KB: " + strings.Join(kbRefs, ", "),
		"Actions: " + strings.Join(actionLines, "\n"),
	}
	if len(evidenceParts) > 0 {
		sections = append(sections, "Evidence: "+strings.Join(evidenceParts, "; "))
	}
	sections = append(sections, escalationLine)
	if incident.RagExtract != "" {
		sections = append(sections, "Guidance: "+truncate(incident.RagExtract, 150)+"...")
	}
	sections = append(sections, fmt.Sprintf("Follow %s %s pattern.", module, intent))
	if intent == IntentEscalation && g.roster != nil {
		sections = append(sections, "Escalation roster:\n"+g.roster.FormatForPrompt())
	}
	sections = append(sections, intentInstruction)

	return strings.Join(sections, "\n\n")
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
