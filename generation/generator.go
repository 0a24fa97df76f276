// Copyright (c) 2023-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

// Package generation orchestrates the AI pipeline: prompt construction,
// the LLM call, structural sanitization, advisory validation and persisting
// the result onto the incident.
package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/portwarden/portwarden/incidents"
	"github.com/portwarden/portwarden/kbtracker"
	"github.com/portwarden/portwarden/llm"
	"github.com/portwarden/portwarden/metrics"
	"github.com/portwarden/portwarden/playbook"
	"github.com/portwarden/portwarden/roster"
	"github.com/portwarden/portwarden/validation"
)

type Intent string

const (
	IntentPlaybook   Intent = "playbook"
	IntentEscalation Intent = "escalation"
)

var ErrUnsupportedIntent = errors.New("unsupported intent")

type Metadata struct {
	Model      string    `json:"model"`
	Intent     Intent    `json:"intent"`
	IncidentID string    `json:"incidentId"`
	Timestamp  time.Time `json:"timestamp"`
}

type Result struct {
	Output     string                   `json:"output"`
	Payload    *playbook.Payload        `json:"payload,omitempty"`
	Escalation *playbook.EscalationPlan `json:"escalation,omitempty"`
	SessionID  string                   `json:"sessionId"`
	Metadata   Metadata                 `json:"metadata"`
}

// Configuration exposes the live service settings the pipeline consults on
// every request; the config container implements it.
type Configuration interface {
	GetEnableLLMTrace() bool
}

type Generator struct {
	model     llm.LanguageModel
	modelName string
	sanitizer *playbook.Sanitizer
	validator *validation.Framework
	tracker   *kbtracker.Tracker
	incidents *incidents.Store
	roster    *roster.Resolver
	metrics   metrics.Metrics
	config    Configuration
	log       *logrus.Logger

	now func() time.Time
}

type Config struct {
	Model         llm.LanguageModel
	ModelName     string
	Validator     *validation.Framework
	Tracker       *kbtracker.Tracker
	Incidents     *incidents.Store
	Roster        *roster.Resolver
	Metrics       metrics.Metrics
	Configuration Configuration
	Log           *logrus.Logger
}

func New(config Config) *Generator {
	resolver := config.Roster
	if resolver == nil {
		resolver = roster.DefaultResolver()
	}
	log := config.Log
	if log == nil {
		log = logrus.New()
	}

	return &Generator{
		model:     config.Model,
		modelName: config.ModelName,
		sanitizer: playbook.NewSanitizer(resolver),
		validator: config.Validator,
		tracker:   config.Tracker,
		incidents: config.Incidents,
		roster:    resolver,
		metrics:   config.Metrics,
		config:    config.Configuration,
		log:       log,
		now:       time.Now,
	}
}

func (g *Generator) traceEnabled() bool {
	return g.config != nil && g.config.GetEnableLLMTrace()
}

// Generate runs the full pipeline for one incident and intent. The returned
// error may be a *llm.ProviderError, *llm.TruncationError or
// *playbook.SanitizeError; callers map those to transport responses.
func (g *Generator) Generate(ctx context.Context, incidentID string, intent Intent) (*Result, error) {
	if intent != IntentPlaybook && intent != IntentEscalation {
		return nil, ErrUnsupportedIntent
	}

	incident, err := g.incidents.Get(ctx, incidentID)
	if err != nil {
		return nil, err
	}

	sessionID := "session_" + uuid.NewString()
	prompt := g.buildPrompt(ctx, incident, intent, sessionID)

	var opts []llm.LanguageModelOption
	if intent == IntentPlaybook {
		opts = append(opts, llm.WithJSONOutputFormat(playbook.RequestSchema()))
	}

	g.log.WithFields(logrus.Fields{
		"incidentId": incidentID,
		"intent":     intent,
		"sessionId":  sessionID,
		"promptLen":  len(prompt),
	}).Debug("dispatching generation request")

	if g.metrics != nil {
		g.metrics.IncrementLLMRequests(g.modelName)
	}

	if g.traceEnabled() {
		g.log.WithFields(logrus.Fields{
			"sessionId":    sessionID,
			"model":        g.modelName,
			"systemPrompt": SystemText,
			"userPrompt":   prompt,
		}).Info("llm trace: request")
	}

	output, err := g.model.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: SystemText,
		UserPrompt:   prompt,
	}, opts...)
	if err != nil {
		g.countOutcome(intent, "provider_error")
		return nil, err
	}

	if g.traceEnabled() {
		g.log.WithFields(logrus.Fields{
			"sessionId": sessionID,
			"output":    output,
		}).Info("llm trace: response")
	}

	result := &Result{
		Output:    output,
		SessionID: sessionID,
		Metadata: Metadata{
			Model:      g.modelName,
			Intent:     intent,
			IncidentID: incidentID,
			Timestamp:  g.now().UTC(),
		},
	}

	if intent == IntentPlaybook {
		payload, err := g.sanitizer.ParsePlaybook(output)
		if err != nil {
			var sanitizeErr *playbook.SanitizeError
			if errors.As(err, &sanitizeErr) && g.metrics != nil {
				g.metrics.IncrementSanitizeFailures(string(sanitizeErr.Kind))
			}
			g.countOutcome(intent, "sanitize_error")
			return nil, err
		}

		pretty, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return nil, errors.Wrap(err, "failed to re-encode playbook payload")
		}
		result.Payload = payload
		result.Output = string(pretty)

		if err := g.incidents.UpdatePlaybook(ctx, incidentID, payload); err != nil {
			g.countOutcome(intent, "persist_error")
			return nil, err
		}
	} else if plan := g.tryEscalationPlan(output); plan != nil {
		result.Escalation = plan
		if err := g.incidents.UpdateEscalation(ctx, incidentID, plan); err != nil {
			g.countOutcome(intent, "persist_error")
			return nil, err
		}
	}

	g.validate(ctx, incident, intent, result.Output, sessionID)
	g.countOutcome(intent, "success")

	return result, nil
}

// tryEscalationPlan parses free-form escalation output as a structured plan
// when the model happened to answer in JSON. Plain prose passes through.
func (g *Generator) tryEscalationPlan(output string) *playbook.EscalationPlan {
	cleaned := strings.TrimSpace(playbook.StripJSONFences(output))
	if !strings.HasPrefix(cleaned, "{") {
		return nil
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil
	}
	if nested, ok := data["escalationPlan"].(map[string]any); ok {
		return g.sanitizer.SanitizeEscalationPlan(nested)
	}
	return g.sanitizer.SanitizeEscalationPlan(data)
}

// validate scores the output and records telemetry. It never fails the
// request.
func (g *Generator) validate(ctx context.Context, incident *incidents.Incident, intent Intent, output, sessionID string) {
	if g.validator == nil {
		return
	}

	module := validation.ClassifyModule(incident.Summary + " " + incident.Title)
	query := fmt.Sprintf("%s for %s: %s", intent, incident.Title, incident.Summary)

	validationResult := g.validator.ValidateResponse(ctx, query, output, module, "")
	if g.metrics != nil {
		g.metrics.ObserveValidationScore(module, validationResult.OverallScore)
	}

	g.log.WithFields(logrus.Fields{
		"sessionId": sessionID,
		"module":    module,
		"score":     validationResult.OverallScore,
	}).Info("validation completed")
}

func (g *Generator) countOutcome(intent Intent, outcome string) {
	if g.metrics != nil {
		g.metrics.IncrementGenerationRequests(string(intent), outcome)
	}
}
