// Copyright (c) 2023-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

// Package validation scores AI responses against an operational rubric.
// Scores are advisory telemetry: a failing score is recorded and logged but
// never blocks delivery of the response.
package validation

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	CategoryProcedureCompliance = "procedureCompliance"
	CategoryAccuracy            = "accuracyCheck"
	CategorySafetyValidation    = "safetyValidation"
	CategoryCompleteness        = "completenessCheck"
	CategoryClarity             = "clarityScore"
)

// PassThreshold is a product-tuning constant, as are all the deduction
// values below. They have no derivation; do not re-tune them casually.
const PassThreshold = 70

type CategoryResult struct {
	Score    int      `json:"score"`
	Issues   []string `json:"issues"`
	Category string   `json:"category"`
}

type Result struct {
	TestID          string                    `json:"testId"`
	Timestamp       time.Time                 `json:"timestamp"`
	Query           string                    `json:"query"`
	AIResponse      string                    `json:"aiResponse"`
	Module          string                    `json:"module"`
	ExpectedOutcome string                    `json:"expectedOutcome,omitempty"`
	Results         map[string]CategoryResult `json:"results"`
	OverallScore    int                       `json:"overallScore"`
	Passed          bool                      `json:"passed"`
}

type Summary struct {
	TotalTests  int       `json:"totalTests"`
	PassedTests int       `json:"passedTests"`
	FailedTests int       `json:"failedTests"`
	AvgScore    int       `json:"avgScore"`
	LastRun     time.Time `json:"lastRun"`
}

// ResultStore persists validation results append-only, keyed by test ID.
type ResultStore interface {
	SaveValidationResult(ctx context.Context, result *Result) error
}

type Framework struct {
	store ResultStore
	log   *logrus.Logger
}

func NewFramework(store ResultStore, log *logrus.Logger) *Framework {
	return &Framework{store: store, log: log}
}

// ValidateResponse scores a response and persists the result. Persistence
// failures are logged and swallowed; the score is still returned.
func (f *Framework) ValidateResponse(ctx context.Context, query, aiResponse, module, expectedOutcome string) *Result {
	result := Score(query, aiResponse, module)
	result.TestID = generateTestID(query, module)
	result.ExpectedOutcome = expectedOutcome

	if f.store != nil {
		if err := f.store.SaveValidationResult(ctx, result); err != nil {
			f.log.WithError(err).WithField("testId", result.TestID).Warn("failed to persist validation result")
		}
	}

	if result.OverallScore < 50 {
		f.log.WithFields(logrus.Fields{
			"testId": result.TestID,
			"module": module,
			"score":  result.OverallScore,
		}).Warn("low quality response detected")
	}

	return result
}

// Score runs the five rubric categories. It is pure and safe to call
// concurrently.
func Score(query, aiResponse, module string) *Result {
	results := map[string]CategoryResult{
		CategoryProcedureCompliance: scoreProcedureCompliance(aiResponse, module),
		CategoryAccuracy:            scoreAccuracy(aiResponse, module),
		CategorySafetyValidation:    scoreSafety(aiResponse, module),
		CategoryCompleteness:        scoreCompleteness(aiResponse, query),
		CategoryClarity:             scoreClarity(aiResponse),
	}

	total := 0
	for _, r := range results {
		total += r.Score
	}
	overall := roundDiv(total, len(results))

	return &Result{
		Timestamp:    time.Now().UTC(),
		Query:        query,
		AIResponse:   aiResponse,
		Module:       module,
		Results:      results,
		OverallScore: overall,
		Passed:       overall >= PassThreshold,
	}
}

func scoreProcedureCompliance(response, module string) CategoryResult {
	procedures := moduleProceduresFor(module)
	score := 100
	issues := []string{}
	lower := strings.ToLower(response)

	for _, step := range procedures.requiredSteps {
		if !strings.Contains(lower, strings.ToLower(step)) {
			score -= 10
			issues = append(issues, "Missing required step: "+step)
		}
	}

	for _, action := range procedures.prohibitedActions {
		if strings.Contains(lower, strings.ToLower(action)) {
			score -= 20
			issues = append(issues, "Contains prohibited action: "+action)
		}
	}

	return CategoryResult{Score: clampScore(score), Issues: issues, Category: "procedure_compliance"}
}

func scoreAccuracy(response, module string) CategoryResult {
	score := 100
	issues := []string{}

	for _, pattern := range accuracyPatternsFor(module) {
		if pattern.required && !pattern.regex.MatchString(response) {
			penalty := pattern.penalty
			if penalty == 0 {
				penalty = 15
			}
			score -= penalty
			issues = append(issues, "Missing "+pattern.description)
		}
	}

	techErrors := checkTechnicalErrors(response)
	score -= len(techErrors) * 10
	issues = append(issues, techErrors...)

	return CategoryResult{Score: clampScore(score), Issues: issues, Category: "accuracy"}
}

func scoreSafety(response, module string) CategoryResult {
	score := 100
	issues := []string{}
	lower := strings.ToLower(response)

	// Safety gaps are heavily penalized.
	for _, check := range safetyChecksFor(module) {
		if check.mustInclude && !strings.Contains(lower, strings.ToLower(check.keyword)) {
			score -= 25
			issues = append(issues, "Missing safety consideration: "+check.description)
		}
	}

	for _, term := range unsafeTerms {
		if strings.Contains(lower, term) {
			score -= 30
			issues = append(issues, "Contains potentially unsafe recommendation: "+term)
		}
	}

	return CategoryResult{Score: clampScore(score), Issues: issues, Category: "safety"}
}

var actionableStepsRE = regexp.MustCompile(`(?i)\d+\.|step|first|then|next|finally`)

func scoreCompleteness(response, query string) CategoryResult {
	score := 100
	issues := []string{}
	lowerQuery := strings.ToLower(query)
	lowerResponse := strings.ToLower(response)

	if len(response) < 100 {
		score -= 20
		issues = append(issues, "Response may be too brief for complex query")
	}

	if strings.Contains(lowerQuery, "how") && !actionableStepsRE.MatchString(response) {
		score -= 15
		issues = append(issues, `Missing clear actionable steps for "how" query`)
	}

	if strings.Contains(lowerQuery, "troubleshoot") || strings.Contains(lowerQuery, "fix") {
		if !strings.Contains(lowerResponse, "verify") && !strings.Contains(lowerResponse, "confirm") {
			score -= 10
			issues = append(issues, "Missing verification steps for troubleshooting query")
		}
	}

	return CategoryResult{Score: clampScore(score), Issues: issues, Category: "completeness"}
}

var structureRE = regexp.MustCompile(`(?i)##|###|\*\*|1\.|2\.|step`)

func scoreClarity(response string) CategoryResult {
	score := 100
	issues := []string{}

	if len(response) > 200 && !structureRE.MatchString(response) {
		score -= 15
		issues = append(issues, "Long response lacks clear structure or formatting")
	}

	jargonCount := 0
	for _, term := range jargonTerms {
		if strings.Contains(response, term) {
			jargonCount++
		}
	}
	if jargonCount > 2 {
		score -= 10
		issues = append(issues, "May contain too much technical jargon without explanation")
	}

	return CategoryResult{Score: clampScore(score), Issues: issues, Category: "clarity"}
}

func checkTechnicalErrors(response string) []string {
	var errors []string

	if strings.Contains(response, "always") && strings.Contains(response, "never") {
		errors = append(errors, "Contains contradictory absolute statements")
	}

	if strings.Contains(response, "Step 1") && !strings.Contains(response, "Step 2") {
		errors = append(errors, "Incomplete step sequence")
	}

	return errors
}

// generateTestID derives a stable hash from the query plus a timestamp so
// repeated validations of the same query stay distinct.
func generateTestID(query, module string) string {
	var hash int32
	for _, c := range query {
		hash = hash<<5 - hash + int32(c)
	}
	if hash < 0 {
		hash = -hash
	}
	return fmt.Sprintf("%s_%d_%d", module, hash, time.Now().UnixMilli())
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	return score
}

func roundDiv(total, count int) int {
	if count == 0 {
		return 0
	}
	return int(float64(total)/float64(count) + 0.5)
}
