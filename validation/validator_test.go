// Copyright (c) 2023-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyModule(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"Container gate-in failures at yard", ModuleCNTR},
		{"EDI partner not responding", ModuleEDI},
		{"EDIFACT segment rejected", ModuleEDI},
		{"Vessel berth allocation conflict", ModuleVSL},
		{"Auth token expired for API portal", ModuleAUTH},
		{"Booking amendment stuck", ModuleBooking},
		{"Printer out of paper", ModuleGeneral},
		// Container outranks EDI when both appear.
		{"EDI message for container release", ModuleCNTR},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyModule(tt.text), tt.text)
	}
}

func TestScore_BriefEDIResponseFails(t *testing.T) {
	result := Score("How do I check EDI queue?", "Step 1: check.", ModuleEDI)

	completeness := result.Results[CategoryCompleteness]
	assert.Equal(t, 80, completeness.Score, "short response loses brevity points")

	accuracy := result.Results[CategoryAccuracy]
	assert.Less(t, accuracy.Score, 70, "missing required patterns and incomplete step sequence")
	assert.Contains(t, accuracy.Issues, "Missing partner connectivity check")
	assert.Contains(t, accuracy.Issues, "Incomplete step sequence")

	assert.Less(t, result.OverallScore, PassThreshold)
	assert.False(t, result.Passed)
}

func TestScore_ThoroughResponsePasses(t *testing.T) {
	response := strings.Join([]string{
		"## EDI queue recovery",
		"Step 1. Check message queue status in the monitoring console and verify message format for stuck entries.",
		"Step 2. Check partner connectivity and validate mapping for the affected trading partner.",
		"Step 3. Confirm acknowledgement receipt, then verify the backlog drains.",
		"Record documentation of partner communication before closing.",
	}, "\n")

	result := Score("How do I troubleshoot the EDI message queue?", response, ModuleEDI)

	assert.Equal(t, 100, result.Results[CategoryProcedureCompliance].Score)
	assert.Equal(t, 100, result.Results[CategorySafetyValidation].Score)
	assert.Equal(t, 100, result.Results[CategoryCompleteness].Score)
	assert.GreaterOrEqual(t, result.OverallScore, PassThreshold)
	assert.True(t, result.Passed)
}

func TestScore_ProhibitedActionPenalty(t *testing.T) {
	response := "Skip validation and use manual data entry to clear the queue. " + strings.Repeat("Then retry. ", 10)
	result := Score("fix the EDI queue", response, ModuleEDI)

	compliance := result.Results[CategoryProcedureCompliance]
	assert.Contains(t, compliance.Issues, "Contains prohibited action: manual data entry")
	assert.Contains(t, compliance.Issues, "Contains prohibited action: skip validation")
}

func TestScore_UnsafeTerms(t *testing.T) {
	result := Score("query", "You can bypass the check and override safety interlocks.", ModuleGeneral)

	safety := result.Results[CategorySafetyValidation]
	assert.Contains(t, safety.Issues, "Contains potentially unsafe recommendation: bypass")
	assert.Contains(t, safety.Issues, "Contains potentially unsafe recommendation: override safety")
	assert.LessOrEqual(t, safety.Score, 40)
}

func TestScore_FloorClampedAtZero(t *testing.T) {
	// Every unsafe phrase plus missing module safety keywords.
	response := "bypass skip verification ignore warning override safety"
	result := Score("q", response, ModuleCNTR)

	assert.Equal(t, 0, result.Results[CategorySafetyValidation].Score)
}

func TestScore_ContradictoryStatements(t *testing.T) {
	result := Score("q", "You should always retry and never retry.", ModuleGeneral)
	assert.Contains(t, result.Results[CategoryAccuracy].Issues, "Contains contradictory absolute statements")
}

func TestScore_ClarityJargon(t *testing.T) {
	result := Score("q", "The EDI feed updated the ETA in the TOS.", ModuleGeneral)
	clarity := result.Results[CategoryClarity]
	assert.Equal(t, 90, clarity.Score)

	// Two acronyms are tolerated.
	result = Score("q", "The EDI feed updated the ETA.", ModuleGeneral)
	assert.Equal(t, 100, result.Results[CategoryClarity].Score)
}

func TestScore_ClarityStructure(t *testing.T) {
	long := strings.Repeat("this is a very unstructured wall of text ", 8)
	result := Score("q", long, ModuleGeneral)
	assert.Contains(t, result.Results[CategoryClarity].Issues, "Long response lacks clear structure or formatting")
}

func TestGenerateTestID_Shape(t *testing.T) {
	id := generateTestID("How do I check the EDI queue?", ModuleEDI)
	parts := strings.SplitN(id, "_", 3)
	require.Len(t, parts, 3)
	assert.Equal(t, ModuleEDI, parts[0])
	assert.NotEmpty(t, parts[1])
}
