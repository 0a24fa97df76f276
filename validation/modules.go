// Copyright (c) 2023-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package validation

import (
	"regexp"
	"strings"
)

const (
	ModuleEDI     = "EDI"
	ModuleVSL     = "VSL"
	ModuleCNTR    = "CNTR"
	ModuleAUTH    = "AUTH"
	ModuleBooking = "BOOKING"
	ModuleGeneral = "GENERAL"
)

// ClassifyModule routes free text onto an operational module. Precedence is
// fixed: container beats EDI beats vessel beats auth beats booking.
func ClassifyModule(text string) string {
	description := strings.ToLower(text)

	switch {
	case strings.Contains(description, "container") || strings.Contains(description, "cntr"):
		return ModuleCNTR
	case strings.Contains(description, "edi") || strings.Contains(description, "edifact"):
		return ModuleEDI
	case strings.Contains(description, "vessel") || strings.Contains(description, "vsl"):
		return ModuleVSL
	case strings.Contains(description, "auth") || strings.Contains(description, "token"):
		return ModuleAUTH
	case strings.Contains(description, "booking"):
		return ModuleBooking
	default:
		return ModuleGeneral
	}
}

type moduleProcedures struct {
	requiredSteps     []string
	prohibitedActions []string
}

type accuracyPattern struct {
	regex       *regexp.Regexp
	required    bool
	description string
	penalty     int
}

type safetyCheck struct {
	keyword     string
	mustInclude bool
	description string
}

var proceduresByModule = map[string]moduleProcedures{
	ModuleEDI: {
		requiredSteps:     []string{"verify message format", "check partner connectivity", "validate mapping", "check message queue", "confirm acknowledgement"},
		prohibitedActions: []string{"manual data entry", "skip validation"},
	},
	ModuleVSL: {
		requiredSteps:     []string{"check vessel schedule", "verify berth allocation", "confirm ETA"},
		prohibitedActions: []string{"override safety checks", "bypass port authority"},
	},
	ModuleCNTR: {
		requiredSteps:     []string{"validate container status", "check location data", "verify ownership"},
		prohibitedActions: []string{"release without documentation", "override yard management"},
	},
	ModuleAUTH: {
		requiredSteps:     []string{"verify credentials", "check permissions", "log access"},
		prohibitedActions: []string{"share credentials", "bypass authentication"},
	},
	ModuleGeneral: {
		requiredSteps:     []string{"assess situation", "follow protocol"},
		prohibitedActions: []string{"ignore safety", "skip documentation"},
	},
}

var accuracyPatternsByModule = map[string][]accuracyPattern{
	ModuleEDI: {
		{regex: regexp.MustCompile(`(?i)message.*queue|queue.*status`), required: true, description: "message queue reference", penalty: 15},
		{regex: regexp.MustCompile(`(?i)partner|connectivity`), required: true, description: "partner connectivity check", penalty: 15},
	},
	ModuleVSL: {
		{regex: regexp.MustCompile(`(?i)ETA|ETB|schedule`), required: true, description: "vessel timing reference", penalty: 15},
		{regex: regexp.MustCompile(`(?i)berth|allocation`), required: true, description: "berth allocation check", penalty: 10},
	},
	ModuleCNTR: {
		{regex: regexp.MustCompile(`(?i)container.*status|status.*container`), required: true, description: "container status check", penalty: 15},
		{regex: regexp.MustCompile(`(?i)TOS|yard`), required: false, description: "TOS system reference", penalty: 5},
	},
}

var safetyChecksByModule = map[string][]safetyCheck{
	ModuleEDI: {
		{keyword: "verify", mustInclude: true, description: "verification before resubmission"},
		{keyword: "documentation", mustInclude: true, description: "document partner communication"},
	},
	ModuleVSL: {
		{keyword: "safety", mustInclude: true, description: "vessel safety protocols"},
		{keyword: "clearance", mustInclude: true, description: "port clearance procedures"},
	},
	ModuleCNTR: {
		{keyword: "documentation", mustInclude: true, description: "proper documentation"},
		{keyword: "verify", mustInclude: true, description: "verification steps"},
	},
	ModuleAUTH: {
		{keyword: "secure", mustInclude: true, description: "security considerations"},
		{keyword: "permission", mustInclude: true, description: "permission validation"},
	},
	ModuleGeneral: {
		{keyword: "verify", mustInclude: false, description: "verification step"},
	},
}

// unsafeTerms are penalized wherever they appear, regardless of module.
var unsafeTerms = []string{"bypass", "skip verification", "ignore warning", "override safety"}

// jargonTerms that show up unexplained hurt the clarity score. Matching is
// case-sensitive since the acronyms are always upper-cased in practice.
var jargonTerms = []string{"EDI", "ETA", "ETB", "TOS", "BL", "SOC", "COC"}

func moduleProceduresFor(module string) moduleProcedures {
	if procedures, ok := proceduresByModule[module]; ok {
		return procedures
	}
	return proceduresByModule[ModuleGeneral]
}

func accuracyPatternsFor(module string) []accuracyPattern {
	return accuracyPatternsByModule[module]
}

func safetyChecksFor(module string) []safetyCheck {
	if checks, ok := safetyChecksByModule[module]; ok {
		return checks
	}
	return safetyChecksByModule[ModuleGeneral]
}
