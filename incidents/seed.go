// Copyright (c) 2023-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package incidents

import (
	"context"
	"time"
)

// SeedIncidents returns the demo incident set used when the store starts
// empty. The records mirror real duty-officer cases across the container,
// vessel and EDI modules.
func SeedIncidents() []*Incident {
	return []*Incident{
		{
			ID:        "ALR-861600",
			DisplayID: "ALR-861600",
			Title:     "Duplicate container snapshot detected",
			Summary:   "Data quality monitor detected that container CMAU0000020 was inserted twice within one second, creating inconsistent yard inventory views.",
			Channel:   "Email",
			Severity:  "Medium",
			Persona:   "Yard Duty Officer",
			Status:    StatusOpen,
			OccurredAt: time.Date(2025, 10, 9, 8, 15, 12, 516000000, time.UTC),
			Ingestion: []IngestionField{
				{Label: "Container", Value: "CMAU0000020"},
				{Label: "Alert", Value: "DuplicateSnapshotAttempt"},
				{Label: "Reporter", Value: "container-version service monitor"},
			},
			CorrelatedEvidence: []Evidence{
				{
					Type:          "log",
					Source:        "container_service.log",
					Timestamp:     "2025-10-09T08:15:12.516Z",
					Message:       "WARN container-version DuplicateSnapshotAttempt cntr_no=CMAU0000020",
					CorrelationID: "corr-cmau-dup-01",
					Insight:       "Latest ETL run attempted to upsert a snapshot that already exists.",
				},
				{
					Type:    "sql",
					Source:  "container (db.sql)",
					Message: "Two rows share cntr_no CMAU0000020 with the same timestamps.",
					Insight: "Historical snapshots should be unique per timestamp; duplicate indicates upstream replay.",
				},
			},
			KnowledgeBase: []KnowledgeRef{
				{
					Reference: "KB-2210",
					Title:     "CNTR: Duplicate Container information received",
					Summary:   "Duplicates occur when upstream retry logic resends an already committed snapshot. Confirm the row counts, keep the newest entry, and archive redundant records to maintain lineage.",
				},
			},
			RecommendedActions: []RecommendedAction{
				{
					Label:        "Detect duplicate snapshots",
					Explanation:  "Confirm multiple snapshots exist for CMAU0000020 before adjusting data.",
					Cite:         "KB-2210",
					ArtifactType: "sql",
					Artifact:     "SELECT cntr_no, COUNT(*) AS snapshot_count\nFROM container\nWHERE cntr_no = 'CMAU0000020'\nGROUP BY cntr_no;",
				},
				{
					Label:        "Retain most recent snapshot only",
					Explanation:  "Archive older duplicate rows while preserving the latest operational state.",
					Cite:         "KB-2210",
					ArtifactType: "sql",
					Artifact:     "DELETE FROM container\nWHERE cntr_no = 'CMAU0000020'\nAND created_at < (\n\tSELECT MAX(created_at) FROM container WHERE cntr_no = 'CMAU0000020'\n);",
				},
				{
					Label:        "Rebuild cache consumers",
					Explanation:  "Trigger downstream sync to ensure API consumers pick up the corrected snapshot.",
					Cite:         "KB-2210",
					ArtifactType: "command",
					Artifact:     `POST /ops/cache-refresh { "entity": "container", "cntrNo": "CMAU0000020" }`,
				},
			},
			Escalation: EscalationInfo{
				Required: false,
				Summary:  "Self-healable data quality issue once duplicates are purged.",
			},
			RagExtract: "Incident ALR-861600 flagged duplicate container snapshot attempts for CMAU0000020. Logs show 'DuplicateSnapshotAttempt' warning and the database file db.sql contains two rows for this container. Knowledge base article KB-2210 explains how to confirm duplicate snapshots, delete older history, and refresh caches. Duty officer persona is Yard Duty Officer who can execute SQL in the operational replica.",
		},
		{
			ID:        "ALR-861631",
			DisplayID: "ALR-861631",
			Title:     "VESSEL_ERR_4 blocks vessel advice creation",
			Summary:   "Duty officer reporting that MV Lion City 07 returns VESSEL_ERR_4 when creating a new vessel advice from the portal.",
			Channel:   "Email",
			Severity:  "High",
			Persona:   "Vessel Planning",
			Status:    StatusOpen,
			OccurredAt: time.Date(2025, 10, 8, 9, 14, 12, 419000000, time.UTC),
			Ingestion: []IngestionField{
				{Label: "Vessel Name", Value: "MV Lion City 07"},
				{Label: "Error Code", Value: "VESSEL_ERR_4"},
				{Label: "Impact", Value: "User unable to create vessel advice"},
			},
			CorrelatedEvidence: []Evidence{
				{
					Type:          "log",
					Source:        "vessel_advice_service.log",
					Timestamp:     "2025-10-08T09:14:12.419Z",
					Message:       `ERROR AdviceService corrId=9fa2e7c1afad4d6a code=VESSEL_ERR_4 msg="System Vessel Name has been used by other vessel advice"`,
					CorrelationID: "9fa2e7c1afad4d6a",
					Insight:       "Confirms backend rejects duplicate active advice names.",
				},
				{
					Type:    "sql",
					Source:  "vessel_advice (db.sql)",
					Message: "SELECT vessel_advice_no, effective_end_datetime FROM vessel_advice WHERE system_vessel_name = 'MV Lion City 07' AND effective_end_datetime IS NULL;",
					Insight: "Active advice 1000010960 already owns the vessel name.",
				},
			},
			KnowledgeBase: []KnowledgeRef{
				{
					Reference: "KB-1749",
					Title:     "VAS: VESSEL_ERR_4 Vessel Name has been used by other vessel advice",
					Summary:   "Only one active vessel advice can share the system vessel name. Expire the current advice after ensuring dependant port programs are closed.",
				},
				{
					Reference: "KB-1754",
					Title:     "Check for active berth applications before expiring advice",
					Summary:   "Ensure no open berth applications reference the vessel advice before expiry.",
				},
				{
					Reference: "KB-1767",
					Title:     "Expire vessel advice via SQL maintenance window",
					Summary:   "Expire the historical record by stamping effective_end_datetime and documenting in operations log.",
				},
			},
			RecommendedActions: []RecommendedAction{
				{
					Label:        "Confirm active advice",
					Explanation:  "Validate existing advice blocking the new record.",
					Cite:         "KB-1749",
					ArtifactType: "sql",
					Artifact:     "SELECT vessel_advice_no, effective_end_datetime\nFROM vessel_advice\nWHERE system_vessel_name = 'MV Lion City 07'\nAND effective_end_datetime IS NULL;",
				},
				{
					Label:        "Check berth applications referencing advice",
					Explanation:  "Ensure no active berth applications depend on the current advice before expiring it.",
					Cite:         "KB-1754",
					ArtifactType: "sql",
					Artifact:     "SELECT application_no\nFROM berth_application\nWHERE vessel_advice_no = 1000010960\nAND vessel_close_datetime IS NULL\nAND deleted = 'N';",
				},
				{
					Label:        "Expire legacy advice",
					Explanation:  "Set end timestamp so the new advice can be created.",
					Cite:         "KB-1767",
					ArtifactType: "sql",
					Artifact:     "UPDATE vessel_advice\nSET effective_end_datetime = '2025-10-08 09:15:00'\nWHERE vessel_advice_no = 1000010960\nAND effective_end_datetime IS NULL;",
				},
				{
					Label:        "Notify requestor",
					Explanation:  "Let the user know they can retry creating the advice after the change.",
					Cite:         "KB-1767",
					ArtifactType: "template",
					Artifact:     "Subject: MV Lion City 07 advice unblocked\nBody: Legacy advice 1000010960 expired at 09:15 UTC. Please retry portal submission.",
				},
			},
			Escalation: EscalationInfo{
				Required: false,
				Summary:  "Resolved by operations once legacy advice expired; no escalation necessary.",
			},
			RagExtract: "Incident ALR-861631 corresponds to VESSEL_ERR_4 for MV Lion City 07. Logs show correlation ID 9fa2e7c1afad4d6a with message 'System Vessel Name has been used by other vessel advice'. Database query from db.sql confirms active advice 1000010960 holds the name. Knowledge base entries KB-1749, KB-1754, KB-1767 describe verification of berth applications and expiring the advice before notifying the user.",
		},
		{
			ID:        "INC-154599",
			DisplayID: "INC-154599",
			Title:     "EDI IFTMIN error REF-IFT-0007",
			Summary:   "SMS alert flagged inbound EDI IFTMIN message stuck in ERROR with message reference REF-IFT-0007 between LINE-PSA and PSA-TOS.",
			Channel:   "SMS",
			Severity:  "High",
			Persona:   "EDI Duty Officer",
			Status:    StatusOpen,
			OccurredAt: time.Date(2025, 10, 4, 12, 25, 10, 529000000, time.UTC),
			Ingestion: []IngestionField{
				{Label: "Message Ref", Value: "REF-IFT-0007"},
				{Label: "Status", Value: "ERROR"},
				{Label: "Sender", Value: "LINE-PSA"},
				{Label: "Receiver", Value: "PSA-TOS"},
			},
			CorrelatedEvidence: []Evidence{
				{
					Type:          "log",
					Source:        "edi_advice_service.log",
					Timestamp:     "2025-10-04T12:25:10.529Z",
					Message:       `ERROR EDIService corrId=ab72d0a1e9f8f9cd code=EDI_ERR_1 msg="Segment missing" message_ref="REF-IFT-0007"`,
					CorrelationID: "ab72d0a1e9f8f9cd",
					Insight:       "Parser rejected the interchange because a mandatory segment is absent.",
				},
				{
					Type:    "sql",
					Source:  "edi_message (db.sql)",
					Message: "SELECT status, error_text, ack_at FROM edi_message WHERE message_ref = 'REF-IFT-0007';",
					Insight: "Row shows status ERROR and NULL ack_at consistent with incident.",
				},
			},
			KnowledgeBase: []KnowledgeRef{
				{
					Reference: "KB-1988",
					Title:     "EDI: EDI Message Timeout or Delay in Acknowledgment",
					Summary:   "When inbound EDI remains in ERROR with missing acknowledgement, inspect parser logs, request resend with corrected segments, and annotate trading partner portal.",
				},
			},
			RecommendedActions: []RecommendedAction{
				{
					Label:        "Confirm parser failure details",
					Explanation:  "Validate exact error message for the trading partner.",
					Cite:         "KB-1988",
					ArtifactType: "sql",
					Artifact:     "SELECT error_text, raw_text\nFROM edi_message\nWHERE message_ref = 'REF-IFT-0007';",
				},
				{
					Label:        "Request resend with missing segment",
					Explanation:  "Communicate the missing segment so the partner can correct the interchange.",
					Cite:         "KB-1988",
					ArtifactType: "template",
					Artifact:     "Subject: Action required - REF-IFT-0007\nBody: Parser rejected REF-IFT-0007 (EDI_ERR_1 Segment missing). Please resend with mandatory segment header 16.",
				},
				{
					Label:        "Annotate trading partner portal",
					Explanation:  "Record the exception in the partner SLA tracker.",
					Cite:         "KB-1988",
					ArtifactType: "command",
					Artifact:     `PATCH /partners/LINE-PSA/messages/REF-IFT-0007 { "status": "Awaiting resend", "note": "Mandatory segment missing" }`,
				},
			},
			Escalation: EscalationInfo{
				Required: false,
				Summary:  "Partner resend expected; escalate only if resend not received within SLA.",
			},
			RagExtract: "Incident INC-154599 references EDI message REF-IFT-0007 stuck in ERROR. Logs show correlation ab72d0a1e9f8f9cd with code EDI_ERR_1 and message 'Segment missing'. Database row in edi_message table confirms ERROR status with NULL ack_at. Knowledge base KB-1988 outlines steps to confirm parser details, request corrected resend, and document partner communication.",
		},
		{
			ID:        "TCK-742311",
			DisplayID: "TCK-742311",
			Title:     "BAPLIE inconsistency for MV PACIFIC DAWN/07E",
			Summary:   "Planning team notes BAPLIE plan still shows units in bay 14 even though COARRI indicates load complete, suggesting the plan regressed to an older timestamp.",
			Channel:   "ServiceNow",
			Severity:  "Critical",
			Persona:   "Vessel Duty Lead",
			Status:    StatusOpen,
			OccurredAt: time.Date(2025, 10, 7, 4, 32, 0, 0, time.UTC),
			Ingestion: []IngestionField{
				{Label: "Module", Value: "Vessel (VS)"},
				{Label: "Vessel", Value: "MV PACIFIC DAWN/07E"},
				{Label: "Symptom", Value: "BAPLIE shows units in bay 14 despite load complete"},
			},
			CorrelatedEvidence: []Evidence{
				{
					Type:          "log",
					Source:        "planning_sync.log",
					Timestamp:     "2025-10-07T04:29:44.902Z",
					Message:       "WARN PlanningSync corrId=vs-baplie-07E detected older timestamp 2025-10-07T04:20:00Z overwriting stowage plan",
					CorrelationID: "vs-baplie-07E",
					Insight:       "Confirms replication applied stale file and regressed bay data.",
				},
				{
					Type:          "log",
					Source:        "edi_coarri.log",
					Timestamp:     "2025-10-07T04:22:11.337Z",
					Message:       `INFO COARRI corrId=vs-baplie-07E bay=14 status=complete message_ref="REF-ARR-0714"`,
					CorrelationID: "vs-baplie-07E",
					Insight:       "Confirms COARRI indicated bay load completion before regression.",
				},
			},
			KnowledgeBase: []KnowledgeRef{
				{
					Reference: "KB-2301",
					Title:     "BAPLIE inconsistency for vessel plan",
					Summary:   "Identify the offending interchange, reapply the newest stowage file, and alert vessel duty to verify yard sync.",
				},
			},
			RecommendedActions: []RecommendedAction{
				{
					Label:        "Lock stowage plan updates",
					Explanation:  "Prevent further regressions while reapplying the correct file.",
					Cite:         "KB-2301",
					ArtifactType: "command",
					Artifact:     `POST /planning/locks { "vesselId": "MV PACIFIC DAWN/07E", "reason": "BAPLIE regression" }`,
				},
				{
					Label:        "Replay latest BAPLIE interchange",
					Explanation:  "Force system to ingest the newest plan and override stale data.",
					Cite:         "KB-2301",
					ArtifactType: "command",
					Artifact:     `POST /edi/replay { "messageRef": "REF-BAP-07E-LATEST" }`,
				},
				{
					Label:        "Validate bay 14 inventory",
					Explanation:  "Run quick analytics to ensure yard and vessel views are back in sync.",
					Cite:         "KB-2301",
					ArtifactType: "sql",
					Artifact:     "SELECT cntr_no, status\nFROM vw_tranship_pipeline\nWHERE vessel_name = 'MV PACIFIC DAWN'\nAND status IN ('LOADED','ON_VESSEL');",
				},
				{
					Label:        "Prepare escalation brief",
					Explanation:  "Coordinate with Vessel Operations lead to monitor impact across planning teams.",
					Cite:         "KB-2301",
					ArtifactType: "template",
					Artifact:     "Subject: Escalation - MV PACIFIC DAWN BAPLIE regression\nBody: Bay 14 load marked complete but stale BAPLIE reapplied. Replay triggered; monitoring sync.",
				},
			},
			Escalation: EscalationInfo{
				Required: true,
				Summary:  "Coordinate with Jaden Smith (Vessel Operations) for cross-team visibility and confirm recovery tracking.",
				Owner:    "Jaden Smith",
				Team:     "Vessel Duty Team",
				Channel:  "Teams Bridge",
				Note:     "Incident TCK-742311 describes BAPLIE regression for MV PACIFIC DAWN/07E. Escalate to vessel operations to monitor plan replay and yard alignment.",
			},
			RagExtract: "Incident TCK-742311 reports BAPLIE inconsistency for MV PACIFIC DAWN/07E. Logs show planning_sync warning that an older timestamp overwrote bay 14, and COARRI logs confirm bay 14 load completed earlier. Knowledge base KB-2301 instructs locking updates, replaying the latest interchange, validating bay inventory, and escalating to Vessel Duty Team lead Jaden Smith.",
		},
	}
}

// SeedIfEmpty loads the demo incidents when the table has no rows.
func (s *Store) SeedIfEmpty(ctx context.Context) error {
	var count int
	if err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM incidents`); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	for _, incident := range SeedIncidents() {
		if err := s.Save(ctx, incident); err != nil {
			return err
		}
	}
	return nil
}
