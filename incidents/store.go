// Copyright (c) 2023-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package incidents

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/portwarden/portwarden/playbook"
	"github.com/portwarden/portwarden/store"
)

var (
	ErrNotFound      = errors.New("incident not found")
	ErrInvalidStatus = errors.New("invalid incident status")
)

var incidentSchema = []string{
	`CREATE TABLE IF NOT EXISTS incidents (
		id TEXT PRIMARY KEY,
		display_id TEXT NOT NULL,
		title TEXT NOT NULL,
		summary TEXT NOT NULL,
		channel TEXT NOT NULL DEFAULT '',
		severity TEXT NOT NULL DEFAULT '',
		persona TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'open',
		occurred_at TEXT NOT NULL,
		ingestion TEXT NOT NULL DEFAULT '[]',
		correlated_evidence TEXT NOT NULL DEFAULT '[]',
		knowledge_base TEXT NOT NULL DEFAULT '[]',
		recommended_actions TEXT NOT NULL DEFAULT '[]',
		escalation TEXT NOT NULL DEFAULT '{}',
		rag_extract TEXT NOT NULL DEFAULT '',
		ai_playbook TEXT,
		ai_escalation TEXT,
		ai_escalation_likelihood TEXT NOT NULL DEFAULT 'unknown',
		ai_contact_category TEXT NOT NULL DEFAULT '',
		ai_contact_code TEXT NOT NULL DEFAULT '',
		ai_contact_name TEXT NOT NULL DEFAULT '',
		ai_contact_email TEXT NOT NULL DEFAULT '',
		ai_contact_role TEXT NOT NULL DEFAULT '',
		ai_escalation_subject TEXT NOT NULL DEFAULT '',
		ai_escalation_message TEXT NOT NULL DEFAULT '',
		ai_escalation_reasoning TEXT NOT NULL DEFAULT '',
		ai_description TEXT NOT NULL DEFAULT '',
		archived_at TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_incidents_occurred_at ON incidents (occurred_at)`,
}

type Store struct {
	db *sqlx.DB
	sb sq.StatementBuilderType
}

func NewStore(db *sqlx.DB) (*Store, error) {
	s := &Store{db: db, sb: store.Builder(db)}
	for _, stmt := range incidentSchema {
		if _, err := db.Exec(stmt); err != nil {
			return nil, errors.Wrap(err, "failed to ensure incidents schema")
		}
	}
	return s, nil
}

type incidentRow struct {
	ID                     string         `db:"id"`
	DisplayID              string         `db:"display_id"`
	Title                  string         `db:"title"`
	Summary                string         `db:"summary"`
	Channel                string         `db:"channel"`
	Severity               string         `db:"severity"`
	Persona                string         `db:"persona"`
	Status                 string         `db:"status"`
	OccurredAt             string         `db:"occurred_at"`
	Ingestion              string         `db:"ingestion"`
	CorrelatedEvidence     string         `db:"correlated_evidence"`
	KnowledgeBase          string         `db:"knowledge_base"`
	RecommendedActions     string         `db:"recommended_actions"`
	Escalation             string         `db:"escalation"`
	RagExtract             string         `db:"rag_extract"`
	AIPlaybook             sql.NullString `db:"ai_playbook"`
	AIEscalation           sql.NullString `db:"ai_escalation"`
	AIEscalationLikelihood string         `db:"ai_escalation_likelihood"`
	AIContactCategory      string         `db:"ai_contact_category"`
	AIContactCode          string         `db:"ai_contact_code"`
	AIContactName          string         `db:"ai_contact_name"`
	AIContactEmail         string         `db:"ai_contact_email"`
	AIContactRole          string         `db:"ai_contact_role"`
	AIEscalationSubject    string         `db:"ai_escalation_subject"`
	AIEscalationMessage    string         `db:"ai_escalation_message"`
	AIEscalationReasoning  string         `db:"ai_escalation_reasoning"`
	AIDescription          string         `db:"ai_description"`
	ArchivedAt             sql.NullString `db:"archived_at"`
}

var incidentColumns = []string{
	"id", "display_id", "title", "summary", "channel", "severity", "persona",
	"status", "occurred_at", "ingestion", "correlated_evidence", "knowledge_base",
	"recommended_actions", "escalation", "rag_extract", "ai_playbook",
	"ai_escalation", "ai_escalation_likelihood", "ai_contact_category",
	"ai_contact_code", "ai_contact_name", "ai_contact_email", "ai_contact_role",
	"ai_escalation_subject", "ai_escalation_message", "ai_escalation_reasoning",
	"ai_description", "archived_at",
}

func (s *Store) Save(ctx context.Context, incident *Incident) error {
	ingestion, err := json.Marshal(incident.Ingestion)
	if err != nil {
		return errors.Wrap(err, "failed to marshal ingestion fields")
	}
	evidence, err := json.Marshal(incident.CorrelatedEvidence)
	if err != nil {
		return errors.Wrap(err, "failed to marshal evidence")
	}
	knowledge, err := json.Marshal(incident.KnowledgeBase)
	if err != nil {
		return errors.Wrap(err, "failed to marshal knowledge refs")
	}
	actions, err := json.Marshal(incident.RecommendedActions)
	if err != nil {
		return errors.Wrap(err, "failed to marshal recommended actions")
	}
	escalation, err := json.Marshal(incident.Escalation)
	if err != nil {
		return errors.Wrap(err, "failed to marshal escalation info")
	}

	status := incident.Status
	if status == "" {
		status = StatusOpen
	}

	var archivedAt interface{}
	if incident.ArchivedAt != nil {
		archivedAt = store.FormatTime(*incident.ArchivedAt)
	}

	_, err = s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO incidents
			(id, display_id, title, summary, channel, severity, persona, status,
			 occurred_at, ingestion, correlated_evidence, knowledge_base,
			 recommended_actions, escalation, rag_extract, archived_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			display_id = excluded.display_id,
			title = excluded.title,
			summary = excluded.summary,
			channel = excluded.channel,
			severity = excluded.severity,
			persona = excluded.persona,
			status = excluded.status,
			occurred_at = excluded.occurred_at,
			ingestion = excluded.ingestion,
			correlated_evidence = excluded.correlated_evidence,
			knowledge_base = excluded.knowledge_base,
			recommended_actions = excluded.recommended_actions,
			escalation = excluded.escalation,
			rag_extract = excluded.rag_extract,
			archived_at = excluded.archived_at`),
		incident.ID, incident.DisplayID, incident.Title, incident.Summary,
		incident.Channel, incident.Severity, incident.Persona, status,
		store.FormatTime(incident.OccurredAt), string(ingestion), string(evidence),
		string(knowledge), string(actions), string(escalation),
		incident.RagExtract, archivedAt)
	return errors.Wrap(err, "failed to save incident")
}

func (s *Store) Get(ctx context.Context, id string) (*Incident, error) {
	query, args, err := s.sb.Select(incidentColumns...).
		From("incidents").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "failed to build incident query")
	}

	var row incidentRow
	if err := s.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to load incident")
	}
	return row.toIncident()
}

// List returns a page of incident summaries plus the unarchived total.
func (s *Store) List(ctx context.Context, page, pageSize int) ([]Summary, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}

	var total int
	if err := s.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM incidents WHERE archived_at IS NULL`); err != nil {
		return nil, 0, errors.Wrap(err, "failed to count incidents")
	}

	query, args, err := s.sb.Select("id", "title", "summary", "status", "severity", "occurred_at").
		From("incidents").
		Where("archived_at IS NULL").
		OrderBy("occurred_at DESC", "id ASC").
		Limit(uint64(pageSize)).
		Offset(uint64((page - 1) * pageSize)).
		ToSql()
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to build incident list query")
	}

	var rows []struct {
		ID         string `db:"id"`
		Title      string `db:"title"`
		Summary    string `db:"summary"`
		Status     string `db:"status"`
		Severity   string `db:"severity"`
		OccurredAt string `db:"occurred_at"`
	}
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, errors.Wrap(err, "failed to list incidents")
	}

	summaries := make([]Summary, 0, len(rows))
	for _, row := range rows {
		occurredAt, err := store.ParseTime(row.OccurredAt)
		if err != nil {
			return nil, 0, errors.Wrap(err, "failed to parse incident timestamp")
		}
		summaries = append(summaries, Summary{
			ID:          row.ID,
			Title:       row.Title,
			Description: row.Summary,
			Status:      row.Status,
			Severity:    row.Severity,
			CreatedAt:   occurredAt,
		})
	}
	return summaries, total, nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM incidents WHERE archived_at IS NULL`)
	return count, errors.Wrap(err, "failed to count incidents")
}

func (s *Store) UpdateStatus(ctx context.Context, id, status string) error {
	switch status {
	case StatusOpen, StatusInProgress, StatusResolved:
	default:
		return errors.Wrapf(ErrInvalidStatus, "%q", status)
	}
	result, err := s.db.ExecContext(ctx, s.db.Rebind(
		`UPDATE incidents SET status = ? WHERE id = ?`), status, id)
	if err != nil {
		return errors.Wrap(err, "failed to update incident status")
	}
	return requireRowChanged(result)
}

func (s *Store) Archive(ctx context.Context, id string, archivedAt time.Time) error {
	result, err := s.db.ExecContext(ctx, s.db.Rebind(
		`UPDATE incidents SET archived_at = ? WHERE id = ? AND archived_at IS NULL`), store.FormatTime(archivedAt), id)
	if err != nil {
		return errors.Wrap(err, "failed to archive incident")
	}
	return requireRowChanged(result)
}

func (s *Store) Unarchive(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, s.db.Rebind(
		`UPDATE incidents SET archived_at = NULL WHERE id = ? AND archived_at IS NOT NULL`), id)
	if err != nil {
		return errors.Wrap(err, "failed to unarchive incident")
	}
	return requireRowChanged(result)
}

// UpdatePlaybook attaches a sanitized playbook document. The playbook and
// any embedded escalation plan are written in one transaction so a failure
// leaves nothing partial.
func (s *Store) UpdatePlaybook(ctx context.Context, id string, payload *playbook.Payload) error {
	document, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "failed to marshal playbook payload")
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, tx.Rebind(`
		UPDATE incidents SET
			ai_playbook = ?,
			ai_description = ?
		WHERE id = ?`),
		string(document), payload.AIDescription, id)
	if err != nil {
		return errors.Wrap(err, "failed to update incident playbook")
	}
	if err := requireRowChanged(result); err != nil {
		return err
	}

	if payload.EscalationPlan != nil {
		if err := writeEscalation(ctx, tx, id, payload.EscalationPlan); err != nil {
			return err
		}
	}

	return errors.Wrap(tx.Commit(), "failed to commit playbook update")
}

// UpdateEscalation attaches a sanitized escalation plan, flattening the
// contact and messaging fields alongside the full document.
func (s *Store) UpdateEscalation(ctx context.Context, id string, plan *playbook.EscalationPlan) error {
	return writeEscalation(ctx, s.db, id, plan)
}

func writeEscalation(ctx context.Context, ext sqlx.ExtContext, id string, plan *playbook.EscalationPlan) error {
	document, err := json.Marshal(plan)
	if err != nil {
		return errors.Wrap(err, "failed to marshal escalation plan")
	}

	result, err := ext.ExecContext(ctx, ext.Rebind(`
		UPDATE incidents SET
			ai_escalation = ?,
			ai_escalation_likelihood = ?,
			ai_contact_category = ?,
			ai_contact_code = ?,
			ai_contact_name = ?,
			ai_contact_email = ?,
			ai_contact_role = ?,
			ai_escalation_subject = ?,
			ai_escalation_message = ?,
			ai_escalation_reasoning = ?
		WHERE id = ?`),
		string(document), string(plan.Likelihood), plan.Category, plan.CategoryCode,
		plan.PrimaryContact.Name, plan.PrimaryContact.Email, plan.PrimaryContact.Role,
		plan.RecommendedSubject, plan.RecommendedMessage, plan.Reasoning, id)
	if err != nil {
		return errors.Wrap(err, "failed to update incident escalation")
	}
	return requireRowChanged(result)
}

func requireRowChanged(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read affected rows")
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *incidentRow) toIncident() (*Incident, error) {
	occurredAt, err := store.ParseTime(r.OccurredAt)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse incident timestamp")
	}

	incident := &Incident{
		ID:         r.ID,
		DisplayID:  r.DisplayID,
		Title:      r.Title,
		Summary:    r.Summary,
		Channel:    r.Channel,
		Severity:   r.Severity,
		Persona:    r.Persona,
		Status:     r.Status,
		OccurredAt: occurredAt,
		RagExtract: r.RagExtract,
		AI: AIArtifacts{
			EscalationLikelihood: playbook.Likelihood(r.AIEscalationLikelihood),
			ContactCategory:      r.AIContactCategory,
			ContactCode:          r.AIContactCode,
			ContactName:          r.AIContactName,
			ContactEmail:         r.AIContactEmail,
			ContactRole:          r.AIContactRole,
			EscalationSubject:    r.AIEscalationSubject,
			EscalationMessage:    r.AIEscalationMessage,
			EscalationReasoning:  r.AIEscalationReasoning,
			Description:          r.AIDescription,
		},
	}

	if err := json.Unmarshal([]byte(r.Ingestion), &incident.Ingestion); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal ingestion fields")
	}
	if err := json.Unmarshal([]byte(r.CorrelatedEvidence), &incident.CorrelatedEvidence); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal evidence")
	}
	if err := json.Unmarshal([]byte(r.KnowledgeBase), &incident.KnowledgeBase); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal knowledge refs")
	}
	if err := json.Unmarshal([]byte(r.RecommendedActions), &incident.RecommendedActions); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal recommended actions")
	}
	if err := json.Unmarshal([]byte(r.Escalation), &incident.Escalation); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal escalation info")
	}

	if r.AIPlaybook.Valid && r.AIPlaybook.String != "" {
		var payload playbook.Payload
		if err := json.Unmarshal([]byte(r.AIPlaybook.String), &payload); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal playbook payload")
		}
		incident.AI.Playbook = &payload
	}
	if r.AIEscalation.Valid && r.AIEscalation.String != "" {
		var plan playbook.EscalationPlan
		if err := json.Unmarshal([]byte(r.AIEscalation.String), &plan); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal escalation plan")
		}
		incident.AI.Escalation = &plan
	}
	if r.ArchivedAt.Valid {
		archivedAt, err := store.ParseTime(r.ArchivedAt.String)
		if err != nil {
			return nil, errors.Wrap(err, "failed to parse archive timestamp")
		}
		incident.ArchivedAt = &archivedAt
	}

	return incident, nil
}
