// Copyright (c) 2023-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package validation

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/portwarden/portwarden/store"
)

var resultSchema = []string{
	`CREATE TABLE IF NOT EXISTS validation_results (
		test_id TEXT PRIMARY KEY,
		occurred_at TEXT NOT NULL,
		query TEXT NOT NULL,
		ai_response TEXT NOT NULL,
		module TEXT NOT NULL,
		expected_outcome TEXT NOT NULL DEFAULT '',
		results TEXT NOT NULL,
		overall_score INTEGER NOT NULL,
		passed INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_validation_results_occurred_at ON validation_results (occurred_at)`,
}

// SQLResultStore keeps the validation history in the shared database so the
// summary endpoint can aggregate across restarts.
type SQLResultStore struct {
	db *sqlx.DB
}

func NewSQLResultStore(db *sqlx.DB) (*SQLResultStore, error) {
	for _, stmt := range resultSchema {
		if _, err := db.Exec(stmt); err != nil {
			return nil, errors.Wrap(err, "failed to ensure validation schema")
		}
	}
	return &SQLResultStore{db: db}, nil
}

func (s *SQLResultStore) SaveValidationResult(ctx context.Context, result *Result) error {
	categoryJSON, err := json.Marshal(result.Results)
	if err != nil {
		return errors.Wrap(err, "failed to marshal category results")
	}

	passed := 0
	if result.Passed {
		passed = 1
	}
	_, err = s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO validation_results
			(test_id, occurred_at, query, ai_response, module, expected_outcome, results, overall_score, passed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (test_id) DO UPDATE SET
			occurred_at = excluded.occurred_at,
			query = excluded.query,
			ai_response = excluded.ai_response,
			module = excluded.module,
			expected_outcome = excluded.expected_outcome,
			results = excluded.results,
			overall_score = excluded.overall_score,
			passed = excluded.passed`),
		result.TestID,
		store.FormatTime(result.Timestamp),
		result.Query,
		result.AIResponse,
		result.Module,
		result.ExpectedOutcome,
		string(categoryJSON),
		result.OverallScore,
		passed)
	return errors.Wrap(err, "failed to save validation result")
}

func (s *SQLResultStore) ValidationSummary(ctx context.Context) (Summary, error) {
	var row struct {
		Total    int             `db:"total"`
		Passed   int             `db:"passed"`
		AvgScore sql.NullFloat64 `db:"avg_score"`
		LastRun  sql.NullString  `db:"last_run"`
	}
	err := s.db.GetContext(ctx, &row, `
		SELECT
			COUNT(*) AS total,
			COALESCE(SUM(passed), 0) AS passed,
			AVG(overall_score) AS avg_score,
			MAX(occurred_at) AS last_run
		FROM validation_results`)
	if err != nil {
		return Summary{}, errors.Wrap(err, "failed to aggregate validation results")
	}

	summary := Summary{
		TotalTests:  row.Total,
		PassedTests: row.Passed,
		FailedTests: row.Total - row.Passed,
	}
	if row.AvgScore.Valid {
		summary.AvgScore = int(row.AvgScore.Float64 + 0.5)
	}
	if row.LastRun.Valid {
		summary.LastRun, err = store.ParseTime(row.LastRun.String)
		if err != nil {
			return Summary{}, errors.Wrap(err, "failed to parse last run timestamp")
		}
	}
	return summary, nil
}

// RecentResults returns the newest validation results, most recent first.
func (s *SQLResultStore) RecentResults(ctx context.Context, limit int) ([]*Result, error) {
	if limit <= 0 {
		limit = 20
	}
	var rows []struct {
		TestID          string `db:"test_id"`
		OccurredAt      string `db:"occurred_at"`
		Query           string `db:"query"`
		AIResponse      string `db:"ai_response"`
		Module          string `db:"module"`
		ExpectedOutcome string `db:"expected_outcome"`
		Results         string `db:"results"`
		OverallScore    int    `db:"overall_score"`
		Passed          int    `db:"passed"`
	}
	err := s.db.SelectContext(ctx, &rows, s.db.Rebind(`
		SELECT test_id, occurred_at, query, ai_response, module, expected_outcome, results, overall_score, passed
		FROM validation_results
		ORDER BY occurred_at DESC
		LIMIT ?`), limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load recent validation results")
	}

	results := make([]*Result, 0, len(rows))
	for _, row := range rows {
		occurredAt, err := store.ParseTime(row.OccurredAt)
		if err != nil {
			return nil, errors.Wrap(err, "failed to parse result timestamp")
		}
		var categories map[string]CategoryResult
		if err := json.Unmarshal([]byte(row.Results), &categories); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal category results")
		}
		results = append(results, &Result{
			TestID:          row.TestID,
			Timestamp:       occurredAt,
			Query:           row.Query,
			AIResponse:      row.AIResponse,
			Module:          row.Module,
			ExpectedOutcome: row.ExpectedOutcome,
			Results:         categories,
			OverallScore:    row.OverallScore,
			Passed:          row.Passed != 0,
		})
	}
	return results, nil
}
