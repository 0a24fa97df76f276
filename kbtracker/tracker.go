// Copyright (c) 2023-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

// Package kbtracker records knowledge-base article usage and correlates it
// with incident resolution outcomes. Every write is a single transaction
// with in-place increments, so concurrent tracking calls cannot clobber
// each other's updates.
package kbtracker

import (
	"context"
	"math"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/portwarden/portwarden/store"
)

const (
	// usageRetention bounds the usage event log; events older than this are
	// pruned as a side effect of every write.
	usageRetention = 30 * 24 * time.Hour

	// effectivenessWindow is the number of most recent resolution samples
	// the effectiveness score is computed from.
	effectivenessWindow = 10
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS kb_articles (
		title TEXT PRIMARY KEY,
		access_count INTEGER NOT NULL DEFAULT 0,
		effectiveness INTEGER NOT NULL DEFAULT 0,
		first_accessed TEXT NOT NULL,
		last_accessed TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS kb_article_contexts (
		article_title TEXT NOT NULL,
		context TEXT NOT NULL,
		access_count INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (article_title, context)
	)`,
	`CREATE TABLE IF NOT EXISTS kb_usage_events (
		occurred_at TEXT NOT NULL,
		article_title TEXT NOT NULL,
		context TEXT NOT NULL,
		session_id TEXT NOT NULL DEFAULT '',
		day TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_kb_usage_events_occurred_at ON kb_usage_events (occurred_at)`,
	`CREATE TABLE IF NOT EXISTS kb_resolution_samples (
		article_title TEXT NOT NULL,
		occurred_at TEXT NOT NULL,
		successful INTEGER NOT NULL,
		resolution_minutes REAL NOT NULL,
		feedback TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_kb_resolution_samples_article ON kb_resolution_samples (article_title, occurred_at)`,
}

type Tracker struct {
	db  *sqlx.DB
	sb  sq.StatementBuilderType
	log *logrus.Logger

	// now is swapped out by tests.
	now func() time.Time
}

func New(db *sqlx.DB, log *logrus.Logger) (*Tracker, error) {
	t := &Tracker{
		db:  db,
		sb:  store.Builder(db),
		log: log,
		now: time.Now,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return nil, errors.Wrap(err, "failed to ensure kb tracker schema")
		}
	}
	return t, nil
}

// TrackArticleAccess increments the article's counters, appends a usage
// event and prunes events past retention, all in one transaction.
func (t *Tracker) TrackArticleAccess(ctx context.Context, articleTitle, accessContext, sessionID string) error {
	if articleTitle == "" {
		return nil
	}
	if accessContext == "" {
		accessContext = "search"
	}

	now := t.now().UTC()
	timestamp := store.FormatTime(now)
	day := now.Format("2006-01-02")

	tx, err := t.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin access tracking transaction")
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx, t.db.Rebind(`
		INSERT INTO kb_articles (title, access_count, effectiveness, first_accessed, last_accessed)
		VALUES (?, 1, 0, ?, ?)
		ON CONFLICT (title) DO UPDATE SET
			access_count = kb_articles.access_count + 1,
			last_accessed = excluded.last_accessed`),
		articleTitle, timestamp, timestamp)
	if err != nil {
		return errors.Wrap(err, "failed to upsert article metrics")
	}

	_, err = tx.ExecContext(ctx, t.db.Rebind(`
		INSERT INTO kb_article_contexts (article_title, context, access_count)
		VALUES (?, ?, 1)
		ON CONFLICT (article_title, context) DO UPDATE SET
			access_count = kb_article_contexts.access_count + 1`),
		articleTitle, accessContext)
	if err != nil {
		return errors.Wrap(err, "failed to upsert article context histogram")
	}

	_, err = tx.ExecContext(ctx, t.db.Rebind(`
		INSERT INTO kb_usage_events (occurred_at, article_title, context, session_id, day)
		VALUES (?, ?, ?, ?, ?)`),
		timestamp, articleTitle, accessContext, sessionID, day)
	if err != nil {
		return errors.Wrap(err, "failed to append usage event")
	}

	cutoff := store.FormatTime(now.Add(-usageRetention))
	if _, err = tx.ExecContext(ctx, t.db.Rebind(
		`DELETE FROM kb_usage_events WHERE occurred_at < ?`), cutoff); err != nil {
		return errors.Wrap(err, "failed to prune usage events")
	}

	return errors.Wrap(tx.Commit(), "failed to commit access tracking")
}

// TrackResolutionOutcome appends a correlation sample and recomputes the
// article's effectiveness from its most recent samples. Unknown articles
// are a no-op.
func (t *Tracker) TrackResolutionOutcome(ctx context.Context, articleTitle string, wasSuccessful bool, resolutionTimeMinutes float64, feedback string) error {
	tx, err := t.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin outcome tracking transaction")
	}
	defer tx.Rollback() //nolint:errcheck

	var exists int
	err = tx.GetContext(ctx, &exists, t.db.Rebind(
		`SELECT COUNT(*) FROM kb_articles WHERE title = ?`), articleTitle)
	if err != nil {
		return errors.Wrap(err, "failed to look up article")
	}
	if exists == 0 {
		return nil
	}

	successful := 0
	if wasSuccessful {
		successful = 1
	}
	_, err = tx.ExecContext(ctx, t.db.Rebind(`
		INSERT INTO kb_resolution_samples (article_title, occurred_at, successful, resolution_minutes, feedback)
		VALUES (?, ?, ?, ?, ?)`),
		articleTitle, store.FormatTime(t.now()), successful, resolutionTimeMinutes, feedback)
	if err != nil {
		return errors.Wrap(err, "failed to append resolution sample")
	}

	var recent []struct {
		Successful        int     `db:"successful"`
		ResolutionMinutes float64 `db:"resolution_minutes"`
	}
	err = tx.SelectContext(ctx, &recent, t.db.Rebind(`
		SELECT successful, resolution_minutes FROM kb_resolution_samples
		WHERE article_title = ?
		ORDER BY occurred_at DESC
		LIMIT ?`),
		articleTitle, effectivenessWindow)
	if err != nil {
		return errors.Wrap(err, "failed to load recent resolution samples")
	}

	successes := 0
	totalMinutes := 0.0
	for _, sample := range recent {
		if sample.Successful != 0 {
			successes++
		}
		totalMinutes += sample.ResolutionMinutes
	}
	effectiveness := effectivenessScore(successes, len(recent), totalMinutes)

	_, err = tx.ExecContext(ctx, t.db.Rebind(
		`UPDATE kb_articles SET effectiveness = ? WHERE title = ?`),
		effectiveness, articleTitle)
	if err != nil {
		return errors.Wrap(err, "failed to update effectiveness")
	}

	return errors.Wrap(tx.Commit(), "failed to commit outcome tracking")
}

// effectivenessScore weights success rate against resolution speed. The 70/30
// split and the 120 minute ceiling are inherited product constants.
func effectivenessScore(successes, count int, totalMinutes float64) int {
	if count == 0 {
		return 0
	}
	successRate := float64(successes) / float64(count)
	avgMinutes := totalMinutes / float64(count)
	timeBonus := (120 - math.Min(avgMinutes, 120)) / 120 * 30
	return int(math.Round(successRate*70 + timeBonus))
}
