// Copyright (c) 2023-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package kbtracker

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/portwarden/portwarden/store"
)

type ArticleMetric struct {
	Title             string `json:"title"`
	Effectiveness     int    `json:"effectiveness"`
	AccessCount       int    `json:"accessCount"`
	SuccessRate       int    `json:"successRate"`
	AvgResolutionTime int    `json:"avgResolutionTime"`
}

type ReviewCandidate struct {
	Title         string   `json:"title"`
	Effectiveness int      `json:"effectiveness"`
	AccessCount   int      `json:"accessCount"`
	SuccessRate   int      `json:"successRate"`
	Issues        []string `json:"issues"`
}

type ArticleCount struct {
	Title string `json:"title"`
	Count int    `json:"count"`
}

type EffectivenessDistribution struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

type UsageAnalytics struct {
	Period           string                    `json:"period"`
	TotalAccess      int                       `json:"totalAccess"`
	UniqueArticles   int                       `json:"uniqueArticles"`
	TopArticles      []ArticleCount            `json:"topArticles"`
	ContextBreakdown map[string]int            `json:"contextBreakdown"`
	Effectiveness    EffectivenessDistribution `json:"effectiveness"`
}

type Recommendation struct {
	Type        string   `json:"type"`
	Priority    string   `json:"priority"`
	Description string   `json:"description"`
	Articles    []string `json:"articles,omitempty"`
	Context     string   `json:"context,omitempty"`
	SearchCount int      `json:"searchCount,omitempty"`
}

type articleRow struct {
	Title         string `db:"title"`
	AccessCount   int    `db:"access_count"`
	Effectiveness int    `db:"effectiveness"`
}

type sampleStats struct {
	successRate int
	avgMinutes  int
	outdated    bool
}

// MostEffectiveArticles returns the highest scoring articles, optionally
// restricted to ones that have been accessed in the given context.
func (t *Tracker) MostEffectiveArticles(ctx context.Context, accessContext string, limit int) ([]ArticleMetric, error) {
	if limit <= 0 {
		limit = 5
	}

	builder := t.sb.Select("a.title", "a.access_count", "a.effectiveness").
		From("kb_articles a").
		OrderBy("a.effectiveness DESC", "a.title ASC").
		Limit(uint64(limit))
	if accessContext != "" {
		builder = builder.
			Join("kb_article_contexts c ON c.article_title = a.title").
			Where(sq.Eq{"c.context": accessContext}).
			Where(sq.Gt{"c.access_count": 0})
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "failed to build effective articles query")
	}

	var rows []articleRow
	if err := t.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "failed to query effective articles")
	}

	result := make([]ArticleMetric, 0, len(rows))
	for _, row := range rows {
		stats, err := t.loadSampleStats(ctx, row.Title)
		if err != nil {
			return nil, err
		}
		result = append(result, ArticleMetric{
			Title:             row.Title,
			Effectiveness:     row.Effectiveness,
			AccessCount:       row.AccessCount,
			SuccessRate:       stats.successRate,
			AvgResolutionTime: stats.avgMinutes,
		})
	}
	return result, nil
}

// ArticlesNeedingReview flags articles that are used often enough to matter
// but keep scoring poorly, worst first.
func (t *Tracker) ArticlesNeedingReview(ctx context.Context) ([]ReviewCandidate, error) {
	query, args, err := t.sb.Select("title", "access_count", "effectiveness").
		From("kb_articles").
		Where(sq.GtOrEq{"access_count": 3}).
		Where(sq.Lt{"effectiveness": 50}).
		OrderBy("effectiveness ASC", "title ASC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "failed to build review query")
	}

	var rows []articleRow
	if err := t.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "failed to query articles needing review")
	}

	result := make([]ReviewCandidate, 0, len(rows))
	for _, row := range rows {
		stats, err := t.loadSampleStats(ctx, row.Title)
		if err != nil {
			return nil, err
		}
		result = append(result, ReviewCandidate{
			Title:         row.Title,
			Effectiveness: row.Effectiveness,
			AccessCount:   row.AccessCount,
			SuccessRate:   stats.successRate,
			Issues:        articleIssues(stats),
		})
	}
	return result, nil
}

// Analytics aggregates usage over the trailing window for reporting.
func (t *Tracker) Analytics(ctx context.Context, days int) (*UsageAnalytics, error) {
	if days <= 0 {
		days = 7
	}
	cutoff := store.FormatTime(t.now().UTC().AddDate(0, 0, -days))

	var events []struct {
		ArticleTitle string `db:"article_title"`
		Context      string `db:"context"`
	}
	err := t.db.SelectContext(ctx, &events, t.db.Rebind(
		`SELECT article_title, context FROM kb_usage_events WHERE occurred_at > ?`), cutoff)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query usage events")
	}

	byArticle := map[string]int{}
	byContext := map[string]int{}
	for _, event := range events {
		byArticle[event.ArticleTitle]++
		byContext[event.Context]++
	}

	top := make([]ArticleCount, 0, len(byArticle))
	for title, count := range byArticle {
		top = append(top, ArticleCount{Title: title, Count: count})
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Count != top[j].Count {
			return top[i].Count > top[j].Count
		}
		return top[i].Title < top[j].Title
	})
	if len(top) > 10 {
		top = top[:10]
	}

	var scores []int
	if err := t.db.SelectContext(ctx, &scores, `SELECT effectiveness FROM kb_articles`); err != nil {
		return nil, errors.Wrap(err, "failed to query effectiveness scores")
	}
	var distribution EffectivenessDistribution
	for _, score := range scores {
		switch {
		case score >= 70:
			distribution.High++
		case score >= 40:
			distribution.Medium++
		default:
			distribution.Low++
		}
	}

	return &UsageAnalytics{
		Period:           fmt.Sprintf("%d days", days),
		TotalAccess:      len(events),
		UniqueArticles:   len(byArticle),
		TopArticles:      top,
		ContextBreakdown: byContext,
		Effectiveness:    distribution,
	}, nil
}

// Recommendations surfaces knowledge-base gaps: heavily used articles that
// underperform, and busy contexts with no strong article behind them.
func (t *Tracker) Recommendations(ctx context.Context) ([]Recommendation, error) {
	query, args, err := t.sb.Select("title").
		From("kb_articles").
		Where(sq.GtOrEq{"access_count": 5}).
		Where(sq.Lt{"effectiveness": 60}).
		OrderBy("effectiveness ASC", "title ASC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "failed to build recommendations query")
	}
	var problematic []string
	if err := t.db.SelectContext(ctx, &problematic, query, args...); err != nil {
		return nil, errors.Wrap(err, "failed to query underperforming articles")
	}

	var recommendations []Recommendation
	if len(problematic) > 0 {
		recommendations = append(recommendations, Recommendation{
			Type:        "update_articles",
			Priority:    "high",
			Description: fmt.Sprintf("%d frequently accessed articles have low effectiveness", len(problematic)),
			Articles:    problematic,
		})
	}

	var contexts []struct {
		Context string `db:"context"`
		Count   int    `db:"count"`
	}
	err = t.db.SelectContext(ctx, &contexts, `
		SELECT context, COUNT(*) AS count FROM kb_usage_events
		GROUP BY context
		ORDER BY count DESC, context ASC
		LIMIT 5`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query top contexts")
	}

	for _, entry := range contexts {
		best, err := t.MostEffectiveArticles(ctx, entry.Context, 1)
		if err != nil {
			return nil, err
		}
		if len(best) == 0 || best[0].Effectiveness < 70 {
			recommendations = append(recommendations, Recommendation{
				Type:        "create_article",
				Priority:    "medium",
				Description: fmt.Sprintf("High demand for %s content but no highly effective articles", entry.Context),
				Context:     entry.Context,
				SearchCount: entry.Count,
			})
		}
	}

	return recommendations, nil
}

// loadSampleStats summarizes the full correlation history of an article,
// unlike the effectiveness score which only looks at the recent window.
func (t *Tracker) loadSampleStats(ctx context.Context, articleTitle string) (sampleStats, error) {
	var samples []struct {
		Successful        int     `db:"successful"`
		ResolutionMinutes float64 `db:"resolution_minutes"`
		Feedback          string  `db:"feedback"`
	}
	err := t.db.SelectContext(ctx, &samples, t.db.Rebind(`
		SELECT successful, resolution_minutes, feedback FROM kb_resolution_samples
		WHERE article_title = ?`), articleTitle)
	if err != nil {
		return sampleStats{}, errors.Wrap(err, "failed to load resolution samples")
	}
	if len(samples) == 0 {
		return sampleStats{}, nil
	}

	successes := 0
	totalMinutes := 0.0
	outdated := false
	for _, sample := range samples {
		if sample.Successful != 0 {
			successes++
		}
		totalMinutes += sample.ResolutionMinutes
		if strings.Contains(sample.Feedback, "outdated") {
			outdated = true
		}
	}
	return sampleStats{
		successRate: int(math.Round(float64(successes) / float64(len(samples)) * 100)),
		avgMinutes:  int(math.Round(totalMinutes / float64(len(samples)))),
		outdated:    outdated,
	}, nil
}

func articleIssues(stats sampleStats) []string {
	var issues []string
	if stats.successRate < 60 {
		issues = append(issues, "Low resolution success rate")
	}
	if stats.avgMinutes > 90 {
		issues = append(issues, "Long average resolution time")
	}
	if stats.outdated {
		issues = append(issues, "Feedback indicates outdated information")
	}
	return issues
}
