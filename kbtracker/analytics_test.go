// Copyright (c) 2023-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package kbtracker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedArticle(t *testing.T, tracker *Tracker, title, accessContext string, accesses int, outcomes []bool, minutes float64) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < accesses; i++ {
		require.NoError(t, tracker.TrackArticleAccess(ctx, title, accessContext, ""))
	}
	for _, successful := range outcomes {
		require.NoError(t, tracker.TrackResolutionOutcome(ctx, title, successful, minutes, ""))
	}
}

func TestMostEffectiveArticles(t *testing.T) {
	tracker := newTestTracker(t)
	ctx := context.Background()

	current := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	tracker.now = func() time.Time { current = current.Add(time.Second); return current }

	seedArticle(t, tracker, "Strong Article", "incident", 4, []bool{true, true, true, true}, 20)
	seedArticle(t, tracker, "Weak Article", "incident", 4, []bool{false, false, false, true}, 100)
	seedArticle(t, tracker, "Other Context", "configuration", 2, []bool{true, true}, 10)

	articles, err := tracker.MostEffectiveArticles(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, articles, 3)
	assert.Equal(t, "Other Context", articles[0].Title)
	assert.Equal(t, "Strong Article", articles[1].Title)
	assert.Equal(t, "Weak Article", articles[2].Title)

	assert.Equal(t, 100, articles[1].SuccessRate)
	assert.Equal(t, 20, articles[1].AvgResolutionTime)
	assert.Equal(t, 4, articles[1].AccessCount)

	incidentOnly, err := tracker.MostEffectiveArticles(ctx, "incident", 10)
	require.NoError(t, err)
	require.Len(t, incidentOnly, 2)
	assert.Equal(t, "Strong Article", incidentOnly[0].Title)

	limited, err := tracker.MostEffectiveArticles(ctx, "", 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
}

func TestArticlesNeedingReview(t *testing.T) {
	tracker := newTestTracker(t)
	ctx := context.Background()

	current := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	tracker.now = func() time.Time { current = current.Add(time.Second); return current }

	// Low effectiveness but only two accesses, below the review floor.
	seedArticle(t, tracker, "Rarely Used", "incident", 2, []bool{false, false}, 110)
	// Popular and failing, should be flagged.
	seedArticle(t, tracker, "Stale Runbook", "incident", 5, []bool{false, false, false, true}, 100)
	// Popular and healthy.
	seedArticle(t, tracker, "Good Runbook", "incident", 5, []bool{true, true, true}, 15)

	require.NoError(t, tracker.TrackResolutionOutcome(ctx, "Stale Runbook", false, 100, "this page is outdated"))

	flagged, err := tracker.ArticlesNeedingReview(ctx)
	require.NoError(t, err)
	require.Len(t, flagged, 1)
	assert.Equal(t, "Stale Runbook", flagged[0].Title)
	assert.Equal(t, 5, flagged[0].AccessCount)
	assert.Equal(t, []string{
		"Low resolution success rate",
		"Long average resolution time",
		"Feedback indicates outdated information",
	}, flagged[0].Issues)
}

func TestAnalytics(t *testing.T) {
	tracker := newTestTracker(t)
	ctx := context.Background()

	current := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)
	tracker.now = func() time.Time { return current }

	require.NoError(t, tracker.TrackArticleAccess(ctx, "Aged Out", "search", ""))

	current = current.AddDate(0, 0, 10)
	seedArticle(t, tracker, "Popular", "incident", 3, []bool{true, true}, 10)
	seedArticle(t, tracker, "Occasional", "troubleshooting", 1, []bool{false, false}, 115)

	analytics, err := tracker.Analytics(ctx, 7)
	require.NoError(t, err)

	assert.Equal(t, "7 days", analytics.Period)
	assert.Equal(t, 4, analytics.TotalAccess)
	assert.Equal(t, 2, analytics.UniqueArticles)
	require.NotEmpty(t, analytics.TopArticles)
	assert.Equal(t, ArticleCount{Title: "Popular", Count: 3}, analytics.TopArticles[0])
	assert.Equal(t, map[string]int{"incident": 3, "troubleshooting": 1}, analytics.ContextBreakdown)

	// Popular scores high, Occasional scores low, Aged Out has no samples.
	assert.Equal(t, 1, analytics.Effectiveness.High)
	assert.Equal(t, 0, analytics.Effectiveness.Medium)
	assert.Equal(t, 2, analytics.Effectiveness.Low)
}

func TestRecommendations(t *testing.T) {
	tracker := newTestTracker(t)
	ctx := context.Background()

	current := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	tracker.now = func() time.Time { current = current.Add(time.Second); return current }

	seedArticle(t, tracker, "Failing Favorite", "incident", 6, []bool{false, false, false}, 100)

	recommendations, err := tracker.Recommendations(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, recommendations)

	assert.Equal(t, "update_articles", recommendations[0].Type)
	assert.Equal(t, "high", recommendations[0].Priority)
	assert.Equal(t, []string{"Failing Favorite"}, recommendations[0].Articles)

	var hasContextGap bool
	for _, rec := range recommendations[1:] {
		if rec.Type == "create_article" && rec.Context == "incident" {
			hasContextGap = true
			assert.Equal(t, 6, rec.SearchCount)
		}
	}
	assert.True(t, hasContextGap)
}
