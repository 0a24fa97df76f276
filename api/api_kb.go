// Copyright (c) 2023-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// OutcomeRequest records how a knowledge base article performed during an
// incident resolution.
type OutcomeRequest struct {
	ArticleTitle          string  `json:"articleTitle"`
	WasSuccessful         bool    `json:"wasSuccessful"`
	ResolutionTimeMinutes float64 `json:"resolutionTimeMinutes"`
	Feedback              string  `json:"feedback"`
}

func (a *API) handleKBAnalytics(c *gin.Context) {
	days := intQuery(c, "days", 7)

	analytics, err := a.tracker.Analytics(c.Request.Context(), days)
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, analytics)
}

func (a *API) handleKBEffective(c *gin.Context) {
	articles, err := a.tracker.MostEffectiveArticles(c.Request.Context(), c.Query("context"), intQuery(c, "limit", 0))
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"articles": articles})
}

func (a *API) handleKBReview(c *gin.Context) {
	candidates, err := a.tracker.ArticlesNeedingReview(c.Request.Context())
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"articles": candidates})
}

func (a *API) handleKBRecommendations(c *gin.Context) {
	recommendations, err := a.tracker.Recommendations(c.Request.Context())
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recommendations": recommendations})
}

func (a *API) handleKBOutcome(c *gin.Context) {
	var req OutcomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON"})
		return
	}
	if req.ArticleTitle == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "articleTitle is required"})
		return
	}

	err := a.tracker.TrackResolutionOutcome(c.Request.Context(), req.ArticleTitle, req.WasSuccessful, req.ResolutionTimeMinutes, req.Feedback)
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	c.Status(http.StatusNoContent)
}
