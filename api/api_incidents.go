// Copyright (c) 2023-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/portwarden/portwarden/generation"
	"github.com/portwarden/portwarden/incidents"
	"github.com/portwarden/portwarden/llm"
	"github.com/portwarden/portwarden/playbook"
)

// GenerateRequest asks for an AI artifact for a single incident.
type GenerateRequest struct {
	Intent string `json:"intent"`
}

type statusRequest struct {
	Status string `json:"status"`
}

func (a *API) handleListIncidents(c *gin.Context) {
	page := intQuery(c, "page", 1)
	pageSize := intQuery(c, "pageSize", 20)

	results, total, err := a.incidents.List(c.Request.Context(), page, pageSize)
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":   total,
		"results": results,
	})
}

func (a *API) handleCountIncidents(c *gin.Context) {
	count, err := a.incidents.Count(c.Request.Context())
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

func (a *API) handleGetIncident(c *gin.Context) {
	incident, err := a.incidents.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, incidents.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "incident not found"})
			return
		}
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, incident)
}

func (a *API) handleUpdateStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON"})
		return
	}

	err := a.incidents.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		switch {
		case errors.Is(err, incidents.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "incident not found"})
		case errors.Is(err, incidents.ErrInvalidStatus):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.AbortWithError(http.StatusInternalServerError, err)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": req.Status})
}

func (a *API) handleArchiveIncident(c *gin.Context) {
	err := a.incidents.Archive(c.Request.Context(), c.Param("id"), time.Now().UTC())
	if err != nil {
		if errors.Is(err, incidents.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "incident not found"})
			return
		}
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *API) handleUnarchiveIncident(c *gin.Context) {
	err := a.incidents.Unarchive(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, incidents.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "incident not found"})
			return
		}
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *API) handleGenerate(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON"})
		return
	}

	result, err := a.generator.Generate(c.Request.Context(), c.Param("id"), generation.Intent(req.Intent))
	if err != nil {
		a.writeGenerateError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// writeGenerateError maps generation failures onto appropriate status codes
// and hides provider internals from callers.
func (a *API) writeGenerateError(c *gin.Context, err error) {
	if errors.Is(err, generation.ErrUnsupportedIntent) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "intent must be playbook or escalation"})
		return
	}
	if errors.Is(err, incidents.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "incident not found"})
		return
	}

	if perr, ok := llm.AsProviderError(err); ok {
		status := perr.StatusCode
		if status < http.StatusBadRequest {
			status = http.StatusBadGateway
		}
		c.JSON(status, gin.H{"error": perr.Message})
		return
	}

	var terr *llm.TruncationError
	if errors.As(err, &terr) {
		message := "Generation stopped unexpectedly."
		switch terr.FinishReason {
		case "content_filter":
			message = "Content was blocked by safety filters."
		case "length", "max_tokens":
			message = "Response was truncated due to length limits."
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": message, "reason": terr.FinishReason})
		return
	}

	if errors.Is(err, llm.ErrEmptyCompletion) {
		c.JSON(http.StatusBadGateway, gin.H{"error": "The model returned an empty response."})
		return
	}

	var serr *playbook.SanitizeError
	if errors.As(err, &serr) {
		c.JSON(http.StatusBadGateway, gin.H{
			"error":  "The model produced output that failed validation.",
			"reason": string(serr.Kind),
		})
		return
	}

	c.AbortWithError(http.StatusInternalServerError, err)
}
