// Copyright (c) 2023-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (a *API) handleValidationSummary(c *gin.Context) {
	summary, err := a.validation.ValidationSummary(c.Request.Context())
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (a *API) handleValidationRecent(c *gin.Context) {
	results, err := a.validation.RecentResults(c.Request.Context(), intQuery(c, "limit", 20))
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}
