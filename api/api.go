// Copyright (c) 2023-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/portwarden/portwarden/generation"
	"github.com/portwarden/portwarden/incidents"
	"github.com/portwarden/portwarden/kbtracker"
	"github.com/portwarden/portwarden/metrics"
	"github.com/portwarden/portwarden/validation"
)

// API hosts the HTTP surface of the service: incident management, AI
// generation, knowledge base analytics and validation reporting.
type API struct {
	engine     *gin.Engine
	generator  *generation.Generator
	incidents  *incidents.Store
	tracker    *kbtracker.Tracker
	validation *validation.SQLResultStore
	metrics    metrics.Metrics
	log        *logrus.Logger
}

type Config struct {
	Generator  *generation.Generator
	Incidents  *incidents.Store
	Tracker    *kbtracker.Tracker
	Validation *validation.SQLResultStore
	Metrics    metrics.Metrics
	Log        *logrus.Logger
}

func New(config Config) *API {
	a := &API{
		generator:  config.Generator,
		incidents:  config.Incidents,
		tracker:    config.Tracker,
		validation: config.Validation,
		metrics:    config.Metrics,
		log:        config.Log,
	}
	if a.log == nil {
		a.log = logrus.New()
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(a.requestLogger)
	if a.metrics != nil {
		engine.Use(a.metricsMiddleware)
	}

	router := engine.Group("/api/v1")

	incidentsRouter := router.Group("/incidents")
	incidentsRouter.GET("", a.handleListIncidents)
	incidentsRouter.GET("/count", a.handleCountIncidents)
	incidentsRouter.GET("/:id", a.handleGetIncident)
	incidentsRouter.PATCH("/:id/status", a.handleUpdateStatus)
	incidentsRouter.POST("/:id/archive", a.handleArchiveIncident)
	incidentsRouter.POST("/:id/unarchive", a.handleUnarchiveIncident)
	incidentsRouter.POST("/:id/generate", a.handleGenerate)

	kbRouter := router.Group("/kb")
	kbRouter.GET("/analytics", a.handleKBAnalytics)
	kbRouter.GET("/effective", a.handleKBEffective)
	kbRouter.GET("/review", a.handleKBReview)
	kbRouter.GET("/recommendations", a.handleKBRecommendations)
	kbRouter.POST("/outcome", a.handleKBOutcome)

	router.GET("/validation/summary", a.handleValidationSummary)
	router.GET("/validation/recent", a.handleValidationRecent)

	engine.GET("/health", a.handleHealth)
	if a.metrics != nil {
		engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(a.metrics.GetRegistry(), promhttp.HandlerOpts{})))
	}

	a.engine = engine
	return a
}

func (a *API) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.engine.ServeHTTP(w, r)
}

func (a *API) requestLogger(c *gin.Context) {
	start := time.Now()
	c.Next()

	fields := logrus.Fields{
		"method": c.Request.Method,
		"path":   c.Request.URL.Path,
		"status": c.Writer.Status(),
		"took":   time.Since(start).String(),
	}
	if len(c.Errors) > 0 {
		fields["error"] = c.Errors.Last().Error()
		a.log.WithFields(fields).Warn("request failed")
		return
	}
	a.log.WithFields(fields).Debug("request handled")
}

func (a *API) metricsMiddleware(c *gin.Context) {
	a.metrics.IncrementHTTPRequests()
	start := time.Now()

	c.Next()

	elapsed := float64(time.Since(start)) / float64(time.Second)
	status := c.Writer.Status()
	if status >= http.StatusInternalServerError {
		a.metrics.IncrementHTTPErrors()
	}
	a.metrics.ObserveAPIEndpointDuration(c.FullPath(), c.Request.Method, strconv.Itoa(status), elapsed)
}

func (a *API) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// intQuery parses a query parameter as an int, falling back when absent or
// malformed.
func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
