// Copyright (c) 2023-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const (
	MetricsNamespace         = "portwarden"
	MetricsSubsystemSystem   = "system"
	MetricsSubsystemHTTP     = "http"
	MetricsSubsystemAPI      = "api"
	MetricsSubsystemLLM      = "llm"
	MetricsSubsystemPipeline = "pipeline"

	MetricsVersionLabel = "version"
)

type Metrics interface {
	GetRegistry() *prometheus.Registry

	ObserveAPIEndpointDuration(handler, method, statusCode string, elapsed float64)

	IncrementHTTPRequests()
	IncrementHTTPErrors()

	IncrementLLMRequests(llmName string)

	IncrementGenerationRequests(intent, outcome string)
	IncrementSanitizeFailures(reason string)
	ObserveValidationScore(module string, score int)
}

type InstanceInfo struct {
	ServiceVersion string
}

// metrics used to instrumentate metrics in prometheus.
type metrics struct {
	registry *prometheus.Registry

	serviceStartTime prometheus.Gauge
	serviceInfo      prometheus.Gauge

	apiTime *prometheus.HistogramVec

	httpRequestsTotal prometheus.Counter
	httpErrorsTotal   prometheus.Counter

	llmRequestsTotal *prometheus.CounterVec

	generationRequestsTotal *prometheus.CounterVec
	sanitizeFailuresTotal   *prometheus.CounterVec
	validationScore         *prometheus.HistogramVec
}

// NewMetrics Factory method to create a new metrics collector.
func NewMetrics(info InstanceInfo) Metrics {
	m := &metrics{}

	m.registry = prometheus.NewRegistry()
	options := collectors.ProcessCollectorOpts{
		Namespace: MetricsNamespace,
	}
	m.registry.MustRegister(collectors.NewProcessCollector(options))
	m.registry.MustRegister(collectors.NewGoCollector())

	m.serviceStartTime = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Subsystem: MetricsSubsystemSystem,
		Name:      "service_start_timestamp_seconds",
		Help:      "The time the service started.",
	})
	m.serviceStartTime.SetToCurrentTime()
	m.registry.MustRegister(m.serviceStartTime)

	m.serviceInfo = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Subsystem: MetricsSubsystemSystem,
		Name:      "service_info",
		Help:      "The service version.",
		ConstLabels: map[string]string{
			MetricsVersionLabel: info.ServiceVersion,
		},
	})
	m.serviceInfo.Set(1)
	m.registry.MustRegister(m.serviceInfo)

	m.apiTime = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystemAPI,
			Name:      "time_seconds",
			Help:      "Time to execute the api handler",
		},
		[]string{"handler", "method", "status_code"},
	)
	m.registry.MustRegister(m.apiTime)

	m.httpRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Subsystem: MetricsSubsystemHTTP,
		Name:      "requests_total",
		Help:      "The total number of http API requests.",
	})
	m.registry.MustRegister(m.httpRequestsTotal)

	m.httpErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Subsystem: MetricsSubsystemHTTP,
		Name:      "errors_total",
		Help:      "The total number of http API errors.",
	})
	m.registry.MustRegister(m.httpErrorsTotal)

	m.llmRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Subsystem: MetricsSubsystemLLM,
		Name:      "requests_total",
		Help:      "The total number of LLM requests.",
	}, []string{"llm_name"})
	m.registry.MustRegister(m.llmRequestsTotal)

	m.generationRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Subsystem: MetricsSubsystemPipeline,
		Name:      "generation_requests_total",
		Help:      "The total number of generation requests by intent and outcome.",
	}, []string{"intent", "outcome"})
	m.registry.MustRegister(m.generationRequestsTotal)

	m.sanitizeFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Subsystem: MetricsSubsystemPipeline,
		Name:      "sanitize_failures_total",
		Help:      "The total number of playbook sanitization failures by reason.",
	}, []string{"reason"})
	m.registry.MustRegister(m.sanitizeFailuresTotal)

	m.validationScore = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: MetricsNamespace,
		Subsystem: MetricsSubsystemPipeline,
		Name:      "validation_score",
		Help:      "The advisory validation score of generated responses.",
		Buckets:   []float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
	}, []string{"module"})
	m.registry.MustRegister(m.validationScore)

	return m
}

func (m *metrics) GetRegistry() *prometheus.Registry {
	return m.registry
}

func (m *metrics) ObserveAPIEndpointDuration(handler, method, statusCode string, elapsed float64) {
	if m != nil {
		m.apiTime.With(prometheus.Labels{"handler": handler, "method": method, "status_code": statusCode}).Observe(elapsed)
	}
}

func (m *metrics) IncrementHTTPRequests() {
	if m != nil {
		m.httpRequestsTotal.Inc()
	}
}

func (m *metrics) IncrementHTTPErrors() {
	if m != nil {
		m.httpErrorsTotal.Inc()
	}
}

func (m *metrics) IncrementLLMRequests(llmName string) {
	if m == nil {
		return
	}
	if llmName == "" {
		llmName = "unknown"
	}
	m.llmRequestsTotal.With(prometheus.Labels{"llm_name": llmName}).Inc()
}

func (m *metrics) IncrementGenerationRequests(intent, outcome string) {
	if m == nil {
		return
	}
	if outcome == "" {
		outcome = "unknown"
	}
	m.generationRequestsTotal.With(prometheus.Labels{"intent": intent, "outcome": outcome}).Inc()
}

func (m *metrics) IncrementSanitizeFailures(reason string) {
	if m == nil {
		return
	}
	if reason == "" {
		reason = "unknown"
	}
	m.sanitizeFailuresTotal.With(prometheus.Labels{"reason": reason}).Inc()
}

func (m *metrics) ObserveValidationScore(module string, score int) {
	if m == nil {
		return
	}
	if module == "" {
		module = "GENERAL"
	}
	m.validationScore.With(prometheus.Labels{"module": module}).Observe(float64(score))
}
