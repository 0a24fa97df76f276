// Copyright (c) 2023-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/portwarden/portwarden/anthropic"
	"github.com/portwarden/portwarden/api"
	"github.com/portwarden/portwarden/bedrock"
	"github.com/portwarden/portwarden/config"
	"github.com/portwarden/portwarden/generation"
	"github.com/portwarden/portwarden/incidents"
	"github.com/portwarden/portwarden/kbtracker"
	"github.com/portwarden/portwarden/llm"
	"github.com/portwarden/portwarden/metrics"
	"github.com/portwarden/portwarden/openai"
	"github.com/portwarden/portwarden/store"
	"github.com/portwarden/portwarden/validation"
)

var serviceVersion = "dev"

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "portwarden",
		Short: "Maritime incident co-pilot service",
		Long: `portwarden serves the incident management API: AI playbook and
escalation generation, knowledge base effectiveness tracking and
response validation reporting.`,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "portwarden.json", "Path to the configuration file")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}

	rootCmd.AddCommand(serveCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func serve() error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log := logrus.New()

	// The container holds the live configuration; the listener re-applies
	// the log level whenever the configuration is swapped.
	container := &config.Container{}
	container.RegisterUpdateListener(func() {
		current := container.Config()
		if current == nil {
			return
		}
		if level, err := logrus.ParseLevel(current.LogLevel); err == nil {
			log.SetLevel(level)
		}
	})
	container.Update(cfg)

	driver := store.DriverSQLite
	if cfg.Database.Driver == "postgres" {
		driver = store.DriverPostgres
	}
	db, err := store.Open(driver, cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	incidentStore, err := incidents.NewStore(db)
	if err != nil {
		return err
	}
	if cfg.SeedIncidents {
		if err := incidentStore.SeedIfEmpty(ctx); err != nil {
			return err
		}
	}

	tracker, err := kbtracker.New(db, log)
	if err != nil {
		return err
	}

	resultStore, err := validation.NewSQLResultStore(db)
	if err != nil {
		return err
	}

	service, ok := container.DefaultService()
	if !ok {
		return fmt.Errorf("no language model service configured")
	}
	model, err := newLanguageModel(service)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"service": service.ID,
		"type":    service.Type,
		"model":   service.DefaultModel,
	}).Info("language model configured")

	metricsService := metrics.NewMetrics(metrics.InstanceInfo{ServiceVersion: serviceVersion})

	generator := generation.New(generation.Config{
		Model:         model,
		ModelName:     service.DefaultModel,
		Validator:     validation.NewFramework(resultStore, log),
		Tracker:       tracker,
		Incidents:     incidentStore,
		Metrics:       metricsService,
		Configuration: container,
		Log:           log,
	})

	apiService := api.New(api.Config{
		Generator:  generator,
		Incidents:  incidentStore,
		Tracker:    tracker,
		Validation: resultStore,
		Metrics:    metricsService,
		Log:        log,
	})

	server := &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           apiService,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("address", cfg.ListenAddress).Info("portwarden listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func newLanguageModel(service llm.ServiceConfig) (llm.LanguageModel, error) {
	httpClient := &http.Client{Timeout: 3 * time.Minute}

	switch service.Type {
	case llm.ServiceTypeOpenAI:
		return openai.New(config.OpenAIConfigFromServiceConfig(service), httpClient), nil
	case llm.ServiceTypeOpenAICompatible:
		return openai.NewCompatible(config.OpenAIConfigFromServiceConfig(service), httpClient), nil
	case llm.ServiceTypeAzure:
		return openai.NewAzure(config.OpenAIConfigFromServiceConfig(service), httpClient), nil
	case llm.ServiceTypeAnthropic:
		return anthropic.New(service, httpClient), nil
	case llm.ServiceTypeBedrock:
		return bedrock.New(service, httpClient)
	default:
		return nil, fmt.Errorf("unsupported language model service type %q", service.Type)
	}
}
