// Copyright (c) 2023-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portwarden/portwarden/llm"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)

	assert.Equal(t, ":8065", cfg.ListenAddress)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "portwarden.db", cfg.Database.DSN)
	assert.True(t, cfg.SeedIncidents)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.Services)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"listenAddress": ":9090",
		"database": {"driver": "postgres", "dsn": "postgres://localhost/portwarden"},
		"services": [
			{"id": "openai", "type": "openai", "apiKey": "sk-test", "defaultModel": "gpt-5-mini"}
		],
		"defaultServiceID": "openai",
		"logLevel": "debug"
	}`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.ListenAddress)
	assert.Equal(t, "postgres", cfg.Database.Driver)

	service, ok := cfg.DefaultService()
	require.True(t, ok)
	assert.Equal(t, "openai", service.ID)
	assert.Equal(t, "gpt-5-mini", service.DefaultModel)
}

func TestLoadInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PORTWARDEN_LISTEN_ADDRESS", ":7070")
	t.Setenv("PORTWARDEN_DB_DRIVER", "postgres")
	t.Setenv("PORTWARDEN_DB_DSN", "postgres://localhost/overridden")
	t.Setenv("PORTWARDEN_LOG_LEVEL", "trace")
	t.Setenv("AZURE_OPENAI_KEY", "azure-key")
	t.Setenv("AZURE_OPENAI_ENDPOINT", "https://example.openai.azure.com")
	t.Setenv("AZURE_OPENAI_MODEL", "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.ListenAddress)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "postgres://localhost/overridden", cfg.Database.DSN)
	assert.Equal(t, "trace", cfg.LogLevel)

	service, ok := cfg.DefaultService()
	require.True(t, ok)
	assert.Equal(t, "azure-env", service.ID)
	assert.Equal(t, llm.ServiceTypeAzure, service.Type)
	assert.Equal(t, "azure-key", service.APIKey)
	assert.Equal(t, "https://example.openai.azure.com", service.APIURL)
	assert.Equal(t, "gpt-5-mini", service.DefaultModel)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.Database.Driver = "oracle"
	require.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Services = []llm.ServiceConfig{{ID: "broken", Type: "openai"}}
	require.Error(t, cfg.Validate(), "openai service without an API key is invalid")

	cfg = Default()
	cfg.DefaultServiceID = "missing"
	require.Error(t, cfg.Validate())
}

func TestContainerUpdate(t *testing.T) {
	container := &Container{}
	assert.Nil(t, container.Config())
	assert.False(t, container.GetEnableLLMTrace())

	notified := 0
	container.RegisterUpdateListener(func() {
		notified++
	})

	cfg := Default()
	cfg.EnableLLMTrace = true
	cfg.Services = []llm.ServiceConfig{{ID: "anthropic", Type: llm.ServiceTypeAnthropic, APIKey: "key"}}
	container.Update(cfg)

	assert.Equal(t, 1, notified)
	assert.True(t, container.GetEnableLLMTrace())

	service, ok := container.GetServiceByID("anthropic")
	require.True(t, ok)
	assert.Equal(t, "key", service.APIKey)

	// Mutating the original must not leak into the stored copy.
	cfg.Services[0].APIKey = "changed"
	service, ok = container.GetServiceByID("anthropic")
	require.True(t, ok)
	assert.Equal(t, "key", service.APIKey)
}

func TestDeepCopyJSON(t *testing.T) {
	src := Default()
	src.Services = []llm.ServiceConfig{{ID: "a", Type: llm.ServiceTypeOpenAI, APIKey: "k"}}

	dst, err := DeepCopyJSON(*src)
	require.NoError(t, err)

	dst.Services[0].APIKey = "other"
	assert.Equal(t, "k", src.Services[0].APIKey)
}
