// Copyright (c) 2023-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/portwarden/portwarden/llm"
	"github.com/portwarden/portwarden/openai"
)

type DatabaseConfig struct {
	Driver string `json:"driver"`
	DSN    string `json:"dsn"`
}

type Config struct {
	ListenAddress    string              `json:"listenAddress"`
	Database         DatabaseConfig      `json:"database"`
	Services         []llm.ServiceConfig `json:"services"`
	DefaultServiceID string              `json:"defaultServiceID"`
	SeedIncidents    bool                `json:"seedIncidents"`
	LogLevel         string              `json:"logLevel"`
	EnableLLMTrace   bool                `json:"enableLLMTrace"`
}

func Default() *Config {
	return &Config{
		ListenAddress: ":8065",
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "portwarden.db",
		},
		SeedIncidents: true,
		LogLevel:      "info",
	}
}

func (c *Config) Clone() *Config {
	clone, err := DeepCopyJSON(*c)
	if err != nil {
		panic(fmt.Sprintf("failed to clone configuration: %v", err))
	}

	return &clone
}

// GetServiceByID returns the service configuration for the given ID
func (c *Config) GetServiceByID(id string) (llm.ServiceConfig, bool) {
	for i := range c.Services {
		if c.Services[i].ID == id {
			return c.Services[i], true
		}
	}
	return llm.ServiceConfig{}, false
}

// DefaultService returns the configured default service, falling back to the
// first configured one.
func (c *Config) DefaultService() (llm.ServiceConfig, bool) {
	if c.DefaultServiceID != "" {
		return c.GetServiceByID(c.DefaultServiceID)
	}
	if len(c.Services) > 0 {
		return c.Services[0], true
	}
	return llm.ServiceConfig{}, false
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return errors.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	for _, service := range c.Services {
		if !llm.IsValidService(service) {
			return errors.Errorf("service %q has an invalid configuration", service.ID)
		}
	}
	if c.DefaultServiceID != "" {
		if _, ok := c.GetServiceByID(c.DefaultServiceID); !ok {
			return errors.Errorf("default service %q is not configured", c.DefaultServiceID)
		}
	}
	return nil
}

// Load reads the configuration file, then applies environment overrides.
// A missing file yields the defaults, so the service can run from the
// environment alone.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, errors.Wrap(err, "failed to read config file")
			}
		} else if err := json.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrap(err, "failed to parse config file")
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides keeps the deployment story of the Azure-hosted
// predecessor: the service can be pointed at a deployment with nothing but
// environment variables.
func applyEnvOverrides(cfg *Config) {
	if addr := os.Getenv("PORTWARDEN_LISTEN_ADDRESS"); addr != "" {
		cfg.ListenAddress = addr
	}
	if driver := os.Getenv("PORTWARDEN_DB_DRIVER"); driver != "" {
		cfg.Database.Driver = driver
	}
	if dsn := os.Getenv("PORTWARDEN_DB_DSN"); dsn != "" {
		cfg.Database.DSN = dsn
	}
	if level := os.Getenv("PORTWARDEN_LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}

	if key := os.Getenv("AZURE_OPENAI_KEY"); key != "" {
		service := llm.ServiceConfig{
			ID:           "azure-env",
			Name:         "Azure OpenAI",
			Type:         llm.ServiceTypeAzure,
			APIKey:       key,
			APIURL:       os.Getenv("AZURE_OPENAI_ENDPOINT"),
			DefaultModel: os.Getenv("AZURE_OPENAI_MODEL"),
		}
		if service.DefaultModel == "" {
			service.DefaultModel = "gpt-5-mini"
		}
		cfg.Services = append(cfg.Services, service)
		if cfg.DefaultServiceID == "" {
			cfg.DefaultServiceID = service.ID
		}
	}
}

type UpdateListener func()

type Container struct {
	cfg       atomic.Pointer[Config]
	listeners []UpdateListener
}

// Config returns the whole configuration readonly.
func (c *Container) Config() *Config {
	return c.cfg.Load()
}

func (c *Container) GetEnableLLMTrace() bool {
	cfg := c.cfg.Load()
	if cfg == nil {
		return false
	}
	return cfg.EnableLLMTrace
}

// GetServiceByID returns the service configuration for the given ID
func (c *Container) GetServiceByID(id string) (llm.ServiceConfig, bool) {
	cfg := c.cfg.Load()
	if cfg == nil {
		return llm.ServiceConfig{}, false
	}
	return cfg.GetServiceByID(id)
}

// DefaultService returns the current default service configuration.
func (c *Container) DefaultService() (llm.ServiceConfig, bool) {
	cfg := c.cfg.Load()
	if cfg == nil {
		return llm.ServiceConfig{}, false
	}
	return cfg.DefaultService()
}

func (c *Container) RegisterUpdateListener(listener UpdateListener) {
	c.listeners = append(c.listeners, listener)
}

// Update replaces the current configuration. The new configuration is
// deep-copied so the new and old configurations are independent of each
// other.
func (c *Container) Update(newConfig *Config) {
	if newConfig == nil {
		c.cfg.Store(nil)
		return
	}
	clone, err := DeepCopyJSON(*newConfig)
	if err != nil {
		panic(fmt.Sprintf("failed to deep copy configuration: %v", err))
	}

	c.cfg.Store(&clone)

	for _, listener := range c.listeners {
		listener()
	}
}

// DeepCopyJSON creates a deep copy of JSON-serializable structs
func DeepCopyJSON[T any](src T) (T, error) {
	var dst T
	data, err := json.Marshal(src)
	if err != nil {
		return dst, err
	}
	err = json.Unmarshal(data, &dst)
	return dst, err
}

func OpenAIConfigFromServiceConfig(serviceConfig llm.ServiceConfig) openai.Config {
	return openai.Config{
		APIKey:           serviceConfig.APIKey,
		APIURL:           serviceConfig.APIURL,
		OrgID:            serviceConfig.OrgID,
		DefaultModel:     serviceConfig.DefaultModel,
		OutputTokenLimit: serviceConfig.OutputTokenLimit,
	}
}
