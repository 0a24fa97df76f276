// Copyright (c) 2023-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

// Package openai implements the language model interface over the OpenAI
// chat completions API, including Azure deployments and API-compatible
// gateways.
package openai

import (
	"context"
	"net/http"
	"strings"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/azure"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"
	"github.com/pkg/errors"

	"github.com/portwarden/portwarden/llm"
)

type Config struct {
	APIKey           string `json:"apiKey"`
	APIURL           string `json:"apiURL"`
	OrgID            string `json:"orgID"`
	DefaultModel     string `json:"defaultModel"`
	OutputTokenLimit int    `json:"outputTokenLimit"`
}

type OpenAI struct {
	client openai.Client
	config Config
}

const azureAPIVersion = "2025-04-01-preview"

func New(config Config, httpClient *http.Client) *OpenAI {
	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
		option.WithHTTPClient(httpClient),
	}
	if config.OrgID != "" {
		opts = append(opts, option.WithOrganization(config.OrgID))
	}

	return &OpenAI{
		client: openai.NewClient(opts...),
		config: config,
	}
}

func NewAzure(config Config, httpClient *http.Client) *OpenAI {
	opts := []option.RequestOption{
		azure.WithEndpoint(strings.TrimSuffix(config.APIURL, "/"), azureAPIVersion),
		azure.WithAPIKey(config.APIKey),
		option.WithHTTPClient(httpClient),
	}

	return &OpenAI{
		client: openai.NewClient(opts...),
		config: config,
	}
}

func NewCompatible(config Config, httpClient *http.Client) *OpenAI {
	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithBaseURL(strings.TrimSuffix(config.APIURL, "/")),
	}

	return &OpenAI{
		client: openai.NewClient(opts...),
		config: config,
	}
}

func (s *OpenAI) GetDefaultConfig() llm.LanguageModelConfig {
	return llm.LanguageModelConfig{
		Model:              s.config.DefaultModel,
		MaxGeneratedTokens: s.config.OutputTokenLimit,
	}
}

func (s *OpenAI) createConfig(opts []llm.LanguageModelOption) llm.LanguageModelConfig {
	cfg := s.GetDefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

func (s *OpenAI) Complete(ctx context.Context, request llm.CompletionRequest, opts ...llm.LanguageModelOption) (string, error) {
	cfg := s.createConfig(opts)

	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(cfg.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(request.SystemPrompt),
			openai.UserMessage(request.UserPrompt),
		},
	}
	if cfg.MaxGeneratedTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(cfg.MaxGeneratedTokens))
	}
	if cfg.JSONOutputFormat != nil {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
				JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   "output_format",
					Schema: cfg.JSONOutputFormat,
					Strict: openai.Bool(true),
				},
			},
		}
	}

	completion, err := s.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", &llm.ProviderError{
				StatusCode: apiErr.StatusCode,
				Message:    apiErr.Message,
			}
		}
		return "", errors.Wrap(err, "openai completion request failed")
	}

	if len(completion.Choices) == 0 {
		return "", llm.ErrEmptyCompletion
	}

	choice := completion.Choices[0]
	if choice.FinishReason != "" && choice.FinishReason != "stop" {
		return "", &llm.TruncationError{FinishReason: choice.FinishReason}
	}

	output := strings.TrimSpace(choice.Message.Content)
	if output == "" {
		return "", llm.ErrEmptyCompletion
	}

	return output, nil
}
