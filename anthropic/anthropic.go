// Copyright (c) 2023-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

// Package anthropic implements the language model interface over the
// Anthropic messages API.
package anthropic

import (
	"context"
	"net/http"
	"strings"

	anthropicSDK "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/pkg/errors"

	"github.com/portwarden/portwarden/llm"
)

const DefaultMaxTokens = 8192

type Anthropic struct {
	client           anthropicSDK.Client
	defaultModel     string
	outputTokenLimit int
}

func New(llmService llm.ServiceConfig, httpClient *http.Client) *Anthropic {
	client := anthropicSDK.NewClient(
		option.WithAPIKey(llmService.APIKey),
		option.WithHTTPClient(httpClient),
	)

	return &Anthropic{
		client:           client,
		defaultModel:     llmService.DefaultModel,
		outputTokenLimit: llmService.OutputTokenLimit,
	}
}

func (a *Anthropic) GetDefaultConfig() llm.LanguageModelConfig {
	return llm.LanguageModelConfig{
		Model:              a.defaultModel,
		MaxGeneratedTokens: a.outputTokenLimit,
	}
}

func (a *Anthropic) createConfig(opts []llm.LanguageModelOption) llm.LanguageModelConfig {
	cfg := a.GetDefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

func (a *Anthropic) Complete(ctx context.Context, request llm.CompletionRequest, opts ...llm.LanguageModelOption) (string, error) {
	cfg := a.createConfig(opts)

	maxTokens := int64(cfg.MaxGeneratedTokens)
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	userPrompt := request.UserPrompt
	if cfg.JSONOutputFormat != nil {
		// The messages API has no schema-constrained output mode; restate
		// the requirement in the prompt instead.
		userPrompt += "\n\nRespond with a single JSON object only, no prose and no code fences."
	}

	params := anthropicSDK.MessageNewParams{
		Model:     anthropicSDK.Model(cfg.Model),
		MaxTokens: maxTokens,
		Messages: []anthropicSDK.MessageParam{
			anthropicSDK.NewUserMessage(anthropicSDK.NewTextBlock(userPrompt)),
		},
	}
	if request.SystemPrompt != "" {
		params.System = []anthropicSDK.TextBlockParam{
			{Text: request.SystemPrompt},
		}
	}

	message, err := a.client.Messages.New(ctx, params)
	if err != nil {
		var apiErr *anthropicSDK.Error
		if errors.As(err, &apiErr) {
			return "", &llm.ProviderError{
				StatusCode: apiErr.StatusCode,
				Message:    apiErr.Error(),
			}
		}
		return "", errors.Wrap(err, "anthropic completion request failed")
	}

	switch message.StopReason {
	case anthropicSDK.StopReasonEndTurn, anthropicSDK.StopReasonStopSequence, "":
	default:
		return "", &llm.TruncationError{FinishReason: string(message.StopReason)}
	}

	var builder strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			builder.WriteString(block.Text)
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", llm.ErrEmptyCompletion
	}

	return output, nil
}
