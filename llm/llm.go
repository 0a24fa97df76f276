// Copyright (c) 2023-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package llm

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"
)

// CompletionRequest is a single-turn completion: one system prompt and one
// user prompt. The pipeline never holds multi-turn conversations.
type CompletionRequest struct {
	SystemPrompt string
	UserPrompt   string
}

// LanguageModel is the boundary to an external inference provider. The call
// blocks until the provider returns the full completion or fails; there is no
// caller-side retry and no streaming.
type LanguageModel interface {
	Complete(ctx context.Context, request CompletionRequest, opts ...LanguageModelOption) (string, error)
}

type LanguageModelConfig struct {
	Model              string
	MaxGeneratedTokens int

	// JSONOutputFormat requests schema-constrained output from providers that
	// support it. Providers that do not are free to ignore it; the sanitizer
	// downstream must cope with free-form output either way.
	JSONOutputFormat *jsonschema.Schema
}

type LanguageModelOption func(*LanguageModelConfig)

func WithModel(model string) LanguageModelOption {
	return func(cfg *LanguageModelConfig) {
		cfg.Model = model
	}
}

func WithMaxGeneratedTokens(maxGeneratedTokens int) LanguageModelOption {
	return func(cfg *LanguageModelConfig) {
		cfg.MaxGeneratedTokens = maxGeneratedTokens
	}
}

func WithJSONOutputFormat(schema *jsonschema.Schema) LanguageModelOption {
	return func(cfg *LanguageModelConfig) {
		cfg.JSONOutputFormat = schema
	}
}
