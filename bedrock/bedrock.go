// Copyright (c) 2023-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

// Package bedrock implements the language model interface over the AWS
// Bedrock Converse API.
package bedrock

import (
	"context"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/aws/smithy-go/auth/bearer"
	"github.com/pkg/errors"

	"github.com/portwarden/portwarden/llm"
)

const DefaultMaxTokens = 8192

type Bedrock struct {
	client           *bedrockruntime.Client
	defaultModel     string
	outputTokenLimit int
	region           string
}

// New builds a Bedrock client. Authentication priority: static IAM
// credentials, then a Bedrock console API key as a bearer token, then the
// SDK default credential chain.
func New(llmService llm.ServiceConfig, httpClient *http.Client) (*Bedrock, error) {
	configOpts := []func(*config.LoadOptions) error{
		config.WithRegion(llmService.Region),
		config.WithHTTPClient(httpClient),
	}

	var clientOpts []func(*bedrockruntime.Options)

	if llmService.AWSAccessKeyID != "" && llmService.AWSSecretAccessKey != "" {
		configOpts = append(configOpts, config.WithCredentialsProvider(
			aws.NewCredentialsCache(
				credentials.NewStaticCredentialsProvider(
					llmService.AWSAccessKeyID,
					llmService.AWSSecretAccessKey,
					"",
				),
			),
		))
	} else if llmService.APIKey != "" {
		configOpts = append(configOpts, config.WithCredentialsProvider(aws.AnonymousCredentials{}))

		clientOpts = append(clientOpts, func(o *bedrockruntime.Options) {
			o.Credentials = aws.AnonymousCredentials{}
			o.BearerAuthTokenProvider = bearer.TokenProviderFunc(func(ctx context.Context) (bearer.Token, error) {
				return bearer.Token{Value: llmService.APIKey}, nil
			})
			o.AuthSchemePreference = []string{"httpBearerAuth"}
		})
	}

	cfg, err := config.LoadDefaultConfig(context.Background(), configOpts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load AWS config")
	}

	if llmService.APIURL != "" {
		clientOpts = append(clientOpts, func(o *bedrockruntime.Options) {
			o.BaseEndpoint = aws.String(llmService.APIURL)
		})
	}

	return &Bedrock{
		client:           bedrockruntime.NewFromConfig(cfg, clientOpts...),
		defaultModel:     llmService.DefaultModel,
		outputTokenLimit: llmService.OutputTokenLimit,
		region:           llmService.Region,
	}, nil
}

func (b *Bedrock) GetDefaultConfig() llm.LanguageModelConfig {
	return llm.LanguageModelConfig{
		Model:              b.defaultModel,
		MaxGeneratedTokens: b.outputTokenLimit,
	}
}

func (b *Bedrock) createConfig(opts []llm.LanguageModelOption) llm.LanguageModelConfig {
	cfg := b.GetDefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

func (b *Bedrock) Complete(ctx context.Context, request llm.CompletionRequest, opts ...llm.LanguageModelOption) (string, error) {
	cfg := b.createConfig(opts)

	maxTokens := int32(cfg.MaxGeneratedTokens)
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	userPrompt := request.UserPrompt
	if cfg.JSONOutputFormat != nil {
		// Converse has no schema-constrained output mode; restate the
		// requirement in the prompt instead.
		userPrompt += "\n\nRespond with a single JSON object only, no prose and no code fences."
	}

	input := &bedrockruntime.ConverseInput{
		ModelId: aws.String(cfg.Model),
		Messages: []types.Message{
			{
				Role: types.ConversationRoleUser,
				Content: []types.ContentBlock{
					&types.ContentBlockMemberText{Value: userPrompt},
				},
			},
		},
		InferenceConfig: &types.InferenceConfiguration{
			MaxTokens: aws.Int32(maxTokens),
		},
	}
	if request.SystemPrompt != "" {
		input.System = []types.SystemContentBlock{
			&types.SystemContentBlockMemberText{Value: request.SystemPrompt},
		}
	}

	output, err := b.client.Converse(ctx, input)
	if err != nil {
		return "", errors.Wrap(err, "bedrock converse request failed")
	}

	switch output.StopReason {
	case types.StopReasonEndTurn, types.StopReasonStopSequence, "":
	default:
		return "", &llm.TruncationError{FinishReason: string(output.StopReason)}
	}

	response, ok := output.Output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return "", llm.ErrEmptyCompletion
	}

	var builder strings.Builder
	for _, block := range response.Value.Content {
		if text, ok := block.(*types.ContentBlockMemberText); ok {
			builder.WriteString(text.Value)
		}
	}

	result := strings.TrimSpace(builder.String())
	if result == "" {
		return "", llm.ErrEmptyCompletion
	}

	return result, nil
}
