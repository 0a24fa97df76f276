// Copyright (c) 2023-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package api

import (
	"context"

	"github.com/portwarden/portwarden/llm"
)

// FakeLLM is a test implementation of llm.LanguageModel that returns
// configurable responses without making real API calls. This is not a mock -
// it's a real implementation of the interface designed for testing.
type FakeLLM struct {
	// Response is the text to return
	Response string
	// Error to return instead of a response
	Error error

	// LastRequest records the most recent completion request
	LastRequest llm.CompletionRequest
}

func (f *FakeLLM) Complete(_ context.Context, request llm.CompletionRequest, opts ...llm.LanguageModelOption) (string, error) {
	f.LastRequest = request
	if f.Error != nil {
		return "", f.Error
	}
	return f.Response, nil
}

// NewFakeLLM creates a FakeLLM with a simple text response
func NewFakeLLM(response string) *FakeLLM {
	return &FakeLLM{Response: response}
}

// NewFakeLLMWithError creates a FakeLLM that returns an error
func NewFakeLLMWithError(err error) *FakeLLM {
	return &FakeLLM{Error: err}
}
