// Copyright (c) 2023-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package bedrock

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portwarden/portwarden/llm"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Bedrock {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New(llm.ServiceConfig{
		Region:             "us-east-1",
		AWSAccessKeyID:     "test-access-key",
		AWSSecretAccessKey: "test-secret-key",
		DefaultModel:       "anthropic.claude-3-5-sonnet-20241022-v2:0",
		APIURL:             server.URL,
	}, server.Client())
	require.NoError(t, err)
	return client
}

func converseResponse(text, stopReason string) map[string]any {
	return map[string]any{
		"output": map[string]any{
			"message": map[string]any{
				"role": "assistant",
				"content": []map[string]any{
					{"text": text},
				},
			},
		},
		"stopReason": stopReason,
		"usage":      map[string]any{"inputTokens": 10, "outputTokens": 5},
	}
}

func TestComplete(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/converse")

		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(converseResponse("Playbook drafted.", "end_turn")))
	})

	output, err := client.Complete(context.Background(), llm.CompletionRequest{
		SystemPrompt: "You are a duty officer assistant.",
		UserPrompt:   "Draft the playbook.",
	})
	require.NoError(t, err)
	assert.Equal(t, "Playbook drafted.", output)
}

func TestCompleteTruncated(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(converseResponse("partial", "max_tokens")))
	})

	_, err := client.Complete(context.Background(), llm.CompletionRequest{UserPrompt: "hi"})
	var truncated *llm.TruncationError
	require.ErrorAs(t, err, &truncated)
	assert.Equal(t, "max_tokens", truncated.FinishReason)
}

func TestCompleteEmptyOutput(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(converseResponse("  ", "end_turn")))
	})

	_, err := client.Complete(context.Background(), llm.CompletionRequest{UserPrompt: "hi"})
	require.ErrorIs(t, err, llm.ErrEmptyCompletion)
}
