// Copyright (c) 2023-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portwarden/portwarden/llm"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *OpenAI {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewCompatible(Config{
		APIKey:       "test-key",
		APIURL:       server.URL,
		DefaultModel: "gpt-4o",
	}, server.Client())
}

func completionResponse(content, finishReason string) map[string]any {
	return map[string]any{
		"id":     "chatcmpl-test",
		"object": "chat.completion",
		"model":  "gpt-4o",
		"choices": []map[string]any{
			{
				"index":         0,
				"finish_reason": finishReason,
				"message": map[string]any{
					"role":    "assistant",
					"content": content,
				},
			},
		},
	}
}

func TestComplete(t *testing.T) {
	var captured map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &captured))

		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(completionResponse("  All clear.  ", "stop")))
	})

	output, err := client.Complete(context.Background(), llm.CompletionRequest{
		SystemPrompt: "You are a duty officer assistant.",
		UserPrompt:   "Summarize the incident.",
	}, llm.WithMaxGeneratedTokens(512))
	require.NoError(t, err)
	assert.Equal(t, "All clear.", output)

	assert.Equal(t, "gpt-4o", captured["model"])
	assert.EqualValues(t, 512, captured["max_completion_tokens"])
	messages, ok := captured["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)
}

func TestCompleteWithJSONSchema(t *testing.T) {
	var captured map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &captured))

		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(completionResponse(`{"ok":true}`, "stop")))
	})

	schema := &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"ok": {Type: "boolean"},
		},
		Required: []string{"ok"},
	}

	output, err := client.Complete(context.Background(), llm.CompletionRequest{
		SystemPrompt: "system",
		UserPrompt:   "user",
	}, llm.WithJSONOutputFormat(schema))
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, output)

	format, ok := captured["response_format"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "json_schema", format["type"])
	jsonSchema, ok := format["json_schema"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "output_format", jsonSchema["name"])
	assert.Equal(t, true, jsonSchema["strict"])
}

func TestCompleteTruncated(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(completionResponse("partial", "length")))
	})

	_, err := client.Complete(context.Background(), llm.CompletionRequest{UserPrompt: "hi"})
	var truncated *llm.TruncationError
	require.ErrorAs(t, err, &truncated)
	assert.Equal(t, "length", truncated.FinishReason)
}

func TestCompleteEmptyOutput(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(completionResponse("   ", "stop")))
	})

	_, err := client.Complete(context.Background(), llm.CompletionRequest{UserPrompt: "hi"})
	require.ErrorIs(t, err, llm.ErrEmptyCompletion)
}

func TestCompleteProviderError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"message":"model not found","type":"invalid_request_error"}}`))
	})

	_, err := client.Complete(context.Background(), llm.CompletionRequest{UserPrompt: "hi"})
	providerErr, ok := llm.AsProviderError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, providerErr.StatusCode)
	assert.Contains(t, providerErr.Message, "model not found")
}
