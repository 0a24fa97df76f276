// Copyright (c) 2023-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package llm

import (
	"errors"
	"fmt"
)

// ProviderError carries the HTTP-style status and message from a failed
// provider call so the API layer can relay both to the caller.
type ProviderError struct {
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("provider request failed (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("provider request failed: %s", e.Message)
}

// ErrEmptyCompletion is returned when the provider reports success but the
// completion contains no text.
var ErrEmptyCompletion = errors.New("provider returned an empty completion")

// TruncationError is returned when generation stopped for a reason other
// than a natural stop, e.g. a content filter or the output token limit.
type TruncationError struct {
	FinishReason string
}

func (e *TruncationError) Error() string {
	return "generation stopped unexpectedly: " + e.FinishReason
}

// AsProviderError unwraps err to a *ProviderError if there is one.
func AsProviderError(err error) (*ProviderError, bool) {
	var perr *ProviderError
	if errors.As(err, &perr) {
		return perr, true
	}
	return nil, false
}
