// Copyright (c) 2023-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package roster

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_EmailBeatsCategory(t *testing.T) {
	r := DefaultResolver()

	// Email points at EDI/API, category points at Vessel. Email wins.
	entry := r.Resolve(Query{
		Category: "Vessel",
		Email:    "tom.tan@psa123.com",
	})

	require.NotNil(t, entry)
	assert.Equal(t, "EA", entry.Code)
	assert.Equal(t, "Tom Tan", entry.PrimaryContact.Name)
}

func TestResolve_CodeBeatsCategory(t *testing.T) {
	r := DefaultResolver()

	entry := r.Resolve(Query{
		Category: "Helpdesk",
		Code:     "infra",
	})

	require.NotNil(t, entry)
	assert.Equal(t, "Infrastructure / SRE", entry.Category)
}

func TestResolve_CaseInsensitive(t *testing.T) {
	r := DefaultResolver()

	require.NotNil(t, r.Resolve(Query{Email: "TOM.TAN@PSA123.COM"}))
	require.NotNil(t, r.Resolve(Query{Code: "cntr"}))
	require.NotNil(t, r.Resolve(Query{Category: "edi/api"}))
}

func TestResolve_NoMatch(t *testing.T) {
	r := DefaultResolver()

	assert.Nil(t, r.Resolve(Query{Category: "Payroll", Code: "PAY", Email: "nobody@example.com"}))
	assert.Nil(t, r.Resolve(Query{}))
}

func TestFormatForPrompt_ContainsEveryEntry(t *testing.T) {
	r := DefaultResolver()
	prompt := r.FormatForPrompt()

	for _, entry := range r.Entries() {
		assert.True(t, strings.Contains(prompt, entry.Category+" ("+entry.Code+")"))
		assert.True(t, strings.Contains(prompt, entry.PrimaryContact.Email))
	}
}

func TestCategories_RosterOrder(t *testing.T) {
	r := DefaultResolver()
	assert.Equal(t, []string{"Container", "Vessel", "EDI/API", "Infrastructure / SRE", "Helpdesk"}, r.Categories())
}
