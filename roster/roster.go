// Copyright (c) 2023-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

// Package roster holds the authoritative escalation contact roster. Entries
// are static configuration: they are loaded once and never mutated, so the
// resolver is safe for concurrent use.
package roster

import "strings"

type Contact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type Entry struct {
	Category         string   `json:"category"`
	Code             string   `json:"code"`
	PrimaryContact   Contact  `json:"primaryContact"`
	Responsibilities string   `json:"responsibilities"`
	Guidelines       []string `json:"guidelines"`
}

// Query carries the identifying fields an LLM proposed for an escalation.
// Any of them may be empty or a near-miss label.
type Query struct {
	Category string
	Code     string
	Email    string
}

// Resolver answers roster lookups through three precomputed lowercase
// indices. Email is the strongest signal, then code, then category.
type Resolver struct {
	entries    []Entry
	byEmail    map[string]*Entry
	byCode     map[string]*Entry
	byCategory map[string]*Entry
}

func NewResolver(entries []Entry) *Resolver {
	r := &Resolver{
		entries:    entries,
		byEmail:    make(map[string]*Entry, len(entries)),
		byCode:     make(map[string]*Entry, len(entries)),
		byCategory: make(map[string]*Entry, len(entries)),
	}
	for i := range r.entries {
		entry := &r.entries[i]
		r.byEmail[strings.ToLower(entry.PrimaryContact.Email)] = entry
		r.byCode[strings.ToLower(entry.Code)] = entry
		r.byCategory[strings.ToLower(entry.Category)] = entry
	}
	return r
}

// Resolve returns the first roster entry matching the query, trying email,
// then code, then category. It returns nil when nothing matches.
func (r *Resolver) Resolve(q Query) *Entry {
	if email := strings.ToLower(strings.TrimSpace(q.Email)); email != "" {
		if entry, ok := r.byEmail[email]; ok {
			return entry
		}
	}
	if code := strings.ToLower(strings.TrimSpace(q.Code)); code != "" {
		if entry, ok := r.byCode[code]; ok {
			return entry
		}
	}
	if category := strings.ToLower(strings.TrimSpace(q.Category)); category != "" {
		if entry, ok := r.byCategory[category]; ok {
			return entry
		}
	}
	return nil
}

func (r *Resolver) Entries() []Entry {
	return r.entries
}

// Categories returns the canonical category names in roster order.
func (r *Resolver) Categories() []string {
	categories := make([]string, len(r.entries))
	for i, entry := range r.entries {
		categories[i] = entry.Category
	}
	return categories
}

// FormatForPrompt renders the roster as plain text for inclusion in an LLM
// prompt so the model proposes canonical categories and contacts.
func (r *Resolver) FormatForPrompt() string {
	blocks := make([]string, 0, len(r.entries))
	for _, entry := range r.entries {
		lines := []string{
			entry.Category + " (" + entry.Code + ")",
			"Primary: " + entry.PrimaryContact.Name + " <" + entry.PrimaryContact.Email + "> (" + entry.PrimaryContact.Role + ")",
			"Responsibilities: " + entry.Responsibilities,
			"Guidelines: " + strings.Join(entry.Guidelines, " | "),
		}
		blocks = append(blocks, strings.Join(lines, "\n"))
	}
	return strings.Join(blocks, "\n\n")
}
