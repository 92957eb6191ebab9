package models

import (
	"encoding/json"
	"fmt"
)

// Source names the case-law provider reported in resolution results
const Source = "CourtListener"

// OpinionTextUnavailable is returned when an opinion record carries no text
const OpinionTextUnavailable = "Opinion text not available."

// SearchTextUnavailable is returned when a search hit carries no text
const SearchTextUnavailable = "Text not available"

// ConfidenceLow marks a match that came from free-text search
const ConfidenceLow = "low"

// ParsedCitation represents a citation split into its volume, reporter and page
type ParsedCitation struct {
	Volume   string `json:"volume"`
	Reporter string `json:"reporter"` // Always uppercase
	Page     string `json:"page"`
}

// String returns the citation in "VOL REP PAGE" form
func (p ParsedCitation) String() string {
	return fmt.Sprintf("%s %s %s", p.Volume, p.Reporter, p.Page)
}

// OpinionRecord represents an opinion as returned by the opinion data API
type OpinionRecord struct {
	ID                int64  `json:"id"`
	CaseName          string `json:"case_name,omitempty"`
	HTMLWithCitations string `json:"html_with_citations,omitempty"`
	HTML              string `json:"html,omitempty"`
	PlainText         string `json:"plain_text,omitempty"`
}

// Text returns the best available opinion text.
// Precedence: html_with_citations, html, plain_text.
func (o OpinionRecord) Text() string {
	switch {
	case o.HTMLWithCitations != "":
		return o.HTMLWithCitations
	case o.HTML != "":
		return o.HTML
	case o.PlainText != "":
		return o.PlainText
	default:
		return OpinionTextUnavailable
	}
}

// OpinionHit is a successful citation lookup
type OpinionHit struct {
	ID         int64         `json:"id"`
	Data       OpinionRecord `json:"data"`
	Citation   string        `json:"citation"`
	OpinionURL string        `json:"opinion_url"`
}

// CitationList holds the citation field of a search hit, which the search API
// sends either as a single string or as a list of strings
type CitationList []string

// UnmarshalJSON accepts a string, a list of strings or null
func (c *CitationList) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*c = nil
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single == "" {
			*c = nil
		} else {
			*c = CitationList{single}
		}
		return nil
	}

	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("citation must be a string or a list of strings: %w", err)
	}
	*c = CitationList(many)
	return nil
}

// First returns the first non-empty citation, or fallback
func (c CitationList) First(fallback string) string {
	for _, citation := range c {
		if citation != "" {
			return citation
		}
	}
	return fallback
}

// SearchHit represents one result of the full-text opinion search
type SearchHit struct {
	ID                int64        `json:"id"`
	CaseName          string       `json:"caseName,omitempty"`
	Citation          CitationList `json:"citation,omitempty"`
	HTMLWithCitations string       `json:"html_with_citations,omitempty"`
	PlainText         string       `json:"plain_text,omitempty"`
}

// Text returns html_with_citations, falling back to plain_text
func (h SearchHit) Text() string {
	if h.HTMLWithCitations != "" {
		return h.HTMLWithCitations
	}
	if h.PlainText != "" {
		return h.PlainText
	}
	return SearchTextUnavailable
}

// ResolutionStatus tags the variant of a ResolutionResult
type ResolutionStatus string

const (
	StatusSingle       ResolutionStatus = "single"
	StatusSearchResult ResolutionStatus = "search_result"
	StatusNotFound     ResolutionStatus = "not_found"
)

// ResolutionResult is the outcome of a citation query. It is exactly one of
// *SingleResult, *SearchResult or *NotFoundResult.
type ResolutionResult interface {
	ResolutionStatus() ResolutionStatus
	resolutionResult()
}

// SingleResult is an exact or transformed citation match
type SingleResult struct {
	Status          ResolutionStatus `json:"status"`
	OpinionURL      string           `json:"opinion_url"`
	Text            string           `json:"text"`
	Citation        string           `json:"citation"`
	OpinionID       int64            `json:"opinion_id"`
	Source          string           `json:"source"`
	TransformedFrom string           `json:"transformed_from,omitempty"`
	Summary         string           `json:"summary,omitempty"`
}

// NewSingleResult builds a SingleResult from a lookup hit.
// transformedFrom is empty when the original citation resolved directly.
func NewSingleResult(hit *OpinionHit, transformedFrom string) *SingleResult {
	return &SingleResult{
		Status:          StatusSingle,
		OpinionURL:      hit.OpinionURL,
		Text:            hit.Data.Text(),
		Citation:        hit.Citation,
		OpinionID:       hit.ID,
		Source:          Source,
		TransformedFrom: transformedFrom,
	}
}

func (r *SingleResult) ResolutionStatus() ResolutionStatus { return StatusSingle }
func (r *SingleResult) resolutionResult()                  {}

// SearchResult is a low-confidence match found through free-text search
type SearchResult struct {
	Status     ResolutionStatus `json:"status"`
	OpinionURL string           `json:"opinion_url"`
	Text       string           `json:"text"`
	Citation   string           `json:"citation"`
	OpinionID  int64            `json:"opinion_id"`
	Source     string           `json:"source"`
	SearchTerm string           `json:"search_term"`
	Confidence string           `json:"confidence"`
	Summary    string           `json:"summary,omitempty"`
}

// NewSearchResult builds a SearchResult from the top search hit
func NewSearchResult(hit SearchHit, opinionURL, query, searchTerm string) *SearchResult {
	return &SearchResult{
		Status:     StatusSearchResult,
		OpinionURL: opinionURL,
		Text:       hit.Text(),
		Citation:   hit.Citation.First(query),
		OpinionID:  hit.ID,
		Source:     Source,
		SearchTerm: searchTerm,
		Confidence: ConfidenceLow,
	}
}

func (r *SearchResult) ResolutionStatus() ResolutionStatus { return StatusSearchResult }
func (r *SearchResult) resolutionResult()                  {}

// NotFoundResult is the terminal outcome when every strategy failed
type NotFoundResult struct {
	Status   ResolutionStatus `json:"status"`
	Message  string           `json:"message"`
	Citation string           `json:"citation"`
}

// NewNotFoundResult builds a NotFoundResult for the original query
func NewNotFoundResult(query string) *NotFoundResult {
	return &NotFoundResult{
		Status:   StatusNotFound,
		Message:  fmt.Sprintf("Could not find case for citation: %s", query),
		Citation: query,
	}
}

func (r *NotFoundResult) ResolutionStatus() ResolutionStatus { return StatusNotFound }
func (r *NotFoundResult) resolutionResult()                  {}
