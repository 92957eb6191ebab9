package service

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"legalresearch-backend/models"
)

const (
	maxTransformations  = 10
	maxSearchTerms      = 5
	searchFallbackLimit = 5
)

// reporterVariation lists the alternative spellings tried for one reporter.
// Only the listed direction is generated; "US" does not map back to "U.S.".
type reporterVariation struct {
	reporter   string
	variations []string
}

var reporterVariations = []reporterVariation{
	{"U.S.", []string{"US", "U S", "United States"}},
	{"F.2d", []string{"F. 2d", "F2d", "F 2d", "Federal Reporter, Second Series"}},
	{"F.3d", []string{"F. 3d", "F3d", "F 3d", "Federal Reporter, Third Series"}},
	{"S.Ct.", []string{"S Ct", "S. Ct", "Supreme Court Reporter"}},
	{"L.Ed.", []string{"L Ed", "L. Ed", "Lawyers Edition"}},
	{"L.Ed.2d", []string{"L. Ed. 2d", "L Ed 2d", "Lawyers Edition, Second Series"}},
}

// caseNamePatterns find "Roe v. Wade" style case names, one per separator
var caseNamePatterns = []*regexp.Regexp{
	regexp.MustCompile(`[A-Z][a-z]+ v\. [A-Z][a-z]+`),
	regexp.MustCompile(`[A-Z][a-z]+ v [A-Z][a-z]+`),
	regexp.MustCompile(`[A-Z][a-z]+ vs\. [A-Z][a-z]+`),
	regexp.MustCompile(`[A-Z][a-z]+ vs [A-Z][a-z]+`),
}

var caseNameSeparators = []string{" v. ", " v ", " vs. ", " vs "}

// CitationService resolves citation queries through direct lookup,
// citation rewrites and finally free-text search
type CitationService struct {
	client CaseLawClient
	logger *slog.Logger
}

// CitationServiceOption is a functional option for CitationService
type CitationServiceOption func(*CitationService)

// CitationWithLogger sets the logger
func CitationWithLogger(logger *slog.Logger) CitationServiceOption {
	return func(s *CitationService) {
		s.logger = logger
	}
}

// NewCitationService creates a citation service backed by client
func NewCitationService(client CaseLawClient, opts ...CitationServiceOption) *CitationService {
	s := &CitationService{
		client: client,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HandleCitationQuery resolves query to exactly one result variant. Failures
// of every stage fall through to the next; the last stage yields NotFound.
func (s *CitationService) HandleCitationQuery(ctx context.Context, query string) models.ResolutionResult {
	s.logger.Info("Handling citation query", "query", query)

	if hit := s.client.ResolveCitation(ctx, query); hit != nil {
		s.logger.Info("Direct citation resolution successful", "citation", query)
		return models.NewSingleResult(hit, "")
	}

	s.logger.Info("Direct resolution failed, trying transformations", "citation", query)
	if result := s.tryTransformations(ctx, query); result != nil {
		return result
	}

	s.logger.Info("Citation transformations failed, trying search", "citation", query)
	if result := s.trySearchFallback(ctx, query); result != nil {
		return result
	}

	s.logger.Warn("No results found for citation", "citation", query)
	return models.NewNotFoundResult(query)
}

func (s *CitationService) tryTransformations(ctx context.Context, citation string) *models.SingleResult {
	for _, transformed := range GenerateTransformations(citation) {
		s.logger.Debug("Trying transformed citation", "original", citation, "transformed", transformed)

		hit := s.client.ResolveCitation(ctx, transformed)
		if hit == nil {
			continue
		}

		s.logger.Info("Transformation successful", "original", citation, "transformed", transformed)
		return models.NewSingleResult(hit, citation)
	}
	return nil
}

func (s *CitationService) trySearchFallback(ctx context.Context, query string) *models.SearchResult {
	for _, term := range ExtractSearchTerms(query) {
		s.logger.Debug("Trying search term", "original", query, "search_term", term)

		hits := s.client.Search(ctx, term, searchFallbackLimit)
		if len(hits) == 0 {
			continue
		}

		s.logger.Info("Search fallback successful", "original", query, "search_term", term)
		top := hits[0]
		return models.NewSearchResult(top, OpinionURL(top.ID), query, term)
	}
	return nil
}

// GenerateTransformations returns up to 10 rewrites of citation, in
// generation order, without duplicates and without citation itself
func GenerateTransformations(citation string) []string {
	var candidates []string

	parsed, err := ParseCitation(citation)
	if err == nil {
		vol, rep, page := parsed.Volume, parsed.Reporter, parsed.Page

		candidates = append(candidates,
			vol+" "+rep+" "+page,
			vol+rep+page,
			vol+" "+strings.ReplaceAll(rep, ".", "")+" "+page,
		)

		for _, rv := range reporterVariations {
			if !strings.EqualFold(rep, rv.reporter) {
				continue
			}
			for _, variation := range rv.variations {
				candidates = append(candidates,
					vol+" "+variation+" "+page,
					vol+variation+page,
				)
			}
		}

		candidates = append(candidates, vol+rep+page)
	} else {
		candidates = append(candidates,
			strings.ReplaceAll(citation, " ", ""),
			strings.ReplaceAll(citation, "  ", " "),
			strings.ToUpper(citation),
			strings.ToLower(citation),
		)
	}

	return dedupe(candidates, maxTransformations, citation)
}

// ExtractSearchTerms returns up to 5 search terms for query: case names
// found in it (or the whole query), each with its separator spelled out
// and collapsed to a space
func ExtractSearchTerms(query string) []string {
	var terms []string
	for _, pattern := range caseNamePatterns {
		terms = append(terms, pattern.FindAllString(query, -1)...)
	}
	if len(terms) == 0 {
		terms = append(terms, query)
	}

	var variations []string
	for _, term := range terms {
		variations = append(variations, term)
		for _, sep := range caseNameSeparators {
			variations = append(variations, strings.ReplaceAll(term, sep, " "))
		}
	}

	return dedupe(variations, maxSearchTerms)
}

// dedupe keeps the first occurrence of each value, drops every value in
// exclude, and stops at limit entries
func dedupe(values []string, limit int, exclude ...string) []string {
	seen := make(map[string]bool, len(values)+len(exclude))
	for _, v := range exclude {
		seen[v] = true
	}
	result := make([]string, 0, limit)
	for _, v := range values {
		if seen[v] {
			continue
		}
		seen[v] = true
		result = append(result, v)
		if len(result) == limit {
			break
		}
	}
	return result
}
