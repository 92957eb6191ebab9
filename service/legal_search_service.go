package service

import (
	"strings"

	"legalresearch-backend/models"
)

// DefaultSearchResults is the result count used when a caller does not ask for one
const DefaultSearchResults = 10

const (
	searchTimeMS = 150
	supremeCourt = "Supreme Court of the United States"
)

var searchSources = []string{"CourtListener", "CAP"}

type catalogueEntry struct {
	key   string
	cases []models.LegalCase
}

// searchCatalogue is checked in order; every matching entry contributes its cases
var searchCatalogue = []catalogueEntry{
	{
		key: "roe v wade",
		cases: []models.LegalCase{
			{
				CaseName:    "Roe v. Wade",
				Citation:    "410 U.S. 113 (1973)",
				Snippet:     "The Court held that a woman's right to an abortion fell within the right to privacy protected by the Fourteenth Amendment.",
				Source:      "CourtListener",
				Score:       1.0,
				Court:       supremeCourt,
				DateDecided: "1973-01-22",
			},
			{
				CaseName:    "Doe v. Bolton",
				Citation:    "410 U.S. 179 (1973)",
				Snippet:     "The Court struck down a Georgia law regulating abortion, decided the same day as Roe v. Wade.",
				Source:      "CAP",
				Score:       0.95,
				Court:       supremeCourt,
				DateDecided: "1973-01-22",
			},
		},
	},
	{
		key: "miranda",
		cases: []models.LegalCase{
			{
				CaseName:    "Miranda v. Arizona",
				Citation:    "384 U.S. 436 (1966)",
				Snippet:     "The Court held that the Fifth Amendment privilege against self-incrimination requires law enforcement to inform suspects of their rights before custodial interrogation.",
				Source:      "CourtListener",
				Score:       1.0,
				Court:       supremeCourt,
				DateDecided: "1966-06-13",
			},
			{
				CaseName:    "Gideon v. Wainwright",
				Citation:    "372 U.S. 335 (1963)",
				Snippet:     "The Court held that the Sixth Amendment right to counsel applies to state criminal proceedings through the Fourteenth Amendment.",
				Source:      "CAP",
				Score:       0.85,
				Court:       supremeCourt,
				DateDecided: "1963-03-18",
			},
		},
	},
	{
		key: "brown v board",
		cases: []models.LegalCase{
			{
				CaseName:    "Brown v. Board of Education of Topeka",
				Citation:    "347 U.S. 483 (1954)",
				Snippet:     "The Court held that racial segregation in public schools violates the Equal Protection Clause of the Fourteenth Amendment.",
				Source:      "CourtListener",
				Score:       1.0,
				Court:       supremeCourt,
				DateDecided: "1954-05-17",
			},
			{
				CaseName:    "Plessy v. Ferguson",
				Citation:    "163 U.S. 537 (1896)",
				Snippet:     "The Court upheld racial segregation under the 'separate but equal' doctrine, later overturned by Brown v. Board.",
				Source:      "CAP",
				Score:       0.75,
				Court:       supremeCourt,
				DateDecided: "1896-05-18",
			},
		},
	},
}

var generalCases = []models.LegalCase{
	{
		CaseName:    "Marbury v. Madison",
		Citation:    "5 U.S. 137 (1803)",
		Snippet:     "The Court established the principle of judicial review, holding that courts have the power to declare laws unconstitutional.",
		Source:      "CourtListener",
		Score:       0.8,
		Court:       supremeCourt,
		DateDecided: "1803-02-24",
	},
	{
		CaseName:    "McCulloch v. Maryland",
		Citation:    "17 U.S. 316 (1819)",
		Snippet:     "The Court upheld the constitutionality of the Second Bank of the United States and established the supremacy of federal law over state law.",
		Source:      "CAP",
		Score:       0.7,
		Court:       supremeCourt,
		DateDecided: "1819-03-06",
	},
}

// LegalSearchService answers free-text legal searches from a fixed catalogue
type LegalSearchService struct{}

// NewLegalSearchService creates a new legal search service
func NewLegalSearchService() *LegalSearchService {
	return &LegalSearchService{}
}

// Search returns the catalogue cases matching query, capped at maxResults.
// A catalogue entry matches when its key, or any single word of it, occurs
// in the lower-cased query. Without a match the general cases are returned.
// A maxResults of zero or less yields no cases.
func (s *LegalSearchService) Search(query string, maxResults int) models.LegalSearchResponse {
	maxResults = max(maxResults, 0)

	lowered := strings.ToLower(query)

	var results []models.LegalCase
	for _, entry := range searchCatalogue {
		if catalogueMatches(entry.key, lowered) {
			results = append(results, entry.cases...)
		}
	}
	if len(results) == 0 {
		results = append(results, generalCases...)
	}
	if len(results) > maxResults {
		results = results[:maxResults]
	}

	return models.LegalSearchResponse{
		Query:        query,
		TotalResults: len(results),
		Results:      results,
		Sources:      append([]string(nil), searchSources...),
		SearchTimeMS: searchTimeMS,
	}
}

// MockResponse returns the fixed payload used to smoke-test the stack end to end
func (s *LegalSearchService) MockResponse() models.LegalSearchResponse {
	roe := searchCatalogue[0].cases
	doe := roe[1]
	doe.Score = 0.85

	return models.LegalSearchResponse{
		Query:        "410 U.S. 113",
		TotalResults: 2,
		Results:      []models.LegalCase{roe[0], doe},
		Sources:      append([]string(nil), searchSources...),
		SearchTimeMS: 120,
	}
}

func catalogueMatches(key, query string) bool {
	if strings.Contains(query, key) {
		return true
	}
	for _, word := range strings.Fields(key) {
		if strings.Contains(query, word) {
			return true
		}
	}
	return false
}
