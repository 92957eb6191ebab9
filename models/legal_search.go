package models

// LegalCase represents a single case returned by the legal search endpoint
type LegalCase struct {
	CaseName    string  `json:"case_name"`
	Citation    string  `json:"citation"`
	Snippet     string  `json:"snippet"`
	Source      string  `json:"source"`
	Score       float64 `json:"score"`
	Court       string  `json:"court"`
	DateDecided string  `json:"date_decided"`
}

// LegalSearchResponse represents the body of a legal search response
type LegalSearchResponse struct {
	Query        string      `json:"query"`
	TotalResults int         `json:"total_results"`
	Results      []LegalCase `json:"results"`
	Sources      []string    `json:"sources"`
	SearchTimeMS int         `json:"search_time_ms"`
}
