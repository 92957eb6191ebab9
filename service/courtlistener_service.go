package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"legalresearch-backend/models"
)

const (
	defaultCourtListenerURL = "https://www.courtlistener.com"
	courtListenerTimeout    = 10 * time.Second
	maxResponseBytes        = 20 * 1024 * 1024
)

// opinionIDPattern extracts the opinion id from a lookup redirect target,
// e.g. ".../opinion/108713/roe-v-wade/"
var opinionIDPattern = regexp.MustCompile(`/opinion/(\d+)/`)

// CaseLawClient is the case-law lookup surface used by the citation pipeline.
// Both methods report "nothing found" and transport failures the same way:
// a nil result.
type CaseLawClient interface {
	// ResolveCitation maps a citation string to an opinion, or nil
	ResolveCitation(ctx context.Context, citation string) *models.OpinionHit

	// Search runs a full-text opinion search capped at maxResults
	Search(ctx context.Context, query string, maxResults int) []models.SearchHit
}

// CourtListenerService talks to the CourtListener citation lookup and REST API
type CourtListenerService struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

// CourtListenerOption is a functional option for CourtListenerService
type CourtListenerOption func(*CourtListenerService)

// CourtListenerWithBaseURL sets the site root (citation lookup lives under /c,
// the REST API under /api/rest/v3)
func CourtListenerWithBaseURL(baseURL string) CourtListenerOption {
	return func(s *CourtListenerService) {
		s.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// CourtListenerWithAPIKey sets the API token sent with every request
func CourtListenerWithAPIKey(apiKey string) CourtListenerOption {
	return func(s *CourtListenerService) {
		s.apiKey = apiKey
	}
}

// CourtListenerWithHTTPClient sets the HTTP client
func CourtListenerWithHTTPClient(client *http.Client) CourtListenerOption {
	return func(s *CourtListenerService) {
		s.httpClient = client
	}
}

// CourtListenerWithLogger sets the logger
func CourtListenerWithLogger(logger *slog.Logger) CourtListenerOption {
	return func(s *CourtListenerService) {
		s.logger = logger
	}
}

// NewCourtListenerService creates a new CourtListener client
func NewCourtListenerService(opts ...CourtListenerOption) *CourtListenerService {
	s := &CourtListenerService{
		baseURL:    defaultCourtListenerURL,
		httpClient: &http.Client{Timeout: courtListenerTimeout},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OpinionURL returns the public page of an opinion
func OpinionURL(id int64) string {
	return fmt.Sprintf("%s/opinion/%d/", defaultCourtListenerURL, id)
}

func (s *CourtListenerService) lookupURL(p models.ParsedCitation) string {
	return fmt.Sprintf("%s/c/%s/%s/%s/", s.baseURL, url.PathEscape(p.Reporter), p.Volume, p.Page)
}

func (s *CourtListenerService) apiURL(path string) string {
	return s.baseURL + "/api/rest/v3" + path
}

// ResolveCitation resolves a citation to an opinion. It returns nil when the
// citation does not parse, the lookup says not found, the redirect target has
// no opinion id, or any request fails.
func (s *CourtListenerService) ResolveCitation(ctx context.Context, citation string) *models.OpinionHit {
	parsed, err := ParseCitation(citation)
	if err != nil {
		s.logger.Debug("Citation did not parse", "citation", citation)
		return nil
	}

	lookupURL := s.lookupURL(parsed)
	s.logger.Info("Resolving citation", "citation", citation, "url", lookupURL)

	resp, err := s.get(ctx, lookupURL, nil)
	if err != nil {
		s.logger.Error("Error resolving citation", "citation", citation, "error", err)
		return nil
	}
	// Drain so the connection can be reused; only the final URL matters
	io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
	resp.Body.Close()

	if resp.StatusCode >= 400 {
		s.logger.Warn("Citation not found", "citation", citation, "status_code", resp.StatusCode)
		return nil
	}

	finalURL := resp.Request.URL.String()
	m := opinionIDPattern.FindStringSubmatch(finalURL)
	if m == nil {
		s.logger.Warn("Could not extract opinion ID from URL", "url", finalURL)
		return nil
	}

	opinionID, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		s.logger.Warn("Invalid opinion ID in URL", "url", finalURL, "error", err)
		return nil
	}
	s.logger.Info("Found opinion ID", "opinion_id", opinionID)

	opinion, err := s.fetchOpinion(ctx, opinionID)
	if err != nil {
		s.logger.Error("Error fetching opinion", "citation", citation, "opinion_id", opinionID, "error", err)
		return nil
	}

	return &models.OpinionHit{
		ID:         opinionID,
		Data:       *opinion,
		Citation:   citation,
		OpinionURL: OpinionURL(opinionID),
	}
}

// fetchOpinion loads the full opinion record by id
func (s *CourtListenerService) fetchOpinion(ctx context.Context, id int64) (*models.OpinionRecord, error) {
	resp, err := s.get(ctx, s.apiURL(fmt.Sprintf("/opinions/%d/", id)), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("opinion API error: %d", resp.StatusCode)
	}

	var opinion models.OpinionRecord
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&opinion); err != nil {
		return nil, fmt.Errorf("failed to decode opinion: %w", err)
	}
	if opinion.ID == 0 {
		opinion.ID = id
	}

	return &opinion, nil
}

// searchResponse is the subset of the search API response we read
type searchResponse struct {
	Count   int                `json:"count"`
	Results []models.SearchHit `json:"results"`
}

// Search runs a precedential opinion search. It returns at most maxResults
// hits, or nil on any failure.
func (s *CourtListenerService) Search(ctx context.Context, query string, maxResults int) []models.SearchHit {
	params := url.Values{}
	params.Set("q", query)
	params.Set("type", "o")
	params.Set("stat_Precedential", "on")
	params.Set("format", "json")

	s.logger.Info("Searching CourtListener", "query", query, "max_results", maxResults)

	resp, err := s.get(ctx, s.apiURL("/search/"), params)
	if err != nil {
		s.logger.Error("Error searching CourtListener", "query", query, "error", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		s.logger.Warn("Search failed", "query", query, "status_code", resp.StatusCode)
		return nil
	}

	var data searchResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&data); err != nil {
		s.logger.Error("Error decoding search response", "query", query, "error", err)
		return nil
	}

	if maxResults >= 0 && len(data.Results) > maxResults {
		data.Results = data.Results[:maxResults]
	}
	return data.Results
}

func (s *CourtListenerService) get(ctx context.Context, rawURL string, params url.Values) (*http.Response, error) {
	if len(params) > 0 {
		rawURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Token "+s.apiKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	return resp, nil
}
