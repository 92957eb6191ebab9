package handlers

import (
	"net/http"

	"legalresearch-backend/service"

	"github.com/gin-gonic/gin"
)

// SearchHandler handles HTTP requests for legal search
type SearchHandler struct {
	search   *service.LegalSearchService
	research *ResearchHandler
	limit    int
}

// NewSearchHandler creates a new search handler. limit caps max_results;
// zero or less leaves it uncapped.
func NewSearchHandler(search *service.LegalSearchService, research *ResearchHandler, limit int) *SearchHandler {
	return &SearchHandler{
		search:   search,
		research: research,
		limit:    limit,
	}
}

// SearchRequest is the body of POST /search/. An omitted max_results means
// service.DefaultSearchResults; an explicit 0 returns no cases.
type SearchRequest struct {
	Query      string `json:"query" binding:"required"`
	MaxResults *int   `json:"max_results" binding:"omitempty,min=0"`
}

// QueryRequest is the body of POST /search/query
type QueryRequest struct {
	Query      string `json:"query" binding:"required"`
	Type       string `json:"type"` // "citation" (default) or "search"
	MaxResults *int   `json:"max_results" binding:"omitempty,min=0"`
}

// Search handles POST /api/v1/search/
func (h *SearchHandler) Search(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "query is required and max_results must not be negative")
		return
	}
	c.JSON(http.StatusOK, h.search.Search(req.Query, h.maxResults(req.MaxResults)))
}

// Mock handles GET /api/v1/search/mock
func (h *SearchHandler) Mock(c *gin.Context) {
	c.JSON(http.StatusOK, h.search.MockResponse())
}

// Query handles POST /api/v1/search/query. Citation queries go through the
// citation pipeline, anything else is a plain search.
func (h *SearchHandler) Query(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "query is required and max_results must not be negative")
		return
	}

	if req.Type == "" || req.Type == "citation" {
		h.research.respondCitation(c, req.Query)
		return
	}

	c.JSON(http.StatusOK, h.search.Search(req.Query, h.maxResults(req.MaxResults)))
}

// NotImplemented handles the search routes that have no backend yet
func (h *SearchHandler) NotImplemented(message, milestone string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusNotImplemented, gin.H{
			"message":   message,
			"milestone": milestone,
		})
	}
}

func (h *SearchHandler) maxResults(requested *int) int {
	n := service.DefaultSearchResults
	if requested != nil {
		n = *requested
	}
	if h.limit > 0 && n > h.limit {
		return h.limit
	}
	return n
}
