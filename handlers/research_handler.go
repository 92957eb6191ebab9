package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"legalresearch-backend/models"

	"github.com/gin-gonic/gin"
)

// CitationResolver runs the citation resolution pipeline
type CitationResolver interface {
	HandleCitationQuery(ctx context.Context, query string) models.ResolutionResult
}

// Summarizer produces a summary of a resolved opinion
type Summarizer interface {
	Summarize(ctx context.Context, result models.ResolutionResult) (string, error)
}

// ResearchHandler handles HTTP requests for citation research
type ResearchHandler struct {
	citations CitationResolver
	summaries Summarizer
	logger    *slog.Logger
}

// NewResearchHandler creates a new research handler. summaries may be nil.
func NewResearchHandler(citations CitationResolver, summaries Summarizer, logger *slog.Logger) *ResearchHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResearchHandler{
		citations: citations,
		summaries: summaries,
		logger:    logger,
	}
}

// CitationRequest is the body of POST /research/citations
type CitationRequest struct {
	Citation string `json:"citation" binding:"required"`
}

// GetCitation handles GET /api/v1/research/citations/:citation
func (h *ResearchHandler) GetCitation(c *gin.Context) {
	h.respondCitation(c, c.Param("citation"))
}

// PostCitation handles POST /api/v1/research/citations
func (h *ResearchHandler) PostCitation(c *gin.Context) {
	var req CitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "citation is required")
		return
	}
	h.respondCitation(c, req.Citation)
}

// GetPDF handles GET /api/v1/research/pdf/:citation
func (h *ResearchHandler) GetPDF(c *gin.Context) {
	c.JSON(http.StatusNotImplemented, gin.H{
		"message":   "PDF access not yet implemented",
		"citation":  c.Param("citation"),
		"milestone": "Goal 5 - Authoritative PDFs and context viewer",
	})
}

// respondCitation resolves citation and writes the result body directly:
// 404 for not_found, 200 otherwise
func (h *ResearchHandler) respondCitation(c *gin.Context, citation string) {
	if citation == "" {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "citation is required")
		return
	}

	h.logger.Info("citation lookup requested", "citation", citation)
	result := h.citations.HandleCitationQuery(c.Request.Context(), citation)

	if result.ResolutionStatus() == models.StatusNotFound {
		c.JSON(http.StatusNotFound, result)
		return
	}

	if wantSummary(c) {
		h.attachSummary(c.Request.Context(), result)
	}
	c.JSON(http.StatusOK, result)
}

// attachSummary fills the summary field; failures leave the result untouched
func (h *ResearchHandler) attachSummary(ctx context.Context, result models.ResolutionResult) {
	if h.summaries == nil {
		return
	}

	summary, err := h.summaries.Summarize(ctx, result)
	if err != nil {
		h.logger.Warn("summary failed", "error", err)
		return
	}

	switch r := result.(type) {
	case *models.SingleResult:
		r.Summary = summary
	case *models.SearchResult:
		r.Summary = summary
	}
}

func wantSummary(c *gin.Context) bool {
	v, err := strconv.ParseBool(c.Query("summarize"))
	return err == nil && v
}
