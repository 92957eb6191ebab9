package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"legalresearch-backend/service"
	"legalresearch-backend/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const docxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// ConvertHandler handles HTTP requests for PDF to DOCX conversion
type ConvertHandler struct {
	conversions *service.ConversionService
	logger      *slog.Logger
}

// NewConvertHandler creates a new convert handler
func NewConvertHandler(conversions *service.ConversionService, logger *slog.Logger) *ConvertHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConvertHandler{
		conversions: conversions,
		logger:      logger,
	}
}

// ConvertRequest is the body of POST /convert/convert-existing-pdf
type ConvertRequest struct {
	FileID string `json:"file_id" binding:"required"`
}

// ConvertToDocx handles POST /api/v1/convert/convert-to-docx
func (h *ConvertHandler) ConvertToDocx(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, "MISSING_FILE", "File is required")
		return
	}

	if service.DetectContentType(fileHeader.Filename, fileHeader.Header.Get("Content-Type")) != "application/pdf" {
		respondError(c, http.StatusBadRequest, "INVALID_FILE_TYPE", "Only PDF files are supported.")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "FILE_OPEN_ERROR", err.Error())
		return
	}
	defer file.Close()

	result, err := h.conversions.ConvertPDF(c.Request.Context(), fileHeader.Filename, file)
	if err != nil {
		h.respondConversionError(c, err)
		return
	}
	defer result.Cleanup()

	h.sendDocx(c, result)
}

// ConvertExistingPDF handles POST /api/v1/convert/convert-existing-pdf
func (h *ConvertHandler) ConvertExistingPDF(c *gin.Context) {
	var req ConvertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "file_id is required")
		return
	}
	id, err := uuid.Parse(strings.TrimSpace(req.FileID))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid file_id format")
		return
	}

	h.logger.Info("received conversion request", "file_id", id)
	result, err := h.conversions.ConvertExisting(c.Request.Context(), id)
	if err != nil {
		h.respondConversionError(c, err)
		return
	}
	defer result.Cleanup()

	if result.Document != nil {
		c.Header("X-Document-Id", result.Document.ID.String())
	}
	h.sendDocx(c, result)
}

func (h *ConvertHandler) sendDocx(c *gin.Context, result *service.ConversionResult) {
	f, err := result.Open()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "CONVERSION_FAILED", "Failed to read converted file")
		return
	}
	defer f.Close()

	c.DataFromReader(http.StatusOK, result.Size, docxContentType, f, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", result.Filename),
	})
}

func (h *ConvertHandler) respondConversionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotPDF):
		respondError(c, http.StatusBadRequest, "INVALID_FILE_TYPE", "Only PDF files can be converted to DOCX.")
	case errors.Is(err, service.ErrDocumentNotFound):
		respondError(c, http.StatusNotFound, "NOT_FOUND", "File not found.")
	case errors.Is(err, storage.ErrNotFound):
		respondError(c, http.StatusNotFound, "NOT_FOUND", "PDF file not found in storage.")
	case errors.Is(err, service.ErrConversionFailed):
		respondError(c, http.StatusInternalServerError, "CONVERSION_FAILED", service.ErrConversionFailed.Error())
	default:
		h.logger.Error("PDF to DOCX conversion failed", "error", err)
		respondError(c, http.StatusInternalServerError, "CONVERSION_FAILED", fmt.Sprintf("Conversion error: %v", err))
	}
}
