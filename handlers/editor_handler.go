package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"legalresearch-backend/models"
	"legalresearch-backend/service"
	"legalresearch-backend/storage"

	"github.com/gin-gonic/gin"
)

// EditorHandler serves OnlyOffice editor configs, save callbacks and the
// documents being edited. Bodies follow the OnlyOffice protocol rather than
// the API envelope.
type EditorHandler struct {
	editor *service.EditorService
	logger *slog.Logger
}

// NewEditorHandler creates a new editor handler
func NewEditorHandler(editor *service.EditorService, logger *slog.Logger) *EditorHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &EditorHandler{
		editor: editor,
		logger: logger,
	}
}

// EditorConfig handles POST /api/v1/document/editor-config
func (h *EditorHandler) EditorConfig(c *gin.Context) {
	var req service.EditorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	cfg, err := h.editor.BuildConfig(c.Request.Context(), req)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, service.ErrMissingEditorFields) || errors.Is(err, service.ErrInvalidFilename) {
			status = http.StatusBadRequest
		}
		h.logger.Warn("editor config failed", "error", err)
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, cfg)
}

// Callback handles POST /api/v1/document/callback?filename=
func (h *EditorHandler) Callback(c *gin.Context) {
	var cb models.EditorCallback
	if err := c.ShouldBindJSON(&cb); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	saved, err := h.editor.HandleCallback(c.Request.Context(), c.Query("filename"), cb)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, service.ErrMissingCallbackFields), errors.Is(err, service.ErrInvalidFilename):
			status = http.StatusBadRequest
		case errors.Is(err, service.ErrInvalidEditorToken):
			status = http.StatusUnauthorized
		case errors.Is(err, service.ErrEditorDocumentTooLarge):
			status = http.StatusRequestEntityTooLarge
		}
		h.logger.Error("editor callback failed", "filename", c.Query("filename"), "status", cb.Status, "error", err)
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	if !saved {
		c.JSON(http.StatusOK, gin.H{"status": "ignored", "error": 0})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "saved", "error": 0})
}

// ServeDocument handles GET /uploads/:filename
func (h *EditorHandler) ServeDocument(c *gin.Context) {
	filename := c.Param("filename")

	reader, err := h.editor.OpenDocument(c.Request.Context(), filename)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidFilename):
			respondError(c, http.StatusBadRequest, "INVALID_FILENAME", "Invalid filename")
		case errors.Is(err, storage.ErrNotFound):
			respondError(c, http.StatusNotFound, "NOT_FOUND", "File not found")
		default:
			respondError(c, http.StatusInternalServerError, "DOWNLOAD_FAILED", err.Error())
		}
		return
	}
	defer reader.Close()

	c.DataFromReader(http.StatusOK, -1, storage.ContentType(filename), reader, nil)
}
