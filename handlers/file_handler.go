package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"legalresearch-backend/service"
	"legalresearch-backend/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// FileHandler handles HTTP requests for document uploads
type FileHandler struct {
	documents *service.DocumentService
	logger    *slog.Logger
}

// NewFileHandler creates a new file handler
func NewFileHandler(documents *service.DocumentService, logger *slog.Logger) *FileHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileHandler{
		documents: documents,
		logger:    logger,
	}
}

// UploadFile handles POST /api/v1/upload/upload
func (h *FileHandler) UploadFile(c *gin.Context) {
	userID, ok := optionalUUID(c, c.PostForm("user_id"), "INVALID_USER_ID", "Invalid user_id format")
	if !ok {
		return
	}

	// Get file from form
	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, "MISSING_FILE", "File is required")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "FILE_OPEN_ERROR", err.Error())
		return
	}
	defer file.Close()

	doc, err := h.documents.Upload(c.Request.Context(), service.UploadRequest{
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        fileHeader.Size,
		Data:        file,
		UserID:      userID,
	})
	switch {
	case errors.Is(err, service.ErrFileTooLarge):
		respondError(c, http.StatusBadRequest, "FILE_TOO_LARGE",
			fmt.Sprintf("File size exceeds maximum of %d bytes", h.documents.MaxFileSize()))
		return
	case errors.Is(err, service.ErrUnsupportedFileType):
		respondError(c, http.StatusBadRequest, "INVALID_FILE_TYPE",
			"File type not supported. Please upload PDF, DOC, DOCX, TXT, or RTF files.")
		return
	case err != nil:
		h.logger.Error("file upload failed", "filename", fileHeader.Filename, "error", err)
		respondError(c, http.StatusInternalServerError, "UPLOAD_FAILED", fmt.Sprintf("Upload failed: %v", err))
		return
	}

	respondData(c, http.StatusCreated, doc)
}

// ListFiles handles GET /api/v1/upload/list
func (h *FileHandler) ListFiles(c *gin.Context) {
	userID, ok := optionalUUID(c, c.Query("user_id"), "INVALID_USER_ID", "Invalid user_id format")
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))

	docs, err := h.documents.List(c.Request.Context(), service.ListDocumentsRequest{
		UserID: userID,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		h.logger.Error("failed to list files", "error", err)
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to list files")
		return
	}

	respondData(c, http.StatusOK, gin.H{"files": docs})
}

// GetFile handles GET /api/v1/upload/files/:id
func (h *FileHandler) GetFile(c *gin.Context) {
	id, ok := pathUUID(c, "Invalid file ID format")
	if !ok {
		return
	}

	file, reader, err := h.documents.Open(c.Request.Context(), id)
	if err != nil {
		respondDocumentError(c, err)
		return
	}
	defer reader.Close()

	c.DataFromReader(http.StatusOK, file.FileSize, file.MimeType, reader, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", file.Filename),
	})
}

// DeleteFile handles DELETE /api/v1/upload/files/:id
func (h *FileHandler) DeleteFile(c *gin.Context) {
	id, ok := pathUUID(c, "Invalid file ID format")
	if !ok {
		return
	}

	if err := h.documents.Delete(c.Request.Context(), id); err != nil {
		respondDocumentError(c, err)
		return
	}

	respondData(c, http.StatusOK, gin.H{"id": id})
}

// respondDocumentError maps document lookup errors to responses
func respondDocumentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrDocumentNotFound):
		respondError(c, http.StatusNotFound, "NOT_FOUND", "File not found")
	case errors.Is(err, storage.ErrNotFound):
		respondError(c, http.StatusNotFound, "NOT_FOUND", "File not found in storage")
	default:
		respondError(c, http.StatusInternalServerError, "DOWNLOAD_FAILED", fmt.Sprintf("Failed to load file: %v", err))
	}
}

func pathUUID(c *gin.Context, message string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", message)
		return uuid.Nil, false
	}
	return id, true
}

func optionalUUID(c *gin.Context, raw, code, message string) (*uuid.UUID, bool) {
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		respondError(c, http.StatusBadRequest, code, message)
		return nil, false
	}
	return &id, true
}
