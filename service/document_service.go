package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"legalresearch-backend/models"
	"legalresearch-backend/repository"
	"legalresearch-backend/storage"

	"github.com/google/uuid"
)

const (
	defaultMaxUploadSize = 10 * 1024 * 1024 // 10MB
	generatedPrefix      = "documents"
)

var (
	// ErrFileTooLarge is returned when an upload exceeds the size cap
	ErrFileTooLarge = errors.New("file exceeds maximum upload size")
	// ErrUnsupportedFileType is returned for uploads outside the allowed types
	ErrUnsupportedFileType = errors.New("file type not supported")
	// ErrDocumentNotFound is returned when a document record does not exist
	ErrDocumentNotFound = repository.ErrDocumentNotFound
)

var allowedUploadTypes = map[string]bool{
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"text/plain":      true,
	"application/rtf": true,
}

// DocumentStore persists document records
type DocumentStore interface {
	Create(ctx context.Context, doc *models.Document) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error)
	List(ctx context.Context, userID *uuid.UUID, limit, offset int) ([]*models.Document, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// DocumentService handles uploads and retrieval of stored documents
type DocumentService struct {
	docs        DocumentStore
	storage     storage.Storage
	maxFileSize int64
	logger      *slog.Logger
}

// DocumentServiceOption is a functional option for DocumentService
type DocumentServiceOption func(*DocumentService)

// DocumentWithStore sets the document record store
func DocumentWithStore(docs DocumentStore) DocumentServiceOption {
	return func(s *DocumentService) {
		s.docs = docs
	}
}

// DocumentWithStorage sets the file storage backend
func DocumentWithStorage(st storage.Storage) DocumentServiceOption {
	return func(s *DocumentService) {
		s.storage = st
	}
}

// DocumentWithMaxFileSize overrides the 10MB upload cap
func DocumentWithMaxFileSize(n int64) DocumentServiceOption {
	return func(s *DocumentService) {
		s.maxFileSize = n
	}
}

// DocumentWithLogger sets the logger
func DocumentWithLogger(logger *slog.Logger) DocumentServiceOption {
	return func(s *DocumentService) {
		s.logger = logger
	}
}

// NewDocumentService creates a new document service
func NewDocumentService(opts ...DocumentServiceOption) *DocumentService {
	s := &DocumentService{
		maxFileSize: defaultMaxUploadSize,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MaxFileSize returns the upload size cap in bytes
func (s *DocumentService) MaxFileSize() int64 {
	return s.maxFileSize
}

// UploadRequest represents a file upload
type UploadRequest struct {
	Filename    string
	ContentType string
	Size        int64
	Data        io.Reader
	UserID      *uuid.UUID
}

// Upload validates, stores and records an uploaded file
func (s *DocumentService) Upload(ctx context.Context, req UploadRequest) (*models.Document, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	if req.Size > s.maxFileSize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrFileTooLarge, req.Size, s.maxFileSize)
	}

	mimeType := DetectContentType(req.Filename, req.ContentType)
	if !allowedUploadTypes[mimeType] {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFileType, mimeType)
	}

	safeName := SanitizeFilename(req.Filename)
	if safeName == "" {
		safeName = "upload"
	}

	// Read one byte past the cap so a lying Size cannot slip through
	data, err := io.ReadAll(io.LimitReader(req.Data, s.maxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > s.maxFileSize {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrFileTooLarge, s.maxFileSize)
	}

	doc := &models.Document{
		ID:               uuid.New(),
		UserID:           req.UserID,
		OriginalFilename: req.Filename,
		Filename:         safeName,
		MimeType:         mimeType,
		FileSize:         int64(len(data)),
		ProcessingStatus: models.ProcessingCompleted,
	}

	doc.FilePath, err = s.storage.Upload(ctx, doc.ID, safeName, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to store file: %w", err)
	}

	if err := s.docs.Create(ctx, doc); err != nil {
		// Try to clean up uploaded file
		if delErr := s.storage.Delete(ctx, doc.FilePath); delErr != nil {
			s.logger.Warn("failed to remove orphaned upload", "path", doc.FilePath, "error", delErr)
		}
		return nil, fmt.Errorf("failed to save document record: %w", err)
	}

	s.logger.Info("file uploaded", "document_id", doc.ID, "filename", doc.Filename, "size", doc.FileSize)
	return doc, nil
}

// SaveGenerated stores content produced by the service itself (a converted
// DOCX, for example) under documents/<id>/<name> and records it as completed
func (s *DocumentService) SaveGenerated(ctx context.Context, filename string, data []byte, userID *uuid.UUID) (*models.Document, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	safeName := SanitizeFilename(filename)
	if safeName == "" {
		return nil, fmt.Errorf("invalid filename: %q", filename)
	}

	doc := &models.Document{
		ID:               uuid.New(),
		UserID:           userID,
		OriginalFilename: filename,
		Filename:         safeName,
		MimeType:         storage.ContentType(safeName),
		FileSize:         int64(len(data)),
		ProcessingStatus: models.ProcessingCompleted,
	}
	doc.FilePath = path.Join(generatedPrefix, doc.ID.String(), safeName)

	if err := s.storage.Save(ctx, doc.FilePath, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("failed to store file: %w", err)
	}

	if err := s.docs.Create(ctx, doc); err != nil {
		if delErr := s.storage.Delete(ctx, doc.FilePath); delErr != nil {
			s.logger.Warn("failed to remove orphaned file", "path", doc.FilePath, "error", delErr)
		}
		return nil, fmt.Errorf("failed to save document record: %w", err)
	}

	return doc, nil
}

// ListDocumentsRequest represents a request to list documents
type ListDocumentsRequest struct {
	UserID *uuid.UUID
	Limit  int
	Offset int
}

// List returns stored documents, newest first
func (s *DocumentService) List(ctx context.Context, req ListDocumentsRequest) ([]*models.Document, error) {
	if s.docs == nil {
		return nil, errors.New("document store not set")
	}

	docs, err := s.docs.List(ctx, req.UserID, req.Limit, req.Offset)
	if err != nil {
		return nil, err
	}
	if docs == nil {
		docs = []*models.Document{}
	}
	return docs, nil
}

// Get returns a document record by ID
func (s *DocumentService) Get(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	if s.docs == nil {
		return nil, errors.New("document store not set")
	}
	return s.docs.GetByID(ctx, id)
}

// Open returns a document record together with a reader over its content.
// The caller closes the reader.
func (s *DocumentService) Open(ctx context.Context, id uuid.UUID) (*models.Document, io.ReadCloser, error) {
	if err := s.ready(); err != nil {
		return nil, nil, err
	}

	doc, err := s.docs.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	reader, err := s.storage.Download(ctx, doc.FilePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to download file: %w", err)
	}
	return doc, reader, nil
}

// Delete removes a document record and its stored file
func (s *DocumentService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.ready(); err != nil {
		return err
	}

	doc, err := s.docs.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.docs.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete document record: %w", err)
	}
	if err := s.storage.Delete(ctx, doc.FilePath); err != nil {
		s.logger.Warn("failed to remove stored file", "path", doc.FilePath, "error", err)
	}
	return nil
}

func (s *DocumentService) ready() error {
	if s.docs == nil {
		return errors.New("document store not set")
	}
	if s.storage == nil {
		return errors.New("storage not set")
	}
	return nil
}

// DetectContentType returns the media type of an upload, preferring the
// declared type and falling back to the file extension
func DetectContentType(filename, declared string) string {
	mediaType, _, _ := strings.Cut(declared, ";")
	mediaType = strings.ToLower(strings.TrimSpace(mediaType))
	if mediaType == "" || mediaType == "application/octet-stream" {
		return storage.ContentType(filename)
	}
	return mediaType
}
