package service

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"legalresearch-backend/models"
	"legalresearch-backend/storage"

	"github.com/golang-jwt/jwt/v5"
)

const (
	editorUploadPrefix = "uploads"
	editorKeyLength    = 64
	editorKeyAlphabet  = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	editorTokenTTL     = 5 * time.Minute
	newDocumentTitle   = "Untitled Document"
	maxEditorDownload  = 50 * 1024 * 1024
)

var (
	// ErrMissingEditorFields is returned when an editor config request is incomplete
	ErrMissingEditorFields = errors.New("missing required fields")
	// ErrMissingCallbackFields is returned when a save callback lacks a filename or URL
	ErrMissingCallbackFields = errors.New("missing fileName or download URL")
	// ErrInvalidFilename is returned for filenames that are not a single path element
	ErrInvalidFilename = errors.New("invalid filename")
	// ErrEditorSecretMissing is returned when no signing secret is configured
	ErrEditorSecretMissing = errors.New("ONLYOFFICE_SECRET not set")
	// ErrInvalidEditorToken is returned when a callback token fails verification
	ErrInvalidEditorToken = errors.New("invalid editor token")
	// ErrEditorDocumentTooLarge is returned when a saved document exceeds the download cap
	ErrEditorDocumentTooLarge = errors.New("edited document exceeds maximum size")
)

// EditorRequest is the body of an editor config request
type EditorRequest struct {
	FileType     string `json:"fileType"`
	Title        string `json:"title"`
	FileName     string `json:"fileName"`
	DocumentType string `json:"documentType"`
	BaseURL      string `json:"baseUrl"`
	Theme        string `json:"theme"`
}

type editorClaims struct {
	Document     models.EditorDocument `json:"document"`
	EditorConfig models.EditorSettings `json:"editorConfig"`
	jwt.RegisteredClaims
}

// EditorService builds signed OnlyOffice editor configs and stores the
// documents OnlyOffice saves back
type EditorService struct {
	secret      []byte
	storage     storage.Storage
	httpClient  *http.Client
	maxDownload int64
	now         func() time.Time
	logger      *slog.Logger
}

// EditorServiceOption is a functional option for EditorService
type EditorServiceOption func(*EditorService)

// EditorWithSecret sets the JWT signing secret shared with OnlyOffice
func EditorWithSecret(secret string) EditorServiceOption {
	return func(s *EditorService) {
		s.secret = []byte(secret)
	}
}

// EditorWithStorage sets where edited documents live
func EditorWithStorage(st storage.Storage) EditorServiceOption {
	return func(s *EditorService) {
		s.storage = st
	}
}

// EditorWithHTTPClient sets the client used to fetch saved documents
func EditorWithHTTPClient(c *http.Client) EditorServiceOption {
	return func(s *EditorService) {
		s.httpClient = c
	}
}

// EditorWithMaxDownload overrides the 50MB cap on saved documents
func EditorWithMaxDownload(n int64) EditorServiceOption {
	return func(s *EditorService) {
		s.maxDownload = n
	}
}

// EditorWithClock overrides time.Now
func EditorWithClock(now func() time.Time) EditorServiceOption {
	return func(s *EditorService) {
		s.now = now
	}
}

// EditorWithLogger sets the logger
func EditorWithLogger(logger *slog.Logger) EditorServiceOption {
	return func(s *EditorService) {
		s.logger = logger
	}
}

// NewEditorService creates a new editor service
func NewEditorService(opts ...EditorServiceOption) *EditorService {
	s := &EditorService{
		httpClient:  &http.Client{Timeout: 60 * time.Second},
		maxDownload: maxEditorDownload,
		now:         time.Now,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BuildConfig returns a signed editor config. A fileType of "new" creates an
// empty DOCX named Document.docx, Document(1).docx, ... first.
func (s *EditorService) BuildConfig(ctx context.Context, req EditorRequest) (*models.EditorConfig, error) {
	if len(s.secret) == 0 {
		return nil, ErrEditorSecretMissing
	}

	fileType, title, fileName := req.FileType, req.Title, req.FileName
	if req.FileType == "new" {
		if req.BaseURL == "" || req.Theme == "" {
			return nil, ErrMissingEditorFields
		}

		var err error
		fileName, err = s.createBlankDocument(ctx)
		if err != nil {
			return nil, err
		}
		fileType, title = "docx", newDocumentTitle
	} else {
		if req.FileType == "" || req.Title == "" || req.FileName == "" ||
			req.DocumentType == "" || req.BaseURL == "" || req.Theme == "" {
			return nil, ErrMissingEditorFields
		}
		if err := checkFilename(fileName); err != nil {
			return nil, err
		}
	}

	key, err := randomKey(editorKeyLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate document key: %w", err)
	}

	baseURL := strings.TrimRight(req.BaseURL, "/")
	claims := editorClaims{
		Document: models.EditorDocument{
			FileType: fileType,
			Key:      key,
			Title:    title,
			URL:      fmt.Sprintf("%s/uploads/%s", baseURL, url.PathEscape(fileName)),
		},
		EditorConfig: models.EditorSettings{
			CallbackURL: fmt.Sprintf("%s/api/v1/document/callback?filename=%s", baseURL, url.QueryEscape(fileName)),
		},
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(s.now().Add(editorTokenTTL)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign editor token: %w", err)
	}

	cfg := &models.EditorConfig{
		Document:     claims.Document,
		EditorConfig: claims.EditorConfig,
		Exp:          claims.ExpiresAt.Unix(),
		Width:        "100%",
		Height:       "100%",
		Type:         "desktop",
		DocumentType: "word",
		Token:        token,
	}
	cfg.Document.Token = token
	cfg.EditorConfig.Token = token
	cfg.EditorConfig.Customization = &models.EditorCustomization{
		ForceSave: true,
		UITheme:   "theme-" + req.Theme,
		Zoom:      -2,
	}

	return cfg, nil
}

// HandleCallback stores the document OnlyOffice reports as saved. It returns
// false without error for statuses that carry nothing to save.
func (s *EditorService) HandleCallback(ctx context.Context, filename string, cb models.EditorCallback) (bool, error) {
	if !cb.IsFinalSave() {
		return false, nil
	}
	if filename == "" || cb.URL == "" {
		return false, ErrMissingCallbackFields
	}
	if err := checkFilename(filename); err != nil {
		return false, err
	}
	if cb.Token != "" {
		if err := s.verifyToken(cb.Token); err != nil {
			return false, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cb.URL, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+cb.Token)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("failed to download file from OnlyOffice: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("failed to download file from OnlyOffice: status %d", resp.StatusCode)
	}

	// One byte past the cap tells a full document from a truncated one
	content, err := io.ReadAll(io.LimitReader(resp.Body, s.maxDownload+1))
	if err != nil {
		return false, fmt.Errorf("failed to read file from OnlyOffice: %w", err)
	}
	if int64(len(content)) > s.maxDownload {
		return false, fmt.Errorf("%w: more than %d bytes", ErrEditorDocumentTooLarge, s.maxDownload)
	}

	if err := s.storage.Save(ctx, editorPath(filename), bytes.NewReader(content)); err != nil {
		return false, fmt.Errorf("failed to save edited document: %w", err)
	}

	s.logger.Info("edited document saved", "filename", filename, "status", cb.Status, "size", len(content))
	return true, nil
}

// OpenDocument returns the stored content of an editor document
func (s *EditorService) OpenDocument(ctx context.Context, filename string) (io.ReadCloser, error) {
	if err := checkFilename(filename); err != nil {
		return nil, err
	}
	return s.storage.Download(ctx, editorPath(filename))
}

func (s *EditorService) verifyToken(token string) error {
	if len(s.secret) == 0 {
		return ErrEditorSecretMissing
	}
	_, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEditorToken, err)
	}
	return nil
}

// createBlankDocument stores an empty DOCX under the first free
// Document.docx, Document(1).docx, ... name and returns that name
func (s *EditorService) createBlankDocument(ctx context.Context) (string, error) {
	name := "Document.docx"
	for i := 1; ; i++ {
		exists, err := s.storage.Exists(ctx, editorPath(name))
		if err != nil {
			return "", err
		}
		if !exists {
			break
		}
		name = fmt.Sprintf("Document(%d).docx", i)
	}

	content, err := blankDOCX()
	if err != nil {
		return "", fmt.Errorf("failed to build blank document: %w", err)
	}
	if err := s.storage.Save(ctx, editorPath(name), bytes.NewReader(content)); err != nil {
		return "", fmt.Errorf("failed to store blank document: %w", err)
	}
	return name, nil
}

func editorPath(filename string) string {
	return path.Join(editorUploadPrefix, filename)
}

func checkFilename(filename string) error {
	if filename == "" || filename == "." || filename == ".." ||
		strings.ContainsAny(filename, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidFilename, filename)
	}
	return nil
}

func randomKey(n int) (string, error) {
	alphabetSize := big.NewInt(int64(len(editorKeyAlphabet)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", err
		}
		b[i] = editorKeyAlphabet[idx.Int64()]
	}
	return string(b), nil
}

var blankDOCXParts = []struct {
	name string
	body string
}{
	{
		name: "[Content_Types].xml",
		body: `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/><Default Extension="xml" ContentType="application/xml"/><Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/></Types>`,
	},
	{
		name: "_rels/.rels",
		body: `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/></Relationships>`,
	},
	{
		name: "word/document.xml",
		body: `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p/></w:body></w:document>`,
	},
}

// blankDOCX returns a minimal empty Word document
func blankDOCX() ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, part := range blankDOCXParts {
		w, err := zw.Create(part.name)
		if err != nil {
			return nil, err
		}
		if _, err := io.WriteString(w, part.body); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
