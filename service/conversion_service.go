package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"legalresearch-backend/models"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var (
	// ErrNotPDF is returned when the input is not a readable PDF
	ErrNotPDF = errors.New("only PDF files can be converted to DOCX")
	// ErrConversionFailed is returned when no converter run produced a DOCX
	ErrConversionFailed = errors.New("PDF conversion failed, the file might be incompatible or protected")
)

var disablePDFConfigDir sync.Once

// Converter turns the PDF at pdfPath into a DOCX written inside outDir and
// returns the DOCX path
type Converter interface {
	Convert(ctx context.Context, pdfPath, outDir string) (string, error)
}

// sofficeProfiles are tried in order until one yields a non-empty DOCX
var sofficeProfiles = [][]string{
	{"--infilter=writer_pdf_import", "--convert-to", "docx:MS Word 2007 XML"},
	{"--convert-to", "docx:MS Word 2007 XML"},
	{"--convert-to", "docx"},
}

// SofficeConverter converts with a headless LibreOffice
type SofficeConverter struct {
	binary   string
	timeout  time.Duration
	profiles [][]string
	logger   *slog.Logger
}

// NewSofficeConverter creates a converter running the given soffice binary
func NewSofficeConverter(binary string, logger *slog.Logger) *SofficeConverter {
	if binary == "" {
		binary = "soffice"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SofficeConverter{
		binary:   binary,
		timeout:  2 * time.Minute,
		profiles: sofficeProfiles,
		logger:   logger,
	}
}

// Convert runs soffice with each parameter set until one succeeds
func (c *SofficeConverter) Convert(ctx context.Context, pdfPath, outDir string) (string, error) {
	want := filepath.Join(outDir, replaceExtension(pdfPath, ".docx"))

	var lastErr error
	for i, profile := range c.profiles {
		args := append([]string{"--headless", "--norestore"}, profile...)
		args = append(args, "--outdir", outDir, pdfPath)

		runCtx, cancel := context.WithTimeout(ctx, c.timeout)
		cmd := exec.CommandContext(runCtx, c.binary, args...)
		var stderr bytes.Buffer
		cmd.Stderr = &stderr
		err := cmd.Run()
		cancel()

		if err != nil {
			lastErr = fmt.Errorf("soffice profile %d: %w: %s", i+1, err, strings.TrimSpace(stderr.String()))
			c.logger.Warn("conversion attempt failed", "profile", i+1, "error", err)
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			continue
		}

		if info, err := os.Stat(want); err == nil && info.Size() > 0 {
			return want, nil
		}
		lastErr = fmt.Errorf("soffice profile %d: output missing or empty", i+1)
		c.logger.Warn("conversion produced no output", "profile", i+1)
	}

	return "", lastErr
}

// ConversionResult is a converted DOCX waiting to be sent. Cleanup removes
// its temporary files and must be called once the response is written.
type ConversionResult struct {
	Filename string
	Path     string
	Size     int64
	Pages    int
	Document *models.Document

	workDir string
}

// Cleanup removes the temporary files behind the result
func (r *ConversionResult) Cleanup() {
	if r == nil || r.workDir == "" {
		return
	}
	os.RemoveAll(r.workDir)
}

// Open opens the converted DOCX for reading
func (r *ConversionResult) Open() (*os.File, error) {
	return os.Open(r.Path)
}

// ConversionService converts PDFs to DOCX
type ConversionService struct {
	converter Converter
	documents *DocumentService
	tempDir   string
	logger    *slog.Logger
}

// ConversionServiceOption is a functional option for ConversionService
type ConversionServiceOption func(*ConversionService)

// ConversionWithConverter sets the PDF to DOCX converter
func ConversionWithConverter(c Converter) ConversionServiceOption {
	return func(s *ConversionService) {
		s.converter = c
	}
}

// ConversionWithDocuments sets the document service used for stored PDFs
func ConversionWithDocuments(d *DocumentService) ConversionServiceOption {
	return func(s *ConversionService) {
		s.documents = d
	}
}

// ConversionWithTempDir sets where working files are created
func ConversionWithTempDir(dir string) ConversionServiceOption {
	return func(s *ConversionService) {
		s.tempDir = dir
	}
}

// ConversionWithLogger sets the logger
func ConversionWithLogger(logger *slog.Logger) ConversionServiceOption {
	return func(s *ConversionService) {
		s.logger = logger
	}
}

// NewConversionService creates a new conversion service
func NewConversionService(opts ...ConversionServiceOption) *ConversionService {
	// pdfcpu would otherwise write a config file under the user's config dir
	disablePDFConfigDir.Do(func() {
		model.ConfigPath = "disable"
	})

	s := &ConversionService{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ConvertPDF converts an uploaded PDF. The returned result must be cleaned up.
func (s *ConversionService) ConvertPDF(ctx context.Context, filename string, data io.Reader) (*ConversionResult, error) {
	if s.converter == nil {
		return nil, errors.New("converter not set")
	}

	workDir, err := os.MkdirTemp(s.tempDir, "convert-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create work dir: %w", err)
	}
	result := &ConversionResult{workDir: workDir}

	if err := s.convert(ctx, filename, data, result); err != nil {
		result.Cleanup()
		return nil, err
	}
	return result, nil
}

// ConvertExisting converts a stored PDF document, stores the DOCX as a new
// document and returns it for download. The returned result must be cleaned up.
func (s *ConversionService) ConvertExisting(ctx context.Context, id uuid.UUID) (*ConversionResult, error) {
	if s.documents == nil {
		return nil, errors.New("document service not set")
	}

	doc, reader, err := s.documents.Open(ctx, id)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	if !strings.HasSuffix(strings.ToLower(doc.OriginalFilename), ".pdf") {
		return nil, ErrNotPDF
	}

	result, err := s.ConvertPDF(ctx, doc.OriginalFilename, reader)
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(result.Path)
	if err != nil {
		result.Cleanup()
		return nil, fmt.Errorf("failed to read converted file: %w", err)
	}

	// The download still succeeds when the DOCX cannot be stored
	stored, err := s.documents.SaveGenerated(ctx, replaceExtension(doc.OriginalFilename, ".docx"), content, doc.UserID)
	if err != nil {
		s.logger.Warn("failed to store converted DOCX", "document_id", id, "error", err)
	} else {
		result.Document = stored
	}

	return result, nil
}

func (s *ConversionService) convert(ctx context.Context, filename string, data io.Reader, result *ConversionResult) error {
	pdfPath := filepath.Join(result.workDir, "input.pdf")
	f, err := os.Create(pdfPath)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := io.Copy(f, data); err != nil {
		f.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	pages, err := validatePDF(pdfPath)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotPDF, err)
	}

	outDir := filepath.Join(result.workDir, "out")
	if err := os.Mkdir(outDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	s.logger.Info("starting PDF to DOCX conversion", "original_filename", filename, "pages", pages)
	start := time.Now()

	docxPath, err := s.converter.Convert(ctx, pdfPath, outDir)
	if err != nil {
		s.logger.Error("PDF to DOCX conversion failed", "original_filename", filename, "error", err)
		return fmt.Errorf("%w: %v", ErrConversionFailed, err)
	}
	info, err := os.Stat(docxPath)
	if err != nil || info.Size() == 0 {
		return ErrConversionFailed
	}

	if filename == "" {
		filename = "converted"
	}
	result.Filename = SanitizeFilename(replaceExtension(filename, ".docx"))
	if result.Filename == "" || result.Filename == "docx" {
		result.Filename = "converted.docx"
	}
	result.Path = docxPath
	result.Size = info.Size()
	result.Pages = pages

	s.logger.Info("PDF to DOCX conversion completed",
		"original_filename", filename,
		"output_size", info.Size(),
		"duration", time.Since(start),
	)
	return nil
}

// validatePDF checks that path holds a readable PDF and returns its page count
func validatePDF(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	header := make([]byte, 5)
	if _, err := io.ReadFull(f, header); err != nil || string(header) != "%PDF-" {
		return 0, errors.New("missing PDF header")
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}

	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadValidateAndOptimize(f, conf)
	if err != nil {
		return 0, fmt.Errorf("pdfcpu read: %w", err)
	}
	return ctx.PageCount, nil
}
