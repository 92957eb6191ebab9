package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a storage path does not exist
var ErrNotFound = errors.New("file not found in storage")

// Storage interface for file storage operations
type Storage interface {
	// Upload stores a file under a path derived from fileID and returns that path
	Upload(ctx context.Context, fileID uuid.UUID, filename string, data io.Reader) (string, error)

	// Save stores data at an exact storage path, replacing any existing file
	Save(ctx context.Context, storagePath string, data io.Reader) error

	// Download retrieves a file by storage path
	Download(ctx context.Context, storagePath string) (io.ReadCloser, error)

	// Exists reports whether a file is stored at storagePath
	Exists(ctx context.Context, storagePath string) (bool, error)

	// Delete removes a file by storage path
	Delete(ctx context.Context, storagePath string) error
}

// StorageType represents the storage backend type
type StorageType string

const (
	StorageTypeLocal    StorageType = "local"
	StorageTypeS3       StorageType = "s3"
	StorageTypeSupabase StorageType = "supabase"
)

// StorageConfig holds configuration for storage
type StorageConfig struct {
	Type         StorageType
	LocalPath    string // For local storage
	S3Bucket     string // For S3 storage
	S3Region     string // For S3 storage
	S3Endpoint   string // Custom endpoint (Supabase S3 gateway)
	AWSAccessKey string
	AWSSecretKey string
}

// NewStorage creates a new storage instance based on configuration
func NewStorage(cfg StorageConfig) (Storage, error) {
	switch cfg.Type {
	case StorageTypeLocal:
		return NewLocalStorage(cfg.LocalPath)
	case StorageTypeS3, StorageTypeSupabase:
		return NewS3Storage(cfg)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}

// ConfigFromEnv reads storage configuration from environment variables
func ConfigFromEnv() (StorageConfig, error) {
	storageType := os.Getenv("STORAGE_TYPE")
	if storageType == "" {
		storageType = "local" // Default to local for development
	}

	cfg := StorageConfig{
		Type: StorageType(storageType),
	}

	switch cfg.Type {
	case StorageTypeLocal:
		cfg.LocalPath = os.Getenv("STORAGE_LOCAL_PATH")
		if cfg.LocalPath == "" {
			cfg.LocalPath = "./uploads"
		}

	case StorageTypeS3:
		cfg.S3Bucket = os.Getenv("AWS_S3_BUCKET")
		cfg.S3Region = os.Getenv("AWS_REGION")
		if cfg.S3Region == "" {
			cfg.S3Region = "us-east-1" // Default region
		}
		cfg.AWSAccessKey = os.Getenv("AWS_ACCESS_KEY_ID")
		cfg.AWSSecretKey = os.Getenv("AWS_SECRET_ACCESS_KEY")

		if cfg.S3Bucket == "" {
			return cfg, errors.New("AWS_S3_BUCKET environment variable is required for S3 storage")
		}

	case StorageTypeSupabase:
		supabaseURL := strings.TrimRight(os.Getenv("SUPABASE_URL"), "/")
		if supabaseURL == "" {
			return cfg, errors.New("SUPABASE_URL environment variable is required for Supabase storage")
		}
		cfg.S3Endpoint = supabaseURL + "/storage/v1/s3"
		cfg.S3Bucket = os.Getenv("SUPABASE_BUCKET")
		if cfg.S3Bucket == "" {
			cfg.S3Bucket = "documents"
		}
		cfg.S3Region = os.Getenv("SUPABASE_S3_REGION")
		if cfg.S3Region == "" {
			cfg.S3Region = "us-east-1"
		}
		cfg.AWSAccessKey = os.Getenv("SUPABASE_S3_ACCESS_KEY")
		cfg.AWSSecretKey = os.Getenv("SUPABASE_S3_SECRET_KEY")

	default:
		return cfg, fmt.Errorf("unknown storage type: %s", storageType)
	}

	return cfg, nil
}

// NewStorageFromEnv creates a storage instance from environment variables
func NewStorageFromEnv() (Storage, error) {
	cfg, err := ConfigFromEnv()
	if err != nil {
		return nil, err
	}
	return NewStorage(cfg)
}

// generateStoragePath generates a unique storage path for a file
func generateStoragePath(fileID uuid.UUID, filename string) string {
	ext := filepath.Ext(filename)
	baseName := strings.TrimSuffix(filename, ext)
	// Sanitize filename
	baseName = strings.ReplaceAll(baseName, " ", "_")
	baseName = strings.ReplaceAll(baseName, "/", "_")
	baseName = strings.ReplaceAll(baseName, "\\", "_")

	// Use fileID to ensure uniqueness
	return fmt.Sprintf("%s/%s_%s%s", fileID.String()[:2], fileID.String(), baseName, ext)
}

// ContentType determines content type from filename
func ContentType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return "application/pdf"
	case ".txt":
		return "text/plain"
	case ".rtf":
		return "application/rtf"
	case ".doc":
		return "application/msword"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	default:
		return "application/octet-stream"
	}
}
