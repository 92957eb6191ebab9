package repository

import (
	"context"
	"errors"
	"fmt"

	"legalresearch-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrDocumentNotFound is returned when no document row matches
var ErrDocumentNotFound = errors.New("document not found")

const documentColumns = `id, user_id, original_filename, filename, file_path, mime_type, file_size, processing_status, created_at`

// DocumentRepository handles database operations for the documents table
type DocumentRepository struct {
	db *pgxpool.Pool
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Create inserts a document record. A zero ID is generated by the database.
func (r *DocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	if doc.ProcessingStatus == "" {
		doc.ProcessingStatus = models.ProcessingPending
	}

	query := `
		INSERT INTO documents (
			id, user_id, original_filename, filename, file_path, mime_type, file_size, processing_status
		) VALUES (COALESCE($1, gen_random_uuid()), $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	var id *uuid.UUID
	if doc.ID != uuid.Nil {
		id = &doc.ID
	}

	err := r.db.QueryRow(
		ctx, query,
		id,
		doc.UserID,
		doc.OriginalFilename,
		doc.Filename,
		doc.FilePath,
		doc.MimeType,
		doc.FileSize,
		doc.ProcessingStatus,
	).Scan(&doc.ID, &doc.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}

	return nil
}

// GetByID retrieves a document by ID
func (r *DocumentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`

	doc, err := scanDocument(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	return doc, nil
}

// List retrieves documents newest first. A nil userID lists every document.
func (r *DocumentRepository) List(ctx context.Context, userID *uuid.UUID, limit, offset int) ([]*models.Document, error) {
	query := `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE ($1::uuid IS NULL OR user_id = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []*models.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, doc)
	}

	return docs, rows.Err()
}

// Delete deletes a document record
func (r *DocumentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	return err
}

func scanDocument(row pgx.Row) (*models.Document, error) {
	doc := &models.Document{}
	var status string
	err := row.Scan(
		&doc.ID,
		&doc.UserID,
		&doc.OriginalFilename,
		&doc.Filename,
		&doc.FilePath,
		&doc.MimeType,
		&doc.FileSize,
		&status,
		&doc.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	doc.ProcessingStatus = models.ProcessingStatus(status)
	return doc, nil
}
