package main

import (
	"context"
	"fmt"
	"log"

	"legalresearch-backend/config"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	config.LoadDotEnv()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	// gen_random_uuid lives in pgcrypto before Postgres 13
	if _, err := pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS pgcrypto"); err != nil {
		log.Printf("Warning: Failed to create pgcrypto extension: %v", err)
	}

	schemaSQL := `
CREATE TABLE IF NOT EXISTS documents (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    user_id UUID,

    -- Names: as uploaded, and sanitized for storage
    original_filename TEXT NOT NULL,
    filename TEXT NOT NULL,

    -- Storage key within the configured backend
    file_path TEXT NOT NULL,
    mime_type VARCHAR(255) NOT NULL,
    file_size BIGINT NOT NULL CHECK (file_size >= 0),

    processing_status VARCHAR(20) NOT NULL DEFAULT 'pending'
        CHECK (processing_status IN ('pending', 'completed', 'failed')),

    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		log.Fatalf("Failed to create documents table: %v", err)
	}
	log.Println("✓ Created documents table")

	indexes := []struct {
		name string
		sql  string
	}{
		{
			name: "Documents by user, newest first",
			sql:  "CREATE INDEX IF NOT EXISTS idx_documents_user_created ON documents(user_id, created_at DESC);",
		},
		{
			name: "Documents by creation time",
			sql:  "CREATE INDEX IF NOT EXISTS idx_documents_created ON documents(created_at DESC);",
		},
	}

	for _, idx := range indexes {
		if _, err := pool.Exec(ctx, idx.sql); err != nil {
			log.Printf("Warning: Failed to create index %s: %v", idx.name, err)
		} else {
			log.Printf("✓ Created index: %s", idx.name)
		}
	}

	fmt.Println("\n✅ Database schema created successfully!")
	fmt.Println("   Table: documents")
	fmt.Printf("   Indexes: %d\n", len(indexes))
}
