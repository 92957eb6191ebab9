package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"legalresearch-backend/config"
	"legalresearch-backend/handlers"
	"legalresearch-backend/repository"
	"legalresearch-backend/service"
	"legalresearch-backend/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/generative-ai-go/genai"
	"github.com/jackc/pgx/v5/pgxpool"
	"google.golang.org/api/option"
)

func main() {
	if !config.LoadDotEnv() {
		log.Printf("Warning: No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize database connections
	db, err := initPostgres(cfg)
	if err != nil {
		log.Fatal("Failed to initialize Postgres:", err)
	}
	defer db.Close()

	// Initialize storage
	fileStorage, err := storage.NewStorageFromEnv()
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	logger.Info("storage initialized")

	// Initialize repositories
	documentRepo := repository.NewDocumentRepository(db)

	// Initialize services
	courtListener := service.NewCourtListenerService(
		service.CourtListenerWithBaseURL(cfg.CourtListenerBaseURL),
		service.CourtListenerWithAPIKey(cfg.CourtListenerAPIKey),
		service.CourtListenerWithLogger(logger),
	)
	citationService := service.NewCitationService(courtListener, service.CitationWithLogger(logger))

	documentService := service.NewDocumentService(
		service.DocumentWithStore(documentRepo),
		service.DocumentWithStorage(fileStorage),
		service.DocumentWithLogger(logger),
	)

	conversionService := service.NewConversionService(
		service.ConversionWithConverter(service.NewSofficeConverter(cfg.SofficePath, logger)),
		service.ConversionWithDocuments(documentService),
		service.ConversionWithLogger(logger),
	)

	editorService := service.NewEditorService(
		service.EditorWithSecret(cfg.OnlyOfficeSecret),
		service.EditorWithStorage(fileStorage),
		service.EditorWithLogger(logger),
	)
	if cfg.OnlyOfficeSecret == "" {
		logger.Warn("ONLYOFFICE_SECRET not set, editor endpoints will fail")
	}

	// A nil *SummaryService must not end up inside the interface
	var summaries handlers.Summarizer
	geminiClient, err := initGemini(cfg)
	if err != nil {
		log.Fatal("Failed to initialize Gemini:", err)
	}
	if geminiClient != nil {
		defer geminiClient.Close()
		summaries = service.NewSummaryService(
			service.NewGeminiGenerator(geminiClient, cfg.GeminiModel),
			service.SummaryWithLogger(logger),
		)
	}

	// Initialize handlers
	research := handlers.NewResearchHandler(citationService, summaries, logger)
	rt := handlers.Router{
		Health:   handlers.NewHealthHandler(cfg),
		Research: research,
		Search:   handlers.NewSearchHandler(service.NewLegalSearchService(), research, cfg.MaxSearchResults),
		Files:    handlers.NewFileHandler(documentService, logger),
		Convert:  handlers.NewConvertHandler(conversionService, logger),
		Editor:   handlers.NewEditorHandler(editorService, logger),
	}

	r := handlers.NewEngine(cfg, rt, logger)

	logger.Info("server starting",
		"addr", cfg.Addr(),
		"environment", cfg.Environment,
		"cors_origins", cfg.AllowedOrigins(),
	)
	if err := r.Run(cfg.Addr()); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

func initPostgres(cfg *config.Config) (*pgxpool.Pool, error) {
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	slog.Info("postgres connection established")
	return pool, nil
}

// initGemini returns a nil client when no API key is configured
func initGemini(cfg *config.Config) (*genai.Client, error) {
	if cfg.GeminiAPIKey == "" {
		slog.Warn("GEMINI_API_KEY not set, summaries disabled")
		return nil, nil
	}

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return nil, err
	}

	slog.Info("gemini client initialized", "model", cfg.GeminiModel)
	return client, nil
}
