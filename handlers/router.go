package handlers

import (
	"log/slog"
	"time"

	"legalresearch-backend/config"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Router groups the handlers mounted by the API server
type Router struct {
	Health   *HealthHandler
	Research *ResearchHandler
	Search   *SearchHandler
	Files    *FileHandler
	Convert  *ConvertHandler
	Editor   *EditorHandler
}

// NewEngine creates a gin engine with CORS, cookie date fixing and request
// logging installed, and every route registered
func NewEngine(cfg *config.Config, rt Router, logger *slog.Logger) *gin.Engine {
	corsConfig := cors.Config{
		AllowOrigins:     cfg.AllowedOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "x-client-info", "apikey"},
		ExposeHeaders:    []string{"Content-Disposition", "Content-Length", "X-Document-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(corsConfig.AllowOrigins) == 0 {
		logger.Warn("no CORS origins configured, cross-origin requests will be rejected")
		corsConfig.AllowOriginFunc = func(string) bool { return false }
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(logger))
	r.Use(cors.New(corsConfig))
	r.Use(CookieDates(logger))

	rt.Register(r)
	return r
}

// Register mounts every route on r
func (rt Router) Register(r gin.IRouter) {
	if rt.Health != nil {
		r.GET("/", rt.Health.Root)
		r.GET("/health", rt.Health.Health)
	}
	if rt.Editor != nil {
		r.GET("/uploads/:filename", rt.Editor.ServeDocument)
	}

	api := r.Group("/api/v1")
	{
		if rt.Health != nil {
			api.GET("/health/", rt.Health.APIHealth)
		}

		if rt.Research != nil {
			research := api.Group("/research")
			research.GET("/citations/:citation", rt.Research.GetCitation)
			research.POST("/citations", rt.Research.PostCitation)
			research.GET("/pdf/:citation", rt.Research.GetPDF)
		}

		if rt.Search != nil {
			search := api.Group("/search")
			search.GET("/", rt.Search.NotImplemented("Search endpoint not yet implemented", "Goal 2 - Core retrieval loop"))
			search.POST("/", rt.Search.Search)
			search.GET("/mock", rt.Search.Mock)
			search.POST("/query", rt.Search.Query)
			search.POST("/stream", rt.Search.NotImplemented("Streaming search endpoint not yet implemented", "Goal 3 - Streaming API and basic UI"))
		}

		if rt.Files != nil {
			upload := api.Group("/upload")
			upload.POST("/upload", rt.Files.UploadFile)
			upload.GET("/list", rt.Files.ListFiles)
			upload.GET("/files/:id", rt.Files.GetFile)
			upload.DELETE("/files/:id", rt.Files.DeleteFile)
		}

		if rt.Convert != nil {
			convert := api.Group("/convert")
			convert.POST("/convert-to-docx", rt.Convert.ConvertToDocx)
			convert.POST("/convert-existing-pdf", rt.Convert.ConvertExistingPDF)
		}

		if rt.Editor != nil {
			document := api.Group("/document")
			document.POST("/editor-config", rt.Editor.EditorConfig)
			document.POST("/callback", rt.Editor.Callback)
		}
	}
}
