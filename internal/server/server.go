// Package server exposes the analysis pipeline over HTTP. It owns
// input validation and error masking: callers get field-level detail
// only for their own input mistakes, and a single generic message for
// anything that went wrong internally.
package server

import (
	"context"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/subtext-labs/subtext/internal/model"
	"github.com/subtext-labs/subtext/internal/pipeline"
)

// Analyzer runs one analysis end to end; satisfied by *pipeline.Pipeline
type Analyzer interface {
	Run(ctx context.Context, req pipeline.Request) (*model.AnalysisResult, error)
}

// Server is the HTTP surface around the analysis pipeline
type Server struct {
	engine   *gin.Engine
	analyzer Analyzer
	cfg      model.Config
	logger   *zap.Logger
}

// New creates a server with routes and middleware attached
func New(cfg model.Config, analyzer Analyzer, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Server.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept"},
		ExposeHeaders:    []string{"Content-Type"},
		AllowCredentials: true,
	}))

	s := &Server{
		engine:   engine,
		analyzer: analyzer,
		cfg:      cfg,
		logger:   logger,
	}
	s.attachRoutes()
	return s
}

func (s *Server) attachRoutes() {
	s.engine.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Subtext API")
	})

	s.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	analyze := s.engine.Group("/analyze")
	analyze.Use(clientRateLimit(s.cfg.Limits))
	analyze.POST("/text", s.handleAnalyzeText)
	analyze.POST("/screenshot", s.handleAnalyzeScreenshot)
}

// Handler returns the underlying HTTP handler, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until the listener fails or the process exits
func (s *Server) Run() error {
	srv := &http.Server{
		Addr:         s.cfg.Server.Addr,
		Handler:      s.engine,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}
	s.logger.Info("listening", zap.String("addr", s.cfg.Server.Addr))
	return srv.ListenAndServe()
}
