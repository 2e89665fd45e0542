package server

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/subtext-labs/subtext/internal/pipeline"
)

// genericFailureMessage is the only wording internal failures may
// surface; everything specific stays in the logs.
const genericFailureMessage = "Analysis failed. Please try again later."

type analyzeTextRequest struct {
	Text    string `json:"text"`
	Context string `json:"context"`
}

type analyzeScreenshotRequest struct {
	Image   string `json:"image"` // Base64, optionally a data URL
	Text    string `json:"text"`
	Context string `json:"context"`
}

func (s *Server) handleAnalyzeText(c *gin.Context) {
	var req analyzeTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if strings.TrimSpace(req.Text) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required", "field": "text"})
		return
	}
	if len(req.Text) > s.cfg.Limits.MaxTextChars {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is too long", "field": "text"})
		return
	}

	s.runAnalysis(c, pipeline.Request{Text: req.Text, Context: req.Context})
}

func (s *Server) handleAnalyzeScreenshot(c *gin.Context) {
	var req analyzeScreenshotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if strings.TrimSpace(req.Image) == "" && strings.TrimSpace(req.Text) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "either image or text is required"})
		return
	}
	if len(req.Text) > s.cfg.Limits.MaxTextChars {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is too long", "field": "text"})
		return
	}

	var image []byte
	mime := "image/png"
	if req.Image != "" {
		payload := req.Image
		// Browsers send canvas exports as data URLs
		if strings.HasPrefix(payload, "data:") {
			meta, rest, found := strings.Cut(payload, ",")
			if !found {
				c.JSON(http.StatusBadRequest, gin.H{"error": "image is not valid base64", "field": "image"})
				return
			}
			if m, ok := strings.CutPrefix(meta, "data:"); ok {
				if mt, _, _ := strings.Cut(m, ";"); mt != "" {
					mime = mt
				}
			}
			payload = rest
		}

		decoded, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "image is not valid base64", "field": "image"})
			return
		}
		if len(decoded) > s.cfg.Limits.MaxImageBytes {
			c.JSON(http.StatusBadRequest, gin.H{"error": "image is too large", "field": "image"})
			return
		}
		image = decoded
	}

	s.runAnalysis(c, pipeline.Request{
		Text:      req.Text,
		Context:   req.Context,
		Image:     image,
		ImageMIME: mime,
	})
}

func (s *Server) runAnalysis(c *gin.Context, req pipeline.Request) {
	s.logger.Info("analysis request received",
		zap.String("client", c.ClientIP()),
		zap.Int("text_chars", len(req.Text)),
		zap.Bool("has_image", len(req.Image) > 0))

	result, err := s.analyzer.Run(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, pipeline.ErrNoInput) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		s.logger.Error("analysis pipeline failed",
			zap.String("client", c.ClientIP()),
			zap.Error(err))

		body := gin.H{"error": genericFailureMessage}
		if !s.cfg.Server.ReleaseMode {
			body["details"] = err.Error()
		}
		c.JSON(http.StatusInternalServerError, body)
		return
	}

	s.logger.Info("analysis completed",
		zap.String("client", c.ClientIP()),
		zap.Int("strategies", len(result.Strategies)),
		zap.Int("risk_flags", len(result.RiskFlags)))

	c.JSON(http.StatusOK, result)
}
