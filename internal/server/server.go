// Package server exposes the pipelines over HTTP: a menu of the four
// problems, a text entrypoint, and a multipart upload entrypoint that runs
// text acquisition first.
package server

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/plivedi/meddocs/constants"
	"github.com/plivedi/meddocs/internal/acquire"
	"github.com/plivedi/meddocs/internal/document"
	processor "github.com/plivedi/meddocs/internal/pipeline"
)

type Server struct {
	proc      *processor.Processor
	extractor *acquire.Extractor
	logger    *zap.Logger
}

func New(proc *processor.Processor, extractor *acquire.Extractor, logger *zap.Logger) *Server {
	return &Server{proc: proc, extractor: extractor, logger: logger}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/", s.root)
	r.GET("/menu", s.menu)
	r.POST("/process", s.process)
	r.POST("/process-file", s.processFile)
	return r
}

type menuItem struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type processRequest struct {
	ProblemID int    `json:"problem_id"`
	Text      string `json:"text"`
	Debug     bool   `json:"debug"`
}

func (s *Server) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Call /menu to choose a problem, then POST /process.",
	})
}

func (s *Server) menu(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Select a problem_id (1-4) and call POST /process with your input.",
		"options": []menuItem{
			{ID: 1, Name: "Appointment Scheduler Assistant", Description: "Text/OCR -> Entity Extraction -> Normalization (fixed timezone)"},
			{ID: 2, Name: "Health Risk Profiler", Description: "Text/OCR -> Factor Extraction -> Risk & Recommendations"},
			{ID: 3, Name: "Medical Report Simplifier", Description: "Text/OCR -> Test Extraction -> Plain-Language Summary"},
			{ID: 4, Name: "Amount Detection", Description: "Text/OCR -> Numeric Normalization -> Context Classification"},
		},
	})
}

func (s *Server) process(c *gin.Context) {
	var req processRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	problem, err := constants.ParseProblem(req.ProblemID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}

	res, err := s.proc.Run(c.Request.Context(), problem, acquire.FromText(req.Text), req.Debug)
	if err != nil {
		s.logger.Warn("process failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "pipeline failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"problem_id": req.ProblemID, "result": res})
}

func (s *Server) processFile(c *gin.Context) {
	var form struct {
		ProblemID int  `form:"problem_id" binding:"required"`
		Debug     bool `form:"debug"`
	}
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "problem_id is required"})
		return
	}
	problem, err := constants.ParseProblem(form.ProblemID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	upload, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if constants.MapExtToFormat(filepath.Ext(upload.Filename)) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported file type"})
		return
	}

	// Acquisition needs a path on disk for the external OCR tools.
	tmp, err := os.CreateTemp("", "meddocs-upload-*"+filepath.Ext(upload.Filename))
	if err != nil {
		s.logger.Error("temp file failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "upload failed"})
		return
	}
	tmpPath := tmp.Name()
	_ = tmp.Close()
	defer func() {
		if rmErr := os.Remove(tmpPath); rmErr != nil {
			s.logger.Warn("failed to remove upload", zap.String("path", tmpPath), zap.Error(rmErr))
		}
	}()
	if err := c.SaveUploadedFile(upload, tmpPath); err != nil {
		s.logger.Error("save upload failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "upload failed"})
		return
	}

	var doc document.Raw
	doc, err = s.extractor.Extract(c.Request.Context(), tmpPath)
	if err != nil {
		s.logger.Warn("acquisition failed", zap.String("filename", upload.Filename), zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not extract text from upload"})
		return
	}

	res, err := s.proc.Run(c.Request.Context(), problem, doc, form.Debug)
	if err != nil {
		s.logger.Warn("process failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "pipeline failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"problem_id": form.ProblemID, "result": res})
}
