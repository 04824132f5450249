// Package httpapi exposes the fraud engine over HTTP/JSON.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Veraticus/the-fraud-must-flow/internal/common"
	"github.com/Veraticus/the-fraud-must-flow/internal/engine"
	"github.com/Veraticus/the-fraud-must-flow/internal/model"
	"github.com/Veraticus/the-fraud-must-flow/internal/queue"
)

// BasePath is the prefix of every API route.
const BasePath = "/api/v1"

// Engine is the subset of the fraud engine served over HTTP.
type Engine interface {
	Generate(ctx context.Context) ([]model.Transaction, error)
	ApplyRules(ctx context.Context, specs []model.RuleSpec) (engine.Result, error)
	Transactions(ctx context.Context) ([]model.Transaction, error)
	SuspiciousTransactions() []model.Transaction
	SendReport(ctx context.Context, to string) (bool, error)
	Flush(ctx context.Context) (int, error)
	QueueStats() queue.Stats
}

// Server routes HTTP requests to the engine.
type Server struct {
	engine Engine
}

// NewServer creates a server for the given engine.
func NewServer(e Engine) *Server {
	return &Server{engine: e}
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	v1 := router.Group(BasePath)
	{
		v1.GET("/health", s.health)
		v1.GET("/transactions", s.listTransactions)
		v1.GET("/transactions/suspicious", s.listSuspicious)
		v1.POST("/transactions/generate", s.generate)
		v1.POST("/rules/apply", s.applyRules)
		v1.POST("/reports/email", s.sendReport)
		v1.POST("/queue/flush", s.flush)
	}

	return router
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Debug("Handled request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"queue":  s.engine.QueueStats(),
	})
}

func (s *Server) listTransactions(c *gin.Context) {
	txns, err := s.engine.Transactions(c.Request.Context())
	if err != nil {
		common.LogError(err, "Failed to list transactions", nil)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "fetching transactions failed"})
		return
	}
	c.JSON(http.StatusOK, txns)
}

func (s *Server) listSuspicious(c *gin.Context) {
	c.JSON(http.StatusOK, suspiciousViews(s.engine.SuspiciousTransactions()))
}

func (s *Server) generate(c *gin.Context) {
	txns, err := s.engine.Generate(c.Request.Context())
	if err != nil {
		common.LogError(err, "Failed to generate transactions", nil)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "generating transactions failed"})
		return
	}
	c.JSON(http.StatusCreated, txns)
}

type applyRulesRequest struct {
	Rules []string `json:"rules"`
}

type applyRulesResponse struct {
	Transactions []model.Transaction `json:"transactions"`
	Suspicious   []SuspiciousView    `json:"suspicious"`
	Skipped      []string            `json:"skipped"`
}

func (s *Server) applyRules(c *gin.Context) {
	var req applyRulesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body: " + err.Error()})
		return
	}

	result, err := s.engine.ApplyRules(c.Request.Context(), model.RuleSpecs(req.Rules))
	if err != nil {
		common.LogError(err, "Failed to apply rules", common.Fields{"rules": req.Rules})
		c.JSON(http.StatusInternalServerError, gin.H{"message": "applying rules failed"})
		return
	}

	c.JSON(http.StatusOK, applyRulesResponse{
		Transactions: result.All,
		Suspicious:   suspiciousViews(result.Suspicious),
		Skipped:      result.Skipped,
	})
}

type sendReportRequest struct {
	To string `json:"to" binding:"required"`
}

func (s *Server) sendReport(c *gin.Context) {
	var req sendReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "a recipient is required"})
		return
	}

	sent, err := s.engine.SendReport(c.Request.Context(), req.To)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"sent": false, "message": "sending report failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sent": sent})
}

func (s *Server) flush(c *gin.Context) {
	n, err := s.engine.Flush(c.Request.Context())
	switch {
	case errors.Is(err, common.ErrFlushInProgress):
		c.JSON(http.StatusConflict, gin.H{"message": err.Error()})
	case err != nil:
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": err.Error(), "pending": s.engine.QueueStats().Pending})
	default:
		c.JSON(http.StatusOK, gin.H{"flushed": n})
	}
}
