// Package server exposes the pipeline's triggering surface over HTTP:
// one operation to process the pipeline for an evaluation, plus health and
// metrics endpoints. Error taxonomy maps to status codes so callers can
// tell "retry later" conflicts from degraded dependencies.
package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"talentcycle/internal/aiclient/aierrors"
	"talentcycle/internal/domain"
	"talentcycle/internal/pipeline"
	"talentcycle/pkg/logger"
)

// Server wires the orchestrator into a gin router.
type Server struct {
	orch *pipeline.Orchestrator
	log  *logger.Logger
}

// New builds the server.
func New(orch *pipeline.Orchestrator, log *logger.Logger) *Server {
	return &Server{orch: orch, log: log.With("component", "server")}
}

// Router returns the configured gin engine.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", s.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1")
	v1.POST("/evaluations/:id/process", s.processPipeline)

	return r
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// POST /v1/evaluations/:id/process
func (s *Server) processPipeline(c *gin.Context) {
	evaluationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid evaluation id"})
		return
	}

	result, err := s.orch.Process(c.Request.Context(), evaluationID)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": result})
}

// writeError maps pipeline failures onto the HTTP surface. Incomplete
// cycles are conflicts the caller resolves by waiting for more raters;
// open breakers and exhausted retries are degraded-dependency responses.
func (s *Server) writeError(c *gin.Context, err error) {
	var (
		incomplete *domain.IncompleteCycleError
		validation *domain.ValidationError
		notFound   *domain.NotFoundError
		breakerErr *aierrors.CircuitBreakerError
		depErr     *domain.DependencyUnavailableError
		stageErr   *pipeline.StageError
	)

	stage := ""
	if errors.As(err, &stageErr) {
		stage = stageErr.Stage
	}

	switch {
	case errors.As(err, &incomplete):
		c.JSON(http.StatusConflict, gin.H{
			"error":   "cycle not complete",
			"missing": incomplete.Missing,
		})
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &validation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.As(err, &breakerErr):
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":    "service degraded, try later",
			"service":  breakerErr.Service,
			"stage":    stage,
			"retry_at": breakerErr.RetryAt,
		})
	case errors.As(err, &depErr):
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   depErr.Error(),
			"service": depErr.Service,
			"stage":   stage,
		})
	default:
		s.log.Error("pipeline failed", "stage", stage, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
