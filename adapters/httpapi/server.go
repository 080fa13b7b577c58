package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dropweight/app"
	"dropweight/domain/core"
	"dropweight/internal"
	"dropweight/ports"
)

// Server exposes the inference engine over JSON. It renders nothing:
// charts, tables and forms are the consuming application's concern.
type Server struct {
	router       *gin.Engine
	service      *app.InferenceService
	logger       *internal.Logger
	defaultMLE   ports.MLEOptions
	defaultBayes ports.BayesOptions
}

// NewServer creates the API server with its routes registered
func NewServer(service *app.InferenceService, defaultMLE ports.MLEOptions, defaultBayes ports.BayesOptions) *Server {
	s := &Server{
		router:       gin.Default(),
		service:      service,
		logger:       internal.NewDefaultLogger(),
		defaultMLE:   defaultMLE,
		defaultBayes: defaultBayes,
	}
	s.registerRoutes()
	return s
}

// Router returns the underlying engine, mainly for tests
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Run serves until the listener fails
func (s *Server) Run(addr string) error {
	s.logger.Info("httpapi listening on %s", addr)
	return s.router.Run(addr)
}

func (s *Server) registerRoutes() {
	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := s.router.Group("/api/v1/weights")
	v1.POST("/mle", s.handleMLE)
	v1.POST("/bayesian", s.handleBayesian)
	v1.POST("/mle/per-input", s.handleMLEPerInput)
	v1.POST("/bayesian/per-input", s.handleBayesianPerInput)
}

func (s *Server) handleMLE(c *gin.Context) {
	req, ok := s.bindRequest(c)
	if !ok {
		return
	}
	result, err := s.service.EstimateMLE(c.Request.Context(), req)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleBayesian(c *gin.Context) {
	req, ok := s.bindRequest(c)
	if !ok {
		return
	}
	result, err := s.service.InferBayesian(c.Request.Context(), req)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleMLEPerInput(c *gin.Context) {
	req, ok := s.bindRequest(c)
	if !ok {
		return
	}
	result, err := s.service.EstimateMLEPerInput(c.Request.Context(), req)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleBayesianPerInput(c *gin.Context) {
	req, ok := s.bindRequest(c)
	if !ok {
		return
	}
	result, err := s.service.InferBayesianPerInput(c.Request.Context(), req)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) bindRequest(c *gin.Context) (app.InferenceRequest, bool) {
	var body WeightRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "malformed request body: " + err.Error()})
		return app.InferenceRequest{}, false
	}

	return app.InferenceRequest{
		RunID:    core.NewRunID(),
		Category: body.Category,
		Datasets: body.Datasets,
		MLE:      body.MLE.apply(s.defaultMLE),
		Bayes:    body.Bayes.apply(s.defaultBayes),
	}, true
}

func (s *Server) renderError(c *gin.Context, err error) {
	if core.IsCallerError(err) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	s.logger.Error("inference failed: %v", err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "inference failed"})
}
