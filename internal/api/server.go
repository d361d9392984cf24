// Package api serves recommendations over HTTP and websocket.
package api

import (
	"net/http"

	"fuzzymenu/internal/evaluation"
	"fuzzymenu/internal/monitoring"
	"fuzzymenu/internal/recommender"

	"github.com/gin-gonic/gin"
)

// Config holds the server's collaborators. Monitor, Metrics and JWTSecret
// are optional.
type Config struct {
	Service   *recommender.Service
	Monitor   *monitoring.Monitor
	Metrics   *evaluation.MetricsCollector
	JWTSecret string
}

// Server is the HTTP front end of the recommender.
type Server struct {
	Router  *gin.Engine
	svc     *recommender.Service
	monitor *monitoring.Monitor
	metrics *evaluation.MetricsCollector
	secret  string
}

// NewServer creates the router and registers every route.
func NewServer(cfg Config) *Server {
	s := &Server{
		Router:  gin.Default(),
		svc:     cfg.Service,
		monitor: cfg.Monitor,
		metrics: cfg.Metrics,
		secret:  cfg.JWTSecret,
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all API endpoints
func (s *Server) setupRoutes() {
	s.Router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "preset": s.svc.Preset().Name})
	})
	if s.metrics != nil {
		s.Router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	var protected []gin.HandlerFunc
	if s.secret != "" {
		protected = append(protected, AuthMiddleware(s.secret))
	}

	s.Router.GET("/ws", append(protected, s.handleWebSocket)...)

	v1 := s.Router.Group("/api/v1", protected...)
	{
		v1.GET("/menu", s.handleMenu)
		v1.GET("/preset", s.handlePreset)
		v1.GET("/metrics", s.handleMetrics)

		v1.POST("/recommendations", s.handleRecommend)
		v1.POST("/recommendations/explain", s.handleExplain)
		v1.GET("/recommendations", s.handleHistory)
		v1.GET("/recommendations/:id", s.handleGet)
		v1.GET("/stats/dishes", s.handleDishCounts)
	}
}
